package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mirzabek3555/Ustoziya-new/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ustoziya",
	Short: "Answer-sheet recognition and grading pipeline",
	Long:  "Recognizes scanned answer sheets through a tiered vision waterfall, extracts structured answers via Claude, grades them against a test key, and exports results to xlsx.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
