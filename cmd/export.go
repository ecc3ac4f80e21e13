package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mirzabek3555/Ustoziya-new/internal/export"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
	"github.com/Mirzabek3555/Ustoziya-new/internal/store"
	"github.com/Mirzabek3555/Ustoziya-new/internal/testdef"
)

var (
	exportTest  string
	exportClass string
	exportLimit int
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored results for a test to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		test, err := testdef.Load(exportTest)
		if err != nil {
			return eris.Wrap(err, "load test definition")
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		stored, err := st.ListResults(ctx, store.ResultFilter{
			TestID:       test.ID,
			StudentClass: exportClass,
			Limit:        exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list results")
		}

		results := make([]*model.GradedResult, len(stored))
		for i := range stored {
			results[i] = &stored[i]
		}

		exporter := export.NewExporter(cfg.Export.Dir)
		path, err := exporter.Export(test, results, exportOut)
		if err != nil {
			return eris.Wrap(err, "export results")
		}

		zap.L().Info("results exported",
			zap.String("path", path),
			zap.Int("results", len(results)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTest, "test", "", "test definition YAML path (required)")
	exportCmd.Flags().StringVar(&exportClass, "class", "", "filter results by class label")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "max results to export (0 = all)")
	exportCmd.Flags().StringVar(&exportOut, "out", "natijalar.xlsx", "output filename")
	_ = exportCmd.MarkFlagRequired("test")
	rootCmd.AddCommand(exportCmd)
}
