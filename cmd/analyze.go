package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
	"github.com/Mirzabek3555/Ustoziya-new/internal/testdef"
)

var (
	analyzeImage    string
	analyzeTest     string
	analyzeClass    string
	analyzeSave     bool
	analyzeFeedback bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Recognize and grade a single answer-sheet image",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		test, err := testdef.Load(analyzeTest)
		if err != nil {
			return eris.Wrap(err, "load test definition")
		}

		result, err := env.Pipeline.Run(ctx, analyzeImage, analyzeClass, test)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		if analyzeSave {
			if err := env.Store.SaveResult(ctx, result); err != nil {
				return eris.Wrap(err, "save result")
			}
		}

		zap.L().Info("analysis complete",
			zap.String("student", result.StudentName),
			zap.Int("correct", result.CorrectAnswers),
			zap.Float64("percentage", result.Percentage),
			zap.String("band", string(result.GradeBand)),
		)

		out := struct {
			Result   *model.GradedResult `json:"result"`
			Feedback *model.Feedback     `json:"feedback,omitempty"`
		}{Result: result}

		if analyzeFeedback {
			fb := env.Analyzer.Feedback(ctx, result, test.Title)
			out.Feedback = &fb
		}

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeImage, "image", "", "answer-sheet image path (required)")
	analyzeCmd.Flags().StringVar(&analyzeTest, "test", "", "test definition YAML path (required)")
	analyzeCmd.Flags().StringVar(&analyzeClass, "class", "", "student class label")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the graded result")
	analyzeCmd.Flags().BoolVar(&analyzeFeedback, "feedback", false, "generate study feedback for the student")
	_ = analyzeCmd.MarkFlagRequired("image")
	_ = analyzeCmd.MarkFlagRequired("test")
	rootCmd.AddCommand(analyzeCmd)
}
