package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mirzabek3555/Ustoziya-new/internal/export"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
	"github.com/Mirzabek3555/Ustoziya-new/internal/store"
	"github.com/Mirzabek3555/Ustoziya-new/internal/testdef"
)

var (
	batchDir         string
	batchTest        string
	batchClass       string
	batchConcurrency int
	batchExport      string
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Grade a directory of answer-sheet images concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		test, err := testdef.Load(batchTest)
		if err != nil {
			return eris.Wrap(err, "load test definition")
		}

		images, err := listImages(batchDir)
		if err != nil {
			return err
		}

		results, err := processBatch(ctx, images, batchClass, test, batchConcurrency, env.Store, env.Pipeline.Run)
		if err != nil {
			return err
		}

		if batchExport != "" && len(results) > 0 {
			exporter := export.NewExporter(cfg.Export.Dir)
			path, err := exporter.Export(test, results, batchExport)
			if err != nil {
				return eris.Wrap(err, "export batch results")
			}
			zap.L().Info("results exported", zap.String("path", path))
		}

		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of answer-sheet images (required)")
	batchCmd.Flags().StringVar(&batchTest, "test", "", "test definition YAML path (required)")
	batchCmd.Flags().StringVar(&batchClass, "class", "", "class label applied to all sheets")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "max images processed in parallel")
	batchCmd.Flags().StringVar(&batchExport, "export", "", "xlsx filename to export results to")
	_ = batchCmd.MarkFlagRequired("dir")
	_ = batchCmd.MarkFlagRequired("test")
	rootCmd.AddCommand(batchCmd)
}

// listImages returns the image files directly inside dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "read image directory")
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}

// analyzeFunc is the callback signature for grading a single sheet.
type analyzeFunc func(ctx context.Context, imagePath, studentClass string, test *model.Test) (*model.GradedResult, error)

// processBatch grades images concurrently with a bounded worker count.
// Individual failures are logged and skipped rather than aborting the batch.
// If st is non-nil, each graded result is persisted as it completes.
func processBatch(ctx context.Context, images []string, class string, test *model.Test, concurrency int, st store.Store, analyze analyzeFunc) ([]*model.GradedResult, error) {
	if len(images) == 0 {
		zap.L().Info("no images found")
		return nil, nil
	}

	zap.L().Info("processing batch",
		zap.Int("images", len(images)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	var results []*model.GradedResult
	var succeeded, failed atomic.Int64

	for _, img := range images {
		g.Go(func() error {
			log := zap.L().With(zap.String("image", img))

			result, err := analyze(gctx, img, class, test)
			if err != nil {
				failed.Add(1)
				log.Error("analysis failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			if st != nil {
				if sErr := st.SaveResult(gctx, result); sErr != nil {
					log.Warn("failed to persist result", zap.Error(sErr))
				}
			}

			succeeded.Add(1)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()

			log.Info("analysis complete",
				zap.String("student", result.StudentName),
				zap.Float64("percentage", result.Percentage),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	// Completion order is nondeterministic under concurrency.
	sort.Slice(results, func(i, j int) bool {
		return results[i].StudentName < results[j].StudentName
	})

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}
