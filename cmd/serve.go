package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
	"github.com/Mirzabek3555/Ustoziya-new/internal/pipeline"
	"github.com/Mirzabek3555/Ustoziya-new/internal/testdef"
)

const maxUploadBytes = 32 << 20

var (
	servePort int
	serveTest string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for answer-sheet analysis requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		test, err := testdef.Load(serveTest)
		if err != nil {
			return eris.Wrap(err, "load test definition")
		}

		mux := buildMux(env, test)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go shutdownOnCancel(ctx, srv)

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("test", test.ID),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveTest, "test", "", "test definition YAML path (required)")
	_ = serveCmd.MarkFlagRequired("test")
	rootCmd.AddCommand(serveCmd)
}

const shutdownTimeout = 10 * time.Second

// shutdownOnCancel waits for ctx cancellation, then drains the server on a
// fresh timeout context. Handing the already-canceled ctx to Shutdown would
// abort in-flight requests instead of draining them.
func shutdownOnCancel(ctx context.Context, srv *http.Server) {
	<-ctx.Done()
	zap.L().Info("shutting down server")
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

// buildMux sets up the HTTP routes for the analysis server.
func buildMux(env *pipelineEnv, test *model.Test) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /results/{id}", func(w http.ResponseWriter, r *http.Request) {
		if env.Store == nil {
			http.Error(w, `{"error":"result not found"}`, http.StatusNotFound)
			return
		}
		result, err := env.Store.GetResult(r.Context(), r.PathValue("id"))
		if err != nil {
			http.Error(w, `{"error":"result not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(result)
	})

	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, `{"error":"invalid multipart body"}`, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			http.Error(w, `{"error":"image is required"}`, http.StatusBadRequest)
			return
		}
		defer file.Close()

		// The vision backends read from disk, so spool the upload to a
		// uniquely named temp file.
		tmpPath := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(header.Filename))
		dst, err := os.Create(tmpPath)
		if err != nil {
			zap.L().Error("failed to create temp file", zap.Error(err))
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		defer os.Remove(tmpPath)
		if _, err := io.Copy(dst, file); err != nil {
			dst.Close()
			zap.L().Error("failed to write upload", zap.Error(err))
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		dst.Close()

		result, err := env.Pipeline.Run(r.Context(), tmpPath, r.FormValue("class"), test)
		if err != nil {
			if eris.Is(err, pipeline.ErrNoText) {
				http.Error(w, `{"error":"no text could be extracted from the image"}`, http.StatusUnprocessableEntity)
				return
			}
			zap.L().Error("analyze request failed", zap.Error(err))
			http.Error(w, `{"error":"analysis failed"}`, http.StatusInternalServerError)
			return
		}

		if env.Store != nil {
			if err := env.Store.SaveResult(r.Context(), result); err != nil {
				zap.L().Warn("failed to persist result", zap.Error(err))
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(result)
	})

	return mux
}
