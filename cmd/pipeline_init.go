package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Mirzabek3555/Ustoziya-new/internal/pipeline"
	"github.com/Mirzabek3555/Ustoziya-new/internal/semantic"
	"github.com/Mirzabek3555/Ustoziya-new/internal/store"
	"github.com/Mirzabek3555/Ustoziya-new/internal/vision"
	anthropicpkg "github.com/Mirzabek3555/Ustoziya-new/pkg/anthropic"
)

// pipelineEnv holds the store, analyzer, and pipeline shared by the
// analyze/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Analyzer *semantic.Analyzer
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline opens the store, builds the vision waterfall and the semantic
// analyzer, and wires them into a Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("pipeline"); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	// Without an API key the analyzer degrades to regex parsing, so the
	// pipeline still works fully offline.
	var client anthropicpkg.Client
	if cfg.Semantic.Key != "" {
		client = anthropicpkg.NewClient(cfg.Semantic.Key)
	} else {
		zap.L().Warn("USTOZIYA_SEMANTIC_KEY not set, answers will be parsed by regex only")
	}
	analyzer := semantic.NewAnalyzer(client, cfg.Semantic)

	extractor := vision.NewExtractorFromConfig(cfg.Vision)

	return &pipelineEnv{
		Store:    st,
		Analyzer: analyzer,
		Pipeline: pipeline.New(extractor, analyzer),
	}, nil
}
