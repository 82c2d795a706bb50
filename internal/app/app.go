// Package app wires the configuration into a runnable scoring application,
// for both the HTTP service and one-shot command line scoring.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/echovine/speechscore/configs"
	"github.com/echovine/speechscore/internal/scoring"
	"github.com/echovine/speechscore/internal/server"
	"github.com/echovine/speechscore/pkg/aligner"
	"github.com/echovine/speechscore/pkg/fetch"
	"github.com/echovine/speechscore/pkg/logging"
	"github.com/echovine/speechscore/pkg/stt"
)

// App bundles the scoring engine with its configured dependencies
type App struct {
	cfg    *configs.Config
	logger logging.Logger
	engine *scoring.Engine
	refs   *ReferenceStore
}

// New builds the application from configuration
func New(cfg *configs.Config) (*App, error) {
	if err := configs.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.SetLevel(cfg.LogLevel)
	logger := logging.WithFields(logging.Fields{"component": "app"})

	opts := []stt.WhisperOption{
		stt.WithLanguage(cfg.STT.Language),
		stt.WithHTTPClient(&http.Client{Timeout: cfg.STT.Timeout}),
	}
	if cfg.STT.Model != "" {
		opts = append(opts, stt.WithModel(cfg.STT.Model))
	}
	transcriber, err := stt.NewWhisperClient(cfg.STT.ServerURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	var phoneAligner aligner.Aligner
	if cfg.MFA.Enabled {
		phoneAligner = aligner.NewMFAAligner(aligner.MFAConfig{
			Container:     cfg.MFA.Container,
			CorpusDir:     cfg.MFA.CorpusDir,
			OutputDir:     cfg.MFA.OutputDir,
			Dictionary:    cfg.MFA.Dictionary,
			AcousticModel: cfg.MFA.AcousticModel,
			Timeout:       cfg.MFA.Timeout,
		})
	}

	engine := scoring.NewEngine(&scoring.EngineConfig{
		Config:      cfg,
		Transcriber: transcriber,
		Aligner:     phoneAligner,
		Fetcher:     fetch.New(cfg.Fetch.Timeout),
		Logger:      logger,
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		refs:   NewReferenceStore(cfg.DataDir),
	}, nil
}

// RunServer serves the HTTP API until the context is cancelled
func (a *App) RunServer(ctx context.Context) error {
	srv := server.New(&server.Config{
		Config:     a.cfg,
		Scorer:     a.engine,
		References: a.refs,
		Logger:     a.logger,
	})
	return srv.ListenAndServe(ctx)
}

// ScoreFile scores one recording against a named reference. The reference
// may be a name resolved through the data directory or a script file path.
func (a *App) ScoreFile(ctx context.Context, reference, userAudio string) (*scoring.Report, error) {
	ref, err := a.refs.Load(reference)
	if err != nil {
		return nil, err
	}

	scratch, err := os.MkdirTemp(a.cfg.Server.ScratchDir, "score-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	return a.engine.Score(ctx, &scoring.Request{
		JobID:      uuid.New().String(),
		Reference:  ref,
		UserAudio:  userAudio,
		ScratchDir: scratch,
	})
}
