// Package server exposes the scoring engine over HTTP. Jobs are accepted on
// POST /analyze, processed in the background and delivered via webhook, with
// GET /jobs/{id} available for polling.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/echovine/speechscore/configs"
	"github.com/echovine/speechscore/internal/job"
	"github.com/echovine/speechscore/internal/scoring"
	"github.com/echovine/speechscore/pkg/logging"
	"github.com/echovine/speechscore/pkg/notify"
)

// defaultJobTimeout bounds a single background scoring job, transcription
// and forced alignment included.
const defaultJobTimeout = 10 * time.Minute

// Scorer runs one scoring job
type Scorer interface {
	Score(ctx context.Context, req *scoring.Request) (*scoring.Report, error)
}

// ReferenceSource resolves reference names to loaded reference scripts
type ReferenceSource interface {
	Load(name string) (*scoring.Reference, error)
}

// Server is the HTTP API for the scoring service
type Server struct {
	cfg        *configs.Config
	logger     logging.Logger
	scorer     Scorer
	refs       ReferenceSource
	registry   *job.Registry
	scratch    *job.Scratch
	notifier   notify.Notifier
	jobTimeout time.Duration
}

// Config contains the server dependencies
type Config struct {
	Config     *configs.Config
	Scorer     Scorer
	References ReferenceSource
	Notifier   notify.Notifier
	Logger     logging.Logger
}

// New creates a server
func New(config *Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	notifier := config.Notifier
	if notifier == nil {
		notifier = notify.NewWebhookNotifier(config.Config.Webhook.Timeout)
	}

	return &Server{
		cfg:        config.Config,
		logger:     logger,
		scorer:     config.Scorer,
		refs:       config.References,
		registry:   job.NewRegistry(),
		scratch:    job.NewScratch(config.Config.Server.ScratchDir),
		notifier:   notifier,
		jobTimeout: defaultJobTimeout,
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /jobs/{id}", s.handleJob)
	return mux
}

// ListenAndServe runs the HTTP server until the context is cancelled, then
// shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", logging.Fields{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "speechscore",
		"status":  "ok",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AnalyzeRequest is the POST /analyze body
type AnalyzeRequest struct {
	Reference  string `json:"reference"`
	UserAudio  string `json:"user_audio"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Reference == "" || req.UserAudio == "" {
		writeError(w, http.StatusBadRequest, errors.New("reference and user_audio are required"))
		return
	}

	ref, err := s.refs.Load(req.Reference)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown reference %q: %w", req.Reference, err))
		return
	}

	j := s.registry.Create()
	go s.process(j.ID, ref, req)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": j.ID,
		"status": string(j.Status),
	})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	j, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("job not found"))
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// process runs one job in the background and reports the outcome to the
// registry and, when configured, the webhook.
func (s *Server) process(jobID string, ref *scoring.Reference, req AnalyzeRequest) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	log := s.logger.WithFields(logging.Fields{"job_id": jobID, "reference": req.Reference})
	s.registry.SetProcessing(jobID)

	report, err := s.run(ctx, jobID, ref, req.UserAudio)
	if err != nil {
		log.Error(err, "scoring job failed")
		s.registry.SetFailed(jobID, err)
		if req.WebhookURL != "" {
			nctx, ncancel := s.notifyContext()
			defer ncancel()
			if nerr := s.notifier.Failed(nctx, req.WebhookURL, jobID, err, time.Since(start).Seconds()); nerr != nil {
				log.Error(nerr, "webhook delivery failed")
			}
		}
		return
	}

	s.registry.SetCompleted(jobID, report)
	if req.WebhookURL != "" {
		nctx, ncancel := s.notifyContext()
		defer ncancel()
		if nerr := s.notifier.Completed(nctx, req.WebhookURL, jobID, report); nerr != nil {
			log.Error(nerr, "webhook delivery failed")
		}
	}
}

// notifyContext returns a delivery context independent of the job context,
// which is already expired when the job failed on its own deadline.
func (s *Server) notifyContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.Webhook.Timeout)
}

func (s *Server) run(ctx context.Context, jobID string, ref *scoring.Reference, userAudio string) (*scoring.Report, error) {
	dir, err := s.scratch.Dir(jobID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.scratch.Cleanup(jobID); cerr != nil {
			s.logger.Warn("scratch cleanup failed", logging.Fields{"job_id": jobID, "error": cerr.Error()})
		}
	}()

	return s.scorer.Score(ctx, &scoring.Request{
		JobID:      jobID,
		Reference:  ref,
		UserAudio:  userAudio,
		ScratchDir: dir,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
