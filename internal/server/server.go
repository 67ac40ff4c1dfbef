// Package server exposes the OCR pipeline over HTTP: a single-file
// endpoint, a batch endpoint, and a docs redirect.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docworks/ocrbridge/internal/config"
	"github.com/docworks/ocrbridge/internal/pipeline"
)

const shutdownGracePeriod = 10 * time.Second

// Server handles OCR HTTP requests. The pipeline runner is injected so
// transport behaviour is testable without a Python environment.
type Server struct {
	cfg    *config.Config
	runner pipeline.Runner
	logger *logrus.Logger
}

// New constructs a Server.
func New(cfg *config.Config, runner pipeline.Runner, logger *logrus.Logger) *Server {
	return &Server{cfg: cfg, runner: runner, logger: logger}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ocr", s.handleOCR)
	mux.HandleFunc("POST /ocr/batch", s.handleBatch)
	mux.HandleFunc("GET /", s.handleRoot)
	return mux
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleRoot redirects to the project documentation.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, s.cfg.DocsURL, http.StatusTemporaryRedirect)
}
