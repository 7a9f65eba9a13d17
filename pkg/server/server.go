// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/policyrisk/pkg/adk"
	"github.com/user/policyrisk/pkg/engine"
	"github.com/user/policyrisk/pkg/extract"
)

// DefaultMaxUploadBytes caps uploaded documents
const DefaultMaxUploadBytes = 10 << 20

// Analyzer is the part of engine.Analyzer the server needs
type Analyzer interface {
	Analyze(ctx context.Context, doc engine.Document) (*engine.Report, error)
}

// Server serves the upload endpoint and, optionally, a static directory
type Server struct {
	Analyzer       Analyzer
	MaxUploadBytes int64
	StaticDir      string
}

type errorBody struct {
	Error string `json:"error"`
}

// Handler builds the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.StaticDir)))
	}
	return mux
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("missing or unreadable file: %v", err)})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("failed to read file: %v", err)})
		return
	}

	text, err := extract.Extract(header.Filename, data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	adk.Debugf("analyzing upload %s (%d bytes)", header.Filename, len(data))
	report, err := s.Analyzer.Analyze(r.Context(), engine.Document{Name: header.Filename, Text: text})
	if err != nil {
		adk.Warnf("analysis of %s failed: %v", header.Filename, err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		adk.Warnf("failed to write response: %v", err)
	}
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
