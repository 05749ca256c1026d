// Package api serves the pipeline and its reports over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/vulnforge/internal/extract"
	"github.com/ppiankov/vulnforge/internal/pipeline"
	"github.com/ppiankov/vulnforge/internal/remediation"
	"github.com/ppiankov/vulnforge/internal/reporter"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, ref string) (*pipeline.Result, error)
}

// Config holds server configuration.
type Config struct {
	Listen     string // ":8000"
	ReportsDir string
	SummaryDir string
}

// Server exposes run, report and remediation endpoints.
type Server struct {
	cfg    Config
	runner Runner
	srv    *http.Server
	mu     sync.Mutex
	addr   string

	// one run at a time: the extraction root is exclusively owned
	runMu sync.Mutex
}

// New creates a new API server.
func New(cfg Config, runner Runner) *Server {
	return &Server{cfg: cfg, runner: runner}
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /remediation", s.handleRemediation)
	mux.HandleFunc("GET /reports", s.handleReports)
	return withCORS(mux)
}

// Start begins listening. Returns the actual address.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return "", fmt.Errorf("api listen %s: %w", s.cfg.Listen, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.mu.Unlock()

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("api server error", "error", err)
		}
	}()

	slog.Info("api started", "addr", s.addr)
	return s.addr, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Addr returns the listening address after Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	repoURL := strings.TrimSpace(r.URL.Query().Get("repo_url"))
	if repoURL == "" {
		writeError(w, http.StatusBadRequest, "repo_url is required")
		return
	}
	if !s.runMu.TryLock() {
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	defer s.runMu.Unlock()

	slog.Info("api run", "repo_url", repoURL)
	res, err := s.runner.Run(r.Context(), repoURL)
	if err != nil {
		if errors.Is(err, extract.ErrNotPublicRepo) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("api run failed", "repo_url", repoURL, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"report_path":  res.ReportPath,
		"report_name":  filepath.Base(res.ReportPath),
		"summary_path": res.SummaryPath,
		"extracted":    res.Extracted,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	path, err := reporter.Find(s.cfg.ReportsDir, name)
	if err != nil {
		if errors.Is(err, reporter.ErrNoReports) {
			msg := "No report files found"
			if name != "" {
				msg = "Report file not found"
			}
			writeError(w, http.StatusNotFound, msg)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read report: "+err.Error())
		return
	}
	if !json.Valid(data) {
		writeError(w, http.StatusInternalServerError, "report is not valid JSON")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"report_path": path,
		"data":        json.RawMessage(data),
	})
}

func (s *Server) handleRemediation(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	path, ok := remediation.SummaryPath(s.cfg.SummaryDir, name)
	if !ok {
		writeError(w, http.StatusNotFound, "Remediation summary not found")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read summary: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": string(data)})
}

type reportEntry struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Modified float64 `json:"modified"` // unix seconds
}

func (s *Server) handleReports(w http.ResponseWriter, _ *http.Request) {
	list, err := reporter.List(s.cfg.ReportsDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]reportEntry, 0, len(list))
	for _, r := range list {
		out = append(out, reportEntry{
			Name:     r.Name,
			Path:     r.Path,
			Modified: float64(r.Modified.UnixNano()) / 1e9,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"detail": msg})
}
