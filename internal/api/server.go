// Package api serves a read-only HTTP view of generated cylinder ROIs.
package api

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/cylinder.roi/internal/config"
	"github.com/banshee-data/cylinder.roi/internal/httputil"
	"github.com/banshee-data/cylinder.roi/internal/preview"
	"github.com/banshee-data/cylinder.roi/internal/roi"
	"github.com/banshee-data/cylinder.roi/internal/scene"
	"github.com/banshee-data/cylinder.roi/internal/scene/sqlite"
	"github.com/banshee-data/cylinder.roi/internal/version"
)

// ANSI escape codes for the request log
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// RunLister is implemented by stores that record generation runs.
type RunLister interface {
	ListRuns(ctx context.Context) ([]*sqlite.Run, error)
}

type Server struct {
	rois scene.Lister
	runs RunLister
	cfg  *config.CylinderConfig

	mu      sync.RWMutex
	results []roi.Result
}

// NewServer returns a server listing containers from rois. runs may be nil.
func NewServer(rois scene.Lister, runs RunLister, cfg *config.CylinderConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyCylinderConfig()
	}
	return &Server{rois: rois, runs: runs, cfg: cfg}
}

// SetResults replaces the results shown by the preview endpoints.
func (s *Server) SetResults(results []roi.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
}

func (s *Server) currentResults() []roi.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rois", s.listROIs)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/version", s.showVersion)
	mux.HandleFunc("/preview", s.previewChart)
	mux.HandleFunc("/preview.png", s.previewPlot)
	return mux
}

func (s *Server) listROIs(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGET(w, r) {
		return
	}
	rois, err := s.rois.ListROIs(r.Context())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list ROIs: %v", err))
		return
	}
	if rois == nil {
		rois = []scene.ROIRecord{}
	}
	httputil.WriteJSONOK(w, rois)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGET(w, r) {
		return
	}
	if s.runs == nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "run history is not recorded")
		return
	}
	runs, err := s.runs.ListRuns(r.Context())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*sqlite.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGET(w, r) {
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"radius_mm":                s.cfg.GetRadiusMM(),
		"height_mm":                s.cfg.GetHeightMM(),
		"resolution":               s.cfg.GetResolution(),
		"use_computed_orientation": s.cfg.GetUseComputedOrientation(),
		"workers":                  s.cfg.GetWorkers(),
	})
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGET(w, r) {
		return
	}
	httputil.WriteJSONOK(w, version.Get())
}

// arrowLen scales direction markers to the configured cylinder height.
func (s *Server) arrowLen() float64 {
	return s.cfg.GetHeightMM() / 2
}

func (s *Server) previewChart(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGET(w, r) {
		return
	}
	var buf bytes.Buffer
	if err := preview.RenderScatter3D(&buf, s.currentResults(), s.arrowLen()); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", &buf)
}

func (s *Server) previewPlot(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGET(w, r) {
		return
	}
	view := preview.TopView
	if r.URL.Query().Get("view") == "side" {
		view = preview.SideView
	}
	var buf bytes.Buffer
	if err := preview.WriteFootprint(&buf, s.currentResults(), view, s.arrowLen(), "png"); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, "image/png", &buf)
}
