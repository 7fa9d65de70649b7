// Package api exposes the analysis pipeline over HTTP: video upload and
// analysis, stored-result retrieval, and diagnostic charts.
package api

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fastball-data/pitch.report/internal/fsutil"
	"github.com/fastball-data/pitch.report/internal/httputil"
	"github.com/fastball-data/pitch.report/internal/pitch"
	"github.com/fastball-data/pitch.report/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// DefaultMaxUploadMB caps uploaded video size when the caller does not set
// an explicit limit.
const DefaultMaxUploadMB = 200

type Server struct {
	analyzer *pitch.Analyzer
	store    *pitch.AnalysisStore
	fs       fsutil.FileSystem

	uploadDir      string
	maxUploadBytes int64

	// The detector's network handle is not safe for concurrent use, so
	// analyses run one at a time; concurrent uploads queue here.
	analyzeMu sync.Mutex
}

// NewServer builds a Server around an analyzer and its result store. store
// may be nil to disable persistence; fs may be nil for the OS filesystem;
// uploadDir defaults to the system temp dir and maxUploadBytes to
// DefaultMaxUploadMB.
func NewServer(analyzer *pitch.Analyzer, store *pitch.AnalysisStore, fs fsutil.FileSystem, uploadDir string, maxUploadBytes int64) *Server {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadMB << 20
	}
	return &Server{
		analyzer:       analyzer,
		store:          store,
		fs:             fs,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
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
	mux.HandleFunc("/", s.index)
	mux.HandleFunc("/health", s.health)
	mux.HandleFunc("/api/analyze", s.analyzeVideo)
	mux.HandleFunc("/api/analyses", s.listAnalyses)
	mux.HandleFunc("/api/analyses/get", s.getAnalysis)
	mux.HandleFunc("/api/analyses/chart", s.analysisChart)
	return mux
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.NotFound(w, "not found")
		return
	}
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	httputil.WriteJSONOK(w, map[string]string{
		"message": "Ball Speed Analyzer API - Auto Calibration with Mitt Detection",
		"version": version.Version,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	httputil.WriteJSONOK(w, map[string]string{
		"status":    "ok",
		"service":   "pitch",
		"version":   version.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
