// Package server exposes the accident dataset through a small read-only
// JSON API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/izv-data/internal/accident"
	"github.com/sells-group/izv-data/internal/stats"
)

// Source is the part of the downloader the API reads from.
type Source interface {
	GetDataset(ctx context.Context, regions ...string) (*accident.Dataset, error)
	CacheState(region string) (memory, disk bool)
}

// Server serialises requests to a Source, which is not safe for concurrent use.
type Server struct {
	mu  sync.Mutex
	src Source
}

// New returns a Server reading from src.
func New(src Source) *Server {
	return &Server{src: src}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/regions", s.handleRegions)
	r.Get("/stats", s.handleStats)
	return r
}

type regionView struct {
	Abbr     string `json:"abbr"`
	Code     string `json:"code"`
	InMemory bool   `json:"in_memory"`
	OnDisk   bool   `json:"on_disk"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]regionView, 0, len(accident.Regions))
	for _, reg := range accident.Regions {
		mem, disk := s.src.CacheState(reg.Abbr)
		out = append(out, regionView{Abbr: reg.Abbr, Code: reg.Code, InMemory: mem, OnDisk: disk})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleStats accepts ?region=STC&region=PHA or ?region=STC,PHA. No region
// means all of them.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var regions []string
	for _, v := range r.URL.Query()["region"] {
		for _, abbr := range strings.Split(v, ",") {
			abbr = strings.ToUpper(strings.TrimSpace(abbr))
			if abbr == "" {
				continue
			}
			if _, ok := accident.RegionCode(abbr); !ok {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown region %q", abbr)})
				return
			}
			regions = append(regions, abbr)
		}
	}

	s.mu.Lock()
	ds, err := s.src.GetDataset(r.Context(), regions...)
	s.mu.Unlock()
	if err != nil {
		zap.L().Error("server: load dataset", zap.Strings("regions", regions), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dataset unavailable"})
		return
	}

	summary, err := stats.Compute(ds)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}

// ListenAndServe serves h on port until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, h http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}
