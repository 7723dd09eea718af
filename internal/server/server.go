// Package server implements the todo API the client consumes.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"todoboard/internal/config"
	"todoboard/internal/log"
	"todoboard/internal/model"
)

type Server struct {
	cfg        *config.ServerConfig
	repo       *Repo
	mux        *http.ServeMux
	httpClient *http.Client
	weatherKey string
}

func New(cfg *config.ServerConfig, repo *Repo) *Server {
	s := &Server{
		cfg:        cfg,
		repo:       repo,
		mux:        http.NewServeMux(),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		weatherKey: cfg.WeatherKey(),
	}
	s.registerRoutes()
	return s
}

// SetWeatherKey overrides the key read from the environment.
func (s *Server) SetWeatherKey(key string) {
	s.weatherKey = key
}

// Handler returns the routes, wrapped with basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.cfg.BasicAuth != nil {
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "basic_auth", s.cfg.BasicAuth != nil)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/todos", s.handleList)
	s.mux.HandleFunc("POST /api/todos", s.handleCreate)
	s.mux.HandleFunc("PUT /api/todos/{id}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /api/todos/{id}", s.handleDelete)
	s.mux.HandleFunc("GET /api/weather", s.handleWeather)
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			// No WWW-Authenticate header: the client shows its own prompt.
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	items, err := s.repo.List()
	if err != nil {
		log.Error("list todos failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list todos")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid todo body")
		return
	}
	if strings.TrimSpace(d.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "text is required")
		return
	}
	created, err := s.repo.Create(d)
	if err != nil {
		log.Error("create todo failed", err)
		writeError(w, http.StatusInternalServerError, "failed to create todo")
		return
	}
	log.Debug("todo created", "id", created.ID)
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var it model.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid todo body")
		return
	}
	updated, err := s.repo.Update(id, it)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	if err != nil {
		log.Error("update todo failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to update todo")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := s.repo.Delete(id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	if err != nil {
		log.Error("delete todo failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete todo")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleWeather proxies to the One Call API.
//
// GET /api/weather?lat=..&lon=..&units=metric
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.weatherKey == "" {
		writeError(w, http.StatusInternalServerError, "API Key not configured")
		return
	}
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusUnprocessableEntity, "lat and lon are required")
		return
	}
	units := q.Get("units")
	if units == "" {
		units = "metric"
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", s.weatherKey)
	params.Set("units", units)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, s.cfg.WeatherURL+"?"+params.Encode(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Weather API Error")
		return
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Error("weather upstream failed", err)
		writeError(w, http.StatusBadGateway, "Weather API Error")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		writeError(w, resp.StatusCode, "Weather API Error")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Error("weather relay failed", err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Detail string `json:"detail"`
	}
	writeJSON(w, status, errResp{Detail: msg})
}
