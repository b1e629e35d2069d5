// Package api provides the local HTTP control API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"

	"glide/internal/config"
	"glide/internal/engine"
	"glide/internal/metrics"
	"glide/internal/params"
	"glide/internal/preset"
	"glide/internal/switcher"

	"github.com/go-chi/chi/v5"
)

// Server provides HTTP API for local control
type Server struct {
	configMgr *config.Manager
	engine    *engine.Engine
	switcher  *switcher.Switcher
	metrics   *metrics.Metrics
	token     string
	wsMgr     *WSManager

	// mu guards server and stopped; Start and Stop run on different goroutines
	mu      sync.Mutex
	server  *http.Server
	stopped bool
}

// NewServer creates a new API server. m may be nil.
func NewServer(configMgr *config.Manager, eng *engine.Engine, sw *switcher.Switcher, m *metrics.Metrics) *Server {
	s := &Server{
		configMgr: configMgr,
		engine:    eng,
		switcher:  sw,
		metrics:   m,
		token:     configMgr.Get().General.APIToken,
	}
	s.wsMgr = newWSManager(s)
	eng.Subscribe(s.wsMgr.publishEvent)
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	s.wsMgr.start()

	r := chi.NewRouter()
	r.Use(s.recoverMiddleware, s.authMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.wsMgr.handleWebSocket)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/enable", s.handleEnable)
		r.Post("/disable", s.handleDisable)
		r.Post("/toggle", s.handleToggle)

		r.Get("/params", s.handleGetParams)
		r.Put("/params", s.handlePutParams)
		r.Patch("/params", s.handlePatchParams)

		r.Get("/presets", s.handleListPresets)
		r.Get("/presets/{name}", s.handleGetPreset)
		r.Put("/presets/{name}", s.handleSavePreset)
		r.Post("/presets/{name}/load", s.handleLoadPreset)
		r.Delete("/presets/{name}", s.handleDeletePreset)
	})
	return r
}

// Start starts the API server on the loopback interface (blocking)
// Start returns nil without listening if Stop was already called.
func (s *Server) Start(port int) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		s.mu.Unlock()
		log.Printf("ERROR: API server failed to listen on %s: %v", addr, err)
		return err
	}

	log.Printf("API: Listening on http://%s", ln.Addr())
	srv := &http.Server{Handler: s.Handler()}
	s.server = srv
	s.mu.Unlock()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Printf("ERROR: API server stopped: %v", err)
		return err
	}
	return nil
}

// Stop closes the listener and all WebSocket clients
func (s *Server) Stop() error {
	s.mu.Lock()
	s.stopped = true
	srv := s.server
	s.mu.Unlock()

	s.wsMgr.stop()
	if srv == nil {
		return nil
	}
	return srv.Close()
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC RECOV: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Browsers cannot set headers on WebSocket upgrades, so /ws also accepts
		// ?token=
		if r.Header.Get("Authorization") == "Bearer "+s.token ||
			(r.URL.Path == "/ws" && r.URL.Query().Get("token") == s.token) {
			next.ServeHTTP(w, r)
			return
		}

		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

type statusResponse struct {
	Enabled       bool          `json:"enabled"`
	State         string        `json:"state"`
	Armed         bool          `json:"armed"`
	Firing        bool          `json:"firing"`
	RateHz        int           `json:"microstep_rate_hz"`
	Params        params.Params `json:"params"`
	CurrentPreset string        `json:"current_preset,omitempty"`
}

func (s *Server) status() statusResponse {
	return statusResponse{
		Enabled:       s.engine.Enabled(),
		State:         s.engine.State().String(),
		Armed:         s.engine.Signals().Armed(),
		Firing:        s.engine.Signals().Firing(),
		RateHz:        s.engine.RateHz(),
		Params:        s.engine.Params(),
		CurrentPreset: s.switcher.CurrentPreset(),
	}
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	log.Printf("API: Enable requested from %s", r.RemoteAddr)
	s.engine.Enable()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request) {
	log.Printf("API: Disable requested from %s", r.RemoteAddr)
	s.engine.Disable()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	on := s.engine.Toggle()
	log.Printf("API: Toggled %s from %s", onOff(on), r.RemoteAddr)
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Params())
}

// handlePutParams replaces all three parameters
func (s *Server) handlePutParams(w http.ResponseWriter, r *http.Request) {
	var p params.Params
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid parameter data", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.switcher.SetParams(p))
}

// handlePatchParams updates only the fields present in the body
func (s *Server) handlePatchParams(w http.ResponseWriter, r *http.Request) {
	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "Invalid parameter data", http.StatusBadRequest)
		return
	}
	p, err := s.switcher.PatchParams(fields)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	names, err := s.switcher.Presets().List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"presets": names,
		"current": s.switcher.CurrentPreset(),
	})
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.switcher.Presets().Load(chi.URLParam(r, "name"))
	if err != nil {
		writePresetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSavePreset stores the body as a preset, or the live parameters when the
// body is empty
func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	var saved string
	if len(strings.TrimSpace(string(body))) == 0 {
		saved, err = s.switcher.SaveCurrent(name)
	} else {
		var p params.Params
		p, err = preset.Decode(strings.NewReader(string(body)), preset.FormatJSON)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		saved, err = s.switcher.SavePreset(name, p)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "name": saved})
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	log.Printf("API: Loading preset '%s' (request from %s)", name, r.RemoteAddr)

	p, err := s.switcher.SwitchToPreset(name)
	if err != nil {
		writePresetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := s.switcher.DeletePreset(chi.URLParam(r, "name")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writePresetError(w http.ResponseWriter, err error) {
	if errors.Is(err, preset.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("API: Failed to encode response: %v", err)
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
