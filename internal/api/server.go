package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"gtevents/internal/config"
	"gtevents/internal/engine"
	"gtevents/internal/events"
	"gtevents/internal/fetch"
	"gtevents/internal/model"
	"gtevents/internal/snapshots"
)

type EngineControl interface {
	TryRefresh(ctx context.Context) (model.Snapshot, error)
	Analyze(timeframeDays int, now time.Time) model.RiskAnalysis
	Instruments() model.InstrumentSummary
	Reset()
	Started() time.Time
}

type Server struct {
	cfg       *config.Manager
	events    *events.Store
	snapshots *snapshots.Store
	engine    EngineControl
	logger    *slog.Logger
	version   string
}

type statusResponse struct {
	Status      string         `json:"status"`
	Time        string         `json:"time"`
	Version     string         `json:"version"`
	ConfigPath  string         `json:"config_path,omitempty"`
	StartedAt   string         `json:"started_at"`
	Events      int            `json:"events"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
	Analysis    analysisStatus `json:"analysis"`
	RefreshSecs int            `json:"refresh_interval_sec"`
	Feed        bool           `json:"feed"`
	Storage     bool           `json:"storage"`
}

type analysisStatus struct {
	DangerZonePolicy string `json:"danger_zone_policy"`
	RevenueModel     string `json:"revenue_model"`
	TimeframeDays    int    `json:"timeframe_days"`
	InstrumentFilter bool   `json:"instrument_filter"`
}

func Start(ctx context.Context, cfg *config.Manager, eventStore *events.Store, snapshotStore *snapshots.Store, eng EngineControl, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{
		cfg:       cfg,
		events:    eventStore,
		snapshots: snapshotStore,
		engine:    eng,
		logger:    logger,
		version:   version,
	}

	httpServer := &http.Server{Addr: current.Addr, Handler: server.router()}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	r.Get("/status", s.handleStatus)
	r.Get("/events", s.handleEvents)
	r.Get("/events/{id}", s.handleEvent)
	r.Get("/risks", s.handleRisks)
	r.Get("/risks/history", s.handleRiskHistory)
	r.Get("/instruments", s.handleInstruments)
	r.Post("/admin/refresh", s.handleRefresh)
	r.Post("/admin/clear", s.handleClear)
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg.Get()
	resp := statusResponse{
		Status:     "ok",
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Version:    s.version,
		ConfigPath: s.cfg.Path(),
		Events:     s.events.Len(),
		Analysis: analysisStatus{
			DangerZonePolicy: cfg.Analysis.DangerZonePolicy,
			RevenueModel:     cfg.Analysis.RevenueModel,
			TimeframeDays:    cfg.Analysis.DefaultTimeframeDays,
			InstrumentFilter: cfg.Analysis.InstrumentFilter,
		},
		RefreshSecs: int(cfg.Refresh.Interval.Seconds()),
		Feed:        cfg.Feed.Enabled,
		Storage:     cfg.Storage.Enabled,
	}
	if s.engine != nil {
		resp.StartedAt = s.engine.Started().Format(time.RFC3339Nano)
	}
	if ts := s.events.UpdatedAt(); !ts.IsZero() {
		resp.UpdatedAt = ts.Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	list := s.events.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"events": list,
		"count":  len(list),
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, ok := s.events.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleRisks(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("timeframe"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.engine.Analyze(days, time.Now().UTC()))
		return
	}
	if snap, ok := s.snapshots.Latest(); ok {
		writeJSON(w, http.StatusOK, snap.Analysis)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Analyze(0, time.Now().UTC()))
}

func (s *Server) handleRiskHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	sinceStr := r.URL.Query().Get("since")
	var list []model.Snapshot
	if sinceStr != "" {
		ts, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		list = s.snapshots.Since(ts)
	} else {
		list = s.snapshots.List(limit)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": list,
		"count":     len(list),
	})
}

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Instruments())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.TryRefresh(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrRefreshCooldown):
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": err.Error()})
		case errors.Is(err, fetch.ErrSourceUnavailable):
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"snapshot": snap.ID,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	var req struct {
		Target string `json:"target"`
	}
	_ = json.Unmarshal(body, &req)
	target := strings.ToLower(strings.TrimSpace(req.Target))
	if target == "" {
		target = "all"
	}
	switch target {
	case "all":
		if s.engine != nil {
			s.engine.Reset()
		}
	case "events":
		s.events.Clear()
	case "snapshots", "history":
		s.snapshots.Clear()
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
