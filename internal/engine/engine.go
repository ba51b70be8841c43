// Package engine implements the risk and capacity aggregation core: the
// merge of multi-source event data, the danger-zone classification, and
// the windowed risk analysis, plus the refresh loop that drives them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gtevents/internal/config"
	"gtevents/internal/events"
	"gtevents/internal/model"
	"gtevents/internal/snapshots"
	"gtevents/internal/storage"
)

// ErrRefreshCooldown is returned when a manual refresh arrives before the
// cooldown from the previous one has elapsed.
var ErrRefreshCooldown = errors.New("refresh on cooldown")

type Fetcher interface {
	FetchAll(ctx context.Context) (model.Dataset, error)
}

type Engine struct {
	logger    *slog.Logger
	fetcher   Fetcher
	events    *events.Store
	snapshots *snapshots.Store
	store     storage.Store

	cfg        atomic.Value
	exclusions atomic.Value
	cooldown   *Cooldown
	dedupe     *DedupeCache

	mu         sync.Mutex
	liveOrders map[string]model.Order
	lastOrders []model.Order
	started    time.Time
}

func NewEngine(cfg *config.Config, fetcher Fetcher, logger *slog.Logger, eventStore *events.Store, snapshotStore *snapshots.Store, store storage.Store) *Engine {
	e := &Engine{
		logger:     logger,
		fetcher:    fetcher,
		events:     eventStore,
		snapshots:  snapshotStore,
		store:      store,
		cooldown:   NewCooldown(),
		dedupe:     NewDedupeCache(),
		liveOrders: make(map[string]model.Order),
		started:    time.Now().UTC(),
	}
	e.cfg.Store(cfg)
	e.exclusions.Store(buildExclusions(cfg))
	return e
}

func (e *Engine) UpdateConfig(cfg *config.Config) {
	e.cfg.Store(cfg)
	e.exclusions.Store(buildExclusions(cfg))
}

func (e *Engine) config() *config.Config {
	if v := e.cfg.Load(); v != nil {
		return v.(*config.Config)
	}
	return config.DefaultConfig()
}

func (e *Engine) exclusionSet() *ExclusionSet {
	if v := e.exclusions.Load(); v != nil {
		if x, ok := v.(*ExclusionSet); ok {
			return x
		}
	}
	return nil
}

// Start runs the periodic refresh loop and drains the live order feed.
func (e *Engine) Start(ctx context.Context, live <-chan model.Order) {
	interval := e.config().Refresh.Interval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := e.Refresh(ctx); err != nil {
					if e.logger != nil {
						e.logger.Error("scheduled refresh failed", "err", err)
					}
				}
				// pick up a hot-reloaded cadence
				if next := e.config().Refresh.Interval; next > 0 && next != interval {
					interval = next
					ticker.Reset(interval)
				}
			case order := <-live:
				e.AddLiveOrder(order)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// AddLiveOrder buffers an order from the live feed until the next full
// refresh folds it into the merged view. Redeliveries are dropped.
func (e *Engine) AddLiveOrder(order model.Order) {
	if order.ID == "" {
		return
	}
	cfg := e.config()
	if e.dedupe.Seen(order.ID, time.Now().UTC(), cfg.Feed.DedupeTTL) {
		return
	}
	e.mu.Lock()
	e.liveOrders[order.ID] = order
	e.mu.Unlock()
	if e.logger != nil {
		e.logger.Debug("live order buffered", "order_id", order.ID)
	}
}

// Refresh runs one full pass: fetch all sources, merge, analyze, store.
// It fails atomically; on any fetch error the previous view stays intact.
func (e *Engine) Refresh(ctx context.Context) (model.Snapshot, error) {
	cfg := e.config()
	now := time.Now().UTC()

	ds, err := e.fetcher.FetchAll(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("refresh: %w", err)
	}

	filtered := e.exclusionSet().Apply(ds.Events)
	orders := e.foldLiveOrders(ds.Orders)

	unified := CombineEventData(filtered, orders, ds.Groups, ds.Contacts, CombineOptionsFrom(cfg.Analysis, now))
	analysis := AnalyzeRisks(unified, cfg.Analysis.DefaultTimeframeDays, now, AnalysisOptionsFrom(cfg.Analysis))

	snap := model.Snapshot{
		ID:        uuid.NewString(),
		Timestamp: now,
		Analysis:  analysis,
	}

	e.events.Replace(unified)
	e.snapshots.Add(snap)
	e.mu.Lock()
	e.lastOrders = orders
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.SaveSnapshot(ctx, snap); err != nil && e.logger != nil {
			e.logger.Warn("persist snapshot failed", "err", err)
		}
		if err := e.store.SaveEvents(ctx, unified); err != nil && e.logger != nil {
			e.logger.Warn("persist events failed", "err", err)
		}
	}
	if e.logger != nil {
		e.logger.Info("refresh complete",
			"events", len(unified),
			"high_risk", len(analysis.HighRisk),
			"medium_risk", len(analysis.MediumRisk),
			"revenue_at_risk", analysis.TotalRevenueAtRisk,
		)
	}
	return snap, nil
}

// TryRefresh is the cooldown-guarded entry point for manual refreshes.
func (e *Engine) TryRefresh(ctx context.Context) (model.Snapshot, error) {
	cfg := e.config()
	if !e.cooldown.Allow("refresh", cfg.Refresh.Cooldown) {
		return model.Snapshot{}, ErrRefreshCooldown
	}
	return e.Refresh(ctx)
}

// foldLiveOrders merges buffered feed orders into a fetched order set.
// Orders that showed up in the fetched set are dropped from the buffer;
// the fetched record is authoritative.
func (e *Engine) foldLiveOrders(fetched []model.Order) []model.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.liveOrders) == 0 {
		return fetched
	}
	seen := make(map[string]struct{}, len(fetched))
	for _, o := range fetched {
		seen[o.ID] = struct{}{}
	}
	out := fetched
	for id, o := range e.liveOrders {
		if _, ok := seen[id]; ok {
			delete(e.liveOrders, id)
			continue
		}
		out = append(out, o)
	}
	return out
}

// Analyze recomputes a risk analysis over the current unified view for an
// arbitrary timeframe, without refetching.
func (e *Engine) Analyze(timeframeDays int, now time.Time) model.RiskAnalysis {
	cfg := e.config()
	if timeframeDays <= 0 {
		timeframeDays = cfg.Analysis.DefaultTimeframeDays
	}
	return AnalyzeRisks(e.events.List(), timeframeDays, now, AnalysisOptionsFrom(cfg.Analysis))
}

// Instruments summarizes instrument sales across the orders from the most
// recent refresh.
func (e *Engine) Instruments() model.InstrumentSummary {
	cfg := e.config()
	e.mu.Lock()
	orders := e.lastOrders
	e.mu.Unlock()
	return SummarizeInstruments(orders, cfg.Analysis.InstrumentFilter)
}

func (e *Engine) Started() time.Time {
	return e.started
}

func (e *Engine) Reset() {
	e.mu.Lock()
	e.liveOrders = make(map[string]model.Order)
	e.lastOrders = nil
	e.mu.Unlock()
	e.cooldown.Reset()
	e.dedupe.Reset()
	e.events.Clear()
	e.snapshots.Clear()
}
