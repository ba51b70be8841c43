package fetch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"gtevents/internal/config"
	"gtevents/internal/model"
	"gtevents/internal/normalize"
)

// StartFeed consumes order-created events from Kafka and hands them to the
// engine between full refreshes, so new enrollments show up on the
// dashboard without waiting for the next fetch cycle.
func StartFeed(ctx context.Context, cfg *config.Manager, out chan<- model.Order, logger *slog.Logger) {
	current := cfg.Get().Feed
	if !current.Enabled {
		if logger != nil {
			logger.Info("order feed disabled")
		}
		return
	}
	if logger != nil {
		logger.Info("order feed enabled", "brokers", current.Brokers, "topic", current.Topic, "group_id", current.GroupID)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  current.Brokers,
		Topic:    current.Topic,
		GroupID:  current.GroupID,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	go func() {
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if logger != nil {
					logger.Warn("feed read error", "err", err)
				}
				continue
			}
			var obj map[string]any
			if err := json.Unmarshal(m.Value, &obj); err != nil {
				if logger != nil {
					logger.Warn("feed decode error", "err", err)
				}
				continue
			}
			order, err := normalize.Order(obj)
			if err != nil {
				if logger != nil {
					logger.Warn("feed normalize error", "err", err)
				}
				continue
			}
			sendNonBlocking(ctx, out, order, logger)
		}
	}()
}

func sendNonBlocking(ctx context.Context, out chan<- model.Order, order model.Order, logger *slog.Logger) bool {
	select {
	case out <- order:
		return true
	case <-ctx.Done():
		return false
	default:
		if logger != nil {
			logger.Warn("order feed channel full, dropping order", "order_id", order.ID)
		}
		return false
	}
}
