package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"gtevents/internal/config"
	"gtevents/internal/model"
	"gtevents/internal/normalize"
)

// Sources bundles the four upstream collaborators: WordPress events,
// WooCommerce orders, LearnDash groups, FluentCRM contacts.
type Sources struct {
	wordpress   *Client
	woocommerce *Client
	learndash   *Client
	fluentcrm   *Client
	norm        normalize.Options
	logger      *slog.Logger
}

func NewSources(cfg *config.Config, logger *slog.Logger) *Sources {
	return &Sources{
		wordpress:   NewClient("wordpress", cfg.Sources.WordPress, cfg.Sources, logger),
		woocommerce: NewClient("woocommerce", cfg.Sources.WooCommerce, cfg.Sources, logger),
		learndash:   NewClient("learndash", cfg.Sources.LearnDash, cfg.Sources, logger),
		fluentcrm:   NewClient("fluentcrm", cfg.Sources.FluentCRM, cfg.Sources, logger),
		norm:        normalize.Options{DefaultCapacity: cfg.Analysis.DefaultCapacity},
		logger:      logger,
	}
}

// FetchAll fans out to all four sources and fails atomically: if any
// source cannot deliver, no dataset is returned and the error carries the
// source that broke.
func (s *Sources) FetchAll(ctx context.Context) (model.Dataset, error) {
	var ds model.Dataset
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := s.Events(ctx)
		if err != nil {
			return err
		}
		ds.Events = events
		return nil
	})
	g.Go(func() error {
		orders, err := s.Orders(ctx)
		if err != nil {
			return err
		}
		ds.Orders = orders
		return nil
	})
	g.Go(func() error {
		groups, err := s.Groups(ctx)
		if err != nil {
			return err
		}
		ds.Groups = groups
		return nil
	})
	g.Go(func() error {
		contacts, err := s.Contacts(ctx)
		if err != nil {
			return err
		}
		ds.Contacts = contacts
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Dataset{}, err
	}
	return ds, nil
}

func (s *Sources) Events(ctx context.Context) ([]model.Event, error) {
	query := url.Values{
		"per_page": {strconv.Itoa(s.wordpress.pageSize)},
		"status":   {"publish"},
	}
	raw, err := s.wordpress.GetList(ctx, "/graston_event", query)
	if err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(raw))
	for _, obj := range raw {
		ev, err := normalize.Event(obj, s.norm)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping malformed event record", "err", err)
			}
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Sources) Orders(ctx context.Context) ([]model.Order, error) {
	query := url.Values{
		"per_page": {strconv.Itoa(s.woocommerce.pageSize)},
		"status":   {"completed"},
	}
	raw, err := s.woocommerce.GetList(ctx, "/orders", query)
	if err != nil {
		return nil, err
	}
	out := make([]model.Order, 0, len(raw))
	for _, obj := range raw {
		o, err := normalize.Order(obj)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping malformed order record", "err", err)
			}
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *Sources) Groups(ctx context.Context) ([]model.Group, error) {
	raw, err := s.learndash.GetList(ctx, "/groups", nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.Group, 0, len(raw))
	for _, obj := range raw {
		g, err := normalize.Group(obj)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping malformed group record", "err", err)
			}
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Sources) Contacts(ctx context.Context) ([]model.Contact, error) {
	query := url.Values{
		"per_page": {strconv.Itoa(s.fluentcrm.pageSize)},
	}
	raw, err := s.fluentcrm.GetList(ctx, "/contacts", query)
	if err != nil {
		return nil, err
	}
	out := make([]model.Contact, 0, len(raw))
	for _, obj := range raw {
		c, err := normalize.Contact(obj)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping malformed contact record", "err", err)
			}
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
