package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	PolicyThreeRule = "three_rule"
	PolicyTwoRule   = "two_rule"

	RevenueModelFixed = "fixed"
	RevenueModelPrice = "price"
)

type Config struct {
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	Sources   SourcesConfig   `json:"sources" yaml:"sources"`
	Analysis  AnalysisConfig  `json:"analysis" yaml:"analysis"`
	Refresh   RefreshConfig   `json:"refresh" yaml:"refresh"`
	Feed      FeedConfig      `json:"feed" yaml:"feed"`
	API       APIConfig       `json:"api" yaml:"api"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Events    EventsConfig    `json:"events" yaml:"events"`
	Snapshots SnapshotsConfig `json:"snapshots" yaml:"snapshots"`
}

type SourcesConfig struct {
	WordPress   SourceConfig  `json:"wordpress" yaml:"wordpress"`
	WooCommerce SourceConfig  `json:"woocommerce" yaml:"woocommerce"`
	LearnDash   SourceConfig  `json:"learndash" yaml:"learndash"`
	FluentCRM   SourceConfig  `json:"fluentcrm" yaml:"fluentcrm"`
	Attempts    int           `json:"attempts" yaml:"attempts"`
	RetryDelay  time.Duration `json:"retry_delay" yaml:"retry_delay"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

type SourceConfig struct {
	BaseURL  string `json:"base_url" yaml:"base_url"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	APIKey   string `json:"api_key" yaml:"api_key"`
	PageSize int    `json:"page_size" yaml:"page_size"`
}

type AnalysisConfig struct {
	// DangerZonePolicy selects the classification rule set. The merger
	// historically shipped a coarser two-rule table; three_rule is the
	// canonical default.
	DangerZonePolicy string `json:"danger_zone_policy" yaml:"danger_zone_policy"`
	// RevenueModel selects how revenue at risk is estimated: "fixed" uses
	// RevenuePerParticipant against the TargetFill shortfall, "price" uses
	// each event's own price.
	RevenueModel          string   `json:"revenue_model" yaml:"revenue_model"`
	RevenuePerParticipant float64  `json:"revenue_per_participant" yaml:"revenue_per_participant"`
	TargetFill            float64  `json:"target_fill" yaml:"target_fill"`
	DefaultCapacity       int      `json:"default_capacity" yaml:"default_capacity"`
	DefaultTimeframeDays  int      `json:"default_timeframe_days" yaml:"default_timeframe_days"`
	InstrumentFilter      bool     `json:"instrument_filter" yaml:"instrument_filter"`
	ExcludedEvents        []string `json:"excluded_events" yaml:"excluded_events"`
	ExcludedTypes         []string `json:"excluded_types" yaml:"excluded_types"`
}

type RefreshConfig struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`
}

type FeedConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	Brokers   []string      `json:"brokers" yaml:"brokers"`
	Topic     string        `json:"topic" yaml:"topic"`
	GroupID   string        `json:"group_id" yaml:"group_id"`
	DedupeTTL time.Duration `json:"dedupe_ttl" yaml:"dedupe_ttl"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type EventsConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
}

type SnapshotsConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Sources: SourcesConfig{
			WordPress:   SourceConfig{BaseURL: "https://grastontechnique.com/wp-json/wp/v2", PageSize: 100},
			WooCommerce: SourceConfig{BaseURL: "https://grastontechnique.com/wp-json/wc/v3", PageSize: 100},
			LearnDash:   SourceConfig{BaseURL: "https://grastontechnique.com/wp-json/ldlms/v2", PageSize: 100},
			FluentCRM:   SourceConfig{BaseURL: "https://grastontechnique.com/wp-json/fluent-crm/v2", PageSize: 100},
			Attempts:    3,
			RetryDelay:  1 * time.Second,
			Timeout:     30 * time.Second,
		},
		Analysis: AnalysisConfig{
			DangerZonePolicy:      PolicyThreeRule,
			RevenueModel:          RevenueModelFixed,
			RevenuePerParticipant: 500,
			TargetFill:            0.8,
			DefaultCapacity:       20,
			DefaultTimeframeDays:  30,
			InstrumentFilter:      true,
		},
		Refresh: RefreshConfig{
			Interval: 5 * time.Minute,
			Cooldown: 30 * time.Second,
		},
		Feed: FeedConfig{
			Enabled:   false,
			DedupeTTL: 10 * time.Minute,
		},
		API:       APIConfig{Enabled: true, Addr: ":8081"},
		Storage:   StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:gtevents.db?_pragma=busy_timeout(5000)"},
		Events:    EventsConfig{StoreLimit: 2000},
		Snapshots: SnapshotsConfig{StoreLimit: 500},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Sources.Attempts <= 0 {
		cfg.Sources.Attempts = 3
	}
	if cfg.Sources.RetryDelay <= 0 {
		cfg.Sources.RetryDelay = 1 * time.Second
	}
	if cfg.Sources.Timeout <= 0 {
		cfg.Sources.Timeout = 30 * time.Second
	}
	if cfg.Analysis.DangerZonePolicy == "" {
		cfg.Analysis.DangerZonePolicy = PolicyThreeRule
	}
	if cfg.Analysis.RevenueModel == "" {
		cfg.Analysis.RevenueModel = RevenueModelFixed
	}
	if cfg.Analysis.RevenuePerParticipant <= 0 {
		cfg.Analysis.RevenuePerParticipant = 500
	}
	if cfg.Analysis.TargetFill <= 0 || cfg.Analysis.TargetFill > 1 {
		cfg.Analysis.TargetFill = 0.8
	}
	if cfg.Analysis.DefaultCapacity <= 0 {
		cfg.Analysis.DefaultCapacity = 20
	}
	if cfg.Analysis.DefaultTimeframeDays <= 0 {
		cfg.Analysis.DefaultTimeframeDays = 30
	}
	if cfg.Refresh.Interval <= 0 {
		cfg.Refresh.Interval = 5 * time.Minute
	}
	if cfg.Refresh.Cooldown < 0 {
		cfg.Refresh.Cooldown = 0
	}
	if cfg.Feed.DedupeTTL <= 0 {
		cfg.Feed.DedupeTTL = 10 * time.Minute
	}
	if cfg.Events.StoreLimit <= 0 {
		cfg.Events.StoreLimit = 2000
	}
	if cfg.Snapshots.StoreLimit <= 0 {
		cfg.Snapshots.StoreLimit = 500
	}
	for _, src := range []*SourceConfig{
		&cfg.Sources.WordPress,
		&cfg.Sources.WooCommerce,
		&cfg.Sources.LearnDash,
		&cfg.Sources.FluentCRM,
	} {
		if src.PageSize <= 0 {
			src.PageSize = 100
		}
	}
}

func Validate(cfg *Config) error {
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	switch cfg.Analysis.DangerZonePolicy {
	case PolicyThreeRule, PolicyTwoRule:
	default:
		return fmt.Errorf("analysis.danger_zone_policy must be %q or %q", PolicyThreeRule, PolicyTwoRule)
	}
	switch cfg.Analysis.RevenueModel {
	case RevenueModelFixed, RevenueModelPrice:
	default:
		return fmt.Errorf("analysis.revenue_model must be %q or %q", RevenueModelFixed, RevenueModelPrice)
	}
	if cfg.Sources.WordPress.BaseURL == "" {
		return errors.New("sources.wordpress.base_url is required")
	}
	if cfg.Sources.WooCommerce.BaseURL == "" {
		return errors.New("sources.woocommerce.base_url is required")
	}
	if cfg.Sources.LearnDash.BaseURL == "" {
		return errors.New("sources.learndash.base_url is required")
	}
	if cfg.Sources.FluentCRM.BaseURL == "" {
		return errors.New("sources.fluentcrm.base_url is required")
	}
	if cfg.Feed.Enabled {
		if len(cfg.Feed.Brokers) == 0 || cfg.Feed.Topic == "" || cfg.Feed.GroupID == "" {
			return errors.New("feed requires brokers, topic, group_id")
		}
	}
	if cfg.Storage.Enabled && cfg.Storage.Driver == "" {
		return errors.New("storage.driver required when storage.enabled is true")
	}
	return nil
}

type Manager struct {
	path    string
	cfg     atomic.Value
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	info, err := os.Stat(path)
	if err == nil {
		m.modTime = info.ModTime()
	}
	return m, nil
}

// NewStaticManager wraps an in-memory config with no backing file.
func NewStaticManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	applyDefaults(cfg)
	m := &Manager{}
	m.cfg.Store(cfg)
	return m
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	if m.path == "" {
		return m.Get(), nil
	}
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return cfg, nil
}

func (m *Manager) Update(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if m.path != "" {
		if err := Save(m.path, cfg); err != nil {
			return err
		}
		if info, err := os.Stat(m.path); err == nil {
			m.modTime = info.ModTime()
		}
	}
	m.cfg.Store(cfg)
	return nil
}

func (m *Manager) NeedsReload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
