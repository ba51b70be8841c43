package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gtevents/internal/config"
)

func testShared() config.SourcesConfig {
	return config.SourcesConfig{
		Attempts:   3,
		RetryDelay: time.Millisecond,
		Timeout:    time.Second,
	}
}

func TestGetListRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 1}]`))
	}))
	defer srv.Close()

	c := NewClient("wordpress", config.SourceConfig{BaseURL: srv.URL}, testShared(), nil)
	list, err := c.GetList(context.Background(), "/graston_event", nil)
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("records = %d, want 1", len(list))
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
}

func TestGetListExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("woocommerce", config.SourceConfig{BaseURL: srv.URL}, testShared(), nil)
	_, err := c.GetList(context.Background(), "/orders", nil)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}

	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("err type = %T", err)
	}
	if srcErr.Source != "woocommerce" || srcErr.Endpoint != "/orders" {
		t.Fatalf("source error = %+v", srcErr)
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatal("err does not match ErrSourceUnavailable")
	}
}

func TestGetListBasicAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient("wordpress", config.SourceConfig{
		BaseURL:  srv.URL,
		Username: "svc",
		Password: "secret",
	}, testShared(), nil)
	if _, err := c.GetList(context.Background(), "/graston_event", nil); err != nil {
		t.Fatalf("GetList: %v", err)
	}
	// "svc:secret" base64-encoded
	if gotAuth != "Basic c3ZjOnNlY3JldA==" {
		t.Fatalf("auth header = %q", gotAuth)
	}
}

func TestGetListAPIKeyAuth(t *testing.T) {
	var gotBearer, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBearer = r.Header.Get("Authorization")
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient("fluentcrm", config.SourceConfig{BaseURL: srv.URL, APIKey: "k123"}, testShared(), nil)
	if _, err := c.GetList(context.Background(), "/contacts", nil); err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if gotBearer != "Bearer k123" || gotKey != "k123" {
		t.Fatalf("auth = %q / %q", gotBearer, gotKey)
	}
}

func TestGetListContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shared := testShared()
	shared.RetryDelay = time.Second
	c := NewClient("learndash", config.SourceConfig{BaseURL: srv.URL}, shared, nil)

	start := time.Now()
	_, err := c.GetList(ctx, "/groups", nil)
	if err == nil {
		t.Fatal("expected error with cancelled context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancelled fetch took %v", elapsed)
	}
}
