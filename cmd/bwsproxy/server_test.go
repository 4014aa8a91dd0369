package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/bwsproxy/config"
	"github.com/jonwraymond/bwsproxy/observe"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestNewServers_PrimaryOnly(t *testing.T) {
	cfg := testConfig(t)

	servers, err := newServers(cfg, http.NotFoundHandler(), observe.NopLogger())
	if err != nil {
		t.Fatalf("newServers() error = %v", err)
	}
	if len(servers) != 1 {
		t.Fatalf("servers = %d, want 1", len(servers))
	}
	if servers[0].Addr != "0.0.0.0:3030" {
		t.Errorf("Addr = %q, want 0.0.0.0:3030", servers[0].Addr)
	}
}

func TestNewServers_HealthSameAsPrimary(t *testing.T) {
	cfg := testConfig(t)
	cfg.HealthAddress = cfg.ListenAddress
	cfg.HealthPort = cfg.ListenPort

	servers, err := newServers(cfg, http.NotFoundHandler(), observe.NopLogger())
	if err != nil {
		t.Fatalf("newServers() error = %v", err)
	}
	if len(servers) != 1 {
		t.Errorf("servers = %d, want 1 when health listener equals primary", len(servers))
	}
}

func TestNewServers_HealthForwardsToPrimary(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_health" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("Ok"))
	}))
	defer primary.Close()

	host, portStr, err := net.SplitHostPort(primary.Listener.Addr().String())
	if err != nil {
		t.Fatalf("SplitHostPort() error = %v", err)
	}
	port, err := net.LookupPort("tcp", portStr)
	if err != nil {
		t.Fatalf("LookupPort() error = %v", err)
	}

	cfg := testConfig(t)
	cfg.ListenAddress = host
	cfg.ListenPort = port
	cfg.HealthAddress = host
	cfg.HealthPort = 0

	servers, err := newServers(cfg, http.NotFoundHandler(), observe.NopLogger())
	if err != nil {
		t.Fatalf("newServers() error = %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("servers = %d, want 2", len(servers))
	}

	rec := httptest.NewRecorder()
	servers[1].Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "Ok" {
		t.Errorf("forwarded health = %d %q, want 200 %q", rec.Code, rec.Body.String(), "Ok")
	}

	rec = httptest.NewRecorder()
	servers[1].Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/_health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST forwarded health = %d, want 405", rec.Code)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	var logs bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &logs)

	servers := []*http.Server{
		{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
		{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, servers, logger) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve() did not return after cancel")
	}

	if !strings.Contains(logs.String(), "shutting down") {
		t.Errorf("logs = %s, want shutdown entry", logs.String())
	}
}

func TestServe_ListenFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer occupied.Close()

	servers := []*http.Server{
		{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
		{Addr: occupied.Addr().String(), Handler: http.NotFoundHandler()},
	}

	err = serve(context.Background(), servers, observe.NopLogger())
	if err == nil || !strings.Contains(err.Error(), "listen on") {
		t.Errorf("serve() error = %v, want listen failure", err)
	}
}
