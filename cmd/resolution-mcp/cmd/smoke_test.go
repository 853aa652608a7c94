package cmd

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func setSmokeEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("RESOLUTION_SERVICE_URL", baseURL)
	t.Setenv("API_TIMEOUT", "0.5")
	t.Setenv("MCP_SSE_PORT", "8000")
	t.Setenv("ENVIRONMENT", "production") // skip .env loading in tests
}

func TestSmoke_DownstreamUnreachable(t *testing.T) {
	// Grab a free port and close it again so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	setSmokeEnv(t, "http://"+addr)

	err = smoke(smokeCmd, nil)
	if err == nil {
		t.Fatal("expected smoke to fail against an unreachable downstream")
	}
	if !strings.Contains(err.Error(), "launch failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSmoke_FullFlowSucceeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/resolve", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"job_id":"j1","status":"QUEUED"}`))
	})
	mux.HandleFunc("/jobs/j1/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"job_id":"j1","status":"COMPLETED"}`))
	})
	mux.HandleFunc("/jobs/j1/analysis", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"job_id":"j1","thoughts":"disk was full"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	setSmokeEnv(t, srv.URL)

	if err := smoke(smokeCmd, nil); err != nil {
		t.Fatalf("smoke failed: %v", err)
	}
}
