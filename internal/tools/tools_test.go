package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/oncp/resolution-mcp/internal/client"
)

func newTestDeps(t *testing.T, handler http.Handler, timeout time.Duration) (Deps, *int64) {
	t.Helper()
	var calls int64
	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		handler.ServeHTTP(w, r)
	})
	srv := httptest.NewServer(counted)
	t.Cleanup(srv.Close)
	c := client.New(client.Config{BaseURL: srv.URL, Timeout: timeout}, nil)
	t.Cleanup(c.Close)
	return Deps{Client: c}, &calls
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func decodeResult(t *testing.T, res *mcp.CallToolResult) map[string]string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("expected a tool result with content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	return payload
}

func jsonHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
}

func TestStartResolution_Success(t *testing.T) {
	deps, _ := newTestDeps(t, jsonHandler(`{"job_id":"job-123","status":"QUEUED"}`), time.Second)
	handler := startResolutionHandler(deps)

	res, err := handler(context.Background(), callRequest("start_resolution", map[string]interface{}{
		"hostname":          "api-host",
		"error_code":        "E123",
		"issue_description": "Something broke",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	got := decodeResult(t, res)
	want := map[string]string{
		"job_id":  "job-123",
		"status":  "QUEUED",
		"message": "Resolution job queued successfully.",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("expected %s=%q, got %q", k, v, got[k])
		}
	}
	if len(got) != len(want) {
		t.Errorf("unexpected extra fields in result: %v", got)
	}
}

func TestStartResolution_MissingJobID(t *testing.T) {
	deps, _ := newTestDeps(t, jsonHandler(`{"status":"QUEUED"}`), time.Second)
	handler := startResolutionHandler(deps)

	res, err := handler(context.Background(), callRequest("start_resolution", map[string]interface{}{
		"hostname":          "api-host",
		"error_code":        "E123",
		"issue_description": "Something broke",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	got := decodeResult(t, res)
	if got["error"] == "" {
		t.Fatalf("expected error result, got %v", got)
	}
	if !strings.Contains(got["error"], "did not include a job_id") {
		t.Errorf("unexpected error message: %q", got["error"])
	}
	if _, ok := got["job_id"]; ok {
		t.Errorf("error result must not carry success fields: %v", got)
	}
}

func TestStartResolution_ValidationSkipsNetwork(t *testing.T) {
	deps, calls := newTestDeps(t, jsonHandler(`{}`), time.Second)
	handler := startResolutionHandler(deps)

	res, err := handler(context.Background(), callRequest("start_resolution", map[string]interface{}{
		"hostname":          "   ",
		"error_code":        "E123",
		"issue_description": "Something broke",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	got := decodeResult(t, res)
	if got["error"] != "hostname must be a non-empty string." {
		t.Errorf("unexpected error message: %q", got["error"])
	}
	if len(got) != 1 {
		t.Errorf("error shape must contain only the error field: %v", got)
	}
	if n := atomic.LoadInt64(calls); n != 0 {
		t.Errorf("expected zero network calls, got %d", n)
	}
}

func TestStartResolution_MissingArgument(t *testing.T) {
	deps, calls := newTestDeps(t, jsonHandler(`{}`), time.Second)
	handler := startResolutionHandler(deps)

	res, err := handler(context.Background(), callRequest("start_resolution", map[string]interface{}{
		"hostname": "api-host",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	got := decodeResult(t, res)
	if !strings.Contains(got["error"], "error_code") {
		t.Errorf("expected error naming the missing field, got %q", got["error"])
	}
	if n := atomic.LoadInt64(calls); n != 0 {
		t.Errorf("expected zero network calls, got %d", n)
	}
}

func TestCheckResolutionStatus_MissingStatusFallsBack(t *testing.T) {
	deps, _ := newTestDeps(t, jsonHandler(`{}`), time.Second)
	handler := checkResolutionStatusHandler(deps)

	res, err := handler(context.Background(), callRequest("check_resolution_status", map[string]interface{}{
		"job_id": "job-42",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	got := decodeResult(t, res)
	if got["job_id"] != "job-42" {
		t.Errorf("expected original job_id echoed back, got %q", got["job_id"])
	}
	if got["status"] != "UNKNOWN" {
		t.Errorf("expected UNKNOWN status fallback, got %q", got["status"])
	}
}

func TestCheckResolutionStatus_RemoteError(t *testing.T) {
	deps, _ := newTestDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("Bad gateway from mock"))
	}), time.Second)
	handler := checkResolutionStatusHandler(deps)

	res, err := handler(context.Background(), callRequest("check_resolution_status", map[string]interface{}{
		"job_id": "job-42",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	got := decodeResult(t, res)
	if !strings.Contains(got["error"], "502") || !strings.Contains(got["error"], "Bad gateway from mock") {
		t.Errorf("expected status and body in error, got %q", got["error"])
	}
}

func TestGetResolutionReasoning_EmptyThoughtsPlaceholder(t *testing.T) {
	deps, _ := newTestDeps(t, jsonHandler(`{"job_id":"j1","thoughts":""}`), time.Second)
	handler := getResolutionReasoningHandler(deps)

	res, err := handler(context.Background(), callRequest("get_resolution_reasoning", map[string]interface{}{
		"job_id": "j1",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	got := decodeResult(t, res)
	if got["job_id"] != "j1" {
		t.Errorf("expected job_id j1, got %q", got["job_id"])
	}
	if got["thoughts"] != "No analysis was provided for this job." {
		t.Errorf("expected placeholder thoughts, got %q", got["thoughts"])
	}
}

func TestGetResolutionReasoning_Timeout(t *testing.T) {
	deps, _ := newTestDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}), 50*time.Millisecond)
	handler := getResolutionReasoningHandler(deps)

	res, err := handler(context.Background(), callRequest("get_resolution_reasoning", map[string]interface{}{
		"job_id": "job-42",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	got := decodeResult(t, res)
	if !strings.Contains(got["error"], "timed out") {
		t.Errorf("expected timeout message, got %q", got["error"])
	}
}

func TestGetResolutionReasoning_Idempotent(t *testing.T) {
	deps, _ := newTestDeps(t, jsonHandler(`{"job_id":"j1","thoughts":"root cause found"}`), time.Second)
	handler := getResolutionReasoningHandler(deps)

	req := callRequest("get_resolution_reasoning", map[string]interface{}{"job_id": "j1"})
	first, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	a, b := decodeResult(t, first), decodeResult(t, second)
	if a["thoughts"] != b["thoughts"] || a["job_id"] != b["job_id"] {
		t.Errorf("expected identical results, got %v then %v", a, b)
	}
}

func TestHandlers_NilLoggerIsSafe(t *testing.T) {
	deps, _ := newTestDeps(t, jsonHandler(`{"job_id":"job-5","status":"RUNNING"}`), time.Second)
	if deps.Logger != nil {
		t.Fatal("test requires a zero-value logger")
	}

	handler := checkResolutionStatusHandler(deps)
	res, err := handler(context.Background(), callRequest("check_resolution_status", map[string]interface{}{
		"job_id": "job-5",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	got := decodeResult(t, res)
	if got["status"] != "RUNNING" {
		t.Errorf("expected RUNNING, got %q", got["status"])
	}
}
