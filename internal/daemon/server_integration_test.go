package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jayainhufs/coding-sam/internal/config"
	"github.com/jayainhufs/coding-sam/internal/llm"
	"github.com/jayainhufs/coding-sam/internal/profile"
)

// TestServerIntegration runs a practice session end to end over a real
// listener and a SQLite store, then restarts the server on the same data.
func TestServerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dataDir := t.TempDir()
	cfg := config.DefaultLocalConfig()
	cfg.Storage.Driver = config.DriverSQLite
	cfg.Daemon.RateLimit.Enabled = false

	start := func() (*Server, *httptest.Server) {
		registry := llm.NewRegistry()
		registry.Register("down", &mockProvider{err: errors.New("connection refused")})

		srv, err := NewServer(context.Background(), ServerConfig{
			Config:   cfg,
			DataDir:  dataDir,
			Executor: &mockExecutor{},
			Registry: registry,
		})
		if err != nil {
			t.Fatalf("create server: %v", err)
		}
		return srv, httptest.NewServer(srv.Handler())
	}

	call := func(base, method, path string, body any) (int, map[string]any) {
		t.Helper()
		var reader io.Reader
		if body != nil {
			data, _ := json.Marshal(body)
			reader = bytes.NewReader(data)
		}
		req, err := http.NewRequest(method, base+path, reader)
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set(UserIDHeader, "guest-7")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		defer resp.Body.Close()

		var out map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp.StatusCode, out
	}

	srv, hs := start()

	// 1. pick the recommended problem
	status, rec := call(hs.URL, http.MethodGet, "/v1/problems/recommended", nil)
	if status != http.StatusOK {
		t.Fatalf("recommended: %d", status)
	}
	problemID, _ := rec["id"].(string)

	// 2. score the written steps and submit them
	inputs := map[string]string{
		"understand": "input n, output the sum, edge case all negative",
		"decompose":  "1) parse 2) loop 3) print",
		"pattern":    "kadane, O(n)",
	}
	status, _ = call(hs.URL, http.MethodPost, "/v1/score", map[string]any{"inputs": inputs})
	if status != http.StatusOK {
		t.Fatalf("score: %d", status)
	}

	status, out := call(hs.URL, http.MethodPost, "/v1/problems/"+problemID+"/submissions", map[string]any{
		"scores":         map[string]int{"understand": 100, "decompose": 100, "pattern": 100, "abstract": 100, "pseudocode": 100},
		"aiRequestCount": 2,
		"hintCount":      1,
	})
	if status != http.StatusOK {
		t.Fatalf("submit: %d %v", status, out)
	}
	result := out["result"].(map[string]any)
	if result["finalAvg"] != float64(98) || result["solvedNow"] != true {
		t.Errorf("result = %v", result)
	}

	// 3. evaluation falls back to the local narrative
	status, eval := call(hs.URL, http.MethodPost, "/v1/evaluate", map[string]any{
		"summary": map[string]any{
			"avg":         map[string]int{"understand": 100},
			"attempts":    1,
			"solvedCount": 1,
			"weakest":     []string{"decompose", "pattern"},
			"strength":    []string{"understand", "abstract"},
		},
	})
	if status != http.StatusOK || eval["fallback"] != true || eval["ok"] != true {
		t.Errorf("evaluate: %d %v", status, eval)
	}

	// 4. run code
	status, run := call(hs.URL, http.MethodPost, "/v1/run", map[string]any{"language": "java", "code": "class Main {}", "stdin": "3"})
	if status != http.StatusOK || run["ok"] != true {
		t.Errorf("run: %d %v", status, run)
	}

	hs.Close()
	if err := srv.Shutdown(context.Background()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("shutdown: %v", err)
	}

	// 5. progress survives a restart
	srv, hs = start()
	defer func() {
		hs.Close()
		_ = srv.Shutdown(context.Background())
	}()

	req, _ := http.NewRequest(http.MethodGet, hs.URL+"/v1/dashboard", nil)
	req.Header.Set(UserIDHeader, "guest-7")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	defer resp.Body.Close()

	var dash profile.Dashboard
	if err := json.NewDecoder(resp.Body).Decode(&dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.XP == 0 || len(dash.Solved) != 1 || dash.Solved[0] != problemID {
		t.Errorf("dashboard after restart = %+v", dash)
	}
	if dash.Summary.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", dash.Summary.Attempts)
	}
}
