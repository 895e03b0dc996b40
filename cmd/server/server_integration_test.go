package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"villagenird/internal/config"
	"villagenird/internal/logging"
)

type testApp struct {
	handler http.Handler
	logs    *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nird_config.yml")
	body := "simulation:\n  difficulty: hard\nserver:\n  data_dir: " + filepath.ToSlash(t.TempDir()) + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	var logs bytes.Buffer
	srv, err := newServer(cfg, logging.NewWithOutput("info", "json", &logs))
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	return &testApp{handler: srv.Handler, logs: &logs}
}

func (a *testApp) request(method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) json(method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	return a.request(method, path, bytes.NewReader(b))
}

func decodeBodyMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v body=%s", err, rec.Body.String())
	}
	return out
}

func TestServer_FullRunOnHardDifficulty(t *testing.T) {
	app := newTestApp(t)

	createRes := app.request(http.MethodPost, "/api/sessions", nil)
	if createRes.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d body=%s", createRes.Code, createRes.Body.String())
	}
	created := decodeBodyMap(t, createRes)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("missing session id: %v", created)
	}
	if created["difficulty"] != "hard" {
		t.Fatalf("expected hard difficulty, got %v", created["difficulty"])
	}

	if res := app.request(http.MethodPost, "/api/sessions/"+id+"/start", nil); res.Code != http.StatusOK {
		t.Fatalf("start expected 200, got %d", res.Code)
	}

	decisions := map[string]any{"decisions": map[string]string{
		"osStrategy":     "partialMigration",
		"hardwarePolicy": "refurbish",
		"cloudStrategy":  "sovereign",
		"training":       "teacherTraining",
	}}
	var last map[string]any
	for year := 1; year <= 4; year++ {
		res := app.json(http.MethodPost, "/api/sessions/"+id+"/advance", decisions)
		if res.Code != http.StatusOK {
			t.Fatalf("advance year %d expected 200, got %d body=%s", year, res.Code, res.Body.String())
		}
		last = decodeBodyMap(t, res)
	}
	result, _ := last["result"].(map[string]any)
	if result["finished"] != true {
		t.Fatalf("hard preset should finish after 4 years, got %v", result)
	}

	res := app.json(http.MethodPost, "/api/sessions/"+id+"/advance", decisions)
	if res.Code != http.StatusConflict {
		t.Fatalf("advance past the end expected 409, got %d", res.Code)
	}

	if !strings.Contains(app.logs.String(), `"request_id"`) {
		t.Fatalf("expected access log lines with request_id, got %s", app.logs.String())
	}
}

func TestServer_HealthAndReadinessExposeRequestID(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		res := app.request(http.MethodGet, path, nil)
		if res.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d body=%s", path, res.Code, res.Body.String())
		}
		if rid := strings.TrimSpace(res.Header().Get("X-Request-Id")); rid == "" {
			t.Fatalf("%s missing X-Request-Id header", path)
		}
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("NIRD_ADDR", ":7777")
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Fatalf("expected env addr, got %q", cfg.Server.Addr)
	}
	if cfg.Simulation.Difficulty != config.DifficultyDefault {
		t.Fatalf("expected default difficulty, got %q", cfg.Simulation.Difficulty)
	}
}
