package serverapp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"villagenird/internal/config"
	"villagenird/internal/logging"
	"villagenird/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Server.DataDir = t.TempDir()
	cfg.Server.AllowedOrigins = []string{"https://school.example"}
	app, err := New(Options{Config: cfg, Logger: logging.Discard()})
	require.NoError(t, err)
	return app
}

func request(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestNewHandler_RequiresConfig(t *testing.T) {
	_, err := NewHandler(Options{})
	assert.Error(t, err)
}

func TestHealthAndReadinessExposeRequestID(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		res := request(app.Handler, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, res.Code, path)
		assert.NotEmpty(t, res.Header().Get("X-Request-Id"), path)
	}
}

func TestSessionsPersistToDataDir(t *testing.T) {
	cfg := config.Default()
	cfg.Server.DataDir = t.TempDir()

	app, err := New(Options{Config: cfg, Logger: logging.Discard()})
	require.NoError(t, err)

	res := request(app.Handler, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, res.Code)
	var rec progress.Record
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &rec))

	res = request(app.Handler, http.MethodPost, "/api/sessions/"+rec.ID+"/start", "")
	require.Equal(t, http.StatusOK, res.Code)

	again, err := New(Options{Config: cfg, Logger: logging.Discard()})
	require.NoError(t, err)
	res = request(again.Handler, http.MethodGet, "/api/sessions/"+rec.ID, "")
	require.Equal(t, http.StatusOK, res.Code)
	var got progress.Record
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Snapshot.Year)
}

func TestStatusPageAndStatic(t *testing.T) {
	app := newTestApp(t)
	request(app.Handler, http.MethodPost, "/api/sessions", "")

	res := request(app.Handler, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Village NIRD")
	assert.Contains(t, res.Body.String(), "data-session=")
	assert.Contains(t, res.Body.String(), "massMigration")

	res = request(app.Handler, http.MethodGet, "/static/js/nird.js", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.NotZero(t, res.Body.Len())

	res = request(app.Handler, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)
	r := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	r.Header.Set("Origin", "https://school.example")
	w := httptest.NewRecorder()
	app.Handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://school.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCatalogueAndConfig(t *testing.T) {
	app := newTestApp(t)
	res := request(app.Handler, http.MethodGet, "/api/catalogue", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"osStrategy"`)

	res = request(app.Handler, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"difficulty": "default"`)
}
