package game

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"villagenird/internal/logging"
	"villagenird/internal/progress"
	"villagenird/internal/realtime"
	"villagenird/internal/simulation"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(t *testing.T) (*http.ServeMux, fixture) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(f.svc, realtime.NewServer(f.hub, logging.Discard(), nil))
	mux := http.NewServeMux()
	mux.HandleFunc("/api/catalogue", h.Catalogue)
	mux.HandleFunc("/api/stats", h.Stats)
	mux.HandleFunc("/api/sessions", h.SessionsRoot)
	mux.HandleFunc("/api/sessions/", h.SessionsSub)
	return mux, f
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func createSession(t *testing.T, h http.Handler) progress.Record {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec progress.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	return rec
}

const bestPathJSON = `{"decisions":{"osStrategy":"massMigration","hardwarePolicy":"refurbish","cloudStrategy":"sovereign","training":"studentClub"}}`

func TestHTTP_SessionLifecycle(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := createSession(t, mux)
	base := "/api/sessions/" + rec.ID

	w := do(t, mux, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, mux, http.MethodPost, base+"/advance", bestPathJSON)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, mux, http.MethodPost, base+"/phase", `{"phase":"story"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, mux, http.MethodPost, base+"/phase", `{"phase":"intro"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, mux, http.MethodPost, base+"/phase", `{"phase":"credits"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, mux, http.MethodPost, base+"/start", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, mux, http.MethodPost, base+"/advance", bestPathJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var adv struct {
		Result  simulation.YearResult `json:"result"`
		Session progress.Record       `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &adv))
	assert.Equal(t, 1, adv.Result.Year)
	assert.Equal(t, 2, adv.Session.Snapshot.Year)
	assert.Equal(t, simulation.PhaseSimulation, adv.Session.Snapshot.Phase)

	w = do(t, mux, http.MethodPost, base+"/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	var reset progress.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reset))
	assert.Equal(t, simulation.PhaseIntro, reset.Snapshot.Phase)

	w = do(t, mux, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, mux, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTP_RejectsUnknownOption(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := createSession(t, mux)
	base := "/api/sessions/" + rec.ID
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodPost, base+"/start", "").Code)

	bad := strings.Replace(bestPathJSON, "sovereign", "moonbase", 1)
	w := do(t, mux, http.MethodPost, base+"/advance", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	missing := `{"decisions":{"osStrategy":"massMigration"}}`
	w = do(t, mux, http.MethodPost, base+"/advance", missing)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_IndicatorsAndPreview(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := createSession(t, mux)
	base := "/api/sessions/" + rec.ID

	w := do(t, mux, http.MethodPost, base+"/indicators", `{"inclusion":-10}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got progress.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 0, got.Snapshot.Indicators.Inclusion)

	w = do(t, mux, http.MethodPost, base+"/preview", bestPathJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Contains(t, p, "contributions")
	assert.Contains(t, p, "after")

	w = do(t, mux, http.MethodPost, base+"/increment-year", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, mux, http.MethodPost, base+"/next-phase", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHTTP_ListCatalogueStats(t *testing.T) {
	mux, _ := newTestMux(t)
	createSession(t, mux)
	createSession(t, mux)

	w := do(t, mux, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Sessions []progress.Record `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Sessions, 2)

	w = do(t, mux, http.MethodGet, "/api/catalogue", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "teacherTraining")

	w = do(t, mux, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessions_created":2`)

	w = do(t, mux, http.MethodGet, "/api/stats?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_MethodAndRouteErrors(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := createSession(t, mux)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, mux, http.MethodPut, "/api/sessions", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, mux, http.MethodGet, "/api/sessions/"+rec.ID+"/advance", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodPost, "/api/sessions/"+rec.ID+"/teleport", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodPost, "/api/sessions/nope/start", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodPost, "/api/sessions/"+rec.ID+"/phase", "{").Code)
}

func TestHTTP_WebsocketPushesState(t *testing.T) {
	mux, f := newTestMux(t)
	ts := httptest.NewServer(mux)
	defer ts.Close()
	rec := createSession(t, mux)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + rec.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first realtime.Message
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "state", first.Type)

	require.Eventually(t, func() bool { return f.hub.SubscriberCount(rec.ID) == 1 }, time.Second, 10*time.Millisecond)
	w := do(t, mux, http.MethodPost, "/api/sessions/"+rec.ID+"/next-phase", "")
	require.Equal(t, http.StatusOK, w.Code)

	var next realtime.Message
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, "phase_advanced", next.Type)
}
