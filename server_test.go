package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*server, http.Handler) {
	t.Helper()
	cfg := testConfig(2)
	srv := newServer(newTestEngine(t, cfg), cfg, zap.NewNop())
	return srv, srv.routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestServer_HealthAndCORS(t *testing.T) {
	_, h := newTestServer(t)

	rec, body := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, 2.0, body["agents"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, _ = do(t, h, http.MethodOptions, "/plan", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/world", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Obstacles(t *testing.T) {
	srv, h := newTestServer(t)

	rec, body := do(t, h, http.MethodPost, "/obstacles",
		`[{"rect": {"x": 20, "y": 20, "w": 2, "h": 2}}, {"segment": {"p1": {"x": 0, "y": 15}, "p2": {"x": 10, "y": 15}}}]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2.0, body["total"])
	assert.Equal(t, ObstacleSegment, srv.engine.World.Obstacles[1].Kind())

	rec, _ = do(t, h, http.MethodPost, "/obstacles", `[{}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, srv.engine.World.Obstacles, 2, "rejected batches add nothing")

	rec, _ = do(t, h, http.MethodDelete, "/obstacles?index=5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, h, http.MethodDelete, "/obstacles?index=0", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, body["total"])

	rec, body = do(t, h, http.MethodDelete, "/obstacles", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, body["total"])
}

func TestServer_PlanAndTick(t *testing.T) {
	srv, h := newTestServer(t)

	rec, body := do(t, h, http.MethodPost, "/plan", `{"targets": {"1": {"x": 33, "y": 33}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	outcomes := body["outcomes"].([]interface{})
	assert.Len(t, outcomes, 2)

	a, err := srv.engine.World.Agent(1)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 33, Y: 33}, *a.Target)
	assert.Equal(t, Point{X: 33, Y: 33}, a.Path[len(a.Path)-1])

	rec, body = do(t, h, http.MethodPost, "/tick", `{"dt": 0.1, "steps": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.3, body["simTime"].(float64), 1e-9)
	assert.Equal(t, true, body["running"])

	rec, _ = do(t, h, http.MethodPost, "/plan", `{"targets": {"9": {"x": 1, "y": 1}}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, h, http.MethodPost, "/reset", `{"clearObstacles": true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, body["agents"])
	assert.False(t, srv.engine.Running)
}

func TestServer_CellsAndGraph(t *testing.T) {
	_, h := newTestServer(t)

	rec, body := do(t, h, http.MethodGet, "/cells", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 64.0, body["numCells"], "40x40 world in 5x5 free cells")
	assert.Equal(t, 64.0, body["numFree"])

	rec, body = do(t, h, http.MethodGet, "/cells?format=geojson&radius=0.5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FeatureCollection", body["type"])

	rec, _ = do(t, h, http.MethodGet, "/cells?radius=wide", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/cells?radius=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["features"])

	rec, body = do(t, h, http.MethodGet, "/paths", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["features"], 2, "positions only before planning")
}

func TestServer_Sense(t *testing.T) {
	srv, h := newTestServer(t)

	rec, body := do(t, h, http.MethodPost, "/sense", `{"agentId": 0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["results"], srv.cfg.Sensor.Rays)

	rec, body = do(t, h, http.MethodPost, "/sense", `{"agentId": 0, "heading": 1.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["results"], 1)

	rec, _ = do(t, h, http.MethodPost, "/sense", `{"agentId": 99}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/sense", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
