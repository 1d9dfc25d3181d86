package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/antsim/internal/colony"
	"github.com/annel0/antsim/internal/evolution"
	"github.com/annel0/antsim/internal/world/block"
)

type fakeEngine struct{}

func (fakeEngine) Status() evolution.Status {
	return evolution.Status{RunID: "run-1", State: "running", Generation: 3, MaxGenerations: 5, Nests: 4, Workers: 10, Queens: 1}
}

func (fakeEngine) Summary() evolution.Summary {
	return evolution.Summary{
		RunID:          "run-1",
		State:          "running",
		Generations:    []evolution.GenerationRecord{{Generation: 1, Fitness: 2}, {Generation: 2, Fitness: 6}},
		BestFitness:    6,
		BestGeneration: 2,
	}
}

type fakeAgents struct{}

func (fakeAgents) Live(role colony.Role) []colony.Agent {
	if role == colony.RoleQueen {
		return []colony.Agent{{ID: 1, Role: colony.RoleQueen, Alive: true}}
	}
	return []colony.Agent{{ID: 2, Role: colony.RoleWorker, Alive: true}, {ID: 3, Role: colony.RoleWorker, Alive: true}}
}

type fakeWorld struct{}

func (fakeWorld) Dimensions() (int, int, int) { return 8, 8, 8 }
func (fakeWorld) NestCount() int { return 4 }
func (fakeWorld) CountBlocks(id block.ID) int { return int(id) * 10 }

func newTestServer(t *testing.T) *StatusServer {
	t.Helper()
	s, err := NewStatusServer(Config{
		Port:     0,
		Engine:   fakeEngine{},
		Agents:   fakeAgents{},
		World:    fakeWorld{},
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *StatusServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStatusServer_RequiresEngine(t *testing.T) {
	_, err := NewStatusServer(Config{})
	assert.Error(t, err)
}

func TestStatusServer_Health(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestStatusServer_Status(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "run-1", data["run_id"])
	assert.Equal(t, 3.0, data["generation"])
	assert.Equal(t, 4.0, data["nests"])
}

func TestStatusServer_Summary(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/api/summary")
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 6.0, data["best_fitness"])
	assert.Equal(t, 2.0, data["best_generation"])
	assert.Len(t, data["generations"], 2)
}

func TestStatusServer_Agents(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		query string
		total float64
	}{
		{"", 3},
		{"?role=all", 3},
		{"?role=queen", 1},
		{"?role=worker", 2},
	}
	for _, tc := range cases {
		w := get(t, s, "/api/agents"+tc.query)
		require.Equal(t, http.StatusOK, w.Code, tc.query)
		data := decode(t, w)["data"].(map[string]interface{})
		assert.Equal(t, tc.total, data["total"], tc.query)
	}

	w := get(t, s, "/api/agents?role=drone")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestStatusServer_World(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/api/world")
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 4.0, data["nests"])
	blocks := data["blocks"].(map[string]interface{})
	assert.Len(t, blocks, block.Count())
	assert.Equal(t, float64(int(block.Nest)*10), blocks[block.Nest.Name()])
}

func TestStatusServer_ServerStats(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/api/server")
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Contains(t, data, "uptime")
	assert.Greater(t, data["goroutines"], 0.0)
}

func TestStatusServer_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	get(t, s, "/health")
	get(t, s, "/nope")

	w := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "antsim_status_http_request_duration_seconds"))
	assert.True(t, strings.Contains(body, `path="unmatched"`))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5с", formatUptime(5*time.Second))
	assert.Equal(t, "2м 5с", formatUptime(2*time.Minute+5*time.Second))
	assert.Equal(t, "1ч 0м 0с", formatUptime(time.Hour))
	assert.Equal(t, "1д 1ч 0м 0с", formatUptime(25*time.Hour))
}
