package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/raycast/internal/raycast"
	"github.com/annel0/raycast/internal/storage"
	"github.com/annel0/raycast/internal/world"
	_ "github.com/annel0/raycast/internal/world/block/implementations"
)

// Высота, на которой генератор гарантированно оставляет воздух
const skyY = 200

type testEnv struct {
	server *RestServer
	world  *world.WorldManager
	repo   *storage.MemoryEntityRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := world.NewWorldManager(world.DefaultConfig(7), nil)
	t.Cleanup(w.Stop)

	reg := prometheus.NewRegistry()
	marcher := raycast.NewMarcher(w, w, w, raycast.Config{Metrics: raycast.NewMetrics("test", reg)})
	repo := storage.NewMemoryEntityRepo()

	server := NewRestServer(Config{
		World:       w,
		Marcher:     marcher,
		EntityRepo:  repo,
		Service:     "test",
		MaxDistance: 64,
		Registerer:  reg,
		Gatherer:    reg,
	})
	return &testEnv{server: server, world: w, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, GenericResponse, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)

	var resp GenericResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "ответ должен быть JSON: %s", w.Body.String())
	data, _ := resp.Data.(map[string]interface{})
	return w.Code, resp, data
}

func (e *testEnv) setBlock(t *testing.T, x, y, z int, name string) {
	t.Helper()
	code, resp, _ := e.do(t, http.MethodPut, "/api/blocks", map[string]interface{}{"x": x, "y": y, "z": z, "block": name})
	require.Equal(t, http.StatusOK, code, resp.Message)
}

func TestCastHitsPlacedBlock(t *testing.T) {
	env := newTestEnv(t)
	env.setBlock(t, 5, skyY, 0, "stone")

	code, resp, data := env.do(t, http.MethodPost, "/api/raycast", map[string]interface{}{
		"origin":       map[string]float64{"x": 0.5, "y": skyY + 0.5, "z": 0.5},
		"direction":    map[string]float64{"x": 2, "y": 0, "z": 0},
		"max_distance": 10,
		"mode":         "blocks",
		"policy":       "precise_block",
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.True(t, resp.Success)
	assert.Equal(t, "BLOCK", data["result"])
	assert.Equal(t, "WEST", data["face"], "луч по +X входит через западную грань")
	assert.Equal(t, "stone", data["block"])
	assert.Equal(t, map[string]interface{}{"x": 5.0, "y": float64(skyY), "z": 0.0}, data["voxel"])
	assert.InDelta(t, 4.5, data["traveled"], 0.11)
}

func TestCastEmptyCarriesLastVoxel(t *testing.T) {
	env := newTestEnv(t)

	code, resp, data := env.do(t, http.MethodPost, "/api/raycast", map[string]interface{}{
		"origin":       map[string]float64{"x": 0.5, "y": skyY + 0.5, "z": 0.5},
		"direction":    map[string]float64{"x": 0, "y": 0, "z": 1},
		"max_distance": 3,
		"policy":       "imprecise_block",
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, "EMPTY", data["result"])
	assert.Equal(t, "combined", data["mode"])
	assert.EqualValues(t, 3, data["steps"])
	assert.Equal(t, map[string]interface{}{"x": 0.0, "y": float64(skyY), "z": 3.0}, data["voxel"])
	assert.NotContains(t, data, "face")
}

func TestCastHitsEntityAndPersistsIt(t *testing.T) {
	env := newTestEnv(t)

	code, resp, data := env.do(t, http.MethodPost, "/api/entities", map[string]interface{}{
		"type":     "npc",
		"position": map[string]float64{"x": 0.5, "y": skyY, "z": 5.5},
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	id := uint64(data["id"].(float64))
	require.NotZero(t, id)

	stored, ok, err := env.repo.Load(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok, "сущность должна быть сохранена в репозиторий")
	assert.Equal(t, id, stored.ID)

	code, resp, data = env.do(t, http.MethodPost, "/api/raycast", map[string]interface{}{
		"origin":       map[string]float64{"x": 0.5, "y": skyY + 1, "z": 0.5},
		"direction":    map[string]float64{"x": 0, "y": 0, "z": 1},
		"max_distance": 10,
		"mode":         "entities",
		"policy":       "precise_entity",
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, "ENTITY", data["result"])
	assert.EqualValues(t, id, data["entity_id"])

	code, _, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/entities/%d", id), nil)
	assert.Equal(t, http.StatusOK, code)
	_, ok, err = env.repo.Load(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, ok, "сущность должна быть удалена из репозитория")

	code, _, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/entities/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestActorCastExcludesActor(t *testing.T) {
	env := newTestEnv(t)
	env.setBlock(t, 5, skyY+1, 0, "stone")

	// yaw -90 смотрит на +X
	code, resp, data := env.do(t, http.MethodPost, "/api/entities", map[string]interface{}{
		"type":     "player",
		"position": map[string]float64{"x": 0.5, "y": skyY, "z": 0.5},
		"yaw":      -90,
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	id := uint64(data["id"].(float64))

	code, resp, data = env.do(t, http.MethodPost, "/api/raycast", map[string]interface{}{
		"actor_id":     id,
		"max_distance": 10,
		"policy":       "precise_entity",
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, "BLOCK", data["result"], "бросающий не должен попасть сам в себя")
	assert.Equal(t, map[string]interface{}{"x": 5.0, "y": float64(skyY + 1), "z": 0.0}, data["voxel"])
}

func TestTraceReportsSamplesAtInterval(t *testing.T) {
	env := newTestEnv(t)
	env.setBlock(t, 5, skyY, 0, "stone")

	code, resp, data := env.do(t, http.MethodPost, "/api/raycast/trace", map[string]interface{}{
		"origin":       map[string]float64{"x": 0.5, "y": skyY + 0.5, "z": 0.5},
		"direction":    map[string]float64{"x": 1, "y": 0, "z": 0},
		"max_distance": 10,
		"mode":         "blocks",
		"policy":       "precise_block",
		"interval":     1.0,
	})
	require.Equal(t, http.StatusOK, code, resp.Message)

	samples := data["samples"].([]interface{})
	require.Len(t, samples, 4, "выборки на 1, 2, 3 и 4 блоках")
	for i, s := range samples {
		assert.EqualValues(t, (i+1)*10, s.(map[string]interface{})["step"])
	}
	assert.False(t, data["truncated"].(bool))
	hit := data["hit"].(map[string]interface{})
	assert.Equal(t, "BLOCK", hit["result"])
}

func TestCastErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	origin := map[string]float64{"x": 0.5, "y": skyY + 0.5, "z": 0.5}

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"нулевое направление", map[string]interface{}{"origin": origin, "direction": map[string]float64{}}, http.StatusBadRequest},
		{"отрицательная дистанция", map[string]interface{}{"origin": origin, "yaw": 0, "max_distance": -1}, http.StatusBadRequest},
		{"дистанция выше предела", map[string]interface{}{"origin": origin, "yaw": 0, "max_distance": 1000}, http.StatusBadRequest},
		{"нет origin", map[string]interface{}{"yaw": 0}, http.StatusBadRequest},
		{"неизвестный режим", map[string]interface{}{"origin": origin, "yaw": 0, "mode": "voxels"}, http.StatusBadRequest},
		{"неизвестный пресет", map[string]interface{}{"origin": origin, "yaw": 0, "policy": "nope"}, http.StatusNotFound},
		{"неизвестный актор", map[string]interface{}{"actor_id": 999}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp, _ := env.do(t, http.MethodPost, "/api/raycast", tt.body)
			assert.Equal(t, tt.want, code, resp.Message)
			assert.False(t, resp.Success)
		})
	}
}

func TestStatusForQueryFailure(t *testing.T) {
	err := &raycast.QueryError{Source: raycast.SourceVoxel, Err: context.Canceled}
	assert.Equal(t, http.StatusBadGateway, statusFor(err))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(fmt.Errorf("cast: %w", context.DeadlineExceeded)))
	assert.Equal(t, http.StatusBadRequest, statusFor(world.ErrOutOfBounds))
}

func TestBlocksEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.setBlock(t, 3, skyY, 3, "water")

	code, resp, data := env.do(t, http.MethodGet, fmt.Sprintf("/api/blocks?x=3&y=%d&z=3", skyY), nil)
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, "water", data["block"])
	assert.Equal(t, "liquid", data["kind"])

	code, _, _ = env.do(t, http.MethodGet, "/api/blocks?x=a&y=1&z=1", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = env.do(t, http.MethodPut, "/api/blocks", map[string]interface{}{"x": 0, "y": 999, "z": 0, "block": "stone"})
	assert.Equal(t, http.StatusBadRequest, code, "вне высоты мира")

	code, _, _ = env.do(t, http.MethodPut, "/api/blocks", map[string]interface{}{"x": 0, "y": skyY, "z": 0, "block": "unobtainium"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPoliciesStatsAndHealth(t *testing.T) {
	env := newTestEnv(t)

	code, _, data := env.do(t, http.MethodGet, "/api/policies", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "precise_block", data["default"])
	assert.Len(t, data["policies"], len(raycast.DefaultPolicies().Names()))

	code, _, data = env.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, data, "world")
	assert.Contains(t, data, "raycast")
	assert.Contains(t, data, "server")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
