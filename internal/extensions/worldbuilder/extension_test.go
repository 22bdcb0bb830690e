// SPDX-License-Identifier: MIT

package worldbuilder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentworld/simbridge/internal/api"
	"github.com/agentworld/simbridge/internal/config"
	"github.com/agentworld/simbridge/internal/dispatch"
	"github.com/agentworld/simbridge/internal/metrics"
	"github.com/agentworld/simbridge/internal/scene"
	"github.com/agentworld/simbridge/internal/security"
	"github.com/agentworld/simbridge/internal/tracker"
)

type fixture struct {
	handler http.Handler
	store   scene.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := scene.NewMemoryStore()
	ext := New(Options{
		Identity: config.Identity{Name: "worldbuilder", Port: 8899, Version: "0.9.0", APIVersion: "1.0"},
		Store:    store,
		Queue:    dispatch.New(),
		Tracker:  tracker.New(),
		Metrics:  metrics.New("worldbuilder"),
	})
	srv := api.NewServer(ext, security.New("worldbuilder", security.Options{}),
		metrics.New("worldbuilder"), config.NewHTTPConfigHolder(""), api.Options{})
	return &fixture{handler: srv.Router(), store: store}
}

func (f *fixture) post(t *testing.T, path string, body map[string]any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return f.do(t, req)
}

func (f *fixture) get(t *testing.T, path string, query url.Values) (int, map[string]any) {
	t.Helper()
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return f.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (f *fixture) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec.Code, payload
}

func (f *fixture) addCube(t *testing.T, name string, pos [3]float64) string {
	t.Helper()
	status, payload := f.post(t, "/add_element", map[string]any{
		"element_type": "cube",
		"name":         name,
		"position":     pos[:],
	})
	require.Equal(t, http.StatusOK, status)
	id, _ := payload["element_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestAddElementDefaults(t *testing.T) {
	f := newFixture(t)

	status, payload := f.post(t, "/add_element", map[string]any{"element_type": "sphere"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "sphere", payload["element_type"])

	name, _ := payload["name"].(string)
	assert.True(t, strings.HasPrefix(name, "sphere_"), "generated name carries the type prefix")
	assert.Equal(t, "/World/"+name, payload["path"])

	el, err := f.store.GetElement(payload["element_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 1, 1}, [3]float64(el.Scale), "scale defaults to unit")
}

func TestAddElementRequiresType(t *testing.T) {
	f := newFixture(t)
	status, payload := f.post(t, "/add_element", map[string]any{"name": "orphan"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestAddElementRejectsBadVector(t *testing.T) {
	f := newFixture(t)
	status, payload := f.post(t, "/add_element", map[string]any{
		"element_type": "cube",
		"position":     []any{1, 2},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestCreateBatchAndClearBatch(t *testing.T) {
	f := newFixture(t)

	status, payload := f.post(t, "/create_batch", map[string]any{
		"batch_name": "walls",
		"elements": []any{
			map[string]any{"element_type": "cube", "position": []any{0, 0, 0}},
			map[string]any{"element_type": "cube", "position": []any{2, 0, 0}},
		},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), payload["created"])
	batchID, _ := payload["batch_id"].(string)
	require.NotEmpty(t, batchID)
	require.NotEmpty(t, payload["request_id"])

	status, info := f.get(t, "/batch_info", url.Values{"batch_id": {batchID}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "walls", info["name"])
	assert.Len(t, info["element_ids"], 2)

	status, reqStatus := f.get(t, "/request_status", url.Values{"request_id": {payload["request_id"].(string)}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, reqStatus["completed"])
	assert.Equal(t, "create_batch", reqStatus["operation"])

	status, cleared := f.post(t, "/clear_batch", map[string]any{"batch_id": batchID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), cleared["removed"])

	count, err := f.store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateBatchRequiresElements(t *testing.T) {
	f := newFixture(t)
	status, payload := f.post(t, "/create_batch", map[string]any{"elements": []any{}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestRemoveElement(t *testing.T) {
	f := newFixture(t)
	id := f.addCube(t, "doomed", [3]float64{0, 0, 0})

	status, payload := f.post(t, "/remove_element", map[string]any{"element_id": id})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, payload["removed"])

	status, payload = f.post(t, "/remove_element", map[string]any{"element_id": id})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", payload["error_code"])
}

func TestClearPath(t *testing.T) {
	f := newFixture(t)
	f.addCube(t, "keep", [3]float64{0, 0, 0})

	for i := 0; i < 3; i++ {
		status, _ := f.post(t, "/add_element", map[string]any{
			"element_type": "cube",
			"path":         fmt.Sprintf("/World/city/block_%d", i),
		})
		require.Equal(t, http.StatusOK, status)
	}

	status, payload := f.post(t, "/clear_path", map[string]any{"path": "/World/city"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), payload["removed"])

	count, err := f.store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSceneStatusAndListing(t *testing.T) {
	f := newFixture(t)
	f.addCube(t, "a", [3]float64{0, 0, 0})
	f.addCube(t, "b", [3]float64{4, 0, 0})

	status, payload := f.get(t, "/scene_status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), payload["element_count"])
	byType, _ := payload["by_type"].(map[string]any)
	assert.Equal(t, float64(2), byType["cube"])
	assert.Contains(t, payload, "bounds")

	status, scenePayload := f.get(t, "/get_scene", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), scenePayload["count"])

	status, listing := f.get(t, "/list_elements", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, listing["elements"], 2)
}

func TestPlaceAsset(t *testing.T) {
	f := newFixture(t)

	status, payload := f.post(t, "/place_asset", map[string]any{
		"asset_path": "/assets/tree.usd",
		"position":   []any{1, 2, 0},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/assets/tree.usd", payload["asset_path"])

	el, err := f.store.GetElement(payload["element_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "asset", el.Type)
	assert.Equal(t, "/assets/tree.usd", el.AssetPath)

	status, payload = f.post(t, "/place_asset", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestTransformAsset(t *testing.T) {
	f := newFixture(t)
	id := f.addCube(t, "movable", [3]float64{0, 0, 0})

	status, payload := f.post(t, "/transform_asset", map[string]any{
		"element_id": id,
		"position":   []any{5, 6, 7},
		"scale":      []any{2, 2, 2},
	})
	require.Equal(t, http.StatusOK, status)

	el, err := f.store.GetElement(id)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{5, 6, 7}, [3]float64(el.Position))
	assert.Equal(t, [3]float64{2, 2, 2}, [3]float64(el.Scale))
	assert.Equal(t, payload["element_id"], id)

	status, payload = f.post(t, "/transform_asset", map[string]any{"element_id": id})
	assert.Equal(t, http.StatusBadRequest, status, "at least one transform component is required")
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])

	status, payload = f.post(t, "/transform_asset", map[string]any{
		"element_id": "ghost",
		"position":   []any{0, 0, 0},
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", payload["error_code"])
}

func TestSpatialQueries(t *testing.T) {
	f := newFixture(t)
	f.addCube(t, "near", [3]float64{1, 0, 0})
	f.addCube(t, "far", [3]float64{50, 0, 0})

	status, payload := f.get(t, "/query/objects_by_type", url.Values{"element_type": {"cube"}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), payload["count"])

	status, payload = f.get(t, "/query/objects_in_bounds", url.Values{
		"min": {"0", "-1", "-1"},
		"max": {"10", "1", "1"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), payload["count"])

	status, payload = f.get(t, "/query/objects_near_point", url.Values{
		"point":  {"0", "0", "0"},
		"radius": {"5"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), payload["count"])

	status, payload = f.get(t, "/query/objects_near_point", url.Values{
		"point":  {"0", "0", "0"},
		"radius": {"-1"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestTransformUtilities(t *testing.T) {
	f := newFixture(t)
	a := f.addCube(t, "a", [3]float64{0, 0, 2})
	b := f.addCube(t, "b", [3]float64{4, 0, 4})

	status, payload := f.post(t, "/transform/calculate_bounds", map[string]any{
		"element_ids": []any{a, b},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), payload["element_count"])
	assert.Contains(t, payload, "bounds")

	status, payload = f.post(t, "/transform/find_ground_level", map[string]any{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.5, payload["ground_level"], "lowest cube bottom at z=2 with unit scale")

	status, payload = f.post(t, "/transform/align_objects", map[string]any{
		"axis":        "z",
		"element_ids": []any{a, b},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3.0, payload["aligned_value"])

	el, err := f.store.GetElement(a)
	require.NoError(t, err)
	assert.Equal(t, 3.0, el.Position[2])

	status, payload = f.post(t, "/transform/align_objects", map[string]any{"axis": "w"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestCalculateBoundsEmptyScene(t *testing.T) {
	f := newFixture(t)
	status, payload := f.post(t, "/transform/calculate_bounds", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestHealthReportsElementCount(t *testing.T) {
	f := newFixture(t)
	f.addCube(t, "a", [3]float64{0, 0, 0})

	status, payload := f.get(t, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "worldbuilder", payload["extension"])
	assert.Equal(t, float64(1), payload["scene_elements"])
}
