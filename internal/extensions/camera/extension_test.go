// SPDX-License-Identifier: MIT

package camera

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentworld/simbridge/internal/api"
	cam "github.com/agentworld/simbridge/internal/camera"
	"github.com/agentworld/simbridge/internal/cinematic"
	"github.com/agentworld/simbridge/internal/config"
	"github.com/agentworld/simbridge/internal/dispatch"
	"github.com/agentworld/simbridge/internal/metrics"
	"github.com/agentworld/simbridge/internal/security"
	"github.com/agentworld/simbridge/internal/tracker"
)

type assetTable map[string]cam.ObjectTransform

func (a assetTable) ObjectTransform(name string) (cam.ObjectTransform, error) {
	tf, ok := a[name]
	if !ok {
		return cam.ObjectTransform{}, api.Validationf("object_name", "unknown object %q", name)
	}
	return tf, nil
}

type fixture struct {
	handler http.Handler
	ctrl    *cam.Controller
	engine  *cinematic.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := cam.NewController(assetTable{
		"crate": {Center: cinematic.Vec3{2, 0, 0}, Size: cinematic.Vec3{2, 2, 2}},
	})
	engine := cinematic.NewEngine(ctrl.Apply,
		cinematic.WithAssetCenter(ctrl.AssetCenter))
	ext := New(Options{
		Identity:   config.Identity{Name: "camera", Port: 8900, Version: "0.9.0", APIVersion: "1.0"},
		Controller: ctrl,
		Engine:     engine,
		Queue:      dispatch.New(),
		Tracker:    tracker.New(),
		Metrics:    metrics.New("camera"),
	})
	srv := api.NewServer(ext, security.New("camera", security.Options{}),
		metrics.New("camera"), config.NewHTTPConfigHolder(""), api.Options{})
	return &fixture{handler: srv.Router(), ctrl: ctrl, engine: engine}
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

func vecOf(t *testing.T, v any) [3]float64 {
	t.Helper()
	arr, ok := v.([]any)
	require.True(t, ok, "expected a 3-vector, got %T", v)
	require.Len(t, arr, 3)
	var out [3]float64
	for i, e := range arr {
		out[i] = e.(float64)
	}
	return out
}

func TestCameraStatus(t *testing.T) {
	f := newFixture(t)
	status, payload := f.get(t, "/camera/status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, [3]float64{10, 10, 6}, vecOf(t, payload["position"]))
	assert.Equal(t, [3]float64{0, 0, 0}, vecOf(t, payload["target"]))
	assert.Equal(t, "idle", payload["queue_state"])
}

func TestSetPosition(t *testing.T) {
	f := newFixture(t)

	status, payload := f.post(t, "/camera/set_position", map[string]any{
		"position": []any{1, 2, 3},
		"target":   []any{4, 5, 6},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, [3]float64{1, 2, 3}, vecOf(t, payload["position"]))

	pose := f.ctrl.Pose()
	assert.Equal(t, cinematic.Vec3{1, 2, 3}, pose.Position)
	assert.Equal(t, cinematic.Vec3{4, 5, 6}, pose.Target)
}

func TestSetPositionKeepsTarget(t *testing.T) {
	f := newFixture(t)
	status, payload := f.post(t, "/camera/set_position", map[string]any{
		"position": []any{7, 7, 7},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, [3]float64{0, 0, 0}, vecOf(t, payload["target"]), "target unchanged when omitted")
}

func TestSetPositionValidation(t *testing.T) {
	f := newFixture(t)
	status, payload := f.post(t, "/camera/set_position", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
	details, _ := payload["details"].(map[string]any)
	assert.Equal(t, "position", details["parameter"])
}

func TestFrameObject(t *testing.T) {
	f := newFixture(t)

	status, payload := f.post(t, "/camera/frame_object", map[string]any{
		"object_name": "crate",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, [3]float64{2, 0, 0}, vecOf(t, payload["target"]))

	pos := vecOf(t, payload["position"])
	d := math.Sqrt(math.Pow(pos[0]-2, 2) + pos[1]*pos[1] + pos[2]*pos[2])
	assert.InDelta(t, 4, d, 1e-9, "extent 2 at the default factor 2")

	status, payload = f.post(t, "/camera/frame_object", map[string]any{
		"object_name": "ghost",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestOrbitEndpoint(t *testing.T) {
	f := newFixture(t)

	status, payload := f.post(t, "/camera/orbit", map[string]any{
		"center":    []any{0, 0, 0},
		"azimuth":   0,
		"elevation": 0,
		"distance":  10,
	})
	require.Equal(t, http.StatusOK, status)
	pos := vecOf(t, payload["position"])
	assert.InDelta(t, 10, pos[0], 1e-9)

	status, payload = f.post(t, "/camera/orbit", map[string]any{"distance": -1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestMovementQueueing(t *testing.T) {
	f := newFixture(t)

	status, payload := f.post(t, "/camera/smooth_move", map[string]any{
		"start_position": []any{0, 0, 0},
		"end_position":   []any{10, 0, 0},
		"duration":       2,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "smooth_move", payload["operation"])
	assert.NotEmpty(t, payload["movement_id"])
	assert.Equal(t, "running", payload["queue_state"], "idle queue starts playing on a direct shot")

	status, payload = f.post(t, "/camera/arc_shot", map[string]any{
		"start_position": []any{0, 0, 0},
		"end_position":   []any{10, 0, 0},
		"duration":       2,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), payload["queue_length"])
}

func TestMovementQueueStatus(t *testing.T) {
	f := newFixture(t)

	_, first := f.post(t, "/camera/smooth_move", map[string]any{
		"start_position": []any{0, 0, 0},
		"end_position":   []any{10, 0, 0},
		"duration":       3,
	})
	movementID := first["movement_id"].(string)

	status, payload := f.get(t, "/camera/shot_queue_status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "running", payload["state"])
	assert.Equal(t, float64(cinematic.MaxQueuedMovements), payload["capacity"])
	queued, _ := payload["queued_movements"].([]any)
	require.Len(t, queued, 1)
	entry := queued[0].(map[string]any)
	assert.Equal(t, movementID, entry["movement_id"])
	assert.Equal(t, float64(3), entry["estimated_duration_seconds"])

	status, payload = f.get(t, "/camera/movement_status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, payload["movement"], "nothing active before the first tick")
}

func TestRemoveMovement(t *testing.T) {
	f := newFixture(t)

	_, queuedResp := f.post(t, "/camera/smooth_move", map[string]any{
		"start_position": []any{0, 0, 0},
		"end_position":   []any{1, 0, 0},
		"duration":       1,
	})
	movementID := queuedResp["movement_id"].(string)

	status, payload := f.post(t, "/camera/remove_movement", map[string]any{
		"movement_id": movementID,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, payload["removed"])

	status, payload = f.post(t, "/camera/remove_movement", map[string]any{
		"movement_id": "nope",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", payload["error_code"])
}

func TestQueueControls(t *testing.T) {
	f := newFixture(t)

	status, payload := f.post(t, "/camera/queue/play", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status, "empty queue cannot play")
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])

	status, payload = f.post(t, "/camera/queue/pause", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
	details, _ := payload["details"].(map[string]any)
	assert.Equal(t, "idle", details["from"])
	assert.Equal(t, "paused", details["to"])

	f.post(t, "/camera/smooth_move", map[string]any{
		"start_position": []any{0, 0, 0},
		"end_position":   []any{1, 0, 0},
		"duration":       1,
	})

	status, payload = f.post(t, "/camera/queue/pause", map[string]any{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "paused", payload["state"])

	status, payload = f.post(t, "/camera/queue/play", map[string]any{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "running", payload["state"])

	status, payload = f.post(t, "/camera/queue/stop", map[string]any{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "stopped", payload["state"])
}

func TestStopMovement(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/camera/smooth_move", map[string]any{
		"start_position": []any{0, 0, 0},
		"end_position":   []any{1, 0, 0},
		"duration":       1,
	})

	status, payload := f.post(t, "/camera/stop_movement", map[string]any{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, payload["stopped"])
	assert.Equal(t, cinematic.StateStopped, f.engine.State())
}

func TestAssetTransformEndpoint(t *testing.T) {
	f := newFixture(t)

	status, payload := f.get(t, "/get_asset_transform", url.Values{"object_name": {"crate"}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, [3]float64{2, 0, 0}, vecOf(t, payload["center"]))

	status, payload = f.get(t, "/get_asset_transform", url.Values{"object_name": {"ghost"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestRequestStatusTracksMovements(t *testing.T) {
	f := newFixture(t)

	_, queuedResp := f.post(t, "/camera/smooth_move", map[string]any{
		"start_position": []any{0, 0, 0},
		"end_position":   []any{1, 0, 0},
		"duration":       1,
	})
	movementID := queuedResp["movement_id"].(string)

	status, payload := f.get(t, "/request_status", url.Values{"request_id": {movementID}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "smooth_move", payload["operation"])
	assert.Equal(t, false, payload["completed"])

	status, payload = f.get(t, "/request_status", url.Values{"request_id": {"unknown"}})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", payload["error_code"])
}

func TestMovementExecutesUnderTicks(t *testing.T) {
	f := newFixture(t)

	f.post(t, "/camera/smooth_move", map[string]any{
		"start_position": []any{0, 0, 0},
		"end_position":   []any{10, 0, 0},
		"duration":       1,
	})

	start := time.Now()
	f.engine.OnTick(start, 0)
	f.engine.OnTick(start.Add(2*time.Second), 2*time.Second)

	assert.Equal(t, cinematic.Vec3{10, 0, 0}, f.ctrl.Pose().Position)
	assert.Equal(t, cinematic.StateIdle, f.engine.Snapshot().State)

	status, payload := f.get(t, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "idle", payload["queue_state"])
	assert.Greater(t, payload["applied_frames"].(float64), float64(0))
}
