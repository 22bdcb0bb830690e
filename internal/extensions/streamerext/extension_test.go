// SPDX-License-Identifier: MIT

package streamerext

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentworld/simbridge/internal/api"
	"github.com/agentworld/simbridge/internal/config"
	"github.com/agentworld/simbridge/internal/metrics"
	"github.com/agentworld/simbridge/internal/security"
	"github.com/agentworld/simbridge/internal/streamer"
)

type fakePipeline struct {
	healthy bool
	started int
}

func (p *fakePipeline) Start(context.Context, streamer.Config) error {
	p.started++
	p.healthy = true
	return nil
}

func (p *fakePipeline) Stop() error {
	p.healthy = false
	return nil
}

func (p *fakePipeline) Healthy() bool { return p.healthy }

func newFixture(t *testing.T, protocol streamer.Protocol) http.Handler {
	t.Helper()
	name := string(protocol)
	ext := New(Options{
		Identity:   config.Identity{Name: name, Port: 8902, Version: "0.9.0", APIVersion: "1.0"},
		Protocol:   protocol,
		Manager:    streamer.NewManager(&fakePipeline{}, name),
		EncoderBin: "definitely-not-a-real-binary",
		Metrics:    metrics.New(name),
	})
	srv := api.NewServer(ext, security.New(name, security.Options{}),
		metrics.New(name), config.NewHTTPConfigHolder(""), api.Options{})
	return srv.Router()
}

func post(t *testing.T, h http.Handler, path string, body map[string]any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return do(t, h, req)
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	return do(t, h, httptest.NewRequest(http.MethodGet, path, nil))
}

func do(t *testing.T, h http.Handler, req *http.Request) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec.Code, payload
}

func TestStreamLifecycleRTMP(t *testing.T) {
	h := newFixture(t, streamer.ProtocolRTMP)

	status, payload := post(t, h, "/streaming/start", map[string]any{
		"host":       "ingest.example",
		"stream_key": "abc",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "streaming", payload["state"])
	assert.Equal(t, "rtmp://ingest.example:1935/live/abc", payload["url"])

	status, payload = post(t, h, "/streaming/start", map[string]any{
		"host":       "ingest.example",
		"stream_key": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])

	status, payload = get(t, h, "/streaming/status")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "streaming", payload["state"])
	assert.Equal(t, "rtmp", payload["protocol"])

	status, payload = get(t, h, "/streaming/urls")
	require.Equal(t, http.StatusOK, status)
	urls, _ := payload["urls"].(map[string]any)
	assert.Equal(t, "rtmp://ingest.example:1935/live/abc", urls["publish"])

	status, payload = post(t, h, "/streaming/stop", map[string]any{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "idle", payload["state"])

	status, payload = post(t, h, "/streaming/stop", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
}

func TestStreamStartSRTDefaults(t *testing.T) {
	h := newFixture(t, streamer.ProtocolSRT)

	status, payload := post(t, h, "/streaming/start", map[string]any{
		"host":      "ingest.example",
		"stream_id": "cam1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "srt://ingest.example:10080?latency=120&streamid=cam1", payload["url"])
}

func TestStreamStartRequiresHost(t *testing.T) {
	h := newFixture(t, streamer.ProtocolRTMP)
	status, payload := post(t, h, "/streaming/start", map[string]any{"stream_key": "abc"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", payload["error_code"])
	details, _ := payload["details"].(map[string]any)
	assert.Equal(t, "host", details["parameter"])
}

func TestEnvironmentValidate(t *testing.T) {
	h := newFixture(t, streamer.ProtocolRTMP)

	status, payload := get(t, h, "/streaming/environment/validate")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, payload["valid"], "missing encoder binary fails validation")

	checks, _ := payload["checks"].([]any)
	require.NotEmpty(t, checks)
	names := make(map[string]bool)
	for _, c := range checks {
		m := c.(map[string]any)
		names[m["name"].(string)] = true
	}
	assert.True(t, names["encoder_binary"])
	assert.True(t, names["config"])
}

func TestHealthReportsStreamState(t *testing.T) {
	h := newFixture(t, streamer.ProtocolRTMP)
	status, payload := get(t, h, "/health")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "idle", payload["stream_state"])
}
