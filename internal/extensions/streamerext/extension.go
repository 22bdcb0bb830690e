// SPDX-License-Identifier: MIT

// Package streamerext exposes one streaming protocol (RTMP or SRT) over
// HTTP. The rtmp and srt extensions are two instances of this package with
// different identities and default protocols.
package streamerext

import (
	"context"
	"errors"

	"github.com/agentworld/simbridge/internal/api"
	"github.com/agentworld/simbridge/internal/config"
	"github.com/agentworld/simbridge/internal/metrics"
	"github.com/agentworld/simbridge/internal/streamer"
)

// Extension implements api.Extension for one streaming protocol.
type Extension struct {
	id       config.Identity
	protocol streamer.Protocol
	manager  *streamer.Manager
	binPath  string
	reg      *metrics.Registry
}

// Options are the collaborators the extension needs.
type Options struct {
	Identity config.Identity
	Protocol streamer.Protocol
	Manager  *streamer.Manager
	// EncoderBin is checked by /streaming/environment/validate.
	EncoderBin string
	Metrics    *metrics.Registry
}

func New(opts Options) *Extension {
	return &Extension{
		id:       opts.Identity,
		protocol: opts.Protocol,
		manager:  opts.Manager,
		binPath:  opts.EncoderBin,
		reg:      opts.Metrics,
	}
}

func (e *Extension) Identity() config.Identity { return e.id }

// HealthExtras reports the stream state.
func (e *Extension) HealthExtras() map[string]any {
	return map[string]any{"stream_state": string(e.manager.Status().State)}
}

func (e *Extension) Routes() api.RouteTable {
	return api.RouteTable{
		"/streaming/start":                {Method: "POST", Handler: e.handleStart, Summary: "Start the stream"},
		"/streaming/stop":                 {Method: "POST", Handler: e.handleStop, Summary: "Stop the stream"},
		"/streaming/status":               {Method: "GET", Handler: e.handleStatus, Summary: "Stream status"},
		"/streaming/urls":                 {Method: "GET", Handler: e.handleURLs, Summary: "Publish and playback URLs"},
		"/streaming/environment/validate": {Method: "GET", Handler: e.handleValidate, Summary: "Check encoder and endpoint"},
	}
}

func (e *Extension) decodeConfig(data map[string]any) (streamer.Config, error) {
	cfg := streamer.Config{
		Protocol:  e.protocol,
		Host:      api.StringParam(data, "host", ""),
		StreamKey: api.StringParam(data, "stream_key", ""),
		StreamID:  api.StringParam(data, "stream_id", ""),
	}
	port, err := api.FloatParam(data, "port", 0)
	if err != nil {
		return streamer.Config{}, err
	}
	cfg.Port = int(port)

	latency, err := api.FloatParam(data, "latency_ms", 0)
	if err != nil {
		return streamer.Config{}, err
	}
	cfg.LatencyMS = int(latency)

	bitrate, err := api.FloatParam(data, "bitrate_kbps", 0)
	if err != nil {
		return streamer.Config{}, err
	}
	cfg.BitrateK = int(bitrate)

	fps, err := api.FloatParam(data, "fps", 0)
	if err != nil {
		return streamer.Config{}, err
	}
	cfg.FPS = fps

	width, err := api.FloatParam(data, "width", 0)
	if err != nil {
		return streamer.Config{}, err
	}
	height, err := api.FloatParam(data, "height", 0)
	if err != nil {
		return streamer.Config{}, err
	}
	cfg.Width, cfg.Height = int(width), int(height)
	return cfg, nil
}

func (e *Extension) handleStart(ctx context.Context, req *api.Request) (map[string]any, error) {
	cfg, err := e.decodeConfig(req.Data)
	if err != nil {
		return nil, err
	}
	if cfg.Host == "" {
		return nil, api.Validationf("host", "host is required")
	}

	status, err := e.manager.Start(ctx, cfg)
	if errors.Is(err, streamer.ErrAlreadyStreaming) {
		return nil, api.Validationf("stream", "stream already running")
	}
	if err != nil {
		return nil, err
	}
	e.reg.IncrementEvent("streams_started")
	return map[string]any{
		"state": string(status.State),
		"url":   status.URL,
	}, nil
}

func (e *Extension) handleStop(_ context.Context, _ *api.Request) (map[string]any, error) {
	status, err := e.manager.Stop()
	if errors.Is(err, streamer.ErrNotStreaming) {
		return nil, api.Validationf("stream", "no stream running")
	}
	if err != nil {
		return nil, err
	}
	e.reg.IncrementEvent("streams_stopped")
	return map[string]any{"state": string(status.State)}, nil
}

func (e *Extension) handleStatus(_ context.Context, _ *api.Request) (map[string]any, error) {
	status := e.manager.Status()
	return map[string]any{
		"state":          string(status.State),
		"url":            status.URL,
		"protocol":       string(status.Protocol),
		"uptime_seconds": status.UptimeSeconds,
		"bitrate_kbps":   status.BitrateK,
		"last_error":     status.LastError,
	}, nil
}

func (e *Extension) handleURLs(_ context.Context, _ *api.Request) (map[string]any, error) {
	urls := e.manager.URLs()
	return map[string]any{"urls": urls, "count": len(urls)}, nil
}

func (e *Extension) handleValidate(_ context.Context, req *api.Request) (map[string]any, error) {
	cfg, err := e.decodeConfig(req.Data)
	if err != nil {
		return nil, err
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Protocol == streamer.ProtocolRTMP && cfg.StreamKey == "" {
		cfg.StreamKey = "probe"
	}
	checks := streamer.ValidateEnvironment(e.binPath, cfg)
	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
		}
	}
	return map[string]any{"valid": ok, "checks": checks}, nil
}
