// SPDX-License-Identifier: MIT

// Package recorder exposes viewport recording over HTTP: continuous video
// sessions, ad-hoc frame grabs and frame cleanup.
package recorder

import (
	"context"
	"errors"
	"time"

	"github.com/agentworld/simbridge/internal/api"
	"github.com/agentworld/simbridge/internal/capture"
	"github.com/agentworld/simbridge/internal/config"
	"github.com/agentworld/simbridge/internal/dispatch"
	"github.com/agentworld/simbridge/internal/metrics"
)

// DefaultDispatchTimeout bounds how long a worker waits for the main thread.
const DefaultDispatchTimeout = 5 * time.Second

// defaultCleanupAge is the cutoff for /cleanup/frames when the caller gives
// no max_age_seconds.
const defaultCleanupAge = time.Hour

// Extension implements api.Extension for the viewport recorder.
type Extension struct {
	id      config.Identity
	sup     *capture.Supervisor
	queue   *dispatch.Queue
	reg     *metrics.Registry
	timeout time.Duration
}

// Options are the collaborators the extension needs.
type Options struct {
	Identity        config.Identity
	Supervisor      *capture.Supervisor
	Queue           *dispatch.Queue
	Metrics         *metrics.Registry
	DispatchTimeout time.Duration
}

func New(opts Options) *Extension {
	timeout := opts.DispatchTimeout
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Extension{
		id:      opts.Identity,
		sup:     opts.Supervisor,
		queue:   opts.Queue,
		reg:     opts.Metrics,
		timeout: timeout,
	}
}

func (e *Extension) Identity() config.Identity { return e.id }

// HealthExtras reports whether a recording is active.
func (e *Extension) HealthExtras() map[string]any {
	_, active := e.sup.Status()
	return map[string]any{"recording": active}
}

func (e *Extension) Routes() api.RouteTable {
	routes := api.RouteTable{
		"/video/start":            {Method: "POST", Handler: e.handleStart, Summary: "Start a recording session"},
		"/video/stop":             {Method: "POST", Handler: e.handleStop, Summary: "Stop the active recording"},
		"/video/status":           {Method: "GET", Handler: e.handleStatus, Summary: "Recording session status"},
		"/viewport/capture_frame": {Method: "POST", Handler: e.handleCaptureFrame, Summary: "Grab one viewport frame"},
		"/cleanup/frames":         {Method: "POST", Handler: e.handleCleanup, Summary: "Delete old frame files"},
	}
	// recording/* are aliases kept for older clients
	routes["/recording/start"] = routes["/video/start"]
	routes["/recording/stop"] = routes["/video/stop"]
	routes["/recording/status"] = routes["/video/status"]
	return routes
}

func (e *Extension) handleStart(_ context.Context, req *api.Request) (map[string]any, error) {
	fps, err := api.FloatParam(req.Data, "fps", 30)
	if err != nil {
		return nil, err
	}
	if fps <= 0 || fps > 120 {
		return nil, api.Validationf("fps", "fps must be in (0, 120]")
	}
	width, err := api.FloatParam(req.Data, "width", 1920)
	if err != nil {
		return nil, err
	}
	height, err := api.FloatParam(req.Data, "height", 1080)
	if err != nil {
		return nil, err
	}
	kind := capture.KindVideo
	if api.StringParam(req.Data, "mode", "video") == "frames" {
		kind = capture.KindFrames
	}

	sess, err := e.sup.Start(capture.StartParams{
		Kind:   kind,
		FPS:    fps,
		Width:  int(width),
		Height: int(height),
	})
	if errors.Is(err, capture.ErrAlreadyRecording) {
		return nil, api.Validationf("session", "a recording is already in progress")
	}
	if err != nil {
		return nil, err
	}
	e.reg.IncrementEvent("recordings_started")
	return map[string]any{
		"session_id": sess.ID,
		"output_dir": sess.OutputDir,
		"fps":        sess.FPS,
		"width":      sess.Width,
		"height":     sess.Height,
	}, nil
}

func (e *Extension) handleStop(_ context.Context, _ *api.Request) (map[string]any, error) {
	sess, err := e.sup.Stop()
	if errors.Is(err, capture.ErrNotRecording) {
		return nil, api.Validationf("session", "no recording in progress")
	}
	if err != nil {
		return nil, err
	}
	e.reg.IncrementEvent("recordings_stopped")
	return map[string]any{
		"session_id":       sess.ID,
		"frames_captured":  sess.FramesCaptured,
		"duration_seconds": sess.StoppedAt.Sub(sess.StartedAt).Seconds(),
		"output_dir":       sess.OutputDir,
	}, nil
}

func (e *Extension) handleStatus(_ context.Context, _ *api.Request) (map[string]any, error) {
	sess, active := e.sup.Status()
	out := map[string]any{"recording": active}
	if sess != nil {
		out["session"] = sess
		out["duration_seconds"] = sess.Duration(time.Now()).Seconds()
	}
	return out, nil
}

func (e *Extension) handleCaptureFrame(ctx context.Context, _ *api.Request) (map[string]any, error) {
	value, err := e.queue.RunOnMain(func() (any, error) {
		return e.sup.CaptureFrame(ctx)
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	e.reg.IncrementEvent("frames_captured")
	return map[string]any{"frame_path": value.(string)}, nil
}

func (e *Extension) handleCleanup(_ context.Context, req *api.Request) (map[string]any, error) {
	maxAgeSecs, err := api.FloatParam(req.Data, "max_age_seconds", defaultCleanupAge.Seconds())
	if err != nil {
		return nil, err
	}
	if maxAgeSecs < 0 {
		return nil, api.Validationf("max_age_seconds", "max_age_seconds must be non-negative")
	}
	removed, err := e.sup.CleanupFrames(time.Duration(maxAgeSecs * float64(time.Second)))
	if err != nil {
		return nil, err
	}
	e.reg.AddEvent("frames_cleaned", float64(removed))
	return map[string]any{"removed": removed}, nil
}
