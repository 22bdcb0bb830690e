// SPDX-License-Identifier: MIT

// Package camera exposes the viewport camera over HTTP: direct pose control,
// the cinematic shot queue, and asset transform lookups.
package camera

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentworld/simbridge/internal/api"
	cam "github.com/agentworld/simbridge/internal/camera"
	"github.com/agentworld/simbridge/internal/cinematic"
	"github.com/agentworld/simbridge/internal/config"
	"github.com/agentworld/simbridge/internal/dispatch"
	"github.com/agentworld/simbridge/internal/metrics"
	"github.com/agentworld/simbridge/internal/tracker"
)

// DefaultDispatchTimeout bounds how long a worker waits for the main thread.
const DefaultDispatchTimeout = 5 * time.Second

// Extension implements api.Extension for the camera control plane.
type Extension struct {
	id      config.Identity
	ctrl    *cam.Controller
	engine  *cinematic.Engine
	queue   *dispatch.Queue
	tracker *tracker.Tracker
	reg     *metrics.Registry
	timeout time.Duration
}

// Options are the collaborators the extension needs.
type Options struct {
	Identity        config.Identity
	Controller      *cam.Controller
	Engine          *cinematic.Engine
	Queue           *dispatch.Queue
	Tracker         *tracker.Tracker
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
		ctrl:    opts.Controller,
		engine:  opts.Engine,
		queue:   opts.Queue,
		tracker: opts.Tracker,
		reg:     opts.Metrics,
		timeout: timeout,
	}
}

func (e *Extension) Identity() config.Identity { return e.id }

// HealthExtras reports queue state alongside the standard health fields.
func (e *Extension) HealthExtras() map[string]any {
	return map[string]any{
		"queue_state":    string(e.engine.Snapshot().State),
		"applied_frames": e.ctrl.AppliedFrames(),
	}
}

func (e *Extension) Routes() api.RouteTable {
	return api.RouteTable{
		"/camera/status":              {Method: "GET", Handler: e.handleStatus, Summary: "Current camera pose and movement state"},
		"/camera/set_position":        {Method: "POST", Handler: e.handleSetPosition, Summary: "Set camera position and target"},
		"/camera/frame_object":        {Method: "POST", Handler: e.handleFrameObject, Summary: "Frame a named scene object"},
		"/camera/orbit":               {Method: "POST", Handler: e.handleOrbit, Summary: "Place the camera on an orbit point"},
		"/camera/smooth_move":         {Method: "POST", Handler: e.movementHandler(cinematic.OpSmoothMove), Summary: "Queue a smooth move"},
		"/camera/orbit_shot":          {Method: "POST", Handler: e.movementHandler(cinematic.OpOrbitShot), Summary: "Queue an orbit shot"},
		"/camera/arc_shot":            {Method: "POST", Handler: e.movementHandler(cinematic.OpArcShot), Summary: "Queue an arc shot"},
		"/camera/dolly_shot":          {Method: "POST", Handler: e.movementHandler(cinematic.OpDollyShot), Summary: "Queue a dolly shot"},
		"/camera/pan_tilt_shot":       {Method: "POST", Handler: e.movementHandler(cinematic.OpPanTiltShot), Summary: "Queue a pan-tilt shot"},
		"/camera/cinematic_orbit":     {Method: "POST", Handler: e.movementHandler(cinematic.OpCinematicOrbit), Summary: "Queue a cinematic orbit"},
		"/camera/stop_movement":       {Method: "POST", Handler: e.handleStopMovement, Summary: "Stop all movement and clear the queue"},
		"/camera/remove_movement":     {Method: "POST", Handler: e.handleRemoveMovement, Summary: "Remove a queued movement"},
		"/camera/movement_status":     {Method: "GET", Handler: e.handleMovementStatus, Summary: "Active movement progress"},
		"/camera/shot_queue_status":   {Method: "GET", Handler: e.handleQueueStatus, Summary: "Shot queue snapshot"},
		"/camera/queue/play":          {Method: "POST", Handler: e.handlePlay, Summary: "Start or resume queue execution"},
		"/camera/queue/pause":         {Method: "POST", Handler: e.handlePause, Summary: "Pause queue execution"},
		"/camera/queue/stop":          {Method: "POST", Handler: e.handleQueueStop, Summary: "Stop queue execution"},
		"/get_asset_transform":        {Method: "GET", Handler: e.handleAssetTransform, Summary: "Resolve a scene object transform"},
		"/request_status":             {Method: "GET", Handler: e.handleRequestStatus, Summary: "Fire-and-forget request status"},
	}
}

func (e *Extension) handleStatus(_ context.Context, _ *api.Request) (map[string]any, error) {
	if e.ctrl == nil {
		return nil, &api.UnavailableError{Code: "CAMERA_UNAVAILABLE", Message: "camera controller not attached"}
	}
	pose := e.ctrl.Pose()
	snap := e.engine.Snapshot()
	out := map[string]any{
		"position":    pose.Position,
		"target":      pose.Target,
		"queue_state": string(snap.State),
	}
	if snap.Active != nil {
		out["active_movement"] = snap.Active
	}
	return out, nil
}

func (e *Extension) handleSetPosition(_ context.Context, req *api.Request) (map[string]any, error) {
	raw, err := api.RequireVec3(req.Data, "position")
	if err != nil {
		return nil, err
	}
	position := cinematic.Vec3(raw)
	target := e.ctrl.Pose().Target
	if p, err := api.Vec3Param(req.Data, "target"); err != nil {
		return nil, err
	} else if p != nil {
		target = cinematic.Vec3(*p)
	}

	_, err = e.queue.RunOnMain(func() (any, error) {
		e.ctrl.SetPose(position, target)
		return nil, nil
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	e.reg.IncrementEvent("camera_moves")
	return map[string]any{"position": position, "target": target}, nil
}

func (e *Extension) handleFrameObject(_ context.Context, req *api.Request) (map[string]any, error) {
	name, err := api.RequireString(req.Data, "object_name")
	if err != nil {
		return nil, err
	}
	factor, err := api.FloatParam(req.Data, "distance_factor", cam.DefaultFrameFactor)
	if err != nil {
		return nil, err
	}

	value, err := e.queue.RunOnMain(func() (any, error) {
		return e.ctrl.FrameObject(name, factor)
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	pose := value.(cam.Pose)
	e.reg.IncrementEvent("objects_framed")
	return map[string]any{
		"object_name": name,
		"position":    pose.Position,
		"target":      pose.Target,
	}, nil
}

func (e *Extension) handleOrbit(_ context.Context, req *api.Request) (map[string]any, error) {
	center := cinematic.Vec3{}
	if p, err := api.Vec3Param(req.Data, "center"); err != nil {
		return nil, err
	} else if p != nil {
		center = cinematic.Vec3(*p)
	}
	azimuth, err := api.FloatParam(req.Data, "azimuth", 0)
	if err != nil {
		return nil, err
	}
	elevation, err := api.FloatParam(req.Data, "elevation", 30)
	if err != nil {
		return nil, err
	}
	distance, err := api.FloatParam(req.Data, "distance", 10)
	if err != nil {
		return nil, err
	}
	if distance <= 0 {
		return nil, api.Validationf("distance", "distance must be positive")
	}

	value, err := e.queue.RunOnMain(func() (any, error) {
		return e.ctrl.Orbit(center, azimuth, elevation, distance), nil
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	pose := value.(cam.Pose)
	e.reg.IncrementEvent("camera_moves")
	return map[string]any{"position": pose.Position, "target": pose.Target}, nil
}

// movementHandler queues one shot of the given operation. Movement requests
// are fire-and-forget: the response carries the movement_id for later polling
// via /request_status or /camera/movement_status.
func (e *Extension) movementHandler(op cinematic.Operation) api.Handler {
	return func(_ context.Context, req *api.Request) (map[string]any, error) {
		movementID := uuid.NewString()
		e.tracker.Add(movementID, string(op), req.Data)

		_, err := e.queue.RunOnMain(func() (any, error) {
			if err := e.engine.AddMovement(movementID, op, req.Data); err != nil {
				return nil, err
			}
			// idle queues start playing on direct shot requests
			if e.engine.State() == cinematic.StateIdle {
				if err := e.engine.Play(); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}, e.timeout)
		if err != nil {
			e.tracker.MarkCompleted(movementID, nil, err)
			return nil, err
		}

		e.reg.IncrementEvent("movements_queued")
		snap := e.engine.Snapshot()
		return map[string]any{
			"movement_id":  movementID,
			"operation":    string(op),
			"queue_state":  string(snap.State),
			"queue_length": snap.QueueLength,
		}, nil
	}
}

func (e *Extension) handleStopMovement(_ context.Context, _ *api.Request) (map[string]any, error) {
	_, err := e.queue.RunOnMain(func() (any, error) {
		return nil, e.engine.Stop()
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	return map[string]any{"stopped": true}, nil
}

func (e *Extension) handleRemoveMovement(_ context.Context, req *api.Request) (map[string]any, error) {
	id, err := api.RequireString(req.Data, "movement_id")
	if err != nil {
		return nil, err
	}
	_, err = e.queue.RunOnMain(func() (any, error) {
		return nil, e.engine.RemoveMovement(id)
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	return map[string]any{"movement_id": id, "removed": true}, nil
}

func (e *Extension) handleMovementStatus(_ context.Context, _ *api.Request) (map[string]any, error) {
	snap := e.engine.Snapshot()
	out := map[string]any{
		"queue_state": string(snap.State),
	}
	if snap.Active != nil {
		out["movement"] = snap.Active
	} else {
		out["movement"] = nil
	}
	return out, nil
}

func (e *Extension) handleQueueStatus(_ context.Context, _ *api.Request) (map[string]any, error) {
	snap := e.engine.Snapshot()
	return map[string]any{
		"state":                   string(snap.State),
		"active_movement":         snap.Active,
		"queued_movements":        snap.Queued,
		"queue_length":            snap.QueueLength,
		"capacity":                snap.Capacity,
		"total_remaining_seconds": snap.TotalRemainingSeconds,
		"last_error":              snap.LastError,
	}, nil
}

func (e *Extension) handlePlay(_ context.Context, _ *api.Request) (map[string]any, error) {
	return e.queueTransition(func() error { return e.engine.Play() }, "play")
}

func (e *Extension) handlePause(_ context.Context, _ *api.Request) (map[string]any, error) {
	return e.queueTransition(func() error { return e.engine.Pause() }, "pause")
}

func (e *Extension) handleQueueStop(_ context.Context, _ *api.Request) (map[string]any, error) {
	return e.queueTransition(func() error { return e.engine.Stop() }, "stop")
}

func (e *Extension) queueTransition(fn func() error, action string) (map[string]any, error) {
	if e.engine == nil {
		return nil, &api.UnavailableError{Code: "QUEUE_UNAVAILABLE", Message: "shot queue not attached"}
	}
	_, err := e.queue.RunOnMain(func() (any, error) {
		return nil, fn()
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"action": action,
		"state":  string(e.engine.Snapshot().State),
	}, nil
}

func (e *Extension) handleAssetTransform(_ context.Context, req *api.Request) (map[string]any, error) {
	name, err := api.RequireString(req.Data, "object_name")
	if err != nil {
		return nil, err
	}
	value, err := e.queue.RunOnMain(func() (any, error) {
		return e.ctrl.AssetCenter(name)
	}, e.timeout)
	if err != nil {
		return nil, fmt.Errorf("asset transform: %w", err)
	}
	center := value.(cinematic.Vec3)
	return map[string]any{
		"object_name": name,
		"center":      center,
	}, nil
}

func (e *Extension) handleRequestStatus(_ context.Context, req *api.Request) (map[string]any, error) {
	id, err := api.RequireString(req.Data, "request_id")
	if err != nil {
		return nil, err
	}
	rec, err := e.tracker.Get(id)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"request_id": rec.RequestID,
		"operation":  rec.Operation,
		"completed":  rec.Completed,
		"created_at": rec.CreatedAt,
	}
	if rec.Completed {
		out["completed_at"] = rec.CompletedAt
		if rec.Error != "" {
			out["error"] = rec.Error
		}
		if rec.Result != nil {
			out["result"] = rec.Result
		}
	}
	return out, nil
}
