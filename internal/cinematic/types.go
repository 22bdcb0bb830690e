// SPDX-License-Identifier: MIT

// Package cinematic implements the queued camera-movement engine: keyframe
// generators per shot type, easing, duration-from-speed, and the play/pause/
// stop state machine driven by the host update tick.
package cinematic

import "time"

// Operation identifies a shot type.
type Operation string

const (
	OpSmoothMove     Operation = "smooth_move"
	OpArcShot        Operation = "arc_shot"
	OpOrbitShot      Operation = "orbit_shot"
	OpDollyShot      Operation = "dolly_shot"
	OpPanTiltShot    Operation = "pan_tilt_shot"
	OpCinematicOrbit Operation = "cinematic_orbit"
)

// KnownOperation reports whether op names a supported shot type.
func KnownOperation(op Operation) bool {
	switch op {
	case OpSmoothMove, OpArcShot, OpOrbitShot, OpDollyShot, OpPanTiltShot, OpCinematicOrbit:
		return true
	}
	return false
}

// Keyframe is one sampled camera pose along a movement. Immutable once
// generated.
type Keyframe struct {
	Position  Vec3    `json:"position"`
	Target    Vec3    `json:"target"`
	Progress  float64 `json:"progress"`
	Timestamp float64 `json:"timestamp"` // seconds relative to movement start
	Azimuth   float64 `json:"azimuth,omitempty"`
}

// Plan is the output of a generator: the keyframes plus the resolved duration.
type Plan struct {
	Keyframes []Keyframe
	Duration  float64 // seconds
}

// MovementState is an active movement being advanced by the update tick.
type MovementState struct {
	MovementID   string         `json:"movement_id"`
	Operation    Operation      `json:"operation"`
	Params       map[string]any `json:"params,omitempty"`
	StartTime    time.Time      `json:"start_time"`
	Duration     float64        `json:"duration_seconds"`
	Keyframes    []Keyframe     `json:"-"`
	CurrentFrame int            `json:"current_frame"`
}

// Progress returns elapsed/duration clamped to [0,1].
func (m *MovementState) Progress(now time.Time) float64 {
	if m.Duration <= 0 {
		return 1
	}
	p := now.Sub(m.StartTime).Seconds() / m.Duration
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// QueuedMovement is a pending entry awaiting execution.
type QueuedMovement struct {
	MovementID string         `json:"movement_id"`
	Operation  Operation      `json:"operation"`
	Params     map[string]any `json:"params,omitempty"`
}

// State is the cinematic queue state machine state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
	StatePending State = "pending" // inferred only, never stored
	StateError   State = "error"
)

// validTransitions is the closed transition table. Transitions not listed
// fail with no side-effect.
var validTransitions = map[State][]State{
	StateIdle:    {StateRunning, StateStopped},
	StateRunning: {StatePaused, StateStopped, StateIdle},
	StatePaused:  {StateRunning, StateStopped, StateIdle},
	StateStopped: {StateIdle, StateRunning},
	StateError:   {StateIdle, StateStopped},
}

// CanTransition reports whether from→to is a legal state change.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
