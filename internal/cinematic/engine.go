// SPDX-License-Identifier: MIT

package cinematic

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentworld/simbridge/internal/log"
)

// MaxQueuedMovements caps the pending shot queue.
const MaxQueuedMovements = 10

var (
	ErrQueueFull        = errors.New("movement queue is full")
	ErrQueueEmpty       = errors.New("movement queue is empty")
	ErrMovementNotFound = errors.New("movement not found")
	ErrMovementActive   = errors.New("movement is active and cannot be removed")
)

// TransitionError reports an illegal state-machine transition. The request
// has no side-effect.
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

// ApplyFunc delivers one interpolated pose to the camera controller. It runs
// on the main domain only.
type ApplyFunc func(position, target Vec3)

// Engine executes queued camera movements, reconciling play/pause/stop with
// autonomous tick-driven progression. All mutation happens under one lock;
// pose application happens only from OnTick on the main domain.
type Engine struct {
	mu      sync.Mutex
	state   State
	queue   []QueuedMovement
	active  *MovementState
	lastErr string

	apply  ApplyFunc
	onDone func(movementID string, err error)
	deps   Deps
	now    func() time.Time
	lg     zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock injects the time source for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithAssetCenter wires the scene-object lookup used by orbit shots.
func WithAssetCenter(fn func(name string) (Vec3, error)) EngineOption {
	return func(e *Engine) { e.deps.AssetCenter = fn }
}

// WithCompletionHook observes movement completion and generation failure.
// The hook runs on the main domain with the engine lock held; keep it cheap.
func WithCompletionHook(fn func(movementID string, err error)) EngineOption {
	return func(e *Engine) { e.onDone = fn }
}

func NewEngine(apply ApplyFunc, opts ...EngineOption) *Engine {
	e := &Engine{
		state: StateIdle,
		apply: apply,
		now:   time.Now,
		lg:    log.WithComponent("cinematic"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddMovement appends a shot to the queue.
func (e *Engine) AddMovement(id string, op Operation, params map[string]any) error {
	if !KnownOperation(op) {
		return paramErrorf("operation", "unknown operation %q", op)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) >= MaxQueuedMovements {
		return ErrQueueFull
	}
	e.queue = append(e.queue, QueuedMovement{MovementID: id, Operation: op, Params: params})
	e.lg.Debug().
		Str(log.FieldMovementID, id).
		Str(log.FieldShotType, string(op)).
		Int("queue_length", len(e.queue)).
		Msg("movement queued")
	return nil
}

// RemoveMovement removes a queued shot. The active movement cannot be removed.
func (e *Engine) RemoveMovement(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil && e.active.MovementID == id {
		return ErrMovementActive
	}
	for i, m := range e.queue {
		if m.MovementID == id {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			return nil
		}
	}
	return ErrMovementNotFound
}

// Play starts or resumes queue execution.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.transitionLocked(StateRunning); err != nil {
		return err
	}
	if e.active == nil && len(e.queue) == 0 {
		e.state = StateIdle
		return ErrQueueEmpty
	}
	return nil
}

// Pause stops starting new movements. The active movement finishes its
// current pass.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transitionLocked(StatePaused)
}

// Stop clears the queue and discards the active movement. The final keyframe
// is not applied.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.transitionLocked(StateStopped); err != nil {
		return err
	}
	e.queue = nil
	e.active = nil
	e.lastErr = ""
	return nil
}

// Reset returns the machine to idle from a terminal state.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transitionLocked(StateIdle)
}

func (e *Engine) transitionLocked(to State) error {
	if e.state == to {
		return nil
	}
	if !CanTransition(e.state, to) {
		return &TransitionError{From: e.state, To: to}
	}
	e.lg.Info().
		Str(log.FieldOldState, string(e.state)).
		Str(log.FieldNewState, string(to)).
		Msg("queue state changed")
	e.state = to
	return nil
}

// OnTick advances the engine. The dispatcher drains first in the host loop,
// so queue mutations submitted by workers are visible before progression.
func (e *Engine) OnTick(now time.Time, _ time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		e.advanceLocked(now)
	}
	if e.state == StateRunning && e.active == nil && len(e.queue) > 0 {
		e.startNextLocked(now)
	}
}

// advanceLocked applies the frame for the current progress. Runs even while
// paused so the active pass completes.
func (e *Engine) advanceLocked(now time.Time) {
	m := e.active
	progress := m.Progress(now)
	idx := int(math.Floor(progress * float64(len(m.Keyframes))))
	if idx > len(m.Keyframes)-1 {
		idx = len(m.Keyframes) - 1
	}
	m.CurrentFrame = idx
	kf := m.Keyframes[idx]
	if e.apply != nil {
		e.apply(kf.Position, kf.Target)
	}

	if progress >= 1 {
		final := m.Keyframes[len(m.Keyframes)-1]
		if e.apply != nil {
			e.apply(final.Position, final.Target)
		}
		e.lg.Info().
			Str(log.FieldMovementID, m.MovementID).
			Str(log.FieldShotType, string(m.Operation)).
			Msg("movement complete")
		e.active = nil
		if e.onDone != nil {
			e.onDone(m.MovementID, nil)
		}
	}
}

func (e *Engine) startNextLocked(now time.Time) {
	next := e.queue[0]
	e.queue = e.queue[1:]

	plan, err := Generate(next.Operation, next.Params, e.deps)
	if err != nil {
		e.lg.Error().Err(err).
			Str(log.FieldMovementID, next.MovementID).
			Str(log.FieldShotType, string(next.Operation)).
			Msg("keyframe generation failed, dropping movement")
		e.state = StateError
		e.lastErr = err.Error()
		if e.onDone != nil {
			e.onDone(next.MovementID, err)
		}
		return
	}

	e.active = &MovementState{
		MovementID: next.MovementID,
		Operation:  next.Operation,
		Params:     next.Params,
		StartTime:  now,
		Duration:   plan.Duration,
		Keyframes:  plan.Keyframes,
	}
	e.lg.Info().
		Str(log.FieldMovementID, next.MovementID).
		Str(log.FieldShotType, string(next.Operation)).
		Int(log.FieldFrames, len(plan.Keyframes)).
		Float64("duration_seconds", plan.Duration).
		Msg("movement started")
}

// ActiveStatus describes the in-flight movement.
type ActiveStatus struct {
	MovementID       string    `json:"movement_id"`
	Operation        Operation `json:"operation"`
	Progress         float64   `json:"progress"`
	RemainingSeconds float64   `json:"remaining_seconds"`
	CurrentFrame     int       `json:"current_frame"`
	TotalFrames      int       `json:"total_frames"`
}

// QueuedStatus describes one pending shot with its estimated start offset.
type QueuedStatus struct {
	MovementID            string    `json:"movement_id"`
	Operation             Operation `json:"operation"`
	EstimatedDuration     float64   `json:"estimated_duration_seconds"`
	EstimatedStartSeconds float64   `json:"estimated_start_seconds"`
}

// Status is the queue snapshot returned by get_status.
type Status struct {
	State                 State          `json:"state"`
	Active                *ActiveStatus  `json:"active_movement,omitempty"`
	Queued                []QueuedStatus `json:"queued_movements"`
	QueueLength           int            `json:"queue_length"`
	Capacity              int            `json:"capacity"`
	TotalRemainingSeconds float64        `json:"total_remaining_seconds"`
	LastError             string         `json:"last_error,omitempty"`
}

// Snapshot returns the effective queue state. Stored idle with items queued
// reads as pending; stored running with nothing left reads as idle.
func (e *Engine) Snapshot() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	st := Status{
		State:       e.state,
		Queued:      make([]QueuedStatus, 0, len(e.queue)),
		QueueLength: len(e.queue),
		Capacity:    MaxQueuedMovements,
		LastError:   e.lastErr,
	}

	var offset float64
	if e.active != nil {
		progress := e.active.Progress(now)
		remaining := e.active.Duration * (1 - progress)
		st.Active = &ActiveStatus{
			MovementID:       e.active.MovementID,
			Operation:        e.active.Operation,
			Progress:         progress,
			RemainingSeconds: remaining,
			CurrentFrame:     e.active.CurrentFrame,
			TotalFrames:      len(e.active.Keyframes),
		}
		offset = remaining
	}
	for _, m := range e.queue {
		d := estimateDuration(m.Operation, m.Params)
		st.Queued = append(st.Queued, QueuedStatus{
			MovementID:            m.MovementID,
			Operation:             m.Operation,
			EstimatedDuration:     d,
			EstimatedStartSeconds: offset,
		})
		offset += d
	}
	st.TotalRemainingSeconds = offset

	switch {
	case e.state == StateIdle && len(e.queue) > 0:
		st.State = StatePending
	case e.state == StateRunning && e.active == nil && len(e.queue) == 0:
		st.State = StateIdle
	}
	return st
}

// State returns the stored machine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// estimateDuration approximates a queued shot's runtime before generation.
// Estimation failures read as zero remaining time.
func estimateDuration(op Operation, params map[string]any) float64 {
	if d, err := floatParam(params, "duration", 0); err == nil && d > 0 {
		return d
	}
	start, err := vec3Param(params, "start_position")
	if err != nil || start == nil {
		return 0
	}
	end, err := vec3Param(params, "end_position")
	if err != nil || end == nil {
		return 0
	}
	d, err := resolveDuration(op, params, *start, *end)
	if err != nil {
		return 0
	}
	return d
}
