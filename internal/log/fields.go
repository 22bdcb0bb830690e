// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID  = "request_id"
	FieldExtension  = "extension"
	FieldMovementID = "movement_id"
	FieldBatchID    = "batch_id"
	FieldSessionID  = "session_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Cinematic fields
	FieldOperation = "operation"
	FieldShotType  = "shot_type"
	FieldEasing    = "easing"
	FieldFrames    = "frames"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Network fields
	FieldPath       = "path"
	FieldMethod     = "method"
	FieldRemoteAddr = "remote_addr"
	FieldStatus     = "status"
)
