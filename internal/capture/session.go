// SPDX-License-Identifier: MIT

// Package capture manages viewport recording sessions: continuous video,
// single-frame grabs, and cleanup of frame output directories.
package capture

import "time"

// Kind distinguishes continuous recordings from frame-sequence captures.
type Kind string

const (
	KindVideo  Kind = "video"
	KindFrames Kind = "frames"
)

// SessionStatus is the lifecycle of one recording.
type SessionStatus string

const (
	StatusRecording SessionStatus = "recording"
	StatusStopped   SessionStatus = "stopped"
	StatusFailed    SessionStatus = "failed"
)

// Session is one recording run.
type Session struct {
	ID             string        `json:"session_id"`
	Kind           Kind          `json:"kind"`
	OutputDir      string        `json:"output_dir"`
	FPS            float64       `json:"fps"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	StartedAt      time.Time     `json:"started_at"`
	StoppedAt      time.Time     `json:"stopped_at,omitzero"`
	FramesCaptured int           `json:"frames_captured"`
	Status         SessionStatus `json:"status"`
	Error          string        `json:"error,omitempty"`
}

// Duration is the session length so far.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.Status != StatusRecording && !s.StoppedAt.IsZero() {
		return s.StoppedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}
