// SPDX-License-Identifier: MIT

package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/agentworld/simbridge/internal/log"
)

var (
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

// Renderer grabs one viewport frame into the given file. Implementations run
// on the main domain.
type Renderer interface {
	CaptureFrame(path string) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(path string) error

func (f RendererFunc) CaptureFrame(path string) error { return f(path) }

// Options configure a Supervisor.
type Options struct {
	OutputRoot string
	Renderer   Renderer
	Journal    *Journal
	// MaxCaptureRate bounds ad-hoc frame grabs. Zero means 10/s.
	MaxCaptureRate rate.Limit
}

// Supervisor owns at most one active recording session and serves ad-hoc
// frame captures.
type Supervisor struct {
	mu      sync.Mutex
	active  *Session
	root    string
	render  Renderer
	journal *Journal
	limiter *rate.Limiter
	now     func() time.Time
	lg      zerolog.Logger
}

func NewSupervisor(opts Options) *Supervisor {
	limit := opts.MaxCaptureRate
	if limit == 0 {
		limit = 10
	}
	return &Supervisor{
		root:    opts.OutputRoot,
		render:  opts.Renderer,
		journal: opts.Journal,
		limiter: rate.NewLimiter(limit, int(limit)),
		now:     time.Now,
		lg:      log.WithComponent("capture"),
	}
}

// SetClock injects the time source for tests.
func (s *Supervisor) SetClock(now func() time.Time) { s.now = now }

// StartParams configure a new recording.
type StartParams struct {
	Kind   Kind
	FPS    float64
	Width  int
	Height int
}

// Start begins a recording session.
func (s *Supervisor) Start(p StartParams) (*Session, error) {
	if p.Kind == "" {
		p.Kind = KindVideo
	}
	if p.FPS <= 0 {
		p.FPS = 30
	}
	if p.Width <= 0 || p.Height <= 0 {
		p.Width, p.Height = 1920, 1080
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil, ErrAlreadyRecording
	}

	id := uuid.NewString()
	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	sess := &Session{
		ID:        id,
		Kind:      p.Kind,
		OutputDir: dir,
		FPS:       p.FPS,
		Width:     p.Width,
		Height:    p.Height,
		StartedAt: s.now(),
		Status:    StatusRecording,
	}
	s.active = sess
	s.journalPut(sess)
	s.lg.Info().
		Str(log.FieldSessionID, id).
		Str("kind", string(p.Kind)).
		Float64("fps", p.FPS).
		Msg("recording started")
	out := *sess
	return &out, nil
}

// Stop ends the active session and writes its manifest atomically.
func (s *Supervisor) Stop() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil, ErrNotRecording
	}

	sess := s.active
	s.active = nil
	sess.StoppedAt = s.now()
	sess.Status = StatusStopped
	s.journalPut(sess)

	if err := s.writeManifest(sess); err != nil {
		s.lg.Error().Err(err).Str(log.FieldSessionID, sess.ID).Msg("manifest write failed")
	}
	s.lg.Info().
		Str(log.FieldSessionID, sess.ID).
		Int(log.FieldFrames, sess.FramesCaptured).
		Dur("duration", sess.StoppedAt.Sub(sess.StartedAt)).
		Msg("recording stopped")
	out := *sess
	return &out, nil
}

// Status reports the active session, or the most recent one from the journal.
func (s *Supervisor) Status() (*Session, bool) {
	s.mu.Lock()
	if s.active != nil {
		out := *s.active
		s.mu.Unlock()
		return &out, true
	}
	s.mu.Unlock()

	if s.journal != nil {
		if sessions, err := s.journal.List(); err == nil && len(sessions) > 0 {
			return sessions[0], false
		}
	}
	return nil, false
}

// CaptureFrame grabs one frame into the active session dir, or into the
// output root when idle. Grabs are rate limited.
func (s *Supervisor) CaptureFrame(ctx context.Context) (string, error) {
	if s.render == nil {
		return "", fmt.Errorf("no renderer attached")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("capture throttled: %w", err)
	}

	s.mu.Lock()
	dir := s.root
	var sess *Session
	if s.active != nil {
		sess = s.active
		dir = sess.OutputDir
	}
	name := fmt.Sprintf("frame_%d.png", s.now().UnixNano())
	s.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create capture dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := s.render.CaptureFrame(path); err != nil {
		return "", fmt.Errorf("capture frame: %w", err)
	}

	s.mu.Lock()
	if sess != nil && s.active == sess {
		sess.FramesCaptured++
		s.journalPut(sess)
	}
	s.mu.Unlock()
	return path, nil
}

// CleanupFrames deletes frame files older than maxAge under the output root.
// Active session directories are skipped.
func (s *Supervisor) CleanupFrames(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	var activeDir string
	if s.active != nil {
		activeDir = s.active.OutputDir
	}
	now := s.now()
	s.mu.Unlock()

	removed := 0
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if activeDir != "" && path == activeDir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".png" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if now.Sub(info.ModTime()) > maxAge {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return removed, nil
	}
	if err != nil {
		return removed, fmt.Errorf("cleanup frames: %w", err)
	}
	s.lg.Info().Int("removed", removed).Msg("frame cleanup complete")
	return removed, nil
}

// writeManifest records the finished session next to its output. The write
// is atomic so a crash never leaves a torn manifest.
func (s *Supervisor) writeManifest(sess *Session) error {
	buf, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(sess.OutputDir, "manifest.json")
	return renameio.WriteFile(path, buf, 0o644)
}

func (s *Supervisor) journalPut(sess *Session) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Put(sess); err != nil {
		s.lg.Warn().Err(err).Str(log.FieldSessionID, sess.ID).Msg("journal write failed")
	}
}

// Close stops any active session.
func (s *Supervisor) Close() {
	if _, err := s.Stop(); err != nil && !errors.Is(err, ErrNotRecording) {
		s.lg.Warn().Err(err).Msg("stop on close failed")
	}
}
