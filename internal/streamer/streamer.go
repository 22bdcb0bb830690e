// SPDX-License-Identifier: MIT

// Package streamer pushes the viewport to an RTMP or SRT endpoint through an
// external encoder process.
package streamer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentworld/simbridge/internal/log"
)

// Protocol selects the transport.
type Protocol string

const (
	ProtocolRTMP Protocol = "rtmp"
	ProtocolSRT  Protocol = "srt"
)

var (
	ErrAlreadyStreaming = errors.New("stream already running")
	ErrNotStreaming     = errors.New("no stream running")
)

// Config describes one outbound stream.
type Config struct {
	Protocol  Protocol `json:"protocol"`
	Host      string   `json:"host"`
	Port      int      `json:"port"`
	StreamKey string   `json:"stream_key,omitempty"` // rtmp
	StreamID  string   `json:"stream_id,omitempty"`  // srt
	LatencyMS int      `json:"latency_ms,omitempty"` // srt
	BitrateK  int      `json:"bitrate_kbps"`
	FPS       float64  `json:"fps"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		if c.Protocol == ProtocolSRT {
			c.Port = 10080
		} else {
			c.Port = 1935
		}
	}
	if c.BitrateK <= 0 {
		c.BitrateK = 4000
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = 1920, 1080
	}
	if c.Protocol == ProtocolSRT && c.LatencyMS <= 0 {
		c.LatencyMS = 120
	}
}

// URL renders the publish address for the configured protocol.
func (c Config) URL() string {
	switch c.Protocol {
	case ProtocolSRT:
		q := url.Values{}
		q.Set("latency", fmt.Sprintf("%d", c.LatencyMS))
		if c.StreamID != "" {
			q.Set("streamid", c.StreamID)
		}
		return fmt.Sprintf("srt://%s:%d?%s", c.Host, c.Port, q.Encode())
	default:
		u := fmt.Sprintf("rtmp://%s:%d/live", c.Host, c.Port)
		if c.StreamKey != "" {
			u += "/" + c.StreamKey
		}
		return u
	}
}

// Validate checks the config before any process is launched.
func (c Config) Validate() error {
	if c.Protocol != ProtocolRTMP && c.Protocol != ProtocolSRT {
		return fmt.Errorf("unknown protocol %q", c.Protocol)
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Protocol == ProtocolRTMP && c.StreamKey == "" {
		return fmt.Errorf("stream_key is required for rtmp")
	}
	return nil
}

// Pipeline is the encoder behind a stream. Start blocks until the pipeline
// is up; Stop tears it down.
type Pipeline interface {
	Start(ctx context.Context, cfg Config) error
	Stop() error
	Healthy() bool
}

// State is the streamer lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StateFailed    State = "failed"
)

// Status is the snapshot served by /streaming/status.
type Status struct {
	State         State     `json:"state"`
	URL           string    `json:"url,omitempty"`
	Protocol      Protocol  `json:"protocol,omitempty"`
	StartedAt     time.Time `json:"started_at,omitzero"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	BitrateK      int       `json:"bitrate_kbps,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// Manager serializes start/stop around one Pipeline.
type Manager struct {
	mu        sync.Mutex
	pipeline  Pipeline
	cfg       Config
	state     State
	startedAt time.Time
	lastErr   string
	now       func() time.Time
	lg        zerolog.Logger
}

func NewManager(p Pipeline, extension string) *Manager {
	return &Manager{
		pipeline: p,
		state:    StateIdle,
		now:      time.Now,
		lg:       log.WithComponent(extension),
	}
}

// Start validates and launches the stream.
func (m *Manager) Start(ctx context.Context, cfg Config) (Status, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Status{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateStreaming {
		return m.statusLocked(), ErrAlreadyStreaming
	}

	if err := m.pipeline.Start(ctx, cfg); err != nil {
		m.state = StateFailed
		m.lastErr = err.Error()
		return m.statusLocked(), fmt.Errorf("start %s stream: %w", cfg.Protocol, err)
	}
	m.cfg = cfg
	m.state = StateStreaming
	m.startedAt = m.now()
	m.lastErr = ""
	m.lg.Info().Str("url", cfg.URL()).Int("bitrate_kbps", cfg.BitrateK).Msg("stream started")
	return m.statusLocked(), nil
}

// Stop tears the stream down.
func (m *Manager) Stop() (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateStreaming {
		return m.statusLocked(), ErrNotStreaming
	}
	if err := m.pipeline.Stop(); err != nil {
		m.state = StateFailed
		m.lastErr = err.Error()
		return m.statusLocked(), fmt.Errorf("stop stream: %w", err)
	}
	m.state = StateIdle
	m.lg.Info().Dur("uptime", m.now().Sub(m.startedAt)).Msg("stream stopped")
	m.startedAt = time.Time{}
	return m.statusLocked(), nil
}

// Status reports the current stream.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateStreaming && !m.pipeline.Healthy() {
		m.state = StateFailed
		m.lastErr = "pipeline exited unexpectedly"
	}
	return m.statusLocked()
}

func (m *Manager) statusLocked() Status {
	st := Status{
		State:     m.state,
		LastError: m.lastErr,
	}
	if m.state == StateStreaming {
		st.URL = m.cfg.URL()
		st.Protocol = m.cfg.Protocol
		st.StartedAt = m.startedAt
		st.UptimeSeconds = m.now().Sub(m.startedAt).Seconds()
		st.BitrateK = m.cfg.BitrateK
	}
	return st
}

// URLs lists the publish and playback addresses for the active config.
func (m *Manager) URLs() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateStreaming {
		return map[string]string{}
	}
	out := map[string]string{"publish": m.cfg.URL()}
	if m.cfg.Protocol == ProtocolRTMP {
		out["playback"] = m.cfg.URL()
	}
	return out
}
