// SPDX-License-Identifier: MIT

package streamer

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentworld/simbridge/internal/log"
)

// EncoderPipeline shells out to an ffmpeg-compatible encoder that reads the
// viewport share and pushes it to the publish URL.
type EncoderPipeline struct {
	// BinPath is the encoder binary, default "ffmpeg".
	BinPath string
	// InputArgs describe the capture source, default x11grab of display :0.
	InputArgs []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	exited chan struct{}
	lg     zerolog.Logger
}

func NewEncoderPipeline() *EncoderPipeline {
	return &EncoderPipeline{
		BinPath:   "ffmpeg",
		InputArgs: []string{"-f", "x11grab", "-i", ":0"},
		lg:        log.WithComponent("encoder"),
	}
}

// Start launches the encoder detached from the request context so the stream
// outlives the HTTP call that started it.
func (p *EncoderPipeline) Start(_ context.Context, cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return ErrAlreadyStreaming
	}

	args := append([]string{}, p.InputArgs...)
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-b:v", strconv.Itoa(cfg.BitrateK)+"k",
		"-r", fmt.Sprintf("%g", cfg.FPS),
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
	)
	switch cfg.Protocol {
	case ProtocolSRT:
		args = append(args, "-f", "mpegts", cfg.URL())
	default:
		args = append(args, "-f", "flv", cfg.URL())
	}

	runCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(runCtx, p.BinPath, args...) // #nosec G204
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start encoder: %w", err)
	}

	exited := make(chan struct{})
	go func() {
		err := cmd.Wait()
		if err != nil && runCtx.Err() == nil {
			p.lg.Error().Err(err).Msg("encoder exited")
		}
		close(exited)
	}()

	p.cmd = cmd
	p.cancel = cancel
	p.exited = exited
	return nil
}

func (p *EncoderPipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return ErrNotStreaming
	}
	p.cancel()
	<-p.exited
	p.cmd = nil
	p.cancel = nil
	p.exited = nil
	return nil
}

func (p *EncoderPipeline) Healthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return false
	}
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}
