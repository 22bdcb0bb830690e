// SPDX-License-Identifier: MIT

package streamer

import (
	"fmt"
	"net"
	"os/exec"
	"time"
)

// Check is one environment validation result.
type Check struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// ValidateEnvironment verifies the stream could start: encoder binary on
// PATH, valid config, and a reachable ingest endpoint. Reachability failure
// is reported but does not fail the whole set since ingest servers often
// reject probe connections.
func ValidateEnvironment(binPath string, cfg Config) []Check {
	cfg.applyDefaults()
	checks := make([]Check, 0, 3)

	if binPath == "" {
		binPath = "ffmpeg"
	}
	if path, err := exec.LookPath(binPath); err != nil {
		checks = append(checks, Check{Name: "encoder_binary", Message: fmt.Sprintf("%s not found on PATH", binPath)})
	} else {
		checks = append(checks, Check{Name: "encoder_binary", OK: true, Message: path})
	}

	if err := cfg.Validate(); err != nil {
		checks = append(checks, Check{Name: "config", Message: err.Error()})
		return checks
	}
	checks = append(checks, Check{Name: "config", OK: true})

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		checks = append(checks, Check{Name: "endpoint_reachable", Message: err.Error()})
	} else {
		_ = conn.Close()
		checks = append(checks, Check{Name: "endpoint_reachable", OK: true, Message: addr})
	}
	return checks
}
