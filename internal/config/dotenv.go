// SPDX-License-Identifier: MIT

package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentworld/simbridge/internal/log"
)

// projectMarkers identify a project root while walking up from the working
// directory in search of a .env file.
var projectMarkers = []string{"go.mod", ".git", "simbridge.yaml"}

// LoadDotenv walks up the directory tree from dir looking for a .env file next
// to a project marker and loads its key=value pairs into the process
// environment. Existing environment variables are never overwritten.
func LoadDotenv(dir string) {
	logger := log.WithComponent("config")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return
		}
		dir = wd
	}

	for {
		if hasProjectMarker(dir) {
			path := filepath.Join(dir, ".env")
			if _, err := os.Stat(path); err == nil {
				n := loadEnvFile(path)
				logger.Info().Str("path", path).Int("loaded", n).Msg("loaded .env file")
			}
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func hasProjectMarker(dir string) bool {
	for _, marker := range projectMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// loadEnvFile parses key=value lines, ignoring comments and blank lines.
// Returns the number of variables actually set.
func loadEnvFile(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	set := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, value)
		set++
	}
	return set
}
