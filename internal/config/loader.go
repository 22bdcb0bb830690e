// SPDX-License-Identifier: MIT

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/agentworld/simbridge/internal/log"
)

// LoadHTTPConfig reads the HTTP config JSON document from path. Missing or
// invalid files fall back to DefaultHTTPConfig with a warning.
func LoadHTTPConfig(path string) HTTPConfig {
	logger := log.WithComponent("config")
	cfg := DefaultHTTPConfig()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Str("path", path).Err(err).Msg("http config not readable, using defaults")
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.Warn().Str("path", path).Err(err).Msg("http config invalid, using defaults")
		return DefaultHTTPConfig()
	}
	// Partial documents keep defaults for omitted error messages.
	defaults := DefaultHTTPConfig()
	if cfg.ErrorMessages == nil {
		cfg.ErrorMessages = defaults.ErrorMessages
	} else {
		for k, v := range defaults.ErrorMessages {
			if _, ok := cfg.ErrorMessages[k]; !ok {
				cfg.ErrorMessages[k] = v
			}
		}
	}
	if cfg.Response.DefaultRawType == "" {
		cfg.Response.DefaultRawType = defaults.Response.DefaultRawType
	}
	return cfg
}

// LoadVersions reads the versions JSON document from path, falling back to
// DefaultVersions when missing or invalid.
func LoadVersions(path string) VersionsConfig {
	logger := log.WithComponent("config")
	vc := DefaultVersions()
	if path == "" {
		return vc
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Str("path", path).Err(err).Msg("versions config not readable, using defaults")
		return vc
	}
	if err := json.Unmarshal(data, &vc); err != nil {
		logger.Warn().Str("path", path).Err(err).Msg("versions config invalid, using defaults")
		return DefaultVersions()
	}
	if vc.Extensions == nil {
		vc.Extensions = map[string]VersionInfo{}
	}
	if vc.DefaultVersion == "" {
		vc.DefaultVersion = DefaultVersions().DefaultVersion
	}
	return vc
}

// IdentityFor resolves the identity for an extension, applying environment
// version overrides (AGENT_WORLD_VERSION, AGENT_WORLD_<EXT>_VERSION).
func IdentityFor(name string, port int, vc VersionsConfig) Identity {
	info, ok := vc.Extensions[name]
	if !ok {
		info = VersionInfo{Version: vc.DefaultVersion, APIVersion: "1.0"}
	}
	if info.Version == "" {
		info.Version = vc.DefaultVersion
	}
	if info.APIVersion == "" {
		info.APIVersion = "1.0"
	}
	if info.ServiceName == "" {
		info.ServiceName = fmt.Sprintf("Agent World %s", title(name))
	}

	version := ParseString("AGENT_WORLD_VERSION", info.Version)
	version = ParseString("AGENT_WORLD_"+envName(name)+"_VERSION", version)

	return Identity{
		Name:        name,
		Version:     version,
		APIVersion:  info.APIVersion,
		ServiceName: info.ServiceName,
		Port:        port,
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// envName converts an extension name to the form used in env var names.
func envName(ext string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(ext))
}

// EnvName is the exported form of envName for other packages building
// AGENT_<EXT>_* variable names.
func EnvName(ext string) string { return envName(ext) }
