// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DaemonConfig is the top-level simbridge.yaml document: which extensions run,
// on which ports, and where the shared config documents live.
type DaemonConfig struct {
	HTTPConfigPath string           `yaml:"http_config"`
	VersionsPath   string           `yaml:"versions"`
	DataDir        string           `yaml:"data_dir"`
	LogLevel       string           `yaml:"log_level"`
	Telemetry      TelemetryConfig  `yaml:"telemetry"`
	Extensions     ExtensionPorts   `yaml:"extensions"`
	Redis          RedisConfig      `yaml:"redis"`
	SceneStore     SceneStoreConfig `yaml:"scene_store"`
}

// TelemetryConfig configures the OTLP trace exporter.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Endpoint     string  `yaml:"endpoint"`
	ExporterType string  `yaml:"exporter"` // "grpc" or "http"
	Environment  string  `yaml:"environment"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// ExtensionPorts enables extensions and assigns listen ports. A zero port
// disables the extension.
type ExtensionPorts struct {
	Worldbuilder int `yaml:"worldbuilder"`
	Camera       int `yaml:"camera"`
	Recorder     int `yaml:"recorder"`
	RTMP         int `yaml:"rtmp"`
	SRT          int `yaml:"srt"`
}

// RedisConfig configures the optional Redis asset-transform cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SceneStoreConfig selects the worldbuilder scene store backend.
type SceneStoreConfig struct {
	Backend string `yaml:"backend"` // "memory" (default) or "sqlite"
	Path    string `yaml:"path"`    // sqlite file path
}

// DefaultDaemonConfig returns the documented defaults: all five extensions on
// their standard ports, memory scene store, telemetry off.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		DataDir:  "data",
		LogLevel: "info",
		Telemetry: TelemetryConfig{
			ExporterType: "grpc",
			Environment:  "development",
			SamplingRate: 0.1,
		},
		Extensions: ExtensionPorts{
			Worldbuilder: 8899,
			Camera:       8900,
			Recorder:     8901,
			RTMP:         8902,
			SRT:          8903,
		},
		SceneStore: SceneStoreConfig{Backend: "memory"},
	}
}

// LoadDaemonConfig reads simbridge.yaml from path. A missing file yields
// defaults; an unparsable file is an error (the daemon should not start on a
// half-read config).
func LoadDaemonConfig(path string) (DaemonConfig, error) {
	cfg := DefaultDaemonConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read daemon config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse daemon config: %w", err)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SceneStore.Backend == "" {
		cfg.SceneStore.Backend = "memory"
	}
	return cfg, nil
}
