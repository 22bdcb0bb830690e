// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	t.Setenv("TEST_STR", "from-env")
	assert.Equal(t, "from-env", ParseString("TEST_STR", "fallback"))

	t.Setenv("TEST_STR", "")
	assert.Equal(t, "fallback", ParseString("TEST_STR", "fallback"))

	assert.Equal(t, "fallback", ParseString("TEST_STR_UNSET", "fallback"))
}

func TestParseInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, ParseInt("TEST_INT", 7))

	t.Setenv("TEST_INT", "not-a-number")
	assert.Equal(t, 7, ParseInt("TEST_INT", 7))

	assert.Equal(t, 7, ParseInt("TEST_INT_UNSET", 7))
}

func TestParseBool(t *testing.T) {
	cases := map[string]bool{
		"1": true, "true": true, "YES": true, "On": true,
		"0": false, "false": false, "no": false, "OFF": false,
	}
	for raw, want := range cases {
		t.Setenv("TEST_BOOL", raw)
		assert.Equal(t, want, ParseBool("TEST_BOOL", !want), "value %q", raw)
	}

	t.Setenv("TEST_BOOL", "maybe")
	assert.True(t, ParseBool("TEST_BOOL", true))
}

func TestParseDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "90s")
	assert.Equal(t, 90*time.Second, ParseDuration("TEST_DUR", time.Minute))

	t.Setenv("TEST_DUR", "ninety")
	assert.Equal(t, time.Minute, ParseDuration("TEST_DUR", time.Minute))
}

func TestLoadHTTPConfigDefaults(t *testing.T) {
	cfg := LoadHTTPConfig("")
	assert.Equal(t, "*", cfg.CORS.AllowOrigin)
	assert.Equal(t, "Invalid JSON", cfg.ErrorMessages["invalid_json"])
	assert.Equal(t, "Rate limit exceeded", cfg.ErrorMessages["rate_limited"])

	cfg = LoadHTTPConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, "*", cfg.CORS.AllowOrigin)
}

func TestLoadHTTPConfigPartialDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "http.json")
	doc := `{
		"cors": {"allow_origin": "https://studio.example"},
		"error_messages": {"rate_limited": "slow down"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg := LoadHTTPConfig(path)
	assert.Equal(t, "https://studio.example", cfg.CORS.AllowOrigin)
	assert.Equal(t, "slow down", cfg.ErrorMessages["rate_limited"])
	assert.Equal(t, "Invalid JSON", cfg.ErrorMessages["invalid_json"], "omitted messages keep defaults")
}

func TestLoadHTTPConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "http.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	cfg := LoadHTTPConfig(path)
	assert.Equal(t, DefaultHTTPConfig(), cfg)
}

func TestHTTPConfigHolderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "http.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cors":{"allow_origin":"https://a"}}`), 0o644))

	h := NewHTTPConfigHolder(path)
	assert.Equal(t, "https://a", h.Current().CORS.AllowOrigin)

	require.NoError(t, os.WriteFile(path, []byte(`{"cors":{"allow_origin":"https://b"}}`), 0o644))
	h.Reload()
	assert.Equal(t, "https://b", h.Current().CORS.AllowOrigin)
}

func TestIdentityFor(t *testing.T) {
	vc := VersionsConfig{
		DefaultVersion: "1.2.3",
		Extensions: map[string]VersionInfo{
			"camera": {Version: "2.0.0", APIVersion: "1.1", ServiceName: "Camera Control"},
		},
	}

	id := IdentityFor("camera", 8900, vc)
	assert.Equal(t, "2.0.0", id.Version)
	assert.Equal(t, "1.1", id.APIVersion)
	assert.Equal(t, "Camera Control", id.ServiceName)
	assert.Equal(t, 8900, id.Port)

	id = IdentityFor("worldbuilder", 8899, vc)
	assert.Equal(t, "1.2.3", id.Version, "unknown extension inherits the default version")
	assert.Equal(t, "1.0", id.APIVersion)
	assert.Equal(t, "Agent World Worldbuilder", id.ServiceName)
}

func TestIdentityForEnvOverrides(t *testing.T) {
	vc := DefaultVersions()

	t.Setenv("AGENT_WORLD_VERSION", "3.0.0")
	id := IdentityFor("recorder", 8901, vc)
	assert.Equal(t, "3.0.0", id.Version)

	t.Setenv("AGENT_WORLD_RECORDER_VERSION", "3.1.0")
	id = IdentityFor("recorder", 8901, vc)
	assert.Equal(t, "3.1.0", id.Version, "per-extension override wins")
}

func TestLoadDaemonConfig(t *testing.T) {
	cfg, err := LoadDaemonConfig("")
	require.NoError(t, err)
	assert.Equal(t, 8899, cfg.Extensions.Worldbuilder)
	assert.Equal(t, 8903, cfg.Extensions.SRT)
	assert.Equal(t, "memory", cfg.SceneStore.Backend)

	path := filepath.Join(t.TempDir(), "simbridge.yaml")
	doc := "extensions:\n  camera: 9900\nscene_store:\n  backend: sqlite\n  path: scene.db\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	cfg, err = LoadDaemonConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9900, cfg.Extensions.Camera)
	assert.Equal(t, "sqlite", cfg.SceneStore.Backend)
	assert.Equal(t, "info", cfg.LogLevel)

	require.NoError(t, os.WriteFile(path, []byte("::bad"), 0o644))
	_, err = LoadDaemonConfig(path)
	assert.Error(t, err)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "WORLDBUILDER", EnvName("worldbuilder"))
	assert.Equal(t, "ISAAC_SIM", EnvName("isaac-sim"))
}
