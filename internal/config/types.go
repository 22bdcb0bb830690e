// SPDX-License-Identifier: MIT

// Package config provides layered configuration: JSON documents on disk,
// environment overrides, and documented defaults.
package config

// Identity describes one hosted extension. It is read-only after startup.
type Identity struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	APIVersion  string `json:"api_version"`
	ServiceName string `json:"service_name"`
	Port        int    `json:"port"`
}

// HTTPConfig holds the HTTP-layer settings shared by all extensions:
// CORS values, security headers, response formatting and error messages.
type HTTPConfig struct {
	CORS            CORSConfig        `json:"cors"`
	SecurityHeaders SecurityHeaders   `json:"security_headers"`
	Response        ResponseFormat    `json:"response"`
	ErrorMessages   map[string]string `json:"error_messages"`
}

// CORSConfig holds the CORS header values sent on every response.
type CORSConfig struct {
	AllowOrigin  string `json:"allow_origin"`
	AllowMethods string `json:"allow_methods"`
	AllowHeaders string `json:"allow_headers"`
	MaxAge       int    `json:"max_age"`
}

// SecurityHeaders holds the fixed security headers sent on every response.
type SecurityHeaders struct {
	ContentSecurityPolicy string `json:"content_security_policy"`
	ReferrerPolicy        string `json:"referrer_policy"`
	PermissionsPolicy     string `json:"permissions_policy"`
	EnableHSTS            bool   `json:"enable_hsts"`
}

// ResponseFormat controls JSON body rendering.
type ResponseFormat struct {
	Indent          string `json:"indent"`
	DefaultRawType  string `json:"default_raw_type"`
	PrettyByDefault bool   `json:"pretty_by_default"`
}

// VersionsConfig maps extension names to version metadata.
type VersionsConfig struct {
	DefaultVersion string                 `json:"default_version"`
	Extensions     map[string]VersionInfo `json:"extensions"`
}

// VersionInfo is per-extension version metadata.
type VersionInfo struct {
	Version     string `json:"version"`
	APIVersion  string `json:"api_version"`
	ServiceName string `json:"service_name"`
}

// DefaultHTTPConfig returns the documented fallback used when the HTTP config
// file is missing or invalid.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		CORS: CORSConfig{
			AllowOrigin:  "*",
			AllowMethods: "GET, POST, OPTIONS",
			AllowHeaders: "Content-Type, Authorization, X-Timestamp, X-Signature, X-Request-ID",
			MaxAge:       600,
		},
		SecurityHeaders: SecurityHeaders{
			ContentSecurityPolicy: "default-src 'self'; frame-ancestors 'none'",
			ReferrerPolicy:        "no-referrer",
			PermissionsPolicy:     "camera=(), microphone=(), geolocation=()",
			EnableHSTS:            false,
		},
		Response: ResponseFormat{
			Indent:          "",
			DefaultRawType:  "text/plain; version=0.0.4",
			PrettyByDefault: false,
		},
		ErrorMessages: map[string]string{
			"invalid_json":        "Invalid JSON",
			"rate_limited":        "Rate limit exceeded",
			"missing_credentials": "Authentication required: provide X-Timestamp/X-Signature or a Bearer token",
			"invalid_hmac":        "Invalid HMAC signature",
			"bearer_disabled":     "Bearer authentication is not enabled for this extension",
		},
	}
}

// DefaultVersions returns the fallback versions document.
func DefaultVersions() VersionsConfig {
	return VersionsConfig{
		DefaultVersion: "0.9.0",
		Extensions:     map[string]VersionInfo{},
	}
}
