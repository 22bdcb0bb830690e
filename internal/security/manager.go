// SPDX-License-Identifier: MIT

// Package security validates requests before dispatch: rate limit first,
// then Bearer/HMAC authentication.
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agentworld/simbridge/internal/config"
	"github.com/agentworld/simbridge/internal/log"
)

const (
	// DefaultMaxRequests and DefaultWindow bound the per-IP sliding window.
	DefaultMaxRequests = 100
	DefaultWindow      = 60 * time.Second

	// maxClockSkew bounds |now - X-Timestamp| for HMAC requests.
	maxClockSkew = 60 * time.Second
)

// Manager holds one extension's security state. Rate-limit state is never
// shared across extensions.
type Manager struct {
	extension     string
	authEnabled   bool
	bearerEnabled bool
	bearerToken   string
	hmacSecret    string

	maxRequests int
	window      time.Duration

	mu      sync.Mutex
	buckets map[string][]time.Time

	now func() time.Time
}

// Options configures a Manager. Zero values take documented defaults.
type Options struct {
	AuthEnabled   bool
	BearerEnabled bool
	BearerToken   string
	HMACSecret    string
	MaxRequests   int
	Window        time.Duration
	Now           func() time.Time
}

// New creates a Manager for the named extension.
func New(extension string, opts Options) *Manager {
	if opts.MaxRequests <= 0 {
		opts.MaxRequests = DefaultMaxRequests
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		extension:     extension,
		authEnabled:   opts.AuthEnabled,
		bearerEnabled: opts.BearerEnabled,
		bearerToken:   opts.BearerToken,
		hmacSecret:    opts.HMACSecret,
		maxRequests:   opts.MaxRequests,
		window:        opts.Window,
		buckets:       make(map[string][]time.Time),
		now:           opts.Now,
	}
}

// FromEnv builds a Manager from the AGENT_EXT_* / AGENT_<EXT>_* environment.
// Per-extension secrets take precedence over global secrets.
func FromEnv(extension string) *Manager {
	ext := config.EnvName(extension)

	token := config.ParseString("AGENT_EXT_AUTH_TOKEN", "")
	token = config.ParseString("AGENT_"+ext+"_AUTH_TOKEN", token)

	secret := config.ParseString("AGENT_EXT_HMAC_SECRET", "")
	secret = config.ParseString("AGENT_"+ext+"_HMAC_SECRET", secret)

	bearer := config.ParseBool("AGENT_EXT_BEARER_AUTH_ENABLED", false)
	bearer = config.ParseBool("AGENT_"+ext+"_BEARER_AUTH_ENABLED", bearer)

	enabled := config.ParseBool("AGENT_EXT_AUTH_ENABLED", true)

	return New(extension, Options{
		AuthEnabled:   enabled,
		BearerEnabled: bearer,
		BearerToken:   token,
		HMACSecret:    secret,
		MaxRequests:   config.ParseInt("AGENT_EXT_RATE_LIMIT_MAX", DefaultMaxRequests),
		Window:        config.ParseDuration("AGENT_EXT_RATE_LIMIT_WINDOW", DefaultWindow),
	})
}

// Realm is the WWW-Authenticate realm advertised on 401 responses.
func (m *Manager) Realm() string {
	return fmt.Sprintf(`HMAC-SHA256 realm="isaac-sim-%s"`, m.extension)
}

// Validate runs the combined gate: rate limit first, then authentication.
// A rate-limit rejection never consumes an auth slot.
func (m *Manager) Validate(r *http.Request, clientIP string) error {
	if !m.CheckRateLimit(clientIP) {
		return ErrRateLimited
	}
	return m.checkAuth(r)
}

// CheckRateLimit admits or rejects one request from ip against the sliding
// window. Timestamps older than the window are purged lazily on access.
func (m *Manager) CheckRateLimit(ip string) bool {
	now := m.now()
	cutoff := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	stamps := m.buckets[ip]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= m.maxRequests {
		m.buckets[ip] = kept
		return false
	}
	m.buckets[ip] = append(kept, now)
	return true
}

func (m *Manager) checkAuth(r *http.Request) error {
	// Auth globally disabled or no secrets configured: admit.
	if !m.authEnabled || (m.hmacSecret == "" && m.bearerToken == "") {
		return nil
	}

	// HMAC path (preferred).
	ts := r.Header.Get("X-Timestamp")
	sig := r.Header.Get("X-Signature")
	if ts != "" && sig != "" {
		if m.hmacSecret == "" {
			return &AuthError{Reason: ReasonInvalidHMAC}
		}
		return m.verifyHMAC(r.Method, r.URL.Path, ts, sig)
	}

	// Bearer path (opt-in only).
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if !m.bearerEnabled {
			return &AuthError{Reason: ReasonBearerDisabled}
		}
		token := strings.TrimSpace(auth[len("Bearer "):])
		if !constantTimeEqual(token, m.bearerToken) {
			return &AuthError{Reason: ReasonInvalidBearer}
		}
		logger := log.WithComponent("security")
		logger.Warn().
			Str(log.FieldExtension, m.extension).
			Str(log.FieldEvent, "auth.bearer_used").
			Msg("bearer token authentication used; prefer HMAC")
		return nil
	}

	return &AuthError{Reason: ReasonMissingCredentials}
}

// verifyHMAC checks |now-ts| <= 60s and the hex HMAC-SHA256 over
// "METHOD|PATH|TIMESTAMP" using a constant-time compare.
func (m *Manager) verifyHMAC(method, path, ts, sig string) error {
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return &AuthError{Reason: ReasonInvalidHMAC}
	}
	skew := m.now().Unix() - unix
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > maxClockSkew {
		return &AuthError{Reason: ReasonTimestampSkew}
	}

	expected := Sign(m.hmacSecret, method, path, ts)
	got, err := hex.DecodeString(sig)
	if err != nil {
		return &AuthError{Reason: ReasonInvalidHMAC}
	}
	want, _ := hex.DecodeString(expected)
	if !hmac.Equal(got, want) {
		return &AuthError{Reason: ReasonInvalidHMAC}
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 signature over "METHOD|PATH|TIMESTAMP".
// Exported for clients and tests.
func Sign(secret, method, path, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s|%s", method, path, timestamp)
	return hex.EncodeToString(mac.Sum(nil))
}

func constantTimeEqual(got, expected string) bool {
	if expected == "" || got == "" {
		return false
	}
	return hmac.Equal([]byte(got), []byte(expected))
}
