// SPDX-License-Identifier: MIT

// Package version exposes build-time version information.
package version

// Version is the semantic version of the simbridge build.
// Overridden at link time via -ldflags "-X .../internal/version.Version=...".
var Version = "0.9.0"

// APIVersion is the control-plane API version reported by /health.
var APIVersion = "1.0"
