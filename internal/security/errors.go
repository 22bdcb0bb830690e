// SPDX-License-Identifier: MIT

package security

import "errors"

// ErrRateLimited is returned by Validate when the sliding window is full.
var ErrRateLimited = errors.New("rate limit exceeded")

// Auth failure reasons. The HTTP layer maps these to caller-facing messages.
const (
	ReasonMissingCredentials = "missing_credentials"
	ReasonInvalidHMAC        = "invalid_hmac"
	ReasonInvalidBearer      = "invalid_bearer"
	ReasonBearerDisabled     = "bearer_disabled"
	ReasonTimestampSkew      = "timestamp_skew"
)

// AuthError describes why authentication failed.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	switch e.Reason {
	case ReasonMissingCredentials:
		return "authentication required: provide X-Timestamp/X-Signature or a Bearer token"
	case ReasonInvalidHMAC:
		return "invalid HMAC signature"
	case ReasonInvalidBearer:
		return "invalid bearer token"
	case ReasonBearerDisabled:
		return "bearer authentication is not enabled for this extension"
	case ReasonTimestampSkew:
		return "request timestamp outside the allowed clock skew"
	default:
		return "authentication failed"
	}
}
