// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/agentworld/simbridge/internal/cinematic"
	"github.com/agentworld/simbridge/internal/dispatch"
	"github.com/agentworld/simbridge/internal/security"
	"github.com/agentworld/simbridge/internal/tracker"
)

// Stable error codes. Every failure envelope carries one.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeNotFound         = "NOT_FOUND"
	CodeRateLimited      = "RATE_LIMITED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeTimeout          = "TIMEOUT"
	CodeInternal         = "INTERNAL_ERROR"
)

// ValidationError rejects caller-supplied parameters. Maps to 400.
type ValidationError struct {
	Message string
	Details map[string]any
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError naming the offending parameter.
func Validationf(param, format string, args ...any) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
		Details: map[string]any{"parameter": param},
	}
}

// NotFoundError maps to 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// MethodNotAllowedError maps to 405.
type MethodNotAllowedError struct {
	Allowed string
}

func (e *MethodNotAllowedError) Error() string {
	return "method not allowed; use " + e.Allowed
}

// UnavailableError signals a core subsystem is not ready
// (CAMERA_UNAVAILABLE, QUEUE_UNAVAILABLE, ...). Maps to 500.
type UnavailableError struct {
	Code    string
	Message string
}

func (e *UnavailableError) Error() string { return e.Message }

// DomainError is an operation-specific failure with a stable
// <DOMAIN>_FAILED code. Maps to 500.
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
}

func (e *DomainError) Error() string { return e.Message }

// Domainf builds a DomainError with code "<OP>_FAILED".
func Domainf(op, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    strings.ToUpper(op) + "_FAILED",
		Message: fmt.Sprintf(format, args...),
	}
}

// classify maps a handler error to (status, code, message, details).
// Stack detail never leaks into the envelope; unexpected errors surface as a
// generic internal failure.
func classify(op string, err error) (int, string, string, map[string]any) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, CodeValidation, ve.Message, ve.Details
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound, CodeNotFound, nf.Message, nil
	}
	var mna *MethodNotAllowedError
	if errors.As(err, &mna) {
		return http.StatusMethodNotAllowed, CodeMethodNotAllowed, mna.Error(), nil
	}
	var ua *UnavailableError
	if errors.As(err, &ua) {
		return http.StatusInternalServerError, ua.Code, ua.Message, nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return http.StatusInternalServerError, de.Code, de.Message, de.Details
	}
	var pe *cinematic.ParamError
	if errors.As(err, &pe) {
		return http.StatusBadRequest, CodeValidation, pe.Message, map[string]any{"parameter": pe.Param}
	}
	var tre *cinematic.TransitionError
	if errors.As(err, &tre) {
		return http.StatusBadRequest, CodeValidation, tre.Error(), map[string]any{
			"from": string(tre.From), "to": string(tre.To),
		}
	}
	if errors.Is(err, cinematic.ErrQueueFull) || errors.Is(err, cinematic.ErrQueueEmpty) ||
		errors.Is(err, cinematic.ErrMovementActive) {
		return http.StatusBadRequest, CodeValidation, err.Error(), nil
	}
	if errors.Is(err, cinematic.ErrMovementNotFound) {
		return http.StatusNotFound, CodeNotFound, err.Error(), nil
	}
	var te *dispatch.TimeoutError
	if errors.As(err, &te) {
		return http.StatusGatewayTimeout, CodeTimeout, te.Error(), nil
	}
	if errors.Is(err, tracker.ErrNotFound) {
		return http.StatusNotFound, CodeNotFound, err.Error(), nil
	}
	var ae *security.AuthError
	if errors.As(err, &ae) {
		return http.StatusUnauthorized, CodeUnauthorized, ae.Error(), nil
	}
	if errors.Is(err, security.ErrRateLimited) {
		return http.StatusTooManyRequests, CodeRateLimited, err.Error(), nil
	}
	if op == "" {
		return http.StatusInternalServerError, CodeInternal, err.Error(), nil
	}
	return http.StatusInternalServerError, strings.ToUpper(op) + "_FAILED", err.Error(), nil
}
