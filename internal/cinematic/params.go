// SPDX-License-Identifier: MIT

package cinematic

import (
	"fmt"
	"strconv"
)

// ParamError rejects invalid shot parameters. The HTTP layer maps it to a
// 400 validation failure naming the parameter.
type ParamError struct {
	Param   string
	Message string
}

func (e *ParamError) Error() string { return e.Message }

func paramErrorf(param, format string, args ...any) *ParamError {
	return &ParamError{Param: param, Message: fmt.Sprintf(format, args...)}
}

// Shared validation helpers used by every generator.

func vec3Param(params map[string]any, key string) (*Vec3, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		if typed, ok := v.(Vec3); ok {
			out := typed
			return &out, nil
		}
		if typed, ok := v.([]float64); ok && len(typed) == 3 {
			out := Vec3{typed[0], typed[1], typed[2]}
			return &out, nil
		}
		return nil, paramErrorf(key, "%s must be an array of 3 numbers", key)
	}
	if len(arr) != 3 {
		return nil, paramErrorf(key, "%s must be an array of 3 numbers", key)
	}
	var out Vec3
	for i, elem := range arr {
		f, err := numeric(key, elem)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return &out, nil
}

func requireVec3(params map[string]any, key string) (Vec3, error) {
	p, err := vec3Param(params, key)
	if err != nil {
		return Vec3{}, err
	}
	if p == nil {
		return Vec3{}, paramErrorf(key, "%s is required", key)
	}
	return *p, nil
}

func floatParam(params map[string]any, key string, fallback float64) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return fallback, nil
	}
	return numeric(key, v)
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func numeric(key string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, paramErrorf(key, "%s must be a number", key)
		}
		return f, nil
	default:
		return 0, paramErrorf(key, "%s must be a number", key)
	}
}

// resolveFPS validates the target frame rate: fps in (0, 120], default 30.
func resolveFPS(params map[string]any) (float64, error) {
	fps, err := floatParam(params, "fps", DefaultFPS)
	if err != nil {
		return 0, err
	}
	if fps <= 0 || fps > 120 {
		return 0, paramErrorf("fps", "fps must be in (0, 120]")
	}
	return fps, nil
}

// positiveDuration validates an explicitly supplied duration.
func positiveDuration(d float64) error {
	if d <= 0 {
		return paramErrorf("duration", "duration must be positive")
	}
	return nil
}
