// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"strconv"
)

// Param helpers convert loosely-typed handler data (JSON numbers, query
// strings) into validated Go values. They return ValidationError on bad input
// so handlers can bubble errors straight into the envelope.

// StringParam extracts an optional string parameter.
func StringParam(data map[string]any, key, fallback string) string {
	if v, ok := data[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// RequireString extracts a mandatory string parameter.
func RequireString(data map[string]any, key string) (string, error) {
	v, ok := data[key].(string)
	if !ok || v == "" {
		return "", Validationf(key, "%s is required", key)
	}
	return v, nil
}

// FloatParam extracts an optional float, accepting JSON numbers and numeric
// strings (query parameters arrive as strings).
func FloatParam(data map[string]any, key string, fallback float64) (float64, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return fallback, nil
	}
	return toFloat(key, v)
}

// RequireFloat extracts a mandatory float parameter.
func RequireFloat(data map[string]any, key string) (float64, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return 0, Validationf(key, "%s is required", key)
	}
	return toFloat(key, v)
}

// BoolParam extracts an optional boolean, accepting bools and "true"/"false".
func BoolParam(data map[string]any, key string, fallback bool) bool {
	switch v := data[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// Vec3Param extracts an optional [3]float64 from a JSON array.
func Vec3Param(data map[string]any, key string) (*[3]float64, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return nil, Validationf(key, "%s must be an array of 3 numbers", key)
	}
	var out [3]float64
	for i, elem := range arr {
		f, err := toFloat(key, elem)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return &out, nil
}

// RequireVec3 extracts a mandatory [3]float64.
func RequireVec3(data map[string]any, key string) ([3]float64, error) {
	p, err := Vec3Param(data, key)
	if err != nil {
		return [3]float64{}, err
	}
	if p == nil {
		return [3]float64{}, Validationf(key, "%s is required", key)
	}
	return *p, nil
}

func toFloat(key string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, Validationf(key, "%s must be a number", key)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, Validationf(key, "%s must be a number", key)
		}
		return f, nil
	default:
		return 0, Validationf(key, "%s must be a number", key)
	}
}
