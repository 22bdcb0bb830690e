// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"io"
	"net/http"
)

// maxBodyBytes bounds POST bodies; control-plane payloads are small.
const maxBodyBytes = 1 << 20

// decodeRequest produces the handler data map: query parameters for GET
// (singleton lists collapse to scalars), JSON object body for POST.
func decodeRequest(r *http.Request) (map[string]any, error) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		data := make(map[string]any)
		for key, values := range r.URL.Query() {
			if len(values) == 1 {
				data[key] = values[0]
			} else {
				asAny := make([]any, len(values))
				for i, v := range values {
					asAny[i] = v
				}
				data[key] = asAny
			}
		}
		return data, nil
	default:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, &ValidationError{Message: "unable to read request body"}
		}
		if len(body) == 0 {
			return map[string]any{}, nil
		}
		var data map[string]any
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, &ValidationError{Message: "Invalid JSON"}
		}
		return data, nil
	}
}
