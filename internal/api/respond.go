// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/agentworld/simbridge/internal/log"
)

// Reserved payload fields. A handler returning RawTextField opts out of JSON
// encoding: the body is the raw string, with RawContentTypeField (or the
// configured default) as content type.
const (
	RawTextField        = "_raw_text"
	RawContentTypeField = "_content_type"
)

// writeSuccess renders `{ "success": true, ...payload }`, honouring the
// raw-text escape hatch.
func (s *Server) writeSuccess(w http.ResponseWriter, payload map[string]any) {
	if raw, ok := payload[RawTextField].(string); ok {
		contentType := s.httpcfg.Current().Response.DefaultRawType
		if ct, ok := payload[RawContentTypeField].(string); ok && ct != "" {
			contentType = ct
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(raw))
		return
	}

	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	s.writeJSON(w, http.StatusOK, body)
}

// writeError renders the failure envelope with a stable code.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	body := map[string]any{
		"success":    false,
		"error_code": code,
		"error":      message,
		"timestamp":  float64(time.Now().UnixMilli()) / 1000.0,
	}
	if len(details) > 0 {
		body["details"] = details
	}
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	if indent := s.httpcfg.Current().Response.Indent; indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		// Headers already sent; log so a truncated body is traceable.
		logger := log.WithComponent("api")
		logger.Error().Err(err).Int("status", status).
			Msg("failed to encode JSON response")
	}
}
