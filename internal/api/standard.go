// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"time"
)

// standardRoutes are the endpoints every extension exposes identically.
func (s *Server) standardRoutes() RouteTable {
	return RouteTable{
		"/health": {Method: http.MethodGet, Handler: s.handleHealth,
			Summary: "Service health and identity"},
		"/metrics": {Method: http.MethodGet, Handler: s.handleMetricsJSON,
			Summary: "Metrics snapshot (JSON)"},
		"/metrics.json": {Method: http.MethodGet, Handler: s.handleMetricsJSON,
			Summary: "Metrics snapshot (JSON)"},
		"/metrics.prom": {Method: http.MethodGet, Handler: s.handleMetricsProm,
			Summary: "Metrics in Prometheus text-exposition format"},
		"/docs": {Method: http.MethodGet, Handler: s.handleDocs,
			Summary: "OpenAPI document"},
		"/openapi.json": {Method: http.MethodGet, Handler: s.handleDocs,
			Summary: "OpenAPI document"},
		"/status": {Method: http.MethodGet, Handler: s.handleStatus,
			Summary: "Liveness probe"},
		"/ping": {Method: http.MethodGet, Handler: s.handleStatus,
			Summary: "Liveness probe"},
	}
}

func (s *Server) handleHealth(_ context.Context, _ *Request) (map[string]any, error) {
	payload := map[string]any{
		"service":     s.id.ServiceName,
		"extension":   s.id.Name,
		"version":     s.id.Version,
		"api_version": s.id.APIVersion,
		"port":        s.id.Port,
		"timestamp":   float64(time.Now().UnixMilli()) / 1000.0,
	}
	if hr, ok := s.ext.(HealthReporter); ok {
		for k, v := range hr.HealthExtras() {
			payload[k] = v
		}
	}
	return payload, nil
}

func (s *Server) handleMetricsJSON(_ context.Context, _ *Request) (map[string]any, error) {
	return s.reg.Snapshot(), nil
}

func (s *Server) handleMetricsProm(_ context.Context, _ *Request) (map[string]any, error) {
	text, err := s.reg.TextExposition()
	if err != nil {
		return nil, &DomainError{Code: "METRICS_FAILED", Message: err.Error()}
	}
	return map[string]any{
		RawTextField:        text,
		RawContentTypeField: "text/plain; version=0.0.4",
	}, nil
}

// handleDocs serves the OpenAPI document. The payload is inspected after
// handler execution: a document without an "openapi" field is a 500.
func (s *Server) handleDocs(_ context.Context, _ *Request) (map[string]any, error) {
	doc, err := s.openAPIDocument()
	if err != nil {
		return nil, &DomainError{Code: "DOCS_FAILED", Message: err.Error()}
	}
	if _, ok := doc["openapi"]; !ok {
		return nil, &DomainError{Code: "DOCS_FAILED", Message: "generated document is not an OpenAPI spec"}
	}
	return doc, nil
}

func (s *Server) handleStatus(_ context.Context, _ *Request) (map[string]any, error) {
	return map[string]any{
		"status":    "running",
		"extension": s.id.Name,
		"timestamp": float64(time.Now().UnixMilli()) / 1000.0,
	}, nil
}
