// SPDX-License-Identifier: MIT

// Package api provides the shared HTTP control-plane runtime reused by every
// extension: router, standard endpoints, security gate, envelope and error
// taxonomy.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/agentworld/simbridge/internal/api/middleware"
	"github.com/agentworld/simbridge/internal/config"
	"github.com/agentworld/simbridge/internal/log"
	"github.com/agentworld/simbridge/internal/metrics"
	"github.com/agentworld/simbridge/internal/security"
)

// Handler processes a decoded request and returns a payload or an error
// variant from errors.go. The router maps variants to status codes.
type Handler func(ctx context.Context, req *Request) (map[string]any, error)

// Request is the decoded incoming request handed to extension handlers.
type Request struct {
	Method string
	Path   string
	Data   map[string]any
	HTTP   *http.Request
}

// Route binds one endpoint to a handler with an enforced method.
type Route struct {
	Method  string
	Handler Handler
	Summary string
}

// RouteTable maps endpoint paths to routes.
type RouteTable map[string]Route

// Extension is the aggregated integration point each hosted extension
// implements. Optional capabilities are separate interfaces, declared
// explicitly rather than probed.
type Extension interface {
	Identity() config.Identity
	Routes() RouteTable
}

// HealthReporter is an optional capability: extensions implementing it
// contribute extra fields to /health.
type HealthReporter interface {
	HealthExtras() map[string]any
}

// Server is the HTTP front-end for one extension.
type Server struct {
	ext     Extension
	id      config.Identity
	sec     *security.Manager
	reg     *metrics.Registry
	httpcfg *config.HTTPConfigHolder
	router  chi.Router
	srv     *http.Server
}

// Options configures a Server beyond its collaborators.
type Options struct {
	Stack middleware.StackConfig
}

// NewServer wires the extension's routes plus the standard endpoints behind
// the canonical middleware stack and the security gate.
func NewServer(ext Extension, sec *security.Manager, reg *metrics.Registry,
	httpcfg *config.HTTPConfigHolder, opts Options) *Server {

	s := &Server{
		ext:     ext,
		id:      ext.Identity(),
		sec:     sec,
		reg:     reg,
		httpcfg: httpcfg,
	}

	stack := opts.Stack
	stack.HTTPConfig = httpcfg
	r := middleware.NewRouter(stack)

	for path, rt := range s.standardRoutes() {
		r.HandleFunc(path, s.handle(path, rt))
	}
	for path, rt := range ext.Routes() {
		r.HandleFunc(path, s.handle(path, rt))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		s.writeError(w, http.StatusNotFound, CodeNotFound, "unknown endpoint", map[string]any{
			"path": req.URL.Path,
		})
	})

	s.router = r
	return s
}

// Router exposes the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// handle adapts a Route into an http.HandlerFunc: metrics, security gate,
// method enforcement, decoding, dispatch and envelope rendering.
func (s *Server) handle(endpoint string, rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.reg.IncrementRequests()
		s.reg.IncrementEndpoint(endpoint)
		defer func() {
			s.reg.ObserveDuration(time.Since(start))
		}()

		if !s.gate(w, r) {
			return
		}

		if r.Method != rt.Method {
			s.reg.IncrementErrors()
			s.writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed,
				fmt.Sprintf("method not allowed; use %s", rt.Method), nil)
			return
		}

		data, err := decodeRequest(r)
		if err != nil {
			s.reg.IncrementErrors()
			status, code, msg, details := classify("", err)
			s.writeError(w, status, code, msg, details)
			return
		}

		payload, err := rt.Handler(r.Context(), &Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Data:   data,
			HTTP:   r,
		})
		if err != nil {
			s.reg.IncrementErrors()
			status, code, msg, details := classify(operationName(endpoint), err)
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Warn().
				Str(log.FieldExtension, s.id.Name).
				Str(log.FieldPath, endpoint).
				Str("error_code", code).
				Err(err).
				Msg("handler error")
			s.writeError(w, status, code, msg, details)
			return
		}

		s.writeSuccess(w, payload)
	}
}

// gate runs the combined security validation. Returns false when the request
// was rejected and a response already written. Rate-limit rejections never
// consume auth slots; each failure increments its counter exactly once.
func (s *Server) gate(w http.ResponseWriter, r *http.Request) bool {
	err := s.sec.Validate(r, clientIP(r))
	if err == nil {
		return true
	}

	msgs := s.httpcfg.Current().ErrorMessages
	if errors.Is(err, security.ErrRateLimited) {
		s.reg.IncrementRateLimited()
		s.reg.IncrementErrors()
		s.writeError(w, http.StatusTooManyRequests, CodeRateLimited,
			msgs["rate_limited"], nil)
		return false
	}

	var ae *security.AuthError
	if errors.As(err, &ae) {
		s.reg.IncrementAuthFailures()
		s.reg.IncrementErrors()
		w.Header().Set("WWW-Authenticate", s.sec.Realm())
		s.writeError(w, http.StatusUnauthorized, CodeUnauthorized, ae.Error(), nil)
		return false
	}

	s.reg.IncrementErrors()
	s.writeError(w, http.StatusInternalServerError, CodeInternal, "security gate failure", nil)
	return false
}

// Run serves the extension API until ctx is cancelled, then shuts down
// gracefully. The handler chain is wrapped with otelhttp for span propagation.
func (s *Server) Run(ctx context.Context) error {
	logger := log.WithComponent("api")

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.id.Port),
		Handler:           otelhttp.NewHandler(s.router, s.id.Name),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	s.reg.MarkStarted()
	logger.Info().
		Str(log.FieldExtension, s.id.Name).
		Int("port", s.id.Port).
		Str(log.FieldEvent, "server.started").
		Msg("extension API listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.srv.Shutdown(shutdownCtx)
		s.reg.MarkStopped()
		logger.Info().Str(log.FieldExtension, s.id.Name).
			Str(log.FieldEvent, "server.stopped").Msg("extension API stopped")
		return err
	case err := <-errCh:
		s.reg.MarkStopped()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// operationName derives the <OP> used in <OP>_FAILED codes from an endpoint
// path: "/camera/smooth_move" -> "SMOOTH_MOVE".
func operationName(endpoint string) string {
	op := endpoint
	if idx := strings.LastIndexByte(op, '/'); idx >= 0 {
		op = op[idx+1:]
	}
	if op == "" {
		return "REQUEST"
	}
	out := make([]byte, 0, len(op))
	for i := 0; i < len(op); i++ {
		c := op[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		case c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
