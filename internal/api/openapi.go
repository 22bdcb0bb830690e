// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// openAPIDocument builds the extension's OpenAPI 3 document from its route
// table plus the standard endpoints, and flattens it to a JSON object.
func (s *Server) openAPIDocument() (map[string]any, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       s.id.ServiceName,
			Version:     s.id.Version,
			Description: fmt.Sprintf("HTTP control plane for the %s extension", s.id.Name),
		},
		Servers: openapi3.Servers{
			{URL: fmt.Sprintf("http://localhost:%d", s.id.Port)},
		},
		Paths: openapi3.NewPaths(),
	}

	add := func(path string, rt Route) {
		op := &openapi3.Operation{
			Summary:     rt.Summary,
			OperationID: s.id.Name + "_" + operationName(path),
			Responses:   openapi3.NewResponses(),
		}
		item := &openapi3.PathItem{}
		switch rt.Method {
		case http.MethodPost:
			item.Post = op
		default:
			item.Get = op
		}
		doc.Paths.Set(path, item)
	}

	// Deterministic path order keeps the document diffable.
	paths := make([]string, 0)
	standard := s.standardRoutes()
	ext := s.ext.Routes()
	for p := range standard {
		paths = append(paths, p)
	}
	for p := range ext {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if rt, ok := ext[p]; ok {
			add(p, rt)
			continue
		}
		add(p, standard[p])
	}

	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
