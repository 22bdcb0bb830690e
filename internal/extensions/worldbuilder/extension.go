// SPDX-License-Identifier: MIT

// Package worldbuilder exposes scene construction over HTTP: element and
// batch management, spatial queries and transform utilities.
package worldbuilder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentworld/simbridge/internal/api"
	"github.com/agentworld/simbridge/internal/cinematic"
	"github.com/agentworld/simbridge/internal/config"
	"github.com/agentworld/simbridge/internal/dispatch"
	"github.com/agentworld/simbridge/internal/metrics"
	"github.com/agentworld/simbridge/internal/scene"
	"github.com/agentworld/simbridge/internal/tracker"
)

// DefaultDispatchTimeout bounds how long a worker waits for the main thread.
const DefaultDispatchTimeout = 5 * time.Second

// defaultStagePath roots generated element paths.
const defaultStagePath = "/World"

// Extension implements api.Extension for the scene builder.
type Extension struct {
	id      config.Identity
	store   scene.Store
	queue   *dispatch.Queue
	tracker *tracker.Tracker
	reg     *metrics.Registry
	timeout time.Duration
}

// Options are the collaborators the extension needs.
type Options struct {
	Identity        config.Identity
	Store           scene.Store
	Queue           *dispatch.Queue
	Tracker         *tracker.Tracker
	Metrics         *metrics.Registry
	DispatchTimeout time.Duration
}

func New(opts Options) *Extension {
	timeout := opts.DispatchTimeout
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Extension{
		id:      opts.Identity,
		store:   opts.Store,
		queue:   opts.Queue,
		tracker: opts.Tracker,
		reg:     opts.Metrics,
		timeout: timeout,
	}
}

func (e *Extension) Identity() config.Identity { return e.id }

// HealthExtras reports the element count alongside the standard fields.
func (e *Extension) HealthExtras() map[string]any {
	count, err := e.store.Count()
	if err != nil {
		return map[string]any{"scene_elements": "unavailable"}
	}
	return map[string]any{"scene_elements": count}
}

func (e *Extension) Routes() api.RouteTable {
	return api.RouteTable{
		"/add_element":                 {Method: "POST", Handler: e.handleAddElement, Summary: "Create one scene element"},
		"/create_batch":                {Method: "POST", Handler: e.handleCreateBatch, Summary: "Create a batch of elements"},
		"/remove_element":              {Method: "POST", Handler: e.handleRemoveElement, Summary: "Remove an element"},
		"/clear_path":                  {Method: "POST", Handler: e.handleClearPath, Summary: "Remove everything under a stage path"},
		"/get_scene":                   {Method: "GET", Handler: e.handleGetScene, Summary: "Full scene dump"},
		"/scene_status":                {Method: "GET", Handler: e.handleSceneStatus, Summary: "Scene summary"},
		"/list_elements":               {Method: "GET", Handler: e.handleListElements, Summary: "List element ids and types"},
		"/place_asset":                 {Method: "POST", Handler: e.handlePlaceAsset, Summary: "Reference an asset file into the scene"},
		"/transform_asset":             {Method: "POST", Handler: e.handleTransformAsset, Summary: "Move, rotate or scale an element"},
		"/batch_info":                  {Method: "GET", Handler: e.handleBatchInfo, Summary: "Batch contents"},
		"/clear_batch":                 {Method: "POST", Handler: e.handleClearBatch, Summary: "Remove a batch and its elements"},
		"/request_status":              {Method: "GET", Handler: e.handleRequestStatus, Summary: "Fire-and-forget request status"},
		"/query/objects_by_type":       {Method: "GET", Handler: e.handleQueryByType, Summary: "Elements matching a type"},
		"/query/objects_in_bounds":     {Method: "GET", Handler: e.handleQueryInBounds, Summary: "Elements inside an AABB"},
		"/query/objects_near_point":    {Method: "GET", Handler: e.handleQueryNearPoint, Summary: "Elements within a radius"},
		"/transform/calculate_bounds":  {Method: "POST", Handler: e.handleCalculateBounds, Summary: "AABB of a set of elements"},
		"/transform/find_ground_level": {Method: "POST", Handler: e.handleFindGroundLevel, Summary: "Lowest element bottom"},
		"/transform/align_objects":     {Method: "POST", Handler: e.handleAlignObjects, Summary: "Align elements on an axis"},
	}
}

// decodeElement builds an Element from request data. Only element_type is
// mandatory; everything else has stage defaults.
func (e *Extension) decodeElement(data map[string]any) (scene.Element, error) {
	elType, err := api.RequireString(data, "element_type")
	if err != nil {
		return scene.Element{}, err
	}

	el := scene.Element{
		ID:        uuid.NewString(),
		Type:      elType,
		Scale:     cinematic.Vec3{1, 1, 1},
		CreatedAt: time.Now(),
	}
	el.Name = api.StringParam(data, "name", elType+"_"+el.ID[:8])
	el.Path = api.StringParam(data, "path", fmt.Sprintf("%s/%s", defaultStagePath, el.Name))

	if p, err := api.Vec3Param(data, "position"); err != nil {
		return scene.Element{}, err
	} else if p != nil {
		el.Position = cinematic.Vec3(*p)
	}
	if p, err := api.Vec3Param(data, "rotation"); err != nil {
		return scene.Element{}, err
	} else if p != nil {
		el.Rotation = cinematic.Vec3(*p)
	}
	if p, err := api.Vec3Param(data, "scale"); err != nil {
		return scene.Element{}, err
	} else if p != nil {
		el.Scale = cinematic.Vec3(*p)
	}
	if p, err := api.Vec3Param(data, "color"); err != nil {
		return scene.Element{}, err
	} else if p != nil {
		el.Color = []float64{p[0], p[1], p[2]}
	}
	return el, nil
}

func (e *Extension) handleAddElement(_ context.Context, req *api.Request) (map[string]any, error) {
	el, err := e.decodeElement(req.Data)
	if err != nil {
		return nil, err
	}

	_, err = e.queue.RunOnMain(func() (any, error) {
		return nil, e.store.AddElement(el)
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	e.reg.IncrementEvent("elements_created")
	return map[string]any{
		"element_id":   el.ID,
		"element_type": el.Type,
		"name":         el.Name,
		"path":         el.Path,
	}, nil
}

func (e *Extension) handleCreateBatch(_ context.Context, req *api.Request) (map[string]any, error) {
	rawList, ok := req.Data["elements"].([]any)
	if !ok || len(rawList) == 0 {
		return nil, api.Validationf("elements", "elements must be a non-empty array")
	}

	batch := scene.Batch{
		ID:        uuid.NewString(),
		Name:      api.StringParam(req.Data, "batch_name", ""),
		CreatedAt: time.Now(),
	}
	elements := make([]scene.Element, 0, len(rawList))
	for i, raw := range rawList {
		data, ok := raw.(map[string]any)
		if !ok {
			return nil, api.Validationf("elements", "elements[%d] must be an object", i)
		}
		el, err := e.decodeElement(data)
		if err != nil {
			return nil, err
		}
		el.BatchID = batch.ID
		elements = append(elements, el)
		batch.Elements = append(batch.Elements, el.ID)
	}

	requestID := uuid.NewString()
	e.tracker.Add(requestID, "create_batch", map[string]any{"batch_id": batch.ID})

	_, err := e.queue.RunOnMain(func() (any, error) {
		for _, el := range elements {
			if err := e.store.AddElement(el); err != nil {
				return nil, err
			}
		}
		return nil, e.store.AddBatch(batch)
	}, e.timeout)
	e.tracker.MarkCompleted(requestID, map[string]any{"created": len(elements)}, err)
	if err != nil {
		return nil, err
	}

	e.reg.AddEvent("elements_created", float64(len(elements)))
	e.reg.IncrementEvent("batches_created")
	return map[string]any{
		"batch_id":    batch.ID,
		"request_id":  requestID,
		"element_ids": batch.Elements,
		"created":     len(elements),
	}, nil
}

func (e *Extension) handleRemoveElement(_ context.Context, req *api.Request) (map[string]any, error) {
	id, err := api.RequireString(req.Data, "element_id")
	if err != nil {
		return nil, err
	}
	_, err = e.queue.RunOnMain(func() (any, error) {
		return nil, e.store.RemoveElement(id)
	}, e.timeout)
	if err != nil {
		return nil, e.mapStoreErr(err)
	}
	e.reg.IncrementEvent("elements_removed")
	return map[string]any{"element_id": id, "removed": true}, nil
}

func (e *Extension) handleClearPath(_ context.Context, req *api.Request) (map[string]any, error) {
	path, err := api.RequireString(req.Data, "path")
	if err != nil {
		return nil, err
	}
	value, err := e.queue.RunOnMain(func() (any, error) {
		return e.store.RemoveByPathPrefix(path)
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	removed := value.(int)
	e.reg.AddEvent("elements_removed", float64(removed))
	return map[string]any{"path": path, "removed": removed}, nil
}

func (e *Extension) handleGetScene(_ context.Context, _ *api.Request) (map[string]any, error) {
	elements, err := e.store.ListElements()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"elements": elements,
		"count":    len(elements),
	}, nil
}

func (e *Extension) handleSceneStatus(_ context.Context, _ *api.Request) (map[string]any, error) {
	elements, err := e.store.ListElements()
	if err != nil {
		return nil, err
	}
	byType := map[string]int{}
	for _, el := range elements {
		byType[el.Type]++
	}
	out := map[string]any{
		"element_count": len(elements),
		"by_type":       byType,
	}
	if len(elements) > 0 {
		if bounds, err := scene.CalculateBounds(elements); err == nil {
			out["bounds"] = bounds
		}
	}
	return out, nil
}

func (e *Extension) handleListElements(_ context.Context, _ *api.Request) (map[string]any, error) {
	elements, err := e.store.ListElements()
	if err != nil {
		return nil, err
	}
	list := make([]map[string]any, 0, len(elements))
	for _, el := range elements {
		list = append(list, map[string]any{
			"element_id":   el.ID,
			"element_type": el.Type,
			"name":         el.Name,
			"path":         el.Path,
			"position":     el.Position,
		})
	}
	return map[string]any{"elements": list, "count": len(list)}, nil
}

func (e *Extension) handlePlaceAsset(_ context.Context, req *api.Request) (map[string]any, error) {
	assetPath, err := api.RequireString(req.Data, "asset_path")
	if err != nil {
		return nil, err
	}
	data := req.Data
	if _, ok := data["element_type"]; !ok {
		data["element_type"] = "asset"
	}
	el, err := e.decodeElement(data)
	if err != nil {
		return nil, err
	}
	el.AssetPath = assetPath

	_, err = e.queue.RunOnMain(func() (any, error) {
		return nil, e.store.AddElement(el)
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	e.reg.IncrementEvent("assets_placed")
	return map[string]any{
		"element_id": el.ID,
		"asset_path": assetPath,
		"path":       el.Path,
	}, nil
}

func (e *Extension) handleTransformAsset(_ context.Context, req *api.Request) (map[string]any, error) {
	id, err := api.RequireString(req.Data, "element_id")
	if err != nil {
		return nil, err
	}
	position, err := api.Vec3Param(req.Data, "position")
	if err != nil {
		return nil, err
	}
	rotation, err := api.Vec3Param(req.Data, "rotation")
	if err != nil {
		return nil, err
	}
	scaleP, err := api.Vec3Param(req.Data, "scale")
	if err != nil {
		return nil, err
	}
	if position == nil && rotation == nil && scaleP == nil {
		return nil, api.Validationf("position", "at least one of position, rotation, scale is required")
	}

	value, err := e.queue.RunOnMain(func() (any, error) {
		el, err := e.store.GetElement(id)
		if err != nil {
			return nil, err
		}
		if position != nil {
			el.Position = cinematic.Vec3(*position)
		}
		if rotation != nil {
			el.Rotation = cinematic.Vec3(*rotation)
		}
		if scaleP != nil {
			el.Scale = cinematic.Vec3(*scaleP)
		}
		return el, e.store.UpdateElement(el)
	}, e.timeout)
	if err != nil {
		return nil, e.mapStoreErr(err)
	}
	el := value.(scene.Element)
	e.reg.IncrementEvent("elements_transformed")
	return map[string]any{
		"element_id": el.ID,
		"position":   el.Position,
		"rotation":   el.Rotation,
		"scale":      el.Scale,
	}, nil
}

func (e *Extension) handleBatchInfo(_ context.Context, req *api.Request) (map[string]any, error) {
	id, err := api.RequireString(req.Data, "batch_id")
	if err != nil {
		return nil, err
	}
	batch, err := e.store.GetBatch(id)
	if err != nil {
		return nil, e.mapStoreErr(err)
	}
	return map[string]any{
		"batch_id":    batch.ID,
		"name":        batch.Name,
		"element_ids": batch.Elements,
		"created_at":  batch.CreatedAt,
	}, nil
}

func (e *Extension) handleClearBatch(_ context.Context, req *api.Request) (map[string]any, error) {
	id, err := api.RequireString(req.Data, "batch_id")
	if err != nil {
		return nil, err
	}
	value, err := e.queue.RunOnMain(func() (any, error) {
		return e.store.RemoveBatch(id)
	}, e.timeout)
	if err != nil {
		return nil, e.mapStoreErr(err)
	}
	removed := value.(int)
	e.reg.AddEvent("elements_removed", float64(removed))
	return map[string]any{"batch_id": id, "removed": removed}, nil
}

func (e *Extension) handleRequestStatus(_ context.Context, req *api.Request) (map[string]any, error) {
	id, err := api.RequireString(req.Data, "request_id")
	if err != nil {
		return nil, err
	}
	rec, err := e.tracker.Get(id)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"request_id": rec.RequestID,
		"operation":  rec.Operation,
		"completed":  rec.Completed,
		"created_at": rec.CreatedAt,
	}
	if rec.Completed {
		out["completed_at"] = rec.CompletedAt
		if rec.Error != "" {
			out["error"] = rec.Error
		}
		if rec.Result != nil {
			out["result"] = rec.Result
		}
	}
	return out, nil
}

func (e *Extension) handleQueryByType(_ context.Context, req *api.Request) (map[string]any, error) {
	elType, err := api.RequireString(req.Data, "element_type")
	if err != nil {
		return nil, err
	}
	elements, err := scene.ObjectsByType(e.store, elType)
	if err != nil {
		return nil, err
	}
	return map[string]any{"elements": elements, "count": len(elements)}, nil
}

func (e *Extension) handleQueryInBounds(_ context.Context, req *api.Request) (map[string]any, error) {
	minP, err := api.RequireVec3(req.Data, "min")
	if err != nil {
		return nil, err
	}
	maxP, err := api.RequireVec3(req.Data, "max")
	if err != nil {
		return nil, err
	}
	elements, err := scene.ObjectsInBounds(e.store, cinematic.Vec3(minP), cinematic.Vec3(maxP))
	if err != nil {
		return nil, err
	}
	return map[string]any{"elements": elements, "count": len(elements)}, nil
}

func (e *Extension) handleQueryNearPoint(_ context.Context, req *api.Request) (map[string]any, error) {
	point, err := api.RequireVec3(req.Data, "point")
	if err != nil {
		return nil, err
	}
	radius, err := api.RequireFloat(req.Data, "radius")
	if err != nil {
		return nil, err
	}
	if radius <= 0 {
		return nil, api.Validationf("radius", "radius must be positive")
	}
	nearby, err := scene.ObjectsNearPoint(e.store, cinematic.Vec3(point), radius)
	if err != nil {
		return nil, err
	}
	return map[string]any{"elements": nearby, "count": len(nearby)}, nil
}

// resolveElements maps optional element_ids to elements, defaulting to the
// whole scene.
func (e *Extension) resolveElements(data map[string]any) ([]scene.Element, error) {
	raw, ok := data["element_ids"].([]any)
	if !ok || len(raw) == 0 {
		return e.store.ListElements()
	}
	out := make([]scene.Element, 0, len(raw))
	for i, r := range raw {
		id, ok := r.(string)
		if !ok {
			return nil, api.Validationf("element_ids", "element_ids[%d] must be a string", i)
		}
		el, err := e.store.GetElement(id)
		if err != nil {
			return nil, e.mapStoreErr(err)
		}
		out = append(out, el)
	}
	return out, nil
}

func (e *Extension) handleCalculateBounds(_ context.Context, req *api.Request) (map[string]any, error) {
	elements, err := e.resolveElements(req.Data)
	if err != nil {
		return nil, err
	}
	bounds, err := scene.CalculateBounds(elements)
	if err != nil {
		return nil, api.Validationf("element_ids", "%s", err.Error())
	}
	return map[string]any{"bounds": bounds, "element_count": len(elements)}, nil
}

func (e *Extension) handleFindGroundLevel(_ context.Context, req *api.Request) (map[string]any, error) {
	elements, err := e.resolveElements(req.Data)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"ground_level":  scene.FindGroundLevel(elements),
		"element_count": len(elements),
	}, nil
}

func (e *Extension) handleAlignObjects(_ context.Context, req *api.Request) (map[string]any, error) {
	axisName, err := api.RequireString(req.Data, "axis")
	if err != nil {
		return nil, err
	}
	axis, err := scene.ParseAxis(axisName)
	if err != nil {
		return nil, api.Validationf("axis", "%s", err.Error())
	}
	elements, err := e.resolveElements(req.Data)
	if err != nil {
		return nil, err
	}

	value, err := e.queue.RunOnMain(func() (any, error) {
		return scene.AlignObjects(e.store, elements, axis)
	}, e.timeout)
	if err != nil {
		return nil, err
	}
	e.reg.IncrementEvent("elements_transformed")
	return map[string]any{
		"axis":          axisName,
		"aligned_value": value.(float64),
		"element_count": len(elements),
	}, nil
}

// mapStoreErr converts store sentinels into envelope error variants.
func (e *Extension) mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, scene.ErrElementNotFound) || errors.Is(err, scene.ErrBatchNotFound) {
		return &api.NotFoundError{Message: err.Error()}
	}
	return err
}
