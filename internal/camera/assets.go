// SPDX-License-Identifier: MIT

package camera

import (
	"fmt"
	"time"

	"github.com/agentworld/simbridge/internal/cache"
	"github.com/agentworld/simbridge/internal/cinematic"
	"github.com/agentworld/simbridge/internal/scene"
)

// transformTTL bounds how stale a cached transform may get while a scene is
// being edited.
const transformTTL = 5 * time.Second

// SceneAssets resolves object transforms from the scene store, with a cache
// in front so repeated orbit/framing lookups skip the store.
type SceneAssets struct {
	store scene.Store
	cache cache.Cache
}

func NewSceneAssets(store scene.Store, c cache.Cache) *SceneAssets {
	return &SceneAssets{store: store, cache: c}
}

// ObjectTransform finds an element by name or stage path and derives its
// bounding center and size.
func (a *SceneAssets) ObjectTransform(name string) (ObjectTransform, error) {
	key := "transform:" + name
	if a.cache != nil {
		if v, ok := a.cache.Get(key); ok {
			if tf, ok := decodeTransform(v); ok {
				return tf, nil
			}
		}
	}

	el, err := a.lookup(name)
	if err != nil {
		return ObjectTransform{}, err
	}

	tf := ObjectTransform{
		Center: el.Position,
		Size:   elementSize(el),
	}
	if a.cache != nil {
		a.cache.Set(key, encodeTransform(tf), transformTTL)
	}
	return tf, nil
}

func (a *SceneAssets) lookup(name string) (scene.Element, error) {
	if el, err := a.store.GetElementByPath(name); err == nil {
		return el, nil
	}
	if el, err := a.store.GetElement(name); err == nil {
		return el, nil
	}
	all, err := a.store.ListElements()
	if err != nil {
		return scene.Element{}, err
	}
	for _, el := range all {
		if el.Name == name {
			return el, nil
		}
	}
	return scene.Element{}, fmt.Errorf("object %q: %w", name, scene.ErrElementNotFound)
}

func elementSize(el scene.Element) cinematic.Vec3 {
	size := cinematic.Vec3{1, 1, 1}
	for i := 0; i < 3; i++ {
		if el.Scale[i] > 0 {
			size[i] = el.Scale[i]
		}
	}
	return size
}

// Cache values round-trip through JSON in the redis backend, so transforms
// are stored as plain maps.
func encodeTransform(tf ObjectTransform) map[string]any {
	return map[string]any{
		"center": []float64{tf.Center[0], tf.Center[1], tf.Center[2]},
		"size":   []float64{tf.Size[0], tf.Size[1], tf.Size[2]},
	}
}

func decodeTransform(v any) (ObjectTransform, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return ObjectTransform{}, false
	}
	center, ok1 := decodeVec(m["center"])
	size, ok2 := decodeVec(m["size"])
	if !ok1 || !ok2 {
		return ObjectTransform{}, false
	}
	return ObjectTransform{Center: center, Size: size}, true
}

func decodeVec(v any) (cinematic.Vec3, bool) {
	switch arr := v.(type) {
	case []float64:
		if len(arr) == 3 {
			return cinematic.Vec3{arr[0], arr[1], arr[2]}, true
		}
	case []any:
		if len(arr) == 3 {
			var out cinematic.Vec3
			for i, e := range arr {
				f, ok := e.(float64)
				if !ok {
					return cinematic.Vec3{}, false
				}
				out[i] = f
			}
			return out, true
		}
	}
	return cinematic.Vec3{}, false
}
