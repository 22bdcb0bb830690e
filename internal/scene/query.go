// SPDX-License-Identifier: MIT

package scene

import (
	"sort"

	"github.com/agentworld/simbridge/internal/cinematic"
)

// ObjectsByType returns elements whose type matches exactly.
func ObjectsByType(st Store, elementType string) ([]Element, error) {
	all, err := st.ListElements()
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0)
	for _, el := range all {
		if el.Type == elementType {
			out = append(out, el)
		}
	}
	return out, nil
}

// ObjectsInBounds returns elements whose position lies inside the inclusive
// axis-aligned box [min, max].
func ObjectsInBounds(st Store, min, max cinematic.Vec3) ([]Element, error) {
	all, err := st.ListElements()
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0)
	for _, el := range all {
		inside := true
		for i := 0; i < 3; i++ {
			if el.Position[i] < min[i] || el.Position[i] > max[i] {
				inside = false
				break
			}
		}
		if inside {
			out = append(out, el)
		}
	}
	return out, nil
}

// NearbyElement pairs an element with its distance from the query point.
type NearbyElement struct {
	Element  Element `json:"element"`
	Distance float64 `json:"distance"`
}

// ObjectsNearPoint returns elements within radius of point, nearest first.
func ObjectsNearPoint(st Store, point cinematic.Vec3, radius float64) ([]NearbyElement, error) {
	all, err := st.ListElements()
	if err != nil {
		return nil, err
	}
	out := make([]NearbyElement, 0)
	for _, el := range all {
		d := cinematic.Distance(el.Position, point)
		if d <= radius {
			out = append(out, NearbyElement{Element: el, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}
