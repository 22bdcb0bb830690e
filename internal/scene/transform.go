// SPDX-License-Identifier: MIT

package scene

import (
	"fmt"
	"math"

	"github.com/agentworld/simbridge/internal/cinematic"
)

// defaultElementExtent approximates the half-size of an unscaled element when
// computing bounds from positions alone.
const defaultElementExtent = 0.5

func scaleOrOne(s float64) float64 {
	if s <= 0 {
		return 1
	}
	return s
}

// CalculateBounds returns the axis-aligned box around the given elements,
// padding each position by its scaled extent.
func CalculateBounds(elements []Element) (Bounds, error) {
	if len(elements) == 0 {
		return Bounds{}, fmt.Errorf("no elements to bound")
	}
	min := cinematic.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := cinematic.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, el := range elements {
		for i := 0; i < 3; i++ {
			extent := defaultElementExtent * scaleOrOne(el.Scale[i])
			if v := el.Position[i] - extent; v < min[i] {
				min[i] = v
			}
			if v := el.Position[i] + extent; v > max[i] {
				max[i] = v
			}
		}
	}
	return Bounds{
		Min:    min,
		Max:    max,
		Center: cinematic.Midpoint(min, max),
		Size:   max.Sub(min),
	}, nil
}

// FindGroundLevel returns the lowest element bottom over the elements, or 0
// when the scene is empty.
func FindGroundLevel(elements []Element) float64 {
	ground := math.Inf(1)
	for _, el := range elements {
		bottom := el.Position[2] - defaultElementExtent*scaleOrOne(el.Scale[2])
		if bottom < ground {
			ground = bottom
		}
	}
	if math.IsInf(ground, 1) {
		return 0
	}
	return ground
}

// Axis selects an alignment axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ParseAxis accepts "x", "y" or "z".
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// AlignObjects sets every element's coordinate on the axis to the group mean
// and writes the updates back to the store. Returns the aligned value.
func AlignObjects(st Store, elements []Element, axis Axis) (float64, error) {
	if len(elements) == 0 {
		return 0, fmt.Errorf("no elements to align")
	}
	var sum float64
	for _, el := range elements {
		sum += el.Position[axis]
	}
	mean := sum / float64(len(elements))
	for _, el := range elements {
		el.Position[axis] = mean
		if err := st.UpdateElement(el); err != nil {
			return 0, fmt.Errorf("align element %s: %w", el.ID, err)
		}
	}
	return mean, nil
}
