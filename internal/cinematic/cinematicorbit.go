// SPDX-License-Identifier: MIT

package cinematic

import "math"

// generateCinematicOrbit traces the arc-shot Bézier between two positions and
// blends the look-at target toward the scene focus (the average of the
// endpoint targets) around the midpoint of the move.
func generateCinematicOrbit(params map[string]any, fps float64, _ Deps) (Plan, error) {
	start, err := requireVec3(params, "start_position")
	if err != nil {
		return Plan{}, err
	}
	end, err := requireVec3(params, "end_position")
	if err != nil {
		return Plan{}, err
	}
	curvature, err := resolveCurvature(params)
	if err != nil {
		return Plan{}, err
	}
	duration, err := resolveDuration(OpCinematicOrbit, params, start, end)
	if err != nil {
		return Plan{}, err
	}

	mid := Midpoint(start, end)
	startTarget := mid
	endTarget := mid
	if p, err := vec3Param(params, "start_target"); err != nil {
		return Plan{}, err
	} else if p != nil {
		startTarget = *p
	}
	if p, err := vec3Param(params, "end_target"); err != nil {
		return Plan{}, err
	} else if p != nil {
		endTarget = *p
	}
	focus := Midpoint(startTarget, endTarget)

	geo := newArcGeometry(start, end, curvature)
	frames := sample(duration, fps, func(t float64) (Vec3, Vec3) {
		u := Sinusoidal(t)
		base := Lerp(startTarget, endTarget, u)
		// blend weight peaks at the midpoint of the move
		w := 0.5 * math.Sin(math.Pi*t)
		return geo.at(u), Lerp(base, focus, w)
	})
	pinEndpoints(frames, start, end)
	return Plan{Keyframes: frames, Duration: duration}, nil
}
