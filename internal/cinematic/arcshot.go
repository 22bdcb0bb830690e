// SPDX-License-Identifier: MIT

package cinematic

// Named curvature presets for arc-style shots. An explicit
// curvature_intensity overrides the style.
var styleCurvature = map[string]float64{
	"gentle":   0.15,
	"standard": 0.25,
	"dramatic": 0.4,
}

const arcLookAheadFrames = 5

// arcGeometry holds the quadratic Bézier for one arc between two positions.
// The control point is placed so the curve apex (t=0.5) lands exactly at
// midpoint + perpendicular·(distance·curvature) + vertical lift.
type arcGeometry struct {
	start, control, end Vec3
}

func newArcGeometry(start, end Vec3, curvature float64) arcGeometry {
	mid := Midpoint(start, end)
	dir := end.Sub(start)
	distance := dir.Length()
	if distance < 1e-9 {
		return arcGeometry{start: start, control: mid, end: end}
	}

	horizontal := Vec3{dir[0], dir[1], 0}
	var perp Vec3
	if horizontal.Length() < 0.1*distance {
		// mostly vertical motion, fall back to the Y axis
		perp = Vec3{0, 1, 0}
	} else {
		perp = zUp.Cross(dir).Normalized()
	}

	offset := perp.Scale(distance * curvature).Add(zUp.Scale(0.1 * distance))
	// B(0.5) = 0.25·start + 0.5·control + 0.25·end, so doubling the offset
	// on the control point puts the apex at mid + offset.
	control := mid.Add(offset.Scale(2))
	return arcGeometry{start: start, control: control, end: end}
}

// at evaluates the quadratic Bézier at u in [0,1].
func (g arcGeometry) at(u float64) Vec3 {
	inv := 1 - u
	return g.start.Scale(inv * inv).
		Add(g.control.Scale(2 * inv * u)).
		Add(g.end.Scale(u * u))
}

func resolveCurvature(params map[string]any) (float64, error) {
	if _, ok := params["curvature_intensity"]; ok {
		c, err := floatParam(params, "curvature_intensity", 0)
		if err != nil {
			return 0, err
		}
		if c < 0 {
			return 0, paramErrorf("curvature_intensity", "curvature_intensity must be non-negative")
		}
		return c, nil
	}
	style := stringParam(params, "style", "standard")
	c, ok := styleCurvature[style]
	if !ok {
		return 0, paramErrorf("style", "unknown arc style %q", style)
	}
	return c, nil
}

// generateArcShot sweeps a quadratic Bézier between two positions under
// sinusoidal easing. Explicit targets interpolate linearly; otherwise the
// camera looks a few frames ahead along the curve.
func generateArcShot(params map[string]any, fps float64, _ Deps) (Plan, error) {
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
	duration, err := resolveDuration(OpArcShot, params, start, end)
	if err != nil {
		return Plan{}, err
	}

	startTarget, err := vec3Param(params, "start_target")
	if err != nil {
		return Plan{}, err
	}
	endTarget, err := vec3Param(params, "end_target")
	if err != nil {
		return Plan{}, err
	}

	geo := newArcGeometry(start, end, curvature)
	frames := sample(duration, fps, func(t float64) (Vec3, Vec3) {
		u := Sinusoidal(t)
		return geo.at(u), Vec3{}
	})

	n := len(frames)
	for i := range frames {
		if startTarget != nil && endTarget != nil {
			frames[i].Target = Lerp(*startTarget, *endTarget, Sinusoidal(frames[i].Progress))
			continue
		}
		ahead := i + arcLookAheadFrames
		if ahead > n-1 {
			ahead = n - 1
		}
		if ahead == i {
			frames[i].Target = end
		} else {
			frames[i].Target = frames[ahead].Position
		}
	}
	pinEndpoints(frames, start, end)
	return Plan{Keyframes: frames, Duration: duration}, nil
}
