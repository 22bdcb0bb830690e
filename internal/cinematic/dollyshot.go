// SPDX-License-Identifier: MIT

package cinematic

// dollyStyles maps the approach style to its easing curve.
var dollyStyles = map[string]string{
	"slow_push":  EaseInCubic,
	"quick_snap": EaseOut,
	"smooth":     EaseInOutQuartic,
}

// generateDollyShot moves the camera in a straight line with a style-driven
// approach curve and an extra deceleration blend over the final 20% of the
// motion.
func generateDollyShot(params map[string]any, fps float64, _ Deps) (Plan, error) {
	start, err := requireVec3(params, "start_position")
	if err != nil {
		return Plan{}, err
	}
	end, err := requireVec3(params, "end_position")
	if err != nil {
		return Plan{}, err
	}
	duration, err := resolveDuration(OpDollyShot, params, start, end)
	if err != nil {
		return Plan{}, err
	}

	easeName := EaseInOut
	if style := stringParam(params, "style", ""); style != "" {
		if name, ok := dollyStyles[style]; ok {
			easeName = name
		} else {
			easeName = style
		}
	}
	ease := ResolveEasing(easeName)

	startTarget, err := vec3Param(params, "start_target")
	if err != nil {
		return Plan{}, err
	}
	endTarget, err := vec3Param(params, "end_target")
	if err != nil {
		return Plan{}, err
	}
	targetAt := dollyTarget(start, end, startTarget, endTarget)

	frames := sample(duration, fps, func(t float64) (Vec3, Vec3) {
		u := ease(t)
		if t > 0.8 {
			// decelerate into the endpoint, reaching it exactly at t=1
			k := (t - 0.8) / 0.2
			u += (1 - u) * k * k
		}
		return Lerp(start, end, u), targetAt(u)
	})
	pinEndpoints(frames, start, end)
	return Plan{Keyframes: frames, Duration: duration}, nil
}

// dollyTarget: both endpoints interpolate, one endpoint holds, none looks at
// the midpoint of the two positions.
func dollyTarget(start, end Vec3, st, et *Vec3) func(u float64) Vec3 {
	switch {
	case st != nil && et != nil:
		a, b := *st, *et
		return func(u float64) Vec3 { return Lerp(a, b, u) }
	case st != nil:
		hold := *st
		return func(float64) Vec3 { return hold }
	case et != nil:
		hold := *et
		return func(float64) Vec3 { return hold }
	default:
		mid := Midpoint(start, end)
		return func(float64) Vec3 { return mid }
	}
}
