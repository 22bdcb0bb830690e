// SPDX-License-Identifier: MIT

package cinematic

import "math"

// generatePanTiltShot has two modes. With a start_position it is a smooth
// move between poses. Otherwise it pans the camera around a center at a fixed
// distance, sweeping azimuth (and optionally elevation angle) between the
// given bounds.
func generatePanTiltShot(params map[string]any, fps float64, deps Deps) (Plan, error) {
	if _, ok := params["start_position"]; ok {
		return generateSmoothMove(params, fps, deps)
	}

	center := Vec3{}
	if p, err := vec3Param(params, "center"); err != nil {
		return Plan{}, err
	} else if p != nil {
		center = *p
	}
	distance, err := floatParam(params, "distance", rotationTargetDistance)
	if err != nil {
		return Plan{}, err
	}
	if distance <= 0 {
		return Plan{}, paramErrorf("distance", "distance must be positive")
	}

	startAz, err := floatParam(params, "start_azimuth", 0)
	if err != nil {
		return Plan{}, err
	}
	endAz, err := floatParam(params, "end_azimuth", startAz+90)
	if err != nil {
		return Plan{}, err
	}
	startEl, err := floatParam(params, "start_elevation", 0)
	if err != nil {
		return Plan{}, err
	}
	endEl, err := floatParam(params, "end_elevation", startEl)
	if err != nil {
		return Plan{}, err
	}

	sweep := math.Max(math.Abs(endAz-startAz), math.Abs(endEl-startEl))
	arcLen := distance * sweep * math.Pi / 180
	duration, err := resolveDurationFromDistance(OpPanTiltShot, params, arcLen)
	if err != nil {
		return Plan{}, err
	}
	ease := ResolveEasing(stringParam(params, "easing", EaseInOut))

	frames := sample(duration, fps, func(t float64) (Vec3, Vec3) {
		u := ease(t)
		az := (startAz + (endAz-startAz)*u) * math.Pi / 180
		el := (startEl + (endEl-startEl)*u) * math.Pi / 180
		pos := Vec3{
			center[0] + distance*math.Cos(el)*math.Cos(az),
			center[1] + distance*math.Cos(el)*math.Sin(az),
			center[2] + distance*math.Sin(el),
		}
		return pos, center
	})
	for i := range frames {
		u := ease(frames[i].Progress)
		frames[i].Azimuth = startAz + (endAz-startAz)*u
	}
	return Plan{Keyframes: frames, Duration: duration}, nil
}
