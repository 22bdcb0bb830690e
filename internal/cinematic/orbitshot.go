// SPDX-License-Identifier: MIT

package cinematic

import (
	"fmt"
	"math"
)

// generateOrbitShot has two modes. Spherical mode circles a fixed center at a
// given radius and elevation, sweeping start_azimuth to end_azimuth. Object
// mode derives the center from a named scene asset and the radius, elevation
// and start azimuth from start_position, sweeping orbit_count full turns.
// Both modes ease sinusoidally.
func generateOrbitShot(params map[string]any, fps float64, deps Deps) (Plan, error) {
	_, hasObject := params["target_object"]
	startPos, err := vec3Param(params, "start_position")
	if err != nil {
		return Plan{}, err
	}
	if hasObject || startPos != nil {
		return orbitAroundObject(params, fps, deps, startPos)
	}
	return orbitAroundCenter(params, fps)
}

func orbitAroundCenter(params map[string]any, fps float64) (Plan, error) {
	center := Vec3{}
	if p, err := vec3Param(params, "center"); err != nil {
		return Plan{}, err
	} else if p != nil {
		center = *p
	}
	radius, err := floatParam(params, "radius", 10)
	if err != nil {
		return Plan{}, err
	}
	if radius <= 0 {
		return Plan{}, paramErrorf("radius", "radius must be positive")
	}
	elevation, err := floatParam(params, "elevation", 0)
	if err != nil {
		return Plan{}, err
	}
	startAz, err := floatParam(params, "start_azimuth", 0)
	if err != nil {
		return Plan{}, err
	}
	endAz, err := floatParam(params, "end_azimuth", startAz+360)
	if err != nil {
		return Plan{}, err
	}

	startTarget := center
	endTarget := center
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

	arcLen := radius * math.Abs(endAz-startAz) * math.Pi / 180
	duration, err := resolveDurationFromDistance(OpOrbitShot, params, arcLen)
	if err != nil {
		return Plan{}, err
	}

	frames := sampleOrbit(duration, fps, center, radius, elevation, startAz, endAz, func(t float64) Vec3 {
		return Lerp(startTarget, endTarget, t)
	})
	return Plan{Keyframes: frames, Duration: duration}, nil
}

func orbitAroundObject(params map[string]any, fps float64, deps Deps, startPos *Vec3) (Plan, error) {
	if startPos == nil {
		return Plan{}, paramErrorf("start_position", "start_position is required when orbiting an object")
	}
	center := Vec3{}
	if name := stringParam(params, "target_object", ""); name != "" {
		if deps.AssetCenter == nil {
			return Plan{}, fmt.Errorf("no asset transform source for target_object")
		}
		c, err := deps.AssetCenter(name)
		if err != nil {
			return Plan{}, fmt.Errorf("resolve target_object: %w", err)
		}
		center = c
	} else if p, err := vec3Param(params, "center"); err != nil {
		return Plan{}, err
	} else if p != nil {
		center = *p
	}

	dx := (*startPos)[0] - center[0]
	dy := (*startPos)[1] - center[1]
	radius := math.Hypot(dx, dy)
	if radius < 1e-9 {
		return Plan{}, paramErrorf("start_position", "start_position must not coincide with the orbit center")
	}
	elevation := (*startPos)[2] - center[2]
	startAz := math.Atan2(dy, dx) * 180 / math.Pi

	orbits, err := floatParam(params, "orbit_count", 1)
	if err != nil {
		return Plan{}, err
	}
	if orbits <= 0 {
		return Plan{}, paramErrorf("orbit_count", "orbit_count must be positive")
	}
	endAz := startAz + orbits*360

	arcLen := radius * math.Abs(endAz-startAz) * math.Pi / 180
	duration, err := resolveDurationFromDistance(OpOrbitShot, params, arcLen)
	if err != nil {
		return Plan{}, err
	}

	frames := sampleOrbit(duration, fps, center, radius, elevation, startAz, endAz, func(float64) Vec3 {
		return center
	})
	return Plan{Keyframes: frames, Duration: duration}, nil
}

// sampleOrbit sweeps azimuth under sinusoidal easing, recording the azimuth
// on each keyframe.
func sampleOrbit(duration, fps float64, center Vec3, radius, elevation, startAz, endAz float64, targetAt func(t float64) Vec3) []Keyframe {
	frames := sample(duration, fps, func(t float64) (Vec3, Vec3) {
		u := Sinusoidal(t)
		az := (startAz + (endAz-startAz)*u) * math.Pi / 180
		pos := Vec3{
			center[0] + radius*math.Cos(az),
			center[1] + radius*math.Sin(az),
			center[2] + elevation,
		}
		return pos, targetAt(u)
	})
	for i := range frames {
		u := Sinusoidal(frames[i].Progress)
		frames[i].Azimuth = startAz + (endAz-startAz)*u
	}
	return frames
}
