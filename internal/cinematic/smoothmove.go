// SPDX-License-Identifier: MIT

package cinematic

// rotationTargetDistance offsets the computed look-at target from the camera.
const rotationTargetDistance = 10.0

// generateSmoothMove linearly interpolates position (and target) under the
// selected easing. A rotation [pitch, yaw, roll] in degrees converts to a
// look-at target when explicit targets are absent.
func generateSmoothMove(params map[string]any, fps float64, _ Deps) (Plan, error) {
	start, err := requireVec3(params, "start_position")
	if err != nil {
		return Plan{}, err
	}
	end, err := requireVec3(params, "end_position")
	if err != nil {
		return Plan{}, err
	}

	duration, err := resolveDuration(OpSmoothMove, params, start, end)
	if err != nil {
		return Plan{}, err
	}
	ease := ResolveEasing(stringParam(params, "easing", EaseInOut))

	startTarget, endTarget, err := resolveTargets(params, start, end)
	if err != nil {
		return Plan{}, err
	}

	frames := sample(duration, fps, func(t float64) (Vec3, Vec3) {
		u := ease(t)
		pos := Lerp(start, end, u)
		return pos, Lerp(startTarget, endTarget, u)
	})
	pinEndpoints(frames, start, end)
	return Plan{Keyframes: frames, Duration: duration}, nil
}

// resolveTargets picks explicit targets, then rotation-derived targets, then
// a constant look-at on the end position.
func resolveTargets(params map[string]any, start, end Vec3) (Vec3, Vec3, error) {
	st, err := vec3Param(params, "start_target")
	if err != nil {
		return Vec3{}, Vec3{}, err
	}
	et, err := vec3Param(params, "end_target")
	if err != nil {
		return Vec3{}, Vec3{}, err
	}
	shared, err := vec3Param(params, "target")
	if err != nil {
		return Vec3{}, Vec3{}, err
	}
	if shared != nil {
		if st == nil {
			st = shared
		}
		if et == nil {
			et = shared
		}
	}
	if st != nil && et != nil {
		return *st, *et, nil
	}

	rotation, err := vec3Param(params, "rotation")
	if err != nil {
		return Vec3{}, Vec3{}, err
	}
	if rotation != nil {
		return RotationToTarget(start, *rotation, rotationTargetDistance),
			RotationToTarget(end, *rotation, rotationTargetDistance), nil
	}

	if st != nil {
		return *st, *st, nil
	}
	if et != nil {
		return *et, *et, nil
	}
	return end, end, nil
}
