// SPDX-License-Identifier: MIT

package cinematic

// DefaultFPS is the keyframe sampling rate when the caller does not supply one.
const DefaultFPS = 30.0

// minDuration is used when start and end coincide.
const minDuration = 0.1

// defaultSpeeds are the per-shot travel speeds (units/second) used when the
// caller supplies neither duration nor speed.
var defaultSpeeds = map[Operation]float64{
	OpSmoothMove:     10,
	OpArcShot:        8,
	OpOrbitShot:      15,
	OpDollyShot:      10,
	OpPanTiltShot:    15,
	OpCinematicOrbit: 8,
}

// resolveDuration implements duration-from-speed: an explicit duration wins;
// otherwise duration = distance / speed, with 0.1s for a zero-length move.
func resolveDuration(op Operation, params map[string]any, start, end Vec3) (float64, error) {
	return resolveDurationFromDistance(op, params, Distance(start, end))
}

// resolveDurationFromDistance is the same calculation for shots whose travel
// distance is not a straight line (orbit arcs).
func resolveDurationFromDistance(op Operation, params map[string]any, distance float64) (float64, error) {
	duration, err := floatParam(params, "duration", 0)
	if err != nil {
		return 0, err
	}
	if _, supplied := params["duration"]; supplied {
		if err := positiveDuration(duration); err != nil {
			return 0, err
		}
		return duration, nil
	}

	if distance < 1e-9 {
		return minDuration, nil
	}

	speed, err := floatParam(params, "speed", defaultSpeeds[op])
	if err != nil {
		return 0, err
	}
	if speed <= 0 {
		return 0, paramErrorf("speed", "speed must be positive")
	}
	return distance / speed, nil
}

// frameCount returns the keyframe count for a duration at fps:
// max(1, round(duration*fps)) + 1.
func frameCount(duration, fps float64) int {
	n := int(duration*fps + 0.5)
	if n < 1 {
		n = 1
	}
	return n + 1
}
