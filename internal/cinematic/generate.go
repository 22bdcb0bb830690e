// SPDX-License-Identifier: MIT

package cinematic

import "fmt"

// Deps are external collaborators a generator may need. AssetCenter resolves
// a named scene object to its bounding center (orbit-around-object mode).
type Deps struct {
	AssetCenter func(name string) (Vec3, error)
}

type generatorFunc func(params map[string]any, fps float64, deps Deps) (Plan, error)

var generators = map[Operation]generatorFunc{
	OpSmoothMove:     generateSmoothMove,
	OpArcShot:        generateArcShot,
	OpOrbitShot:      generateOrbitShot,
	OpDollyShot:      generateDollyShot,
	OpPanTiltShot:    generatePanTiltShot,
	OpCinematicOrbit: generateCinematicOrbit,
}

// Generate validates params and produces the keyframe plan for one shot.
func Generate(op Operation, params map[string]any, deps Deps) (Plan, error) {
	gen, ok := generators[op]
	if !ok {
		return Plan{}, fmt.Errorf("unknown operation %q", op)
	}
	fps, err := resolveFPS(params)
	if err != nil {
		return Plan{}, err
	}
	return gen(params, fps, deps)
}

// sample builds the keyframe sequence: frame i at linear time t = i/(n-1),
// with monotonic progress and strictly increasing timestamps.
func sample(duration, fps float64, at func(t float64) (Vec3, Vec3)) []Keyframe {
	n := frameCount(duration, fps)
	frames := make([]Keyframe, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		pos, target := at(t)
		frames[i] = Keyframe{
			Position:  pos,
			Target:    target,
			Progress:  t,
			Timestamp: t * duration,
		}
	}
	return frames
}

// pinEndpoints forces byte-exact endpoint equality where the shot type
// provides explicit endpoints.
func pinEndpoints(frames []Keyframe, start, end Vec3) {
	if len(frames) == 0 {
		return
	}
	frames[0].Position = start
	frames[len(frames)-1].Position = end
}
