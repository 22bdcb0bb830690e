// SPDX-License-Identifier: MIT

package cinematic

import (
	"math"

	"github.com/agentworld/simbridge/internal/log"
)

// EasingFunc maps linear time t in [0,1] to eased progress in [0,1].
type EasingFunc func(t float64) float64

// Named easing curves.
const (
	EaseLinear       = "linear"
	EaseIn           = "ease_in"
	EaseOut          = "ease_out"
	EaseInOut        = "ease_in_out"
	EaseBounce       = "bounce"
	EaseElastic      = "elastic"
	EaseInCubic      = "ease_in_cubic"
	EaseInOutQuartic = "ease_in_out_quartic"
	EaseSinusoidal   = "sinusoidal"
)

var easings = map[string]EasingFunc{
	EaseLinear:       func(t float64) float64 { return t },
	EaseIn:           func(t float64) float64 { return t * t },
	EaseOut:          func(t float64) float64 { return 1 - (1-t)*(1-t) },
	EaseInOut:        easeInOut,
	EaseBounce:       easeOutBounce,
	EaseElastic:      easeOutElastic,
	EaseInCubic:      func(t float64) float64 { return t * t * t },
	EaseInOutQuartic: easeInOutQuartic,
	EaseSinusoidal:   Sinusoidal,
}

// ResolveEasing returns the named curve. Unknown names fall back to
// ease_in_out with a warning.
func ResolveEasing(name string) EasingFunc {
	if name == "" {
		return easeInOut
	}
	if fn, ok := easings[name]; ok {
		return fn
	}
	logger := log.WithComponent("cinematic")
	logger.Warn().
		Str(log.FieldEasing, name).
		Msg("unknown easing, falling back to ease_in_out")
	return easeInOut
}

// Sinusoidal is the half-cosine ramp used by arc and orbit shots.
func Sinusoidal(t float64) float64 {
	return 0.5 * (1 - math.Cos(math.Pi*t))
}

// easeInOut is piecewise quadratic around t = 0.5.
func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - 2*(1-t)*(1-t)
}

func easeInOutQuartic(t float64) float64 {
	if t < 0.5 {
		return 8 * t * t * t * t
	}
	u := 1 - t
	return 1 - 8*u*u*u*u
}

// easeOutBounce is the canonical piecewise bounce curve.
func easeOutBounce(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// easeOutElastic is a sinusoid with exponential decay.
func easeOutElastic(t float64) float64 {
	const c4 = (2 * math.Pi) / 3
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	default:
		return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*c4) + 1
	}
}
