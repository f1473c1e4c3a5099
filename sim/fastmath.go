package sim

import "math"

// Fast math functions for hot-path physics calculations.
// These avoid float32->float64 conversions that Go's math package requires.

// fastSin approximates sin(x) using a polynomial. Accurate to ~0.001 for all x.
func fastSin(x float32) float32 {
	x = normalizeAngle(x)
	const pi = math.Pi
	const pi2 = pi * pi
	ax := x
	if ax < 0 {
		ax = -ax
	}
	y := 4 * x * (pi - ax) / pi2
	// Correction: improves accuracy
	return 0.225*(y*absf(y)-y) + y
}

// fastCos approximates cos(x) using fastSin.
func fastCos(x float32) float32 {
	return fastSin(x + math.Pi/2)
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// normalizeAngle wraps angle to [-pi, pi].
func normalizeAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// wrapCoord maps a onto [0, limit) with Euclidean semantics, so positions
// that step off either edge re-enter on the opposite side.
func wrapCoord(a, limit float32) float32 {
	m := float32(math.Mod(float64(a), float64(limit)))
	if m < 0 {
		m += limit
	}
	return m
}

// wrapHue maps a hue angle onto [0, 360).
func wrapHue(h float32) float32 {
	return wrapCoord(h, 360)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
