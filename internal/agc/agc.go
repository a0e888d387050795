// Package agc implements a simple software Automatic Gain Control processor
// for mono float32 PCM audio at 48 kHz, 480-sample (10 ms) frames.
//
// The AGC continuously monitors the short-term RMS of each frame and adjusts a
// multiplicative gain toward a desired target level using independent
// attack/release time constants. Gain is clamped to [MinGain, MaxGain] to
// prevent silence amplification from going wild. Adaptive digital mode,
// limiter-on: the output clamp in Process doubles as the limiter.
package agc

import (
	"math"

	"github.com/yasnikoy/rust-voip-core/internal/level"
)

const (
	// DefaultTargetDBFS is the AGC's target level: adaptive digital mode,
	// target −3 dBFS, per the primary processor's fixed configuration.
	DefaultTargetDBFS = -3.0

	// minTargetDBFS/maxTargetDBFS bound SetTarget's input: below minTargetDBFS
	// the target RMS would sit in the noise floor, above maxTargetDBFS
	// (0 dBFS, full scale) it can never be reached without clipping.
	minTargetDBFS = -40.0
	maxTargetDBFS = 0.0

	// MinGain limits attenuation of loud signals to -20 dB.
	MinGain = 0.1
	// MaxGain allows up to +20 dB of amplification.
	MaxGain = 10.0

	// AttackCoeff controls how quickly gain is reduced when level exceeds target.
	// Higher → faster attack. At 0.80 per 480-sample (10 ms) frame the gain
	// closes 80% of the gap each frame, a time constant of about 6 ms.
	AttackCoeff = 0.80
	// ReleaseCoeff controls how quickly gain recovers after a loud transient.
	// Slower than attack to avoid pumping artefacts.
	ReleaseCoeff = 0.02

	// minRMS suppresses gain updates on silent frames (below noise floor).
	minRMS = 0.001
)

// DefaultTarget is DefaultTargetDBFS expressed as a linear RMS level
// (~0.708), the form AGC.target is actually stored and compared in.
var DefaultTarget = dbfsToLinear(DefaultTargetDBFS)

// dbfsToLinear converts a dBFS level to a linear amplitude ratio.
func dbfsToLinear(dbfs float64) float64 {
	return math.Pow(10, dbfs/20)
}

// AGC is a single-channel automatic gain control processor. Zero value is not
// usable; use New().
type AGC struct {
	target float64 // desired RMS level [0.0, 1.0]
	gain   float64 // current linear gain multiplier
}

// New returns an AGC with DefaultTarget and unity gain.
func New() *AGC {
	return &AGC{target: DefaultTarget, gain: 1.0}
}

// SetTarget sets the desired level in dBFS, clamped to
// [minTargetDBFS, maxTargetDBFS].
func (a *AGC) SetTarget(dbfs float64) {
	if dbfs < minTargetDBFS {
		dbfs = minTargetDBFS
	}
	if dbfs > maxTargetDBFS {
		dbfs = maxTargetDBFS
	}
	a.target = dbfsToLinear(dbfs)
}

// Process applies gain to frame in-place and updates the gain estimate.
// frame must be mono float32 PCM. Returns the same slice for chaining.
func (a *AGC) Process(frame []float32) []float32 {
	if len(frame) == 0 {
		return frame
	}

	rms := float64(level.RMS(frame))

	// Apply current gain before updating, so the listener hears the result.
	for i, s := range frame {
		v := s * float32(a.gain)
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		frame[i] = v
	}

	// Skip gain update on near-silence to avoid boosting noise floor.
	if rms < minRMS {
		return frame
	}

	// Desired gain to hit target.
	desired := a.target / rms
	if desired < MinGain {
		desired = MinGain
	} else if desired > MaxGain {
		desired = MaxGain
	}

	// Asymmetric smoothing: attack (gain down) is fast, release (gain up) slow.
	var coeff float64
	if desired < a.gain {
		coeff = AttackCoeff
	} else {
		coeff = ReleaseCoeff
	}
	a.gain = a.gain + coeff*(desired-a.gain)

	return frame
}

// Gain returns the current linear gain multiplier (informational).
func (a *AGC) Gain() float64 { return a.gain }

// Reset resets the gain to unity without changing the target.
func (a *AGC) Reset() { a.gain = 1.0 }
