// Package resample implements a sinc-interpolating sample-rate converter.
// Each session uses two independent instances: capture-rate -> 48 kHz, and
// 48 kHz -> playback-rate. The filter is windowed with a Blackman-Harris
// window, precomputed at a fine fractional-phase resolution (the
// "oversampling factor") so that each output sample is produced by a table
// lookup plus a dot product rather than evaluating sinc() per sample.
package resample

import "math"

const (
	// WindowTaps is the FIR filter length (the spec's "window length 256").
	WindowTaps = 256

	// Oversample is the fractional-phase table resolution: the continuous
	// windowed-sinc kernel is precomputed at this many phases per input
	// sample step.
	Oversample = 256

	// CutoffRatio is applied to the relevant Nyquist frequency (0.95 *
	// Nyquist).
	CutoffRatio = 0.95

	// InputBlock is the fixed input block size Resample expects per call.
	InputBlock = 480
)

// Resampler converts a fixed-size block of samples from one sample rate to
// another using windowed-sinc interpolation.
type Resampler struct {
	fromRate int
	toRate   int
	ratio    float64 // toRate / fromRate

	table [Oversample][WindowTaps]float64 // precomputed phase x tap kernel

	history []float32 // last WindowTaps input samples, for cross-call continuity
	pos     float64    // fractional read position into the current combined buffer, carried across calls
}

// New constructs a Resampler for fromRate -> toRate. Both rates must be
// positive.
func New(fromRate, toRate int) *Resampler {
	r := &Resampler{
		fromRate: fromRate,
		toRate:   toRate,
		ratio:    float64(toRate) / float64(fromRate),
		history:  make([]float32, WindowTaps),
	}
	r.buildTable()
	return r
}

// buildTable precomputes the windowed-sinc kernel at Oversample fractional
// phases. Cutoff is 0.95 * Nyquist of the lower of the two rates, so
// downsampling is anti-aliased and upsampling does not introduce
// unnecessary high-frequency loss.
func (r *Resampler) buildTable() {
	lowRate := r.fromRate
	if r.toRate < lowRate {
		lowRate = r.toRate
	}
	// Cutoff expressed as a fraction of the input sample rate.
	cutoff := CutoffRatio * (float64(lowRate) / 2.0) / float64(r.fromRate)
	half := WindowTaps / 2

	for phase := 0; phase < Oversample; phase++ {
		frac := float64(phase) / float64(Oversample)
		var sum float64
		for k := 0; k < WindowTaps; k++ {
			// n is the offset, in input samples, of tap k from the
			// fractional output position within this phase.
			n := float64(k-half) + frac
			var s float64
			if n == 0 {
				s = 2 * cutoff
			} else {
				x := 2 * math.Pi * cutoff * n
				s = math.Sin(x) / (math.Pi * n)
			}
			w := blackmanHarris(k, WindowTaps)
			r.table[phase][k] = s * w
			sum += s * w
		}
		if sum != 0 {
			for k := range r.table[phase] {
				r.table[phase][k] /= sum
			}
		}
	}
}

// blackmanHarris evaluates the 4-term Blackman-Harris window at index i of
// an N-point window.
func blackmanHarris(i, n int) float64 {
	const (
		a0 = 0.35875
		a1 = 0.48829
		a2 = 0.14128
		a3 = 0.01168
	)
	x := 2 * math.Pi * float64(i) / float64(n-1)
	return a0 - a1*math.Cos(x) + a2*math.Cos(2*x) - a3*math.Cos(3*x)
}

// NextInputSize returns the fixed input block size this resampler consumes
// per call to Resample.
func (r *Resampler) NextInputSize() int {
	return InputBlock
}

// Resample converts exactly InputBlock input samples to the output rate,
// using WindowTaps history samples from prior calls for filter continuity.
// The output length varies by at most one sample from round(InputBlock *
// ratio) depending on fractional carry.
func (r *Resampler) Resample(input []float32) []float32 {
	if len(input) != InputBlock {
		panic("resample: input must be exactly InputBlock samples")
	}
	if r.fromRate == r.toRate {
		out := make([]float32, InputBlock)
		copy(out, input)
		return out
	}

	half := WindowTaps / 2
	combined := make([]float32, len(r.history)+len(input))
	copy(combined, r.history)
	copy(combined[len(r.history):], input)

	// Output samples occur at input-domain positions
	// base + r.pos, base + r.pos + 1/ratio, ...
	// where base = len(history) so position 0 maps to the first sample of
	// the new input block once the initial half-window history is primed.
	base := float64(len(r.history))
	step := 1.0 / r.ratio

	var out []float32
	t := base + r.pos
	limit := base + float64(InputBlock)
	for t < limit {
		center := int(math.Floor(t))
		frac := t - float64(center)
		phase := int(frac * Oversample)
		if phase >= Oversample {
			phase = Oversample - 1
		}

		var acc float64
		for k := 0; k < WindowTaps; k++ {
			idx := center - half + k
			if idx >= 0 && idx < len(combined) {
				acc += float64(combined[idx]) * r.table[phase][k]
			}
		}
		out = append(out, float32(acc))
		t += step
	}
	r.pos = t - limit

	// Update history with the last WindowTaps samples seen.
	if len(input) >= WindowTaps {
		copy(r.history, input[len(input)-WindowTaps:])
	} else {
		shift := WindowTaps - len(input)
		copy(r.history, r.history[len(input):])
		copy(r.history[shift:], input)
	}

	return out
}

// Reset clears history and fractional-position state without rebuilding the
// filter table.
func (r *Resampler) Reset() {
	for i := range r.history {
		r.history[i] = 0
	}
	r.pos = 0
}
