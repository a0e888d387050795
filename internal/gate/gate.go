// Package gate implements the amplitude-threshold voice-activity gate with a
// hold timer (the "VAD gate" of the audio DSP engine). Frames whose peak
// sample magnitude stays below a threshold for longer than the hold period
// are zeroed; frames above threshold, or still within hold, pass through
// unchanged.
package gate

import "github.com/yasnikoy/rust-voip-core/internal/level"

const (
	// DefaultThreshold is the peak amplitude below which audio is gated (~-40 dBFS).
	DefaultThreshold = float32(0.01)

	// DefaultHold is the number of frames to keep the gate open after the
	// signal drops below threshold (20 frames = 200 ms at 10 ms/frame).
	DefaultHold = 20
)

// State is the gate's externally observable state machine position.
type State int

const (
	// Closed: the gate is zeroing frames.
	Closed State = iota
	// Open: the gate is passing frames (peak above threshold, or within hold).
	Open
)

// Gate is a hard, peak-amplitude noise gate with a hold timer, implementing
// the Closed / Open(hold_remaining) state machine of the audio DSP engine.
type Gate struct {
	threshold float32
	hold      int // configured hold length in frames
	remaining int // frames left in current hold
	enabled   bool
	state     State
}

// New returns a Gate with DefaultThreshold and DefaultHold, enabled by
// default, starting Closed.
func New() *Gate {
	return &Gate{
		threshold: DefaultThreshold,
		hold:      DefaultHold,
		enabled:   true,
		state:     Closed,
	}
}

// SetEnabled enables or disables the gate. Disabling clears the hold and
// sets the state to Closed; while disabled, Process passes every frame
// through unchanged and reports the state as Open.
func (g *Gate) SetEnabled(enabled bool) {
	g.enabled = enabled
	if !enabled {
		g.remaining = 0
		g.state = Closed
	}
}

// Enabled reports whether the gate is currently enabled.
func (g *Gate) Enabled() bool {
	return g.enabled
}

// SetThreshold sets the peak gate threshold. level is in [0, 100] and maps
// to a peak-amplitude range of [0.001, 0.10]. Lower values open the gate
// more easily.
func (g *Gate) SetThreshold(lvl int) {
	if lvl < 0 {
		lvl = 0
	}
	if lvl > 100 {
		lvl = 100
	}
	g.threshold = 0.001 + float32(lvl)/100.0*0.099
}

// Threshold returns the current peak threshold (linear amplitude).
func (g *Gate) Threshold() float32 {
	return g.threshold
}

// State reports the gate's current state.
func (g *Gate) State() State {
	return g.state
}

// HoldRemaining reports the number of frames left in the current hold
// window (0 when Closed).
func (g *Gate) HoldRemaining() int {
	return g.remaining
}

// Process applies the gate to frame in-place. If the frame's peak is below
// the threshold and the hold period has expired, the frame is zeroed and the
// gate transitions to Closed; otherwise the frame passes through and the
// gate is (or becomes) Open. Returns the frame's peak amplitude before
// gating, for level metering.
func (g *Gate) Process(frame []float32) float32 {
	peak := level.Peak(frame)

	if !g.enabled {
		g.state = Open
		return peak
	}

	if peak > g.threshold {
		g.remaining = g.hold
		g.state = Open
		return peak
	}

	if g.remaining > 0 {
		g.remaining--
		g.state = Open
		return peak
	}

	for i := range frame {
		frame[i] = 0
	}
	g.state = Closed
	return peak
}

// Reset clears the hold counter and returns the gate to Closed without
// changing configured settings.
func (g *Gate) Reset() {
	g.remaining = 0
	g.state = Closed
}
