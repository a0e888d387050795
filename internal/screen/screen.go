// Package screen selects and drives a screen-capture backend: GPU
// framebuffer, desktop portal, or a generic fallback loop (spec component
// H), producing BGRA frames for the color-convert stage.
package screen

import (
	"time"

	"github.com/yasnikoy/rust-voip-core/internal/coreerr"
)

// Frame is one captured screen frame. Buf is borrowed: valid only until the
// next call to Next, matching the GPU backend's zero-copy contract.
type Frame struct {
	Width  int
	Height int
	Buf    []byte // BGRA, len == Width*Height*4
}

// Capturer is the common backend contract: start/next_frame/stop.
type Capturer interface {
	// Start begins capture at the given target frame rate.
	Start(fps int) error
	// Next blocks for the next frame with a bounded timeout. A timeout
	// returns (nil, nil): not an error, retried by the caller while running.
	Next(timeout time.Duration) (*Frame, error)
	// Stop tears down the capture session. Safe to call once.
	Stop()
}

// Policy is the resolution/FPS target derived from the low-power setting.
type Policy struct {
	FPS    int
	Width  int // 0 = native
	Height int // 0 = native
}

// DefaultPolicy is 60 FPS at native resolution.
var DefaultPolicy = Policy{FPS: 60}

// LowPowerPolicy forces 30 FPS at 1280x720 regardless of native size.
var LowPowerPolicy = Policy{FPS: 30, Width: 1280, Height: 720}

// PolicyFor returns LowPowerPolicy when lowPower is set, else DefaultPolicy.
func PolicyFor(lowPower bool) Policy {
	if lowPower {
		return LowPowerPolicy
	}
	return DefaultPolicy
}

// Probe is one candidate backend constructor, paired with an availability
// check run before construction.
type Probe struct {
	Name      string
	Available func() bool
	New       func() (Capturer, error)
}

// Select probes backends in order and returns the first one that is both
// available and constructs successfully (spec §4.H: GPU -> Portal ->
// Generic, first success wins). When none succeeds it returns the last
// construction error, or ErrBackendUnavailable if no backend was available.
func Select(probes []Probe) (Capturer, string, error) {
	lastErr := coreerr.ErrBackendUnavailable
	for _, p := range probes {
		if !p.Available() {
			continue
		}
		c, err := p.New()
		if err != nil {
			lastErr = err
			continue
		}
		return c, p.Name, nil
	}
	return nil, "", lastErr
}
