// Package videopump paces converted video frames toward a sink: stamping a
// timestamp, logging periodic FPS, and stopping the upstream backend before
// the sink on shutdown (spec component M). Grounded on the audio engine's
// playbackLoop tick/counter idiom.
package videopump

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/yasnikoy/rust-voip-core/internal/colorconvert"
)

// fpsLogInterval is the default frame count between FPS log lines; halved
// in low-power mode (spec §4.M: every 300 frames, 150 low-power).
const fpsLogInterval = 300
const fpsLogIntervalLowPower = 150

// Frame is a converted frame stamped and ready for the sink.
type Frame struct {
	*colorconvert.Frame
	TimestampUS int64
	Rotation    int
}

// Sink receives paced, timestamped frames.
type Sink interface {
	CaptureFrame(Frame) error
}

// Backend is the upstream capture stage that Shutdown stops.
type Backend interface {
	Stop()
}

// Pump drives frame delivery: stamp timestamp, zero rotation, call the
// sink, and periodically log throughput.
type Pump struct {
	sink     Sink
	backend  Backend
	lowPower bool

	count atomic.Uint64
}

// New returns a Pump delivering to sink, optionally halving the FPS log
// interval when lowPower is set.
func New(sink Sink, backend Backend, lowPower bool) *Pump {
	return &Pump{sink: sink, backend: backend, lowPower: lowPower}
}

// nowUS returns the current time as microseconds since the epoch. Callers
// that already have a capture-buffer presentation timestamp should pass it
// directly to Deliver instead of relying on this helper.
func nowUS() int64 {
	return time.Now().UnixNano() / 1000
}

// Deliver stamps cf (carrying its own presentation timestamp when ptsUS
// is non-zero, else the wall clock) and forwards it to the sink. Every
// fpsLogInterval frames (halved in low-power mode) it logs throughput.
func (p *Pump) Deliver(cf *colorconvert.Frame, ptsUS int64) error {
	ts := ptsUS
	if ts == 0 {
		ts = nowUS()
	}

	f := Frame{Frame: cf, TimestampUS: ts, Rotation: 0}
	if err := p.sink.CaptureFrame(f); err != nil {
		return err
	}

	n := p.count.Add(1)
	interval := uint64(fpsLogInterval)
	if p.lowPower {
		interval = fpsLogIntervalLowPower
	}
	if n%interval == 0 {
		log.Printf("[video] delivered %d frames", n)
	}
	return nil
}

// Shutdown stops the upstream backend before the caller tears down the
// sink. This does not join any threads; that is the backend's own
// explicit-shutdown responsibility (spec §4.M: drop does not join).
func (p *Pump) Shutdown() {
	if p.backend != nil {
		p.backend.Stop()
	}
}
