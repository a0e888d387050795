// Package gpufb implements the GPU framebuffer capture backend: an
// in-driver capture session producing BGRA frames at a requested rate
// (spec component I). The actual NVFBC/driver binding is behind the
// Backend interface; this package owns only the thread and timeout
// discipline around it.
package gpufb

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/yasnikoy/rust-voip-core/internal/screen"
)

// Backend is the narrow driver binding this package wraps: a constructor
// capability probe plus a blocking grab call. A concrete implementation
// (e.g. an NvFBC cgo binding) satisfies this; none ships here.
type Backend interface {
	// CanCreateNow reports whether the in-driver capture session can be
	// created right now (spec §4.H probe step 1).
	CanCreateNow() bool
	// Open begins an in-driver capture session at the requested fps.
	Open(fps int) error
	// Grab blocks until the next frame is available or the backend's own
	// internal timeout elapses, returning (nil, nil) on timeout.
	Grab() (*screen.Frame, error)
	// Close tears down the in-driver session.
	Close()
}

// ErrUnavailable is returned by New when the backend reports it cannot
// create a session right now.
var ErrUnavailable = errors.New("gpufb: backend unavailable")

// pollTimeout is the typical next-frame wait (50 ms). Capturer does not
// apply it itself: each Grab is bounded by the Backend's own internal
// timeout, and Next by the timeout its caller passes.
const pollTimeout = 50 * time.Millisecond

// Capturer drives a Backend under a shared running flag. It starts no
// goroutine of its own: Next polls the backend on the caller's goroutine.
type Capturer struct {
	backend Backend
	running atomic.Bool
}

// New probes backend.CanCreateNow and returns ErrUnavailable if it can't
// create a session right now, matching spec §4.H's GPU-first probe.
func New(backend Backend) (*Capturer, error) {
	if !backend.CanCreateNow() {
		return nil, ErrUnavailable
	}
	return &Capturer{backend: backend}, nil
}

// Available reports whether backend currently accepts a new session,
// suitable for use as a screen.Probe.Available check.
func Available(backend Backend) func() bool {
	return backend.CanCreateNow
}

// Start opens the backend session at fps. The capturer itself does not
// buffer frames: Next calls through to the backend's own blocking Grab,
// which already returns a zero-copy-borrowed frame valid until the next
// call (spec §4.I).
func (c *Capturer) Start(fps int) error {
	if err := c.backend.Open(fps); err != nil {
		return err
	}
	c.running.Store(true)
	return nil
}

// Next blocks on the backend's Grab, retrying internally on timeout while
// the running flag remains set (spec §4.I: timeouts are not errors).
func (c *Capturer) Next(timeout time.Duration) (*screen.Frame, error) {
	deadline := time.Now().Add(timeout)
	for c.running.Load() {
		f, err := c.backend.Grab()
		if err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
	}
	return nil, nil
}

// Stop sets the running flag false, sufficient to end any in-flight Next
// polling loop (spec §4.I: setting the flag is enough; joining is explicit
// shutdown, not drop).
func (c *Capturer) Stop() {
	c.running.Store(false)
	c.backend.Close()
}

var _ screen.Capturer = (*Capturer)(nil)
