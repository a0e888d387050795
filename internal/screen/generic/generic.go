// Package generic implements the always-available fallback screen capture
// backend: a fixed-rate polling loop driven by a caller-supplied grab
// function (spec component K).
package generic

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yasnikoy/rust-voip-core/internal/screen"
)

// GrabFunc captures one raw BGRA frame at the given target resolution.
// Returning a buffer whose length doesn't match width*height*4 causes the
// frame to be skipped (spec §4.K).
type GrabFunc func(width, height int) (buf []byte, err error)

// Capturer is the generic fixed-rate fallback backend. It is always
// available and never fails to construct.
type Capturer struct {
	grab   GrabFunc
	width  int
	height int

	running atomic.Bool
	frames  chan frameResult
	wg      sync.WaitGroup
}

type frameResult struct {
	buf []byte
	err error
}

// New returns a generic capturer that grabs frames at width x height using
// grab.
func New(grab GrabFunc, width, height int) *Capturer {
	return &Capturer{
		grab:   grab,
		width:  width,
		height: height,
		frames: make(chan frameResult, 1),
	}
}

// Start launches the capture loop at the given target frame rate.
func (c *Capturer) Start(fps int) error {
	if fps <= 0 {
		fps = 60
	}
	c.running.Store(true)
	c.wg.Add(1)
	go c.loop(time.Second / time.Duration(fps))
	return nil
}

func (c *Capturer) loop(interval time.Duration) {
	defer c.wg.Done()
	for c.running.Load() {
		start := time.Now()

		buf, err := c.grab(c.width, c.height)
		if err != nil {
			log.Printf("[screen] generic capture error: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if len(buf) != c.width*c.height*4 {
			// Unexpected buffer size: skip this frame rather than forward
			// a malformed one downstream.
			continue
		}

		select {
		case c.frames <- frameResult{buf: buf}:
		default:
			// Downstream hasn't consumed the previous frame yet; drop this
			// one rather than blocking the capture loop.
			select {
			case <-c.frames:
			default:
			}
			c.frames <- frameResult{buf: buf}
		}

		elapsed := time.Since(start)
		if elapsed < interval {
			time.Sleep(interval - elapsed)
		}
	}
}

// Next returns the next captured frame, waiting up to timeout.
func (c *Capturer) Next(timeout time.Duration) (*screen.Frame, error) {
	select {
	case r := <-c.frames:
		if r.err != nil {
			return nil, r.err
		}
		return &screen.Frame{Width: c.width, Height: c.height, Buf: r.buf}, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

// Stop signals the capture loop to exit. It is not joined here; callers
// that need a clean shutdown should wait on their own handshake if needed.
func (c *Capturer) Stop() {
	c.running.Store(false)
}

var _ screen.Capturer = (*Capturer)(nil)
