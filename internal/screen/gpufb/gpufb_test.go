package gpufb

import (
	"errors"
	"testing"
	"time"

	"github.com/yasnikoy/rust-voip-core/internal/screen"
)

type fakeBackend struct {
	canCreate bool
	opened    bool
	closed    bool
	frames    chan *screen.Frame
	grabErr   error
}

func (b *fakeBackend) CanCreateNow() bool { return b.canCreate }
func (b *fakeBackend) Open(fps int) error { b.opened = true; return nil }
func (b *fakeBackend) Close()             { b.closed = true }
func (b *fakeBackend) Grab() (*screen.Frame, error) {
	if b.grabErr != nil {
		return nil, b.grabErr
	}
	select {
	case f := <-b.frames:
		return f, nil
	default:
		return nil, nil // timeout: no frame ready yet
	}
}

func TestNewFailsWhenUnavailable(t *testing.T) {
	b := &fakeBackend{canCreate: false}
	_, err := New(b)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestStartOpensBackend(t *testing.T) {
	b := &fakeBackend{canCreate: true, frames: make(chan *screen.Frame, 1)}
	c, err := New(b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Start(60); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !b.opened {
		t.Error("expected backend.Open to be called")
	}
}

func TestNextReturnsFrameWhenReady(t *testing.T) {
	b := &fakeBackend{canCreate: true, frames: make(chan *screen.Frame, 1)}
	c, _ := New(b)
	c.Start(60)
	want := &screen.Frame{Width: 1920, Height: 1080, Buf: make([]byte, 1920*1080*4)}
	b.frames <- want

	got, err := c.Next(200 * time.Millisecond)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != want {
		t.Error("expected the enqueued frame back")
	}
}

func TestStopEndsPollingAndClosesBackend(t *testing.T) {
	b := &fakeBackend{canCreate: true, frames: make(chan *screen.Frame, 1)}
	c, _ := New(b)
	c.Start(60)
	c.Stop()
	if !b.closed {
		t.Error("expected backend.Close to be called")
	}
	f, err := c.Next(time.Second)
	if err != nil || f != nil {
		t.Errorf("Next after Stop should return (nil, nil) immediately, got (%v, %v)", f, err)
	}
}

func TestNextPropagatesGrabError(t *testing.T) {
	b := &fakeBackend{canCreate: true, grabErr: errors.New("driver died")}
	c, _ := New(b)
	c.Start(60)
	_, err := c.Next(time.Second)
	if err == nil {
		t.Fatal("expected grab error to propagate")
	}
}
