package portal

import (
	"testing"
	"time"

	"github.com/yasnikoy/rust-voip-core/internal/screen"
)

type fakeStream struct {
	frames chan *screen.Frame
	closed bool
}

func (f *fakeStream) Frames() <-chan *screen.Frame { return f.frames }
func (f *fakeStream) Close()                       { f.closed = true }

type fakeOpener struct {
	stream *fakeStream
	err    error
}

func (o *fakeOpener) OpenStream(fd int, nodeID uint32, width, height int) (ReceiveCloser, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.stream, nil
}

func TestStartOpensStreamFromNegotiatedSession(t *testing.T) {
	stream := &fakeStream{frames: make(chan *screen.Frame, 1)}
	c := &Capturer{
		opener:  &fakeOpener{stream: stream},
		session: &Session{PipeWireFD: 7, NodeID: 42, Width: 1920, Height: 1080},
	}
	if err := c.Start(60); err != nil {
		t.Fatalf("Start: %v", err)
	}

	want := &screen.Frame{Width: 1920, Height: 1080, Buf: make([]byte, 1920*1080*4)}
	stream.frames <- want

	got, err := c.Next(200 * time.Millisecond)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != want {
		t.Error("expected the forwarded frame back")
	}
}

func TestNextBeforeStartReturnsNil(t *testing.T) {
	c := &Capturer{session: &Session{}}
	f, err := c.Next(10 * time.Millisecond)
	if err != nil || f != nil {
		t.Errorf("want (nil, nil) before Start, got (%v, %v)", f, err)
	}
}

func TestStopClosesStream(t *testing.T) {
	stream := &fakeStream{frames: make(chan *screen.Frame, 1)}
	c := &Capturer{
		opener:  &fakeOpener{stream: stream},
		session: &Session{},
	}
	if err := c.Start(60); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Stop()
	if !stream.closed {
		t.Error("expected Stop to close the underlying stream")
	}
}
