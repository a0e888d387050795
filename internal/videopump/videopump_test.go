package videopump

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/yasnikoy/rust-voip-core/internal/colorconvert"
)

type fakeSink struct {
	frames []Frame
	err    error
}

func (s *fakeSink) CaptureFrame(f Frame) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, f)
	return nil
}

type fakeBackend struct{ stopped bool }

func (b *fakeBackend) Stop() { b.stopped = true }

func TestDeliverStampsProvidedTimestamp(t *testing.T) {
	sink := &fakeSink{}
	p := New(sink, &fakeBackend{}, false)
	cf := &colorconvert.Frame{Width: 4, Height: 4}

	if err := p.Deliver(cf, 12345); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(sink.frames) != 1 {
		t.Fatalf("want 1 delivered frame, got %d", len(sink.frames))
	}
	if sink.frames[0].TimestampUS != 12345 {
		t.Errorf("timestamp: want 12345, got %d", sink.frames[0].TimestampUS)
	}
	if sink.frames[0].Rotation != 0 {
		t.Errorf("rotation: want 0, got %d", sink.frames[0].Rotation)
	}
}

func TestDeliverFallsBackToWallClockWhenNoPTS(t *testing.T) {
	sink := &fakeSink{}
	p := New(sink, &fakeBackend{}, false)
	if err := p.Deliver(&colorconvert.Frame{}, 0); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if sink.frames[0].TimestampUS <= 0 {
		t.Error("expected a positive wall-clock timestamp")
	}
}

func TestDeliverPropagatesSinkError(t *testing.T) {
	sink := &fakeSink{err: errors.New("sink down")}
	p := New(sink, &fakeBackend{}, false)
	if err := p.Deliver(&colorconvert.Frame{}, 1); err == nil {
		t.Fatal("expected sink error to propagate")
	}
}

func TestShutdownStopsBackend(t *testing.T) {
	backend := &fakeBackend{}
	p := New(&fakeSink{}, backend, false)
	p.Shutdown()
	if !backend.stopped {
		t.Error("expected Shutdown to stop the backend")
	}
}

func TestLowPowerHalvesLogInterval(t *testing.T) {
	var logBuf bytes.Buffer
	log.SetOutput(&logBuf)
	defer log.SetOutput(os.Stderr)

	sink := &fakeSink{}
	p := New(sink, &fakeBackend{}, true)
	for i := 0; i < fpsLogIntervalLowPower; i++ {
		if err := p.Deliver(&colorconvert.Frame{}, int64(i+1)); err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}
	if p.count.Load() != uint64(fpsLogIntervalLowPower) {
		t.Errorf("count: want %d, got %d", fpsLogIntervalLowPower, p.count.Load())
	}
	if !strings.Contains(logBuf.String(), "delivered 150 frames") {
		t.Errorf("low-power pump should log at frame %d, log was %q", fpsLogIntervalLowPower, logBuf.String())
	}
}
