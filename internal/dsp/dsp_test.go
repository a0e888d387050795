package dsp

import (
	"testing"
	"time"

	"github.com/yasnikoy/rust-voip-core/internal/ptt"
)

func TestEngineProducesFramesAtNativeRate(t *testing.T) {
	pg := ptt.New() // disabled by default: always transmitting
	e := New(48000, pg)
	e.AGC.SetTarget(-12)

	e.Start()
	defer e.Stop()

	block := e.captureResampler.NextInputSize()
	frame := make([]float32, block)
	for i := range frame {
		frame[i] = 0.5
	}
	for i := 0; i < 20; i++ {
		e.CaptureIn.PushBatch(frame)
	}

	select {
	case out := <-e.TransmitOut:
		if len(out) != FrameSize {
			t.Errorf("frame length: want %d, got %d", FrameSize, len(out))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a processed frame")
	}
}

func TestEngineInputRMSReflectsLastFrame(t *testing.T) {
	pg := ptt.New() // disabled: always transmitting
	e := New(48000, pg)

	if got := e.InputRMS(); got != 0 {
		t.Fatalf("InputRMS before any frame processed: want 0, got %v", got)
	}

	e.Start()
	defer e.Stop()

	block := e.captureResampler.NextInputSize()
	frame := make([]float32, block)
	for i := range frame {
		frame[i] = 0.5
	}
	for i := 0; i < 20; i++ {
		e.CaptureIn.PushBatch(frame)
	}

	select {
	case <-e.TransmitOut:
		if got := e.InputRMS(); got <= 0 {
			t.Errorf("InputRMS after processing a non-silent frame: want > 0, got %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a processed frame")
	}
}

func TestEnginePTTMutesWhenNotTransmitting(t *testing.T) {
	pg := ptt.New()
	pg.SetTargetKey("Space")
	pg.SetEnabled(true) // enabled, key never pressed: not transmitting

	e := New(48000, pg)
	e.Gate.SetEnabled(false) // isolate PTT muting from the VAD gate
	e.Start()
	defer e.Stop()

	block := e.captureResampler.NextInputSize()
	frame := make([]float32, block)
	for i := range frame {
		frame[i] = 0.9
	}
	for i := 0; i < 20; i++ {
		e.CaptureIn.PushBatch(frame)
	}

	select {
	case out := <-e.TransmitOut:
		for _, s := range out {
			if s != 0 {
				t.Fatal("expected PTT-muted frame to be all zero")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a processed frame")
	}
}
