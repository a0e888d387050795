package rtcmedia

import (
	"testing"
	"time"
)

func TestAudioSampleDurationIsTenMilliseconds(t *testing.T) {
	s := AudioSample([]byte{1, 2, 3})
	if s.Duration != 10*time.Millisecond {
		t.Errorf("duration: want 10ms, got %v", s.Duration)
	}
	if len(s.Data) != 3 {
		t.Errorf("data length: want 3, got %d", len(s.Data))
	}
}

func TestVideoSampleCarriesGivenDuration(t *testing.T) {
	s := VideoSample([]byte{9, 9}, 33*time.Millisecond)
	if s.Duration != 33*time.Millisecond {
		t.Errorf("duration: want 33ms, got %v", s.Duration)
	}
}

func TestFrameDurationDefaultsTo30FPS(t *testing.T) {
	if d := FrameDuration(0); d != time.Second/30 {
		t.Errorf("FrameDuration(0): want %v, got %v", time.Second/30, d)
	}
	if d := FrameDuration(60); d != time.Second/60 {
		t.Errorf("FrameDuration(60): want %v, got %v", time.Second/60, d)
	}
}
