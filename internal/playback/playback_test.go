package playback

import (
	"testing"

	"github.com/yasnikoy/rust-voip-core/internal/ring"
)

func TestFillFrameReplicatesMonoAcrossChannels(t *testing.T) {
	d := &Driver{
		buf:      make([]float32, 6),
		Channels: 2,
		In:       ring.New(),
	}
	d.In.Push(0.1)
	d.In.Push(0.2)
	d.In.Push(0.3)

	d.fillFrame()

	want := []float32{0.1, 0.1, 0.2, 0.2, 0.3, 0.3}
	for i, w := range want {
		if d.buf[i] != w {
			t.Errorf("buf[%d]: want %v, got %v", i, w, d.buf[i])
		}
	}
}

func TestFillFrameSubstitutesSilenceOnUnderflow(t *testing.T) {
	d := &Driver{
		buf:      make([]float32, 4),
		Channels: 2,
		In:       ring.New(),
	}
	d.In.Push(0.5)
	// Only one sample available for two output frames; the second must be
	// silence rather than blocking.
	d.fillFrame()

	want := []float32{0.5, 0.5, 0, 0}
	for i, w := range want {
		if d.buf[i] != w {
			t.Errorf("buf[%d]: want %v, got %v", i, w, d.buf[i])
		}
	}
}
