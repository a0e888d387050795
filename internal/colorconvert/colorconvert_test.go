package colorconvert

import (
	"errors"
	"testing"

	"github.com/yasnikoy/rust-voip-core/internal/coreerr"
)

func solidBGRA(w, h int, b, g, r, a byte) []byte {
	buf := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		buf[i*4] = b
		buf[i*4+1] = g
		buf[i*4+2] = r
		buf[i*4+3] = a
	}
	return buf
}

func TestPureRedProducesSpecWorkedExample(t *testing.T) {
	buf := solidBGRA(1920, 1080, 0, 0, 255, 255)
	c := NewCPU()
	f, err := c.Convert(buf, 1920, 1080, 0, 0)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if f.Y[0] != 82 {
		t.Errorf("Y[0]: want 82, got %d", f.Y[0])
	}
	if f.U[0] != 90 {
		t.Errorf("U[0]: want 90, got %d", f.U[0])
	}
	if f.V[0] != 240 {
		t.Errorf("V[0]: want 240, got %d", f.V[0])
	}
}

func TestDownscalePlaneLengths(t *testing.T) {
	buf := make([]byte, 3840*2160*4)
	c := NewCPU()
	f, err := c.Convert(buf, 3840, 2160, 1280, 720)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(f.Y) != 921600 {
		t.Errorf("Y length: want 921600, got %d", len(f.Y))
	}
	if len(f.U) != 230400 || len(f.V) != 230400 {
		t.Errorf("U/V length: want 230400 each, got U=%d V=%d", len(f.U), len(f.V))
	}
}

func TestInvalidBufferSizeFails(t *testing.T) {
	c := NewCPU()
	_, err := c.Convert(make([]byte, 10), 1920, 1080, 0, 0)
	if !errors.Is(err, coreerr.ErrBufferSizeMismatch) {
		t.Fatalf("want ErrBufferSizeMismatch, got %v", err)
	}
}

func TestAlignTo16BoundaryValues(t *testing.T) {
	cases := map[int]int{1080: 1088, 720: 720, 854: 864, 0: 0, 16: 16, 17: 32}
	for in, want := range cases {
		if got := AlignTo16(in); got != want {
			t.Errorf("AlignTo16(%d): want %d, got %d", in, want, got)
		}
	}
}

func TestAlignTo16IsAlwaysAMultipleOfSixteenAndNotLess(t *testing.T) {
	for n := 0; n <= 4096; n += 37 {
		got := AlignTo16(n)
		if got < n {
			t.Fatalf("AlignTo16(%d) = %d is less than n", n, got)
		}
		if got%16 != 0 {
			t.Fatalf("AlignTo16(%d) = %d is not a multiple of 16", n, got)
		}
		if got-n >= 16 {
			t.Fatalf("AlignTo16(%d) = %d is not the smallest such multiple", n, got)
		}
	}
}
