// Package denoise applies RNNoise-based neural noise suppression to the
// audio DSP engine's native 480-sample (10 ms @ 48 kHz) frame — RNNoise's
// own native frame size, so no split/join is needed.
package denoise

/*
#cgo pkg-config: rnnoise
#include <rnnoise.h>
#include <stdlib.h>
*/
import "C"
import (
	"sync"
	"unsafe"
)

// FrameSize is the fixed frame size this package operates on, matching both
// RNNoise's native frame size and the DSP engine's frame size.
const FrameSize = 480

// Denoiser applies RNNoise-based ML noise suppression to a single 480-sample
// frame at a time.
type Denoiser struct {
	mu      sync.Mutex
	st      *C.DenoiseState
	level   float32 // 0.0 = bypass, 1.0 = full suppression
	enabled bool

	// C buffers pre-allocated at struct level to avoid per-frame malloc/free.
	cIn  *C.float
	cOut *C.float
}

// New allocates an RNNoise state instance and pre-allocates its C buffers.
func New() *Denoiser {
	cIn := (*C.float)(C.malloc(C.size_t(FrameSize) * C.size_t(unsafe.Sizeof(C.float(0)))))
	cOut := (*C.float)(C.malloc(C.size_t(FrameSize) * C.size_t(unsafe.Sizeof(C.float(0)))))
	return &Denoiser{
		st:      C.rnnoise_create(nil),
		level:   1.0,
		enabled: true,
		cIn:     cIn,
		cOut:    cOut,
	}
}

// SetEnabled enables or disables noise suppression.
func (d *Denoiser) SetEnabled(on bool) {
	d.mu.Lock()
	d.enabled = on
	d.mu.Unlock()
}

// Enabled reports whether noise suppression is currently enabled.
func (d *Denoiser) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// SetLevel sets the suppression blend level (0.0 = bypass, 1.0 = full
// suppression). Values are clamped to [0, 1].
func (d *Denoiser) SetLevel(lvl float32) {
	if lvl < 0 {
		lvl = 0
	}
	if lvl > 1 {
		lvl = 1
	}
	d.mu.Lock()
	d.level = lvl
	d.mu.Unlock()
}

// Process writes the denoised result of in (exactly FrameSize samples) into
// out (must also be exactly FrameSize samples; may alias in). No-op copy
// when disabled or level == 0.
func (d *Denoiser) Process(out, in []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(in) != FrameSize || len(out) != FrameSize {
		copy(out, in)
		return
	}

	if !d.enabled || d.level == 0 {
		copy(out, in)
		return
	}

	// RNNoise expects float32 samples scaled to int16 range [-32768, 32767].
	inSlice := unsafe.Slice(d.cIn, FrameSize)
	outSlice := unsafe.Slice(d.cOut, FrameSize)

	for i := 0; i < FrameSize; i++ {
		inSlice[i] = C.float(in[i] * 32767.0)
	}
	C.rnnoise_process_frame(d.st, d.cOut, d.cIn)
	for i := 0; i < FrameSize; i++ {
		denoised := float32(outSlice[i]) / 32767.0
		out[i] = in[i]*(1-d.level) + denoised*d.level
	}
}

// Destroy frees the underlying C RNNoise state instance and pre-allocated
// buffers. The Denoiser must not be used afterward.
func (d *Denoiser) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.st != nil {
		C.rnnoise_destroy(d.st)
		d.st = nil
	}
	if d.cIn != nil {
		C.free(unsafe.Pointer(d.cIn))
		d.cIn = nil
	}
	if d.cOut != nil {
		C.free(unsafe.Pointer(d.cOut))
		d.cOut = nil
	}
}
