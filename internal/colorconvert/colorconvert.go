// Package colorconvert turns BGRA screen-capture buffers into I420 video
// frames using the standard BT.601 integer coefficients (spec component
// L). The CPU path is the default and the one exercised by tests; Converter
// is a pluggable seam so a GPU-backed implementation (upload -> convert ->
// download) can be substituted without touching callers.
package colorconvert

import (
	"fmt"

	"github.com/yasnikoy/rust-voip-core/internal/coreerr"
)

// Frame is a converted I420 video frame: three planes, Y at full
// resolution and U/V chroma-subsampled by 2 in each dimension.
type Frame struct {
	Width, Height int
	Y, U, V       []byte
}

// Converter turns a BGRA capture buffer into an I420 frame, optionally
// downscaling to a target resolution.
type Converter interface {
	Convert(bgra []byte, srcW, srcH, dstW, dstH int) (*Frame, error)
}

// CPU is the software BT.601 converter: 2x2 block iteration with
// chroma-subsampled U/V and an optional nearest-neighbor downscale.
type CPU struct{}

// NewCPU returns the default software converter.
func NewCPU() *CPU { return &CPU{} }

// clamp8 clamps v to [0, 255].
func clamp8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// bt601Y computes the BT.601 luma sample for one BGRA pixel.
func bt601Y(r, g, b int32) byte {
	return clamp8((66*r+129*g+25*b+128)>>8 + 16)
}

// bt601U computes the BT.601 chroma U sample.
func bt601U(r, g, b int32) byte {
	return clamp8((-38*r-74*g+112*b+128)>>8 + 128)
}

// bt601V computes the BT.601 chroma V sample.
func bt601V(r, g, b int32) byte {
	return clamp8((112*r-94*g-18*b+128)>>8 + 128)
}

// Convert produces an I420 frame from a BGRA buffer of length 4*srcW*srcH.
// When dstW/dstH differ from srcW/srcH, Y is resampled at full target
// resolution and U/V at half, using nearest-neighbor with 16-bit
// fixed-point ratios. A buffer whose length doesn't match 4*srcW*srcH
// fails with ErrBufferSizeMismatch.
func (c *CPU) Convert(bgra []byte, srcW, srcH, dstW, dstH int) (*Frame, error) {
	if len(bgra) != srcW*srcH*4 {
		return nil, fmt.Errorf("colorconvert: buffer len %d, want %d: %w", len(bgra), srcW*srcH*4, coreerr.ErrBufferSizeMismatch)
	}
	if dstW <= 0 || dstH <= 0 {
		dstW, dstH = srcW, srcH
	}

	// dstW/dstH must be even so the chroma planes subsample cleanly.
	dstW &^= 1
	dstH &^= 1

	full := convertFull(bgra, srcW, srcH)
	if dstW == srcW && dstH == srcH {
		return full, nil
	}
	return downscale(full, srcW, srcH, dstW, dstH), nil
}

// convertFull runs the native-resolution BT.601 conversion, 2x2 block at a
// time: one Y sample per pixel, one U/V sample per block (averaged).
func convertFull(bgra []byte, w, h int) *Frame {
	f := &Frame{
		Width:  w,
		Height: h,
		Y:      make([]byte, w*h),
		U:      make([]byte, (w/2)*(h/2)),
		V:      make([]byte, (w/2)*(h/2)),
	}
	stride := w * 4

	for by := 0; by < h; by += 2 {
		for bx := 0; bx < w; bx += 2 {
			var uSum, vSum int32
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					x, y := bx+dx, by+dy
					if x >= w || y >= h {
						continue
					}
					off := y*stride + x*4
					b := int32(bgra[off])
					g := int32(bgra[off+1])
					r := int32(bgra[off+2])
					f.Y[y*w+x] = bt601Y(r, g, b)
					uSum += int32(bt601U(r, g, b))
					vSum += int32(bt601V(r, g, b))
				}
			}
			cw := w / 2
			ci := (by/2)*cw + bx/2
			f.U[ci] = byte(uSum / 4)
			f.V[ci] = byte(vSum / 4)
		}
	}
	return f
}

// downscale nearest-neighbor resamples f to dstW x dstH, using 16-bit
// fixed-point ratios for the source-index lookup. Y is sampled at full
// target resolution; U/V at half (spec §4.L).
func downscale(f *Frame, srcW, srcH, dstW, dstH int) *Frame {
	const fixedShift = 16
	xRatio := (srcW << fixedShift) / dstW
	yRatio := (srcH << fixedShift) / dstH

	out := &Frame{
		Width:  dstW,
		Height: dstH,
		Y:      make([]byte, dstW*dstH),
		U:      make([]byte, (dstW/2)*(dstH/2)),
		V:      make([]byte, (dstW/2)*(dstH/2)),
	}

	for y := 0; y < dstH; y++ {
		sy := (y * yRatio) >> fixedShift
		if sy >= srcH {
			sy = srcH - 1
		}
		for x := 0; x < dstW; x++ {
			sx := (x * xRatio) >> fixedShift
			if sx >= srcW {
				sx = srcW - 1
			}
			out.Y[y*dstW+x] = f.Y[sy*srcW+sx]
		}
	}

	cSrcW, cSrcH := srcW/2, srcH/2
	cDstW, cDstH := dstW/2, dstH/2
	cxRatio := (cSrcW << fixedShift) / cDstW
	cyRatio := (cSrcH << fixedShift) / cDstH
	for y := 0; y < cDstH; y++ {
		sy := (y * cyRatio) >> fixedShift
		if sy >= cSrcH {
			sy = cSrcH - 1
		}
		for x := 0; x < cDstW; x++ {
			sx := (x * cxRatio) >> fixedShift
			if sx >= cSrcW {
				sx = cSrcW - 1
			}
			out.U[y*cDstW+x] = f.U[sy*cSrcW+sx]
			out.V[y*cDstW+x] = f.V[sy*cSrcW+sx]
		}
	}

	return out
}

// AlignTo16 returns the smallest multiple of 16 that is >= v, the alignment
// GPU encoders typically require for input resolutions.
func AlignTo16(v int) int {
	return (v + 15) &^ 15
}

var _ Converter = (*CPU)(nil)
