// Package dsp implements the Audio DSP Engine: the steady-state processing
// loop that turns raw capture-rate samples into a gated, echo-cancelled,
// denoised, transmit-ready 48 kHz frame, and accepts the echo reference
// back (spec component F). Conversion of the transmitted frame to the
// output device's rate happens in audio.Session, not here.
package dsp

import (
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/yasnikoy/rust-voip-core/internal/aec"
	"github.com/yasnikoy/rust-voip-core/internal/agc"
	"github.com/yasnikoy/rust-voip-core/internal/denoise"
	"github.com/yasnikoy/rust-voip-core/internal/gate"
	"github.com/yasnikoy/rust-voip-core/internal/level"
	"github.com/yasnikoy/rust-voip-core/internal/ptt"
	"github.com/yasnikoy/rust-voip-core/internal/resample"
	"github.com/yasnikoy/rust-voip-core/internal/ring"
)

// FrameSize is the engine's native processing frame: 480 samples, 10 ms at
// the internal 48 kHz rate.
const FrameSize = 480

// Engine owns the capture-to-transmit pipeline: resample to 48 kHz, frame,
// AEC, gate, AGC, denoise, PTT gate, and the reverse path for echo
// reference. It runs on a dedicated goroutine guarded by a running flag so
// Stop never blocks on work in flight (Design Note: cancellation flag).
type Engine struct {
	// CaptureIn receives native-rate samples from the capture driver.
	CaptureIn *ring.Buffer
	// TransmitOut receives processed 480-sample 48 kHz frames ready for
	// Opus encoding.
	TransmitOut chan []float32

	captureResampler *resample.Resampler
	scratch          []float32 // resampled-to-48k carryover across iterations

	AEC     *aec.AEC
	Gate    *gate.Gate
	AGC     *agc.AGC
	Denoise *denoise.Denoiser
	PTT     *ptt.Gate

	inputRMS atomic.Uint32 // math.Float32bits of the last frame's pre-processing RMS

	running atomic.Bool
	done    chan struct{}
}

// New builds an Engine that resamples from captureRate to the internal
// 48 kHz domain.
func New(captureRate int, pttGate *ptt.Gate) *Engine {
	e := &Engine{
		CaptureIn:        ring.New(),
		TransmitOut:      make(chan []float32, 64),
		captureResampler: resample.New(captureRate, 48000),
		AEC:              aec.New(FrameSize),
		Gate:             gate.New(),
		AGC:              agc.New(),
		Denoise:          denoise.New(),
		PTT:              pttGate,
		done:             make(chan struct{}),
	}
	e.AGC.SetTarget(agc.DefaultTargetDBFS)
	return e
}

// Start launches the processing loop on a dedicated goroutine.
func (e *Engine) Start() {
	e.running.Store(true)
	go e.loop()
}

// Stop signals the loop to exit and waits for it to do so.
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	<-e.done
}

func (e *Engine) loop() {
	defer close(e.done)
	block := e.captureResampler.NextInputSize()
	in := make([]float32, block)

	for e.running.Load() {
		if e.CaptureIn.Len() < block {
			time.Sleep(time.Millisecond)
			continue
		}
		n := e.CaptureIn.PopBatch(in)
		if n < block {
			// Partial read raced with a concurrent push; retry next tick
			// rather than processing a short block.
			continue
		}

		resampled := e.captureResampler.Resample(in)
		e.scratch = append(e.scratch, resampled...)

		for len(e.scratch) >= FrameSize {
			frame := make([]float32, FrameSize)
			copy(frame, e.scratch[:FrameSize])
			e.scratch = e.scratch[FrameSize:]

			e.processFrame(frame)
		}
	}
}

// processFrame runs one 480-sample frame through the full chain: AEC, the
// VAD gate, AGC, neural denoise, then the PTT transmit gate. Any stage that
// errors at runtime drops the frame rather than propagating, per the
// engine's no-panic, no-backpressure contract.
func (e *Engine) processFrame(frame []float32) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[dsp] frame processing recovered: %v", r)
		}
	}()

	e.inputRMS.Store(math.Float32bits(level.RMS(frame)))

	e.AEC.Process(frame)
	e.Gate.Process(frame)
	e.AGC.Process(frame)

	denoised := make([]float32, FrameSize)
	e.Denoise.Process(denoised, frame)

	if e.PTT != nil && !e.PTT.IsTransmitting() {
		for i := range denoised {
			denoised[i] = 0
		}
	}

	select {
	case e.TransmitOut <- denoised:
	default:
		// Transmit-out backs up (no consumer draining it); drop the oldest
		// frame rather than blocking the real-time loop.
		select {
		case <-e.TransmitOut:
		default:
		}
		select {
		case e.TransmitOut <- denoised:
		default:
		}
	}
}

// FeedPlaybackReference supplies the transmitted frame as the AEC far-end
// reference signal. Call it once per 480-sample frame with the 48 kHz
// frame, before that frame is resampled for the output device.
func (e *Engine) FeedPlaybackReference(frame []float32) {
	e.AEC.FeedFarEnd(frame)
}

// InputRMS returns the root-mean-square level of the most recently
// processed frame, measured before AEC/gate/AGC/denoise. Safe to poll
// from any goroutine.
func (e *Engine) InputRMS() float32 {
	return math.Float32frombits(e.inputRMS.Load())
}
