// Package video assembles the capture backend selector, color converter,
// and frame pump into a single video session: the public contract a
// caller uses to run screen capture and publish frames to a
// sink.VideoSink.
package video

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/yasnikoy/rust-voip-core/internal/colorconvert"
	"github.com/yasnikoy/rust-voip-core/internal/screen"
	"github.com/yasnikoy/rust-voip-core/internal/videopump"
	"github.com/yasnikoy/rust-voip-core/sink"
)

// nextFrameTimeout bounds each backend poll (spec §4.I: 50 ms typical).
const nextFrameTimeout = 50 * time.Millisecond

// lowPowerTimeout is used instead when the session runs in low-power mode
// (spec §5: 100 ms low-power).
const lowPowerTimeout = 100 * time.Millisecond

// Stats is a read-only metrics snapshot, polled by the caller.
type Stats struct {
	FramesProduced  uint64
	FramesDropped   uint64
	BackendTimeouts uint64
	CurrentFPS      float64
	Backend         string
}

type sinkAdapter struct {
	sink sink.VideoSink
}

func (a *sinkAdapter) CaptureFrame(f videopump.Frame) error {
	return a.sink.PublishVideo(sink.VideoFrame{
		Width:       f.Width,
		Height:      f.Height,
		Y:           f.Y,
		U:           f.U,
		V:           f.V,
		TimestampUs: f.TimestampUS,
		Rotation:    f.Rotation,
	})
}

// Session owns the selected capture backend, the converter, and the frame
// pump between them.
type Session struct {
	backend     screen.Capturer
	backendName string
	converter   colorconvert.Converter
	pump        *videopump.Pump
	policy      screen.Policy

	produced atomic.Uint64
	dropped  atomic.Uint64
	timeouts atomic.Uint64

	running atomic.Bool
	done    chan struct{}
}

// NewSession probes the given backends in order (GPU -> Portal -> Generic)
// and builds a Session around the first one that succeeds.
func NewSession(probes []screen.Probe, videoSink sink.VideoSink, lowPower bool) (*Session, error) {
	backend, name, err := screen.Select(probes)
	if err != nil {
		return nil, fmt.Errorf("select capture backend: %w", err)
	}

	policy := screen.PolicyFor(lowPower)
	s := &Session{
		backend:     backend,
		backendName: name,
		converter:   colorconvert.NewCPU(),
		policy:      policy,
		done:        make(chan struct{}),
	}
	s.pump = videopump.New(&sinkAdapter{sink: videoSink}, stopperFunc(backend.Stop), lowPower)
	return s, nil
}

type stopperFunc func()

func (f stopperFunc) Stop() { f() }

// Start begins backend capture and launches the conversion/pump loop.
func (s *Session) Start() error {
	if err := s.backend.Start(s.policy.FPS); err != nil {
		return fmt.Errorf("start capture backend: %w", err)
	}
	s.running.Store(true)
	go s.loop()
	return nil
}

func (s *Session) loop() {
	defer close(s.done)

	timeout := nextFrameTimeout
	if s.policy.FPS <= 30 {
		timeout = lowPowerTimeout
	}

	for s.running.Load() {
		frame, err := s.backend.Next(timeout)
		if err != nil {
			s.dropped.Add(1)
			continue
		}
		if frame == nil {
			s.timeouts.Add(1)
			continue
		}

		cf, err := s.converter.Convert(frame.Buf, frame.Width, frame.Height, s.policy.Width, s.policy.Height)
		if err != nil {
			s.dropped.Add(1)
			continue
		}

		if err := s.pump.Deliver(cf, 0); err != nil {
			s.dropped.Add(1)
			continue
		}
		s.produced.Add(1)
	}
}

// Stop stops the upstream backend via the pump (spec §4.M: stop upstream
// before tearing down the sink) and waits for the loop to exit.
func (s *Session) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	<-s.done
	s.pump.Shutdown()
}

// Stats returns a point-in-time metrics snapshot.
func (s *Session) Stats() Stats {
	return Stats{
		FramesProduced:  s.produced.Load(),
		FramesDropped:   s.dropped.Load(),
		BackendTimeouts: s.timeouts.Load(),
		CurrentFPS:      float64(s.policy.FPS),
		Backend:         s.backendName,
	}
}
