// Package audio assembles the capture driver, resampling DSP engine, and
// playback driver into a single audio session: the public contract a
// caller uses to run the microphone pipeline and publish frames to a
// sink.AudioSink.
package audio

import (
	"fmt"
	"sync/atomic"

	"github.com/yasnikoy/rust-voip-core/internal/capture"
	"github.com/yasnikoy/rust-voip-core/internal/dsp"
	"github.com/yasnikoy/rust-voip-core/internal/gate"
	"github.com/yasnikoy/rust-voip-core/internal/playback"
	"github.com/yasnikoy/rust-voip-core/internal/ptt"
	"github.com/yasnikoy/rust-voip-core/internal/resample"
	"github.com/yasnikoy/rust-voip-core/sink"
)

// LoopbackMode controls whether the transmitted frame is also routed to
// the local playback device, independent of the echo-reference feed
// (spec §9 open question: routing is left as a caller decision).
type LoopbackMode int

const (
	// LoopbackOff publishes to the sink only; nothing reaches local
	// speakers. The production default.
	LoopbackOff LoopbackMode = iota
	// LoopbackLocal additionally plays the transmitted frame back to the
	// local playback device, mirroring the teacher's testMode diagnostic.
	LoopbackLocal
	// LoopbackBoth is LoopbackLocal with the same routing; kept as a
	// distinct named value so a caller's config schema can tell "enabled
	// for diagnostics" apart from "enabled because both paths are
	// genuinely wanted" without a behavioral difference today.
	LoopbackBoth
)

// Settings is the immutable snapshot the DSP engine captures at session
// start (spec §3 Audio settings). Changing any field requires a new
// session.
type Settings struct {
	InputDeviceID string
	PTTKey        string
	PTTEnabled    bool
	AECEnabled    bool
	AGCEnabled    bool
	NSLevel       float32 // 0.0 = bypass, 1.0 = full suppression
	Loopback      LoopbackMode
}

// Stats is a read-only metrics snapshot, polled by the caller rather than
// pushed (spec §3 added Metrics snapshot).
type Stats struct {
	CaptureOverflows uint64
	OutputUnderflows uint64
	GateOpen         bool
	InputRMS         float32
}

// Session owns the capture driver, playback driver, and the DSP worker
// between them. Created when a device identifier is chosen; destroyed
// (via Stop) when the device changes or the process exits.
type Session struct {
	cap      *capture.Driver
	play     *playback.Driver
	engine   *dsp.Engine
	ptt      *ptt.Gate
	sink     sink.AudioSink
	seq      atomic.Uint32

	playResampler *resample.Resampler
	loopback      LoopbackMode

	running atomic.Bool
	done    chan struct{}
}

// NewSession opens the capture and playback devices and builds the DSP
// engine around them. Initialization failures here are fatal to session
// creation, per spec §4.F.
func NewSession(settings Settings, audioSink sink.AudioSink) (*Session, error) {
	capDriver, err := capture.Open(settings.InputDeviceID)
	if err != nil {
		return nil, fmt.Errorf("open capture device: %w", err)
	}

	playDriver, err := playback.Open()
	if err != nil {
		capDriver.Close()
		return nil, fmt.Errorf("open playback device: %w", err)
	}

	pttGate := ptt.New()
	pttGate.SetTargetKey(settings.PTTKey)
	pttGate.SetEnabled(settings.PTTEnabled)

	engine := dsp.New(int(capDriver.SampleRate), pttGate)
	engine.AEC.SetEnabled(settings.AECEnabled)
	if !settings.AGCEnabled {
		engine.AGC.Reset()
	}
	engine.Denoise.SetLevel(settings.NSLevel)

	s := &Session{
		cap:           capDriver,
		play:          playDriver,
		engine:        engine,
		ptt:           pttGate,
		sink:          audioSink,
		playResampler: resample.New(48000, int(playDriver.SampleRate)),
		loopback:      settings.Loopback,
		done:          make(chan struct{}),
	}
	return s, nil
}

// Start starts the capture driver, the playback driver, and the DSP
// engine, then launches the publish loop that forwards engine output to
// the sink and feeds the echo reference back through the playback path.
func (s *Session) Start() error {
	if err := s.cap.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	if err := s.play.Start(); err != nil {
		s.cap.Stop()
		return fmt.Errorf("start playback: %w", err)
	}

	// Feed the capture ring into the engine's own input ring via a direct
	// alias: both are plain ring.Buffer values, so the capture driver and
	// the engine share one buffer rather than copying between two.
	s.engine.CaptureIn = s.cap.Out
	s.engine.Start()

	s.running.Store(true)
	go s.publishLoop()
	return nil
}

func (s *Session) publishLoop() {
	defer close(s.done)
	for s.running.Load() {
		frame, ok := <-s.engine.TransmitOut
		if !ok {
			return
		}

		if s.sink != nil {
			seq := s.seq.Add(1)
			_ = s.sink.PublishAudio(sink.AudioFrame{
				Samples:    frame,
				SampleRate: 48000,
				SeqNum:     seq,
			})
		}

		// Echo reference: fed at the engine's native 48 kHz frame, the
		// same samples (same frame index) that get resampled below for
		// local playback, so the two stay in lockstep (spec §3
		// invariant). Fed unconditionally: AEC needs a far-end signal
		// even when nothing is routed to local speakers, since no real
		// far-end exists in this core (spec §9).
		s.engine.FeedPlaybackReference(frame)

		// Local loopback routing is a caller decision (spec §9 open
		// question); only resample and push to the output ring when
		// enabled.
		if s.loopback != LoopbackOff {
			outFrame := s.playResampler.Resample(frame)
			s.play.In.PushBatch(outFrame)
		}
	}
}

// Stop stops the capture and playback drivers first (unblocking any
// in-flight device I/O), then the DSP engine, then waits for the publish
// loop to exit — mirroring the teacher's careful stream-then-thread
// shutdown sequencing.
func (s *Session) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.cap.Stop()
	s.play.Stop()
	s.engine.Stop()
	// The engine no longer sends; closing wakes a publish loop blocked on
	// receive.
	close(s.engine.TransmitOut)
	<-s.done

	s.cap.Close()
	s.play.Close()
	s.engine.Denoise.Destroy()
}

// Stats returns a point-in-time metrics snapshot.
func (s *Session) Stats() Stats {
	return Stats{
		CaptureOverflows: s.cap.Out.Overflows(),
		OutputUnderflows: s.play.In.Underflows(),
		GateOpen:         s.engine.Gate.State() == gate.Open,
		InputRMS:         s.engine.InputRMS(),
	}
}

// PTT exposes the session's push-to-talk gate so a caller-owned key-hook
// library can drive KeyEvent (spec §4.G: the hook itself is an external
// collaborator).
func (s *Session) PTT() *ptt.Gate {
	return s.ptt
}
