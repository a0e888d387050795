package audio

import (
	"testing"
	"time"

	"github.com/yasnikoy/rust-voip-core/internal/capture"
	"github.com/yasnikoy/rust-voip-core/internal/dsp"
	"github.com/yasnikoy/rust-voip-core/internal/playback"
	"github.com/yasnikoy/rust-voip-core/internal/ptt"
	"github.com/yasnikoy/rust-voip-core/internal/resample"
	"github.com/yasnikoy/rust-voip-core/internal/ring"
	"github.com/yasnikoy/rust-voip-core/sink"
)

type fakeAudioSink struct {
	frames []sink.AudioFrame
}

func (f *fakeAudioSink) PublishAudio(af sink.AudioFrame) error {
	f.frames = append(f.frames, af)
	return nil
}

// newTestSession builds a Session around real internal components but
// without ever opening a PortAudio device, exercising only the
// publish-loop wiring (sink forwarding, echo-reference feed, stats).
func newTestSession(t *testing.T) (*Session, *fakeAudioSink) {
	t.Helper()
	capDriver := &capture.Driver{} // Out left nil: not touched by the publish loop
	playDriver := &playback.Driver{SampleRate: 48000}
	playDriver.In = ring.New()

	pttGate := ptt.New() // disabled: always transmitting

	engine := dsp.New(48000, pttGate)

	fake := &fakeAudioSink{}
	s := &Session{
		cap:           capDriver,
		play:          playDriver,
		engine:        engine,
		ptt:           pttGate,
		sink:          fake,
		playResampler: resample.New(48000, 48000),
		done:          make(chan struct{}),
	}
	return s, fake
}

func TestPublishLoopForwardsFramesToSink(t *testing.T) {
	s, fake := newTestSession(t)
	s.running.Store(true)
	go s.publishLoop()
	defer func() {
		s.running.Store(false)
		close(s.engine.TransmitOut)
		<-s.done
	}()

	frame := make([]float32, dsp.FrameSize)
	for i := range frame {
		frame[i] = 0.1
	}
	s.engine.TransmitOut <- frame

	deadline := time.After(time.Second)
	for {
		if len(fake.frames) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for sink to receive a frame")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if fake.frames[0].SampleRate != 48000 {
		t.Errorf("sample rate: want 48000, got %d", fake.frames[0].SampleRate)
	}
	if fake.frames[0].SeqNum != 1 {
		t.Errorf("seq num: want 1, got %d", fake.frames[0].SeqNum)
	}
}
