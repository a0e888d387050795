// Package playback implements the audio playback driver: opens the output
// device at its native rate/channel count and fans a mono ring buffer out
// across however many channels the device wants (spec component D).
package playback

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/yasnikoy/rust-voip-core/internal/ring"
)

const blockSize = 480

// Driver owns an open PortAudio output stream fed from In.
type Driver struct {
	stream *portaudio.Stream
	buf    []float32

	// In supplies mono float32 samples, one per output frame. Underflow is
	// not backpressure: a missing sample is substituted with silence.
	In *ring.Buffer

	SampleRate float64
	Channels   int

	running atomic.Bool
	wg      sync.WaitGroup
}

// Open opens the default output device at its native configuration. The
// spec only requires the playback side to go to the system default; device
// selection is a capture-side concern.
func Open() (*Driver, error) {
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return nil, err
	}

	channels := dev.MaxOutputChannels
	if channels <= 0 {
		channels = 2
	}
	sampleRate := dev.DefaultSampleRate
	buf := make([]float32, blockSize*channels)

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: blockSize,
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, err
	}

	return &Driver{
		stream:     stream,
		buf:        buf,
		In:         ring.New(),
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// Start starts the stream and the fan-out feeder goroutine.
func (d *Driver) Start() error {
	if err := d.stream.Start(); err != nil {
		return err
	}
	d.running.Store(true)
	d.wg.Add(1)
	go d.loop()
	return nil
}

func (d *Driver) loop() {
	defer d.wg.Done()
	for d.running.Load() {
		d.fillFrame()
		if err := d.stream.Write(); err != nil {
			if d.running.Load() {
				log.Printf("[playback] write: %v", err)
			}
			return
		}
	}
}

// fillFrame replicates each mono sample from In across Channels, one output
// frame at a time. An empty ring substitutes silence rather than blocking.
func (d *Driver) fillFrame() {
	ch := d.Channels
	for i := 0; i < len(d.buf); i += ch {
		s, ok := d.In.Pop()
		if !ok {
			s = 0
		}
		for c := 0; c < ch; c++ {
			d.buf[i+c] = s
		}
	}
}

// Stop halts the stream (unblocking any in-flight Write) and waits for the
// feeder goroutine to exit before returning.
func (d *Driver) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}
	d.stream.Stop()
	d.wg.Wait()
}

// Close releases the underlying PortAudio stream. Call after Stop.
func (d *Driver) Close() error {
	return d.stream.Close()
}
