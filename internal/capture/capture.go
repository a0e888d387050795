// Package capture implements the audio capture driver: opens an input
// device at its native rate/format, mixes channels to mono, and pushes
// samples into a ring buffer (spec component C).
package capture

import (
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/yasnikoy/rust-voip-core/internal/audiodev"
	"github.com/yasnikoy/rust-voip-core/internal/coreerr"
	"github.com/yasnikoy/rust-voip-core/internal/ring"
)

// blockSize is the number of frames per OS callback. It does not need to
// match the DSP engine's 480-sample frame; the ring buffer decouples them.
const blockSize = 480

// Driver owns an open PortAudio input stream and pushes captured samples
// into Out.
type Driver struct {
	stream *portaudio.Stream
	buf    []float32 // interleaved native-channel-count buffer, one OS block

	// Out receives mono float32 samples, one per captured frame, left-channel
	// downmixed from the native buffer.
	Out *ring.Buffer

	SampleRate float64
	Channels   int

	running atomic.Bool
	wg      sync.WaitGroup
}

// Open resolves id (falling back to a fuzzy card-name match), queries the
// device's native channel count and rate, and opens an input stream. The
// stream is always opened as float32 and PortAudio converts from the
// device's native sample format; the native format is not inspected.
// ErrUnsupportedFormat is returned only for a device with no input
// channels.
func Open(id string) (*Driver, error) {
	dev, err := resolveDevice(id)
	if err != nil {
		return nil, err
	}

	channels := dev.MaxInputChannels
	if channels <= 0 {
		return nil, coreerr.ErrUnsupportedFormat
	}

	sampleRate := dev.DefaultSampleRate
	buf := make([]float32, blockSize*channels)

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: blockSize,
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		stream:     stream,
		buf:        buf,
		Out:        ring.New(),
		SampleRate: sampleRate,
		Channels:   channels,
	}
	return d, nil
}

// resolveDevice resolves id to a PortAudio device, falling back to a fuzzy
// card-name match if the exact identifier is not found.
func resolveDevice(id string) (*portaudio.DeviceInfo, error) {
	if id == "" || id == "default" {
		return portaudio.DefaultInputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.Name == id {
			return d, nil
		}
	}

	card := audiodev.ExtractCard(id)
	if card != "" {
		for _, d := range devices {
			if strings.Contains(d.Name, card) && d.MaxInputChannels > 0 {
				return d, nil
			}
		}
	}

	return nil, coreerr.ErrDeviceNotFound
}

// Start starts the stream and the capture-callback goroutine. The callback
// must not block or panic: conversion failures are logged and the frame is
// dropped, never surfaced as a panic.
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
		if err := d.stream.Read(); err != nil {
			if d.running.Load() {
				log.Printf("[capture] read: %v", err)
			}
			return
		}
		d.pushFrame()
	}
}

// pushFrame selects the first channel of each interleaved frame (left
// downmix) and pushes it into the ring. Overflow is silently dropped by the
// ring itself; this method never panics.
func (d *Driver) pushFrame() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[capture] callback recovered: %v", r)
		}
	}()
	ch := d.Channels
	for i := 0; i < len(d.buf); i += ch {
		d.Out.Push(d.buf[i])
	}
}

// Stop halts the stream (unblocking any in-flight Read) and waits for the
// callback goroutine to exit before returning, so the caller can safely
// close the stream afterward.
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
