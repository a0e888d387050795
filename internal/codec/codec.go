// Package codec wraps Opus encoding of processed DSP frames for the audio
// sink boundary. SDP negotiation and RTP packetization remain the SFU
// client's job; this package only turns a 480-sample frame into an Opus
// payload.
package codec

import (
	"gopkg.in/hraban/opus.v2"

	"github.com/yasnikoy/rust-voip-core/internal/adapt"
)

const (
	sampleRate = 48000
	channels   = 1

	// opusMaxPacketBytes is RFC 6716's max Opus packet size.
	opusMaxPacketBytes = 1275
)

// OpusEncoder wraps a libopus encoder configured for the DSP engine's
// mono 48 kHz output.
type OpusEncoder struct {
	enc     *opus.Encoder
	buf     []byte
	bitrate int // current target, bps; tracked for AdaptBitrate's ladder lookup
}

// NewOpusEncoder constructs an encoder at the given target bitrate (bps),
// tuned for voice (VoIP application profile), with DTX and in-band FEC
// enabled.
func NewOpusEncoder(bitrate int) (*OpusEncoder, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, err
	}
	enc.SetBitrate(bitrate)
	enc.SetDTX(true)
	enc.SetInBandFEC(true)
	return &OpusEncoder{enc: enc, buf: make([]byte, opusMaxPacketBytes), bitrate: bitrate}, nil
}

// SetBitrate changes the target bitrate (bps) on the fly.
func (e *OpusEncoder) SetBitrate(bitrate int) error {
	if err := e.enc.SetBitrate(bitrate); err != nil {
		return err
	}
	e.bitrate = bitrate
	return nil
}

// AdaptBitrate steps the encoder's target bitrate up or down adapt's ladder
// based on network quality reported by the caller's transport (packet loss
// rate in [0,1] and round-trip time in milliseconds), and applies the
// result. It also tells the encoder the observed loss so FEC redundancy
// tracks it. Returns the new bitrate in bps.
func (e *OpusEncoder) AdaptBitrate(lossRate, rttMs float64) (int, error) {
	next := adapt.NextBitrate(e.bitrate/1000, lossRate, rttMs) * 1000
	if err := e.SetBitrate(next); err != nil {
		return e.bitrate, err
	}
	if err := e.SetPacketLossPerc(int(lossRate * 100)); err != nil {
		return e.bitrate, err
	}
	return e.bitrate, nil
}

// SetPacketLossPerc tells the encoder the expected packet loss percentage
// so it can tune FEC redundancy.
func (e *OpusEncoder) SetPacketLossPerc(pct int) error {
	return e.enc.SetPacketLossPerc(pct)
}

// Encode converts a 480-sample mono float32 frame in [-1.0, 1.0] to an Opus
// payload. The returned slice is only valid until the next call to Encode.
func (e *OpusEncoder) Encode(frame []float32) ([]byte, error) {
	pcm := make([]int16, len(frame))
	for i, s := range frame {
		v := s
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		pcm[i] = int16(v * 32767)
	}
	n, err := e.enc.Encode(pcm, e.buf)
	if err != nil {
		return nil, err
	}
	return e.buf[:n], nil
}

// OpusDecoder wraps a libopus decoder for the playback path.
type OpusDecoder struct {
	dec *opus.Decoder
}

// NewOpusDecoder constructs a decoder for mono 48 kHz playback.
func NewOpusDecoder() (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &OpusDecoder{dec: dec}, nil
}

// Decode decodes an Opus payload into a float32 PCM frame in [-1.0, 1.0].
// Pass a nil payload to invoke packet-loss concealment.
func (d *OpusDecoder) Decode(payload []byte) ([]float32, error) {
	pcm := make([]int16, 5760) // max frame size at 48 kHz (120 ms)
	n, err := d.dec.Decode(payload, pcm)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(pcm[i]) / 32768.0
	}
	return out, nil
}
