package codec

import (
	"math"
	"testing"
)

func sineFrame(freq float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.3 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc, err := NewOpusEncoder(32000)
	if err != nil {
		t.Fatalf("NewOpusEncoder: %v", err)
	}
	dec, err := NewOpusDecoder()
	if err != nil {
		t.Fatalf("NewOpusDecoder: %v", err)
	}

	frame := sineFrame(440, 480)
	payload, err := enc.Encode(frame)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(payload) == 0 {
		t.Fatal("Encode produced an empty payload")
	}

	out, err := dec.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 480 {
		t.Errorf("decoded frame length: want 480, got %d", len(out))
	}
}

func TestDecodePLCOnNilPayload(t *testing.T) {
	dec, err := NewOpusDecoder()
	if err != nil {
		t.Fatalf("NewOpusDecoder: %v", err)
	}
	// First decode a real frame so the decoder has state to conceal from.
	enc, err := NewOpusEncoder(32000)
	if err != nil {
		t.Fatalf("NewOpusEncoder: %v", err)
	}
	payload, err := enc.Encode(sineFrame(440, 480))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := dec.Decode(payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	concealed, err := dec.Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil) PLC: %v", err)
	}
	if len(concealed) == 0 {
		t.Error("PLC decode produced no samples")
	}
}

func TestSetBitrateAndPacketLoss(t *testing.T) {
	enc, err := NewOpusEncoder(32000)
	if err != nil {
		t.Fatalf("NewOpusEncoder: %v", err)
	}
	if err := enc.SetBitrate(16000); err != nil {
		t.Errorf("SetBitrate: %v", err)
	}
	if err := enc.SetPacketLossPerc(10); err != nil {
		t.Errorf("SetPacketLossPerc: %v", err)
	}
}

func TestAdaptBitrateStepsDownOnHighLoss(t *testing.T) {
	enc, err := NewOpusEncoder(32000)
	if err != nil {
		t.Fatalf("NewOpusEncoder: %v", err)
	}
	got, err := enc.AdaptBitrate(0.10, 50)
	if err != nil {
		t.Fatalf("AdaptBitrate: %v", err)
	}
	if got != 24000 {
		t.Errorf("AdaptBitrate(0.10, 50) = %d, want 24000", got)
	}
	if enc.bitrate != 24000 {
		t.Errorf("encoder bitrate not updated: got %d", enc.bitrate)
	}
}

func TestAdaptBitrateHoldsOnGoodConditionsAtTopRung(t *testing.T) {
	enc, err := NewOpusEncoder(48000)
	if err != nil {
		t.Fatalf("NewOpusEncoder: %v", err)
	}
	got, err := enc.AdaptBitrate(0.0, 20)
	if err != nil {
		t.Fatalf("AdaptBitrate: %v", err)
	}
	if got != 48000 {
		t.Errorf("AdaptBitrate at top rung = %d, want 48000 (hold)", got)
	}
}
