// Package sink defines the boundary contract between the core pipelines
// and a caller-owned publisher (typically a WebRTC SFU client). The core
// hands frames/samples across this boundary and never retains them
// afterward.
package sink

// AudioFrame is handed to the audio sink once per DSP frame (480 samples
// at SampleRate), Opus-encodable downstream via internal/codec.
type AudioFrame struct {
	Samples    []float32
	SampleRate int
	SeqNum     uint32
}

// VideoFrame mirrors the video frame descriptor delivered by the video
// frame pump.
type VideoFrame struct {
	Width       int
	Height      int
	Y, U, V     []byte
	TimestampUs int64
	Rotation    int
}

// AudioSink receives processed audio frames ready for publishing.
type AudioSink interface {
	PublishAudio(AudioFrame) error
}

// VideoSink receives converted, paced video frames ready for publishing.
type VideoSink interface {
	PublishVideo(VideoFrame) error
}

// Both AudioFrame and VideoFrame are plain data: no pointers into
// pipeline-owned buffers survive past the call, so an implementation may
// retain them without copying, but must not mutate them.
