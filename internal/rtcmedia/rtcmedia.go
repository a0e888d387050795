// Package rtcmedia adapts the core's own frame/payload types into
// pion/webrtc's media.Sample, as far as the core goes toward "publishable
// tracks." Actual TrackLocalStaticSample creation and SDP negotiation
// remain the SFU client's job.
package rtcmedia

import (
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
)

// AudioSample wraps an Opus payload as a media.Sample for one 10 ms frame.
func AudioSample(opusPayload []byte) media.Sample {
	return media.Sample{
		Data:     opusPayload,
		Duration: 10 * time.Millisecond,
	}
}

// VideoSample wraps an encoded video payload as a media.Sample. duration is
// the frame's presentation interval, derived by the caller from the
// session's target FPS.
func VideoSample(encoded []byte, duration time.Duration) media.Sample {
	return media.Sample{
		Data:     encoded,
		Duration: duration,
	}
}

// FrameDuration returns the nominal inter-frame interval for fps frames
// per second.
func FrameDuration(fps int) time.Duration {
	if fps <= 0 {
		fps = 30
	}
	return time.Second / time.Duration(fps)
}
