// Package coreerr defines the typed error kinds surfaced by the audio and
// video pipelines. Fatal kinds (DeviceNotFound, UnsupportedFormat) abort
// session creation; the rest describe per-frame or per-backend conditions
// that are recovered locally and only logged.
package coreerr

import "errors"

var (
	// ErrDeviceNotFound: requested audio input cannot be resolved after
	// fuzzy-match fallback. Fatal to session creation.
	ErrDeviceNotFound = errors.New("coreerr: device not found")

	// ErrUnsupportedFormat: device native format is neither float nor
	// signed-16. Fatal to session creation.
	ErrUnsupportedFormat = errors.New("coreerr: unsupported device format")

	// ErrBackendUnavailable: the requested screen-capture backend cannot be
	// initialized. Recoverable: the selector falls back to the next backend.
	ErrBackendUnavailable = errors.New("coreerr: capture backend unavailable")

	// ErrBufferSizeMismatch: BGRA input does not satisfy 4*W*H. The frame is
	// dropped and counted.
	ErrBufferSizeMismatch = errors.New("coreerr: buffer size mismatch")

	// ErrOverflow: ring buffer full; the sample is dropped. Not surfaced to
	// callers outside metrics.
	ErrOverflow = errors.New("coreerr: ring buffer overflow")

	// ErrUnderflow: output ring empty; silence is substituted. Not surfaced
	// to callers outside metrics.
	ErrUnderflow = errors.New("coreerr: ring buffer underflow")

	// ErrTimeout: frame wait elapsed without a frame; the caller retries
	// under the running flag. Not surfaced as a hard failure.
	ErrTimeout = errors.New("coreerr: frame wait timeout")

	// ErrProcessingError: DSP per-frame failure; the frame is dropped and
	// logged at warn level.
	ErrProcessingError = errors.New("coreerr: dsp processing error")

	// ErrShutdownFailure: backend stop returned an error; logged at warn,
	// teardown proceeds regardless.
	ErrShutdownFailure = errors.New("coreerr: shutdown failure")
)
