package speech

import (
	"context"
	"errors"
)

var (
	// ErrCancelled resolves a pending utterance that was cut off by Cancel
	// or by a newer utterance taking its place.
	ErrCancelled = errors.New("speech: utterance cancelled")

	// ErrNoSpeech is a transient recognition failure; continuous mode
	// restarts after it.
	ErrNoSpeech = errors.New("speech: no speech detected")

	// ErrNotAllowed means the user denied capture permission. Never retried.
	ErrNotAllowed = errors.New("speech: permission denied")

	// ErrAborted means the capture was cancelled by the user.
	ErrAborted = errors.New("speech: capture aborted")

	// ErrUnsupported means the platform has no usable engine.
	ErrUnsupported = errors.New("speech: not supported")
)

// Engine is a platform text-to-speech capability. Speak blocks until the
// utterance finishes or ctx is cancelled; Stop halts any active utterance.
type Engine interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// RecognitionEngine is a platform speech-recognition capability. Listen
// blocks for one capture and returns the final transcript.
type RecognitionEngine interface {
	Supported() bool
	Listen(ctx context.Context) (string, error)
}
