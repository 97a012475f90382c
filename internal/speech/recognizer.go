package speech

import (
	"context"
	"errors"
	"log"
)

// Recognizer is the speech input adapter.
type Recognizer struct {
	engine RecognitionEngine
}

func NewRecognizer(engine RecognitionEngine) *Recognizer {
	return &Recognizer{engine: engine}
}

// Supported lets callers degrade gracefully when no engine is usable.
func (r *Recognizer) Supported() bool {
	return r.engine != nil && r.engine.Supported()
}

// Listen runs one capture and returns the final transcript.
func (r *Recognizer) Listen(ctx context.Context) (string, error) {
	if !r.Supported() {
		return "", ErrUnsupported
	}
	return r.engine.Listen(ctx)
}

// Continuous keeps capturing, invoking onFinal for each transcript. A
// transient no-speech error restarts the capture; permission denial and
// user aborts end it.
func (r *Recognizer) Continuous(ctx context.Context, onFinal func(string)) error {
	if !r.Supported() {
		return ErrUnsupported
	}
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		text, err := r.engine.Listen(ctx)
		switch {
		case err == nil:
			if text != "" {
				onFinal(text)
			}
		case errors.Is(err, ErrNoSpeech):
			metricRecognizerRestarts.Inc()
			log.Printf("[speech] no speech, restarting capture")
		case errors.Is(err, ErrNotAllowed), errors.Is(err, ErrAborted):
			return err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			return err
		}
	}
}
