package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

type utterance struct {
	cancel context.CancelFunc
}

// Speaker is the speech output adapter. At most one utterance is active:
// starting a new Say cancels any pending one, and Cancel resolves the
// pending Say immediately with ErrCancelled.
type Speaker struct {
	engine  Engine
	onState func(speaking bool)

	mu      sync.Mutex
	current *utterance

	tokenizer *sentences.DefaultSentenceTokenizer
}

func NewSpeaker(engine Engine, onState func(bool)) *Speaker {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		tok = nil
	}
	return &Speaker{engine: engine, onState: onState, tokenizer: tok}
}

// Say speaks text sentence by sentence so a Cancel takes effect between
// sentences rather than after the whole narration.
func (s *Speaker) Say(ctx context.Context, text string) error {
	ctx, cancel := context.WithCancel(ctx)
	u := &utterance{cancel: cancel}

	s.mu.Lock()
	prev := s.current
	s.current = u
	s.mu.Unlock()
	if prev != nil {
		prev.cancel()
		s.engine.Stop()
	}

	if s.onState != nil {
		s.onState(true)
	}
	start := time.Now()
	metricUtterances.Inc()

	err := s.say(ctx, text)

	s.mu.Lock()
	if s.current == u {
		s.current = nil
	}
	s.mu.Unlock()
	cancel()

	if s.onState != nil {
		s.onState(false)
	}
	metricUtteranceSeconds.Observe(time.Since(start).Seconds())
	return err
}

func (s *Speaker) say(ctx context.Context, text string) error {
	for _, sentence := range s.split(text) {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		if err := s.engine.Speak(ctx, sentence); err != nil {
			if ctx.Err() != nil {
				return ErrCancelled
			}
			return err
		}
	}
	if ctx.Err() != nil {
		return ErrCancelled
	}
	return nil
}

// Cancel forces immediate resolution of any pending Say.
func (s *Speaker) Cancel() {
	s.mu.Lock()
	u := s.current
	s.current = nil
	s.mu.Unlock()
	if u != nil {
		metricCancels.Inc()
		u.cancel()
	}
	s.engine.Stop()
}

func (s *Speaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *Speaker) split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if s.tokenizer == nil {
		return []string{text}
	}
	toks := s.tokenizer.Tokenize(text)
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		if t := strings.TrimSpace(tok.Text); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
