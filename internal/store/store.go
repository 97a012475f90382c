package store

import (
	"sync"
	"time"

	"podium/agent/internal/types"
)

// PlaybackState mirrors what remote observers see on the status channel.
type PlaybackState struct {
	CurrentSlide int  `json:"current_slide"`
	IsPresenting bool `json:"is_presenting"`
	IsSpeaking   bool `json:"is_speaking"`
}

// Store holds the agent's playback state and a bounded event log.
type Store struct {
	mu     sync.RWMutex
	state  PlaybackState
	events []types.Event
}

func New() *Store {
	return &Store{state: PlaybackState{CurrentSlide: 1}}
}

func (s *Store) Snapshot() PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) SetCurrentSlide(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 {
		n = 1
	}
	s.state.CurrentSlide = n
}

func (s *Store) SetPresenting(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsPresenting = on
}

func (s *Store) SetSpeaking(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsSpeaking = on
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = PlaybackState{CurrentSlide: 1}
}

func (s *Store) AppendEvent(typ string, payload map[string]any) types.Event {
	evt := types.Event{Type: typ, Ts: time.Now().UTC(), Payload: payload}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	// Cap the log to avoid unbounded growth
	const maxEvents = 200
	if l := len(s.events); l > maxEvents {
		keep := maxEvents - 1
		dropped := l - keep
		s.events = append([]types.Event(nil), s.events[l-keep:]...)
		warn := types.Event{Type: "events_truncated", Ts: time.Now().UTC(), Payload: map[string]any{"dropped": dropped, "kept": keep}}
		s.events = append(s.events, warn)
	}
	return evt
}

func (s *Store) ListEvents() []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Event, len(s.events))
	copy(out, s.events)
	return out
}
