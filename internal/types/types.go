package types

import "time"

type Event struct {
	Type    string         `json:"type"`
	Ts      time.Time      `json:"timestamp"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Slide is immutable once generated; a new topic replaces the whole deck.
type Slide struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Content      []string `json:"content"`
	SpeakerNotes string   `json:"speaker_notes,omitempty"`
}

type PresentResponse struct {
	Narration    string `json:"narration"`
	CurrentSlide int    `json:"current_slide"`
	HasNext      bool   `json:"has_next"`
	NextSlide    *int   `json:"next_slide,omitempty"`
}

type QuestionResponse struct {
	Response     string `json:"response"`
	TargetSlide  int    `json:"target_slide"`
	SlideChanged bool   `json:"slide_changed"`
}

// ChatMessage is a single turn of the legacy /api/chat history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PastPresentation struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Slides    []Slide   `json:"slides"`
	CreatedAt time.Time `json:"created_at"`
}
