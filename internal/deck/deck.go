package deck

import (
	"fmt"
	"strings"
	"sync"

	"podium/agent/internal/types"
)

// Deck holds the current presentation's slides. A new topic replaces the
// whole deck; individual slides are never mutated after generation.
type Deck struct {
	mu     sync.RWMutex
	topic  string
	slides []types.Slide
}

func New() *Deck { return &Deck{} }

// SetSlides replaces the deck and renumbers slide IDs 1..n.
func (d *Deck) SetSlides(topic string, slides []types.Slide) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range slides {
		slides[i].ID = i + 1
	}
	d.topic = topic
	d.slides = slides
}

func (d *Deck) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.topic = ""
	d.slides = nil
}

func (d *Deck) Topic() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.topic
}

func (d *Deck) HasSlides() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.slides) > 0
}

func (d *Deck) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.slides)
}

// Slide returns the slide with the given 1-based ID, or nil when out of range.
func (d *Deck) Slide(id int) *types.Slide {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id < 1 || id > len(d.slides) {
		return nil
	}
	s := d.slides[id-1]
	return &s
}

// Slides returns a copy of all slides.
func (d *Deck) Slides() []types.Slide {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]types.Slide, len(d.slides))
	copy(out, d.slides)
	return out
}

// Clamp forces n into [1, count]. With an empty deck it returns 1.
func (d *Deck) Clamp(n int) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n < 1 {
		return 1
	}
	if len(d.slides) > 0 && n > len(d.slides) {
		return len(d.slides)
	}
	return n
}

// Context renders a plain-text summary of the deck for LLM prompting.
func (d *Deck) Context() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.slides) == 0 {
		return "No slides available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Presentation topic: %s\n", d.topic)
	b.WriteString("Presentation slides:\n")
	for _, s := range d.slides {
		fmt.Fprintf(&b, "\nSlide %d: %s\n", s.ID, s.Title)
		for _, point := range s.Content {
			fmt.Fprintf(&b, "  - %s\n", point)
		}
	}
	return b.String()
}
