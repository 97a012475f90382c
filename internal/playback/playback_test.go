package playback

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"podium/agent/internal/speech"
	"podium/agent/internal/status"
	"podium/agent/internal/types"
)

type fakeService struct {
	mu         sync.Mutex
	slides     []types.Slide
	cur        int
	nextCalls  int
	slideCalls []int
	questions  []string
	answer     types.QuestionResponse
	blockNext  chan struct{}
}

func newFakeService(n int) *fakeService {
	s := &fakeService{}
	for i := 1; i <= n; i++ {
		s.slides = append(s.slides, types.Slide{ID: i, Title: fmt.Sprintf("Slide %d", i)})
	}
	return s
}

func (s *fakeService) resp(n int) types.PresentResponse {
	return types.PresentResponse{
		Narration:    fmt.Sprintf("Slide %d narration.", n),
		CurrentSlide: n,
		HasNext:      n < len(s.slides),
	}
}

func (s *fakeService) Topic(ctx context.Context, topic string, numSlides int) ([]types.Slide, error) {
	return s.slides, nil
}

func (s *fakeService) Slides(ctx context.Context) ([]types.Slide, error) {
	return s.slides, nil
}

func (s *fakeService) Start(ctx context.Context) (types.PresentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = 1
	return s.resp(1), nil
}

func (s *fakeService) Next(ctx context.Context) (types.PresentResponse, error) {
	s.mu.Lock()
	s.nextCalls++
	block := s.blockNext
	s.cur++
	n := s.cur
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return types.PresentResponse{}, ctx.Err()
		}
	}
	return s.resp(n), nil
}

func (s *fakeService) Slide(ctx context.Context, n int) (types.PresentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slideCalls = append(s.slideCalls, n)
	s.cur = n
	return s.resp(n), nil
}

func (s *fakeService) Question(ctx context.Context, question string, currentSlide int) (types.QuestionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, question)
	if s.answer.Response != "" {
		return s.answer, nil
	}
	return types.QuestionResponse{Response: "Good question.", TargetSlide: currentSlide}, nil
}

func (s *fakeService) nextCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextCalls
}

// recordingEngine turns every spoken sentence into a record. Narrations in
// these tests are single sentences so utterances map 1:1 to records.
type recordingEngine struct {
	mu     sync.Mutex
	spoken []string
}

func (e *recordingEngine) Speak(ctx context.Context, text string) error {
	e.mu.Lock()
	e.spoken = append(e.spoken, text)
	e.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return nil
}

func (e *recordingEngine) Stop() {}

func (e *recordingEngine) joined() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.Join(e.spoken, " | ")
}

func (e *recordingEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.spoken)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []status.Event
}

func (n *recordingNotifier) Send(evt status.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func newTestController(svc *fakeService, engine speech.Engine, delay time.Duration) (*Controller, *recordingNotifier) {
	notify := &recordingNotifier{}
	speaker := speech.NewSpeaker(engine, nil)
	c := New(svc, speaker, notify, Options{
		AdvanceDelay:   delay,
		ContinuePhrase: "Back to it.",
	})
	return c, notify
}

func TestFullRunNarratesEverySlide(t *testing.T) {
	svc := newFakeService(3)
	engine := &recordingEngine{}
	c, _ := newTestController(svc, engine, 2*time.Millisecond)
	defer c.Close()

	c.Start()
	waitFor(t, func() bool {
		s := c.Snapshot()
		return s.State == StateIdle && !s.IsPresenting && engine.count() >= 3
	}, "presentation to finish")

	got := engine.joined()
	for n := 1; n <= 3; n++ {
		want := fmt.Sprintf("Slide %d narration.", n)
		if !strings.Contains(got, want) {
			t.Fatalf("narration for slide %d missing, spoke: %q", n, got)
		}
	}
	if c := svc.nextCount(); c != 2 {
		t.Fatalf("next calls = %d, want 2", c)
	}
	if s := c.Snapshot(); s.CurrentSlide != 3 {
		t.Fatalf("final slide = %d, want 3", s.CurrentSlide)
	}
}

func TestAskResumesAtInterruptedSlide(t *testing.T) {
	svc := newFakeService(5)
	engine := &recordingEngine{}
	c, notify := newTestController(svc, engine, time.Hour)
	defer c.Close()

	c.Start()
	waitFor(t, func() bool { return c.Snapshot().State == StateAdvancing }, "slide 1 spoken")

	c.Ask("why does this matter?")
	waitFor(t, func() bool {
		return strings.Contains(engine.joined(), "Back to it. | Slide 1 narration.")
	}, "resumption of slide 1")

	if n := svc.nextCount(); n != 0 {
		t.Fatalf("next called %d times during interruption, want 0", n)
	}
	svc.mu.Lock()
	questions := len(svc.questions)
	resumed := len(svc.slideCalls) == 1 && svc.slideCalls[0] == 1
	svc.mu.Unlock()
	if questions != 1 || !resumed {
		t.Fatalf("questions=%d slideCalls=%v, want one question and a re-fetch of slide 1", questions, svc.slideCalls)
	}

	seen := notify.types()
	if idx := indexOf(seen, status.TypeInterrupt); idx < 0 {
		t.Fatalf("no interrupt event announced, got %v", seen)
	}
}

func TestRepeatedInterruptionsResumeEachTime(t *testing.T) {
	svc := newFakeService(4)
	engine := &recordingEngine{}
	c, _ := newTestController(svc, engine, time.Hour)
	defer c.Close()

	c.Start()
	waitFor(t, func() bool { return c.Snapshot().State == StateAdvancing }, "slide 1 spoken")

	for i := 0; i < 3; i++ {
		before := engine.count()
		c.Ask(fmt.Sprintf("question %d", i))
		waitFor(t, func() bool {
			return engine.count() > before && c.Snapshot().State == StateAdvancing
		}, "resumption after question")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(svc.questions))
	}
	for _, n := range svc.slideCalls {
		if n != 1 {
			t.Fatalf("resumed at slide %d, want 1 every time (%v)", n, svc.slideCalls)
		}
	}
}

func TestStopCancelsScheduledAdvance(t *testing.T) {
	svc := newFakeService(3)
	engine := &recordingEngine{}
	c, _ := newTestController(svc, engine, 30*time.Millisecond)
	defer c.Close()

	c.Start()
	waitFor(t, func() bool { return c.Snapshot().State == StateAdvancing }, "slide 1 spoken")
	c.Stop()

	time.Sleep(80 * time.Millisecond)
	if n := svc.nextCount(); n != 0 {
		t.Fatalf("next called %d times after stop, want 0", n)
	}
	s := c.Snapshot()
	if s.State != StateIdle || s.IsPresenting {
		t.Fatalf("state = %v presenting = %v after stop", s.State, s.IsPresenting)
	}
}

func TestStopDropsInFlightContinuation(t *testing.T) {
	svc := newFakeService(3)
	svc.blockNext = make(chan struct{})
	engine := &recordingEngine{}
	c, _ := newTestController(svc, engine, time.Millisecond)
	defer c.Close()

	c.Start()
	waitFor(t, func() bool { return svc.nextCount() == 1 }, "advance fetch to start")

	c.Stop()
	before := engine.count()
	close(svc.blockNext)

	time.Sleep(50 * time.Millisecond)
	if engine.count() != before {
		t.Fatalf("stale continuation spoke after stop: %q", engine.joined())
	}
	if s := c.Snapshot(); s.State != StateIdle {
		t.Fatalf("state = %v, want idle", s.State)
	}
}

func TestNavigateClampsAndRenarrates(t *testing.T) {
	svc := newFakeService(3)
	engine := &recordingEngine{}
	c, _ := newTestController(svc, engine, time.Hour)
	defer c.Close()

	c.Start()
	waitFor(t, func() bool { return c.Snapshot().State == StateAdvancing }, "slide 1 spoken")

	c.Navigate(99)
	waitFor(t, func() bool {
		return strings.Contains(engine.joined(), "Slide 3 narration.")
	}, "clamped navigation to speak slide 3")
	if s := c.Snapshot(); s.CurrentSlide != 3 {
		t.Fatalf("current slide = %d, want 3", s.CurrentSlide)
	}

	c.Navigate(0)
	waitFor(t, func() bool { return c.Snapshot().CurrentSlide == 1 }, "clamp below range to slide 1")
}

func TestNavigateBeforeStartIsIgnored(t *testing.T) {
	svc := newFakeService(3)
	engine := &recordingEngine{}
	c, _ := newTestController(svc, engine, time.Hour)
	defer c.Close()

	// Deck size is unknown until a start reports it, so the pointer must
	// not move off slide 1.
	c.Navigate(99)
	if s := c.Snapshot(); s.CurrentSlide != 1 {
		t.Fatalf("current slide = %d before start, want 1", s.CurrentSlide)
	}
	svc.mu.Lock()
	calls := len(svc.slideCalls)
	svc.mu.Unlock()
	if calls != 0 {
		t.Fatalf("navigate before start fetched %d slides", calls)
	}

	c.Start()
	waitFor(t, func() bool { return c.Snapshot().State == StateAdvancing }, "slide 1 spoken")
	c.Navigate(2)
	waitFor(t, func() bool { return c.Snapshot().CurrentSlide == 2 }, "navigation after start")
}

func TestAnswerMayNavigateBeforeResuming(t *testing.T) {
	svc := newFakeService(5)
	svc.answer = types.QuestionResponse{
		Response:     "That is covered on slide four.",
		TargetSlide:  4,
		SlideChanged: true,
	}
	engine := &recordingEngine{}
	c, notify := newTestController(svc, engine, time.Hour)
	defer c.Close()

	c.Start()
	waitFor(t, func() bool { return c.Snapshot().State == StateAdvancing }, "slide 1 spoken")

	c.Ask("where do you cover deployment?")
	waitFor(t, func() bool {
		return strings.Contains(engine.joined(), "Slide 4 narration.")
	}, "resumption at the answer's target slide")

	svc.mu.Lock()
	resumedAt := svc.slideCalls
	svc.mu.Unlock()
	if len(resumedAt) != 1 || resumedAt[0] != 4 {
		t.Fatalf("resumed at %v, want [4]", resumedAt)
	}

	notify.mu.Lock()
	sawMove := false
	for _, e := range notify.events {
		if e.Type == status.TypeSlideUpdate && e.SlideNumber == 4 {
			sawMove = true
		}
	}
	notify.mu.Unlock()
	if !sawMove {
		t.Fatal("no slide_update announced for the answer's navigation")
	}
}

func TestAskWhileIdleAnswersWithoutResuming(t *testing.T) {
	svc := newFakeService(3)
	engine := &recordingEngine{}
	c, _ := newTestController(svc, engine, time.Hour)
	defer c.Close()

	c.Ask("what is this about?")
	waitFor(t, func() bool {
		return strings.Contains(engine.joined(), "Good question.")
	}, "answer to be spoken")

	waitFor(t, func() bool { return c.Snapshot().State == StateIdle }, "return to idle")
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.slideCalls) != 0 {
		t.Fatalf("idle question triggered narration fetches: %v", svc.slideCalls)
	}
}

func TestFiveSlideScenarioWithQuestionAtSlideTwo(t *testing.T) {
	svc := newFakeService(5)
	engine := &recordingEngine{}
	c, _ := newTestController(svc, engine, 10*time.Millisecond)
	defer c.Close()

	c.Start()
	waitFor(t, func() bool {
		return strings.Contains(engine.joined(), "Slide 2 narration.") &&
			c.Snapshot().State == StateAdvancing
	}, "slide 2 to finish")

	c.Ask("can you explain that again?")
	waitFor(t, func() bool {
		return strings.Contains(engine.joined(), "Back to it. | Slide 2 narration.")
	}, "resumption at slide 2 with the continuation preamble")

	// Playback then carries on to the end of the deck.
	waitFor(t, func() bool {
		s := c.Snapshot()
		return s.State == StateIdle && s.CurrentSlide == 5
	}, "deck to finish after the interruption")

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.slideCalls) != 1 || svc.slideCalls[0] != 2 {
		t.Fatalf("resumed at %v, want [2]", svc.slideCalls)
	}
}

func indexOf(xs []string, want string) int {
	for i, x := range xs {
		if x == want {
			return i
		}
	}
	return -1
}
