package playback

import (
	"context"
	"log"
	"time"

	"podium/agent/internal/present"
	"podium/agent/internal/speech"
	"podium/agent/internal/status"
	"podium/agent/internal/types"
)

// State is the controller's explicit playback state.
type State int

const (
	StateIdle State = iota
	StateSpeaking
	StateAdvancing
	StateAnswering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	case StateAdvancing:
		return "advancing"
	case StateAnswering:
		return "answering"
	}
	return "unknown"
}

// Notifier is the advisory status channel the controller announces on.
type Notifier interface {
	Send(status.Event)
}

// Snapshot is the externally visible playback state.
type Snapshot struct {
	State        State
	CurrentSlide int
	TotalSlides  int
	IsPresenting bool
	IsSpeaking   bool
}

// Commands processed by the run loop. Async completions carry the
// generation they belong to; a mismatch means the user stopped, asked, or
// navigated in the meantime and the completion must be dropped.
type command any

type cmdStart struct{}
type cmdStop struct{}
type cmdAsk struct{ question string }
type cmdNavigate struct{ n int }
type cmdSnapshot struct{ reply chan Snapshot }

type cmdStarted struct {
	gen   uint64
	total int
	resp  types.PresentResponse
	err   error
}

type cmdNarration struct {
	gen    uint64
	resp   types.PresentResponse
	prefix string
	err    error
}

type cmdAnswer struct {
	gen  uint64
	resp types.QuestionResponse
	err  error
}

type cmdSpoken struct {
	gen uint64
	err error
}

type cmdAdvance struct{ gen uint64 }

// Controller drives slide-by-slide narration. All mutable state is owned by
// the run goroutine; the public methods only enqueue commands, so there are
// no stale-closure reads and no locks.
type Controller struct {
	svc            present.Client
	speaker        *speech.Speaker
	notify         Notifier
	advanceDelay   time.Duration
	continuePhrase string

	cmds chan command
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// run-goroutine state
	state        State
	gen          uint64
	currentSlide int
	totalSlides  int
	presenting   bool
	hasNext      bool
	timer        *time.Timer
}

type Options struct {
	AdvanceDelay   time.Duration
	ContinuePhrase string
}

func New(svc present.Client, speaker *speech.Speaker, notify Notifier, opts Options) *Controller {
	if opts.AdvanceDelay <= 0 {
		opts.AdvanceDelay = 1500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		svc:            svc,
		speaker:        speaker,
		notify:         notify,
		advanceDelay:   opts.AdvanceDelay,
		continuePhrase: opts.ContinuePhrase,
		cmds:           make(chan command, 16),
		done:           make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
		state:          StateIdle,
		currentSlide:   1,
	}
	go c.run()
	return c
}

func (c *Controller) Start()         { c.post(cmdStart{}) }
func (c *Controller) Stop()          { c.post(cmdStop{}) }
func (c *Controller) Ask(q string)   { c.post(cmdAsk{question: q}) }
func (c *Controller) Navigate(n int) { c.post(cmdNavigate{n: n}) }

// Snapshot blocks until the run loop reports its state.
func (c *Controller) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	c.post(cmdSnapshot{reply: reply})
	select {
	case s := <-reply:
		return s
	case <-c.done:
		return Snapshot{State: StateIdle, CurrentSlide: 1}
	}
}

// Close shuts the controller down and cancels any active speech.
func (c *Controller) Close() {
	c.cancel()
	c.speaker.Cancel()
	<-c.done
}

func (c *Controller) post(cmd command) {
	select {
	case c.cmds <- cmd:
	case <-c.ctx.Done():
	}
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.stopTimer()
			return
		case cmd := <-c.cmds:
			c.handle(cmd)
		}
	}
}

func (c *Controller) handle(cmd command) {
	switch m := cmd.(type) {
	case cmdStart:
		c.handleStart()
	case cmdStop:
		c.handleStop()
	case cmdAsk:
		c.handleAsk(m.question)
	case cmdNavigate:
		c.handleNavigate(m.n)
	case cmdStarted:
		c.handleStarted(m)
	case cmdNarration:
		c.handleNarration(m)
	case cmdAnswer:
		c.handleAnswer(m)
	case cmdSpoken:
		c.handleSpoken(m)
	case cmdAdvance:
		c.handleAdvance(m)
	case cmdSnapshot:
		m.reply <- Snapshot{
			State:        c.state,
			CurrentSlide: c.currentSlide,
			TotalSlides:  c.totalSlides,
			IsPresenting: c.presenting,
			IsSpeaking:   c.speaker.Speaking(),
		}
	}
}

func (c *Controller) handleStart() {
	if c.presenting {
		return
	}
	c.gen++
	gen := c.gen
	c.presenting = true
	go func() {
		slides, err := c.svc.Slides(c.ctx)
		if err != nil {
			c.post(cmdStarted{gen: gen, err: err})
			return
		}
		resp, err := c.svc.Start(c.ctx)
		c.post(cmdStarted{gen: gen, total: len(slides), resp: resp, err: err})
	}()
}

func (c *Controller) handleStarted(m cmdStarted) {
	if m.gen != c.gen || !c.presenting {
		return
	}
	if m.err != nil {
		log.Printf("[playback] start failed: %v", m.err)
		metricNarrationFailures.Inc()
		c.toIdle()
		return
	}
	c.totalSlides = m.total
	c.beginNarration(m.gen, m.resp, "")
}

func (c *Controller) handleNarration(m cmdNarration) {
	// Reject at the point of resumption, not just at scheduling.
	if m.gen != c.gen || !c.presenting {
		return
	}
	if m.err != nil {
		log.Printf("[playback] narration fetch failed: %v", m.err)
		metricNarrationFailures.Inc()
		c.toIdle()
		return
	}
	c.beginNarration(m.gen, m.resp, m.prefix)
}

// beginNarration announces the slide, then speaks. Status events go out
// before the local state they describe is considered settled.
func (c *Controller) beginNarration(gen uint64, resp types.PresentResponse, prefix string) {
	if resp.CurrentSlide >= 1 {
		c.notify.Send(status.SlideUpdate(resp.CurrentSlide))
		c.currentSlide = resp.CurrentSlide
	}
	c.hasNext = resp.HasNext
	c.setState(StateSpeaking)
	text := resp.Narration
	if prefix != "" {
		text = prefix + " " + text
	}
	c.speak(gen, text)
}

// speak runs the blocking utterance off the actor goroutine and reports
// completion back as a command.
func (c *Controller) speak(gen uint64, text string) {
	go func() {
		c.notify.Send(status.SpeakingStart())
		err := c.speaker.Say(c.ctx, text)
		c.notify.Send(status.SpeakingEnd())
		c.post(cmdSpoken{gen: gen, err: err})
	}()
}

func (c *Controller) handleSpoken(m cmdSpoken) {
	if m.gen != c.gen {
		return
	}
	if m.err == speech.ErrCancelled {
		// An interrupt or stop owns the next transition.
		return
	}
	if m.err != nil {
		log.Printf("[playback] speech failed: %v", m.err)
		c.toIdle()
		return
	}

	switch c.state {
	case StateSpeaking:
		if !c.presenting {
			return
		}
		if !c.hasNext {
			// Presentation finished.
			c.toIdle()
			return
		}
		c.setState(StateAdvancing)
		gen := c.gen
		c.timer = time.AfterFunc(c.advanceDelay, func() {
			c.post(cmdAdvance{gen: gen})
		})

	case StateAnswering:
		if !c.presenting {
			c.setState(StateIdle)
			return
		}
		// Resume the slide we were on when interrupted (or the slide the
		// answer navigated to), never auto-advance past it.
		gen := c.gen
		slide := c.currentSlide
		c.fetchNarration(gen, c.continuePhrase, func(ctx context.Context) (types.PresentResponse, error) {
			return c.svc.Slide(ctx, slide)
		})
	}
}

func (c *Controller) handleAdvance(m cmdAdvance) {
	// A delayed continuation may fire after the user stopped: check the
	// latest flags here, not the ones captured at scheduling time.
	if m.gen != c.gen || !c.presenting {
		return
	}
	c.fetchNarration(m.gen, "", c.svc.Next)
}

func (c *Controller) fetchNarration(gen uint64, prefix string, fetch func(context.Context) (types.PresentResponse, error)) {
	go func() {
		resp, err := fetch(c.ctx)
		c.post(cmdNarration{gen: gen, resp: resp, prefix: prefix, err: err})
	}()
}

func (c *Controller) handleAsk(question string) {
	if question == "" {
		return
	}
	metricInterrupts.Inc()
	// Invalidate every pending continuation before anything else.
	c.gen++
	gen := c.gen
	c.stopTimer()
	c.speaker.Cancel()
	c.notify.Send(status.Interrupt())
	c.setState(StateAnswering)

	slide := c.currentSlide
	go func() {
		resp, err := c.svc.Question(c.ctx, question, slide)
		c.post(cmdAnswer{gen: gen, resp: resp, err: err})
	}()
}

func (c *Controller) handleAnswer(m cmdAnswer) {
	if m.gen != c.gen || c.state != StateAnswering {
		return
	}
	if m.err != nil {
		log.Printf("[playback] question failed: %v", m.err)
		metricNarrationFailures.Inc()
		c.toIdle()
		return
	}
	if m.resp.TargetSlide >= 1 {
		c.notify.Send(status.SlideUpdate(m.resp.TargetSlide))
		c.currentSlide = m.resp.TargetSlide
	}
	c.speak(m.gen, m.resp.Response)
}

func (c *Controller) handleNavigate(n int) {
	// Until a start has reported the deck size there is no upper bound to
	// clamp against, so the slide pointer would be unverifiable.
	if c.totalSlides == 0 {
		return
	}
	n = c.clamp(n)
	c.notify.Send(status.SlideUpdate(n))
	c.currentSlide = n
	if !c.presenting {
		return
	}
	// Re-narrate the target slide, abandoning whatever was in flight.
	c.gen++
	gen := c.gen
	c.stopTimer()
	c.speaker.Cancel()
	c.fetchNarration(gen, "", func(ctx context.Context) (types.PresentResponse, error) {
		return c.svc.Slide(ctx, n)
	})
}

func (c *Controller) handleStop() {
	c.gen++
	c.stopTimer()
	c.speaker.Cancel()
	c.toIdle()
}

func (c *Controller) toIdle() {
	c.presenting = false
	c.setState(StateIdle)
}

func (c *Controller) clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > c.totalSlides {
		return c.totalSlides
	}
	return n
}

func (c *Controller) setState(to State) {
	from := c.state
	if from == to {
		return
	}
	metricStateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	c.state = to
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
