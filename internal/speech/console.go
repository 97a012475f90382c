package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ConsoleEngine renders narration to a terminal, pacing each sentence by a
// words-per-minute rate so playback timing behaves like real TTS.
type ConsoleEngine struct {
	w   io.Writer
	wpm int

	mu   sync.Mutex
	stop context.CancelFunc
}

func NewConsoleEngine(w io.Writer, wordsPerMinute int) *ConsoleEngine {
	if wordsPerMinute <= 0 {
		wordsPerMinute = 160
	}
	return &ConsoleEngine{w: w, wpm: wordsPerMinute}
}

func (e *ConsoleEngine) Speak(ctx context.Context, text string) error {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.stop = cancel
	e.mu.Unlock()
	defer cancel()

	fmt.Fprintf(e.w, "🗣  %s\n", text)

	words := len(strings.Fields(text))
	d := time.Duration(float64(words) / float64(e.wpm) * float64(time.Minute))
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *ConsoleEngine) Stop() {
	e.mu.Lock()
	stop := e.stop
	e.stop = nil
	e.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// LineEngine captures "speech" as lines typed on a terminal. An empty line
// is treated as transient silence; end of input aborts the capture.
type LineEngine struct {
	mu sync.Mutex
	sc *bufio.Scanner
	w  io.Writer
}

func NewLineEngine(r io.Reader, w io.Writer) *LineEngine {
	return &LineEngine{sc: bufio.NewScanner(r), w: w}
}

func (e *LineEngine) Supported() bool { return e.sc != nil }

func (e *LineEngine) Listen(ctx context.Context) (string, error) {
	if e.w != nil {
		fmt.Fprint(e.w, "🎤 ")
	}
	type lineResult struct {
		text string
		err  error
	}
	ch := make(chan lineResult, 1)
	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.sc.Scan() {
			if err := e.sc.Err(); err != nil {
				ch <- lineResult{err: err}
				return
			}
			ch <- lineResult{err: ErrAborted}
			return
		}
		ch <- lineResult{text: strings.TrimSpace(e.sc.Text())}
	}()
	select {
	case res := <-ch:
		if res.err != nil {
			return "", res.err
		}
		if res.text == "" {
			return "", ErrNoSpeech
		}
		return res.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
