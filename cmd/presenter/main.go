package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"podium/agent/internal/auth"
	"podium/agent/internal/config"
	"podium/agent/internal/playback"
	"podium/agent/internal/present"
	"podium/agent/internal/speech"
	"podium/agent/internal/status"
)

var (
	serverURL = flag.String("server", "http://localhost:8080", "presentation server base URL")
)

// presenter is the interactive terminal client. Narration is spoken through
// the console engine and every non-command input line is treated as a spoken
// question, so typing interrupts the same way a voice question would.
func main() {
	_ = godotenv.Load()
	flag.Parse()

	cfg := config.Load()

	svc := present.NewClient(*serverURL)
	engine := speech.NewConsoleEngine(os.Stdout, cfg.Speech.WordsPerMinute)
	speaker := speech.NewSpeaker(engine, nil)

	statusURL := cfg.Status.URL
	if cfg.Status.Secret != "" {
		exp := time.Now().Add(12 * time.Hour).Unix()
		statusURL += "?token=" + auth.GenerateClientToken(cfg.Status.Secret, "presenter", exp)
	}
	ch := status.Dial(statusURL, time.Duration(cfg.Status.ReconnectMs)*time.Millisecond)
	defer ch.Close()

	ctrl := playback.New(svc, speaker, ch, playback.Options{
		AdvanceDelay:   time.Duration(cfg.Present.AdvanceDelayMs) * time.Millisecond,
		ContinuePhrase: cfg.Present.ContinuePhrase,
	})
	defer ctrl.Close()

	fmt.Println("commands: topic <subject> | start | stop | goto <n> | status | quit")
	fmt.Println("anything else is asked as a question (interrupts narration)")

	mic := speech.NewRecognizer(speech.NewLineEngine(os.Stdin, os.Stdout))
	err := mic.Continuous(context.Background(), func(line string) {
		handle(cfg, svc, ctrl, line)
	})
	if err != nil && err != speech.ErrAborted {
		log.Printf("input closed: %v", err)
	}
}

func handle(cfg config.Config, svc present.Client, ctrl *playback.Controller, line string) {
	line = strings.TrimSpace(line)
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "quit", "exit":
		ctrl.Stop()
		os.Exit(0)
	case "topic":
		if rest == "" {
			fmt.Println("usage: topic <subject>")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		slides, err := svc.Topic(ctx, rest, cfg.Present.DefaultSlides)
		if err != nil {
			log.Printf("topic failed: %v", err)
			return
		}
		fmt.Printf("generated %d slides on %q\n", len(slides), rest)
	case "start":
		ctrl.Start()
	case "stop":
		ctrl.Stop()
	case "goto":
		n, err := strconv.Atoi(rest)
		if err != nil {
			fmt.Println("usage: goto <n>")
			return
		}
		ctrl.Navigate(n)
	case "status":
		s := ctrl.Snapshot()
		fmt.Printf("state=%s slide=%d/%d presenting=%v speaking=%v\n",
			s.State, s.CurrentSlide, s.TotalSlides, s.IsPresenting, s.IsSpeaking)
	default:
		ctrl.Ask(line)
	}
}
