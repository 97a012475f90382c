package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	ws "nhooyr.io/websocket"

	"podium/agent/internal/present"
	"podium/agent/internal/status"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "presentation server base URL")
	topic := flag.String("topic", "The history of the bicycle", "topic to generate")
	slides := flag.Int("slides", 3, "number of slides")
	question := flag.String("question", "What year was that?", "question to interrupt with")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := present.NewClient(*server)

	// Watch the status channel alongside the HTTP flow.
	wsURL := "ws" + strings.TrimPrefix(*server, "http") + "/ws"
	conn, _, err := ws.Dial(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("dial status channel: %v", err)
	}
	defer conn.Close(ws.StatusNormalClosure, "done")
	go func() {
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var evt status.Event
			if json.Unmarshal(data, &evt) == nil {
				fmt.Printf("[ws] %s slide=%d\n", evt.Type, evt.SlideNumber)
			}
		}
	}()

	deck, err := svc.Topic(ctx, *topic, *slides)
	if err != nil {
		log.Fatalf("topic: %v", err)
	}
	fmt.Printf("generated %d slides\n", len(deck))

	start, err := svc.Start(ctx)
	if err != nil {
		log.Fatalf("present start: %v", err)
	}
	fmt.Printf("slide %d: %s\n", start.CurrentSlide, start.Narration)

	next, err := svc.Next(ctx)
	if err != nil {
		log.Fatalf("present next: %v", err)
	}
	fmt.Printf("slide %d: %s\n", next.CurrentSlide, next.Narration)

	ans, err := svc.Question(ctx, *question, next.CurrentSlide)
	if err != nil {
		log.Fatalf("question: %v", err)
	}
	fmt.Printf("answer (target slide %d): %s\n", ans.TargetSlide, ans.Response)

	resume, err := svc.Slide(ctx, ans.TargetSlide)
	if err != nil {
		log.Fatalf("resume: %v", err)
	}
	fmt.Printf("resumed slide %d: %s\n", resume.CurrentSlide, resume.Narration)

	fmt.Println("OK")
}
