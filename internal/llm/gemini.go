package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"podium/agent/internal/types"
)

// AnswerResult is the outcome of a question interruption: the spoken reply
// plus any slide navigation the model requested.
type AnswerResult struct {
	Response     string
	TargetSlide  int
	SlideChanged bool
}

type Client interface {
	GenerateSlides(ctx context.Context, topic string, numSlides int) ([]types.Slide, error)
	Narration(ctx context.Context, slide types.Slide) (string, error)
	Answer(ctx context.Context, question string, currentSlide int, deckContext string, total int) (AnswerResult, error)
	Chat(ctx context.Context, message string, history []types.ChatMessage, currentSlide int, deckContext string, total int) (AnswerResult, error)
}

type HTTPClient struct {
	http       *http.Client
	apiKey     string
	base       string
	model      string
	slideModel string
}

func NewClient(apiKey, base, model, slideModel string) *HTTPClient {
	return &HTTPClient{
		http:       &http.Client{},
		apiKey:     apiKey,
		base:       base,
		model:      model,
		slideModel: slideModel,
	}
}

// generateContent request/response shapes (Gemini REST).
type genPart struct {
	Text string `json:"text"`
}

type genContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []genPart `json:"parts"`
}

type genRequest struct {
	SystemInstruction *genContent  `json:"system_instruction,omitempty"`
	Contents          []genContent `json:"contents"`
}

type genResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

// generate issues one generateContent call and returns the first candidate's text.
func (c *HTTPClient) generate(ctx context.Context, model, system string, contents []genContent) (string, error) {
	body := genRequest{Contents: contents}
	if system != "" {
		body.SystemInstruction = &genContent{Parts: []genPart{{Text: system}}}
	}
	var out bytes.Buffer
	if err := json.NewEncoder(&out).Encode(body); err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.base, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &out)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("llm generate: %s: %s", resp.Status, string(b))
	}
	var parsed genResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("llm generate: empty response")
	}
	var text strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("llm generate: empty candidate text")
	}
	return text.String(), nil
}

const slideGenSystem = `You are an expert presentation creator. Generate clear, well-structured presentation slides.
Always respond with valid JSON only, no markdown or extra text.`

func (c *HTTPClient) GenerateSlides(ctx context.Context, topic string, numSlides int) ([]types.Slide, error) {
	prompt := fmt.Sprintf(`Create a %d-slide presentation about: %q

This is for a 1:1 presentation (presenter speaking directly to one person).

Generate exactly %d slides as a JSON array of objects with keys
"id" (int), "title" (string), "content" (array of strings) and
"speaker_notes" (string, 2-3 sentences for the presenter).

Requirements:
- Slide 1: Introduction to the topic
- Slides 2-%d: Core content with 3-5 bullet points each
- Slide %d: Summary and wrap-up
- Make content clear and educational
- Speaker notes should be conversational and personal

Return ONLY the JSON array, no other text.`, numSlides, topic, numSlides, numSlides-1, numSlides)

	text, err := c.generate(ctx, c.slideModel, slideGenSystem, []genContent{{Role: "user", Parts: []genPart{{Text: prompt}}}})
	if err != nil {
		return nil, fmt.Errorf("generate slides: %w", err)
	}

	var slides []types.Slide
	if err := json.Unmarshal([]byte(stripFences(text)), &slides); err != nil {
		return nil, fmt.Errorf("generate slides: parse: %w", err)
	}
	for i := range slides {
		slides[i].ID = i + 1
	}
	return slides, nil
}

func (c *HTTPClient) Narration(ctx context.Context, slide types.Slide) (string, error) {
	var points strings.Builder
	for _, p := range slide.Content {
		fmt.Fprintf(&points, "- %s\n", p)
	}
	prompt := fmt.Sprintf(`Generate a brief, engaging narration for this slide:

Title: %s
Content:
%s
Speaker Notes: %s

Keep it conversational and under 30 seconds. Don't read bullet points verbatim.`,
		slide.Title, points.String(), slide.SpeakerNotes)

	text, err := c.generate(ctx, c.model, "You are an engaging presentation narrator.",
		[]genContent{{Role: "user", Parts: []genPart{{Text: prompt}}}})
	if err != nil {
		return "", fmt.Errorf("narration slide %d: %w", slide.ID, err)
	}
	return strings.TrimSpace(text), nil
}

// answerSystem instructs the model to emit a plain-text navigation directive
// as its last line instead of calling a tool.
func answerSystem(deckContext string, total int) string {
	return fmt.Sprintf(`You are an AI presentation assistant. You have %d slides to present.

%s

Your role:
1. Answer questions from the audience naturally
2. Keep responses conversational and concise (2-4 sentences typically)
3. If the question relates to a different slide, or the user asks to move,
   end your reply with one directive on its own final line:
   GOTO_SLIDE: <number>   or   NEXT_SLIDE   or   PREVIOUS_SLIDE
   Otherwise emit no directive.

You're speaking to an audience, so be engaging but professional.`, total, deckContext)
}

func (c *HTTPClient) Answer(ctx context.Context, question string, currentSlide int, deckContext string, total int) (AnswerResult, error) {
	user := fmt.Sprintf("[Current slide: %d]\n\nUser: %s", currentSlide, question)
	text, err := c.generate(ctx, c.model, answerSystem(deckContext, total),
		[]genContent{{Role: "user", Parts: []genPart{{Text: user}}}})
	if err != nil {
		return AnswerResult{}, fmt.Errorf("answer question: %w", err)
	}
	return parseAnswer(text, currentSlide, total), nil
}

func (c *HTTPClient) Chat(ctx context.Context, message string, history []types.ChatMessage, currentSlide int, deckContext string, total int) (AnswerResult, error) {
	contents := make([]genContent, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		if m.Role != "user" {
			role = "model"
		}
		contents = append(contents, genContent{Role: role, Parts: []genPart{{Text: m.Content}}})
	}
	user := fmt.Sprintf("[Current slide: %d]\n\nUser: %s", currentSlide, message)
	contents = append(contents, genContent{Role: "user", Parts: []genPart{{Text: user}}})

	text, err := c.generate(ctx, c.model, answerSystem(deckContext, total), contents)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("chat: %w", err)
	}
	return parseAnswer(text, currentSlide, total), nil
}

// parseAnswer strips a trailing navigation directive and resolves the target
// slide, clamped into [1, total].
func parseAnswer(text string, currentSlide, total int) AnswerResult {
	res := AnswerResult{TargetSlide: currentSlide}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])

	target := currentSlide
	directive := false
	switch {
	case strings.HasPrefix(last, "GOTO_SLIDE:"):
		if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(last, "GOTO_SLIDE:"))); err == nil {
			target = n
			directive = true
		}
	case last == "NEXT_SLIDE":
		target = currentSlide + 1
		directive = true
	case last == "PREVIOUS_SLIDE":
		target = currentSlide - 1
		directive = true
	}

	if directive {
		lines = lines[:len(lines)-1]
	}
	if target < 1 {
		target = 1
	}
	if total > 0 && target > total {
		target = total
	}
	res.Response = strings.TrimSpace(strings.Join(lines, "\n"))
	res.TargetSlide = target
	res.SlideChanged = target != currentSlide
	return res
}

// stripFences removes a surrounding markdown code fence the model sometimes
// wraps JSON output in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
