package present

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"podium/agent/internal/types"
)

// Client is the thin request/response surface of the presentation service.
type Client interface {
	Topic(ctx context.Context, topic string, numSlides int) ([]types.Slide, error)
	Slides(ctx context.Context) ([]types.Slide, error)
	Start(ctx context.Context) (types.PresentResponse, error)
	Next(ctx context.Context) (types.PresentResponse, error)
	Slide(ctx context.Context, n int) (types.PresentResponse, error)
	Question(ctx context.Context, question string, currentSlide int) (types.QuestionResponse, error)
}

type HTTPClient struct {
	http *http.Client
	base string
}

func NewClient(base string) *HTTPClient {
	return &HTTPClient{http: &http.Client{}, base: base}
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *HTTPClient) do(req *http.Request, path string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("present %s: %s: %s", path, resp.Status, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) Topic(ctx context.Context, topic string, numSlides int) ([]types.Slide, error) {
	var parsed struct {
		Slides []types.Slide `json:"slides"`
	}
	body := map[string]any{"topic": topic, "num_slides": numSlides}
	if err := c.post(ctx, "/api/topic", body, &parsed); err != nil {
		return nil, err
	}
	return parsed.Slides, nil
}

func (c *HTTPClient) Slides(ctx context.Context) ([]types.Slide, error) {
	var parsed struct {
		Slides []types.Slide `json:"slides"`
	}
	if err := c.get(ctx, "/api/slides", &parsed); err != nil {
		return nil, err
	}
	return parsed.Slides, nil
}

func (c *HTTPClient) Start(ctx context.Context) (types.PresentResponse, error) {
	var out types.PresentResponse
	err := c.get(ctx, "/api/present/start", &out)
	return out, err
}

func (c *HTTPClient) Next(ctx context.Context) (types.PresentResponse, error) {
	var out types.PresentResponse
	err := c.get(ctx, "/api/present/next", &out)
	return out, err
}

func (c *HTTPClient) Slide(ctx context.Context, n int) (types.PresentResponse, error) {
	var out types.PresentResponse
	err := c.get(ctx, fmt.Sprintf("/api/present/slide/%d", n), &out)
	return out, err
}

func (c *HTTPClient) Question(ctx context.Context, question string, currentSlide int) (types.QuestionResponse, error) {
	var out types.QuestionResponse
	body := map[string]any{"question": question, "current_slide": currentSlide}
	err := c.post(ctx, "/api/question", body, &out)
	return out, err
}

// Chat is the older conversational endpoint where the caller carries its
// own message history.
func (c *HTTPClient) Chat(ctx context.Context, message string, history []types.ChatMessage, currentSlide int) (types.QuestionResponse, error) {
	var parsed struct {
		Response string `json:"response"`
		NewSlide int    `json:"new_slide"`
	}
	body := map[string]any{"message": message, "conversation_history": history, "current_slide": currentSlide}
	if err := c.post(ctx, "/api/chat", body, &parsed); err != nil {
		return types.QuestionResponse{}, err
	}
	return types.QuestionResponse{
		Response:     parsed.Response,
		TargetSlide:  parsed.NewSlide,
		SlideChanged: parsed.NewSlide != currentSlide,
	}, nil
}

// Narrate fetches a slide's narration without moving the server's pointer.
func (c *HTTPClient) Narrate(ctx context.Context, n int) (string, error) {
	var parsed struct {
		Narration string `json:"narration"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/narrate/%d", n), &parsed); err != nil {
		return "", err
	}
	return parsed.Narration, nil
}
