package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"podium/agent/internal/config"
	"podium/agent/internal/deck"
	"podium/agent/internal/llm"
	"podium/agent/internal/status"
	"podium/agent/internal/store"
	"podium/agent/internal/types"
)

type mockLLM struct {
	answer      llm.AnswerResult
	chatHistory []types.ChatMessage
}

func (m *mockLLM) GenerateSlides(ctx context.Context, topic string, numSlides int) ([]types.Slide, error) {
	slides := make([]types.Slide, numSlides)
	for i := range slides {
		slides[i] = types.Slide{ID: i + 1, Title: fmt.Sprintf("%s part %d", topic, i+1)}
	}
	return slides, nil
}

func (m *mockLLM) Narration(ctx context.Context, slide types.Slide) (string, error) {
	return "Narrating " + slide.Title + ".", nil
}

func (m *mockLLM) Answer(ctx context.Context, question string, currentSlide int, deckContext string, total int) (llm.AnswerResult, error) {
	if m.answer.Response != "" {
		return m.answer, nil
	}
	return llm.AnswerResult{Response: "An answer.", TargetSlide: currentSlide}, nil
}

func (m *mockLLM) Chat(ctx context.Context, message string, history []types.ChatMessage, currentSlide int, deckContext string, total int) (llm.AnswerResult, error) {
	m.chatHistory = history
	return llm.AnswerResult{Response: "A reply.", TargetSlide: currentSlide}, nil
}

func newTestServer(t *testing.T, m *mockLLM) (*httptest.Server, *store.Store, *deck.Deck) {
	t.Helper()
	cfg := config.Load()
	d := deck.New()
	st := store.New()
	hub := status.NewHub(st)
	h := NewHandlers(cfg, d, m, nil, st, hub)
	srv := httptest.NewServer(NewRouter(h, hub))
	t.Cleanup(srv.Close)
	return srv, st, d
}

func postJSON(t *testing.T, url string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if out != nil && resp.StatusCode == http.StatusOK {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp
}

func TestPresentStartWithoutSlides400(t *testing.T) {
	srv, _, _ := newTestServer(t, &mockLLM{})
	resp := postJSON(t, srv.URL+"/api/present/start", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTopicThenPresentFlow(t *testing.T) {
	srv, st, d := newTestServer(t, &mockLLM{})

	var topicResp struct {
		SlideCount int           `json:"slide_count"`
		Slides     []types.Slide `json:"slides"`
	}
	resp := postJSON(t, srv.URL+"/api/topic", map[string]any{"topic": "bees", "num_slides": 3}, &topicResp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("topic: expected 200, got %d", resp.StatusCode)
	}
	if topicResp.SlideCount != 3 || d.Count() != 3 {
		t.Fatalf("slide count = %d / %d, want 3", topicResp.SlideCount, d.Count())
	}

	var start types.PresentResponse
	postJSON(t, srv.URL+"/api/present/start", nil, &start)
	if start.CurrentSlide != 1 || !start.HasNext || start.Narration == "" {
		t.Fatalf("unexpected start response: %+v", start)
	}
	if !st.Snapshot().IsPresenting {
		t.Fatal("store not marked presenting")
	}

	var next types.PresentResponse
	postJSON(t, srv.URL+"/api/present/next", nil, &next)
	if next.CurrentSlide != 2 || !next.HasNext {
		t.Fatalf("unexpected next response: %+v", next)
	}

	var last types.PresentResponse
	postJSON(t, srv.URL+"/api/present/next", nil, &last)
	if last.CurrentSlide != 3 || last.HasNext {
		t.Fatalf("unexpected final slide response: %+v", last)
	}

	// Past the end the deck closes out instead of erroring.
	var closing types.PresentResponse
	postJSON(t, srv.URL+"/api/present/next", nil, &closing)
	if closing.HasNext || closing.Narration == "" {
		t.Fatalf("unexpected closing response: %+v", closing)
	}
	if st.Snapshot().IsPresenting {
		t.Fatal("store still presenting after the deck finished")
	}
}

func TestPresentSlideClampsOutOfRange(t *testing.T) {
	srv, st, _ := newTestServer(t, &mockLLM{})
	postJSON(t, srv.URL+"/api/topic", map[string]any{"topic": "bees", "num_slides": 3}, nil)

	var resp types.PresentResponse
	postJSON(t, srv.URL+"/api/present/slide/99", nil, &resp)
	if resp.CurrentSlide != 3 {
		t.Fatalf("current slide = %d, want clamp to 3", resp.CurrentSlide)
	}
	if st.Snapshot().CurrentSlide != 3 {
		t.Fatalf("store slide = %d, want 3", st.Snapshot().CurrentSlide)
	}
}

func TestQuestionMayMoveSlide(t *testing.T) {
	m := &mockLLM{answer: llm.AnswerResult{
		Response:     "See slide two.",
		TargetSlide:  2,
		SlideChanged: true,
	}}
	srv, st, _ := newTestServer(t, m)
	postJSON(t, srv.URL+"/api/topic", map[string]any{"topic": "bees", "num_slides": 3}, nil)

	var qr types.QuestionResponse
	postJSON(t, srv.URL+"/api/question", map[string]any{"question": "where?", "current_slide": 1}, &qr)
	if !qr.SlideChanged || qr.TargetSlide != 2 {
		t.Fatalf("unexpected question response: %+v", qr)
	}
	if st.Snapshot().CurrentSlide != 2 {
		t.Fatalf("store slide = %d, want 2", st.Snapshot().CurrentSlide)
	}
}

func TestResetClearsDeck(t *testing.T) {
	srv, _, d := newTestServer(t, &mockLLM{})
	postJSON(t, srv.URL+"/api/topic", map[string]any{"topic": "bees"}, nil)
	if !d.HasSlides() {
		t.Fatal("deck empty after topic")
	}
	postJSON(t, srv.URL+"/api/reset", nil, nil)
	if d.HasSlides() {
		t.Fatal("deck not cleared by reset")
	}

	resp, err := http.Get(srv.URL + "/api/slides/1")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after reset, got %d", resp.StatusCode)
	}
}

func TestPresentEndpointsServeGET(t *testing.T) {
	srv, _, _ := newTestServer(t, &mockLLM{})
	postJSON(t, srv.URL+"/api/topic", map[string]any{"topic": "bees", "num_slides": 3}, nil)

	resp, err := http.Get(srv.URL + "/api/present/start")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET start: expected 200, got %d", resp.StatusCode)
	}
	var start types.PresentResponse
	if err := json.NewDecoder(resp.Body).Decode(&start); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if start.CurrentSlide != 1 {
		t.Fatalf("unexpected start response: %+v", start)
	}

	next, err := http.Get(srv.URL + "/api/present/next")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	next.Body.Close()
	if next.StatusCode != http.StatusOK {
		t.Fatalf("GET next: expected 200, got %d", next.StatusCode)
	}

	slide, err := http.Get(srv.URL + "/api/present/slide/2")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	slide.Body.Close()
	if slide.StatusCode != http.StatusOK {
		t.Fatalf("GET slide: expected 200, got %d", slide.StatusCode)
	}
}

func TestChatLegacyWireShape(t *testing.T) {
	m := &mockLLM{}
	srv, _, _ := newTestServer(t, m)
	postJSON(t, srv.URL+"/api/topic", map[string]any{"topic": "bees", "num_slides": 3}, nil)

	body := map[string]any{
		"message": "tell me more",
		"conversation_history": []map[string]string{
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": "hello"},
		},
		"current_slide": 2,
	}
	var parsed map[string]any
	resp := postJSON(t, srv.URL+"/api/chat", body, &parsed)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if len(m.chatHistory) != 2 || m.chatHistory[0].Content != "hi" {
		t.Fatalf("history not passed through: %+v", m.chatHistory)
	}
	if parsed["response"] != "A reply." {
		t.Fatalf("response = %v", parsed["response"])
	}
	if ns, ok := parsed["new_slide"].(float64); !ok || int(ns) != 2 {
		t.Fatalf("new_slide = %v", parsed["new_slide"])
	}
}

func TestNarrateDoesNotMovePointer(t *testing.T) {
	srv, st, _ := newTestServer(t, &mockLLM{})
	postJSON(t, srv.URL+"/api/topic", map[string]any{"topic": "bees", "num_slides": 3}, nil)
	postJSON(t, srv.URL+"/api/present/start", nil, nil)

	resp, err := http.Get(srv.URL + "/api/narrate/3")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if st.Snapshot().CurrentSlide != 1 {
		t.Fatalf("narrate moved the pointer to %d", st.Snapshot().CurrentSlide)
	}
}
