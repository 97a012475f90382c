package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"podium/agent/internal/config"
	"podium/agent/internal/deck"
	"podium/agent/internal/health"
	"podium/agent/internal/history"
	"podium/agent/internal/llm"
	"podium/agent/internal/status"
	"podium/agent/internal/store"
	"podium/agent/internal/types"
)

type Handlers struct {
	cfg     config.Config
	deck    *deck.Deck
	llm     llm.Client
	history *history.Store
	store   *store.Store
	hub     *status.Hub
}

func NewHandlers(cfg config.Config, d *deck.Deck, c llm.Client, hs *history.Store, st *store.Store, hub *status.Hub) *Handlers {
	return &Handlers{cfg: cfg, deck: d, llm: c, history: hs, store: st, hub: hub}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("deep") == "1" {
		hs := health.CheckAll(r.Context(), h.cfg, h.history)
		code := http.StatusOK
		if !hs.OK {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, hs)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"has_slides": h.deck.HasSlides(),
		"topic":      h.deck.Topic(),
	})
}

func (h *Handlers) HandleGetTopic(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"topic":      h.deck.Topic(),
		"has_slides": h.deck.HasSlides(),
	})
}

func (h *Handlers) HandleSetTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic     string `json:"topic"`
		NumSlides int    `json:"num_slides"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Topic == "" {
		http.Error(w, "topic is required", http.StatusBadRequest)
		return
	}
	n := req.NumSlides
	if n <= 0 {
		n = h.cfg.Present.DefaultSlides
	}
	if n > h.cfg.Present.MaxSlides {
		n = h.cfg.Present.MaxSlides
	}

	slides, err := h.llm.GenerateSlides(r.Context(), req.Topic, n)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.deck.SetSlides(req.Topic, slides)
	h.store.Reset()
	h.store.AppendEvent("topic_set", map[string]any{"topic": req.Topic, "slides": len(slides)})

	if h.history != nil {
		if _, err := h.history.Add(req.Topic, h.deck.Slides()); err != nil {
			log.Printf("[api] history save failed: %v", err)
		}
	}
	h.hub.Broadcast(r.Context(), status.Event{Type: status.TypeSlideChanged, SlideNumber: 1})

	writeJSON(w, http.StatusOK, map[string]any{
		"topic":       req.Topic,
		"slides":      h.deck.Slides(),
		"slide_count": h.deck.Count(),
	})
}

func (h *Handlers) HandleListSlides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"topic":  h.deck.Topic(),
		"slides": h.deck.Slides(),
	})
}

func (h *Handlers) HandleGetSlide(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid slide id", http.StatusBadRequest)
		return
	}
	slide := h.deck.Slide(id)
	if slide == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.deck.Clear()
	h.store.Reset()
	h.store.AppendEvent("reset", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

// narrate fetches narration for a slide and moves the shared pointer there.
func (h *Handlers) narrate(w http.ResponseWriter, r *http.Request, n int) {
	slide := h.deck.Slide(n)
	if slide == nil {
		http.NotFound(w, r)
		return
	}
	narration, err := h.llm.Narration(r.Context(), *slide)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.store.SetCurrentSlide(n)
	h.hub.Broadcast(r.Context(), status.Event{Type: status.TypeSlideChanged, SlideNumber: n})

	resp := types.PresentResponse{
		Narration:    narration,
		CurrentSlide: n,
		HasNext:      n < h.deck.Count(),
	}
	if resp.HasNext {
		next := n + 1
		resp.NextSlide = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) HandlePresentStart(w http.ResponseWriter, r *http.Request) {
	if !h.deck.HasSlides() {
		http.Error(w, "no slides generated yet", http.StatusBadRequest)
		return
	}
	h.store.SetPresenting(true)
	h.store.AppendEvent("present_started", map[string]any{"topic": h.deck.Topic()})
	h.narrate(w, r, 1)
}

func (h *Handlers) HandlePresentNext(w http.ResponseWriter, r *http.Request) {
	if !h.deck.HasSlides() {
		http.Error(w, "no slides generated yet", http.StatusBadRequest)
		return
	}
	cur := h.store.Snapshot().CurrentSlide
	if cur >= h.deck.Count() {
		// Past the last slide the deck closes out rather than erroring.
		h.store.SetPresenting(false)
		h.store.AppendEvent("present_finished", nil)
		writeJSON(w, http.StatusOK, types.PresentResponse{
			Narration:    "That brings us to the end of the presentation. Thank you for listening, and feel free to ask any remaining questions.",
			CurrentSlide: cur,
			HasNext:      false,
		})
		return
	}
	h.narrate(w, r, cur+1)
}

func (h *Handlers) HandlePresentSlide(w http.ResponseWriter, r *http.Request) {
	if !h.deck.HasSlides() {
		http.Error(w, "no slides generated yet", http.StatusBadRequest)
		return
	}
	n, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid slide id", http.StatusBadRequest)
		return
	}
	h.narrate(w, r, h.deck.Clamp(n))
}

func (h *Handlers) HandleQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question     string `json:"question"`
		CurrentSlide int    `json:"current_slide"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}
	cur := req.CurrentSlide
	if cur < 1 {
		cur = h.store.Snapshot().CurrentSlide
	}

	res, err := h.llm.Answer(r.Context(), req.Question, cur, h.deck.Context(), h.deck.Count())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.store.AppendEvent("question", map[string]any{"slide": cur})
	if res.SlideChanged {
		h.store.SetCurrentSlide(res.TargetSlide)
		h.hub.Broadcast(r.Context(), status.Event{Type: status.TypeSlideChanged, SlideNumber: res.TargetSlide})
	}
	writeJSON(w, http.StatusOK, types.QuestionResponse{
		Response:     res.Response,
		TargetSlide:  res.TargetSlide,
		SlideChanged: res.SlideChanged,
	})
}

// HandleChat is the free-form conversational endpoint. Unlike /api/question
// the caller carries its own history.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message      string              `json:"message"`
		History      []types.ChatMessage `json:"conversation_history"`
		CurrentSlide int                 `json:"current_slide"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	cur := req.CurrentSlide
	if cur < 1 {
		cur = h.store.Snapshot().CurrentSlide
	}

	res, err := h.llm.Chat(r.Context(), req.Message, req.History, cur, h.deck.Context(), h.deck.Count())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if res.SlideChanged {
		h.store.SetCurrentSlide(res.TargetSlide)
		h.hub.Broadcast(r.Context(), status.Event{Type: status.TypeSlideChanged, SlideNumber: res.TargetSlide})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"response":  res.Response,
		"new_slide": res.TargetSlide,
	})
}

// HandleNarrate returns a slide's narration without moving the pointer.
func (h *Handlers) HandleNarrate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid slide id", http.StatusBadRequest)
		return
	}
	slide := h.deck.Slide(id)
	if slide == nil {
		http.NotFound(w, r)
		return
	}
	narration, err := h.llm.Narration(r.Context(), *slide)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slide_id": id, "narration": narration})
}

func (h *Handlers) HandleHistoryList(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"presentations": []types.PastPresentation{}})
		return
	}
	list, err := h.history.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presentations": list})
}

func (h *Handlers) HandleHistoryGet(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		http.NotFound(w, r)
		return
	}
	rec, err := h.history.Get(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":  h.store.Snapshot(),
		"topic":  h.deck.Topic(),
		"slides": h.deck.Count(),
	})
}

func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"events": h.store.ListEvents()})
}
