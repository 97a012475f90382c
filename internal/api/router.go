package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"podium/agent/internal/status"
)

func NewRouter(h *Handlers, hub *status.Hub) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	api.HandleFunc("/topic", h.HandleGetTopic).Methods(http.MethodGet)
	api.HandleFunc("/topic", h.HandleSetTopic).Methods(http.MethodPost)
	api.HandleFunc("/slides", h.HandleListSlides).Methods(http.MethodGet)
	api.HandleFunc("/slides/{id:[0-9]+}", h.HandleGetSlide).Methods(http.MethodGet)
	api.HandleFunc("/reset", h.HandleReset).Methods(http.MethodPost)

	api.HandleFunc("/present/start", h.HandlePresentStart).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/present/next", h.HandlePresentNext).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/present/slide/{id:[0-9]+}", h.HandlePresentSlide).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/question", h.HandleQuestion).Methods(http.MethodPost)

	api.HandleFunc("/chat", h.HandleChat).Methods(http.MethodPost)
	api.HandleFunc("/narrate/{id:[0-9]+}", h.HandleNarrate).Methods(http.MethodGet)

	api.HandleFunc("/history", h.HandleHistoryList).Methods(http.MethodGet)
	api.HandleFunc("/history/{id}", h.HandleHistoryGet).Methods(http.MethodGet)

	api.HandleFunc("/state", h.HandleState).Methods(http.MethodGet)
	api.HandleFunc("/events", h.HandleEvents).Methods(http.MethodGet)

	r.HandleFunc("/ws", hub.HandleWS)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.Use(cors)
	return r
}

// cors allows the browser client to be served from a different origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
