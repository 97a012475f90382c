package playback

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_state_transitions_total",
		Help: "Playback state transitions by from/to state.",
	}, []string{"from", "to"})

	metricInterrupts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_interrupts_total",
		Help: "Narrations interrupted by a user question.",
	})

	metricNarrationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_narration_failures_total",
		Help: "Failed narration or answer fetches.",
	})
)
