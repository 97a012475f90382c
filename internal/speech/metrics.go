package speech

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricUtterances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_utterances_total",
		Help: "Total utterances started",
	})

	metricCancels = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_cancels_total",
		Help: "Total utterances cancelled before completion",
	})

	metricUtteranceSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speech_utterance_seconds",
		Help:    "Wall time per utterance",
		Buckets: prometheus.ExponentialBuckets(0.1, 1.8, 10),
	})

	metricRecognizerRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_recognizer_restarts_total",
		Help: "Continuous-mode capture restarts after transient no-speech errors",
	})
)
