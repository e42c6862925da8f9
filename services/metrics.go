package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kabir",
		Subsystem: "pipeline",
		Name:      "events_total",
		Help:      "Message events handled by outcome.",
	}, []string{"outcome"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kabir",
		Subsystem: "pipeline",
		Name:      "duration_seconds",
		Help:      "Time spent processing one message event.",
		Buckets:   prometheus.DefBuckets,
	})

	downstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kabir",
		Subsystem: "downstream",
		Name:      "calls_total",
		Help:      "Calls to suggestion and intent services by result.",
	}, []string{"service", "result"})

	magicWordMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kabir",
		Subsystem: "magic_word",
		Name:      "matches_total",
		Help:      "Trigger matches split by created and duplicate.",
	}, []string{"result"})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kabir",
		Subsystem: "workflow",
		Name:      "transitions_total",
		Help:      "Status workflow transitions by target status.",
	}, []string{"to"})
)
