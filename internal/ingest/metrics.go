package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest counters, exported on the HTTP /metrics endpoint.
var (
	messagesInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activitybot_ingest_messages_inserted_total",
		Help: "Messages appended to the store by ingestion sweeps.",
	})
	channelsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activitybot_ingest_channels_failed_total",
		Help: "Channel fetches or batch writes that failed during sweeps.",
	})
	sweepsRun = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activitybot_ingest_sweeps_total",
		Help: "Ingestion sweeps started.",
	})
)
