package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Engine Metrics
var (
	SeriesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSeriesCreated,
			Help: HelpTextSeriesCreated,
		},
	)

	SeriesFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSeriesFinished,
			Help: HelpTextSeriesFinished,
		},
		[]string{LabelKind},
	)

	SeriesAborted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSeriesAborted,
			Help: HelpTextSeriesAborted,
		},
	)

	SeriesLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameSeriesLive,
			Help: HelpTextSeriesLive,
		},
	)

	GamesStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameGamesStarted,
			Help: HelpTextGamesStarted,
		},
	)

	GamesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameGamesResolved,
			Help: HelpTextGamesResolved,
		},
		[]string{LabelResult},
	)

	RematchesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRematchesCreated,
			Help: HelpTextRematchesCreated,
		},
	)

	CommandsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCommandsApplied,
			Help: HelpTextCommandsApplied,
		},
		[]string{LabelCommand},
	)

	CommandsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCommandsRejected,
			Help: HelpTextCommandsRejected,
		},
		[]string{LabelCommand, LabelReason},
	)
)
