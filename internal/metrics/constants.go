package metrics

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Engine metric names
const (
	MetricNameSeriesCreated    = "series_created_total"
	MetricNameSeriesFinished   = "series_finished_total"
	MetricNameSeriesAborted    = "series_aborted_total"
	MetricNameSeriesLive       = "series_live"
	MetricNameGamesStarted     = "games_started_total"
	MetricNameGamesResolved    = "games_resolved_total"
	MetricNameRematchesCreated = "rematches_created_total"
	MetricNameCommandsApplied  = "commands_applied_total"
	MetricNameCommandsRejected = "commands_rejected_total"
)

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Engine metric help text
const (
	HelpTextSeriesCreated    = "Total number of series created"
	HelpTextSeriesFinished   = "Total number of series finished, by finish kind"
	HelpTextSeriesAborted    = "Total number of series aborted"
	HelpTextSeriesLive       = "Current number of live series"
	HelpTextGamesStarted     = "Total number of games started"
	HelpTextGamesResolved    = "Total number of games resolved, by result"
	HelpTextRematchesCreated = "Total number of rematches created"
	HelpTextCommandsApplied  = "Total number of player commands applied"
	HelpTextCommandsRejected = "Total number of player commands rejected"
)

// Common label names used across metrics
const (
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
	LabelType    = "type"
	LabelResult  = "result"
	LabelKind    = "kind"
	LabelCommand = "command"
	LabelReason  = "reason"
)

// Finish kinds for the series_finished_total counter
const (
	FinishKindScore   = "score"
	FinishKindForfeit = "forfeit"
	FinishKindDrawn   = "drawn"
)

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Debug log messages
const (
	LogMsgMetricsRecorded = "Metrics recorded for event"
)
