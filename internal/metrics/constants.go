package metrics

// ============================================================================
// Metric Names
// ============================================================================

// Namespace prefixes every metric exported by the engine
const Namespace = "dcm"

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

// Business metric names
const (
	MetricNameSettlementsComputed   = "settlements_computed_total"
	MetricNameSettlementsRejected   = "settlements_rejected_total"
	MetricNameParticipantsPerMarket = "participants_per_settlement"
	MetricNameLosingPool            = "losing_pool"
	MetricNameUnclaimedPools        = "unclaimed_pools_total"
	MetricNameScenariosSaved        = "scenarios_saved_total"
	MetricNameScenariosDeleted      = "scenarios_deleted_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"

	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"

	HelpTextSettlementsComputed   = "Total number of settlements computed, by winning side"
	HelpTextSettlementsRejected   = "Total number of settlement requests rejected by validation, by reason"
	HelpTextParticipantsPerMarket = "Number of participants in each computed settlement"
	HelpTextLosingPool            = "Losing pool redistributed by each settlement"
	HelpTextUnclaimedPools        = "Settlements whose winning side carried no weight"
	HelpTextScenariosSaved        = "Total number of scenarios saved"
	HelpTextScenariosDeleted      = "Total number of scenarios deleted"
)

// ============================================================================
// Metric Label Names
// ============================================================================

const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelType   = "type"
	LabelSide   = "side"
	LabelReason = "reason"
	LabelSource = "source"
)

// UnmatchedRoute labels requests that no route handled, keeping path cardinality bounded
const UnmatchedRoute = "unmatched"

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets range from 1ms to 10s
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ParticipantBuckets cover markets from a handful of friends up to the configured cap
var ParticipantBuckets = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}

// LosingPoolBuckets grow by a factor of ten from 1 to 1e7 stake units
var LosingPoolBuckets = []float64{1, 10, 100, 1e3, 1e4, 1e5, 1e6, 1e7}

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgEventPayloadInvalid = "Event payload could not be decoded for metrics"
	LogMsgMetricsRecorded     = "Metrics recorded for event"
)
