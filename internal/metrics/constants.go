package metrics

const namespace = "dinnerplanner"

// Metric names
const (
	MetricNameHTTPRequestsTotal     = "http_requests_total"
	MetricNameHTTPRequestDuration   = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight  = "http_requests_in_flight"
	MetricNameDBConnectAttempts     = "db_connect_attempts_total"
	MetricNameDanglingIngredientRef = "dangling_ingredient_refs_total"
)

// Metric help text
const (
	HelpTextHTTPRequestsTotal     = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration   = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight  = "Current number of HTTP requests being served"
	HelpTextDBConnectAttempts     = "Store connection attempts by result"
	HelpTextDanglingIngredientRef = "Recipe ingredient references dropped because the food no longer exists"
)

// Label names
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelResult = "result"
)

// Values for LabelResult.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// HTTPLatencyBuckets spans 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
