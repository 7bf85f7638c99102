package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MStockDecrements         MetricKey = "stock_decrements_total"
	MEventsRelayed           MetricKey = "events_relayed_total"
)

// MetricSpec describes how a MetricKey is registered with the metrics backend.
type MetricSpec struct {
	Key       MetricKey
	Help      string
	Labels    []string
	Histogram bool
}

// StandardMetrics lists every instrument the service emits.
var StandardMetrics = []MetricSpec{
	{Key: MUsecaseRequests, Help: "Total number of use case invocations.", Labels: []string{"use_case", "outcome"}},
	{Key: MUsecaseDuration, Help: "Duration of use case execution in seconds.", Labels: []string{"use_case"}, Histogram: true},
	{Key: MHTTPRequests, Help: "Total number of HTTP requests.", Labels: []string{"method", "route", "status"}},
	{Key: MHTTPRequestDuration, Help: "HTTP request latency in seconds.", Labels: []string{"method", "route", "status"}, Histogram: true},
	{Key: MExternalRequests, Help: "Calls to external dependencies.", Labels: []string{"peer", "endpoint", "outcome"}},
	{Key: MExternalRequestDuration, Help: "Latency of calls to external dependencies in seconds.", Labels: []string{"peer", "endpoint"}, Histogram: true},
	{Key: MStockDecrements, Help: "Units removed from the stock ledger by payment confirmation.", Labels: []string{"source"}},
	{Key: MEventsRelayed, Help: "Domain events forwarded to the event sink.", Labels: []string{"event", "outcome"}},
}
