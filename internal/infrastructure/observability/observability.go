package observability

import (
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

// storefront is the Observability handed to every use case, worker and HTTP handler.
type storefront struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

// instruments resolves metric keys to registered instruments. Unknown keys get a nop
// instrument so a use case never has to check whether its metric was registered.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (in instruments) Counter(key observability.MetricKey) observability.Counter {
	if c, ok := in.counters[key]; ok {
		return c
	}
	return observability.NopCounter()
}

func (in instruments) Histogram(key observability.MetricKey) observability.Histogram {
	if h, ok := in.histograms[key]; ok {
		return h
	}
	return observability.NopHistogram()
}

// NewWithRegistry registers the storefront's metric set (use case, HTTP, gateway,
// stock and relay instruments) on reg and builds the provider around it.
func NewWithRegistry(tracer observability.Tracer, logger observability.Logger, reg prometrics.Registry) observability.Observability {
	counters, histograms := prometrics.Instruments(reg, observability.StandardMetrics)
	return New(tracer, logger, counters, histograms)
}

// New builds a provider from explicit parts; tests pass only the instruments they assert on.
// Nil parts are replaced by nops.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	in := instruments{counters: withoutNil(counters), histograms: withoutNil(histograms)}
	var metrics observability.Metrics = in
	if len(in.counters) == 0 && len(in.histograms) == 0 {
		metrics = observability.NopMetrics()
	}
	return &storefront{tracer: tracer, logger: logger, metrics: metrics}
}

func withoutNil[T comparable](in map[observability.MetricKey]T) map[observability.MetricKey]T {
	var zero T
	out := make(map[observability.MetricKey]T, len(in))
	for k, v := range in {
		if v != zero {
			out[k] = v
		}
	}
	return out
}

func (s *storefront) Tracer() observability.Tracer   { return s.tracer }
func (s *storefront) Logger() observability.Logger   { return s.logger }
func (s *storefront) Metrics() observability.Metrics { return s.metrics }
