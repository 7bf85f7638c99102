package observability_test

import (
	"testing"

	infraobs "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tally struct{ n float64 }

func (t *tally) Add(d float64, _ ...observability.Label) { t.n += d }
func (t *tally) Bind(...observability.Label) observability.BoundCounter {
	return observability.NopCounter().Bind()
}

func TestNewFallsBackToNops(t *testing.T) {
	tel := infraobs.New(nil, nil, nil, nil)
	require.NotNil(t, tel.Tracer())
	require.NotNil(t, tel.Logger())

	// unregistered keys never return nil
	assert.NotPanics(t, func() {
		tel.Metrics().Counter(observability.MStockDecrements).Add(1)
		tel.Metrics().Histogram(observability.MetricKey("missing")).Observe(1)
	})
}

func TestNewSkipsNilInstruments(t *testing.T) {
	relayed := &tally{}
	tel := infraobs.New(nil, nil, map[observability.MetricKey]observability.Counter{
		observability.MEventsRelayed:   relayed,
		observability.MStockDecrements: nil,
	}, nil)

	tel.Metrics().Counter(observability.MEventsRelayed).Add(2)
	tel.Metrics().Counter(observability.MStockDecrements).Add(5)
	assert.Equal(t, float64(2), relayed.n)
}

func TestNewWithRegistryRegistersStorefrontMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	tel := infraobs.NewWithRegistry(nil, nil, prometrics.New(reg, "", ""))

	tel.Metrics().Counter(observability.MStockDecrements).Add(3, observability.L("source", "gateway"))

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == string(observability.MStockDecrements) {
			found = true
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, float64(3), f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "stock_decrements_total not registered")
}
