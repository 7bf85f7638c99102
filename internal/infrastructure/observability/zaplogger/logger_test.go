package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithBindsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := Wrap(zap.New(core))

	l := base.With(observability.F("use_case", "order.create"))
	l.Info("use_case_done",
		observability.F("outcome", "error"),
		observability.F("error", errors.New("order: not found")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "use_case_done", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "order.create", ctx["use_case"])
	assert.Equal(t, "error", ctx["outcome"])
	assert.Equal(t, "order: not found", ctx["error"])
}

func TestWrapNil(t *testing.T) {
	l := Wrap(nil)
	assert.NotPanics(t, func() { l.Warn("noop") })
}
