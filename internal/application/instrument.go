package application

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanPrefix      = "UC."
	publishPeer     = "outbox"
	publishTimeout  = 300 * time.Millisecond
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Instrument carries the RED instruments shared by every use case of one service.
type Instrument struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstrument(service string, tel observability.Observability) *Instrument {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Instrument{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (in *Instrument) Logger() observability.Logger { return in.log }

// Run is one use case execution. Call End exactly once, usually deferred.
type Run struct {
	in      *Instrument
	useCase string
	span    trace.Span
	log     observability.Logger
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

// Start opens the span and request-scoped logger for useCase. The returned context
// carries both.
func (in *Instrument) Start(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	ctx, logger := logctx.Enrich(ctx, in.log, observability.F("use_case", useCase))
	return ctx, &Run{
		in:      in,
		useCase: useCase,
		span:    span,
		log:     logger,
		start:   time.Now(),
		outcome: OutcomeSuccess,
		status:  "OK",
	}
}

func (r *Run) Span() trace.Span             { return r.span }
func (r *Run) Logger() observability.Logger { return r.log }

// Fail marks the run as failed with a machine-readable status such as "ORDER_NOT_FOUND".
func (r *Run) Fail(status string) { r.outcome, r.status = OutcomeError, status }

// Reject marks a caller-correctable failure.
func (r *Run) Reject(status string) { r.outcome, r.status = OutcomeRejected, status }

// Note keeps the outcome but replaces the status, e.g. "IDEMPOTENT_REPLAY".
func (r *Run) Note(status string) { r.status = status }

// Field adds a field to the final use_case_done line.
func (r *Run) Field(k string, v any) { r.fields = append(r.fields, observability.F(k, v)) }

func (r *Run) End(ctx context.Context, err error) {
	if err != nil && r.outcome == OutcomeSuccess {
		r.outcome, r.status = OutcomeError, "FAILED"
	}
	lat := time.Since(r.start).Seconds()

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.in.durHistogram.Observe(lat,
		observability.L("use_case", r.useCase),
	)

	fields := append([]observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}, r.fields...)
	fields = append(fields, observability.TraceFields(ctx)...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.log.Info("use_case_done", fields...)
}

// Publish hands e to the outbox with a short timeout and records it as an external call.
// Publish failures never fail the use case; they are noted on the run.
func (r *Run) Publish(ctx context.Context, pub outbox.Publisher, e outbox.Event) {
	if pub == nil || e == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	pubStart := time.Now()
	pubOutcome := OutcomeSuccess

	if err := pub.Publish(pubCtx, e); err != nil {
		pubOutcome = OutcomeError
		r.status = "EVENT_PUBLISH_FAILED"
		r.Field("event_publish_error", err.Error())
		if r.span != nil {
			r.span.RecordError(err)
		}
	}

	r.in.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", pubOutcome),
	)
	r.in.extHistogram.Observe(time.Since(pubStart).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
	)
	if r.span != nil {
		r.span.AddEvent(e.EventName())
	}
}

// External records a call to a dependency such as the payment gateway.
func (r *Run) External(peer, endpoint string, started time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.in.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	r.in.extHistogram.Observe(time.Since(started).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}
