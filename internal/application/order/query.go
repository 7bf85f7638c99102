package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseOrderGet      = "order.get"
	useCaseOrderList     = "order.list"
	useCaseOrderSummary  = "order.summary"
	useCaseOrderListMine = "order.list_mine"
)

// Queries serves read-only order views for customers and operators.
type Queries struct {
	uow  application.UnitOfWork
	inst *application.Instrument
}

func NewQueries(uow application.UnitOfWork, tel observability.Observability) *Queries {
	return &Queries{uow: uow, inst: application.NewInstrument(orderService, tel)}
}

// Detail is an order with its line snapshots and payment record.
type Detail struct {
	domain.Order
	Items   []domain.Line   `json:"items"`
	Payment *payment.Record `json:"payment,omitempty"`
}

// Get returns the order when it belongs to userID.
func (q *Queries) Get(ctx context.Context, userID, orderID int64) (*Detail, error) {
	return q.detail(ctx, orderID, func(ctx context.Context, tx application.Tx) (*domain.Order, error) {
		return tx.Orders().GetForUser(ctx, userID, orderID)
	})
}

// AdminGet returns any order.
func (q *Queries) AdminGet(ctx context.Context, orderID int64) (*Detail, error) {
	return q.detail(ctx, orderID, func(ctx context.Context, tx application.Tx) (*domain.Order, error) {
		return tx.Orders().Get(ctx, orderID)
	})
}

func (q *Queries) detail(
	ctx context.Context,
	orderID int64,
	load func(ctx context.Context, tx application.Tx) (*domain.Order, error),
) (d *Detail, err error) {
	ctx, run := q.inst.Start(ctx, useCaseOrderGet, "GetOrder", attribute.Int64("order.id", orderID))
	defer func() { run.End(ctx, err) }()

	err = q.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		o, err := load(ctx, tx)
		if errors.Is(err, domain.ErrNotFound) {
			run.Reject("ORDER_NOT_FOUND")
			return err
		}
		if err != nil {
			run.Fail("ORDER_LOAD_FAILED")
			return wrapRepositoryError(err)
		}
		lines, err := tx.Orders().Lines(ctx, o.ID)
		if err != nil {
			run.Fail("ORDER_LINES_FAILED")
			return wrapRepositoryError(err)
		}
		rec, err := tx.Payments().GetByOrder(ctx, o.ID)
		if err != nil && !errors.Is(err, payment.ErrNotFound) {
			run.Fail("PAYMENT_LOAD_FAILED")
			return wrapRepositoryError(err)
		}
		d = &Detail{Order: *o, Items: lines, Payment: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListForUser lists the caller's orders, newest first.
func (q *Queries) ListForUser(ctx context.Context, userID int64) (out []domain.ListEntry, err error) {
	ctx, run := q.inst.Start(ctx, useCaseOrderListMine, "ListMyOrders", attribute.Int64("order.user_id", userID))
	defer func() { run.End(ctx, err) }()

	err = q.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var err error
		out, err = tx.Orders().ListForUser(ctx, userID)
		return err
	})
	if err != nil {
		run.Fail("ORDER_LIST_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Field("count", len(out))
	return out, nil
}

type ListInput struct {
	PaymentStatus string
	Status        string
	From          string
	To            string
	Search        string
}

const dateLayout = "2006-01-02"

// Filter validates the raw query values. Dates are whole days; To is inclusive.
func (in ListInput) Filter() (domain.Filter, error) {
	var (
		f   domain.Filter
		err error
	)
	if in.PaymentStatus != "" {
		if f.PaymentStatus, err = domain.ParsePaymentStatus(in.PaymentStatus); err != nil {
			return f, err
		}
	}
	if in.Status != "" {
		if f.Status, err = domain.ParseStatus(in.Status); err != nil {
			return f, err
		}
	}
	if in.From != "" {
		if f.From, err = time.Parse(dateLayout, in.From); err != nil {
			return f, ErrInvalidDate
		}
	}
	if in.To != "" {
		to, err := time.Parse(dateLayout, in.To)
		if err != nil {
			return f, ErrInvalidDate
		}
		f.To = to.AddDate(0, 0, 1)
	}
	f.Search = strings.TrimSpace(in.Search)
	return f, nil
}

var ErrInvalidDate = errors.New("order: dates must be YYYY-MM-DD")

// List returns every order matching the filter.
func (q *Queries) List(ctx context.Context, in ListInput) (out []domain.ListEntry, err error) {
	ctx, run := q.inst.Start(ctx, useCaseOrderList, "ListOrders")
	defer func() { run.End(ctx, err) }()

	f, err := in.Filter()
	if err != nil {
		run.Reject("FILTER_INVALID")
		return nil, err
	}
	err = q.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var err error
		out, err = tx.Orders().List(ctx, f)
		return err
	})
	if err != nil {
		run.Fail("ORDER_LIST_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Field("count", len(out))
	return out, nil
}

func (q *Queries) Summary(ctx context.Context) (s *domain.Summary, err error) {
	ctx, run := q.inst.Start(ctx, useCaseOrderSummary, "OrderSummary")
	defer func() { run.End(ctx, err) }()

	err = q.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var err error
		s, err = tx.Orders().Summary(ctx)
		return err
	})
	if err != nil {
		run.Fail("SUMMARY_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return s, nil
}
