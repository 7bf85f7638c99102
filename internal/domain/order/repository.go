package order

import "context"

type Repository interface {
	// Insert stores the order and its lines, filling in the generated ids.
	Insert(ctx context.Context, o *Order, lines []Line) error
	Get(ctx context.Context, id int64) (*Order, error)
	// GetForUser returns ErrNotFound for orders owned by someone else.
	GetForUser(ctx context.Context, userID, id int64) (*Order, error)
	Lines(ctx context.Context, orderID int64) ([]Line, error)
	// ClaimPaid marks the order Paid (and Pending fulfillment as Processing) only if it is
	// not Paid yet. It reports false when another caller already made the transition.
	ClaimPaid(ctx context.Context, id int64) (bool, error)
	// SetPaymentStatus changes a non-Paid order's payment status; false means nothing changed.
	SetPaymentStatus(ctx context.Context, id int64, to PaymentStatus) (bool, error)
	// AdvanceStatus writes to only while the stored status still equals from.
	AdvanceStatus(ctx context.Context, id int64, from, to Status) (bool, error)
	ListForUser(ctx context.Context, userID int64) ([]ListEntry, error)
	List(ctx context.Context, f Filter) ([]ListEntry, error)
	Summary(ctx context.Context) (*Summary, error)
}
