package order

import "fmt"

// next holds the only permitted fulfillment step out of each status.
var next = map[Status]Status{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// TransitionError reports a rejected fulfillment transition together with the current status.
type TransitionError struct {
	Current   Status
	Requested Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order: cannot move from %s to %s", e.Current, e.Requested)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ParseStatus accepts only the four fulfillment statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch ps := PaymentStatus(s); ps {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return ps, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// CanAdvance allows exactly one forward step.
func CanAdvance(from, to Status) error {
	if n, ok := next[from]; ok && n == to {
		return nil
	}
	return &TransitionError{Current: from, Requested: to}
}

// Next returns the status that follows s, or false when s is terminal.
func (s Status) Next() (Status, bool) {
	n, ok := next[s]
	return n, ok
}
