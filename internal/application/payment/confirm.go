package payment

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

// confirm claims the Paid transition for o and removes every line from the ledger.
// claimed is false when another caller already confirmed the order; nothing is
// written in that case. A short line fails the whole confirmation with a
// *inventory.StockError of the given kind listing every short line.
func confirm(ctx context.Context, tx application.Tx, o *domorder.Order, kind error) (lines []domorder.Line, claimed bool, err error) {
	claimed, err = tx.Orders().ClaimPaid(ctx, o.ID)
	if err != nil || !claimed {
		return nil, false, err
	}

	lines, err = tx.Orders().Lines(ctx, o.ID)
	if err != nil {
		return nil, true, err
	}

	var issues []inventory.StockIssue
	for _, l := range lines {
		err := tx.Stock().Decrement(ctx, l.ProductID, l.Size, l.Quantity)
		if err == nil {
			continue
		}
		if !errors.Is(err, inventory.ErrInsufficientStock) && !errors.Is(err, inventory.ErrVariantNotFound) {
			return nil, true, err
		}
		available := 0
		if v, verr := tx.Stock().Variant(ctx, l.ProductID, l.Size); verr == nil {
			available = v.Quantity
		}
		issues = append(issues, inventory.StockIssue{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Size:        l.Size,
			Requested:   l.Quantity,
			Available:   available,
		})
	}
	if len(issues) > 0 {
		return nil, true, inventory.NewStockError(kind, issues...)
	}

	o.PaymentStatus = domorder.PaymentPaid
	if o.Status == domorder.StatusPending {
		o.Status = domorder.StatusProcessing
	}
	return lines, true, nil
}

func units(lines []domorder.Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
