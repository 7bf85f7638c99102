package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService       = "cart-service"
	useCaseAddLine    = "cart.add_line"
	useCaseUpdateLine = "cart.update_line"
	useCaseRemoveLine = "cart.remove_line"
	useCaseValidate   = "cart.validate"
	useCaseView       = "cart.view"
)

// ErrRepository wraps unexpected persistence failures.
var ErrRepository = errors.New("cart: repository failure")

// Service holds a user's pending selection. Adding to the cart never reserves stock.
type Service struct {
	uow  application.UnitOfWork
	inst *application.Instrument
}

func NewService(uow application.UnitOfWork, tel observability.Observability) *Service {
	return &Service{uow: uow, inst: application.NewInstrument(cartService, tel)}
}

type AddLineInput struct {
	UserID    int64
	ProductID int64
	Size      string
	Quantity  int
}

// AddLine adds quantity to the (product, size) line, creating it when missing.
// The summed quantity must fit within live stock.
func (s *Service) AddLine(ctx context.Context, in AddLineInput) (line *domcart.Line, err error) {
	ctx, run := s.inst.Start(ctx, useCaseAddLine, "AddCartLine",
		attribute.Int64("cart.user_id", in.UserID),
		attribute.Int64("product.id", in.ProductID),
		attribute.String("product.size", in.Size),
	)
	defer func() { run.End(ctx, err) }()

	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		run.Reject("QUANTITY_INVALID")
		return nil, domcart.ErrInvalidQuantity
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		v, err := tx.Stock().Variant(ctx, in.ProductID, in.Size)
		if errors.Is(err, inventory.ErrVariantNotFound) {
			run.Reject("SIZE_UNAVAILABLE")
			return err
		}
		if err != nil {
			run.Fail("VARIANT_LOAD_FAILED")
			return wrapRepositoryError(err)
		}

		existing, err := tx.Carts().Find(ctx, in.UserID, in.ProductID, in.Size)
		if err != nil {
			run.Fail("CART_LOAD_FAILED")
			return wrapRepositoryError(err)
		}
		inCart := 0
		if existing != nil {
			inCart = existing.Quantity
		}

		if !v.Covers(inCart + in.Quantity) {
			run.Reject("INSUFFICIENT_STOCK")
			return inventory.NewStockError(inventory.ErrInsufficientStock, inventory.StockIssue{
				ProductID: in.ProductID,
				Size:      in.Size,
				Requested: inCart + in.Quantity,
				Available: v.Quantity,
				InCart:    inCart,
			})
		}

		if existing != nil {
			existing.Quantity += in.Quantity
			if err := tx.Carts().SetQuantity(ctx, existing.ID, existing.Quantity); err != nil {
				run.Fail("CART_UPDATE_FAILED")
				return wrapRepositoryError(err)
			}
			line = existing
			run.Note("LINE_MERGED")
			return nil
		}

		line = &domcart.Line{UserID: in.UserID, ProductID: in.ProductID, Size: in.Size, Quantity: in.Quantity}
		if err := tx.Carts().Insert(ctx, line); err != nil {
			run.Fail("CART_INSERT_FAILED")
			return wrapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateLine replaces a line's quantity after re-checking live stock.
func (s *Service) UpdateLine(ctx context.Context, userID, lineID int64, quantity int) (err error) {
	ctx, run := s.inst.Start(ctx, useCaseUpdateLine, "UpdateCartLine",
		attribute.Int64("cart.user_id", userID),
		attribute.Int64("cart.line_id", lineID),
	)
	defer func() { run.End(ctx, err) }()

	if quantity < 1 {
		run.Reject("QUANTITY_INVALID")
		return domcart.ErrInvalidQuantity
	}

	return s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		line, err := tx.Carts().Get(ctx, userID, lineID)
		if errors.Is(err, domcart.ErrLineNotFound) {
			run.Reject("LINE_NOT_FOUND")
			return err
		}
		if err != nil {
			run.Fail("CART_LOAD_FAILED")
			return wrapRepositoryError(err)
		}

		available := 0
		v, err := tx.Stock().Variant(ctx, line.ProductID, line.Size)
		switch {
		case err == nil:
			available = v.Quantity
		case !errors.Is(err, inventory.ErrVariantNotFound):
			run.Fail("VARIANT_LOAD_FAILED")
			return wrapRepositoryError(err)
		}
		if quantity > available {
			run.Reject("INSUFFICIENT_STOCK")
			return inventory.NewStockError(inventory.ErrInsufficientStock, inventory.StockIssue{
				ProductID: line.ProductID,
				Size:      line.Size,
				Requested: quantity,
				Available: available,
			})
		}

		if err := tx.Carts().SetQuantity(ctx, line.ID, quantity); err != nil {
			run.Fail("CART_UPDATE_FAILED")
			return wrapRepositoryError(err)
		}
		return nil
	})
}

// RemoveLine deletes the line. Stock is untouched because carts never hold it.
func (s *Service) RemoveLine(ctx context.Context, userID, lineID int64) (err error) {
	ctx, run := s.inst.Start(ctx, useCaseRemoveLine, "RemoveCartLine",
		attribute.Int64("cart.user_id", userID),
		attribute.Int64("cart.line_id", lineID),
	)
	defer func() { run.End(ctx, err) }()

	return s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		err := tx.Carts().Delete(ctx, userID, lineID)
		if errors.Is(err, domcart.ErrLineNotFound) {
			run.Reject("LINE_NOT_FOUND")
			return err
		}
		if err != nil {
			run.Fail("CART_DELETE_FAILED")
			return wrapRepositoryError(err)
		}
		return nil
	})
}

type Validation struct {
	Valid       bool                   `json:"valid"`
	ItemCount   int                    `json:"itemCount"`
	Reason      string                 `json:"reason,omitempty"`
	StockIssues []inventory.StockIssue `json:"stockIssues,omitempty"`
}

const ReasonEmptyCart = "EmptyCart"

// Validate re-checks every line against live stock and reports all violations at once.
// An empty cart is invalid with ReasonEmptyCart rather than an error.
func (s *Service) Validate(ctx context.Context, userID int64) (res *Validation, err error) {
	ctx, run := s.inst.Start(ctx, useCaseValidate, "ValidateCart",
		attribute.Int64("cart.user_id", userID),
	)
	defer func() { run.End(ctx, err) }()

	var items []domcart.Item
	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var err error
		items, err = tx.Carts().Items(ctx, userID)
		return err
	})
	if err != nil {
		run.Fail("CART_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}

	res = &Validation{ItemCount: len(items)}
	if len(items) == 0 {
		res.Reason = ReasonEmptyCart
		run.Note("EMPTY_CART")
		return res, nil
	}
	res.StockIssues = domcart.Issues(items)
	res.Valid = len(res.StockIssues) == 0
	if !res.Valid {
		run.Note("STOCK_ISSUES")
		run.Field("stock_issues", len(res.StockIssues))
	}
	return res, nil
}

type View struct {
	Items []ViewItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type ViewItem struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Available   int             `json:"available"`
}

// View lists the cart with live prices; nothing here is a commitment.
func (s *Service) View(ctx context.Context, userID int64) (v *View, err error) {
	ctx, run := s.inst.Start(ctx, useCaseView, "ViewCart",
		attribute.Int64("cart.user_id", userID),
	)
	defer func() { run.End(ctx, err) }()

	var items []domcart.Item
	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var err error
		items, err = tx.Carts().Items(ctx, userID)
		return err
	})
	if err != nil {
		run.Fail("CART_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}

	v = &View{Items: make([]ViewItem, 0, len(items)), Total: domcart.Total(items)}
	for _, it := range items {
		v.Items = append(v.Items, ViewItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Size:        it.Size,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice(),
			Subtotal:    it.Subtotal(),
			Available:   it.Available,
		})
	}
	return v, nil
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
