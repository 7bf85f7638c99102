package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService     = "inventory-service"
	useCaseSetStock      = "inventory.set_stock"
	useCaseCreateProduct = "catalog.create_product"
	useCaseUpdatePrice   = "catalog.update_price"
	useCaseSoldOutCheck  = "inventory.sold_out_check"
)

var ErrRepository = errors.New("inventory: repository failure")

// AdminService holds the operator-facing stock and catalog edits.
type AdminService struct {
	uow       application.UnitOfWork
	publisher domoutbox.Publisher
	inst      *application.Instrument
}

func NewAdminService(uow application.UnitOfWork, publisher domoutbox.Publisher, tel observability.Observability) *AdminService {
	return &AdminService{
		uow:       uow,
		publisher: publisher,
		inst:      application.NewInstrument(inventoryService, tel),
	}
}

type SetStockInput struct {
	ProductID int64
	Size      string
	Quantity  int
}

// SetStock overwrites the on-hand quantity of a variant, creating the variant when the
// product has no such size yet.
func (s *AdminService) SetStock(ctx context.Context, in SetStockInput) (v *inventory.Variant, err error) {
	ctx, run := s.inst.Start(ctx, useCaseSetStock, "SetStock",
		attribute.Int64("product.id", in.ProductID),
		attribute.String("product.size", in.Size),
		attribute.Int("stock.quantity", in.Quantity),
	)
	defer func() { run.End(ctx, err) }()

	if in.Quantity < 0 {
		run.Reject("QUANTITY_INVALID")
		return nil, inventory.ErrInvalidQuantity
	}
	if in.Size == "" {
		run.Reject("SIZE_MISSING")
		return nil, inventory.ErrVariantNotFound
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		if _, err := tx.Catalog().Get(ctx, in.ProductID); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				run.Reject("PRODUCT_NOT_FOUND")
				return err
			}
			run.Fail("PRODUCT_LOAD_FAILED")
			return wrapRepositoryError(err)
		}
		if err := tx.Stock().Set(ctx, in.ProductID, in.Size, in.Quantity); err != nil {
			run.Fail("STOCK_SET_FAILED")
			return wrapRepositoryError(err)
		}
		var err error
		v, err = tx.Stock().Variant(ctx, in.ProductID, in.Size)
		return err
	})
	if err != nil {
		return nil, err
	}

	run.Publish(ctx, s.publisher, inventory.NewStockSetEvent(in.ProductID, in.Size, in.Quantity))
	return v, nil
}

type CreateProductInput struct {
	Name          string
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
	Stock         map[string]int
}

type ProductView struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discountPrice"`
	Variants      []inventory.Variant `json:"variants"`
}

func (s *AdminService) CreateProduct(ctx context.Context, in CreateProductInput) (view *ProductView, err error) {
	ctx, run := s.inst.Start(ctx, useCaseCreateProduct, "CreateProduct")
	defer func() { run.End(ctx, err) }()

	p, err := catalog.NewProduct(in.Name, in.Price, in.DiscountPrice)
	if err != nil {
		run.Reject("PRODUCT_INVALID")
		return nil, err
	}
	for _, qty := range in.Stock {
		if qty < 0 {
			run.Reject("QUANTITY_INVALID")
			return nil, inventory.ErrInvalidQuantity
		}
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		if err := tx.Catalog().Insert(ctx, p); err != nil {
			run.Fail("PRODUCT_INSERT_FAILED")
			return wrapRepositoryError(err)
		}
		for size, qty := range in.Stock {
			if err := tx.Stock().Set(ctx, p.ID, size, qty); err != nil {
				run.Fail("STOCK_SET_FAILED")
				return wrapRepositoryError(err)
			}
		}
		variants, err := tx.Stock().ListByProduct(ctx, p.ID)
		if err != nil {
			run.Fail("VARIANT_LIST_FAILED")
			return wrapRepositoryError(err)
		}
		view = productView(p, variants)
		return nil
	})
	if err != nil {
		return nil, err
	}
	run.Field("product_id", p.ID)
	return view, nil
}

type UpdatePriceInput struct {
	ProductID     int64
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
}

// UpdatePrice changes what carts and future orders pay. Placed orders keep their line prices.
func (s *AdminService) UpdatePrice(ctx context.Context, in UpdatePriceInput) (view *ProductView, err error) {
	ctx, run := s.inst.Start(ctx, useCaseUpdatePrice, "UpdatePrice",
		attribute.Int64("product.id", in.ProductID),
	)
	defer func() { run.End(ctx, err) }()

	if err := catalog.ValidatePrice(in.Price, in.DiscountPrice); err != nil {
		run.Reject("PRICE_INVALID")
		return nil, err
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		err := tx.Catalog().UpdatePrice(ctx, in.ProductID, in.Price, in.DiscountPrice)
		if errors.Is(err, catalog.ErrNotFound) {
			run.Reject("PRODUCT_NOT_FOUND")
			return err
		}
		if err != nil {
			run.Fail("PRICE_UPDATE_FAILED")
			return wrapRepositoryError(err)
		}
		p, err := tx.Catalog().Get(ctx, in.ProductID)
		if err != nil {
			return wrapRepositoryError(err)
		}
		variants, err := tx.Stock().ListByProduct(ctx, p.ID)
		if err != nil {
			return wrapRepositoryError(err)
		}
		view = productView(p, variants)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func productView(p *catalog.Product, variants []inventory.Variant) *ProductView {
	return &ProductView{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Variants:      variants,
	}
}

type SoldOutResult struct {
	SoldOut []inventory.SoldOutEvent
}

// SoldOutUseCase reports the variants a paid order emptied.
type SoldOutUseCase struct {
	uow       application.UnitOfWork
	publisher domoutbox.Publisher
	inst      *application.Instrument
}

func NewSoldOutUseCase(uow application.UnitOfWork, publisher domoutbox.Publisher, tel observability.Observability) *SoldOutUseCase {
	return &SoldOutUseCase{
		uow:       uow,
		publisher: publisher,
		inst:      application.NewInstrument(inventoryService, tel),
	}
}

func (uc *SoldOutUseCase) Execute(ctx context.Context, evt domorder.PaidEvent) (res *SoldOutResult, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseSoldOutCheck, "SoldOutCheck",
		attribute.Int64("order.id", evt.OrderID),
	)
	defer func() { run.End(ctx, err) }()

	res = &SoldOutResult{}
	err = uc.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		for _, l := range evt.Lines {
			v, err := tx.Stock().Variant(ctx, l.ProductID, l.Size)
			if errors.Is(err, inventory.ErrVariantNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if v.Quantity == 0 {
				res.SoldOut = append(res.SoldOut, inventory.NewSoldOutEvent(l.ProductID, l.Size, evt.OrderID))
			}
		}
		return nil
	})
	if err != nil {
		run.Fail("VARIANT_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Field("sold_out", len(res.SoldOut))
	for _, e := range res.SoldOut {
		run.Publish(ctx, uc.publisher, e)
	}
	return res, nil
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
