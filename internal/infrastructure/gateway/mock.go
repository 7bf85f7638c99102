package gateway

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mock accepts every signature and invents gateway order ids, so checkout works offline.
type Mock struct{}

var _ payment.Gateway = Mock{}

func NewMock() Mock { return Mock{} }

func (Mock) CreateRemoteOrder(ctx context.Context, _ decimal.Decimal, _ string, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "order_mock_" + uuid.NewString(), nil
}

func (Mock) VerifySignature(string, string, string) bool { return true }

func (Mock) KeyID() string { return "" }

func (Mock) Mock() bool { return true }
