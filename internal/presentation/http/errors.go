package httppresentation

import (
	"errors"
	"net/http"

	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error           string                 `json:"error"`
	StockIssues     []inventory.StockIssue `json:"stockIssues,omitempty"`
	CurrentStatus   order.Status           `json:"currentStatus,omitempty"`
	RequestedStatus order.Status           `json:"requestedStatus,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrStockExhausted):
		return http.StatusConflict
	case errors.Is(err, payment.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrVariantNotFound),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, order.ErrShippingAddressMissing),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrPaymentSettled),
		errors.Is(err, order.ErrSignatureInvalid),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, apporder.ErrInvalidDate):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeDomainError maps err to a status and body. Internal failures are logged
// and answered without their detail.
func writeDomainError(c *gin.Context, err error) {
	writeDomainErrorStatus(c, statusFor(err), err)
}

func writeDomainErrorStatus(c *gin.Context, status int, err error) {
	_ = c.Error(err)

	body := errorResponse{Error: err.Error()}
	var se *inventory.StockError
	if errors.As(err, &se) {
		body.StockIssues = se.Issues
	}
	var te *order.TransitionError
	if errors.As(err, &te) {
		body.CurrentStatus, body.RequestedStatus = te.Current, te.Requested
	}

	if status >= http.StatusInternalServerError {
		logctx.FromOr(c.Request.Context(), nil).Error("request_failed", observability.F("error", err.Error()))
		if status == http.StatusInternalServerError {
			body.Error = http.StatusText(status)
		}
	}
	c.AbortWithStatusJSON(status, body)
}
