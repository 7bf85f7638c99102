package httppresentation

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	appinventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-storefront/internal/application/payment"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const componentHTTPHandler = "http_server"

type CartService interface {
	AddLine(ctx context.Context, in appcart.AddLineInput) (*domcart.Line, error)
	UpdateLine(ctx context.Context, userID, lineID int64, quantity int) error
	RemoveLine(ctx context.Context, userID, lineID int64) error
	Validate(ctx context.Context, userID int64) (*appcart.Validation, error)
	View(ctx context.Context, userID int64) (*appcart.View, error)
}

type OrderQueries interface {
	Get(ctx context.Context, userID, orderID int64) (*apporder.Detail, error)
	AdminGet(ctx context.Context, orderID int64) (*apporder.Detail, error)
	ListForUser(ctx context.Context, userID int64) ([]domorder.ListEntry, error)
	List(ctx context.Context, in apporder.ListInput) ([]domorder.ListEntry, error)
	Summary(ctx context.Context) (*domorder.Summary, error)
}

type AdminService interface {
	SetStock(ctx context.Context, in appinventory.SetStockInput) (*inventory.Variant, error)
	CreateProduct(ctx context.Context, in appinventory.CreateProductInput) (*appinventory.ProductView, error)
	UpdatePrice(ctx context.Context, in appinventory.UpdatePriceInput) (*appinventory.ProductView, error)
}

// Services groups the application entry points the router exposes.
type Services struct {
	Cart          CartService
	Orders        OrderQueries
	Admin         AdminService
	CreateOrder   application.UseCase[apporder.CreateOrderInput, *apporder.CreateOrderResult]
	UpdateStatus  application.UseCase[apporder.UpdateStatusInput, *domorder.Order]
	Verify        application.UseCase[apppayment.VerifyInput, *apppayment.VerifyResult]
	ReportFailure application.UseCase[apppayment.ReportFailureInput, *apppayment.ReportFailureResult]
	ManualPayment application.UseCase[apppayment.ManualUpdateInput, *apppayment.ManualUpdateResult]
}

type Options struct {
	ServiceName string
	JWTSecret   []byte
	Gatherer    prometheus.Gatherer
	Health      func(ctx context.Context) error
}

type Handler struct {
	svc  Services
	opts Options
	log  observability.Logger
	tel  observability.Observability
}

func NewHandler(svc Services, opts Options, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		svc:  svc,
		opts: opts,
		log:  tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:  tel,
	}
}

// Router wires: Recovery → otelgin server span → ObservabilityMiddleware → auth → handler.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(h.opts.ServiceName))
	r.Use(ObservabilityMiddleware(h.log, h.tel))

	r.GET("/health", h.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api", Authenticate(h.opts.JWTSecret))

	cart := api.Group("/cart")
	cart.GET("", h.handleViewCart)
	cart.POST("/add", h.handleAddToCart)
	cart.PUT("/update/:id", h.handleUpdateCartLine)
	cart.DELETE("/remove/:id", h.handleRemoveCartLine)
	cart.POST("/validate", h.handleValidateCart)

	pay := api.Group("/payment")
	pay.POST("/create-order", h.handleCreateOrder)
	pay.POST("/verify-payment", h.handleVerifyPayment)
	pay.POST("/payment-failed", h.handlePaymentFailed)

	orders := api.Group("/orders")
	orders.GET("/my-orders", h.handleMyOrders)
	orders.GET("/:id", h.handleGetOrder)

	admin := api.Group("/admin", RequireAdmin())
	admin.GET("/orders", h.handleAdminListOrders)
	admin.GET("/orders/stats/summary", h.handleAdminSummary)
	admin.GET("/orders/:id", h.handleAdminGetOrder)
	admin.PUT("/orders/:id/status", h.handleAdminUpdateStatus)
	admin.PUT("/orders/:id/payment", h.handleAdminUpdatePayment)
	admin.PUT("/stock", h.handleAdminSetStock)
	admin.POST("/products", h.handleAdminCreateProduct)
	admin.PUT("/products/:id/price", h.handleAdminUpdatePrice)

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	if h.opts.Health != nil {
		if err := h.opts.Health(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- cart

type addToCartRequest struct {
	ProductID int64  `json:"productId" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	line, err := h.svc.Cart.AddLine(c.Request.Context(), appcart.AddLineInput{
		UserID:    userID(c),
		ProductID: req.ProductID,
		Size:      req.Size,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item added to cart", "item": line})
}

type updateCartRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpdateCartLine(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := h.svc.Cart.UpdateLine(c.Request.Context(), userID(c), id, req.Quantity); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
}

func (h *Handler) handleRemoveCartLine(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Cart.RemoveLine(c.Request.Context(), userID(c), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (h *Handler) handleValidateCart(c *gin.Context) {
	res, err := h.svc.Cart.Validate(c.Request.Context(), userID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) handleViewCart(c *gin.Context) {
	v, err := h.svc.Cart.View(c.Request.Context(), userID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// --- checkout

type createOrderRequest struct {
	ShippingAddress string `json:"shippingAddress"`
}

func (h *Handler) handleCreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	res, err := h.svc.CreateOrder.Execute(c.Request.Context(), apporder.CreateOrderInput{
		UserID:          userID(c),
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type verifyPaymentRequest struct {
	OrderID          int64  `json:"order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature"`
}

func (h *Handler) handleVerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	res, err := h.svc.Verify.Execute(c.Request.Context(), apppayment.VerifyInput{
		UserID:           userID(c),
		OrderID:          req.OrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	msg := "Payment verified successfully"
	if res.AlreadyPaid {
		msg = "Payment already processed"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "result": res})
}

type paymentFailedRequest struct {
	OrderID          int64  `json:"order_id" binding:"required"`
	ErrorDescription string `json:"error_description"`
}

func (h *Handler) handlePaymentFailed(c *gin.Context) {
	var req paymentFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	res, err := h.svc.ReportFailure.Execute(c.Request.Context(), apppayment.ReportFailureInput{
		UserID:  userID(c),
		OrderID: req.OrderID,
		Reason:  req.ErrorDescription,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Payment failure recorded", "result": res})
}

// --- orders

func (h *Handler) handleMyOrders(c *gin.Context) {
	out, err := h.svc.Orders.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) handleGetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := h.svc.Orders.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// --- admin

func (h *Handler) handleAdminListOrders(c *gin.Context) {
	out, err := h.svc.Orders.List(c.Request.Context(), apporder.ListInput{
		PaymentStatus: c.Query("payment_status"),
		Status:        c.Query("order_status"),
		From:          c.Query("start_date"),
		To:            c.Query("end_date"),
		Search:        c.Query("search"),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

func (h *Handler) handleAdminSummary(c *gin.Context) {
	s, err := h.svc.Orders.Summary(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) handleAdminGetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := h.svc.Orders.AdminGet(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type updateStatusRequest struct {
	OrderStatus string `json:"order_status" binding:"required"`
}

func (h *Handler) handleAdminUpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	o, err := h.svc.UpdateStatus.Execute(c.Request.Context(), apporder.UpdateStatusInput{OrderID: id, Status: req.OrderStatus})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": o})
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
	TransactionID string `json:"transaction_id"`
}

func (h *Handler) handleAdminUpdatePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	res, err := h.svc.ManualPayment.Execute(c.Request.Context(), apppayment.ManualUpdateInput{
		OrderID:       id,
		Status:        req.PaymentStatus,
		TransactionID: req.TransactionID,
	})
	if errors.Is(err, inventory.ErrInsufficientStock) {
		writeDomainErrorStatus(c, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated", "result": res})
}

type setStockRequest struct {
	ProductID int64  `json:"productId" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

func (h *Handler) handleAdminSetStock(c *gin.Context) {
	var req setStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	v, err := h.svc.Admin.SetStock(c.Request.Context(), appinventory.SetStockInput{
		ProductID: req.ProductID,
		Size:      strings.TrimSpace(req.Size),
		Quantity:  *req.Quantity,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type createProductRequest struct {
	Name          string              `json:"name" binding:"required"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Variants      []variantRequest    `json:"variants"`
}

type variantRequest struct {
	Size          string `json:"size"`
	StockQuantity int    `json:"stock_quantity"`
}

func (h *Handler) handleAdminCreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	stock := make(map[string]int, len(req.Variants))
	for _, v := range req.Variants {
		if size := strings.TrimSpace(v.Size); size != "" {
			stock[size] = v.StockQuantity
		}
	}
	p, err := h.svc.Admin.CreateProduct(c.Request.Context(), appinventory.CreateProductInput{
		Name:          req.Name,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         stock,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

type updatePriceRequest struct {
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
}

func (h *Handler) handleAdminUpdatePrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	p, err := h.svc.Admin.UpdatePrice(c.Request.Context(), appinventory.UpdatePriceInput{
		ProductID:     id,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

var errInvalidID = errors.New("id must be a positive integer")

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abort(c, http.StatusBadRequest, errInvalidID)
		return 0, false
	}
	return id, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
