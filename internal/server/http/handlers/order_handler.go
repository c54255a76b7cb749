package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/server/http/dto"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Place handles POST /api/user/orders.
func (h *OrderHandler) Place(c *gin.Context) {
	userID := CurrentUserID(c)

	var req dto.PlaceOrderRequest
	if err := bindStrict(c, &req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "malformed request body"})
		return
	}
	if errs := req.Validate(); errs != nil {
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Errors: errs})
		return
	}

	in := usecase.PlaceOrderInput{
		Lines: make([]usecase.LineInput, 0, len(req.Lines)),
		Shipping: model.ShippingAddress{
			Name:    req.ShippingAddress.Name,
			Phone:   req.ShippingAddress.Phone,
			Address: req.ShippingAddress.Address,
		},
		ShippingMethod: req.ShippingMethod,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
	}
	for _, line := range req.Lines {
		in.Lines = append(in.Lines, usecase.LineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	order, err := h.facade.PlaceOrder(c.Request.Context(), userID, in)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrEmptyOrder), errors.Is(err, domainErrors.ErrInvalidQuantity):
			c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, domainErrors.ErrProductNotFound):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		default:
			if _, ok := domainErrors.IsInsufficientStock(err); ok {
				c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
				return
			}
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(*order))
}

// List handles GET /api/user/orders.
func (h *OrderHandler) List(c *gin.Context) {
	h.listWith(c, h.facade.Orders)
}

// History handles GET /api/user/orders/history.
func (h *OrderHandler) History(c *gin.Context) {
	h.listWith(c, h.facade.OrderHistory)
}

// Pending handles GET /api/user/orders/pending.
func (h *OrderHandler) Pending(c *gin.Context) {
	h.listWith(c, h.facade.PendingOrders)
}

func (h *OrderHandler) listWith(c *gin.Context, list func(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error)) {
	userID := CurrentUserID(c)
	page, pageSize := pageParams(c)

	orders, total, err := list(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	response := dto.OrdersPageResponse{
		Orders:   make([]dto.OrderResponse, 0, len(orders)),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}
	for _, o := range orders {
		response.Orders = append(response.Orders, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/user/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	userID := CurrentUserID(c)
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	order, err := h.facade.Order(c.Request.Context(), userID, orderID)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// UpdateStatus handles PATCH /api/user/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	userID := CurrentUserID(c)
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	var req dto.UpdateStatusRequest
	if err := bindStrict(c, &req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "malformed request body"})
		return
	}

	order, err := h.facade.UpdateOrderStatus(c.Request.Context(), userID, orderID, model.OrderStatus(req.Status))
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidStatus) {
			c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
			return
		}
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// Cancel handles POST /api/user/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID := CurrentUserID(c)
	orderID, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	order, err := h.facade.CancelOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

func (h *OrderHandler) writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, domainErrors.ErrUnauthorized):
		c.Status(http.StatusForbidden)
	case errors.Is(err, domainErrors.ErrIllegalTransition):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		c.Status(http.StatusInternalServerError)
	}
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	lines := make([]dto.OrderLineResponse, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, dto.OrderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.StringFixed(2),
			Subtotal:    l.Subtotal.StringFixed(2),
		})
	}
	return dto.OrderResponse{
		ID:     order.ID,
		Number: order.Number,
		Status: string(order.Status),
		ShippingAddress: dto.ShippingAddressRequest{
			Name:    order.Shipping.Name,
			Phone:   order.Shipping.Phone,
			Address: order.Shipping.Address,
		},
		ShippingMethod: order.ShippingMethod,
		PaymentMethod:  order.PaymentMethod,
		PaymentStatus:  string(order.PaymentStatus),
		Notes:          order.Notes,
		TotalAmount:    order.TotalAmount.StringFixed(2),
		Lines:          lines,
		CreatedAt:      order.CreatedAt,
	}
}
