package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"vehicle-orders/internal/controller/apperror"
	"vehicle-orders/internal/domain/order"
	"vehicle-orders/internal/webhook"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service   *order.OrderService
	processor webhook.Processor
}

func NewOrderHandler(s *order.OrderService, processor webhook.Processor) OrderHandler {
	return OrderHandler{service: s, processor: processor}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	created, err := h.service.CreateOrder(c, req)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidOrder) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *OrderHandler) Get(c *gin.Context) {
	orderID := c.Param("order_id")

	res, err := h.service.GetOrderByID(c, orderID)
	if err != nil {
		if errors.Is(err, apperror.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *OrderHandler) Filter(c *gin.Context) {
	query, err := h.createFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	res, err := h.service.GetOrders(c, *query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if res == nil {
		res = []order.Order{}
	}

	c.JSON(http.StatusOK, res)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus applies a manual status update. Re-applying the current status is
// a no-op; anything outside the allowed set is rejected.
func (h *OrderHandler) SetStatus(c *gin.Context) {
	orderID := c.Param("order_id")

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing status"})
		return
	}

	desired, err := order.NewStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	res, err := h.service.SetStatus(c, orderID, desired)
	if err != nil {
		switch {
		case errors.Is(err, apperror.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		case errors.Is(err, apperror.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		case errors.Is(err, apperror.ErrTransitionConflict):
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, res)
}

// Webhook receives a payment notification from the external processor.
// The raw body is kept byte for byte for downstream verification.
func (h *OrderHandler) Webhook(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot read body"})
		return
	}

	var n order.PaymentNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Malformed notification"})
		return
	}
	if n.TransactionRef == "" || n.OrderId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing transaction_ref or order_id"})
		return
	}
	n.RawPayload = raw

	outcome, err := h.processor.ProcessPaymentNotification(c, n)
	if err != nil {
		if errors.Is(err, apperror.ErrTransitionConflict) {
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	switch outcome {
	case order.OutcomeApplied:
		c.JSON(http.StatusOK, gin.H{"outcome": outcome, "order_id": n.OrderId})
	case order.OutcomeAlreadyCompleted:
		c.JSON(http.StatusOK, gin.H{"outcome": outcome, "order_id": n.OrderId})
	case order.OutcomeAccepted:
		c.JSON(http.StatusAccepted, gin.H{"outcome": outcome, "order_id": n.OrderId})
	case order.OutcomeVerificationFailed:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"outcome": outcome, "order_id": n.OrderId})
	case order.OutcomeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"outcome": outcome, "order_id": n.OrderId})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "unknown outcome"})
	}
}

type FilterParams struct {
	StatusArr  string `form:"status"`
	IDs        string `form:"id"`
	PageSize   int    `form:"limit" binding:"omitempty,min=0"`
	PageNumber int    `form:"offset" binding:"omitempty,min=0"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at"`
	SortOrder  string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

func (h *OrderHandler) createFilter(c *gin.Context) (*order.OrdersQuery, error) {
	var params FilterParams

	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	builder := order.NewOrdersQueryBuilder()

	if params.StatusArr != "" {
		statusArr := strings.Split(params.StatusArr, ",")
		statuses := make([]order.Status, len(statusArr))
		for i, v := range statusArr {
			s, err := order.NewStatus(v)
			if err != nil {
				return nil, err
			}
			statuses[i] = s
		}
		builder = builder.WithStatuses(statuses...)
	}

	if params.IDs != "" {
		builder = builder.WithIDs(strings.Split(params.IDs, ",")...)
	}

	if params.PageSize == 0 {
		params.PageSize = 10
	}
	if params.SortBy == "" {
		params.SortBy = "created_at"
	}
	if params.SortOrder == "" {
		params.SortOrder = "desc"
	}

	query, err := builder.
		WithPagination(order.Pagination{
			PageSize:   params.PageSize,
			PageNumber: params.PageNumber + 1,
		}).
		WithSort(params.SortBy, params.SortOrder).
		Build()
	if err != nil {
		return nil, fmt.Errorf("invalid filter params: %w", err)
	}

	return query, nil
}
