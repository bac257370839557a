package order

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"vehicle-orders/internal/controller/apperror"

	"github.com/google/uuid"
)

// Order is a customer purchase record tracked through payment completion.
type Order struct {
	OrderId       string         `json:"order_id"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	Email         string         `json:"email"`
	VinNumber     string         `json:"vin_number,omitempty"`
	VehicleName   string         `json:"vehicle_name,omitempty"`
	Country       string         `json:"country,omitempty"`
	State         string         `json:"state,omitempty"`
	Town          string         `json:"town,omitempty"`
	Items         []LineItem     `json:"items"`
	TotalPrice    float64        `json:"total_price"`
	Status        Status         `json:"status"`
	PaymentDetail *PaymentDetail `json:"payment_detail,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// LineItem is a single position of an order.
type LineItem struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Subtotal returns unit price times quantity.
func (i LineItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// PaymentDetail records how a completed order was paid.
// It is present exactly when the order status is completed.
type PaymentDetail struct {
	TransactionRef string  `json:"transaction_ref"`
	AmountPaid     float64 `json:"amount_paid"`
	Method         string  `json:"method"`
}

// PaymentMethodManual marks completions applied by an operator rather than a
// verified provider notification.
const PaymentMethodManual = "manual"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

var AvailableStatuses = []Status{StatusPending, StatusCompleted}

// CanBeUpdatedTo reports whether a transition from s to newStatus is allowed.
// Completed is terminal; the state never moves backward.
func (s Status) CanBeUpdatedTo(newStatus Status) bool {
	switch s {
	case StatusPending:
		return newStatus == StatusCompleted
	case StatusCompleted:
		return false
	default:
		return false
	}
}

// NewStatus parses a raw status string. Casing is normalized; anything outside
// the closed pending/completed set is rejected.
func NewStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(AvailableStatuses, s) {
		return s, nil
	}
	return "", apperror.ErrInvalidStatus
}

// ComputeTotal sums line item subtotals. Totals are always derived here and
// never taken from client input.
func ComputeTotal(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// CreateOrderRequest is the validated input for order creation.
type CreateOrderRequest struct {
	FirstName   string     `json:"first_name" binding:"required"`
	LastName    string     `json:"last_name" binding:"required"`
	Email       string     `json:"email" binding:"required"`
	VinNumber   string     `json:"vin_number"`
	VehicleName string     `json:"vehicle_name"`
	Country     string     `json:"country"`
	State       string     `json:"state"`
	Town        string     `json:"town"`
	Items       []LineItem `json:"items" binding:"required"`
}

func (r *CreateOrderRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return fmt.Errorf("%w: customer name is required", apperror.ErrInvalidOrder)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: invalid email", apperror.ErrInvalidOrder)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: at least one line item is required", apperror.ErrInvalidOrder)
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("%w: item %d has no name", apperror.ErrInvalidOrder, i)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: item %d has negative price", apperror.ErrInvalidOrder, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d has non-positive quantity", apperror.ErrInvalidOrder, i)
		}
	}
	return nil
}

// NewOrder builds a pending order from a validated creation request.
// The order key is assigned here and is stable for the order's lifetime.
func NewOrder(req CreateOrderRequest, now time.Time) (Order, error) {
	if err := req.Validate(); err != nil {
		return Order{}, err
	}

	return Order{
		OrderId:     uuid.New().String(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		VinNumber:   req.VinNumber,
		VehicleName: req.VehicleName,
		Country:     req.Country,
		State:       req.State,
		Town:        req.Town,
		Items:       req.Items,
		TotalPrice:  ComputeTotal(req.Items),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

var errInvalidSort = errors.New("invalid sort")

type Pagination struct {
	PageSize int

	PageNumber int
}

type OrdersQuery struct {
	IDs        []string
	Statuses   []Status
	Pagination *Pagination
	SortBy     *string
	SortOrder  *string
}

func (o *OrdersQuery) Validate() error {
	if o.SortBy != nil && *o.SortBy != "created_at" && *o.SortBy != "updated_at" {
		return fmt.Errorf("%w by: %s", errInvalidSort, *o.SortBy)
	}
	if o.SortOrder != nil && *o.SortOrder != "asc" && *o.SortOrder != "desc" {
		return fmt.Errorf("%w order: %s", errInvalidSort, *o.SortOrder)
	}
	return nil
}

type OrdersQueryBuilder struct {
	query *OrdersQuery
}

func NewOrdersQueryBuilder() *OrdersQueryBuilder {
	return &OrdersQueryBuilder{
		query: &OrdersQuery{},
	}
}

func (b *OrdersQueryBuilder) Build() (*OrdersQuery, error) {
	if err := b.query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrInvalidOrdersQuery, err.Error())
	}
	return b.query, nil
}

func (b *OrdersQueryBuilder) WithIDs(ids ...string) *OrdersQueryBuilder {
	b.query.IDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithStatuses(statuses ...Status) *OrdersQueryBuilder {
	b.query.Statuses = statuses
	return b
}

func (b *OrdersQueryBuilder) WithSort(sortBy, sortOrder string) *OrdersQueryBuilder {
	b.query.SortBy = &sortBy
	b.query.SortOrder = &sortOrder
	return b
}

func (b *OrdersQueryBuilder) WithPagination(pagination Pagination) *OrdersQueryBuilder {
	b.query.Pagination = &pagination
	return b
}
