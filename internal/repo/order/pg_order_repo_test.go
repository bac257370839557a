package order_repo

import (
	"context"
	"testing"
	"time"

	"vehicle-orders/internal/controller/apperror"
	"vehicle-orders/internal/domain/order"

	"github.com/Masterminds/squirrel"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRow(mock pgxmock.PgxPoolIface, id, status string, txnRef, method *string, amount *float64, ts time.Time) *pgxmock.Rows {
	return mock.NewRows(orderColumns).
		AddRow(id, "Ada", "Lovelace", "ada@example.com", "VIN123", "Model S",
			"UK", "", "London", []byte(`[{"name":"Model S","unit_price":100,"quantity":1}]`),
			100.0, status, txnRef, amount, method, ts, ts)
}

func TestGetOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &repo{db: mock, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
	ctx := context.Background()

	t.Run("should return pending order without payment detail", func(t *testing.T) {
		ts := time.Now()

		mock.ExpectQuery(`SELECT .+ FROM orders WHERE id = \$1`).
			WithArgs("order-1").
			WillReturnRows(orderRow(mock, "order-1", "pending", nil, nil, nil, ts))

		result, err := repo.GetOrder(ctx, "order-1")

		require.NoError(t, err)
		assert.Equal(t, "order-1", result.OrderId)
		assert.Equal(t, order.StatusPending, result.Status)
		assert.Nil(t, result.PaymentDetail)
		assert.Len(t, result.Items, 1)
	})

	t.Run("should return completed order with payment detail", func(t *testing.T) {
		ts := time.Now()
		txnRef := "txn-9"
		method := "card"
		amount := 100.0

		mock.ExpectQuery(`SELECT .+ FROM orders WHERE id = \$1`).
			WithArgs("order-2").
			WillReturnRows(orderRow(mock, "order-2", "completed", &txnRef, &method, &amount, ts))

		result, err := repo.GetOrder(ctx, "order-2")

		require.NoError(t, err)
		assert.Equal(t, order.StatusCompleted, result.Status)
		require.NotNil(t, result.PaymentDetail)
		assert.Equal(t, "txn-9", result.PaymentDetail.TransactionRef)
		assert.Equal(t, 100.0, result.PaymentDetail.AmountPaid)
		assert.Equal(t, "card", result.PaymentDetail.Method)
	})

	t.Run("should map missing row to not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM orders WHERE id = \$1`).
			WithArgs("missing").
			WillReturnRows(mock.NewRows(orderColumns))

		_, err := repo.GetOrder(ctx, "missing")

		assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
	})
}

func TestGetOrders(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &repo{db: mock, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
	ctx := context.Background()

	t.Run("should filter by status", func(t *testing.T) {
		ts := time.Now()

		rows := orderRow(mock, "order-1", "pending", nil, nil, nil, ts)

		mock.ExpectQuery(`SELECT .+ FROM orders WHERE status IN \(\$1\)`).
			WithArgs(order.StatusPending).
			WillReturnRows(rows)

		query, buildErr := order.NewOrdersQueryBuilder().WithStatuses(order.StatusPending).Build()
		require.NoError(t, buildErr)

		result, err := repo.GetOrders(ctx, query)

		require.NoError(t, err)
		assert.Len(t, result, 1)
		assert.Equal(t, "order-1", result[0].OrderId)
	})

	t.Run("should apply sort and pagination", func(t *testing.T) {
		ts := time.Now()

		mock.ExpectQuery(`SELECT .+ FROM orders ORDER BY updated_at asc LIMIT 10 OFFSET 10`).
			WillReturnRows(orderRow(mock, "order-3", "pending", nil, nil, nil, ts))

		query, buildErr := order.NewOrdersQueryBuilder().
			WithSort("updated_at", "asc").
			WithPagination(order.Pagination{PageSize: 10, PageNumber: 2}).
			Build()
		require.NoError(t, buildErr)

		result, err := repo.GetOrders(ctx, query)

		require.NoError(t, err)
		assert.Len(t, result, 1)
	})
}

func TestCreateOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &repo{db: mock, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
	ctx := context.Background()

	t.Run("should insert pending order", func(t *testing.T) {
		now := time.Now()
		o, buildErr := order.NewOrder(order.CreateOrderRequest{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Items:     []order.LineItem{{Name: "Model S", UnitPrice: 100, Quantity: 1}},
		}, now)
		require.NoError(t, buildErr)

		mock.ExpectExec(`INSERT INTO orders`).
			WithArgs(o.OrderId, "Ada", "Lovelace", "ada@example.com", "", "",
				"", "", "", []byte(`[{"name":"Model S","unit_price":100,"quantity":1}]`),
				100.0, order.StatusPending, now, now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.CreateOrder(ctx, o)

		require.NoError(t, err)
	})

	t.Run("should handle database error", func(t *testing.T) {
		o := order.Order{OrderId: "order-1", Items: []order.LineItem{}}

		mock.ExpectExec(`INSERT INTO orders`).
			WillReturnError(assert.AnError)

		err := repo.CreateOrder(ctx, o)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert order")
	})
}

func TestCompleteOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &repo{db: mock, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
	ctx := context.Background()

	req := order.CompleteOrderRequest{
		OrderId: "order-1",
		Detail: order.PaymentDetail{
			TransactionRef: "txn-9",
			AmountPaid:     100,
			Method:         "card",
		},
		UpdatedAt: time.Now(),
	}

	t.Run("should report won write when order was pending", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders SET status = \$1, payment_txn_ref = \$2, payment_amount = \$3, payment_method = \$4, updated_at = \$5 WHERE id = \$6 AND status = \$7`).
			WithArgs(order.StatusCompleted, "txn-9", 100.0, "card", req.UpdatedAt, "order-1", order.StatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		won, err := repo.CompleteOrder(ctx, req)

		require.NoError(t, err)
		assert.True(t, won)
	})

	t.Run("should report lost write when order was not pending", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders SET status = \$1, payment_txn_ref = \$2, payment_amount = \$3, payment_method = \$4, updated_at = \$5 WHERE id = \$6 AND status = \$7`).
			WithArgs(order.StatusCompleted, "txn-9", 100.0, "card", req.UpdatedAt, "order-1", order.StatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		won, err := repo.CompleteOrder(ctx, req)

		require.NoError(t, err)
		assert.False(t, won)
	})

	t.Run("should handle database error", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders SET`).
			WillReturnError(assert.AnError)

		_, err := repo.CompleteOrder(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "complete order")
	})
}
