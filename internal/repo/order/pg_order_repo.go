package order_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vehicle-orders/internal/controller/apperror"
	"vehicle-orders/internal/domain/order"
	"vehicle-orders/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{
	"id", "first_name", "last_name", "email", "vin_number", "vehicle_name",
	"country", "state", "town", "items", "total_price", "status",
	"payment_txn_ref", "payment_amount", "payment_method",
	"created_at", "updated_at",
}

// PgOrderRepo is the main repository
type PgOrderRepo struct {
	pg *postgres.Postgres
	repo
}

func NewPgOrderRepo(pg *postgres.Postgres) order.OrderRepo {
	return &PgOrderRepo{
		pg:   pg,
		repo: repo{db: pg.Pool, builder: pg.Builder},
	}
}

type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

func (r *repo) CreateOrder(ctx context.Context, o order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	query, args, err := r.builder.Insert("orders").
		Columns("id", "first_name", "last_name", "email", "vin_number", "vehicle_name",
			"country", "state", "town", "items", "total_price", "status",
			"created_at", "updated_at").
		Values(o.OrderId, o.FirstName, o.LastName, o.Email, o.VinNumber, o.VehicleName,
			o.Country, o.State, o.Town, items, o.TotalPrice, o.Status,
			o.CreatedAt, o.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "orders_pkey") {
			return fmt.Errorf("%w: order already exists", apperror.ErrInvalidOrder)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *repo) GetOrder(ctx context.Context, id string) (order.Order, error) {
	query, args, err := r.builder.Select(orderColumns...).
		From("orders").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("build select query: %w", err)
	}

	row := r.db.QueryRow(ctx, query, args...)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, apperror.ErrOrderNotFound
	}
	return o, err
}

func (r *repo) GetOrders(ctx context.Context, q *order.OrdersQuery) ([]order.Order, error) {
	sql, args := r.buildOrdersQuery(q)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	return parseOrderRows(rows)
}

// CompleteOrder flips a pending order to completed and stores the payment
// detail, in one conditional write. The status predicate makes replayed and
// racing completions lose cleanly: exactly one writer observes rows=1.
func (r *repo) CompleteOrder(ctx context.Context, req order.CompleteOrderRequest) (bool, error) {
	query, args, err := r.builder.Update("orders").
		Set("status", order.StatusCompleted).
		Set("payment_txn_ref", req.Detail.TransactionRef).
		Set("payment_amount", req.Detail.AmountPaid).
		Set("payment_method", req.Detail.Method).
		Set("updated_at", req.UpdatedAt).
		Where(squirrel.Eq{"id": req.OrderId, "status": order.StatusPending}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build complete query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("complete order: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *repo) buildOrdersQuery(q *order.OrdersQuery) (string, []interface{}) {
	query := r.builder.Select(orderColumns...).From("orders")

	if len(q.IDs) > 0 {
		query = query.Where(squirrel.Eq{"id": q.IDs})
	}

	if len(q.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"status": q.Statuses})
	}

	if q.SortBy != nil && q.SortOrder != nil {
		query = query.OrderBy(fmt.Sprintf("%s %s", *q.SortBy, *q.SortOrder))
	} else {
		query = query.OrderBy("created_at DESC")
	}

	if q.Pagination != nil {
		offset := (q.Pagination.PageNumber - 1) * q.Pagination.PageSize
		query = query.Limit(uint64(q.Pagination.PageSize)).Offset(uint64(offset))
	}

	sql, args, _ := query.ToSql()
	return sql, args
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var (
		o          order.Order
		rawStatus  string
		rawItems   []byte
		txnRef     *string
		amountPaid *float64
		method     *string
	)

	err := row.Scan(&o.OrderId, &o.FirstName, &o.LastName, &o.Email, &o.VinNumber,
		&o.VehicleName, &o.Country, &o.State, &o.Town, &rawItems, &o.TotalPrice,
		&rawStatus, &txnRef, &amountPaid, &method, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return order.Order{}, err
	}

	status, err := order.NewStatus(rawStatus)
	if err != nil {
		return order.Order{}, fmt.Errorf("invalid status in database: %w", err)
	}
	o.Status = status

	if err := json.Unmarshal(rawItems, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("unmarshal items: %w", err)
	}

	if method != nil {
		detail := order.PaymentDetail{Method: *method}
		if txnRef != nil {
			detail.TransactionRef = *txnRef
		}
		if amountPaid != nil {
			detail.AmountPaid = *amountPaid
		}
		o.PaymentDetail = &detail
	}

	return o, nil
}

func parseOrderRows(rows pgx.Rows) ([]order.Order, error) {
	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}
