package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Order is the persisted snapshot of a completed cart. Lines freeze the
// variant's display name and unit price at order time, so later price or
// catalog changes never alter historical orders.
type Order struct {
	ID               int64           `json:"id"`
	OrderNumber      string          `json:"order_number"`
	Email            string          `json:"email"`
	UserID           *int64          `json:"user_id,omitempty"`
	Confirmed        bool            `json:"confirmed"`
	Paid             bool            `json:"paid"`
	PaymentSessionID *string         `json:"-"`
	Total            decimal.Decimal `json:"total"`
	CreatedAt        time.Time       `json:"created_at"`
}

type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	VariantID   int64           `json:"variant_id"`
	DisplayName string          `json:"display_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

type OrderDetail struct {
	Order Order       `json:"order"`
	Lines []OrderLine `json:"lines"`
}

type OrdersStore struct {
	db      *pgxpool.Pool
	numbers *OrderNumberGenerator
}

// CreateWithLines persists the order and every line in one transaction:
// either the whole snapshot lands or none of it does.
func (s *OrdersStore) CreateWithLines(ctx context.Context, o *Order, lines []OrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("order has no lines")
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders (email, user_id, total)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, o.Email, o.UserID, o.Total).Scan(&o.ID, &o.CreatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		number, err := s.numbers.Generate(o.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE orders SET order_number = $1 WHERE id = $2`, number, o.ID); err != nil {
			return fmt.Errorf("set order number: %w", err)
		}
		o.OrderNumber = number

		for i := range lines {
			lines[i].OrderID = o.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO order_lines (order_id, product_id, variant_id, display_name, unit_price, quantity)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id
			`, o.ID, lines[i].ProductID, lines[i].VariantID, lines[i].DisplayName, lines[i].UnitPrice, lines[i].Quantity,
			).Scan(&lines[i].ID)
			if err != nil {
				return fmt.Errorf("create order line: %w", err)
			}
		}
		return nil
	})
}

const orderColumns = `id, COALESCE(order_number, ''), email, user_id, confirmed, paid, payment_session_id, total, created_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Email, &o.UserID, &o.Confirmed,
		&o.Paid, &o.PaymentSessionID, &o.Total, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

func (s *OrdersStore) GetByID(ctx context.Context, id int64) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)
	return scanOrder(s.db.QueryRow(ctx, query, id))
}

func (s *OrdersStore) GetDetail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	o, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, display_name, unit_price, quantity
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	detail := OrderDetail{Order: *o}
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.VariantID, &l.DisplayName, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		detail.Lines = append(detail.Lines, l)
	}
	return &detail, rows.Err()
}

func (s *OrdersStore) ListByEmail(ctx context.Context, email string, limit, offset int) ([]Order, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_rows
		FROM orders
		WHERE email = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, orderColumns)

	rows, err := s.db.Query(ctx, query, email, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	total := 0
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.Email, &o.UserID, &o.Confirmed,
			&o.Paid, &o.PaymentSessionID, &o.Total, &o.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// LastOrderTime returns the creation time of the email's most recent order,
// used for the resubmission cooldown. ErrNotFound means no prior order.
func (s *OrdersStore) LastOrderTime(ctx context.Context, email string) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var t time.Time
	err := s.db.QueryRow(ctx, `
		SELECT created_at FROM orders WHERE email = $1 ORDER BY created_at DESC LIMIT 1
	`, email).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("last order time: %w", err)
	}
	return t, nil
}

func (s *OrdersStore) SetPaymentSession(ctx context.Context, orderID int64, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `UPDATE orders SET payment_session_id = $1 WHERE id = $2`, sessionID, orderID)
	if err != nil {
		return fmt.Errorf("set payment session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid matches a completed payment back to its order by (email, session
// id) and flips the paid flag. ErrNotFound means the webhook references an
// order this shop never created.
func (s *OrdersStore) MarkPaid(ctx context.Context, email, sessionID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE orders SET paid = true
		WHERE email = $1 AND payment_session_id = $2
		RETURNING %s
	`, orderColumns)

	return scanOrder(s.db.QueryRow(ctx, query, email, sessionID))
}

func (s *OrdersStore) Confirm(ctx context.Context, orderID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `UPDATE orders SET confirmed = true WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("confirm order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
