package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop/internal/catalog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateName   = errors.New("a product with that name already exists")
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100")
	ErrProducerMissing = errors.New("producer does not exist")
)

type Product struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	ProducerID  int64            `json:"producer_id"`
	Category    catalog.Category `json:"category"`
	Promoted    bool             `json:"promoted"`
	Discount    int              `json:"discount"`
	AvgRating   float64          `json:"avg_rating"`
	CreatedAt   time.Time        `json:"created_at"`
}

// CurrentPrice applies the discount percentage and rounds to two decimals.
func (p *Product) CurrentPrice() decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - p.Discount))
	return p.Price.Mul(factor).Div(decimal.NewFromInt(100)).Round(2)
}

type ProductFilters struct {
	Category catalog.Category
	Promoted *bool
}

type ProductsStore struct {
	db *pgxpool.Pool
}

func (s *ProductsStore) Create(ctx context.Context, p *Product) error {
	if p.Discount < 0 || p.Discount > 100 {
		return ErrInvalidDiscount
	}

	query := `
		INSERT INTO products (name, description, price, producer_id, category, promoted, discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		p.Name, p.Description, p.Price, p.ProducerID, p.Category, p.Promoted, p.Discount,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == "23505":
				return ErrDuplicateName
			case pgErr.Code == "23503":
				return ErrProducerMissing
			case pgErr.Code == "23514":
				return ErrInvalidDiscount
			}
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

const productColumns = `
	p.id, p.name, p.description, p.price, p.producer_id, p.category,
	p.promoted, p.discount, COALESCE(AVG(r.value), 0) AS avg_rating, p.created_at
`

func (s *ProductsStore) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN ratings r ON r.product_id = p.id
		WHERE p.id = $1
		GROUP BY p.id
	`, productColumns)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var p Product
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.ProducerID, &p.Category,
		&p.Promoted, &p.Discount, &p.AvgRating, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (s *ProductsStore) List(ctx context.Context, filters ProductFilters, limit, offset int) ([]*Product, int, error) {
	where := "1=1"
	args := []any{}
	arg := 1

	if filters.Category != "" {
		where += fmt.Sprintf(" AND p.category = $%d", arg)
		args = append(args, filters.Category)
		arg++
	}
	if filters.Promoted != nil {
		where += fmt.Sprintf(" AND p.promoted = $%d", arg)
		args = append(args, *filters.Promoted)
		arg++
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM products p
		LEFT JOIN ratings r ON r.product_id = p.id
		WHERE %s
		GROUP BY p.id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $%d OFFSET $%d
	`, productColumns, where, arg, arg+1)
	args = append(args, limit, offset)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*Product
	total := 0
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.ProducerID, &p.Category,
			&p.Promoted, &p.Discount, &p.AvgRating, &p.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, &p)
	}
	return out, total, rows.Err()
}

func (s *ProductsStore) Update(ctx context.Context, p *Product) error {
	if p.Discount < 0 || p.Discount > 100 {
		return ErrInvalidDiscount
	}

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, producer_id = $4,
		    promoted = $5, discount = $6
		WHERE id = $7
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	// Category is deliberately not updatable: variants of the old type would
	// be orphaned. Changing the category means creating a new product.
	tag, err := s.db.Exec(ctx, query,
		p.Name, p.Description, p.Price, p.ProducerID, p.Promoted, p.Discount, p.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProductsStore) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type RatingsStore struct {
	db *pgxpool.Pool
}

func (s *RatingsStore) Add(ctx context.Context, productID int64, value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, `INSERT INTO ratings (product_id, value) VALUES ($1, $2)`, productID, value)
	if err != nil {
		return fmt.Errorf("add rating: %w", err)
	}
	return nil
}
