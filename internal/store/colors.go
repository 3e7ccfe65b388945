package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateColor = errors.New("a color with that name already exists")

// Color is the shared lookup table referenced by variant color fields.
// Deleting a color nulls the references (ON DELETE SET NULL), it never
// cascades into variants.
type Color struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ColorsStore struct {
	db *pgxpool.Pool
}

func (s *ColorsStore) Create(ctx context.Context, c *Color) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, `INSERT INTO colors (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateColor
		}
		return fmt.Errorf("create color: %w", err)
	}
	return nil
}

func (s *ColorsStore) List(ctx context.Context) ([]Color, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `SELECT id, name FROM colors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list colors: %w", err)
	}
	defer rows.Close()

	var out []Color
	for rows.Next() {
		var c Color
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan color: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *ColorsStore) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM colors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete color: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
