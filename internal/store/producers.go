package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrDuplicateProducer = errors.New("a producer with that name already exists")
	ErrProducerInUse     = errors.New("producer still has products")
)

type Producer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Phone   string `json:"phone"`
}

type ProducersStore struct {
	db *pgxpool.Pool
}

func (s *ProducersStore) Create(ctx context.Context, p *Producer) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, `
		INSERT INTO producers (name, address, city, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.Name, p.Address, p.City, p.Phone).Scan(&p.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateProducer
		}
		return fmt.Errorf("create producer: %w", err)
	}
	return nil
}

func (s *ProducersStore) List(ctx context.Context) ([]Producer, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `SELECT id, name, address, city, phone FROM producers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list producers: %w", err)
	}
	defer rows.Close()

	var out []Producer
	for rows.Next() {
		var p Producer
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.City, &p.Phone); err != nil {
			return nil, fmt.Errorf("scan producer: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *ProducersStore) Update(ctx context.Context, p *Producer) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE producers
		SET name = $1, address = $2, city = $3, phone = $4
		WHERE id = $5
	`, p.Name, p.Address, p.City, p.Phone, p.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateProducer
		}
		return fmt.Errorf("update producer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete refuses while products still reference the producer; reassign or
// delete those first.
func (s *ProducersStore) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM producers WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrProducerInUse
		}
		return fmt.Errorf("delete producer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
