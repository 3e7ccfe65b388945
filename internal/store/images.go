package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrImageNotOwned rejects designating an image that belongs to a
	// different product as a product's main image.
	ErrImageNotOwned = errors.New("image does not belong to this product")
	// ErrDuplicateMainImage maps the partial unique index that allows at most
	// one main image per product.
	ErrDuplicateMainImage = errors.New("product already has a main image")
)

type ProductImage struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	IsMain      bool      `json:"is_main"`
	CreatedAt   time.Time `json:"created_at"`
}

type ImagesStore struct {
	db *pgxpool.Pool
}

func (s *ImagesStore) Create(ctx context.Context, img *ProductImage) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, `
		INSERT INTO product_images (product_id, url, description, is_main)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, img.ProductID, img.URL, img.Description, img.IsMain).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateMainImage
		}
		return fmt.Errorf("create image: %w", err)
	}
	return nil
}

// ListByProduct returns a product's images with the main image first.
func (s *ImagesStore) ListByProduct(ctx context.Context, productID int64) ([]ProductImage, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, product_id, url, description, is_main, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY is_main DESC, id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var out []ProductImage
	for rows.Next() {
		var img ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Description, &img.IsMain, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// SetMain designates one image as the product's main image, swapping any
// previous designation inside a single transaction so the at-most-one
// invariant holds at every point in time.
func (s *ImagesStore) SetMain(ctx context.Context, productID, imageID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		var owner int64
		err := tx.QueryRow(ctx, `SELECT product_id FROM product_images WHERE id = $1`, imageID).Scan(&owner)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("get image owner: %w", err)
		}
		if owner != productID {
			return ErrImageNotOwned
		}

		if _, err := tx.Exec(ctx, `UPDATE product_images SET is_main = false WHERE product_id = $1 AND is_main`, productID); err != nil {
			return fmt.Errorf("clear main image: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE product_images SET is_main = true WHERE id = $1`, imageID); err != nil {
			return fmt.Errorf("set main image: %w", err)
		}
		return nil
	})
}

func (s *ImagesStore) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM product_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
