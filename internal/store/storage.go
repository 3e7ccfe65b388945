package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop/internal/catalog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Products interface {
		Create(context.Context, *Product) error
		GetByID(context.Context, int64) (*Product, error)
		List(context.Context, ProductFilters, int, int) ([]*Product, int, error)
		Update(context.Context, *Product) error
		Delete(context.Context, int64) error
	}
	Variants interface {
		ListByProduct(context.Context, *Product) ([]catalog.Variant, error)
		ListByCategory(context.Context, catalog.Category) ([]catalog.Variant, error)
		GetByID(context.Context, *Product, int64) (*catalog.Variant, error)
		Create(context.Context, *Product, catalog.Category, map[string]string, bool) (*catalog.Variant, error)
		SetAvailability(context.Context, *Product, int64, bool) error
		Delete(context.Context, *Product, int64) error
	}
	Producers interface {
		Create(context.Context, *Producer) error
		List(context.Context) ([]Producer, error)
		Update(context.Context, *Producer) error
		Delete(context.Context, int64) error
	}
	Colors interface {
		Create(context.Context, *Color) error
		List(context.Context) ([]Color, error)
		Delete(context.Context, int64) error
	}
	Images interface {
		Create(context.Context, *ProductImage) error
		ListByProduct(context.Context, int64) ([]ProductImage, error)
		SetMain(context.Context, int64, int64) error
		Delete(context.Context, int64) error
	}
	Users interface {
		Create(context.Context, *User) error
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		Activate(context.Context, int64) error
		UpdatePassword(context.Context, *User) error
		SaveRefreshToken(context.Context, int64, string) error
		GetRefreshToken(context.Context, int64) (string, error)
		DeleteRefreshToken(context.Context, int64) error
	}
	Orders interface {
		CreateWithLines(context.Context, *Order, []OrderLine) error
		GetByID(context.Context, int64) (*Order, error)
		GetDetail(context.Context, int64) (*OrderDetail, error)
		ListByEmail(context.Context, string, int, int) ([]Order, int, error)
		LastOrderTime(context.Context, string) (time.Time, error)
		SetPaymentSession(context.Context, int64, string) error
		MarkPaid(context.Context, string, string) (*Order, error)
		Confirm(context.Context, int64) error
	}
	Ratings interface {
		Add(context.Context, int64, int) error
	}
}

func NewStorage(db *pgxpool.Pool, registry *catalog.Registry, orderNumbers *OrderNumberGenerator) Storage {
	return Storage{
		Products:  &ProductsStore{db},
		Variants:  &VariantsStore{db: db, registry: registry},
		Producers: &ProducersStore{db},
		Colors:    &ColorsStore{db},
		Images:    &ImagesStore{db},
		Users:     &UsersStore{db},
		Orders:    &OrdersStore{db: db, numbers: orderNumbers},
		Ratings:   &RatingsStore{db},
	}
}

// withTx runs fn inside a transaction, rolling back on error. Multi-row writes
// (order plus its lines, image main-flag swaps) go through here so a mid-loop
// failure can never leave a partial record behind.
func withTx(ctx context.Context, db *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
