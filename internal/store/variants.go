package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop/internal/catalog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCategory signals that a product carries a category the
	// registry knows nothing about, i.e. no catalog data exists for it.
	ErrUnknownCategory = errors.New("no variant type registered for this category")
	// ErrCategoryMismatch guards the invariant that a variant's table matches
	// its parent product's category.
	ErrCategoryMismatch = errors.New("variant type does not match product category")
	// ErrDuplicateVariant maps the unique constraint over (product, attribute
	// values...) on each variant table.
	ErrDuplicateVariant = errors.New("a variant of this product with identical attributes already exists")
	ErrColorNotFound    = errors.New("unknown color")
	ErrInvalidAttribute = errors.New("invalid attribute value")
)

// VariantsStore reads and writes the per-category variant tables. All SQL is
// assembled from the registry's type descriptors, so the store and the filter
// engine always agree on the attribute field set.
type VariantsStore struct {
	db       *pgxpool.Pool
	registry *catalog.Registry
}

// selectClause builds the column list for one variant type: structural columns
// first, then each attribute field cast to its canonical text form.
func selectClause(spec catalog.Spec) string {
	cols := []string{"v.id", "v.product_id", "v.available", "v.created_at"}
	for _, f := range spec.Fields {
		switch f.Kind {
		case catalog.FieldColor:
			cols = append(cols, "COALESCE(c.name, '')")
		default:
			cols = append(cols, fmt.Sprintf("v.%s::text", f.QueryPath))
		}
	}
	return strings.Join(cols, ", ")
}

func scanVariant(rows pgx.Rows, spec catalog.Spec) (catalog.Variant, error) {
	v := catalog.Variant{Category: spec.Category, Attrs: make(map[string]string, len(spec.Fields))}

	raw := make([]string, len(spec.Fields))
	dest := []any{&v.ID, &v.ProductID, &v.Available, &v.CreatedAt}
	for i := range raw {
		dest = append(dest, &raw[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return v, fmt.Errorf("scan variant: %w", err)
	}

	for i, f := range spec.Fields {
		v.Attrs[f.Name] = canonicalColumn(f, raw[i])
	}
	return v, nil
}

// canonicalColumn normalizes a scanned column into the engine's canonical
// string form: numeric columns lose trailing zeros, colors stay as names.
func canonicalColumn(f catalog.AttributeField, raw string) string {
	if f.Kind == catalog.FieldDecimal {
		if d, err := decimal.NewFromString(raw); err == nil {
			return d.String()
		}
	}
	return raw
}

func (s *VariantsStore) resolve(p *Product) (catalog.Spec, error) {
	spec, ok := s.registry.Resolve(p.Category)
	if !ok {
		return catalog.Spec{}, ErrUnknownCategory
	}
	return spec, nil
}

func (s *VariantsStore) ListByProduct(ctx context.Context, p *Product) ([]catalog.Variant, error) {
	spec, err := s.resolve(p)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s v
		LEFT JOIN colors c ON c.id = v.color_id
		WHERE v.product_id = $1
		ORDER BY v.id
	`, selectClause(spec), spec.Table)

	return s.queryVariants(ctx, spec, query, p.ID)
}

// ListByCategory returns every variant of one type across the catalog, for
// catalog-wide browsing with facets.
func (s *VariantsStore) ListByCategory(ctx context.Context, cat catalog.Category) ([]catalog.Variant, error) {
	spec, ok := s.registry.Resolve(cat)
	if !ok {
		return nil, ErrUnknownCategory
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s v
		LEFT JOIN colors c ON c.id = v.color_id
		ORDER BY v.product_id, v.id
	`, selectClause(spec), spec.Table)

	return s.queryVariants(ctx, spec, query)
}

func (s *VariantsStore) queryVariants(ctx context.Context, spec catalog.Spec, query string, args ...any) ([]catalog.Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.Table, err)
	}
	defer rows.Close()

	var out []catalog.Variant
	for rows.Next() {
		v, err := scanVariant(rows, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *VariantsStore) GetByID(ctx context.Context, p *Product, variantID int64) (*catalog.Variant, error) {
	spec, err := s.resolve(p)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s v
		LEFT JOIN colors c ON c.id = v.color_id
		WHERE v.product_id = $1 AND v.id = $2
	`, selectClause(spec), spec.Table)

	variants, err := s.queryVariants(ctx, spec, query, p.ID, variantID)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, ErrNotFound
	}
	return &variants[0], nil
}

// Create inserts a variant of the product's type. Attribute values arrive as
// strings keyed by field name; decimals are validated here and colors are
// resolved by display name. The product's category is checked against the
// target table on every write, and the attribute-tuple uniqueness constraint
// surfaces as ErrDuplicateVariant.
func (s *VariantsStore) Create(ctx context.Context, p *Product, cat catalog.Category, attrs map[string]string, available bool) (*catalog.Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	spec, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	// a variant declared for one type can never land in another type's table
	if cat != "" && cat != p.Category {
		return nil, ErrCategoryMismatch
	}
	for name := range attrs {
		if _, ok := spec.Field(name); !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidAttribute, name)
		}
	}

	cols := []string{"product_id", "available"}
	args := []any{p.ID, available}
	canonical := make(map[string]string, len(spec.Fields))

	for _, f := range spec.Fields {
		raw := strings.TrimSpace(attrs[f.Name])
		switch f.Kind {
		case catalog.FieldColor:
			if raw == "" {
				cols = append(cols, "color_id")
				args = append(args, nil)
				continue
			}
			var colorID int64
			err := s.db.QueryRow(ctx, `SELECT id FROM colors WHERE name = $1`, raw).Scan(&colorID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, ErrColorNotFound
				}
				return nil, fmt.Errorf("resolve color: %w", err)
			}
			cols = append(cols, "color_id")
			args = append(args, colorID)
			canonical[f.Name] = raw
		default:
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s=%q", ErrInvalidAttribute, f.Name, raw)
			}
			cols = append(cols, f.QueryPath)
			args = append(args, d)
			canonical[f.Name] = d.String()
		}
	}

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES (%s)
		RETURNING id, created_at
	`, spec.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	v := catalog.Variant{
		ProductID: p.ID,
		Category:  spec.Category,
		Available: available,
		Attrs:     canonical,
	}
	if err := s.db.QueryRow(ctx, query, args...).Scan(&v.ID, &v.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateVariant
		}
		return nil, fmt.Errorf("create variant: %w", err)
	}
	return &v, nil
}

func (s *VariantsStore) SetAvailability(ctx context.Context, p *Product, variantID int64, available bool) error {
	spec, err := s.resolve(p)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET available = $1 WHERE id = $2 AND product_id = $3`, spec.Table)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, available, variantID, p.ID)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *VariantsStore) Delete(ctx context.Context, p *Product, variantID int64) error {
	spec, err := s.resolve(p)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND product_id = $2`, spec.Table)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, variantID, p.ID)
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
