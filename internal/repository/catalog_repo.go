package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mavon-shop/internal/model"
)

// CatalogRepository covers the flat reference tables: brands, colors, sizes.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// ── Brands ───────────────────────────────────────────────────

func (r *CatalogRepository) CreateBrand(ctx context.Context, b model.Brand) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO brands (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		b.ID, b.Name, b.CreatedAt, b.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrInvalidInput
	}
	if err != nil {
		return fmt.Errorf("create brand: %w", err)
	}
	return nil
}

func (r *CatalogRepository) UpdateBrand(ctx context.Context, b model.Brand) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE brands SET name = $2, updated_at = $3 WHERE id = $1`,
		b.ID, b.Name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBrandNotFound
	}
	return nil
}

func (r *CatalogRepository) DeleteBrand(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBrandNotFound
	}
	return nil
}

func (r *CatalogRepository) FindBrand(ctx context.Context, id string) (model.Brand, error) {
	var b model.Brand
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM brands WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Brand{}, model.ErrBrandNotFound
	}
	if err != nil {
		return model.Brand{}, fmt.Errorf("find brand: %w", err)
	}
	return b, nil
}

func (r *CatalogRepository) ListBrands(ctx context.Context) ([]model.Brand, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM brands ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	brands := make([]model.Brand, 0)
	for rows.Next() {
		var b model.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// ── Colors ───────────────────────────────────────────────────

func (r *CatalogRepository) CreateColor(ctx context.Context, c model.Color) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO colors (id, name, hex) VALUES ($1, $2, $3)`, c.ID, c.Name, c.Hex)
	if isUniqueViolation(err) {
		return model.ErrInvalidInput
	}
	if err != nil {
		return fmt.Errorf("create color: %w", err)
	}
	return nil
}

func (r *CatalogRepository) DeleteColor(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM colors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete color: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrColorNotFound
	}
	return nil
}

func (r *CatalogRepository) ListColors(ctx context.Context) ([]model.Color, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, hex FROM colors ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("list colors: %w", err)
	}
	defer rows.Close()

	colors := make([]model.Color, 0)
	for rows.Next() {
		var c model.Color
		if err := rows.Scan(&c.ID, &c.Name, &c.Hex); err != nil {
			return nil, fmt.Errorf("scan color: %w", err)
		}
		colors = append(colors, c)
	}
	return colors, rows.Err()
}

// ── Sizes ────────────────────────────────────────────────────

func (r *CatalogRepository) CreateSize(ctx context.Context, s model.Size) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sizes (id, name) VALUES ($1, $2)`, s.ID, s.Name)
	if isUniqueViolation(err) {
		return model.ErrInvalidInput
	}
	if err != nil {
		return fmt.Errorf("create size: %w", err)
	}
	return nil
}

func (r *CatalogRepository) DeleteSize(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sizes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete size: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSizeNotFound
	}
	return nil
}

func (r *CatalogRepository) ListSizes(ctx context.Context) ([]model.Size, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM sizes ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("list sizes: %w", err)
	}
	defer rows.Close()

	sizes := make([]model.Size, 0)
	for rows.Next() {
		var s model.Size
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan size: %w", err)
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}
