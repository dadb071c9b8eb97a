package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mavon-shop/internal/model"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) Create(ctx context.Context, p model.Product, colorIDs []string, sizeIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create product: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO products (id, name, brand_id, price, discounted_price, description, image_url, stock, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Name, p.BrandID, p.Price, p.DiscountedPrice, p.Description, p.ImageURL, p.Stock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	if err := insertVariants(ctx, tx, p.ID, colorIDs, sizeIDs); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ProductRepository) Update(ctx context.Context, p model.Product, colorIDs []string, sizeIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update product: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE products
		 SET name = $2, brand_id = $3, price = $4, discounted_price = $5,
		     description = $6, image_url = $7, stock = $8, updated_at = $9
		 WHERE id = $1`,
		p.ID, p.Name, p.BrandID, p.Price, p.DiscountedPrice, p.Description, p.ImageURL, p.Stock, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_colors WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear product colors: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM product_sizes WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear product sizes: %w", err)
	}

	if err := insertVariants(ctx, tx, p.ID, colorIDs, sizeIDs); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertVariants(ctx context.Context, tx pgx.Tx, productID string, colorIDs []string, sizeIDs []string) error {
	for _, colorID := range colorIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO product_colors (product_id, color_id) VALUES ($1, $2)`, productID, colorID); err != nil {
			return fmt.Errorf("insert product color: %w", err)
		}
	}
	for _, sizeID := range sizeIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO product_sizes (product_id, size_id) VALUES ($1, $2)`, productID, sizeID); err != nil {
			return fmt.Errorf("insert product size: %w", err)
		}
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := r.pool.QueryRow(ctx,
		`SELECT p.id, p.name, p.brand_id, b.name, p.price, p.discounted_price,
		        p.description, p.image_url, p.stock, p.created_at, p.updated_at
		 FROM products p JOIN brands b ON b.id = p.brand_id
		 WHERE p.id = $1`, id).
		Scan(&p.ID, &p.Name, &p.BrandID, &p.BrandName, &p.Price, &p.DiscountedPrice,
			&p.Description, &p.ImageURL, &p.Stock, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, model.ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("find product: %w", err)
	}

	if err := r.attachVariants(ctx, &p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductRepository) attachVariants(ctx context.Context, p *model.Product) error {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.hex FROM product_colors pc
		 JOIN colors c ON c.id = pc.color_id
		 WHERE pc.product_id = $1 ORDER BY lower(c.name)`, p.ID)
	if err != nil {
		return fmt.Errorf("load product colors: %w", err)
	}
	defer rows.Close()

	p.Colors = make([]model.Color, 0)
	for rows.Next() {
		var c model.Color
		if err := rows.Scan(&c.ID, &c.Name, &c.Hex); err != nil {
			return fmt.Errorf("scan product color: %w", err)
		}
		p.Colors = append(p.Colors, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	sizeRows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name FROM product_sizes ps
		 JOIN sizes s ON s.id = ps.size_id
		 WHERE ps.product_id = $1 ORDER BY lower(s.name)`, p.ID)
	if err != nil {
		return fmt.Errorf("load product sizes: %w", err)
	}
	defer sizeRows.Close()

	p.Sizes = make([]model.Size, 0)
	for sizeRows.Next() {
		var s model.Size
		if err := sizeRows.Scan(&s.ID, &s.Name); err != nil {
			return fmt.Errorf("scan product size: %w", err)
		}
		p.Sizes = append(p.Sizes, s)
	}
	return sizeRows.Err()
}

// List applies the shop-page filters and returns one page plus the total
// match count for the pagination envelope.
func (r *ProductRepository) List(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.BrandID != "" {
		where = append(where, "p.brand_id = "+arg(f.BrandID))
	}
	if f.ColorID != "" {
		where = append(where, "EXISTS (SELECT 1 FROM product_colors pc WHERE pc.product_id = p.id AND pc.color_id = "+arg(f.ColorID)+")")
	}
	if f.SizeID != "" {
		where = append(where, "EXISTS (SELECT 1 FROM product_sizes ps WHERE ps.product_id = p.id AND ps.size_id = "+arg(f.SizeID)+")")
	}
	if f.MinPrice > 0 {
		where = append(where, "COALESCE(p.discounted_price, p.price) >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		where = append(where, "COALESCE(p.discounted_price, p.price) <= "+arg(f.MaxPrice))
	}
	if strings.TrimSpace(f.Search) != "" {
		where = append(where, "p.name ILIKE "+arg("%"+strings.TrimSpace(f.Search)+"%"))
	}

	clause := strings.Join(where, " AND ")

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products p WHERE `+clause, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	offset := (f.Page - 1) * f.Limit
	query := `SELECT p.id, p.name, p.brand_id, b.name, p.price, p.discounted_price,
	                 p.description, p.image_url, p.stock, p.created_at, p.updated_at
	          FROM products p JOIN brands b ON b.id = p.brand_id
	          WHERE ` + clause + `
	          ORDER BY p.created_at DESC
	          LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.BrandID, &p.BrandName, &p.Price, &p.DiscountedPrice,
			&p.Description, &p.ImageURL, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range products {
		if err := r.attachVariants(ctx, &products[i]); err != nil {
			return nil, 0, err
		}
	}

	return products, total, nil
}
