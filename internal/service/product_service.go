package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"mavon-shop/internal/model"
	"mavon-shop/pkg/apierror"
)

type productStore interface {
	Create(ctx context.Context, p model.Product, colorIDs []string, sizeIDs []string) error
	Update(ctx context.Context, p model.Product, colorIDs []string, sizeIDs []string) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (model.Product, error)
	List(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error)
}

type ProductService struct {
	products     productStore
	catalog      catalogStore
	limitDefault int
	limitMax     int
}

func NewProductService(products productStore, catalog catalogStore, limitDefault int, limitMax int) *ProductService {
	return &ProductService{
		products:     products,
		catalog:      catalog,
		limitDefault: limitDefault,
		limitMax:     limitMax,
	}
}

func (s *ProductService) Create(ctx context.Context, req model.ProductRequest) (model.Product, error) {
	if err := s.validate(ctx, req); err != nil {
		return model.Product{}, err
	}

	now := time.Now().UTC()
	product := model.Product{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		BrandID:         req.BrandID,
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
		Description:     strings.TrimSpace(req.Description),
		ImageURL:        strings.TrimSpace(req.ImageURL),
		Stock:           req.Stock,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.products.Create(ctx, product, req.ColorIDs, req.SizeIDs); err != nil {
		return model.Product{}, err
	}

	return s.products.FindByID(ctx, product.ID)
}

func (s *ProductService) Update(ctx context.Context, id string, req model.ProductRequest) (model.Product, error) {
	if err := s.validate(ctx, req); err != nil {
		return model.Product{}, err
	}

	product := model.Product{
		ID:              id,
		Name:            strings.TrimSpace(req.Name),
		BrandID:         req.BrandID,
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
		Description:     strings.TrimSpace(req.Description),
		ImageURL:        strings.TrimSpace(req.ImageURL),
		Stock:           req.Stock,
	}

	if err := s.products.Update(ctx, product, req.ColorIDs, req.SizeIDs); err != nil {
		return model.Product{}, err
	}

	return s.products.FindByID(ctx, id)
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

func (s *ProductService) Get(ctx context.Context, id string) (model.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context, f model.ProductFilter) ([]model.Product, *model.Meta, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = s.limitDefault
	}
	if f.Limit > s.limitMax {
		f.Limit = s.limitMax
	}
	if f.MinPrice > 0 && f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		return nil, nil, apierror.BadRequest("min_price exceeds max_price", "")
	}

	products, total, err := s.products.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}

	totalPages := total / f.Limit
	if total%f.Limit != 0 {
		totalPages++
	}

	meta := &model.Meta{
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
	return products, meta, nil
}

func (s *ProductService) validate(ctx context.Context, req model.ProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apierror.BadRequest("product name is required", "")
	}
	if req.Price <= 0 {
		return apierror.BadRequest("price must be positive", "")
	}
	if req.DiscountedPrice != nil && (*req.DiscountedPrice <= 0 || *req.DiscountedPrice >= req.Price) {
		return apierror.BadRequest("discounted_price must be positive and below price", "")
	}
	if req.Stock < 0 {
		return apierror.BadRequest("stock cannot be negative", "")
	}
	if strings.TrimSpace(req.BrandID) == "" {
		return apierror.BadRequest("brand_id is required", "")
	}

	if _, err := s.catalog.FindBrand(ctx, req.BrandID); err != nil {
		return err
	}
	return nil
}
