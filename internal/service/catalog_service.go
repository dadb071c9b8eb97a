package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"mavon-shop/internal/model"
	"mavon-shop/pkg/apierror"
)

type catalogStore interface {
	CreateBrand(ctx context.Context, b model.Brand) error
	UpdateBrand(ctx context.Context, b model.Brand) error
	DeleteBrand(ctx context.Context, id string) error
	FindBrand(ctx context.Context, id string) (model.Brand, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)
	CreateColor(ctx context.Context, c model.Color) error
	DeleteColor(ctx context.Context, id string) error
	ListColors(ctx context.Context) ([]model.Color, error)
	CreateSize(ctx context.Context, s model.Size) error
	DeleteSize(ctx context.Context, id string) error
	ListSizes(ctx context.Context) ([]model.Size, error)
}

type CatalogService struct {
	store catalogStore
}

func NewCatalogService(store catalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) CreateBrand(ctx context.Context, name string) (model.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Brand{}, apierror.BadRequest("brand name is required", "")
	}

	now := time.Now().UTC()
	brand := model.Brand{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.store.CreateBrand(ctx, brand); err != nil {
		return model.Brand{}, err
	}
	return brand, nil
}

func (s *CatalogService) RenameBrand(ctx context.Context, id string, name string) (model.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Brand{}, apierror.BadRequest("brand name is required", "")
	}

	brand, err := s.store.FindBrand(ctx, id)
	if err != nil {
		return model.Brand{}, err
	}

	brand.Name = name
	brand.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateBrand(ctx, brand); err != nil {
		return model.Brand{}, err
	}
	return brand, nil
}

func (s *CatalogService) DeleteBrand(ctx context.Context, id string) error {
	return s.store.DeleteBrand(ctx, id)
}

func (s *CatalogService) ListBrands(ctx context.Context) ([]model.Brand, error) {
	return s.store.ListBrands(ctx)
}

func (s *CatalogService) CreateColor(ctx context.Context, name string, hex string) (model.Color, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Color{}, apierror.BadRequest("color name is required", "")
	}

	color := model.Color{ID: uuid.NewString(), Name: name, Hex: strings.TrimSpace(hex)}
	if err := s.store.CreateColor(ctx, color); err != nil {
		return model.Color{}, err
	}
	return color, nil
}

func (s *CatalogService) DeleteColor(ctx context.Context, id string) error {
	return s.store.DeleteColor(ctx, id)
}

func (s *CatalogService) ListColors(ctx context.Context) ([]model.Color, error) {
	return s.store.ListColors(ctx)
}

func (s *CatalogService) CreateSize(ctx context.Context, name string) (model.Size, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Size{}, apierror.BadRequest("size name is required", "")
	}

	size := model.Size{ID: uuid.NewString(), Name: name}
	if err := s.store.CreateSize(ctx, size); err != nil {
		return model.Size{}, err
	}
	return size, nil
}

func (s *CatalogService) DeleteSize(ctx context.Context, id string) error {
	return s.store.DeleteSize(ctx, id)
}

func (s *CatalogService) ListSizes(ctx context.Context) ([]model.Size, error) {
	return s.store.ListSizes(ctx)
}
