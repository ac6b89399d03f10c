package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/orders-backend/pkg/errors"
	"github.com/angelmondragon/orders-backend/pkg/pagination"
)

// Lookup resolves a product to its shop, live stock and price. Cart mutations
// call it inside their transaction so the stock check sees committed state.
type Lookup interface {
	Lookup(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*Snapshot, error)
}

// Service is the read-only catalog surface.
type Service interface {
	Lookup
	List(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Lookup(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*Snapshot, error) {
	product, err := s.repo.WithTx(tx).FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ProductNotFound(productID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}
	return toSnapshot(*product), nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.GetDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ProductNotFound(productID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	f := input.Filters
	if f.PriceFrom != nil && f.PriceTo != nil && f.PriceFrom.GreaterThan(*f.PriceTo) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_from must not exceed price_to").
			WithDetail(pkgerrors.DetailField, "price_from")
	}
	if (f.ParameterName == "") != (f.ParameterValue == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parameter_name and parameter_value must be used together")
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetail(pkgerrors.DetailField, "cursor")
	}

	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, f, cursor, pagination.LimitWithBuffer(input.Pagination.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	result := &ProductListResult{Products: make([]ProductDTO, 0, len(rows))}
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{Key: last.Name, ID: last.ID})
	}
	for _, row := range rows {
		result.Products = append(result.Products, toProductDTO(row))
	}
	return result, nil
}
