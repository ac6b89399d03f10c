package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orders-backend/pkg/db/models"
	"github.com/angelmondragon/orders-backend/pkg/pagination"
)

// Repository reads products with their shop, model, category and parameters.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a bare product row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetDetail loads a product with every association used by ProductDTO.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := withAssociations(r.db.WithContext(ctx)).
		Where("products.id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns up to limit+1 products ordered by (name, id) so the caller can
// detect a following page.
func (r *Repository) List(ctx context.Context, filters ProductListFilters, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("products.*").
		Joins("JOIN shops ON shops.id = products.shop_id").
		Joins("LEFT JOIN product_models ON product_models.id = products.model_id").
		Joins("LEFT JOIN categories ON categories.id = product_models.category_id")

	if filters.PriceFrom != nil {
		qb = qb.Where("products.price >= ?", *filters.PriceFrom)
	}
	if filters.PriceTo != nil {
		qb = qb.Where("products.price <= ?", *filters.PriceTo)
	}
	if shop := strings.TrimSpace(filters.Shop); shop != "" {
		qb = qb.Where("LOWER(shops.name) LIKE ?", likePattern(shop))
	}
	if model := strings.TrimSpace(filters.Model); model != "" {
		qb = qb.Where("LOWER(product_models.name) LIKE ?", likePattern(model))
	}
	if category := strings.TrimSpace(filters.Category); category != "" {
		qb = qb.Where("LOWER(categories.name) LIKE ?", likePattern(category))
	}
	if filters.ParameterName != "" {
		qb = qb.Where(`EXISTS (
			SELECT 1 FROM product_parameters pp
			JOIN parameters pa ON pa.id = pp.parameter_id
			WHERE pp.product_id = products.id AND pa.name = ? AND pp.value = ?)`,
			filters.ParameterName, filters.ParameterValue)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := likePattern(search)
		qb = qb.Where(`(LOWER(products.name) LIKE ? OR LOWER(shops.name) LIKE ?
			OR LOWER(COALESCE(product_models.name, '')) LIKE ? OR LOWER(COALESCE(categories.name, '')) LIKE ?)`,
			pattern, pattern, pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(products.name > ?) OR (products.name = ? AND products.id > ?)", cursor.Key, cursor.Key, cursor.ID)
	}

	var rows []models.Product
	err := withAssociations(qb).
		Order("products.name ASC").
		Order("products.id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Shop").
		Preload("Model.Category").
		Preload("Parameters.Parameter")
}

func likePattern(v string) string {
	return "%" + strings.ToLower(v) + "%"
}
