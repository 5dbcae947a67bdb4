package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alex240101/oxapampa/internal/domain/catalog"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/infrastructure/persistence/models"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple products by their IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// FindAll finds a page of products matching the filter and the total count
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := r.applyFilter(query, filter).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toProducts(rows), total, nil
}

// FindLowStock returns active products whose stock is at or below the minimum
func (r *GormProductRepository) FindLowStock(ctx context.Context) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("active = ? AND stock <= min_stock", true).
		Order("stock ASC, code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// ListForExport returns every product in code order
func (r *GormProductRepository) ListForExport(ctx context.Context) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// CodeIndex returns the code and id of every product
func (r *GormProductRepository) CodeIndex(ctx context.Context) ([]catalog.CodeRef, error) {
	var refs []catalog.CodeRef
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Select("code", "id").
		Scan(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// Create inserts a new product. A taken code yields shared.ErrAlreadyExists.
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if IsDuplicateKey(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("product code %s already exists", product.Code))
		}
		return err
	}
	return nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	return r.db.WithContext(ctx).Save(model).Error
}

// productOrderColumns are the columns a product listing may be sorted by.
var productOrderColumns = map[string]bool{
	"code":          true,
	"name":          true,
	"store":         true,
	"selling_price": true,
	"stock":         true,
	"min_stock":     true,
	"created_at":    true,
	"updated_at":    true,
}

// productOrder builds the ORDER BY clause of a product listing. Unknown
// columns fall back to code; the direction defaults to ascending.
func productOrder(orderBy, orderDir string) string {
	column := strings.ToLower(strings.TrimSpace(orderBy))
	if !productOrderColumns[column] {
		column = "code"
	}
	if strings.EqualFold(strings.TrimSpace(orderDir), "desc") {
		return column + " DESC"
	}
	return column + " ASC"
}

// applyFilter applies ordering and pagination
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = query.Order(productOrder(filter.OrderBy, filter.OrderDir))
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}
	return query
}

func toProducts(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}
