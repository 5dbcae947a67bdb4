package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alex240101/oxapampa/internal/domain/sales"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/infrastructure/persistence/models"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID loads a sale with its items
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_code ASC") }).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Register stores the sale and decrements stock for every line in one
// transaction. The decrement is conditional on enough stock being left, so
// two concurrent sales can never drive a product negative.
func (r *GormSaleRepository) Register(ctx context.Context, sale *sales.Sale) error {
	model := models.SaleModelFromDomain(sale)
	items := model.Items
	model.Items = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("insert sale items: %w", err)
			}
		}
		for _, item := range items {
			res := tx.Model(&models.ProductModel{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Updates(map[string]any{
					"stock":      gorm.Expr("stock - ?", item.Quantity),
					"updated_at": time.Now(),
				})
			if res.Error != nil {
				return fmt.Errorf("decrement stock for %s: %w", item.ProductCode, res.Error)
			}
			if res.RowsAffected == 0 {
				return shared.NewDomainError(shared.CodeInsufficientStock,
					fmt.Sprintf("Insufficient stock for %s", item.ProductName))
			}
		}
		return nil
	})
}

// AttachDocument stores the fiscal document fields of a sale. A sale that
// already carries a document is left untouched and yields ErrAlreadyExists.
func (r *GormSaleRepository) AttachDocument(ctx context.Context, saleID uuid.UUID, doc sales.Document) error {
	res := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ? AND doc_number = ''", saleID).
		Updates(models.DocumentColumns(doc, time.Now()))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("id = ?", saleID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrAlreadyExists
}
