package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/infrastructure/persistence/models"
)

// GormDocumentRepository implements invoicing.DocumentRepository using GORM.
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// MaxNumber returns the highest number issued in series, 0 if none.
func (r *GormDocumentRepository) MaxNumber(ctx context.Context, series string) (int, error) {
	var highest int
	if err := r.db.WithContext(ctx).
		Model(&models.FiscalDocumentModel{}).
		Where("series = ?", series).
		Select("COALESCE(MAX(number), 0)").
		Scan(&highest).Error; err != nil {
		return 0, err
	}
	return highest, nil
}

// Reserve inserts doc, mapping a unique violation on (series, number) to
// *invoicing.NumberingConflictError.
func (r *GormDocumentRepository) Reserve(ctx context.Context, doc *invoicing.FiscalDocument) error {
	model := models.FiscalDocumentModelFromDomain(doc)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if IsDuplicateKey(err) {
			return &invoicing.NumberingConflictError{Series: doc.Series, Number: doc.Number}
		}
		return err
	}
	return nil
}

// Update stores the provider outcome of a reserved document.
func (r *GormDocumentRepository) Update(ctx context.Context, doc *invoicing.FiscalDocument) error {
	model := models.FiscalDocumentModelFromDomain(doc)
	res := r.db.WithContext(ctx).
		Model(&models.FiscalDocumentModel{}).
		Where("id = ?", doc.ID).
		Updates(model.OutcomeColumns(time.Now()))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindBySeriesNumber finds a document by its printed identifier
func (r *GormDocumentRepository) FindBySeriesNumber(ctx context.Context, series string, number int) (*invoicing.FiscalDocument, error) {
	var model models.FiscalDocumentModel
	if err := r.db.WithContext(ctx).
		Where("series = ? AND number = ?", series, number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySale returns every document issued for a sale, oldest first
func (r *GormDocumentRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]invoicing.FiscalDocument, error) {
	var rows []models.FiscalDocumentModel
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]invoicing.FiscalDocument, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, nil
}
