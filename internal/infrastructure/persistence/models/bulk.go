package models

import (
	"time"

	"github.com/Alex240101/oxapampa/internal/domain/bulk"
)

// ImportRunModel is the persistence model for an ImportRun.
type ImportRunModel struct {
	BaseModel
	FileName    string            `gorm:"type:varchar(255);not null"`
	FileSize    int64             `gorm:"not null;default:0"`
	ImportedBy  string            `gorm:"type:varchar(100);not null;default:''"`
	TotalRows   int               `gorm:"not null;default:0"`
	Created     int               `gorm:"column:created_count;not null;default:0"`
	Updated     int               `gorm:"column:updated_count;not null;default:0"`
	Failed      int               `gorm:"column:failed_count;not null;default:0"`
	Status      bulk.ImportStatus `gorm:"type:varchar(20);not null;index"`
	RowErrors   string            `gorm:"type:text;not null;default:'[]'"`
	ArchiveKey  string            `gorm:"type:varchar(512);not null;default:''"`
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (ImportRunModel) TableName() string {
	return "import_runs"
}

// ToDomain converts the persistence model to a domain ImportRun.
func (m *ImportRunModel) ToDomain() (*bulk.ImportRun, error) {
	r := &bulk.ImportRun{
		BaseEntity:  m.BaseModel.ToDomain(),
		FileName:    m.FileName,
		FileSize:    m.FileSize,
		ImportedBy:  m.ImportedBy,
		TotalRows:   m.TotalRows,
		Created:     m.Created,
		Updated:     m.Updated,
		Failed:      m.Failed,
		Status:      m.Status,
		ArchiveKey:  m.ArchiveKey,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}
	if err := r.SetRowErrorsFromJSON(m.RowErrors); err != nil {
		return nil, err
	}
	return r, nil
}

// ImportRunModelFromDomain creates a new persistence model from a domain ImportRun.
func ImportRunModelFromDomain(r *bulk.ImportRun) (*ImportRunModel, error) {
	rowErrors, err := r.RowErrorsJSON()
	if err != nil {
		return nil, err
	}
	m := &ImportRunModel{
		FileName:    r.FileName,
		FileSize:    r.FileSize,
		ImportedBy:  r.ImportedBy,
		TotalRows:   r.TotalRows,
		Created:     r.Created,
		Updated:     r.Updated,
		Failed:      r.Failed,
		Status:      r.Status,
		RowErrors:   rowErrors,
		ArchiveKey:  r.ArchiveKey,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m, nil
}
