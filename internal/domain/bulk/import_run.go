package bulk

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

// ImportStatus represents the status of an import run
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusRejected   ImportStatus = "rejected" // validation errors, nothing written
	ImportStatusFailed     ImportStatus = "failed"
	ImportStatusCancelled  ImportStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusCompleted,
		ImportStatusRejected, ImportStatusFailed, ImportStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s ImportStatus) IsTerminal() bool {
	return s != ImportStatusPending && s != ImportStatusProcessing
}

// ImportRun records one spreadsheet import and its outcome.
type ImportRun struct {
	shared.BaseEntity
	FileName    string       `json:"file_name"`
	FileSize    int64        `json:"file_size"`
	ImportedBy  string       `json:"imported_by"`
	TotalRows   int          `json:"total_rows"`
	Created     int          `json:"created"`
	Updated     int          `json:"updated"`
	Failed      int          `json:"failed"`
	Status      ImportStatus `json:"status"`
	RowErrors   []RowError   `json:"row_errors,omitempty"`
	ArchiveKey  string       `json:"archive_key,omitempty"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// NewImportRun creates a pending run.
func NewImportRun(fileName string, fileSize int64, importedBy string) (*ImportRun, error) {
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if fileSize < 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size cannot be negative")
	}
	return &ImportRun{
		BaseEntity: shared.NewBaseEntity(),
		FileName:   fileName,
		FileSize:   fileSize,
		ImportedBy: importedBy,
		Status:     ImportStatusPending,
	}, nil
}

// Archived records where the uploaded file was stored.
func (r *ImportRun) Archived(key string) {
	r.ArchiveKey = key
	r.UpdatedAt = time.Now()
}

// Reject closes the run because the reconciler found invalid rows.
func (r *ImportRun) Reject(totalRows int, errs []RowError) error {
	if r.Status != ImportStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject from state: %s", r.Status))
	}
	r.TotalRows = totalRows
	r.RowErrors = errs
	r.finish(ImportStatusRejected)
	return nil
}

// Start marks the run as writing.
func (r *ImportRun) Start(totalRows int) error {
	if r.Status != ImportStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start processing from state: %s", r.Status))
	}
	if totalRows < 0 {
		return shared.NewDomainError("INVALID_TOTAL_ROWS", "Total rows cannot be negative")
	}
	now := time.Now()
	r.Status = ImportStatusProcessing
	r.TotalRows = totalRows
	r.StartedAt = &now
	r.UpdatedAt = now
	return nil
}

// Complete stores the final counts. A run where every write failed is failed.
func (r *ImportRun) Complete(created, updated, failed int) error {
	if r.Status != ImportStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete from state: %s", r.Status))
	}
	r.Created, r.Updated, r.Failed = created, updated, failed
	status := ImportStatusCompleted
	if failed > 0 && created == 0 && updated == 0 {
		status = ImportStatusFailed
	}
	r.finish(status)
	return nil
}

// Cancel stops a run, keeping whatever counts were reached.
func (r *ImportRun) Cancel(created, updated, failed int) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel from terminal state: %s", r.Status))
	}
	r.Created, r.Updated, r.Failed = created, updated, failed
	r.finish(ImportStatusCancelled)
	return nil
}

func (r *ImportRun) finish(status ImportStatus) {
	now := time.Now()
	r.Status = status
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// RowErrorsJSON returns the row errors as a JSON string
func (r *ImportRun) RowErrorsJSON() (string, error) {
	if len(r.RowErrors) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(r.RowErrors)
	if err != nil {
		return "", fmt.Errorf("failed to marshal row errors: %w", err)
	}
	return string(data), nil
}

// SetRowErrorsFromJSON parses row errors from a JSON string
func (r *ImportRun) SetRowErrorsFromJSON(s string) error {
	if s == "" || s == "[]" {
		r.RowErrors = nil
		return nil
	}
	var errs []RowError
	if err := json.Unmarshal([]byte(s), &errs); err != nil {
		return fmt.Errorf("failed to unmarshal row errors: %w", err)
	}
	r.RowErrors = errs
	return nil
}

// Duration returns how long the writes took.
func (r *ImportRun) Duration() time.Duration {
	if r.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if r.CompletedAt != nil {
		end = *r.CompletedAt
	}
	return end.Sub(*r.StartedAt)
}
