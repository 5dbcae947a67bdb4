package catalog

import (
	"strings"
	"time"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

// ImportCategoryName is the category given to products created by a spreadsheet import.
const ImportCategoryName = "Importados"

// Category groups products for browsing and reporting.
type Category struct {
	shared.BaseEntity
	Name        string
	Description string
	Active      bool
}

// NewCategory creates an active category.
func NewCategory(name, description string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return &Category{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Description: description,
		Active:      true,
	}, nil
}

// Update updates the category's name and description
func (c *Category) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	c.Name = name
	c.Description = description
	c.UpdatedAt = time.Now()
	return nil
}
