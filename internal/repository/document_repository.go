package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// DocumentRepository loads the current state of a changed row so it can be
// attached to a change notification.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Load returns the row of table identified by id
func (r *DocumentRepository) Load(ctx context.Context, table string, id uuid.UUID) (any, error) {
	var (
		dest any
		q    = r.db.WithContext(ctx)
	)

	switch table {
	case "sales":
		dest = &models.Sale{}
		q = q.Preload("Customer").Preload("Product")
	case "customers":
		dest = &models.Customer{}
	case "products":
		dest = &models.Product{}
	default:
		return nil, fmt.Errorf("unknown table %q", table)
	}

	if err := q.First(dest, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if p, ok := dest.(*models.Product); ok {
		return models.NewProductView(p), nil
	}
	return dest, nil
}
