package items

import (
	"context"

	"github.com/avelasquez/gearshare-backend/pkg/db/models"
	"github.com/avelasquez/gearshare-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes the item reads the booking engine consumes. Item CRUD
// and search live in the item subsystem; this side only resolves items and
// lists an owner's inventory for the enriched read views.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an items repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads an item by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByOwner returns the owner's items ordered by creation, paginated.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, page pagination.Params) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
