package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is a shareable thing owned by a user. The booking engine only reads
// items; their lifecycle belongs to the item subsystem.
type Item struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index:items_owner_id_idx"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Description string    `gorm:"column:description;type:text;not null;default:''"`
	Available   bool      `gorm:"column:available;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
