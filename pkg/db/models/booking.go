package models

import (
	"time"

	"github.com/avelasquez/gearshare-backend/pkg/enums"
	"github.com/google/uuid"
)

// Booking is a time-bounded request by a booker to use another user's item.
// item_id and booker_id are immutable after creation; only status changes,
// exactly once, when the owner decides the request.
type Booking struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID    uuid.UUID           `gorm:"column:item_id;type:uuid;not null;index:bookings_item_status_start_idx,priority:1"`
	BookerID  uuid.UUID           `gorm:"column:booker_id;type:uuid;not null;index:bookings_booker_start_idx,priority:1"`
	StartAt   time.Time           `gorm:"column:start_at;not null;index:bookings_item_status_start_idx,priority:3;index:bookings_booker_start_idx,priority:2"`
	EndAt     time.Time           `gorm:"column:end_at;not null"`
	Status    enums.BookingStatus `gorm:"column:status;type:text;not null;default:'waiting';index:bookings_item_status_start_idx,priority:2"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
