package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelasquez/gearshare-backend/pkg/db/models"
	"github.com/avelasquez/gearshare-backend/pkg/enums"
	"github.com/avelasquez/gearshare-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository encapsulates booking persistence. All bucket filtering happens
// in SQL so pagination counts rows the database actually returns.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a bookings repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new booking row. The caller sets status; the database
// assigns the id.
func (r *Repository) Create(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).Create(booking).Error
}

// FindByID loads a booking by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByBooker returns the requester's bookings in the given bucket, newest
// start first.
func (r *Repository) ListByBooker(ctx context.Context, bookerID uuid.UUID, state enums.BookingState, now time.Time, page pagination.Params) ([]BookingDTO, error) {
	query := r.baseListQuery(ctx).Where("b.booker_id = ?", bookerID)
	return r.runListQuery(query, state, now, page)
}

// ListByOwner returns bookings of every item the owner holds, newest start
// first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, state enums.BookingState, now time.Time, page pagination.Params) ([]BookingDTO, error) {
	query := r.baseListQuery(ctx).Where("i.owner_id = ?", ownerID)
	return r.runListQuery(query, state, now, page)
}

func (r *Repository) baseListQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bookings b").
		Select("b.id, b.item_id, b.booker_id, b.start_at, b.end_at, b.status, b.created_at, i.name AS item_name").
		Joins("JOIN items i ON i.id = b.item_id")
}

func (r *Repository) runListQuery(query *gorm.DB, state enums.BookingState, now time.Time, page pagination.Params) ([]BookingDTO, error) {
	filtered, err := applyStateFilter(query, state, now)
	if err != nil {
		return nil, err
	}

	var records []bookingRecord
	err = filtered.
		Order("b.start_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Scan(&records).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]BookingDTO, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDTO())
	}
	return items, nil
}

// applyStateFilter narrows a list query to one bucket. Temporal buckets use
// strict comparisons; a booking whose bound equals the probe instant falls in
// no bucket.
func applyStateFilter(query *gorm.DB, state enums.BookingState, now time.Time) (*gorm.DB, error) {
	switch state {
	case enums.BookingStateAll:
		return query, nil
	case enums.BookingStateCurrent:
		return query.Where("b.start_at < ? AND b.end_at > ?", now, now), nil
	case enums.BookingStatePast:
		return query.Where("b.end_at < ?", now), nil
	case enums.BookingStateFuture:
		return query.Where("b.start_at > ?", now), nil
	case enums.BookingStateWaiting:
		return query.Where("b.status = ?", enums.BookingStatusWaiting), nil
	case enums.BookingStateRejected:
		return query.Where("b.status = ?", enums.BookingStatusRejected), nil
	default:
		return nil, fmt.Errorf("unknown booking state %q", state)
	}
}

// FindLastApproved returns the most recent approved booking that finished
// before the probe instant, or nil when the item has none. A booking
// spanning the instant counts as neither last nor next.
func (r *Repository) FindLastApproved(ctx context.Context, itemID uuid.UUID, now time.Time) (*models.Booking, error) {
	return r.findNearestApproved(ctx, itemID, "end_at < ?", "start_at DESC", now)
}

// FindNextApproved returns the approved booking with the smallest start
// after the probe instant, or nil when the item has none.
func (r *Repository) FindNextApproved(ctx context.Context, itemID uuid.UUID, now time.Time) (*models.Booking, error) {
	return r.findNearestApproved(ctx, itemID, "start_at > ?", "start_at ASC", now)
}

func (r *Repository) findNearestApproved(ctx context.Context, itemID uuid.UUID, bound string, order string, now time.Time) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND status = ?", itemID, enums.BookingStatusApproved).
		Where(bound, now).
		Order(order).
		First(&booking).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// UpdateStatusFromWaiting moves a booking out of WAITING with a conditional
// update. Returns false when the row was already decided; concurrent decides
// on the same booking produce exactly one winner.
func (r *Repository) UpdateStatusFromWaiting(ctx context.Context, id uuid.UUID, status enums.BookingStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, enums.BookingStatusWaiting).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type bookingRecord struct {
	ID        uuid.UUID           `gorm:"column:id"`
	ItemID    uuid.UUID           `gorm:"column:item_id"`
	BookerID  uuid.UUID           `gorm:"column:booker_id"`
	StartAt   time.Time           `gorm:"column:start_at"`
	EndAt     time.Time           `gorm:"column:end_at"`
	Status    enums.BookingStatus `gorm:"column:status"`
	CreatedAt time.Time           `gorm:"column:created_at"`
	ItemName  string              `gorm:"column:item_name"`
}

func (r bookingRecord) toDTO() BookingDTO {
	return BookingDTO{
		ID:        r.ID,
		StartAt:   r.StartAt,
		EndAt:     r.EndAt,
		Status:    r.Status,
		Item:      ItemRef{ID: r.ItemID, Name: r.ItemName},
		Booker:    BookerRef{ID: r.BookerID},
		CreatedAt: r.CreatedAt,
	}
}
