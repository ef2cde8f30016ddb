package bookings

import (
	"time"

	"github.com/avelasquez/gearshare-backend/pkg/db/models"
	"github.com/avelasquez/gearshare-backend/pkg/enums"
	"github.com/google/uuid"
)

// CreateBookingInput is the payload for requesting a new booking.
type CreateBookingInput struct {
	ItemID  uuid.UUID `json:"itemId" validate:"required"`
	StartAt time.Time `json:"start" validate:"required"`
	EndAt   time.Time `json:"end" validate:"required"`
}

// ItemRef is the item projection embedded in booking responses.
type ItemRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// BookerRef is the requester projection embedded in booking responses.
type BookerRef struct {
	ID uuid.UUID `json:"id"`
}

// BookingDTO is the full booking view returned by single reads and lists.
type BookingDTO struct {
	ID        uuid.UUID           `json:"id"`
	StartAt   time.Time           `json:"start"`
	EndAt     time.Time           `json:"end"`
	Status    enums.BookingStatus `json:"status"`
	Item      ItemRef             `json:"item"`
	Booker    BookerRef           `json:"booker"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ShortBookingRef identifies a nearest booking on item views. Only the
// booking id and who holds it; owners resolve the rest on demand.
type ShortBookingRef struct {
	ID       uuid.UUID `json:"id"`
	BookerID uuid.UUID `json:"bookerId"`
}

// NearestBookings pairs the closest approved bookings around an instant.
// Either side may be absent.
type NearestBookings struct {
	Last *ShortBookingRef `json:"lastBooking"`
	Next *ShortBookingRef `json:"nextBooking"`
}

func toDTO(booking *models.Booking, itemName string) BookingDTO {
	return BookingDTO{
		ID:        booking.ID,
		StartAt:   booking.StartAt,
		EndAt:     booking.EndAt,
		Status:    booking.Status,
		Item:      ItemRef{ID: booking.ItemID, Name: itemName},
		Booker:    BookerRef{ID: booking.BookerID},
		CreatedAt: booking.CreatedAt,
	}
}

func toShortRef(booking *models.Booking) *ShortBookingRef {
	if booking == nil {
		return nil
	}
	return &ShortBookingRef{ID: booking.ID, BookerID: booking.BookerID}
}
