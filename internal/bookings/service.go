package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/avelasquez/gearshare-backend/pkg/clock"
	"github.com/avelasquez/gearshare-backend/pkg/db/models"
	"github.com/avelasquez/gearshare-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/gearshare-backend/pkg/errors"
	"github.com/avelasquez/gearshare-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByBooker(ctx context.Context, bookerID uuid.UUID, state enums.BookingState, now time.Time, page pagination.Params) ([]BookingDTO, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, state enums.BookingState, now time.Time, page pagination.Params) ([]BookingDTO, error)
	FindLastApproved(ctx context.Context, itemID uuid.UUID, now time.Time) (*models.Booking, error)
	FindNextApproved(ctx context.Context, itemID uuid.UUID, now time.Time) (*models.Booking, error)
	UpdateStatusFromWaiting(ctx context.Context, id uuid.UUID, status enums.BookingStatus) (bool, error)
}

type itemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
}

type userRepository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ServiceParams groups dependencies for the booking service.
type ServiceParams struct {
	BookingRepo bookingRepository
	ItemRepo    itemRepository
	UserRepo    userRepository
	Clock       clock.Clock
}

// Service exposes the booking lifecycle: request, decide, read, and the
// bucketed list views.
type Service interface {
	Create(ctx context.Context, requesterID uuid.UUID, input CreateBookingInput) (BookingDTO, error)
	Decide(ctx context.Context, requesterID, bookingID uuid.UUID, approved bool) (BookingDTO, error)
	GetByID(ctx context.Context, requesterID, bookingID uuid.UUID) (BookingDTO, error)
	ListForBooker(ctx context.Context, requesterID uuid.UUID, state string, page pagination.Params) ([]BookingDTO, error)
	ListForOwner(ctx context.Context, requesterID uuid.UUID, state string, page pagination.Params) ([]BookingDTO, error)
	ResolveNearest(ctx context.Context, itemID uuid.UUID, at time.Time) (NearestBookings, error)
}

type service struct {
	bookingRepo bookingRepository
	itemRepo    itemRepository
	userRepo    userRepository
	clock       clock.Clock
}

// NewService builds a booking service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.BookingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking repo is required")
	}
	if params.ItemRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item repo is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.Clock == nil {
		params.Clock = clock.System()
	}
	return &service{
		bookingRepo: params.BookingRepo,
		itemRepo:    params.ItemRepo,
		userRepo:    params.UserRepo,
		clock:       params.Clock,
	}, nil
}

// Create validates the requested window and collaborators, then records the
// booking as WAITING for the item owner to decide.
func (s *service) Create(ctx context.Context, requesterID uuid.UUID, input CreateBookingInput) (BookingDTO, error) {
	if requesterID == uuid.Nil {
		return BookingDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := validateWindow(input, s.clock.Now()); err != nil {
		return BookingDTO{}, err
	}

	item, err := s.itemRepo.FindByID(ctx, input.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BookingDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return BookingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if item.OwnerID == requesterID {
		return BookingDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "owners cannot book their own items")
	}
	if err := s.ensureUser(ctx, requesterID); err != nil {
		return BookingDTO{}, err
	}
	if !item.Available {
		return BookingDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "item is not available for booking")
	}

	booking := &models.Booking{
		ItemID:   input.ItemID,
		BookerID: requesterID,
		StartAt:  input.StartAt,
		EndAt:    input.EndAt,
		Status:   enums.BookingStatusWaiting,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return BookingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
	}
	return toDTO(booking, item.Name), nil
}

// validateWindow rejects malformed booking windows before any lookup runs.
func validateWindow(input CreateBookingInput, now time.Time) error {
	if input.ItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if input.StartAt.IsZero() || input.EndAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if input.StartAt.Before(now) || input.EndAt.Before(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking window must not be in the past")
	}
	if input.StartAt.After(input.EndAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "start must be before end")
	}
	if input.StartAt.Equal(input.EndAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end must differ")
	}
	return nil
}

// Decide settles a WAITING booking. Only the item owner may decide, and a
// booking already out of WAITING is never re-decided.
func (s *service) Decide(ctx context.Context, requesterID, bookingID uuid.UUID, approved bool) (BookingDTO, error) {
	booking, item, err := s.loadBookingWithItem(ctx, bookingID)
	if err != nil {
		return BookingDTO{}, err
	}
	if item.OwnerID != requesterID {
		return BookingDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "only the item owner can decide a booking")
	}

	target := enums.BookingStatusApproved
	if !approved {
		target = enums.BookingStatusRejected
	}
	if booking.Status.IsTerminal() {
		return BookingDTO{}, stateConflict(booking.Status)
	}

	won, err := s.bookingRepo.UpdateStatusFromWaiting(ctx, bookingID, target)
	if err != nil {
		return BookingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
	}
	if !won {
		// a concurrent decide got there first; report the stored status
		current, err := s.bookingRepo.FindByID(ctx, bookingID)
		if err != nil {
			return BookingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload booking")
		}
		return BookingDTO{}, stateConflict(current.Status)
	}

	booking.Status = target
	return toDTO(booking, item.Name), nil
}

func stateConflict(current enums.BookingStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "booking has already been decided").
		WithDetails(map[string]string{"status": current.String()})
}

// GetByID returns a booking to its booker or the item owner. Everyone else
// is denied.
func (s *service) GetByID(ctx context.Context, requesterID, bookingID uuid.UUID) (BookingDTO, error) {
	booking, item, err := s.loadBookingWithItem(ctx, bookingID)
	if err != nil {
		return BookingDTO{}, err
	}
	if requesterID != booking.BookerID && requesterID != item.OwnerID {
		return BookingDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "booking is visible to its booker and item owner only")
	}
	return toDTO(booking, item.Name), nil
}

// ListForBooker returns the requester's own bookings in the requested bucket.
func (s *service) ListForBooker(ctx context.Context, requesterID uuid.UUID, state string, page pagination.Params) ([]BookingDTO, error) {
	bucket, err := s.prepareList(ctx, requesterID, state, page)
	if err != nil {
		return nil, err
	}
	list, err := s.bookingRepo.ListByBooker(ctx, requesterID, bucket, s.clock.Now(), page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return list, nil
}

// ListForOwner returns bookings across all items the requester owns.
func (s *service) ListForOwner(ctx context.Context, requesterID uuid.UUID, state string, page pagination.Params) ([]BookingDTO, error) {
	bucket, err := s.prepareList(ctx, requesterID, state, page)
	if err != nil {
		return nil, err
	}
	list, err := s.bookingRepo.ListByOwner(ctx, requesterID, bucket, s.clock.Now(), page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owner bookings")
	}
	return list, nil
}

// prepareList validates the shared list inputs. An unknown bucket token is an
// error, never an implicit ALL or an empty page.
func (s *service) prepareList(ctx context.Context, requesterID uuid.UUID, state string, page pagination.Params) (enums.BookingState, error) {
	bucket, err := enums.ParseBookingState(state)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnknownState, err, "unknown booking state").
			WithDetails(map[string]string{"state": state})
	}
	if err := page.Validate(); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination")
	}
	if err := s.ensureUser(ctx, requesterID); err != nil {
		return "", err
	}
	return bucket, nil
}

// ResolveNearest returns the approved bookings closest to the probe instant
// on either side. Absence of one or both is normal.
func (s *service) ResolveNearest(ctx context.Context, itemID uuid.UUID, at time.Time) (NearestBookings, error) {
	last, err := s.bookingRepo.FindLastApproved(ctx, itemID, at)
	if err != nil {
		return NearestBookings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve last booking")
	}
	next, err := s.bookingRepo.FindNextApproved(ctx, itemID, at)
	if err != nil {
		return NearestBookings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve next booking")
	}
	return NearestBookings{Last: toShortRef(last), Next: toShortRef(next)}, nil
}

func (s *service) loadBookingWithItem(ctx context.Context, bookingID uuid.UUID) (*models.Booking, *models.Item, error) {
	if bookingID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "booking not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	item, err := s.itemRepo.FindByID(ctx, booking.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return booking, item, nil
}

func (s *service) ensureUser(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}
