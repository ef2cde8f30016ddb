package items

import (
	"context"
	"errors"
	"time"

	"github.com/avelasquez/gearshare-backend/internal/bookings"
	"github.com/avelasquez/gearshare-backend/pkg/clock"
	"github.com/avelasquez/gearshare-backend/pkg/db/models"
	pkgerrors "github.com/avelasquez/gearshare-backend/pkg/errors"
	"github.com/avelasquez/gearshare-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type itemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, page pagination.Params) ([]models.Item, error)
}

type nearestResolver interface {
	ResolveNearest(ctx context.Context, itemID uuid.UUID, at time.Time) (bookings.NearestBookings, error)
}

// ItemViewDTO is the item read model. Last and next booking refs are set
// only when the requester owns the item.
type ItemViewDTO struct {
	ID          uuid.UUID                 `json:"id"`
	OwnerID     uuid.UUID                 `json:"ownerId"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Available   bool                      `json:"available"`
	LastBooking *bookings.ShortBookingRef `json:"lastBooking"`
	NextBooking *bookings.ShortBookingRef `json:"nextBooking"`
}

// ServiceParams groups dependencies for the item read service.
type ServiceParams struct {
	ItemRepo itemRepository
	Resolver nearestResolver
	Clock    clock.Clock
}

// Service exposes the booking-enriched item read views.
type Service interface {
	GetItemView(ctx context.Context, requesterID, itemID uuid.UUID) (ItemViewDTO, error)
	ListOwnerItems(ctx context.Context, ownerID uuid.UUID, page pagination.Params) ([]ItemViewDTO, error)
}

type service struct {
	itemRepo itemRepository
	resolver nearestResolver
	clock    clock.Clock
}

// NewService builds an item read service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.ItemRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item repo is required")
	}
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nearest resolver is required")
	}
	if params.Clock == nil {
		params.Clock = clock.System()
	}
	return &service{
		itemRepo: params.ItemRepo,
		resolver: params.Resolver,
		clock:    params.Clock,
	}, nil
}

// GetItemView returns the item, enriched with the nearest approved bookings
// when the requester is the owner.
func (s *service) GetItemView(ctx context.Context, requesterID, itemID uuid.UUID) (ItemViewDTO, error) {
	if itemID == uuid.Nil {
		return ItemViewDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemViewDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return ItemViewDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}

	view := toView(item)
	if item.OwnerID == requesterID {
		if err := s.enrich(ctx, &view); err != nil {
			return ItemViewDTO{}, err
		}
	}
	return view, nil
}

// ListOwnerItems returns the owner's items, each enriched with nearest
// booking refs.
func (s *service) ListOwnerItems(ctx context.Context, ownerID uuid.UUID, page pagination.Params) ([]ItemViewDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := page.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination")
	}

	items, err := s.itemRepo.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}

	views := make([]ItemViewDTO, 0, len(items))
	for i := range items {
		view := toView(&items[i])
		if err := s.enrich(ctx, &view); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) enrich(ctx context.Context, view *ItemViewDTO) error {
	nearest, err := s.resolver.ResolveNearest(ctx, view.ID, s.clock.Now())
	if err != nil {
		return err
	}
	view.LastBooking = nearest.Last
	view.NextBooking = nearest.Next
	return nil
}

func toView(item *models.Item) ItemViewDTO {
	return ItemViewDTO{
		ID:          item.ID,
		OwnerID:     item.OwnerID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
	}
}
