package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/avelasquez/gearshare-backend/pkg/clock"
	"github.com/avelasquez/gearshare-backend/pkg/db/models"
	"github.com/avelasquez/gearshare-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/gearshare-backend/pkg/errors"
	"github.com/avelasquez/gearshare-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubBookingRepo struct {
	booking      *models.Booking
	findErr      error
	createErr    error
	created      *models.Booking
	casWon       bool
	casErr       error
	casCalls     int
	casTarget    enums.BookingStatus
	reloaded     *models.Booking
	bookerList   []BookingDTO
	ownerList    []BookingDTO
	lastApproved *models.Booking
	nextApproved *models.Booking
	gotState     enums.BookingState
	gotNow       time.Time
	listCalls    int
}

func (s *stubBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	if s.createErr != nil {
		return s.createErr
	}
	booking.ID = uuid.New()
	s.created = booking
	return nil
}

func (s *stubBookingRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Booking, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.casCalls > 0 && s.reloaded != nil {
		return s.reloaded, nil
	}
	if s.booking == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.booking, nil
}

func (s *stubBookingRepo) ListByBooker(_ context.Context, _ uuid.UUID, state enums.BookingState, now time.Time, _ pagination.Params) ([]BookingDTO, error) {
	s.listCalls++
	s.gotState = state
	s.gotNow = now
	return s.bookerList, nil
}

func (s *stubBookingRepo) ListByOwner(_ context.Context, _ uuid.UUID, state enums.BookingState, now time.Time, _ pagination.Params) ([]BookingDTO, error) {
	s.listCalls++
	s.gotState = state
	s.gotNow = now
	return s.ownerList, nil
}

func (s *stubBookingRepo) FindLastApproved(_ context.Context, _ uuid.UUID, _ time.Time) (*models.Booking, error) {
	return s.lastApproved, nil
}

func (s *stubBookingRepo) FindNextApproved(_ context.Context, _ uuid.UUID, _ time.Time) (*models.Booking, error) {
	return s.nextApproved, nil
}

func (s *stubBookingRepo) UpdateStatusFromWaiting(_ context.Context, _ uuid.UUID, status enums.BookingStatus) (bool, error) {
	s.casCalls++
	s.casTarget = status
	if s.casErr != nil {
		return false, s.casErr
	}
	if s.casWon {
		s.booking.Status = status
	}
	return s.casWon, nil
}

type stubItemRepo struct {
	item *models.Item
	err  error
}

func (s *stubItemRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.item == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.item, nil
}

type stubUserRepo struct {
	exists bool
	err    error
}

func (s *stubUserRepo) Exists(_ context.Context, _ uuid.UUID) (bool, error) {
	return s.exists, s.err
}

func newTestService(t *testing.T, repo *stubBookingRepo, items *stubItemRepo, users *stubUserRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		BookingRepo: repo,
		ItemRepo:    items,
		UserRepo:    users,
		Clock:       clock.Fixed{Instant: testNow},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
	return typed
}

func validInput(itemID uuid.UUID) CreateBookingInput {
	return CreateBookingInput{
		ItemID:  itemID,
		StartAt: testNow.Add(time.Hour),
		EndAt:   testNow.Add(2 * time.Hour),
	}
}

func TestCreateRecordsWaitingBooking(t *testing.T) {
	owner := uuid.New()
	booker := uuid.New()
	item := &models.Item{ID: uuid.New(), OwnerID: owner, Name: "cordless drill", Available: true}
	repo := &stubBookingRepo{}
	svc := newTestService(t, repo, &stubItemRepo{item: item}, &stubUserRepo{exists: true})

	dto, err := svc.Create(context.Background(), booker, validInput(item.ID))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if dto.Status != enums.BookingStatusWaiting {
		t.Fatalf("expected waiting status, got %s", dto.Status)
	}
	if repo.created == nil || repo.created.Status != enums.BookingStatusWaiting {
		t.Fatal("expected a waiting booking persisted")
	}
	if dto.Item.ID != item.ID || dto.Item.Name != item.Name {
		t.Fatalf("unexpected item ref %+v", dto.Item)
	}
	if dto.Booker.ID != booker {
		t.Fatalf("expected booker %s, got %s", booker, dto.Booker.ID)
	}
}

func TestCreateSelfBookingForbidden(t *testing.T) {
	owner := uuid.New()
	item := &models.Item{ID: uuid.New(), OwnerID: owner, Available: true}
	repo := &stubBookingRepo{}
	svc := newTestService(t, repo, &stubItemRepo{item: item}, &stubUserRepo{exists: true})

	_, err := svc.Create(context.Background(), owner, validInput(item.ID))
	assertCode(t, err, pkgerrors.CodeForbidden)
	if repo.created != nil {
		t.Fatal("no booking should be persisted")
	}
}

func TestCreateWindowValidation(t *testing.T) {
	item := &models.Item{ID: uuid.New(), OwnerID: uuid.New(), Available: true}

	cases := map[string]CreateBookingInput{
		"missing start": {ItemID: item.ID, EndAt: testNow.Add(time.Hour)},
		"missing end":   {ItemID: item.ID, StartAt: testNow.Add(time.Hour)},
		"start in past": {ItemID: item.ID, StartAt: testNow.Add(-time.Hour), EndAt: testNow.Add(time.Hour)},
		"end in past":   {ItemID: item.ID, StartAt: testNow.Add(-2 * time.Hour), EndAt: testNow.Add(-time.Hour)},
		"inverted":      {ItemID: item.ID, StartAt: testNow.Add(2 * time.Hour), EndAt: testNow.Add(time.Hour)},
		"zero length":   {ItemID: item.ID, StartAt: testNow.Add(time.Hour), EndAt: testNow.Add(time.Hour)},
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			// item repo errors to prove validation runs before any lookup
			repo := &stubBookingRepo{}
			svc := newTestService(t, repo, &stubItemRepo{err: gorm.ErrInvalidDB}, &stubUserRepo{exists: true})
			_, err := svc.Create(context.Background(), uuid.New(), input)
			assertCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestCreateItemNotFound(t *testing.T) {
	svc := newTestService(t, &stubBookingRepo{}, &stubItemRepo{}, &stubUserRepo{exists: true})
	_, err := svc.Create(context.Background(), uuid.New(), validInput(uuid.New()))
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateUnknownUser(t *testing.T) {
	item := &models.Item{ID: uuid.New(), OwnerID: uuid.New(), Available: false}
	svc := newTestService(t, &stubBookingRepo{}, &stubItemRepo{item: item}, &stubUserRepo{exists: false})

	// unknown user wins over unavailability; the user check runs first
	_, err := svc.Create(context.Background(), uuid.New(), validInput(item.ID))
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateItemUnavailable(t *testing.T) {
	item := &models.Item{ID: uuid.New(), OwnerID: uuid.New(), Available: false}
	svc := newTestService(t, &stubBookingRepo{}, &stubItemRepo{item: item}, &stubUserRepo{exists: true})

	_, err := svc.Create(context.Background(), uuid.New(), validInput(item.ID))
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestDecideApproveThenLocked(t *testing.T) {
	owner := uuid.New()
	item := &models.Item{ID: uuid.New(), OwnerID: owner, Name: "kayak"}
	booking := &models.Booking{ID: uuid.New(), ItemID: item.ID, BookerID: uuid.New(), Status: enums.BookingStatusWaiting}
	repo := &stubBookingRepo{booking: booking, casWon: true}
	svc := newTestService(t, repo, &stubItemRepo{item: item}, &stubUserRepo{exists: true})

	dto, err := svc.Decide(context.Background(), owner, booking.ID, true)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if dto.Status != enums.BookingStatusApproved {
		t.Fatalf("expected approved, got %s", dto.Status)
	}

	_, err = svc.Decide(context.Background(), owner, booking.ID, false)
	assertCode(t, err, pkgerrors.CodeStateConflict)
	if booking.Status != enums.BookingStatusApproved {
		t.Fatalf("stored status must stay approved, got %s", booking.Status)
	}
	if repo.casCalls != 1 {
		t.Fatalf("decided booking must not hit the conditional update again, got %d calls", repo.casCalls)
	}
}

func TestDecideLostRace(t *testing.T) {
	owner := uuid.New()
	item := &models.Item{ID: uuid.New(), OwnerID: owner}
	booking := &models.Booking{ID: uuid.New(), ItemID: item.ID, BookerID: uuid.New(), Status: enums.BookingStatusWaiting}
	repo := &stubBookingRepo{
		booking:  booking,
		casWon:   false,
		reloaded: &models.Booking{ID: booking.ID, ItemID: item.ID, Status: enums.BookingStatusRejected},
	}
	svc := newTestService(t, repo, &stubItemRepo{item: item}, &stubUserRepo{exists: true})

	_, err := svc.Decide(context.Background(), owner, booking.ID, true)
	typed := assertCode(t, err, pkgerrors.CodeStateConflict)
	details, ok := typed.Details().(map[string]string)
	if !ok || details["status"] != "rejected" {
		t.Fatalf("expected stored status in details, got %v", typed.Details())
	}
}

func TestDecideNonOwnerForbidden(t *testing.T) {
	item := &models.Item{ID: uuid.New(), OwnerID: uuid.New()}
	booking := &models.Booking{ID: uuid.New(), ItemID: item.ID, BookerID: uuid.New(), Status: enums.BookingStatusWaiting}
	repo := &stubBookingRepo{booking: booking}
	svc := newTestService(t, repo, &stubItemRepo{item: item}, &stubUserRepo{exists: true})

	_, err := svc.Decide(context.Background(), booking.BookerID, booking.ID, true)
	assertCode(t, err, pkgerrors.CodeForbidden)
	if repo.casCalls != 0 {
		t.Fatal("forbidden decide must not touch the ledger")
	}
}

func TestGetByIDVisibility(t *testing.T) {
	owner := uuid.New()
	booker := uuid.New()
	item := &models.Item{ID: uuid.New(), OwnerID: owner, Name: "tent"}
	booking := &models.Booking{ID: uuid.New(), ItemID: item.ID, BookerID: booker, Status: enums.BookingStatusWaiting}
	svc := newTestService(t, &stubBookingRepo{booking: booking}, &stubItemRepo{item: item}, &stubUserRepo{exists: true})

	if _, err := svc.GetByID(context.Background(), booker, booking.ID); err != nil {
		t.Fatalf("booker read: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), owner, booking.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	_, err := svc.GetByID(context.Background(), uuid.New(), booking.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestListUnknownStateFailsFast(t *testing.T) {
	repo := &stubBookingRepo{}
	svc := newTestService(t, repo, &stubItemRepo{}, &stubUserRepo{exists: true})

	_, err := svc.ListForBooker(context.Background(), uuid.New(), "BOGUS", pagination.Params{})
	assertCode(t, err, pkgerrors.CodeUnknownState)
	if repo.listCalls != 0 {
		t.Fatal("unknown state must not reach the repository")
	}
}

func TestListUsesInjectedClockAndBucket(t *testing.T) {
	repo := &stubBookingRepo{}
	svc := newTestService(t, repo, &stubItemRepo{}, &stubUserRepo{exists: true})

	if _, err := svc.ListForBooker(context.Background(), uuid.New(), "current", pagination.Params{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.gotState != enums.BookingStateCurrent {
		t.Fatalf("expected CURRENT bucket, got %s", repo.gotState)
	}
	if !repo.gotNow.Equal(testNow) {
		t.Fatalf("expected injected instant %s, got %s", testNow, repo.gotNow)
	}

	if _, err := svc.ListForOwner(context.Background(), uuid.New(), "REJECTED", pagination.Params{}); err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if repo.gotState != enums.BookingStateRejected {
		t.Fatalf("expected REJECTED bucket, got %s", repo.gotState)
	}
}

func TestListUnknownUser(t *testing.T) {
	svc := newTestService(t, &stubBookingRepo{}, &stubItemRepo{}, &stubUserRepo{exists: false})
	_, err := svc.ListForOwner(context.Background(), uuid.New(), "ALL", pagination.Params{})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestResolveNearestMapsRefs(t *testing.T) {
	itemID := uuid.New()
	last := &models.Booking{ID: uuid.New(), ItemID: itemID, BookerID: uuid.New(), Status: enums.BookingStatusApproved}
	repo := &stubBookingRepo{lastApproved: last}
	svc := newTestService(t, repo, &stubItemRepo{}, &stubUserRepo{exists: true})

	nearest, err := svc.ResolveNearest(context.Background(), itemID, testNow)
	if err != nil {
		t.Fatalf("resolve nearest: %v", err)
	}
	if nearest.Last == nil || nearest.Last.ID != last.ID || nearest.Last.BookerID != last.BookerID {
		t.Fatalf("unexpected last ref %+v", nearest.Last)
	}
	if nearest.Next != nil {
		t.Fatal("expected no next booking")
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{ItemRepo: &stubItemRepo{}, UserRepo: &stubUserRepo{}}); err == nil {
		t.Fatal("expected error without booking repo")
	}
	if _, err := NewService(ServiceParams{BookingRepo: &stubBookingRepo{}, UserRepo: &stubUserRepo{}}); err == nil {
		t.Fatal("expected error without item repo")
	}
	if _, err := NewService(ServiceParams{BookingRepo: &stubBookingRepo{}, ItemRepo: &stubItemRepo{}}); err == nil {
		t.Fatal("expected error without user repo")
	}
}
