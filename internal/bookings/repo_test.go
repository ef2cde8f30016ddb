package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/avelasquez/gearshare-backend/pkg/db/models"
	"github.com/avelasquez/gearshare-backend/pkg/enums"
	"github.com/avelasquez/gearshare-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var repoNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupBookingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  available INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	bookings := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  booker_id TEXT NOT NULL,
  start_at DATETIME NOT NULL,
  end_at DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'waiting',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(items).Error)
	require.NoError(t, db.Exec(bookings).Error)
	require.NoError(t, db.Exec(`DELETE FROM bookings`).Error)
	require.NoError(t, db.Exec(`DELETE FROM items`).Error)
	require.NoError(t, db.Exec(`DELETE FROM users`).Error)
	return db
}

func newItem(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string) *models.Item {
	t.Helper()

	item := &models.Item{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		Available: true,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func newBooking(t *testing.T, db *gorm.DB, itemID, bookerID uuid.UUID, start, end time.Time, status enums.BookingStatus) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		ID:       uuid.New(),
		ItemID:   itemID,
		BookerID: bookerID,
		StartAt:  start,
		EndAt:    end,
		Status:   status,
	}
	require.NoError(t, db.Create(booking).Error)
	return booking
}

func TestListByBookerBuckets(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	booker := uuid.New()
	item := newItem(t, db, uuid.New(), "ladder")

	past := newBooking(t, db, item.ID, booker, repoNow.Add(-3*time.Hour), repoNow.Add(-2*time.Hour), enums.BookingStatusApproved)
	current := newBooking(t, db, item.ID, booker, repoNow.Add(-time.Hour), repoNow.Add(time.Hour), enums.BookingStatusApproved)
	future := newBooking(t, db, item.ID, booker, repoNow.Add(time.Hour), repoNow.Add(2*time.Hour), enums.BookingStatusWaiting)
	rejected := newBooking(t, db, item.ID, booker, repoNow.Add(3*time.Hour), repoNow.Add(4*time.Hour), enums.BookingStatusRejected)
	// bounds touching the probe instant belong to no time bucket
	endsAtNow := newBooking(t, db, item.ID, booker, repoNow.Add(-time.Hour), repoNow, enums.BookingStatusApproved)
	startsAtNow := newBooking(t, db, item.ID, booker, repoNow, repoNow.Add(time.Hour), enums.BookingStatusApproved)

	page := pagination.Params{}

	all, err := repo.ListByBooker(ctx, booker, enums.BookingStateAll, repoNow, page)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	// newest start first
	assert.Equal(t, rejected.ID, all[0].ID)
	assert.Equal(t, past.ID, all[5].ID)

	currentList, err := repo.ListByBooker(ctx, booker, enums.BookingStateCurrent, repoNow, page)
	require.NoError(t, err)
	require.Len(t, currentList, 1)
	assert.Equal(t, current.ID, currentList[0].ID)

	pastList, err := repo.ListByBooker(ctx, booker, enums.BookingStatePast, repoNow, page)
	require.NoError(t, err)
	require.Len(t, pastList, 1)
	assert.Equal(t, past.ID, pastList[0].ID)

	futureList, err := repo.ListByBooker(ctx, booker, enums.BookingStateFuture, repoNow, page)
	require.NoError(t, err)
	require.Len(t, futureList, 2)
	assert.Equal(t, rejected.ID, futureList[0].ID)
	assert.Equal(t, future.ID, futureList[1].ID)

	waitingList, err := repo.ListByBooker(ctx, booker, enums.BookingStateWaiting, repoNow, page)
	require.NoError(t, err)
	require.Len(t, waitingList, 1)
	assert.Equal(t, future.ID, waitingList[0].ID)

	rejectedList, err := repo.ListByBooker(ctx, booker, enums.BookingStateRejected, repoNow, page)
	require.NoError(t, err)
	require.Len(t, rejectedList, 1)
	assert.Equal(t, rejected.ID, rejectedList[0].ID)

	for _, excluded := range []uuid.UUID{endsAtNow.ID, startsAtNow.ID} {
		for _, dto := range currentList {
			assert.NotEqual(t, excluded, dto.ID)
		}
		for _, dto := range pastList {
			assert.NotEqual(t, excluded, dto.ID)
		}
	}
	assert.Equal(t, "ladder", all[0].Item.Name)
}

func TestListByOwnerScopedToOwner(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	otherOwner := uuid.New()
	booker := uuid.New()
	ownItem := newItem(t, db, owner, "drill")
	foreignItem := newItem(t, db, otherOwner, "saw")

	waiting := newBooking(t, db, ownItem.ID, booker, repoNow.Add(time.Hour), repoNow.Add(2*time.Hour), enums.BookingStatusWaiting)
	newBooking(t, db, ownItem.ID, booker, repoNow.Add(3*time.Hour), repoNow.Add(4*time.Hour), enums.BookingStatusApproved)
	newBooking(t, db, foreignItem.ID, booker, repoNow.Add(time.Hour), repoNow.Add(2*time.Hour), enums.BookingStatusWaiting)

	list, err := repo.ListByOwner(ctx, owner, enums.BookingStateWaiting, repoNow, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, waiting.ID, list[0].ID)
	assert.Equal(t, enums.BookingStatusWaiting, list[0].Status)
}

func TestListPagination(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	booker := uuid.New()
	item := newItem(t, db, uuid.New(), "bike")
	for i := 1; i <= 5; i++ {
		start := repoNow.Add(time.Duration(i) * time.Hour)
		newBooking(t, db, item.ID, booker, start, start.Add(30*time.Minute), enums.BookingStatusWaiting)
	}

	first, err := repo.ListByBooker(ctx, booker, enums.BookingStateAll, repoNow, pagination.Params{From: 0, Size: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := repo.ListByBooker(ctx, booker, enums.BookingStateAll, repoNow, pagination.Params{From: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.True(t, first[1].StartAt.After(second[0].StartAt))
}

func TestNearestApproved(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	booker := uuid.New()
	item := newItem(t, db, uuid.New(), "projector")

	older := newBooking(t, db, item.ID, booker, repoNow.Add(-5*time.Hour), repoNow.Add(-4*time.Hour), enums.BookingStatusApproved)
	last := newBooking(t, db, item.ID, booker, repoNow.Add(-3*time.Hour), repoNow.Add(-2*time.Hour), enums.BookingStatusApproved)
	next := newBooking(t, db, item.ID, booker, repoNow.Add(2*time.Hour), repoNow.Add(3*time.Hour), enums.BookingStatusApproved)
	newBooking(t, db, item.ID, booker, repoNow.Add(4*time.Hour), repoNow.Add(5*time.Hour), enums.BookingStatusApproved)
	// non-approved rows never surface
	newBooking(t, db, item.ID, booker, repoNow.Add(-90*time.Minute), repoNow.Add(-80*time.Minute), enums.BookingStatusRejected)
	newBooking(t, db, item.ID, booker, repoNow.Add(time.Hour), repoNow.Add(90*time.Minute), enums.BookingStatusWaiting)

	gotLast, err := repo.FindLastApproved(ctx, item.ID, repoNow)
	require.NoError(t, err)
	require.NotNil(t, gotLast)
	assert.Equal(t, last.ID, gotLast.ID)
	assert.NotEqual(t, older.ID, gotLast.ID)

	gotNext, err := repo.FindNextApproved(ctx, item.ID, repoNow)
	require.NoError(t, err)
	require.NotNil(t, gotNext)
	assert.Equal(t, next.ID, gotNext.ID)
}

func TestNearestApprovedSpanningBooking(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	item := newItem(t, db, uuid.New(), "camera")
	newBooking(t, db, item.ID, uuid.New(), repoNow.Add(-2*time.Hour), repoNow.Add(2*time.Hour), enums.BookingStatusApproved)

	last, err := repo.FindLastApproved(ctx, item.ID, repoNow)
	require.NoError(t, err)
	assert.Nil(t, last)

	next, err := repo.FindNextApproved(ctx, item.ID, repoNow)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestUpdateStatusFromWaitingSingleWinner(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	item := newItem(t, db, uuid.New(), "speaker")
	booking := newBooking(t, db, item.ID, uuid.New(), repoNow.Add(time.Hour), repoNow.Add(2*time.Hour), enums.BookingStatusWaiting)

	won, err := repo.UpdateStatusFromWaiting(ctx, booking.ID, enums.BookingStatusApproved)
	require.NoError(t, err)
	assert.True(t, won)

	// the losing decide sees the row already settled
	won, err = repo.UpdateStatusFromWaiting(ctx, booking.ID, enums.BookingStatusRejected)
	require.NoError(t, err)
	assert.False(t, won)

	stored, err := repo.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusApproved, stored.Status)
}

func TestCreateAndFindByID(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	item := newItem(t, db, uuid.New(), "tent")
	booking := &models.Booking{
		ID:       uuid.New(),
		ItemID:   item.ID,
		BookerID: uuid.New(),
		StartAt:  repoNow.Add(time.Hour),
		EndAt:    repoNow.Add(2 * time.Hour),
		Status:   enums.BookingStatusWaiting,
	}
	require.NoError(t, repo.Create(ctx, booking))

	stored, err := repo.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ItemID, stored.ItemID)
	assert.Equal(t, enums.BookingStatusWaiting, stored.Status)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
