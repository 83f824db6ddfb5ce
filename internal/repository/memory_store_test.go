package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/amenity-reservation/internal/model"
)

func TestMemoryStoreReservationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	start := time.Date(2024, 5, 3, 15, 0, 0, 0, time.UTC)
	r := model.Reservation{
		ID: uuid.New(), ResourceType: model.GearShed, Status: model.StatusScheduled,
		Items: []string{"Kayak"}, Item: "Kayak", StartTime: start, EndTime: start.Add(2 * time.Hour),
	}
	require.NoError(t, s.CreateReservation(ctx, r))
	assert.ErrorIs(t, s.CreateReservation(ctx, r), ErrConflict)

	got, err := s.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	got.Items[0] = "Canoe"
	again, _ := s.GetReservation(ctx, r.ID)
	assert.Equal(t, "Kayak", again.Items[0], "store must hand out copies")

	r.Status = model.StatusCancelled
	require.NoError(t, s.UpdateReservation(ctx, r))
	list, err := s.ListReservations(ctx, model.ReservationFilter{Status: model.StatusScheduled})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.DeleteReservation(ctx, r.ID))
	_, err = s.GetReservation(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteReservation(ctx, r.ID), ErrNotFound)
	assert.ErrorIs(t, s.UpdateReservation(ctx, r), ErrNotFound)
}

func TestMemoryStoreListOrdersByStart(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, off := range []int{3, 1, 2} {
		require.NoError(t, s.CreateReservation(ctx, model.Reservation{
			ID: uuid.New(), ResourceType: model.SkyLounge, Status: model.StatusScheduled, Item: "Sky Lounge",
			StartTime: base.AddDate(0, 0, off), EndTime: base.AddDate(0, 0, off).Add(4 * time.Hour),
		}))
	}
	list, err := s.ListReservations(ctx, model.ReservationFilter{ResourceType: model.SkyLounge})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].StartTime.Before(list[1].StartTime))
	assert.True(t, list[1].StartTime.Before(list[2].StartTime))
}

func TestMemoryStoreItems(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := model.SchedulerItem{ID: uuid.New(), Item: "Suite A", ResourceType: model.GuestSuite, ServiceStatus: model.InService}
	b := model.SchedulerItem{ID: uuid.New(), Item: "Suite B", ResourceType: model.GuestSuite, ServiceStatus: model.NotInService}
	require.NoError(t, s.CreateItem(ctx, a))
	require.NoError(t, s.CreateItem(ctx, b))

	dup := a
	dup.ID = uuid.New()
	assert.ErrorIs(t, s.CreateItem(ctx, dup), ErrConflict)

	all, err := s.ListItems(ctx, model.GuestSuite, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	offered, err := s.ListItems(ctx, model.GuestSuite, true)
	require.NoError(t, err)
	require.Len(t, offered, 1)
	assert.Equal(t, "Suite A", offered[0].Item)

	found, err := s.FindItem(ctx, model.GuestSuite, "Suite B")
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)
	_, err = s.FindItem(ctx, model.SkyLounge, "Suite B")
	assert.ErrorIs(t, err, ErrNotFound)

	b.Item = "Suite A"
	assert.ErrorIs(t, s.UpdateItem(ctx, b), ErrConflict)
}
