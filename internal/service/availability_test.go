package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/amenity-reservation/internal/model"
)

func TestGuestSuiteMinimumStay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.life.Create(ctx, f.suite("Suite A", f.at(2024, 2, 1, 15), f.at(2024, 2, 2, 11)), "alex")
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, ValidationMessages(err), "Guest Suite reservations require a minimum stay of 2 nights")

	r, err := f.life.Create(ctx, f.suite("Suite A", f.at(2024, 2, 1, 15), f.at(2024, 2, 3, 11)), "alex")
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, r.Status)
	assert.Equal(t, "alex", r.ScheduledBy)
	assert.Equal(t, f.now.UTC(), r.CreatedAt)
}

func TestGuestSuiteOverlapSameItemOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.life.Create(ctx, f.suite("Suite A", f.at(2024, 2, 1, 15), f.at(2024, 2, 4, 11)), "alex")
	require.NoError(t, err)

	_, err = f.life.Create(ctx, f.suite("Suite A", f.at(2024, 2, 3, 15), f.at(2024, 2, 6, 11)), "alex")
	require.ErrorIs(t, err, ErrValidationFailed)
	require.Len(t, ValidationMessages(err), 1)
	assert.Contains(t, ValidationMessages(err)[0], `Guest Suite "Suite A" is already reserved`)

	_, err = f.life.Create(ctx, f.suite("Suite B", f.at(2024, 2, 3, 15), f.at(2024, 2, 6, 11)), "alex")
	assert.NoError(t, err)

	// checkout morning equals the next check-in: half-open ranges touch
	_, err = f.life.Create(ctx, f.suite("Suite A", f.at(2024, 2, 4, 11), f.at(2024, 2, 6, 11)), "alex")
	assert.NoError(t, err)
}

func TestValidationAccumulatesMessages(t *testing.T) {
	f := newFixture(t)
	msgs, err := f.avail.CheckAvailability(context.Background(), model.Reservation{ResourceType: model.GuestSuite}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"Rented to is required",
		"Start time is required",
		"End time is required",
		"Please select a Guest Suite",
	}, msgs)

	msgs, err = f.avail.CheckAvailability(context.Background(), model.Reservation{
		RentedTo: "Unit 1", ResourceType: model.GuestSuite, Item: "Suite C",
		StartTime: f.at(2024, 2, 2, 15), EndTime: f.at(2024, 2, 1, 15),
	}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"Start time must be before end time",
		`Guest Suite "Suite C" is not in service`,
	}, msgs)
}

func TestUnknownItemAndType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.life.Create(ctx, f.suite("Penthouse", f.at(2024, 2, 1, 15), f.at(2024, 2, 3, 11)), "alex")
	assert.Contains(t, ValidationMessages(err), `Guest Suite "Penthouse" is not in the catalog`)

	msgs, err := f.avail.CheckAvailability(ctx, model.Reservation{RentedTo: "x", ResourceType: "POOL",
		StartTime: f.at(2024, 2, 1, 15), EndTime: f.at(2024, 2, 3, 11)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`Unknown resource type "POOL"`}, msgs)
}

func TestGearShedPerItemIndependence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1, t2 := f.at(2024, 3, 1, 9), f.at(2024, 3, 1, 17)

	kayak, err := f.life.Create(ctx, f.gear(t1, t2, "Kayak"), "alex")
	require.NoError(t, err)
	assert.Equal(t, "Kayak", kayak.Item)
	assert.True(t, kayak.TotalCost.IsZero())

	_, err = f.life.Create(ctx, f.gear(t1.Add(time.Hour), t2.Add(time.Hour), "Paddle"), "alex")
	require.NoError(t, err, "different items never conflict")

	_, err = f.life.Create(ctx, f.gear(t1.Add(2*time.Hour), t2, "Tent", "Kayak"), "alex")
	require.ErrorIs(t, err, ErrValidationFailed)
	msgs := ValidationMessages(err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], `Gear Shed item "Kayak" is already reserved`)
}

func TestGearShedDistinctErrorPerItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1, t2 := f.at(2024, 3, 1, 9), f.at(2024, 3, 1, 17)
	_, err := f.life.Create(ctx, f.gear(t1, t2, "Kayak", "Paddle"), "alex")
	require.NoError(t, err)

	_, err = f.life.Create(ctx, f.gear(t1, t2, "Paddle", "Kayak", "Kayak", "Snowmobile"), "alex")
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.ElementsMatch(t, []string{
		`Gear Shed item "Paddle" is already reserved from Fri Mar 1 9:00 AM to Fri Mar 1 5:00 PM`,
		`Gear Shed item "Kayak" is already reserved from Fri Mar 1 9:00 AM to Fri Mar 1 5:00 PM`,
		`Gear Shed item "Kayak" is listed more than once`,
		`Gear Shed "Snowmobile" is not in the catalog`,
	}, ValidationMessages(err))

	_, err = f.life.Create(ctx, f.gear(t1, t2), "alex")
	assert.Contains(t, ValidationMessages(err), "Please select at least one Gear Shed item")
}

func TestSkyLoungeAllDayLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.life.Create(ctx, f.lounge(f.at(2024, 4, 6, 10), false), "alex")
	require.NoError(t, err)
	assert.Equal(t, "Sky Lounge", first.Item)
	assert.True(t, first.TotalCost.Equal(f.policy.SkyLoungeFlatRate))

	_, err = f.life.Create(ctx, f.lounge(f.at(2024, 4, 6, 14), false), "alex")
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, []string{"Sky Lounge is already reserved on Saturday, April 6, 2024"}, ValidationMessages(err))

	_, err = f.life.Create(ctx, f.lounge(f.at(2024, 4, 6, 14), true), "alex")
	require.NoError(t, err, "override waives the all-day lock")

	_, err = f.life.Create(ctx, f.lounge(f.at(2024, 4, 6, 12), true), "alex")
	require.ErrorIs(t, err, ErrValidationFailed, "override never allows a real overlap")

	_, err = f.life.Create(ctx, f.lounge(f.at(2024, 4, 7, 10), false), "alex")
	assert.NoError(t, err, "next day is free")
}

func TestSkyLoungeHoursAndBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.life.Create(ctx, f.lounge(f.at(2024, 4, 6, 9), false), "alex")
	assert.Equal(t, []string{"Sky Lounge reservations must start between 10:00 and 18:00"}, ValidationMessages(err))

	_, err = f.life.Create(ctx, f.lounge(f.at(2024, 4, 6, 18), false), "alex")
	assert.Equal(t, []string{"Sky Lounge reservations must start between 10:00 and 18:00"}, ValidationMessages(err))

	long := f.lounge(f.at(2024, 4, 6, 11), false)
	long.EndTime = long.StartTime.Add(5 * time.Hour)
	_, err = f.life.Create(ctx, long, "alex")
	assert.Equal(t, []string{"Sky Lounge reservations are 4-hour blocks"}, ValidationMessages(err))

	_, err = f.life.Create(ctx, f.lounge(f.at(2024, 4, 6, 17), false), "alex")
	assert.NoError(t, err, "17:00 is the last allowed start")
}

func TestCancelledReservationsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.life.Create(ctx, f.suite("Suite A", f.at(2024, 2, 1, 15), f.at(2024, 2, 3, 11)), "alex")
	require.NoError(t, err)
	_, err = f.life.Cancel(ctx, r.ID, nil, "alex")
	require.NoError(t, err)

	_, err = f.life.Create(ctx, f.suite("Suite A", f.at(2024, 2, 1, 15), f.at(2024, 2, 3, 11)), "sam")
	assert.NoError(t, err)
}

func TestLockKeys(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{"guest_suite:Suite A"}, f.avail.LockKeys(f.suite("Suite A", f.at(2024, 2, 1, 15), f.at(2024, 2, 3, 11))))
	assert.Equal(t, []string{"sky_lounge:2024-04-06"}, f.avail.LockKeys(f.lounge(f.at(2024, 4, 6, 17), false)))
	assert.Equal(t, []string{"gear_shed:Kayak", "gear_shed:Tent"}, f.avail.LockKeys(f.gear(f.at(2024, 3, 1, 9), f.at(2024, 3, 1, 17), "Kayak", "Tent")))
}

func TestAvailabilityStoreFailure(t *testing.T) {
	f := newFixture(t)
	broken := brokenStore{f.store}
	avail := NewAvailability(NewCatalog(broken, nil), f.policy)

	_, err := avail.CheckAvailability(context.Background(), f.suite("Suite A", f.at(2024, 2, 1, 15), f.at(2024, 2, 3, 11)), nil)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, errDiskOnFire)
}
