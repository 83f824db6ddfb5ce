package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/iliyamo/amenity-reservation/internal/config"
	"github.com/iliyamo/amenity-reservation/internal/model"
)

func TestOverlapsIsSymmetric(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rapid.Check(t, func(t *rapid.T) {
		s1 := base.Add(time.Duration(rapid.IntRange(0, 1000).Draw(t, "s1")) * time.Hour)
		e1 := s1.Add(time.Duration(rapid.IntRange(1, 200).Draw(t, "d1")) * time.Hour)
		s2 := base.Add(time.Duration(rapid.IntRange(0, 1000).Draw(t, "s2")) * time.Hour)
		e2 := s2.Add(time.Duration(rapid.IntRange(1, 200).Draw(t, "d2")) * time.Hour)

		if Overlaps(s1, e1, s2, e2) != Overlaps(s2, e2, s1, e1) {
			t.Fatalf("asymmetric overlap for [%v,%v) and [%v,%v)", s1, e1, s2, e2)
		}
		if !Overlaps(s1, e1, s1, e1) {
			t.Fatalf("non-empty range must overlap itself")
		}
		if Overlaps(s1, e1, e1, e1.Add(time.Hour)) {
			t.Fatalf("adjacent ranges must not overlap")
		}
	})
}

func TestNights(t *testing.T) {
	start := time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC)
	cases := []struct {
		end  time.Time
		want int
	}{
		{start, 0},
		{start.Add(-time.Hour), 0},
		{start.Add(time.Hour), 1},
		{start.Add(24 * time.Hour), 1},
		{start.Add(44 * time.Hour), 2},
		{start.Add(48*time.Hour + time.Minute), 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Nights(start, c.end), "end=%v", c.end)
	}
}

func TestComputeCostGuestSuiteWeekend(t *testing.T) {
	p := config.DefaultPolicy()
	pr := NewPricing(p, nil)
	start := time.Date(2024, 1, 5, 15, 0, 0, 0, p.Location) // Friday
	end := time.Date(2024, 1, 7, 11, 0, 0, 0, p.Location)   // Sunday

	got := pr.ComputeCost(model.GuestSuite, start, end)
	assert.True(t, got.Total.Equal(p.GuestSuiteWeekendRate.Mul(decimal.NewFromInt(2))), "total %s", got.Total)
	require.NotNil(t, got.Nights)
	assert.Equal(t, 2, *got.Nights)
	assert.Equal(t, "Fri 125.00, Sat 125.00", got.Breakdown)
}

func TestComputeCostGuestSuiteMixedWeek(t *testing.T) {
	p := config.DefaultPolicy()
	pr := NewPricing(p, nil)
	start := time.Date(2024, 1, 4, 15, 0, 0, 0, p.Location) // Thursday
	end := time.Date(2024, 1, 8, 11, 0, 0, 0, p.Location)   // Monday

	got := pr.ComputeCost(model.GuestSuite, start, end)
	// Thu 100 + Fri 125 + Sat 125 + Sun 100
	assert.True(t, got.Total.Equal(decimal.NewFromInt(450)), "total %s", got.Total)
	assert.Equal(t, "Thu 100.00, Fri 125.00, Sat 125.00, Sun 100.00", got.Breakdown)
}

func TestComputeCostFlatAndFree(t *testing.T) {
	p := config.DefaultPolicy()
	pr := NewPricing(p, nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, p.Location)
	rapid.Check(t, func(t *rapid.T) {
		start := base.Add(time.Duration(rapid.IntRange(0, 24*365).Draw(t, "hour")) * time.Hour)
		lounge := pr.ComputeCost(model.SkyLounge, start, start.Add(4*time.Hour))
		if !lounge.Total.Equal(p.SkyLoungeFlatRate) {
			t.Fatalf("lounge total %s, want flat rate", lounge.Total)
		}
		end := start.Add(time.Duration(rapid.IntRange(1, 500).Draw(t, "len")) * time.Hour)
		if gear := pr.ComputeCost(model.GearShed, start, end); !gear.Total.IsZero() {
			t.Fatalf("gear shed total %s, want zero", gear.Total)
		}
	})
}

func TestCancellationFeeBoundary(t *testing.T) {
	p := config.DefaultPolicy()
	fees := NewCancellationFees(p)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, p.Location)

	assert.True(t, fees.ComputeCancellationFee(model.GuestSuite, now.Add(72*time.Hour), now).IsZero(), "exactly 72h is free")
	assert.True(t, fees.ComputeCancellationFee(model.GuestSuite, now.Add(72*time.Hour-time.Nanosecond), now).Equal(decimal.NewFromInt(50)))
	assert.True(t, fees.ComputeCancellationFee(model.GuestSuite, now.Add(73*time.Hour), now).IsZero())
	assert.True(t, fees.ComputeCancellationFee(model.SkyLounge, now.Add(time.Hour), now).Equal(decimal.NewFromInt(75)))
	assert.True(t, fees.ComputeCancellationFee(model.GearShed, now.Add(time.Hour), now).IsZero())
	assert.True(t, fees.ComputeCancellationFee(model.GuestSuite, now.Add(-time.Hour), now).Equal(decimal.NewFromInt(50)), "already started")
}

func TestCancellationFeeMonotonic(t *testing.T) {
	p := config.DefaultPolicy()
	fees := NewCancellationFees(p)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	rapid.Check(t, func(t *rapid.T) {
		mins := rapid.IntRange(-1000, 10000).Draw(t, "minutes")
		start := now.Add(time.Duration(mins) * time.Minute)
		fee := fees.ComputeCancellationFee(model.SkyLounge, start, now)
		inside := start.Sub(now) < p.CancellationWindow
		if inside != !fee.IsZero() {
			t.Fatalf("start in %d minutes: fee %s", mins, fee)
		}
	})
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.pricing.Quote(ctx, f.suite("Suite A", f.at(2024, 1, 5, 15), f.at(2024, 1, 7, 11)))
	require.NoError(t, err)
	assert.True(t, q.Bookable)
	assert.Empty(t, q.Messages)
	assert.True(t, q.Price.Total.Equal(decimal.NewFromInt(250)))

	q, err = f.pricing.Quote(ctx, f.suite("Suite A", f.at(2024, 1, 5, 15), f.at(2024, 1, 6, 11)))
	require.NoError(t, err)
	assert.False(t, q.Bookable)
	assert.Contains(t, q.Messages, "Guest Suite reservations require a minimum stay of 2 nights")
	assert.True(t, q.Price.Total.Equal(decimal.NewFromInt(125)))

	list, err := f.catalog.ListReservations(ctx, model.ReservationFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "quotes never persist")
}
