package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/amenity-reservation/internal/config"
	"github.com/iliyamo/amenity-reservation/internal/model"
	"github.com/iliyamo/amenity-reservation/internal/queue"
	"github.com/iliyamo/amenity-reservation/internal/repository"
)

// fixture wires the engine over an in-memory store seeded with a small
// catalog.  The clock starts on Monday 2024-01-01 09:00 local time.
type fixture struct {
	policy  config.Policy
	store   *repository.MemoryStore
	catalog *Catalog
	avail   *Availability
	pricing *Pricing
	life    *Lifecycle
	events  *recordingPublisher
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{policy: config.DefaultPolicy(), store: repository.NewMemoryStore(), events: &recordingPublisher{}}
	f.now = f.at(2024, 1, 1, 9)
	clock := func() time.Time { return f.now }
	f.catalog = NewCatalog(f.store, clock)
	f.avail = NewAvailability(f.catalog, f.policy)
	f.pricing = NewPricing(f.policy, f.avail)
	f.life = NewLifecycle(f.store, f.avail, f.pricing, WithClock(clock), WithPublisher(f.events))

	ctx := context.Background()
	for _, it := range []NewItem{
		{Item: "Suite A", ResourceType: model.GuestSuite},
		{Item: "Suite B", ResourceType: model.GuestSuite},
		{Item: "Suite C", ResourceType: model.GuestSuite, ServiceStatus: model.NotInService},
		{Item: "Kayak", ResourceType: model.GearShed},
		{Item: "Paddle", ResourceType: model.GearShed},
		{Item: "Tent", ResourceType: model.GearShed},
	} {
		_, err := f.catalog.CreateItem(ctx, it)
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, f.policy.Location)
}

func (f *fixture) suite(item string, start, end time.Time) model.Reservation {
	return model.Reservation{RentedTo: "Unit 12", ResourceType: model.GuestSuite, Item: item, StartTime: start, EndTime: end}
}

func (f *fixture) lounge(start time.Time, override bool) model.Reservation {
	return model.Reservation{
		RentedTo: "Unit 7", ResourceType: model.SkyLounge,
		StartTime: start, EndTime: start.Add(4 * time.Hour), OverrideLock: override,
	}
}

func (f *fixture) gear(start, end time.Time, items ...string) model.Reservation {
	return model.Reservation{RentedTo: "Unit 3", ResourceType: model.GearShed, Items: items, StartTime: start, EndTime: end}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// brokenStore fails every reservation read.
type brokenStore struct {
	*repository.MemoryStore
}

var errDiskOnFire = errors.New("disk on fire")

func (brokenStore) ListReservations(context.Context, model.ReservationFilter) ([]model.Reservation, error) {
	return nil, errDiskOnFire
}

func (brokenStore) GetReservation(context.Context, uuid.UUID) (model.Reservation, error) {
	return model.Reservation{}, errDiskOnFire
}
