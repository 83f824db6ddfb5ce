package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/amenity-reservation/internal/model"
)

// ReservationStore persists reservations keyed by transaction id.  Values
// are copied in and out; callers never share memory with the store.
type ReservationStore interface {
	CreateReservation(ctx context.Context, r model.Reservation) error
	GetReservation(ctx context.Context, id uuid.UUID) (model.Reservation, error)
	// UpdateReservation overwrites every mutable column of r.  It returns
	// ErrNotFound when r.ID is unknown.
	UpdateReservation(ctx context.Context, r model.Reservation) error
	DeleteReservation(ctx context.Context, id uuid.UUID) error
	// ListReservations returns matching reservations ordered by start time.
	ListReservations(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error)
}

// ItemStore persists catalog items keyed by item id.
type ItemStore interface {
	CreateItem(ctx context.Context, it model.SchedulerItem) error
	GetItem(ctx context.Context, id uuid.UUID) (model.SchedulerItem, error)
	// FindItem looks an item up by its display name within a resource type.
	FindItem(ctx context.Context, t model.ResourceType, name string) (model.SchedulerItem, error)
	UpdateItem(ctx context.Context, it model.SchedulerItem) error
	// ListItems returns items of type t (all types when t is empty) ordered
	// by name.  When onlyInService is set out-of-service items are skipped.
	ListItems(ctx context.Context, t model.ResourceType, onlyInService bool) ([]model.SchedulerItem, error)
}

// Store is the full persistence surface the services depend on.
type Store interface {
	ReservationStore
	ItemStore
	Ping(ctx context.Context) error
}
