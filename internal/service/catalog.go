package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/amenity-reservation/internal/model"
	"github.com/iliyamo/amenity-reservation/internal/repository"
)

// Catalog is the read side of the engine: bookable items and the
// reservations already placed against them.  Reads never take scheduling
// locks.
type Catalog struct {
	store repository.Store
	now   func() time.Time
}

// NewCatalog returns a Catalog backed by store.
func NewCatalog(store repository.Store, now func() time.Time) *Catalog {
	if now == nil {
		now = time.Now
	}
	return &Catalog{store: store, now: now}
}

// ListItems returns the catalog items of type t.  An empty t lists every
// type.
func (c *Catalog) ListItems(ctx context.Context, t model.ResourceType, onlyInService bool) ([]model.SchedulerItem, error) {
	items, err := c.store.ListItems(ctx, t, onlyInService)
	return items, storeErr("list items", err)
}

// GetItem loads one catalog item.
func (c *Catalog) GetItem(ctx context.Context, id uuid.UUID) (model.SchedulerItem, error) {
	it, err := c.store.GetItem(ctx, id)
	return it, storeErr("get item", err)
}

// ListActiveReservations returns every SCHEDULED reservation of type t.
func (c *Catalog) ListActiveReservations(ctx context.Context, t model.ResourceType) ([]model.Reservation, error) {
	return c.ListReservations(ctx, model.ReservationFilter{ResourceType: t, Status: model.StatusScheduled})
}

// ListReservations returns reservations matching f ordered by start time.
func (c *Catalog) ListReservations(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	rs, err := c.store.ListReservations(ctx, f)
	return rs, storeErr("list reservations", err)
}

// NewItem is the input for CreateItem.
type NewItem struct {
	Item          string
	ResourceType  model.ResourceType
	Description   *string
	ServiceStatus model.ServiceStatus
	ServiceNotes  *string
}

// CreateItem adds a bookable item.  Items default to IN_SERVICE.
func (c *Catalog) CreateItem(ctx context.Context, in NewItem) (model.SchedulerItem, error) {
	if in.ServiceStatus == "" {
		in.ServiceStatus = model.InService
	}
	it := model.SchedulerItem{
		ID:            uuid.New(),
		Item:          strings.TrimSpace(in.Item),
		ResourceType:  in.ResourceType,
		Description:   in.Description,
		ServiceStatus: in.ServiceStatus,
		ServiceNotes:  in.ServiceNotes,
	}
	if msgs := validateItem(it); len(msgs) > 0 {
		return model.SchedulerItem{}, validationFailed(msgs...)
	}
	now := c.now().UTC()
	it.CreatedAt, it.UpdatedAt = now, now
	if err := c.store.CreateItem(ctx, it); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.SchedulerItem{}, validationFailed(duplicateItem(it))
		}
		return model.SchedulerItem{}, storeErr("create item", err)
	}
	return it, nil
}

// UpdateItem applies ch to the item.  The resource type of an item never
// changes.  Existing reservations keep the name they were booked under.
func (c *Catalog) UpdateItem(ctx context.Context, id uuid.UUID, ch model.ItemChanges) (model.SchedulerItem, error) {
	it, err := c.store.GetItem(ctx, id)
	if err != nil {
		return model.SchedulerItem{}, storeErr("get item", err)
	}
	if ch.Item != nil {
		it.Item = strings.TrimSpace(*ch.Item)
	}
	if ch.Description != nil {
		it.Description = ch.Description
	}
	if ch.ServiceStatus != nil {
		it.ServiceStatus = *ch.ServiceStatus
	}
	if ch.ServiceNotes != nil {
		it.ServiceNotes = ch.ServiceNotes
	}
	if msgs := validateItem(it); len(msgs) > 0 {
		return model.SchedulerItem{}, validationFailed(msgs...)
	}
	it.UpdatedAt = c.now().UTC()
	if err := c.store.UpdateItem(ctx, it); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.SchedulerItem{}, validationFailed(duplicateItem(it))
		}
		return model.SchedulerItem{}, storeErr("update item", err)
	}
	return it, nil
}

func validateItem(it model.SchedulerItem) []string {
	var msgs []string
	if it.Item == "" {
		msgs = append(msgs, "Item name is required")
	}
	if !it.ResourceType.Valid() {
		msgs = append(msgs, fmt.Sprintf("Unknown resource type %q", it.ResourceType))
	}
	if !it.ServiceStatus.Valid() {
		msgs = append(msgs, fmt.Sprintf("Unknown service status %q", it.ServiceStatus))
	}
	return msgs
}

func duplicateItem(it model.SchedulerItem) string {
	return fmt.Sprintf("%s %q already exists", it.ResourceType.Label(), it.Item)
}
