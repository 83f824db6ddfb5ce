package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/amenity-reservation/internal/config"
	"github.com/iliyamo/amenity-reservation/internal/model"
)

const messageTimeLayout = "Mon Jan 2 3:04 PM"

// Availability decides whether a proposed reservation may be scheduled.
// It only reads; callers that intend to write hold the lock keys returned
// by LockKeys for the duration of the check and the write.
type Availability struct {
	catalog *Catalog
	policy  config.Policy
}

// NewAvailability returns a checker reading through c.
func NewAvailability(c *Catalog, p config.Policy) *Availability {
	return &Availability{catalog: c, policy: p}
}

// CheckAvailability returns every rule violated by proposed.  excluding is
// the id of the reservation being edited or restored; it never conflicts
// with itself.  An empty result means the reservation may be scheduled.
// The error is non-nil only when the store could not be read.
func (a *Availability) CheckAvailability(ctx context.Context, proposed model.Reservation, excluding *uuid.UUID) ([]string, error) {
	var msgs []string
	if strings.TrimSpace(proposed.RentedTo) == "" {
		msgs = append(msgs, "Rented to is required")
	}
	if proposed.StartTime.IsZero() {
		msgs = append(msgs, "Start time is required")
	}
	if proposed.EndTime.IsZero() {
		msgs = append(msgs, "End time is required")
	}
	rangeOK := !proposed.StartTime.IsZero() && !proposed.EndTime.IsZero()
	if rangeOK && !proposed.StartTime.Before(proposed.EndTime) {
		msgs = append(msgs, "Start time must be before end time")
		rangeOK = false
	}

	c := check{Availability: a, proposed: proposed, excluding: excluding, rangeOK: rangeOK, msgs: msgs}
	var err error
	switch proposed.ResourceType {
	case model.GuestSuite:
		err = c.guestSuite(ctx)
	case model.SkyLounge:
		err = c.skyLounge(ctx)
	case model.GearShed:
		err = c.gearShed(ctx)
	case "":
		c.add("Resource type is required")
	default:
		c.add(fmt.Sprintf("Unknown resource type %q", proposed.ResourceType))
	}
	if err != nil {
		return nil, err
	}
	return c.msgs, nil
}

// LockKeys names the resource-items r occupies: the suite, the lounge's
// local calendar date, or each piece of gear.
func (a *Availability) LockKeys(r model.Reservation) []string {
	switch r.ResourceType {
	case model.GuestSuite:
		return []string{"guest_suite:" + r.Item}
	case model.SkyLounge:
		return []string{"sky_lounge:" + localDate(r.StartTime, a.policy.Location).Format(time.DateOnly)}
	case model.GearShed:
		keys := make([]string, 0, len(r.Items))
		for _, it := range r.Items {
			keys = append(keys, "gear_shed:"+it)
		}
		return keys
	}
	return nil
}

// check accumulates the messages of a single CheckAvailability call.
type check struct {
	*Availability
	proposed  model.Reservation
	excluding *uuid.UUID
	rangeOK   bool
	msgs      []string
}

func (c *check) add(msg string) { c.msgs = append(c.msgs, msg) }

func (c *check) guestSuite(ctx context.Context) error {
	p := c.proposed
	if p.Item == "" {
		c.add("Please select a Guest Suite")
	} else if err := c.offerable(ctx, model.GuestSuite, p.Item); err != nil {
		return err
	}
	if !c.rangeOK {
		return nil
	}
	if n := Nights(p.StartTime, p.EndTime); n < c.policy.GuestSuiteMinNights {
		c.add(fmt.Sprintf("Guest Suite reservations require a minimum stay of %d nights", c.policy.GuestSuiteMinNights))
	}
	if p.Item == "" {
		return nil
	}
	other, found, err := c.firstOverlap(ctx, model.GuestSuite, p.Item)
	if err != nil {
		return err
	}
	if found {
		c.add(fmt.Sprintf("Guest Suite %q is already reserved from %s to %s", p.Item, c.when(other.StartTime), c.when(other.EndTime)))
	}
	return nil
}

func (c *check) skyLounge(ctx context.Context) error {
	p := c.proposed
	// the lounge is a single room; its catalog entry is optional unless a
	// specific name was given
	if p.Item != "" {
		it, err := c.catalog.store.FindItem(ctx, model.SkyLounge, p.Item)
		switch err = storeErr("find item", err); {
		case errors.Is(err, ErrNotFound):
			if p.Item != model.SkyLounge.Label() {
				c.add(fmt.Sprintf("%s %q is not in the catalog", model.SkyLounge.Label(), p.Item))
			}
		case err != nil:
			return err
		case !it.Offerable():
			c.add(fmt.Sprintf("%s %q is not in service", model.SkyLounge.Label(), p.Item))
		}
	}
	if !c.rangeOK {
		return nil
	}
	if h := p.StartTime.In(c.policy.Location).Hour(); h < c.policy.SkyLoungeOpenHour || h >= c.policy.SkyLoungeCloseHour {
		c.add(fmt.Sprintf("Sky Lounge reservations must start between %02d:00 and %02d:00",
			c.policy.SkyLoungeOpenHour, c.policy.SkyLoungeCloseHour))
	}
	if p.EndTime.Sub(p.StartTime) != c.policy.SkyLoungeBlock {
		c.add(fmt.Sprintf("Sky Lounge reservations are %d-hour blocks", int(c.policy.SkyLoungeBlock/time.Hour)))
	}

	if p.OverrideLock {
		// the all-day lock is waived, but the lounge still cannot be in two
		// bookings at once
		other, found, err := c.firstOverlap(ctx, model.SkyLounge, "")
		if err != nil {
			return err
		}
		if found {
			c.add(fmt.Sprintf("Sky Lounge is already reserved from %s to %s", c.when(other.StartTime), c.when(other.EndTime)))
		}
		return nil
	}

	date := localDate(p.StartTime, c.policy.Location)
	rs, err := c.catalog.ListReservations(ctx, model.ReservationFilter{
		ResourceType: model.SkyLounge,
		Status:       model.StatusScheduled,
		From:         date,
		To:           date.AddDate(0, 0, 1),
	})
	if err != nil {
		return err
	}
	for _, other := range rs {
		if c.excluded(other) || !localDate(other.StartTime, c.policy.Location).Equal(date) {
			continue
		}
		c.add(fmt.Sprintf("Sky Lounge is already reserved on %s", date.Format("Monday, January 2, 2006")))
		break
	}
	return nil
}

func (c *check) gearShed(ctx context.Context) error {
	p := c.proposed
	if len(p.Items) == 0 {
		c.add("Please select at least one Gear Shed item")
		return nil
	}
	seen := make(map[string]bool, len(p.Items))
	for _, item := range p.Items {
		if item == "" {
			c.add("Gear Shed item names must not be empty")
			continue
		}
		if seen[item] {
			c.add(fmt.Sprintf("Gear Shed item %q is listed more than once", item))
			continue
		}
		seen[item] = true
		if err := c.offerable(ctx, model.GearShed, item); err != nil {
			return err
		}
		if !c.rangeOK {
			continue
		}
		other, found, err := c.firstOverlap(ctx, model.GearShed, item)
		if err != nil {
			return err
		}
		if found {
			c.add(fmt.Sprintf("Gear Shed item %q is already reserved from %s to %s", item, c.when(other.StartTime), c.when(other.EndTime)))
		}
	}
	return nil
}

// offerable adds a message when name is missing from the catalog or out of
// service.  Only store failures are returned as errors.
func (c *check) offerable(ctx context.Context, t model.ResourceType, name string) error {
	it, err := c.catalog.store.FindItem(ctx, t, name)
	if err != nil {
		err = storeErr("find item", err)
		if errors.Is(err, ErrNotFound) {
			c.add(fmt.Sprintf("%s %q is not in the catalog", t.Label(), name))
			return nil
		}
		return err
	}
	if !it.Offerable() {
		c.add(fmt.Sprintf("%s %q is not in service", t.Label(), name))
	}
	return nil
}

// firstOverlap finds an active reservation of type t occupying item (any
// item when empty) whose range intersects the proposed one.
func (c *check) firstOverlap(ctx context.Context, t model.ResourceType, item string) (model.Reservation, bool, error) {
	p := c.proposed
	rs, err := c.catalog.ListReservations(ctx, model.ReservationFilter{
		ResourceType: t,
		Status:       model.StatusScheduled,
		Item:         item,
		From:         p.StartTime,
		To:           p.EndTime,
	})
	if err != nil {
		return model.Reservation{}, false, err
	}
	for _, other := range rs {
		if c.excluded(other) {
			continue
		}
		if item != "" && !other.Occupies(item) {
			continue
		}
		if Overlaps(p.StartTime, p.EndTime, other.StartTime, other.EndTime) {
			return other, true, nil
		}
	}
	return model.Reservation{}, false, nil
}

func (c *check) excluded(r model.Reservation) bool {
	return c.excluding != nil && r.ID == *c.excluding
}

func (c *check) when(t time.Time) string {
	return t.In(c.policy.Location).Format(messageTimeLayout)
}
