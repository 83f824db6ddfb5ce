package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusScheduled ReservationStatus = "SCHEDULED"
	StatusComplete  ReservationStatus = "COMPLETE"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusComplete, StatusCancelled:
		return true
	}
	return false
}

// Reservation records the booking of a shared amenity by a unit or tenant.
// Only SCHEDULED reservations take part in availability checks.
//
// Fields:
//  ID              – opaque transaction id.
//  RentedTo        – unit or tenant the amenity is booked for.
//  Item            – display name; for gear shed bookings the joined Items.
//  Items           – distinct gear names (gear shed only).
//  ResourceType    – amenity category.
//  Status          – SCHEDULED, COMPLETE or CANCELLED.
//  StartTime       – inclusive start instant.
//  EndTime         – exclusive end instant.
//  TotalCost       – price computed when the booking was made or rescheduled.
//  ScheduledBy     – staff member who created the booking.
//  EditBy          – staff member who last edited, cancelled or restored it.
//  LastUpdate      – timestamp of the last mutation.
//  RentalNotes     – notes captured when booking.
//  ReturnNotes     – notes captured when the amenity was handed back.
//  CompletedBy     – staff member who completed the booking.
//  CancellationFee – fee recorded on cancellation, nil when none applied.
//  OverrideLock    – sky lounge only; bypasses the all-day lock.
//  CreatedAt       – creation timestamp.
type Reservation struct {
	ID              uuid.UUID         `json:"id"`
	RentedTo        string            `json:"rented_to"`
	Item            string            `json:"item"`
	Items           []string          `json:"items,omitempty"`
	ResourceType    ResourceType      `json:"resource_type"`
	Status          ReservationStatus `json:"status"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	TotalCost       decimal.Decimal   `json:"total_cost"`
	ScheduledBy     string            `json:"scheduled_by"`
	EditBy          *string           `json:"edit_by,omitempty"`
	LastUpdate      *time.Time        `json:"last_update,omitempty"`
	RentalNotes     string            `json:"rental_notes"`
	ReturnNotes     *string           `json:"return_notes,omitempty"`
	CompletedBy     *string           `json:"completed_by,omitempty"`
	CancellationFee *decimal.Decimal  `json:"cancellation_fee,omitempty"`
	OverrideLock    bool              `json:"override_lock"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Active reports whether the reservation counts toward availability.
func (r Reservation) Active() bool { return r.Status == StatusScheduled }

// BookedItems returns the concrete resource-items the reservation occupies.
// Gear shed bookings occupy each entry of Items; the other types occupy the
// single Item.
func (r Reservation) BookedItems() []string {
	if r.ResourceType == GearShed {
		return r.Items
	}
	if r.Item == "" {
		return nil
	}
	return []string{r.Item}
}

// Occupies reports whether item is one of the reservation's booked items.
func (r Reservation) Occupies(item string) bool {
	for _, it := range r.BookedItems() {
		if it == item {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so that callers can mutate the result without
// touching the stored value.
func (r Reservation) Clone() Reservation {
	out := r
	if r.Items != nil {
		out.Items = append([]string(nil), r.Items...)
	}
	if r.EditBy != nil {
		v := *r.EditBy
		out.EditBy = &v
	}
	if r.LastUpdate != nil {
		v := *r.LastUpdate
		out.LastUpdate = &v
	}
	if r.ReturnNotes != nil {
		v := *r.ReturnNotes
		out.ReturnNotes = &v
	}
	if r.CompletedBy != nil {
		v := *r.CompletedBy
		out.CompletedBy = &v
	}
	if r.CancellationFee != nil {
		v := *r.CancellationFee
		out.CancellationFee = &v
	}
	return out
}

// JoinItems builds the display string stored in Item for gear shed bookings.
func JoinItems(items []string) string {
	return strings.Join(items, ", ")
}

// ReservationChanges holds the fields an edit may touch.  Nil fields are
// left unchanged.
type ReservationChanges struct {
	RentedTo     *string       `json:"rented_to,omitempty"`
	Item         *string       `json:"item,omitempty"`
	Items        *[]string     `json:"items,omitempty"`
	ResourceType *ResourceType `json:"resource_type,omitempty"`
	StartTime    *time.Time    `json:"start_time,omitempty"`
	EndTime      *time.Time    `json:"end_time,omitempty"`
	RentalNotes  *string       `json:"rental_notes,omitempty"`
	ReturnNotes  *string       `json:"return_notes,omitempty"`
	OverrideLock *bool         `json:"override_lock,omitempty"`
}

// TouchesSchedule reports whether applying c could change which
// resource-items are occupied or when.
func (c ReservationChanges) TouchesSchedule() bool {
	return c.Item != nil || c.Items != nil || c.ResourceType != nil ||
		c.StartTime != nil || c.EndTime != nil || c.OverrideLock != nil
}

// Apply returns a copy of r with the non-nil fields of c merged in.
func (c ReservationChanges) Apply(r Reservation) Reservation {
	out := r.Clone()
	if c.RentedTo != nil {
		out.RentedTo = *c.RentedTo
	}
	if c.ResourceType != nil {
		out.ResourceType = *c.ResourceType
	}
	if c.Item != nil {
		out.Item = *c.Item
	}
	if c.Items != nil {
		out.Items = append([]string(nil), (*c.Items)...)
	}
	if c.StartTime != nil {
		out.StartTime = *c.StartTime
	}
	if c.EndTime != nil {
		out.EndTime = *c.EndTime
	}
	if c.RentalNotes != nil {
		out.RentalNotes = *c.RentalNotes
	}
	if c.ReturnNotes != nil {
		v := *c.ReturnNotes
		out.ReturnNotes = &v
	}
	if c.OverrideLock != nil {
		out.OverrideLock = *c.OverrideLock
	}
	return out
}

// ReservationFilter narrows reservation listings.  Zero values match
// everything.  From and To select reservations overlapping [From, To).
type ReservationFilter struct {
	ResourceType ResourceType
	Status       ReservationStatus
	Item         string
	From         time.Time
	To           time.Time
}

// Matches reports whether r satisfies every non-zero criterion of f.  Item
// matches either the single item or any entry of a gear shed Items list.
func (f ReservationFilter) Matches(r Reservation) bool {
	if f.ResourceType != "" && r.ResourceType != f.ResourceType {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Item != "" && !r.Occupies(f.Item) {
		return false
	}
	if !f.From.IsZero() && !r.EndTime.After(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.StartTime.Before(f.To) {
		return false
	}
	return true
}

// PriceBreakdown is the computed cost of a booking.  It is never persisted
// on its own.
type PriceBreakdown struct {
	Total     decimal.Decimal `json:"total"`
	Nights    *int            `json:"nights,omitempty"`
	Breakdown string          `json:"breakdown"`
}
