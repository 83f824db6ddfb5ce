package model

import (
	"time"

	"github.com/google/uuid"
)

// SchedulerItem is a concrete bookable unit: a specific guest suite, the
// sky lounge, or one piece of gear in the shed.  Items are created and
// updated but never deleted; taking one out of service hides it from new
// bookings without touching existing reservations.
//
// Fields:
//  ID            – primary key identifier.
//  Item          – display name, unique per resource type.
//  ResourceType  – amenity category the item belongs to.
//  Description   – optional free text.
//  ServiceStatus – IN_SERVICE or NOT_IN_SERVICE.
//  ServiceNotes  – optional reason for the current status.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type SchedulerItem struct {
	ID            uuid.UUID     `json:"id"`
	Item          string        `json:"item"`
	ResourceType  ResourceType  `json:"resource_type"`
	Description   *string       `json:"description,omitempty"`
	ServiceStatus ServiceStatus `json:"service_status"`
	ServiceNotes  *string       `json:"service_notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Offerable reports whether the item may be attached to a new booking.
func (i SchedulerItem) Offerable() bool { return i.ServiceStatus == InService }

// ItemChanges holds the editable fields of a catalog item.  Nil fields are
// left unchanged.
type ItemChanges struct {
	Item          *string        `json:"item,omitempty"`
	Description   *string        `json:"description,omitempty"`
	ServiceStatus *ServiceStatus `json:"service_status,omitempty"`
	ServiceNotes  *string        `json:"service_notes,omitempty"`
}
