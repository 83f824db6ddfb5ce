// Package queue defines the reservation lifecycle events exchanged over the
// message broker, the publisher used by the services and the audit consumer
// that records every event in logs/reservations.log.
package queue

import (
    "time"

    "github.com/iliyamo/amenity-reservation/internal/model"
)

// EventType is the routing key of a lifecycle event.
type EventType string

const (
    ReservationCreated   EventType = "reservation.created"
    ReservationUpdated   EventType = "reservation.updated"
    ReservationCancelled EventType = "reservation.cancelled"
    ReservationRestored  EventType = "reservation.restored"
    ReservationCompleted EventType = "reservation.completed"
    ReservationDeleted   EventType = "reservation.deleted"
)

// ReservationEvent is published after a lifecycle transition has been
// persisted.  It carries a snapshot of the reservation so consumers never
// need to query the store.
type ReservationEvent struct {
    Type            EventType `json:"type"`
    ReservationID   string    `json:"reservation_id"`
    ResourceType    string    `json:"resource_type"`
    Status          string    `json:"status"`
    RentedTo        string    `json:"rented_to"`
    Item            string    `json:"item"`
    Items           []string  `json:"items,omitempty"`
    StartTime       string    `json:"start_time"`
    EndTime         string    `json:"end_time"`
    TotalCost       string    `json:"total_cost"`
    CancellationFee string    `json:"cancellation_fee,omitempty"`
    Actor           string    `json:"actor"`
    OccurredAt      string    `json:"occurred_at"`
}

// NewReservationEvent snapshots r.  Times are rendered in RFC3339 UTC.
func NewReservationEvent(t EventType, r model.Reservation, actor string, at time.Time) ReservationEvent {
    ev := ReservationEvent{
        Type:          t,
        ReservationID: r.ID.String(),
        ResourceType:  string(r.ResourceType),
        Status:        string(r.Status),
        RentedTo:      r.RentedTo,
        Item:          r.Item,
        Items:         r.Items,
        StartTime:     r.StartTime.UTC().Format(time.RFC3339),
        EndTime:       r.EndTime.UTC().Format(time.RFC3339),
        TotalCost:     r.TotalCost.StringFixed(2),
        Actor:         actor,
        OccurredAt:    at.UTC().Format(time.RFC3339),
    }
    if r.CancellationFee != nil {
        ev.CancellationFee = r.CancellationFee.StringFixed(2)
    }
    return ev
}
