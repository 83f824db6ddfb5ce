package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/amenity-reservation/internal/lock"
	"github.com/iliyamo/amenity-reservation/internal/logger"
	"github.com/iliyamo/amenity-reservation/internal/model"
	"github.com/iliyamo/amenity-reservation/internal/queue"
	"github.com/iliyamo/amenity-reservation/internal/repository"
)

// Lifecycle owns the reservation state machine:
//
//	SCHEDULED --cancel--> CANCELLED --restore--> SCHEDULED
//	SCHEDULED --complete (after end)--> COMPLETE
//	any --delete--> (gone)
//
// Create, Update and Restore hold the resource-item locks while they check
// availability and write.  Every mutation also holds the reservation's own
// key so two transitions on one reservation cannot interleave.
type Lifecycle struct {
	store     repository.Store
	avail     *Availability
	pricing   *Pricing
	locker    lock.Locker
	publisher queue.Publisher
	log       *log.Logger
	now       func() time.Time
	tracer    trace.Tracer
}

// Option customises a Lifecycle.
type Option func(*Lifecycle)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(l *Lifecycle) { l.now = now } }

// WithLocker replaces the default in-process locker.
func WithLocker(lk lock.Locker) Option { return func(l *Lifecycle) { l.locker = lk } }

// WithPublisher sets where lifecycle events go.
func WithPublisher(p queue.Publisher) Option { return func(l *Lifecycle) { l.publisher = p } }

// WithLogger sets the logger.
func WithLogger(lg *log.Logger) Option { return func(l *Lifecycle) { l.log = lg } }

// NewLifecycle wires the state machine.
func NewLifecycle(store repository.Store, avail *Availability, pricing *Pricing, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		store:     store,
		avail:     avail,
		pricing:   pricing,
		locker:    lock.NewKeyedMutex(),
		publisher: queue.NopPublisher{},
		log:       logger.Discard(),
		now:       time.Now,
		tracer:    otel.Tracer("github.com/iliyamo/amenity-reservation/internal/service"),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Get loads a reservation.
func (l *Lifecycle) Get(ctx context.Context, id uuid.UUID) (model.Reservation, error) {
	r, err := l.store.GetReservation(ctx, id)
	return r, storeErr("get reservation", err)
}

// Create validates, prices and stores proposed as a new SCHEDULED
// reservation.  Client supplied ids, statuses and audit fields are ignored.
func (l *Lifecycle) Create(ctx context.Context, proposed model.Reservation, actor string) (model.Reservation, error) {
	r := normalize(proposed)
	r.ID = uuid.New()
	r.Status = model.StatusScheduled
	r.ScheduledBy = actor
	r.EditBy, r.LastUpdate, r.ReturnNotes, r.CompletedBy, r.CancellationFee = nil, nil, nil, nil, nil

	ctx, span := l.tracer.Start(ctx, "reservation.create", trace.WithAttributes(
		attribute.String("reservation.id", r.ID.String()),
		attribute.String("reservation.type", string(r.ResourceType)),
		attribute.String("actor", actor),
	))
	defer span.End()

	unlock, err := l.lock(ctx, r.ID, l.avail.LockKeys(r))
	if err != nil {
		return model.Reservation{}, l.fail(span, err)
	}
	defer unlock()

	if err := l.validate(ctx, r, nil); err != nil {
		return model.Reservation{}, l.fail(span, err)
	}
	r.TotalCost = l.pricing.ComputeCost(r.ResourceType, r.StartTime, r.EndTime).Total
	if r.ResourceType == model.SkyLounge && r.Item == "" {
		r.Item = model.SkyLounge.Label()
	}
	r.CreatedAt = l.now().UTC()
	if err := l.store.CreateReservation(ctx, r); err != nil {
		l.log.Errorf("create reservation %s: %v", r.ID, err)
		return model.Reservation{}, l.fail(span, storeErr("create reservation", err))
	}
	l.log.Infof("reservation %s created: type=%s item=%q by=%s", r.ID, r.ResourceType, r.Item, actor)
	l.publish(ctx, queue.ReservationCreated, r, actor)
	return r, nil
}

// Update applies changes to a reservation.  Schedule changes (item, type,
// times, lock override) are only allowed while SCHEDULED and are checked
// like a new booking, excluding the reservation itself.  Text fields may
// be edited in any state.  The cost is recomputed when the type or the
// time range changes.
func (l *Lifecycle) Update(ctx context.Context, id uuid.UUID, changes model.ReservationChanges, actor string) (model.Reservation, error) {
	ctx, span := l.tracer.Start(ctx, "reservation.update", trace.WithAttributes(
		attribute.String("reservation.id", id.String()),
		attribute.Bool("schedule.changed", changes.TouchesSchedule()),
		attribute.String("actor", actor),
	))
	defer span.End()

	current, unlock, err := l.lockCurrent(ctx, id, func(r model.Reservation) []string {
		keys := l.avail.LockKeys(r)
		if changes.TouchesSchedule() {
			keys = append(keys, l.avail.LockKeys(normalize(changes.Apply(r)))...)
		}
		return keys
	})
	if err != nil {
		return model.Reservation{}, l.fail(span, err)
	}
	defer unlock()

	if changes.TouchesSchedule() && current.Status != model.StatusScheduled {
		return model.Reservation{}, l.fail(span, invalidTransition("only scheduled reservations can be rescheduled (status %s)", current.Status))
	}
	next := normalize(changes.Apply(current))
	if changes.TouchesSchedule() {
		if err := l.validate(ctx, next, &id); err != nil {
			return model.Reservation{}, l.fail(span, err)
		}
	} else if next.RentedTo == "" {
		return model.Reservation{}, l.fail(span, validationFailed("Rented to is required"))
	}
	if next.ResourceType != current.ResourceType ||
		!next.StartTime.Equal(current.StartTime) || !next.EndTime.Equal(current.EndTime) {
		next.TotalCost = l.pricing.ComputeCost(next.ResourceType, next.StartTime, next.EndTime).Total
	}
	if next.ResourceType == model.SkyLounge && next.Item == "" {
		next.Item = model.SkyLounge.Label()
	}
	l.stamp(&next, actor)
	if err := l.store.UpdateReservation(ctx, next); err != nil {
		l.log.Errorf("update reservation %s: %v", id, err)
		return model.Reservation{}, l.fail(span, storeErr("update reservation", err))
	}
	l.log.Infof("reservation %s updated by %s", id, actor)
	l.publish(ctx, queue.ReservationUpdated, next, actor)
	return next, nil
}

// CancellationQuote returns the fee Cancel would record if called now.
func (l *Lifecycle) CancellationQuote(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	r, err := l.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if r.Status != model.StatusScheduled {
		return decimal.Zero, invalidTransition("cannot cancel a %s reservation", r.Status)
	}
	return l.pricing.ComputeCancellationFee(r.ResourceType, r.StartTime, l.now()), nil
}

// Cancel moves a SCHEDULED reservation to CANCELLED.  A nil fee is
// computed from the cancellation policy; the fee is stored only when
// nonzero.
func (l *Lifecycle) Cancel(ctx context.Context, id uuid.UUID, fee *decimal.Decimal, actor string) (model.Reservation, error) {
	ctx, span := l.tracer.Start(ctx, "reservation.cancel", trace.WithAttributes(
		attribute.String("reservation.id", id.String()),
		attribute.String("actor", actor),
	))
	defer span.End()

	if fee != nil && fee.IsNegative() {
		return model.Reservation{}, l.fail(span, validationFailed("Cancellation fee must not be negative"))
	}
	unlock, err := l.lock(ctx, id, nil)
	if err != nil {
		return model.Reservation{}, l.fail(span, err)
	}
	defer unlock()

	r, err := l.Get(ctx, id)
	if err != nil {
		return model.Reservation{}, l.fail(span, err)
	}
	if r.Status != model.StatusScheduled {
		return model.Reservation{}, l.fail(span, invalidTransition("cannot cancel a %s reservation", r.Status))
	}
	f := l.pricing.ComputeCancellationFee(r.ResourceType, r.StartTime, l.now())
	if fee != nil {
		f = *fee
	}
	r.Status = model.StatusCancelled
	r.CancellationFee = nil
	if !f.IsZero() {
		r.CancellationFee = &f
	}
	l.stamp(&r, actor)
	if err := l.store.UpdateReservation(ctx, r); err != nil {
		l.log.Errorf("cancel reservation %s: %v", id, err)
		return model.Reservation{}, l.fail(span, storeErr("cancel reservation", err))
	}
	span.SetAttributes(attribute.String("cancellation.fee", f.StringFixed(2)))
	l.log.Infof("reservation %s cancelled by %s fee=%s", id, actor, f.StringFixed(2))
	l.publish(ctx, queue.ReservationCancelled, r, actor)
	return r, nil
}

// Restore moves a CANCELLED reservation back to SCHEDULED.  The booking is
// checked again first; if its slot has been taken in the meantime the
// restore fails and the reservation stays CANCELLED.
func (l *Lifecycle) Restore(ctx context.Context, id uuid.UUID, actor string) (model.Reservation, error) {
	ctx, span := l.tracer.Start(ctx, "reservation.restore", trace.WithAttributes(
		attribute.String("reservation.id", id.String()),
		attribute.String("actor", actor),
	))
	defer span.End()

	r, unlock, err := l.lockCurrent(ctx, id, l.avail.LockKeys)
	if err != nil {
		return model.Reservation{}, l.fail(span, err)
	}
	defer unlock()

	if r.Status != model.StatusCancelled {
		return model.Reservation{}, l.fail(span, invalidTransition("cannot restore a %s reservation", r.Status))
	}
	if err := l.validate(ctx, r, &id); err != nil {
		return model.Reservation{}, l.fail(span, err)
	}
	r.Status = model.StatusScheduled
	r.CancellationFee = nil
	l.stamp(&r, actor)
	if err := l.store.UpdateReservation(ctx, r); err != nil {
		l.log.Errorf("restore reservation %s: %v", id, err)
		return model.Reservation{}, l.fail(span, storeErr("restore reservation", err))
	}
	l.log.Infof("reservation %s restored by %s", id, actor)
	l.publish(ctx, queue.ReservationRestored, r, actor)
	return r, nil
}

// Complete closes a SCHEDULED reservation whose end time has passed.
func (l *Lifecycle) Complete(ctx context.Context, id uuid.UUID, returnNotes, completedBy string) (model.Reservation, error) {
	ctx, span := l.tracer.Start(ctx, "reservation.complete", trace.WithAttributes(
		attribute.String("reservation.id", id.String()),
		attribute.String("actor", completedBy),
	))
	defer span.End()

	unlock, err := l.lock(ctx, id, nil)
	if err != nil {
		return model.Reservation{}, l.fail(span, err)
	}
	defer unlock()

	r, err := l.Get(ctx, id)
	if err != nil {
		return model.Reservation{}, l.fail(span, err)
	}
	if r.Status != model.StatusScheduled {
		return model.Reservation{}, l.fail(span, invalidTransition("cannot complete a %s reservation", r.Status))
	}
	now := l.now()
	if !now.After(r.EndTime) {
		return model.Reservation{}, l.fail(span, invalidTransition("reservation cannot be completed before it ends at %s",
			r.EndTime.Format(time.RFC3339)))
	}
	notes, by := returnNotes, completedBy
	r.Status = model.StatusComplete
	r.ReturnNotes = &notes
	r.CompletedBy = &by
	ts := now.UTC()
	r.LastUpdate = &ts
	if err := l.store.UpdateReservation(ctx, r); err != nil {
		l.log.Errorf("complete reservation %s: %v", id, err)
		return model.Reservation{}, l.fail(span, storeErr("complete reservation", err))
	}
	l.log.Infof("reservation %s completed by %s", id, completedBy)
	l.publish(ctx, queue.ReservationCompleted, r, completedBy)
	return r, nil
}

// Delete removes a reservation permanently, whatever its status.
func (l *Lifecycle) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	ctx, span := l.tracer.Start(ctx, "reservation.delete", trace.WithAttributes(
		attribute.String("reservation.id", id.String()),
		attribute.String("actor", actor),
	))
	defer span.End()

	unlock, err := l.lock(ctx, id, nil)
	if err != nil {
		return l.fail(span, err)
	}
	defer unlock()

	r, err := l.Get(ctx, id)
	if err != nil {
		return l.fail(span, err)
	}
	if err := l.store.DeleteReservation(ctx, id); err != nil {
		l.log.Errorf("delete reservation %s: %v", id, err)
		return l.fail(span, storeErr("delete reservation", err))
	}
	l.log.Infof("reservation %s deleted by %s", id, actor)
	l.publish(ctx, queue.ReservationDeleted, r, actor)
	return nil
}

func (l *Lifecycle) validate(ctx context.Context, r model.Reservation, excluding *uuid.UUID) error {
	msgs, err := l.avail.CheckAvailability(ctx, r, excluding)
	if err != nil {
		l.log.Errorf("availability check for %s: %v", r.ID, err)
		return err
	}
	if len(msgs) > 0 {
		return validationFailed(msgs...)
	}
	return nil
}

func (l *Lifecycle) lock(ctx context.Context, id uuid.UUID, keys []string) (func(), error) {
	keys = append([]string{"reservation:" + id.String()}, keys...)
	unlock, err := l.locker.Lock(ctx, keys...)
	if err != nil {
		l.log.Warnf("lock %v: %v", keys, err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return unlock, nil
}

// lockAttempts bounds how often lockCurrent starts over when the
// reservation keeps moving to items it did not lock.
const lockAttempts = 3

// lockCurrent locks id together with the item keys keysFor derives from it
// and returns the reservation as read under those locks.  The keys come
// from an unlocked snapshot, so when the locked read needs a key that is
// not held the locks are dropped and taken again for the newer row.
func (l *Lifecycle) lockCurrent(ctx context.Context, id uuid.UUID, keysFor func(model.Reservation) []string) (model.Reservation, func(), error) {
	snapshot, err := l.Get(ctx, id)
	if err != nil {
		return model.Reservation{}, nil, err
	}
	for attempt := 0; attempt < lockAttempts; attempt++ {
		held := keysFor(snapshot)
		unlock, err := l.lock(ctx, id, held)
		if err != nil {
			return model.Reservation{}, nil, err
		}
		current, err := l.Get(ctx, id)
		if err != nil {
			unlock()
			return model.Reservation{}, nil, err
		}
		missing := missingKeys(held, keysFor(current))
		if len(missing) == 0 {
			return current, unlock, nil
		}
		unlock()
		l.log.Debugf("reservation %s moved while locking, also needs %v", id, missing)
		snapshot = current
	}
	l.log.Warnf("reservation %s kept moving while locking", id)
	return model.Reservation{}, nil, fmt.Errorf("%w: reservation %s changed during %d lock attempts",
		ErrStoreUnavailable, id, lockAttempts)
}

// missingKeys returns the entries of need that are not in held.
func missingKeys(held, need []string) []string {
	have := make(map[string]bool, len(held))
	for _, k := range held {
		have[k] = true
	}
	var out []string
	for _, k := range need {
		if k != "" && !have[k] {
			out = append(out, k)
		}
	}
	return out
}

func (l *Lifecycle) stamp(r *model.Reservation, actor string) {
	ts := l.now().UTC()
	by := actor
	r.EditBy = &by
	r.LastUpdate = &ts
}

// publish never fails the transition; a lost event is logged.
func (l *Lifecycle) publish(ctx context.Context, t queue.EventType, r model.Reservation, actor string) {
	ev := queue.NewReservationEvent(t, r, actor, l.now())
	if err := l.publisher.Publish(ctx, ev); err != nil {
		l.log.Warnf("publish %s for %s: %v", t, r.ID, err)
	}
}

func (l *Lifecycle) fail(span trace.Span, err error) error {
	span.RecordError(err)
	return err
}

// normalize trims free text and derives the display item of gear shed
// bookings from their item list.  The lock override only applies to the
// sky lounge.
func normalize(r model.Reservation) model.Reservation {
	r = r.Clone()
	r.RentedTo = strings.TrimSpace(r.RentedTo)
	r.Item = strings.TrimSpace(r.Item)
	if r.ResourceType == model.GearShed {
		for i := range r.Items {
			r.Items[i] = strings.TrimSpace(r.Items[i])
		}
		r.Item = model.JoinItems(r.Items)
	} else {
		r.Items = nil
	}
	if r.ResourceType != model.SkyLounge {
		r.OverrideLock = false
	}
	return r
}
