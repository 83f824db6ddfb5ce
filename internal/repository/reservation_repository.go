package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/amenity-reservation/internal/model"
)

// MySQLStore implements Store on top of a MySQL database.  Reservations
// live in the reservations table and catalog items in scheduler_items.
// Gear shed item lists are stored as a JSON array.  All timestamps are
// written in UTC; the connection is opened with parseTime=true&loc=UTC so
// they scan back as time.Time.
type MySQLStore struct {
    db *sql.DB
}

// NewMySQLStore returns a store bound to the given database.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// DB exposes the underlying sql.DB for migrations and health checks.
func (s *MySQLStore) DB() *sql.DB { return s.db }

// Ping verifies the database is reachable.
func (s *MySQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

const reservationColumns = `id, rented_to, item, items, resource_type, status, start_time, end_time,
    total_cost, scheduled_by, edit_by, last_update, rental_notes, return_notes, completed_by,
    cancellation_fee, override_lock, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...any) error
}

// CreateReservation inserts a new reservation row.  The caller supplies
// the id.
func (s *MySQLStore) CreateReservation(ctx context.Context, r model.Reservation) error {
    items, err := encodeItems(r.Items)
    if err != nil {
        return err
    }
    const q = `INSERT INTO reservations (` + reservationColumns + `)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err = s.db.ExecContext(ctx, q,
        r.ID.String(), r.RentedTo, r.Item, items, string(r.ResourceType), string(r.Status),
        r.StartTime.UTC(), r.EndTime.UTC(), r.TotalCost, r.ScheduledBy,
        nullString(r.EditBy), nullTime(r.LastUpdate), r.RentalNotes,
        nullString(r.ReturnNotes), nullString(r.CompletedBy), nullDecimal(r.CancellationFee),
        r.OverrideLock, r.CreatedAt.UTC(),
    )
    if isDuplicate(err) {
        return ErrConflict
    }
    return err
}

// GetReservation loads a single reservation.  ErrNotFound is returned when
// no row has the given id.
func (s *MySQLStore) GetReservation(ctx context.Context, id uuid.UUID) (model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    r, err := scanReservation(s.db.QueryRowContext(ctx, q, id.String()))
    if errors.Is(err, sql.ErrNoRows) {
        return model.Reservation{}, ErrNotFound
    }
    return r, err
}

// UpdateReservation rewrites every mutable column.  created_at and
// scheduled_by are never changed after insertion.
func (s *MySQLStore) UpdateReservation(ctx context.Context, r model.Reservation) error {
    items, err := encodeItems(r.Items)
    if err != nil {
        return err
    }
    const q = `UPDATE reservations SET rented_to = ?, item = ?, items = ?, resource_type = ?, status = ?,
                      start_time = ?, end_time = ?, total_cost = ?, edit_by = ?, last_update = ?,
                      rental_notes = ?, return_notes = ?, completed_by = ?, cancellation_fee = ?,
                      override_lock = ?
               WHERE id = ?`
    res, err := s.db.ExecContext(ctx, q,
        r.RentedTo, r.Item, items, string(r.ResourceType), string(r.Status),
        r.StartTime.UTC(), r.EndTime.UTC(), r.TotalCost, nullString(r.EditBy), nullTime(r.LastUpdate),
        r.RentalNotes, nullString(r.ReturnNotes), nullString(r.CompletedBy), nullDecimal(r.CancellationFee),
        r.OverrideLock, r.ID.String(),
    )
    if err != nil {
        return err
    }
    // MySQL reports zero affected rows when nothing changed, so confirm
    // existence before reporting not found.
    if n, _ := res.RowsAffected(); n == 0 {
        var one int
        err := s.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, r.ID.String()).Scan(&one)
        if errors.Is(err, sql.ErrNoRows) {
            return ErrNotFound
        }
        return err
    }
    return nil
}

// DeleteReservation permanently removes a reservation.
func (s *MySQLStore) DeleteReservation(ctx context.Context, id uuid.UUID) error {
    res, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id.String())
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// ListReservations builds a WHERE clause from the non-zero filter fields.
// The time window selects rows overlapping [From, To).
func (s *MySQLStore) ListReservations(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
    var (
        where []string
        args  []any
    )
    if f.ResourceType != "" {
        where = append(where, "resource_type = ?")
        args = append(args, string(f.ResourceType))
    }
    if f.Status != "" {
        where = append(where, "status = ?")
        args = append(args, string(f.Status))
    }
    if f.Item != "" {
        // gear shed rows keep their items in the JSON column
        where = append(where, "((resource_type <> 'GEAR_SHED' AND item = ?) OR JSON_CONTAINS(items, JSON_QUOTE(?)))")
        args = append(args, f.Item, f.Item)
    }
    if !f.From.IsZero() {
        where = append(where, "end_time > ?")
        args = append(args, f.From.UTC())
    }
    if !f.To.IsZero() {
        where = append(where, "start_time < ?")
        args = append(args, f.To.UTC())
    }
    q := `SELECT ` + reservationColumns + ` FROM reservations`
    if len(where) > 0 {
        q += " WHERE " + strings.Join(where, " AND ")
    }
    q += " ORDER BY start_time, id"

    rows, err := s.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Reservation
    for rows.Next() {
        r, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, r)
    }
    return out, rows.Err()
}

func scanReservation(row rowScanner) (model.Reservation, error) {
    var (
        r                                model.Reservation
        id                               string
        items                            []byte
        resourceType, status             string
        editBy, returnNotes, completedBy sql.NullString
        lastUpdate                       sql.NullTime
        fee                              decimal.NullDecimal
    )
    err := row.Scan(
        &id, &r.RentedTo, &r.Item, &items, &resourceType, &status, &r.StartTime, &r.EndTime,
        &r.TotalCost, &r.ScheduledBy, &editBy, &lastUpdate, &r.RentalNotes, &returnNotes, &completedBy,
        &fee, &r.OverrideLock, &r.CreatedAt,
    )
    if err != nil {
        return model.Reservation{}, err
    }
    if r.ID, err = uuid.Parse(id); err != nil {
        return model.Reservation{}, err
    }
    if len(items) > 0 {
        if err := json.Unmarshal(items, &r.Items); err != nil {
            return model.Reservation{}, err
        }
    }
    r.ResourceType = model.ResourceType(resourceType)
    r.Status = model.ReservationStatus(status)
    r.EditBy = stringPtr(editBy)
    r.ReturnNotes = stringPtr(returnNotes)
    r.CompletedBy = stringPtr(completedBy)
    if lastUpdate.Valid {
        t := lastUpdate.Time
        r.LastUpdate = &t
    }
    if fee.Valid {
        d := fee.Decimal
        r.CancellationFee = &d
    }
    return r, nil
}

func encodeItems(items []string) (any, error) {
    if len(items) == 0 {
        return nil, nil
    }
    b, err := json.Marshal(items)
    if err != nil {
        return nil, err
    }
    return string(b), nil
}

func nullString(p *string) sql.NullString {
    if p == nil {
        return sql.NullString{}
    }
    return sql.NullString{String: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
    if p == nil {
        return sql.NullTime{}
    }
    return sql.NullTime{Time: p.UTC(), Valid: true}
}

func nullDecimal(p *decimal.Decimal) decimal.NullDecimal {
    if p == nil {
        return decimal.NullDecimal{}
    }
    return decimal.NullDecimal{Decimal: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
    if !ns.Valid {
        return nil
    }
    v := ns.String
    return &v
}
