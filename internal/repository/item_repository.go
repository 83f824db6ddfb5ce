package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/google/uuid"

    "github.com/iliyamo/amenity-reservation/internal/model"
)

const itemColumns = `id, item, resource_type, description, service_status, service_notes, created_at, updated_at`

// CreateItem inserts a catalog item.  A second item with the same name and
// resource type yields ErrConflict.
func (s *MySQLStore) CreateItem(ctx context.Context, it model.SchedulerItem) error {
    const q = `INSERT INTO scheduler_items (` + itemColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := s.db.ExecContext(ctx, q,
        it.ID.String(), it.Item, string(it.ResourceType), nullString(it.Description),
        string(it.ServiceStatus), nullString(it.ServiceNotes), it.CreatedAt.UTC(), it.UpdatedAt.UTC(),
    )
    if isDuplicate(err) {
        return ErrConflict
    }
    return err
}

// GetItem loads an item by id.
func (s *MySQLStore) GetItem(ctx context.Context, id uuid.UUID) (model.SchedulerItem, error) {
    const q = `SELECT ` + itemColumns + ` FROM scheduler_items WHERE id = ?`
    it, err := scanItem(s.db.QueryRowContext(ctx, q, id.String()))
    if errors.Is(err, sql.ErrNoRows) {
        return model.SchedulerItem{}, ErrNotFound
    }
    return it, err
}

// FindItem loads an item by resource type and display name.
func (s *MySQLStore) FindItem(ctx context.Context, t model.ResourceType, name string) (model.SchedulerItem, error) {
    const q = `SELECT ` + itemColumns + ` FROM scheduler_items WHERE resource_type = ? AND item = ?`
    it, err := scanItem(s.db.QueryRowContext(ctx, q, string(t), name))
    if errors.Is(err, sql.ErrNoRows) {
        return model.SchedulerItem{}, ErrNotFound
    }
    return it, err
}

// UpdateItem rewrites the editable columns of an item.
func (s *MySQLStore) UpdateItem(ctx context.Context, it model.SchedulerItem) error {
    const q = `UPDATE scheduler_items SET item = ?, description = ?, service_status = ?, service_notes = ?, updated_at = ?
               WHERE id = ?`
    res, err := s.db.ExecContext(ctx, q,
        it.Item, nullString(it.Description), string(it.ServiceStatus), nullString(it.ServiceNotes),
        it.UpdatedAt.UTC(), it.ID.String(),
    )
    if isDuplicate(err) {
        return ErrConflict
    }
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// ListItems returns items of the given type ordered by type then name.
func (s *MySQLStore) ListItems(ctx context.Context, t model.ResourceType, onlyInService bool) ([]model.SchedulerItem, error) {
    q := `SELECT ` + itemColumns + ` FROM scheduler_items WHERE 1 = 1`
    var args []any
    if t != "" {
        q += ` AND resource_type = ?`
        args = append(args, string(t))
    }
    if onlyInService {
        q += ` AND service_status = ?`
        args = append(args, string(model.InService))
    }
    q += ` ORDER BY resource_type, item`

    rows, err := s.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.SchedulerItem
    for rows.Next() {
        it, err := scanItem(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, it)
    }
    return out, rows.Err()
}

func scanItem(row rowScanner) (model.SchedulerItem, error) {
    var (
        it                        model.SchedulerItem
        id, resourceType, status  string
        description, serviceNotes sql.NullString
    )
    err := row.Scan(&id, &it.Item, &resourceType, &description, &status, &serviceNotes, &it.CreatedAt, &it.UpdatedAt)
    if err != nil {
        return model.SchedulerItem{}, err
    }
    if it.ID, err = uuid.Parse(id); err != nil {
        return model.SchedulerItem{}, err
    }
    it.ResourceType = model.ResourceType(resourceType)
    it.ServiceStatus = model.ServiceStatus(status)
    it.Description = stringPtr(description)
    it.ServiceNotes = stringPtr(serviceNotes)
    return it, nil
}
