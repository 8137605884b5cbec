package repository

import (
    "context"
    "database/sql"

    "github.com/velardez/venue-pos/internal/model"
)

// TableRepo provides CRUD operations for venue tables.
type TableRepo struct {
    db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// List returns all tables ordered by name.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
    const q = `SELECT id, name, capacity, active, created_at, updated_at
               FROM venue_tables ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Table, 0)
    for rows.Next() {
        var t model.Table
        if err := rows.Scan(&t.ID, &t.Name, &t.Capacity, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Create inserts a new table and populates the generated ID.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
    const q = `INSERT INTO venue_tables (name, capacity, active) VALUES (?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, t.Name, t.Capacity, t.Active)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

// Update overwrites a table's mutable columns. Returns sql.ErrNoRows
// when the ID matches no row.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
    const q = `UPDATE venue_tables SET name = ?, capacity = ?, active = ? WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, t.Name, t.Capacity, t.Active, t.ID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists bool
        if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM venue_tables WHERE id = ?`, t.ID).Scan(&exists); err != nil {
            return err
        }
    }
    return nil
}
