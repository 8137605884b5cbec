package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/velardez/venue-pos/internal/model"
)

// ComandaRepo provides CRUD operations for station slips and their
// items. Slips are ordered oldest first when listed so the station
// display works through them in FIFO order.
type ComandaRepo struct {
    db *sql.DB
}

// NewComandaRepo returns a new ComandaRepo bound to the given database.
func NewComandaRepo(db *sql.DB) *ComandaRepo { return &ComandaRepo{db: db} }

// Create inserts a comanda with its items in one transaction and
// populates the generated IDs.
func (r *ComandaRepo) Create(ctx context.Context, c *model.Comanda) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const q = `INSERT INTO comandas (order_id, station, status) VALUES (?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, c.OrderID, c.Station, c.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)
    if len(c.Items) > 0 {
        query := `INSERT INTO comanda_items (comanda_id, product_id, qty, note) VALUES `
        args := make([]interface{}, 0, len(c.Items)*4)
        for i := range c.Items {
            if i > 0 {
                query += ","
            }
            query += "(?, ?, ?, ?)"
            it := &c.Items[i]
            it.ComandaID = c.ID
            var note interface{}
            if it.Note != nil {
                note = *it.Note
            }
            args = append(args, it.ComandaID, it.ProductID, it.Qty, note)
        }
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            return err
        }
    }
    const sel = `SELECT created_at, updated_at FROM comandas WHERE id = ?`
    if err := tx.QueryRowContext(ctx, sel, c.ID).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// List returns comandas matching the optional station and status
// filters, oldest first, with items populated.
func (r *ComandaRepo) List(ctx context.Context, station, status string) ([]model.Comanda, error) {
    q := `SELECT id, order_id, station, status, created_at, updated_at FROM comandas WHERE 1=1`
    args := []interface{}{}
    if station != "" {
        q += ` AND station = ?`
        args = append(args, station)
    }
    if status != "" {
        q += ` AND status = ?`
        args = append(args, status)
    }
    q += ` ORDER BY created_at ASC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Comanda, 0)
    ids := make([]uint64, 0)
    for rows.Next() {
        var c model.Comanda
        if err := rows.Scan(&c.ID, &c.OrderID, &c.Station, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, c)
        ids = append(ids, c.ID)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(out) == 0 {
        return out, nil
    }
    placeholders := make([]string, 0, len(ids))
    iargs := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        placeholders = append(placeholders, "?")
        iargs = append(iargs, id)
    }
    iq := `SELECT id, comanda_id, product_id, qty, note FROM comanda_items
           WHERE comanda_id IN (` + strings.Join(placeholders, ",") + `) ORDER BY comanda_id, id`
    irows, err := r.db.QueryContext(ctx, iq, iargs...)
    if err != nil {
        return nil, err
    }
    defer irows.Close()
    index := make(map[uint64]int, len(out))
    for i, c := range out {
        index[c.ID] = i
    }
    for irows.Next() {
        var it model.ComandaItem
        var note sql.NullString
        if err := irows.Scan(&it.ID, &it.ComandaID, &it.ProductID, &it.Qty, &note); err != nil {
            return nil, err
        }
        if note.Valid {
            v := note.String
            it.Note = &v
        }
        if i, ok := index[it.ComandaID]; ok {
            out[i].Items = append(out[i].Items, it)
        }
    }
    if err := irows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// UpdateStatus moves a comanda from an expected status to the next
// one. Returns false when the slip is missing or not in the expected
// state, so a stale station display loses the race cleanly.
func (r *ComandaRepo) UpdateStatus(ctx context.Context, id uint64, from, to string) (bool, error) {
    const q = `UPDATE comandas SET status = ? WHERE id = ? AND status = ?`
    res, err := r.db.ExecContext(ctx, q, to, id, from)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}
