package repository

import (
    "context"
    "database/sql"

    "github.com/velardez/venue-pos/internal/model"
)

// TicketRepo provides CRUD operations for event tickets. Payment and
// redemption mutations run through the transactional Tx interface; this
// repository covers creation and listing only.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// Create inserts a ticket in the issued state and populates the
// generated ID and timestamps.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
    const q = `INSERT INTO tickets (user_id, event_date, price_cents, status) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, t.UserID, t.EventDate, t.PriceCents, t.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    const sel = `SELECT created_at, updated_at FROM tickets WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, t.ID).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// ListByUser returns all tickets sold to the given user, newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
    const q = `SELECT id, user_id, event_date, price_cents, status, qr_id, created_at, updated_at
               FROM tickets WHERE user_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Ticket, 0)
    for rows.Next() {
        var t model.Ticket
        var qrID sql.NullInt64
        if err := rows.Scan(&t.ID, &t.UserID, &t.EventDate, &t.PriceCents, &t.Status, &qrID, &t.CreatedAt, &t.UpdatedAt); err != nil {
            return nil, err
        }
        if qrID.Valid {
            v := uint64(qrID.Int64)
            t.QRID = &v
        }
        out = append(out, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
