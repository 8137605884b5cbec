package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/velardez/venue-pos/internal/model"
)

// OrderRepo provides CRUD operations for orders and their line items.
// An order groups the items sold in one go to a customer; line items
// are stored in the order_items table. Payment-time mutations (status
// flip, QR attachment) happen through the transactional Tx interface
// instead of this repository so they share the payment's unit of work.
type OrderRepo struct {
    db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts an order together with its line items in a single
// transaction and populates the generated IDs. The caller supplies the
// precomputed total; it is never recalculated afterwards.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
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
    const q = `INSERT INTO orders (user_id, type, table_id, status, total_cents)
               VALUES (?, ?, ?, ?, ?)`
    var tableID interface{}
    if o.TableID != nil {
        tableID = *o.TableID
    }
    res, err := tx.ExecContext(ctx, q, o.UserID, o.Type, tableID, o.Status, o.TotalCents)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    o.ID = uint64(id)
    if len(o.Items) > 0 {
        // Bulk insert all line items in one statement.
        query := `INSERT INTO order_items (order_id, product_id, qty, unit_price_cents, note) VALUES `
        args := make([]interface{}, 0, len(o.Items)*5)
        for i := range o.Items {
            if i > 0 {
                query += ","
            }
            query += "(?, ?, ?, ?, ?)"
            it := &o.Items[i]
            it.OrderID = o.ID
            var note interface{}
            if it.Note != nil {
                note = *it.Note
            }
            args = append(args, it.OrderID, it.ProductID, it.Qty, it.UnitPriceCents, note)
        }
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            return err
        }
    }
    // Query back timestamps and defaults.
    const sel = `SELECT created_at, updated_at FROM orders WHERE id = ?`
    if err := tx.QueryRowContext(ctx, sel, o.ID).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// GetByID returns an order with its line items. Returns sql.ErrNoRows
// when the order does not exist.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
    const q = `SELECT id, user_id, type, table_id, status, total_cents, qr_id, created_at, updated_at
               FROM orders WHERE id = ?`
    var o model.Order
    var tableID, qrID sql.NullInt64
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &o.ID, &o.UserID, &o.Type, &tableID, &o.Status, &o.TotalCents, &qrID,
        &o.CreatedAt, &o.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if tableID.Valid {
        v := uint64(tableID.Int64)
        o.TableID = &v
    }
    if qrID.Valid {
        v := uint64(qrID.Int64)
        o.QRID = &v
    }
    items, err := r.itemsFor(ctx, []uint64{o.ID})
    if err != nil {
        return nil, err
    }
    o.Items = items[o.ID]
    return &o, nil
}

// List returns orders matching the optional status, type and table
// filters, newest first, with their line items populated.
func (r *OrderRepo) List(ctx context.Context, status, orderType string, tableID uint64) ([]model.Order, error) {
    q := `SELECT id, user_id, type, table_id, status, total_cents, qr_id, created_at, updated_at
          FROM orders WHERE 1=1`
    args := []interface{}{}
    if status != "" {
        q += ` AND status = ?`
        args = append(args, status)
    }
    if orderType != "" {
        q += ` AND type = ?`
        args = append(args, orderType)
    }
    if tableID != 0 {
        q += ` AND table_id = ?`
        args = append(args, tableID)
    }
    q += ` ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    orders := make([]model.Order, 0)
    ids := make([]uint64, 0)
    for rows.Next() {
        var o model.Order
        var tID, qrID sql.NullInt64
        if err := rows.Scan(&o.ID, &o.UserID, &o.Type, &tID, &o.Status, &o.TotalCents, &qrID, &o.CreatedAt, &o.UpdatedAt); err != nil {
            return nil, err
        }
        if tID.Valid {
            v := uint64(tID.Int64)
            o.TableID = &v
        }
        if qrID.Valid {
            v := uint64(qrID.Int64)
            o.QRID = &v
        }
        orders = append(orders, o)
        ids = append(ids, o.ID)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(orders) == 0 {
        return orders, nil
    }
    items, err := r.itemsFor(ctx, ids)
    if err != nil {
        return nil, err
    }
    for i := range orders {
        orders[i].Items = items[orders[i].ID]
    }
    return orders, nil
}

// UpdateStatus moves an order from an expected current status to the
// next one. The current status is part of the WHERE clause so a stale
// client loses the race instead of overwriting a newer state; zero
// affected rows surface as ErrInvalidTransition to the caller via a
// false return.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, from, to string) (bool, error) {
    const q = `UPDATE orders SET status = ? WHERE id = ? AND status = ?`
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

// itemsFor loads the line items for a set of orders in one query and
// groups them by order ID.
func (r *OrderRepo) itemsFor(ctx context.Context, ids []uint64) (map[uint64][]model.OrderItem, error) {
    placeholders := make([]string, 0, len(ids))
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    q := `SELECT id, order_id, product_id, qty, unit_price_cents, note
          FROM order_items WHERE order_id IN (` + strings.Join(placeholders, ",") + `) ORDER BY order_id, id`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64][]model.OrderItem)
    for rows.Next() {
        var it model.OrderItem
        var note sql.NullString
        if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.UnitPriceCents, &note); err != nil {
            return nil, err
        }
        if note.Valid {
            v := note.String
            it.Note = &v
        }
        out[it.OrderID] = append(out[it.OrderID], it)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
