package repository

import (
    "context"
    "database/sql"
    "time"
)

// StockRepo provides read access and administrative adjustments for
// inventory records. Payment-time decrements do not go through this
// repository; they run inside the fulfilment unit of work via
// Tx.DecrementStock so they share the payment's transaction.
type StockRepo struct {
    db *sql.DB
}

// NewStockRepo returns a new StockRepo bound to the given database.
func NewStockRepo(db *sql.DB) *StockRepo { return &StockRepo{db: db} }

// StockLine joins a stock record with its product's display fields for
// the inventory screen.
type StockLine struct {
    ProductID   uint64    `json:"product_id"`
    ProductName string    `json:"product_name"`
    Category    string    `json:"category"`
    Quantity    uint32    `json:"quantity"`
    Location    *string   `json:"location,omitempty"`
    UpdatedAt   time.Time `json:"updated_at"`
}

// List returns all stock records with product names, ordered by
// category then product name.
func (r *StockRepo) List(ctx context.Context) ([]StockLine, error) {
    const q = `SELECT s.product_id, p.name, p.category, s.quantity, s.location, s.updated_at
               FROM stock s
               JOIN products p ON p.id = s.product_id
               ORDER BY p.category, p.name`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]StockLine, 0)
    for rows.Next() {
        var l StockLine
        var loc sql.NullString
        if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Category, &l.Quantity, &loc, &l.UpdatedAt); err != nil {
            return nil, err
        }
        if loc.Valid {
            v := loc.String
            l.Location = &v
        }
        out = append(out, l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Adjust applies a signed delta to a product's stock, creating the
// record when it does not exist yet. A negative delta that would take
// the quantity below zero affects no rows and returns
// ErrInsufficientStock, keeping the non-negative invariant intact even
// for manual corrections. Returns the resulting quantity.
func (r *StockRepo) Adjust(ctx context.Context, productID uint64, delta int32, location string) (uint32, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    var loc interface{}
    if location != "" {
        loc = location
    }
    if delta >= 0 {
        const q = `INSERT INTO stock (product_id, quantity, location)
                   VALUES (?, ?, ?)
                   ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity),
                                           location = COALESCE(VALUES(location), location)`
        if _, err := tx.ExecContext(ctx, q, productID, uint32(delta), loc); err != nil {
            return 0, err
        }
    } else {
        need := uint32(-delta)
        const q = `UPDATE stock SET quantity = quantity - ?
                   WHERE product_id = ? AND quantity >= ?`
        res, err := tx.ExecContext(ctx, q, need, productID, need)
        if err != nil {
            return 0, err
        }
        n, err := res.RowsAffected()
        if err != nil {
            return 0, err
        }
        if n == 0 {
            return 0, ErrInsufficientStock
        }
    }
    var qty uint32
    if err := tx.QueryRowContext(ctx, `SELECT quantity FROM stock WHERE product_id = ?`, productID).Scan(&qty); err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return qty, nil
}
