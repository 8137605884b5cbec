package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/velardez/venue-pos/internal/model"
)

// Tx is the unit of work handed to the payment and redemption flows.
// Every method runs against the same underlying transaction, so a set
// of calls against one Tx either all commit or all roll back. The
// MySQL implementation lives below; tests substitute an in-memory one.
//
// Order and ticket loads take row locks (SELECT ... FOR UPDATE) so
// concurrent payments against the same record serialize on the
// database rather than on application locks.
type Tx interface {
    // OrderForUpdate loads an order with its line items and locks the
    // row for the remainder of the transaction. Returns sql.ErrNoRows
    // when the order does not exist.
    OrderForUpdate(ctx context.Context, id uint64) (*model.Order, error)
    // SetOrderStatus updates the order's lifecycle status.
    SetOrderStatus(ctx context.Context, id uint64, status string) error
    // AttachOrderQR stores the issued code's ID on the order.
    AttachOrderQR(ctx context.Context, orderID, qrID uint64) error

    // TicketForUpdate loads and locks a ticket. Returns sql.ErrNoRows
    // when the ticket does not exist.
    TicketForUpdate(ctx context.Context, id uint64) (*model.Ticket, error)
    // SetTicketStatus updates the ticket's lifecycle status.
    SetTicketStatus(ctx context.Context, id uint64, status string) error
    // AttachTicketQR stores the issued code's ID on the ticket.
    AttachTicketQR(ctx context.Context, ticketID, qrID uint64) error

    // DecrementStock subtracts qty from the product's on-hand count.
    // When the record is missing or would go negative it returns
    // ErrInsufficientStock and mutates nothing.
    DecrementStock(ctx context.Context, productID uint64, qty uint32) error

    // InsertQR persists a freshly issued code and populates its ID.
    // Returns ErrDuplicateCode on a unique-index collision.
    InsertQR(ctx context.Context, qr *model.QR) error

    // RedeemQR atomically flips a matching active, unexpired code to
    // redeemed and returns the updated row. Exactly one concurrent
    // caller can succeed for a given code; everyone else gets
    // ErrNoActiveQR.
    RedeemQR(ctx context.Context, code, signature string, redeemedBy uint64, now time.Time) (*model.QR, error)
}

// Store opens atomic units of work. WithinTx begins a transaction,
// invokes fn with a Tx bound to it, and commits when fn returns nil.
// Any error from fn (or from commit) rolls the whole unit back, so no
// partial state is ever observable outside the transaction.
type Store interface {
    WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// SQLStore implements Store on top of a MySQL database.
type SQLStore struct {
    db *sql.DB
}

// NewSQLStore returns a SQLStore bound to the given database.
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// DB exposes the underlying handle for callers that need to compose
// their own transactions with repository Tx methods.
func (s *SQLStore) DB() *sql.DB { return s.db }

// WithinTx runs fn inside a database transaction. The rollback is
// deferred and skipped only after a successful commit, mirroring how
// handlers elsewhere in this codebase manage their transactions.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&sqlTx{tx: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// sqlTx adapts a *sql.Tx to the Tx interface.
type sqlTx struct {
    tx *sql.Tx
}

func (t *sqlTx) OrderForUpdate(ctx context.Context, id uint64) (*model.Order, error) {
    const q = `SELECT id, user_id, type, table_id, status, total_cents, qr_id, created_at, updated_at
               FROM orders WHERE id = ? FOR UPDATE`
    var o model.Order
    var tableID sql.NullInt64
    var qrID sql.NullInt64
    err := t.tx.QueryRowContext(ctx, q, id).Scan(
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
    const itemQ = `SELECT id, order_id, product_id, qty, unit_price_cents, note
                   FROM order_items WHERE order_id = ? ORDER BY id`
    rows, err := t.tx.QueryContext(ctx, itemQ, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var it model.OrderItem
        var note sql.NullString
        if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.UnitPriceCents, &note); err != nil {
            return nil, err
        }
        if note.Valid {
            n := note.String
            it.Note = &n
        }
        o.Items = append(o.Items, it)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return &o, nil
}

func (t *sqlTx) SetOrderStatus(ctx context.Context, id uint64, status string) error {
    res, err := t.tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

func (t *sqlTx) AttachOrderQR(ctx context.Context, orderID, qrID uint64) error {
    _, err := t.tx.ExecContext(ctx, `UPDATE orders SET qr_id = ? WHERE id = ?`, qrID, orderID)
    return err
}

func (t *sqlTx) TicketForUpdate(ctx context.Context, id uint64) (*model.Ticket, error) {
    const q = `SELECT id, user_id, event_date, price_cents, status, qr_id, created_at, updated_at
               FROM tickets WHERE id = ? FOR UPDATE`
    var tk model.Ticket
    var qrID sql.NullInt64
    err := t.tx.QueryRowContext(ctx, q, id).Scan(
        &tk.ID, &tk.UserID, &tk.EventDate, &tk.PriceCents, &tk.Status, &qrID,
        &tk.CreatedAt, &tk.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if qrID.Valid {
        v := uint64(qrID.Int64)
        tk.QRID = &v
    }
    return &tk, nil
}

func (t *sqlTx) SetTicketStatus(ctx context.Context, id uint64, status string) error {
    res, err := t.tx.ExecContext(ctx, `UPDATE tickets SET status = ? WHERE id = ?`, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

func (t *sqlTx) AttachTicketQR(ctx context.Context, ticketID, qrID uint64) error {
    _, err := t.tx.ExecContext(ctx, `UPDATE tickets SET qr_id = ? WHERE id = ?`, qrID, ticketID)
    return err
}

// DecrementStock relies on a single conditional UPDATE: the guard
// `quantity >= ?` makes the read-check-write atomic on the server, so
// two transactions racing on the last units serialize and the loser
// affects zero rows.
func (t *sqlTx) DecrementStock(ctx context.Context, productID uint64, qty uint32) error {
    const q = `UPDATE stock SET quantity = quantity - ?, updated_at = UTC_TIMESTAMP()
               WHERE product_id = ? AND quantity >= ?`
    res, err := t.tx.ExecContext(ctx, q, qty, productID, qty)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrInsufficientStock
    }
    return nil
}

func (t *sqlTx) InsertQR(ctx context.Context, qr *model.QR) error {
    const q = `INSERT INTO qr_codes (kind, ref_id, code, signature, state, created_at, expires_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    var expires interface{}
    if qr.ExpiresAt != nil {
        expires = *qr.ExpiresAt
    }
    res, err := t.tx.ExecContext(ctx, q, qr.Kind, qr.RefID, qr.Code, qr.Signature, qr.State, qr.CreatedAt, expires)
    if err != nil {
        // MySQL reports unique-index violations as error 1062.
        if strings.Contains(err.Error(), "1062") {
            return ErrDuplicateCode
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    qr.ID = uint64(id)
    return nil
}

// RedeemQR is the single match-and-flip statement at the heart of the
// redemption flow. The WHERE clause carries every precondition (code,
// signature, active state, unexpired), so under concurrent attempts
// with the same code the database lets exactly one UPDATE through.
func (t *sqlTx) RedeemQR(ctx context.Context, code, signature string, redeemedBy uint64, now time.Time) (*model.QR, error) {
    const q = `UPDATE qr_codes
               SET state = ?, redeemed_at = ?, redeemed_by = ?
               WHERE code = ? AND signature = ? AND state = ?
                 AND (expires_at IS NULL OR expires_at > ?)`
    res, err := t.tx.ExecContext(ctx, q, model.QRRedeemed, now, redeemedBy, code, signature, model.QRActive, now)
    if err != nil {
        return nil, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return nil, err
    }
    if n == 0 {
        return nil, ErrNoActiveQR
    }
    const sel = `SELECT id, kind, ref_id, code, signature, state, created_at, expires_at, redeemed_at, redeemed_by
                 FROM qr_codes WHERE code = ?`
    var qr model.QR
    var expiresAt, redeemedAt sql.NullTime
    var redeemedByCol sql.NullInt64
    if err := t.tx.QueryRowContext(ctx, sel, code).Scan(
        &qr.ID, &qr.Kind, &qr.RefID, &qr.Code, &qr.Signature, &qr.State,
        &qr.CreatedAt, &expiresAt, &redeemedAt, &redeemedByCol,
    ); err != nil {
        return nil, err
    }
    if expiresAt.Valid {
        v := expiresAt.Time
        qr.ExpiresAt = &v
    }
    if redeemedAt.Valid {
        v := redeemedAt.Time
        qr.RedeemedAt = &v
    }
    if redeemedByCol.Valid {
        v := uint64(redeemedByCol.Int64)
        qr.RedeemedBy = &v
    }
    return &qr, nil
}
