package repository

import (
    "context"
    "database/sql"

    "github.com/velardez/venue-pos/internal/model"
)

// QRRepo provides read access to issued codes for administrative
// screens. Issuance and redemption never go through this repository;
// both are transactional and run through the Tx interface.
type QRRepo struct {
    db *sql.DB
}

// NewQRRepo returns a new QRRepo bound to the given database.
func NewQRRepo(db *sql.DB) *QRRepo { return &QRRepo{db: db} }

// List returns issued codes, optionally filtered by state, newest
// first. The signature column is intentionally not selected: admins
// auditing codes have no reason to see redeemable credentials.
func (r *QRRepo) List(ctx context.Context, state string) ([]model.QR, error) {
    q := `SELECT id, kind, ref_id, code, state, created_at, expires_at, redeemed_at, redeemed_by
          FROM qr_codes`
    args := []interface{}{}
    if state != "" {
        q += ` WHERE state = ?`
        args = append(args, state)
    }
    q += ` ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.QR, 0)
    for rows.Next() {
        var qr model.QR
        var expiresAt, redeemedAt sql.NullTime
        var redeemedBy sql.NullInt64
        if err := rows.Scan(&qr.ID, &qr.Kind, &qr.RefID, &qr.Code, &qr.State, &qr.CreatedAt, &expiresAt, &redeemedAt, &redeemedBy); err != nil {
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
        if redeemedBy.Valid {
            v := uint64(redeemedBy.Int64)
            qr.RedeemedBy = &v
        }
        out = append(out, qr)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
