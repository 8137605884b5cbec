package service

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/velardez/venue-pos/internal/model"
    "github.com/velardez/venue-pos/internal/repository"
)

// ErrInvalidOrUsed is the single signal returned for every failed
// redemption: unknown code, wrong signature, already redeemed or
// expired. Collapsing the cases keeps a scanner response from telling
// an attacker which half of a guessed credential was right.
var ErrInvalidOrUsed = errors.New("invalid or used")

// Redemption consumes presented codes. The flip from active to
// redeemed is a single conditional update, so for any given code
// exactly one concurrent attempt wins and the rest report
// ErrInvalidOrUsed.
type Redemption struct {
    store  repository.Store
    issuer *Issuer
}

// RedeemResult identifies what a successfully redeemed code was bound
// to, so the scanner UI can show "order 42 served" or "ticket 7
// admitted".
type RedeemResult struct {
    Kind  string `json:"kind"`
    RefID uint64 `json:"ref_id"`
}

// NewRedemption constructs the redemption coordinator.
func NewRedemption(store repository.Store, issuer *Issuer) *Redemption {
    if store == nil || issuer == nil {
        panic("nil dependency passed to NewRedemption")
    }
    return &Redemption{store: store, issuer: issuer}
}

// Redeem validates and consumes a presented code. The signature is
// recomputed and compared in constant time before the database is
// touched; the conditional update then re-checks code, signature,
// state and expiry as one atomic statement.
//
// After the flip commits, the referenced order or ticket is moved to
// its terminal state in a second, best-effort step. If that step
// fails, the code is already consumed and stays consumed: the
// mismatch is logged for manual reconciliation rather than retried or
// rolled back.
func (r *Redemption) Redeem(ctx context.Context, code, signature string, redeemedBy uint64) (*RedeemResult, error) {
    if !r.issuer.Verify(code, signature) {
        return nil, ErrInvalidOrUsed
    }
    var qr *model.QR
    err := r.store.WithinTx(ctx, func(tx repository.Tx) error {
        q, err := tx.RedeemQR(ctx, code, signature, redeemedBy, time.Now().UTC())
        if errors.Is(err, repository.ErrNoActiveQR) {
            return ErrInvalidOrUsed
        }
        if err != nil {
            return err
        }
        qr = q
        return nil
    })
    if err != nil {
        return nil, err
    }
    if err := r.store.WithinTx(ctx, func(tx repository.Tx) error {
        switch qr.Kind {
        case model.QRKindOrder:
            return tx.SetOrderStatus(ctx, qr.RefID, model.OrderServed)
        case model.QRKindTicket:
            return tx.SetTicketStatus(ctx, qr.RefID, model.TicketRedeemed)
        }
        return nil
    }); err != nil {
        log.Printf("redeem: %s %d consumed but status update failed: %v", qr.Kind, qr.RefID, err)
    }
    return &RedeemResult{Kind: qr.Kind, RefID: qr.RefID}, nil
}
