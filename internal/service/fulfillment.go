package service

import (
    "context"
    "database/sql"
    "errors"

    "github.com/velardez/venue-pos/internal/model"
    "github.com/velardez/venue-pos/internal/repository"
)

// ErrNotFound is returned when the order or ticket to pay does not
// exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidStatus is returned when the record exists but is not in
// its payable state. Retrying cannot help; the client must re-fetch.
var ErrInvalidStatus = errors.New("invalid status")

// Renderer turns a payload string into a scannable image, returned as
// a PNG data URL. Implemented by the qrimg package; a stub suffices in
// tests.
type Renderer interface {
    RenderScannable(payload string) (string, error)
}

// PayResult is what a successful mock payment returns to the caller:
// the identity of the paid record plus everything the client needs to
// present and later redeem the code.
type PayResult struct {
    Kind        string `json:"kind"`
    RefID       uint64 `json:"ref_id"`
    QRID        uint64 `json:"qr_id"`
    AmountCents uint32 `json:"amount_cents"`
    Code        string `json:"code"`
    Signature   string `json:"signature"`
    PNG         string `json:"png_data_url"`
}

// Fulfillment coordinates the mock payment flow. PayOrder and
// PayTicket each run as one unit of work: precondition check, stock
// decrement (orders only), status flip to paid, code issuance and
// attachment. A failure at any step rolls the whole thing back, so it
// is impossible to end up with stock gone and no code, or a code with
// stock untouched.
type Fulfillment struct {
    store  repository.Store
    issuer *Issuer
    render Renderer
}

// NewFulfillment constructs the payment coordinator. All dependencies
// must be non-nil.
func NewFulfillment(store repository.Store, issuer *Issuer, render Renderer) *Fulfillment {
    if store == nil || issuer == nil || render == nil {
        panic("nil dependency passed to NewFulfillment")
    }
    return &Fulfillment{store: store, issuer: issuer, render: render}
}

// PayOrder performs the mock payment of a pending order. Inside one
// transaction it locks the order, verifies it is still pending,
// decrements stock for every line item, marks it paid, issues the
// redemption code and attaches it. Stock shortfall on any line aborts
// everything, including decrements already applied for earlier lines.
func (f *Fulfillment) PayOrder(ctx context.Context, orderID uint64) (*PayResult, error) {
    var res *PayResult
    err := f.store.WithinTx(ctx, func(tx repository.Tx) error {
        o, err := tx.OrderForUpdate(ctx, orderID)
        if errors.Is(err, sql.ErrNoRows) {
            return ErrNotFound
        }
        if err != nil {
            return err
        }
        if o.Status != model.OrderPending {
            return ErrInvalidStatus
        }
        for _, it := range o.Items {
            if err := tx.DecrementStock(ctx, it.ProductID, it.Qty); err != nil {
                return err
            }
        }
        if err := tx.SetOrderStatus(ctx, o.ID, model.OrderPaid); err != nil {
            return err
        }
        qr, err := f.issuer.Issue(ctx, tx, model.QRKindOrder, o.ID)
        if err != nil {
            return err
        }
        if err := tx.AttachOrderQR(ctx, o.ID, qr.ID); err != nil {
            return err
        }
        png, err := f.render.RenderScannable(Payload(qr))
        if err != nil {
            return err
        }
        res = &PayResult{
            Kind:        model.QRKindOrder,
            RefID:       o.ID,
            QRID:        qr.ID,
            AmountCents: o.TotalCents,
            Code:        qr.Code,
            Signature:   qr.Signature,
            PNG:         png,
        }
        return nil
    })
    if err != nil {
        return nil, err
    }
    return res, nil
}

// PayTicket performs the mock payment of an issued ticket. Tickets
// carry no line items, so the flow is the order flow minus the stock
// decrements.
func (f *Fulfillment) PayTicket(ctx context.Context, ticketID uint64) (*PayResult, error) {
    var res *PayResult
    err := f.store.WithinTx(ctx, func(tx repository.Tx) error {
        t, err := tx.TicketForUpdate(ctx, ticketID)
        if errors.Is(err, sql.ErrNoRows) {
            return ErrNotFound
        }
        if err != nil {
            return err
        }
        if t.Status != model.TicketIssued {
            return ErrInvalidStatus
        }
        if err := tx.SetTicketStatus(ctx, t.ID, model.TicketPaid); err != nil {
            return err
        }
        qr, err := f.issuer.Issue(ctx, tx, model.QRKindTicket, t.ID)
        if err != nil {
            return err
        }
        if err := tx.AttachTicketQR(ctx, t.ID, qr.ID); err != nil {
            return err
        }
        png, err := f.render.RenderScannable(Payload(qr))
        if err != nil {
            return err
        }
        res = &PayResult{
            Kind:        model.QRKindTicket,
            RefID:       t.ID,
            QRID:        qr.ID,
            AmountCents: t.PriceCents,
            Code:        qr.Code,
            Signature:   qr.Signature,
            PNG:         png,
        }
        return nil
    })
    if err != nil {
        return nil, err
    }
    return res, nil
}
