package model

import "time"

// QR states.  A code starts active and can only ever move to redeemed;
// the transition is never reversed.  Expired is a derived state: a code
// past its expires_at fails redemption without its row being rewritten.
const (
    QRActive   = "active"
    QRRedeemed = "redeemed"
    QRExpired  = "expired"
)

// QR kinds identify what a code redeems.
const (
    QRKindOrder  = "order"
    QRKindTicket = "ticket"
)

// QR is a single-use redemption code bound to an order or a ticket.
// The code is the client-facing secret embedded in the scannable
// image; the signature is a keyed hash of the code that cannot be
// produced without the server secret, so a leaked code alone is not
// redeemable.  The code column carries a unique index.
//
// Fields:
//  ID         – primary key identifier.
//  Kind       – order or ticket.
//  RefID      – ID of the referenced order/ticket.
//  Code       – opaque random code, globally unique.
//  Signature  – hex HMAC-SHA256 of the code under the app secret.
//  State      – active or redeemed.
//  CreatedAt  – issuance timestamp.
//  ExpiresAt  – optional expiry; nil means the code never expires.
//  RedeemedAt – set when the code is consumed.
//  RedeemedBy – staff member who scanned the code.
type QR struct {
    ID         uint64     `json:"id"`         // qr_codes.id
    Kind       string     `json:"kind"`       // qr_codes.kind
    RefID      uint64     `json:"ref_id"`     // qr_codes.ref_id
    Code       string     `json:"code"`       // qr_codes.code
    Signature  string     `json:"signature"`  // qr_codes.signature
    State      string     `json:"state"`      // qr_codes.state
    CreatedAt  time.Time  `json:"created_at"` // qr_codes.created_at
    ExpiresAt  *time.Time `json:"expires_at,omitempty"`  // qr_codes.expires_at (nullable)
    RedeemedAt *time.Time `json:"redeemed_at,omitempty"` // qr_codes.redeemed_at (nullable)
    RedeemedBy *uint64    `json:"redeemed_by,omitempty"` // qr_codes.redeemed_by (nullable)
}
