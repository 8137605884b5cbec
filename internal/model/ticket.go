package model

import "time"

// Ticket lifecycle states.  Transitions are monotonic: issued, then
// paid, then redeemed.  Only an issued ticket can be paid and
// only the redemption flow moves a paid ticket to redeemed.
const (
    TicketIssued   = "issued"
    TicketPaid     = "paid"
    TicketRedeemed = "redeemed"
)

// Ticket represents door entry for an event on a given date.  Unlike
// orders, tickets carry a single price and no line items, and paying
// one does not touch inventory.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – staff member (or customer account) the ticket was sold to.
//  EventDate  – date of the event the ticket admits to.
//  PriceCents – ticket price in cents, fixed at creation.
//  Status     – lifecycle state (see constants above).
//  QRID       – redemption code attached when the ticket is paid.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Ticket struct {
    ID         uint64    `json:"id"`          // tickets.id
    UserID     uint64    `json:"user_id"`     // tickets.user_id
    EventDate  time.Time `json:"event_date"`  // tickets.event_date
    PriceCents uint32    `json:"price_cents"` // tickets.price_cents
    Status     string    `json:"status"`      // tickets.status
    QRID       *uint64   `json:"qr_id,omitempty"` // tickets.qr_id (nullable)
    CreatedAt  time.Time `json:"created_at"`  // tickets.created_at
    UpdatedAt  time.Time `json:"updated_at"`  // tickets.updated_at
}
