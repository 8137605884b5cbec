// Package queue defines message payloads exchanged over the message
// broker, plus the publisher and the background consumer that turns
// them into the activity log.
package queue

// OrderPaidEvent is published when an order's mock payment commits.
// It carries enough for downstream consumers to log, notify a station
// display, or feed analytics without querying the primary database.
type OrderPaidEvent struct {
    EventID    string  `json:"event_id"`
    OrderID    uint64  `json:"order_id"`
    UserID     uint64  `json:"user_id"`
    Type       string  `json:"type"`
    TableID    *uint64 `json:"table_id,omitempty"`
    TotalCents uint32  `json:"total_cents"`
    QRID       uint64  `json:"qr_id"`
    PaidAt     string  `json:"paid_at"`
}

// TicketPaidEvent is published when a ticket's mock payment commits.
type TicketPaidEvent struct {
    EventID    string `json:"event_id"`
    TicketID   uint64 `json:"ticket_id"`
    UserID     uint64 `json:"user_id"`
    PriceCents uint32 `json:"price_cents"`
    QRID       uint64 `json:"qr_id"`
    PaidAt     string `json:"paid_at"`
}

// QRRedeemedEvent is published when a code is consumed at the door or
// bar.
type QRRedeemedEvent struct {
    EventID    string `json:"event_id"`
    Kind       string `json:"kind"`
    RefID      uint64 `json:"ref_id"`
    RedeemedBy uint64 `json:"redeemed_by"`
    RedeemedAt string `json:"redeemed_at"`
}
