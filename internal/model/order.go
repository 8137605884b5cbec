package model

import "time"

// Order lifecycle states.  Transitions are monotonic: pending, then
// paid, then ready, then served, with cancelled reachable only from
// pending.  Only a pending order can be paid.
const (
    OrderPending   = "pending"
    OrderPaid      = "paid"
    OrderReady     = "ready"
    OrderServed    = "served"
    OrderCancelled = "cancelled"
)

// Order types distinguish where the sale happened; bar orders are
// typically paid immediately while restaurant orders are table-side.
const (
    OrderTypeBar        = "bar"
    OrderTypeRestaurant = "restaurant"
)

// Order groups one or more line items sold to a customer.  The total
// is computed once at creation from the line items and is never
// recomputed afterwards.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – staff member who created the order.
//  Type       – bar or restaurant.
//  TableID    – optional venue table the order belongs to.
//  Status     – lifecycle state (see constants above).
//  TotalCents – total price in cents for all items.
//  QRID       – redemption code attached when the order is paid.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Order struct {
    ID         uint64      `json:"id"`          // orders.id
    UserID     uint64      `json:"user_id"`     // orders.user_id
    Type       string      `json:"type"`        // orders.type
    TableID    *uint64     `json:"table_id,omitempty"` // orders.table_id (nullable)
    Status     string      `json:"status"`      // orders.status
    TotalCents uint32      `json:"total_cents"` // orders.total_cents
    QRID       *uint64     `json:"qr_id,omitempty"` // orders.qr_id (nullable)
    Items      []OrderItem `json:"items"`       // rows of order_items
    CreatedAt  time.Time   `json:"created_at"`  // orders.created_at
    UpdatedAt  time.Time   `json:"updated_at"`  // orders.updated_at
}

// OrderItem is a single line of an order.  The unit price is captured
// at creation so later catalog changes do not alter the order.
//
// Fields:
//  ID             – primary key identifier.
//  OrderID        – owning order.
//  ProductID      – product being sold.
//  Qty            – units sold, always positive.
//  UnitPriceCents – price per unit in cents at time of sale.
//  Note           – optional free-form note for the kitchen/bar.
type OrderItem struct {
    ID             uint64  `json:"id"`               // order_items.id
    OrderID        uint64  `json:"order_id"`         // order_items.order_id
    ProductID      uint64  `json:"product_id"`       // order_items.product_id
    Qty            uint32  `json:"qty"`              // order_items.qty
    UnitPriceCents uint32  `json:"unit_price_cents"` // order_items.unit_price_cents
    Note           *string `json:"note,omitempty"`   // order_items.note (nullable)
}
