package model

import "time"

// Comanda stations and lifecycle states.  A comanda is the slip cut
// from a paid order and routed to the bar or kitchen for preparation.
const (
    StationBar     = "bar"
    StationKitchen = "kitchen"

    ComandaQueued     = "queued"
    ComandaInProgress = "in_progress"
    ComandaServed     = "served"
    ComandaCancelled  = "cancelled"
)

// Comanda is a fulfilment slip for one station.  It references the
// order it was cut from and carries its own copy of the relevant line
// items so the station display does not depend on the order record.
//
// Fields:
//  ID        – primary key identifier.
//  OrderID   – order this slip was cut from.
//  Station   – bar or kitchen.
//  Status    – queued, in_progress, served or cancelled.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Comanda struct {
    ID        uint64        `json:"id"`       // comandas.id
    OrderID   uint64        `json:"order_id"` // comandas.order_id
    Station   string        `json:"station"`  // comandas.station
    Status    string        `json:"status"`   // comandas.status
    Items     []ComandaItem `json:"items"`    // rows of comanda_items
    CreatedAt time.Time     `json:"created_at"` // comandas.created_at
    UpdatedAt time.Time     `json:"updated_at"` // comandas.updated_at
}

// ComandaItem is one line on a station slip.
//
// Fields:
//  ID        – primary key identifier.
//  ComandaID – owning comanda.
//  ProductID – product to prepare.
//  Qty       – units to prepare.
//  Note      – optional preparation note ("no ice", "well done").
type ComandaItem struct {
    ID        uint64  `json:"id"`         // comanda_items.id
    ComandaID uint64  `json:"comanda_id"` // comanda_items.comanda_id
    ProductID uint64  `json:"product_id"` // comanda_items.product_id
    Qty       uint32  `json:"qty"`        // comanda_items.qty
    Note      *string `json:"note,omitempty"` // comanda_items.note (nullable)
}
