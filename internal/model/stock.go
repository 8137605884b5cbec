package model

import "time"

// Stock locations.  A venue partitions inventory between the bar, the
// restaurant and the door (tickets); the partition is informational and
// does not affect decrement semantics.
const (
    LocationBar        = "bar"
    LocationRestaurant = "restaurant"
    LocationDoor       = "door"
)

// Stock holds the on-hand quantity for a single product.  The quantity
// column is unsigned in the schema so it can never be observed below
// zero; a decrement that would underflow must abort the enclosing
// transaction instead.
//
// Fields:
//  ID        – primary key identifier.
//  ProductID – product this record counts; unique per product.
//  Quantity  – units on hand, always >= 0.
//  Location  – optional partition (bar, restaurant, door).
//  UpdatedAt – last update timestamp.
type Stock struct {
    ID        uint64    `json:"id"`         // stock.id
    ProductID uint64    `json:"product_id"` // stock.product_id
    Quantity  uint32    `json:"quantity"`   // stock.quantity
    Location  *string   `json:"location,omitempty"` // stock.location (nullable)
    UpdatedAt time.Time `json:"updated_at"` // stock.updated_at
}
