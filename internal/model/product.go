package model

import "time"

// Product categories sold by the venue.  Tickets are modelled as a
// product category so the catalog can price door entry alongside
// drinks and food.
const (
    CategoryDrink  = "drink"
    CategoryFood   = "food"
    CategoryTicket = "ticket"
)

// Product represents an item that can appear on an order line.  Each
// field corresponds to a column in the `products` table.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name of the product.
//  Category   – one of drink, food or ticket.
//  PriceCents – unit price in cents; totals are computed from this at
//               order creation and never recomputed later.
//  Active     – whether the product is currently sellable.
//  SKU        – optional stock keeping unit code.
//  ImageURL   – optional image shown in the client catalog.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Product struct {
    ID         uint64    `json:"id"`           // products.id
    Name       string    `json:"name"`         // products.name
    Category   string    `json:"category"`     // products.category
    PriceCents uint32    `json:"price_cents"`  // products.price_cents
    Active     bool      `json:"active"`       // products.active
    SKU        *string   `json:"sku,omitempty"`       // products.sku (nullable)
    ImageURL   *string   `json:"image_url,omitempty"` // products.image_url (nullable)
    CreatedAt  time.Time `json:"created_at"`   // products.created_at
    UpdatedAt  time.Time `json:"updated_at"`   // products.updated_at
}
