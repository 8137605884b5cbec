package model

import "time"

// Table is a physical venue table that restaurant orders can be
// attached to.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – label printed on the table (e.g. "T4", "terrace 2").
//  Capacity  – number of seats.
//  Active    – whether the table is currently in service.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Table struct {
    ID        uint64    `json:"id"`       // venue_tables.id
    Name      string    `json:"name"`     // venue_tables.name
    Capacity  uint32    `json:"capacity"` // venue_tables.capacity
    Active    bool      `json:"active"`   // venue_tables.active
    CreatedAt time.Time `json:"created_at"` // venue_tables.created_at
    UpdatedAt time.Time `json:"updated_at"` // venue_tables.updated_at
}
