// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios with errors.Is instead of inspecting driver errors. For
// example, ErrInsufficientStock signals that a conditional decrement
// would take a quantity below zero and must abort the enclosing
// transaction, while ErrDuplicateCode surfaces the unique-index
// violation on qr_codes.code so the issuer can regenerate.
package repository

import "errors"

// ErrInsufficientStock is returned by DecrementStock when the product
// has no stock record or fewer units on hand than requested. The
// statement does not mutate anything in that case; the caller must
// abort the surrounding unit of work.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrDuplicateCode is returned by InsertQR when the generated code
// collides with an existing row on the qr_codes.code unique index.
// The issuer retries with a fresh code a bounded number of times.
var ErrDuplicateCode = errors.New("duplicate code")

// ErrNoActiveQR is returned by RedeemQR when no row matched the
// code, signature, active-state and expiry conditions. It deliberately
// does not say which condition failed; the service layer collapses it
// into its single external "invalid or used" signal.
var ErrNoActiveQR = errors.New("no active qr")
