// Package models defines the core domain models for honeyfile.
//
// # Ledger Models
//
// The point ledger is made of:
//   - Account: a user's ledger identity holding a point balance
//   - Transaction: one append-only earn/spend row in the ledger
//   - FileRecord: an uploaded file with its price and download counter
//   - Entitlement: proof that an account already paid for a file
//
// # Invariants
//
//  1. An account's balance always equals the sum of its earn transactions
//     minus the sum of its spend transactions.
//  2. A balance never goes below zero.
//  3. At most one entitlement exists per (account, file) pair.
//
// Relationships use ID strings rather than pointers, and timestamps are
// Unix seconds.
package models
