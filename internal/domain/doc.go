// Package domain contains the core domain entities and value objects for syncfiles.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (SSH, SQL, file system, logging) and
// contains only the send-state model and its error taxonomy.
//
// # Entities
//
//   - [LedgerEntry]: durable per-file send state (pending, sent, confirmed)
//   - [Batch]: the identifier and filename produced by an export
//   - [BatchResult]: the aggregate returned to the caller of every action
//   - [Transfer]: the outcome of copying one file over a channel
//
// # Errors
//
// Every failure category is a distinct type (see errors.go) so callers can
// branch with errors.As instead of matching messages.
package domain
