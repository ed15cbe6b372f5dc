// Package aggregates contains infrastructure implementations of domain aggregate contracts.
//
// Implementations compose table-level repos from internal/data/repos and own the
// transaction boundaries for invariant-critical writes.
package aggregates
