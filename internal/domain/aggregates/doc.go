// Package aggregates defines domain-facing aggregate contracts and the error taxonomy
// shared by every layer.
//
// Contracts avoid persistence and transport details; they describe write boundaries
// where invariants must hold atomically.
package aggregates
