// Package core defines the shared language of the storagy system.
//
// This package contains:
//   - The row shape every adapter normalizes its source into (Row, Record)
//   - The connection lifecycle state machine (Conn)
//   - The error taxonomy shared by all adapters
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
