// Package ir provides the constrained value model shared by report data,
// stored runs and trace digests.
//
// Every package that needs to compare, persist or hash row data imports ir;
// ir imports nothing internal.
//
// Constraints:
//   - No float types: numbers are int64, decimals travel as strings
//   - Canonical JSON (RFC 8785, NFC-normalized strings) is the only
//     serialization used for identity and equality of values
//   - Digests are SHA-256 with a versioned domain prefix
package ir
