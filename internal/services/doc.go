// Package services defines shared utilities consumed by the Digiposte API
// client and the layers built on it.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and action names
//     for logging.
//   - Structured error markers plus the Wrap helper, so callers can tell a
//     transport failure from a rejected request with errors.Is.
//   - Hint, which turns a tagged error into the operator hint logged next
//     to warnings.
package services
