// Package preflight provides readiness checks for the FUSE mount and the
// Digiposte API.
//
// `digiposte mount --check` renders RunMount's results as a table without
// mounting; `digiposte mount` runs the same checks first and refuses to
// mount when one fails. Each check returns a Result instead of an error so
// every problem is reported in a single pass.
package preflight
