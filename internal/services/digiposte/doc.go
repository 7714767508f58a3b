// Package digiposte is a client for the Digiposte document storage REST API.
//
// A Client holds one bearer-token session. Each method maps to exactly one
// HTTP request: the status code is checked against the single value the
// endpoint returns on success, and the raw body, the created object's ID, or
// nothing is returned. Redirects are not followed. Nothing is retried.
//
// Failures are tagged with the services markers (ErrTransport, ErrTimeout,
// ErrStatus, ErrUnauthorized, ErrDecode, ErrValidation) so callers can
// classify them with errors.Is; unexpected statuses also carry a
// *StatusError.
package digiposte
