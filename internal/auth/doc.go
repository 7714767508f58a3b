// Package auth obtains the Digiposte bearer token.
//
// Resolve walks the token sources in priority order: the --token flag, the
// configured token (DIGIPOSTE_TOKEN overrides api.token), the state saved by
// an earlier login, and finally an interactive browser login. The login opens
// auth.login_url and polls a drop file until the session token is written
// into it.
package auth
