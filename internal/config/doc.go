// Package config loads, normalizes, and validates the Digiposte client
// configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DIGIPOSTE_TOKEN and DIGIPOSTE_CONFIG. The Config type centralizes every
// knob the CLI, the pipe server and the FUSE mount need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
