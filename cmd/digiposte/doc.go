// Package main hosts the digiposte CLI entrypoint and command graph.
//
// Every pipe action is also exposed as a subcommand so the API can be driven
// by hand. The root --server flag (or the serve subcommand) switches to pipe
// mode, where a parent process sends NUL-separated records on one descriptor
// and reads replies on another. The mount subcommand exposes the account as a
// read-only FUSE filesystem.
package main
