// Package ipc implements the pipe protocol a parent process uses to drive
// the Digiposte client as a subprocess.
//
// Commands are newline-terminated records whose fields are separated by NUL
// bytes; the first field names the action. Every record gets exactly one
// NUL-terminated reply, in arrival order: a JSON body, an object ID, OK, or
// err. The server writes a ready sentinel before reading the first record
// and stops cleanly when the read side is closed.
//
// Client is the parent-side driver used by tests and by tools that embed the
// server over os.Pipe.
package ipc
