// Package tree keeps the Digiposte folder hierarchy in memory and resolves
// slash-separated paths against it.
//
// Folders come from a single folder tree request. The documents of a folder
// are fetched the first time the folder is listed or searched. Names are
// compared after NFC normalization so paths typed on any platform match the
// names returned by the API.
package tree
