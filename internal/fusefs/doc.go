// Package fusefs exposes a Digiposte account as a read-only FUSE filesystem.
//
// Folders map to directories (mode 0550) and documents to regular files
// (mode 0440). A document is downloaded into the cache directory the first
// time it is opened; reads are then served from that copy. Every mutating
// call fails with EROFS. The cache directory is locked for the lifetime of
// the mount and purged on unmount unless mount.keep_cache is set.
package fusefs
