// Package fs provides the filesystem abstraction for testability and fault
// injection.
//
// The package defines two key interfaces:
//
//   - [File]: Represents an open file with read/write/sync capabilities
//   - [FileSystem]: Abstracts filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using the standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// Production code should use fs.Default (which is [LocalFS]). Tests inject
// [FaultyFS] to simulate a full disk, a failed fsync, or an interruption
// between the temp-file write and the rename that commits it.
package fs
