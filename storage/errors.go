package storage

import "errors"

var (
	// ErrPathPermission indicates the storage root or a subdirectory
	// could not be created or written to due to filesystem permissions.
	ErrPathPermission = errors.New("storage path permission denied")

	// ErrDiskFull indicates a write failed because the underlying
	// filesystem ran out of space.
	ErrDiskFull = errors.New("storage disk full")

	// ErrChecksum indicates a stored file's contents did not match the
	// dataset that was supposed to have been written, detected by a
	// post-write validation re-parse.
	ErrChecksum = errors.New("stored file failed integrity check")

	// ErrNotFound indicates no file exists at the computed path for a
	// requested instance.
	ErrNotFound = errors.New("stored instance not found")
)
