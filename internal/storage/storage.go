// Package storage defines the blob store consumed by the persistence layer
// and provides local-filesystem and in-memory implementations. The dashboard
// core depends only on this interface, not on any specific hosted backend.
package storage

import "errors"

var (
	// ErrNotFound is returned when a blob does not exist at the given path.
	ErrNotFound = errors.New("storage: blob not found")
	// ErrConflict is returned by Put when the expected version token no
	// longer matches the stored blob (a concurrent writer got there first).
	ErrConflict = errors.New("storage: version conflict")
)

// Backend is a key/blob store with optimistic versioning.
//
// Put with an empty version token is an unconditional last-writer-wins write.
// Put with a non-empty token succeeds only if the token still identifies the
// current content, making concurrent edits from two sessions detectable
// rather than silently lost.
type Backend interface {
	// Get returns the blob at path, or ErrNotFound.
	Get(path string) ([]byte, error)
	// GetVersion returns the blob and its current version token.
	GetVersion(path string) ([]byte, string, error)
	// Put writes the blob and returns the new version token.
	Put(path string, data []byte, version string) (string, error)
	// Delete removes the blob, or returns ErrNotFound.
	Delete(path string) error
}
