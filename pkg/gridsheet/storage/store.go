// Package storage persists whole spreadsheet snapshots in a blob store.
//
// A BlobStore is a flat key/value object store; the Repository lays
// spreadsheets out as {container}/users/{user}/sheets/{id}.json on top of it
// and classifies failures as not-found, storage or serialization errors.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrObjectNotFound is returned by a BlobStore when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Repository-level error kinds. Every error returned by Repository wraps
// exactly one of these.
var (
	// ErrNotFound indicates the requested spreadsheet does not exist.
	ErrNotFound = errors.New("spreadsheet not found")
	// ErrStorage indicates the backing store was unreachable, denied the
	// request or timed out.
	ErrStorage = errors.New("storage failure")
	// ErrSerialization indicates a stored snapshot could not be encoded or decoded.
	ErrSerialization = errors.New("serialization failure")
)

// BlobStore is the object store contract the repository needs.
// Keys are slash-separated paths.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Delete removes key. Deleting a missing key returns ErrObjectNotFound.
	Delete(ctx context.Context, key string) error
	// List returns every key that starts with prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// validKey rejects keys that are empty or contain relative path segments.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
