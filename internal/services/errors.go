// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/carlane/carlane-backend/internal/utils"
)

// Error kinds for the listing write path. Validation runs before any I/O, so
// a request that fails validation never creates partial state; once blobs
// have been uploaded, failures trigger compensating deletion of exactly the
// blobs created in that call.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrDuplicate     = errors.New("duplicate resource")
	ErrConflict      = errors.New("operation conflicts with existing state")
	ErrMissingImage  = errors.New("at least one image is required")
	ErrEmptyImageSet = errors.New("image set would be empty")
	// ErrInvalidUpload marks uploads rejected before any blob is written
	// (oversized, wrong extension, bytes that are not an image). These are
	// client errors, not storage outages.
	ErrInvalidUpload = errors.New("invalid upload")
)

// ValidationError carries every offending field, not just the first.
type ValidationError struct {
	Fields []utils.ValidationError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "validation failed: " + strings.Join(names, ", ")
}

// StorageError wraps a blob store failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// RepositoryError wraps a record store failure that is not a not-found or
// duplicate-key condition.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }
