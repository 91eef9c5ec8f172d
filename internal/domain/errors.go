package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("document not found")
	ErrInvalidCursor  = errors.New("invalid page cursor")
	ErrLoadInProgress = errors.New("a page load is already in progress")
	ErrNoMorePages    = errors.New("no more pages")
)

// FetchError reports a failed call to the content repository.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := "fetch " + e.Op
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedDocumentError is returned when a document lacks a field the
// renderer needs. The document is unusable; callers skip or surface it.
type MalformedDocumentError struct {
	DocumentID string
	Field      string
	Err        error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed document %q: field %s: %v", e.DocumentID, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed document %q: missing field %s", e.DocumentID, e.Field)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// NotFoundError is returned when no document matches a uid.
type NotFoundError struct {
	UID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("post %q not found", e.UID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
