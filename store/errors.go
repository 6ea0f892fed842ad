package store

import "github.com/cockroachdb/errors"

var (
	ErrNotFound    = errors.New("store: key not found")
	ErrStoreClosed = errors.New("store: closed")
)
