package config

import "errors"

var (
	ErrKeyNotFound  = errors.New("configuration key not found")
	ErrStoreClosed  = errors.New("configuration store is closed")
	ErrReadOnlyKey  = errors.New("configuration key is read-only")
	ErrInvalidValue = errors.New("configuration value cannot be parsed for its type")
)
