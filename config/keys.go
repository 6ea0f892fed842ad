package config

import (
	"context"
	"strconv"
)

// Well-known configuration keys the engine reads.
const (
	KeyHeartbeatInterval               = "HeartbeatInterval"
	KeyTransactionMessageRetryInterval = "TransactionMessageRetryInterval"
	KeyTransactionMessageAttempts      = "TransactionMessageAttempts"
)

// Default values seeded by NewMemoryStore, matching the values a
// freshly booted charge point reports in its own GetConfiguration
// response before the Central System overrides anything.
const (
	DefaultHeartbeatInterval               = 14400 // seconds (4h)
	DefaultTransactionMessageRetryInterval = 60     // seconds
	DefaultTransactionMessageAttempts      = 3
)

// GetInt reads key and parses it as an integer, returning def if the
// key is unset or unparseable.
func GetInt(ctx context.Context, s Store, key string, def int) int {
	entry, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def
	}
	v, err := strconv.Atoi(entry.Value)
	if err != nil {
		return def
	}
	return v
}

// SetInt writes an integer-valued configuration key.
func SetInt(ctx context.Context, s Store, key string, value int) error {
	return s.Set(ctx, key, strconv.Itoa(value))
}
