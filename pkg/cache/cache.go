package cache

import (
	"context"
	"strings"
)

// HashSnapshot is a hash together with its companion flag key, both read at
// the same point in time.
type HashSnapshot struct {
	Flag    string
	HasFlag bool
	Fields  map[string]string
}

// Reader is the read side used by stats sources. Keys are given without the
// client prefix.
type Reader interface {
	ReadHash(ctx context.Context, hashKey, flagKey string) (HashSnapshot, error)
}

// Key joins key parts with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
