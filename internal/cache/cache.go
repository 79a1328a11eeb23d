// Package cache provides the single-slot local store holding the last fetched
// payload and the time it was fetched.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Keys of the single cache slot.
const (
	KeyData = "data"
	KeyTime = "time"
)

// Store is a persistent key-value store. Get reports found=false for a key
// that was never set.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Backend is a Store that holds resources which must be released.
type Backend interface {
	Store
	io.Closer
}

// Entry is the cached payload together with its fetch time.
type Entry struct {
	Payload []byte

	// FetchedAt is the zero time when the time key is missing or unreadable
	FetchedAt time.Time
}

// ReadEntry loads the cache slot. found is false when no payload is stored.
// A missing or malformed timestamp leaves FetchedAt zero rather than failing.
func ReadEntry(ctx context.Context, s Store) (Entry, bool, error) {
	data, found, err := s.Get(ctx, KeyData)
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read %s: %w", KeyData, err)
	}
	if !found {
		return Entry{}, false, nil
	}

	entry := Entry{Payload: data}

	raw, found, err := s.Get(ctx, KeyTime)
	if err != nil {
		return entry, true, fmt.Errorf("failed to read %s: %w", KeyTime, err)
	}
	if found {
		if ms, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			entry.FetchedAt = time.UnixMilli(ms)
		}
	}

	return entry, true, nil
}

// WriteEntry stores payload and its fetch time. Both writes are attempted even
// when the first fails; there is no transaction linking them.
func WriteEntry(ctx context.Context, s Store, payload []byte, fetchedAt time.Time) error {
	errData := s.Set(ctx, KeyData, payload)
	if errData != nil {
		errData = fmt.Errorf("failed to write %s: %w", KeyData, errData)
	}

	errTime := s.Set(ctx, KeyTime, []byte(strconv.FormatInt(fetchedAt.UnixMilli(), 10)))
	if errTime != nil {
		errTime = fmt.Errorf("failed to write %s: %w", KeyTime, errTime)
	}

	return errors.Join(errData, errTime)
}
