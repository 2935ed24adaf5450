// Package memorystore is the file-less credential store used when no
// snapshot file is configured. Records live only as long as the process.
package memorystore

import (
	"context"

	"github.com/patric-chuzhbe/sessiond/internal/userstore/jsonfile"
)

// MemoryStore reuses the jsonfile table without a backing file.
type MemoryStore struct {
	*jsonfile.JSONFile
}

// New creates an empty in-memory store.
func New(optionsProto ...jsonfile.Option) (*MemoryStore, error) {
	return &MemoryStore{
		JSONFile: jsonfile.NewInMemory(optionsProto...),
	}, nil
}

// Close is a no-op, there is nothing to persist.
func (theStorage *MemoryStore) Close() error {
	return nil
}

// Ping reports storage health.
func (theStorage *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
