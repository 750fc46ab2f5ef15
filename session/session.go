// Package session defines the persistence contract external session
// stores implement: serialize a Memory's snapshot under a session key,
// and load it back. Store implementations live in subpackages
// (filestore always built; redisstore and sqlitestore are
// build-tag-gated on their respective drivers) so a caller only pulls
// in the driver it actually uses.
package session

import (
	"context"
	"encoding/json"

	"github.com/voocel/mas/memory"
	"github.com/voocel/mas/schema"
)

// Store persists and restores a Memory's message history under a
// string key.
type Store interface {
	Save(ctx context.Context, key string, mem memory.Memory) error
	Load(ctx context.Context, key string, mem memory.Memory) error
	Delete(ctx context.Context, key string) error
}

// Encode serializes a memory snapshot to JSON, the wire format every
// Store implementation in this module uses.
func Encode(mem memory.Memory) ([]byte, error) {
	return json.Marshal(mem.Snapshot())
}

// Decode parses JSON produced by Encode and replaces mem's contents
// with it.
func Decode(data []byte, mem memory.Memory) error {
	var msgs []schema.Msg
	if err := json.Unmarshal(data, &msgs); err != nil {
		return err
	}
	mem.ReplaceAll(msgs)
	return nil
}
