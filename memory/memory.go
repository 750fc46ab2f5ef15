// Package memory implements the ordered working-conversation buffer
// described in spec §4.1: append, snapshot, replace, and clear, with a
// single logical writer per agent call.
package memory

import (
	"sync"

	"github.com/voocel/mas/schema"
)

// Memory is the ordered sequence of Msg an agent call reads and writes.
// It does not deduplicate or reorder; size-bounding is the caller's
// responsibility (e.g. an external context-compression collaborator).
type Memory interface {
	// Append adds a single message, visible to any subsequent Snapshot.
	Append(msg schema.Msg)
	// AppendAll adds messages in order.
	AppendAll(msgs []schema.Msg)
	// Snapshot returns an immutable ordered copy; later Appends are not
	// visible through a previously taken snapshot.
	Snapshot() []schema.Msg
	// ReplaceAll atomically replaces the entire buffer.
	ReplaceAll(msgs []schema.Msg)
	// Clear removes all messages.
	Clear()
	// Size returns the current message count.
	Size() int
}

// Buffer is the default in-process Memory implementation: an unbounded,
// mutex-guarded slice. No eviction is performed here by design — a
// bounded or compacting Memory is an external collaborator's concern.
type Buffer struct {
	mu       sync.RWMutex
	messages []schema.Msg
}

// New constructs an empty Buffer, optionally seeded with an initial history.
func New(seed ...schema.Msg) *Buffer {
	b := &Buffer{}
	if len(seed) > 0 {
		b.messages = append(b.messages, seed...)
	}
	return b
}

func (b *Buffer) Append(msg schema.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *Buffer) AppendAll(msgs []schema.Msg) {
	if len(msgs) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msgs...)
}

func (b *Buffer) Snapshot() []schema.Msg {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]schema.Msg, len(b.messages))
	copy(out, b.messages)
	return out
}

func (b *Buffer) ReplaceAll(msgs []schema.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	replacement := make([]schema.Msg, len(msgs))
	copy(replacement, msgs)
	b.messages = replacement
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.messages)
}

var _ Memory = (*Buffer)(nil)
