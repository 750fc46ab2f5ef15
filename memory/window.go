package memory

import "github.com/voocel/mas/schema"

// Windowed wraps a Memory and trims to the most recent N messages on
// every write. This is the kind of external, size-bounding
// context-management collaborator spec §4.1 describes — the core's own
// Buffer never evicts on its own.
type Windowed struct {
	inner  Memory
	window int
}

// NewWindowed wraps inner, keeping at most window messages. A
// non-positive window disables trimming.
func NewWindowed(inner Memory, window int) *Windowed {
	return &Windowed{inner: inner, window: window}
}

func (w *Windowed) Append(msg schema.Msg) {
	w.inner.Append(msg)
	w.trim()
}

func (w *Windowed) AppendAll(msgs []schema.Msg) {
	w.inner.AppendAll(msgs)
	w.trim()
}

func (w *Windowed) Snapshot() []schema.Msg  { return w.inner.Snapshot() }
func (w *Windowed) ReplaceAll(m []schema.Msg) { w.inner.ReplaceAll(m); w.trim() }
func (w *Windowed) Clear()                  { w.inner.Clear() }
func (w *Windowed) Size() int               { return w.inner.Size() }

func (w *Windowed) trim() {
	if w.window <= 0 {
		return
	}
	snap := w.inner.Snapshot()
	if len(snap) <= w.window {
		return
	}
	w.inner.ReplaceAll(snap[len(snap)-w.window:])
}

var _ Memory = (*Windowed)(nil)
