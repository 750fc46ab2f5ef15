// Package interrupt implements the per-agent-call cooperative
// cancellation cell: a single-slot atomic signal with structured
// context (source, pending tool calls, user message), consumed
// exactly once by the owning call.
package interrupt

import (
	"sync/atomic"
	"time"

	"github.com/voocel/mas/schema"
)

// Source identifies who raised an interrupt.
type Source string

const (
	SourceUser   Source = "USER"
	SourceTool   Source = "TOOL"
	SourceSystem Source = "SYSTEM"
)

// Context is constructed by the controller at the moment of
// signaling and consumed exactly once by the reconciliation step.
type Context struct {
	Source           Source
	Timestamp        time.Time
	UserMessage      string
	PendingToolCalls []schema.ToolUse
}

// Controller is a single-slot cell holding either idle or a signaled
// Context. The idle -> signaled transition is atomic; duplicate
// signals within one call after the first are ignored. Reset clears
// the cell for the next call.
type Controller struct {
	slot atomic.Pointer[Context]
}

// New constructs an idle Controller.
func New() *Controller {
	return &Controller{}
}

// Signal attempts the idle -> signaled transition, stamping
// Timestamp if unset. Returns true if this call won the race and
// actually stored the signal; false if the cell was already signaled.
func (c *Controller) Signal(ic Context) bool {
	if ic.Timestamp.IsZero() {
		ic.Timestamp = time.Now()
	}
	return c.slot.CompareAndSwap(nil, &ic)
}

// Peek reports the current signal without consuming it, for suspension
// points that only need to know whether to stop draining.
func (c *Controller) Peek() (Context, bool) {
	p := c.slot.Load()
	if p == nil {
		return Context{}, false
	}
	return *p, true
}

// GetAndClear atomically consumes the signal, returning it along with
// whether one was present. Safe to call from exactly one
// reconciliation path per call; subsequent calls after consumption
// return false until the next Reset.
func (c *Controller) GetAndClear() (Context, bool) {
	p := c.slot.Swap(nil)
	if p == nil {
		return Context{}, false
	}
	return *p, true
}

// Reset clears the cell, run at the start of every agent call.
func (c *Controller) Reset() {
	c.slot.Store(nil)
}
