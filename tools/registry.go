package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Registry is the Toolkit: an ordered, group-partitioned catalogue of
// Tool entries. Registration order is preserved for listActive; only
// tools in an active group are advertised to the model.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Tool
	order   []string
	active  map[string]bool
}

// New constructs an empty Registry. The empty group ("") is always
// treated as active, matching the "ungrouped tools are always on"
// convention used by the spec's generate_response entry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]Tool),
		active: map[string]bool{"": true},
	}
}

// RegisterToolEntry directly registers t, validating that its declared
// schema is itself a well-formed JSON schema document before it can
// ever reach the model. Re-registering an existing name replaces it
// in place without disturbing its position in registration order.
func (r *Registry) RegisterToolEntry(t Tool) error {
	if t.Name() == "" {
		return fmt.Errorf("tools: refusing to register a tool with an empty name")
	}
	if err := validateSchemaDocument(t.Schema()); err != nil {
		return fmt.Errorf("tools: %s: invalid parameter schema: %w", t.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.byName[t.Name()] = t
	return nil
}

// Deregister removes a tool by name.
func (r *Registry) Deregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return
	}
	delete(r.byName, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// SetActiveGroups replaces the set of active groups. The empty group
// remains active regardless.
func (r *Registry) SetActiveGroups(groups ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := map[string]bool{"": true}
	for _, g := range groups {
		active[g] = true
	}
	r.active = active
}

// ActiveGroups returns the currently active group names, excluding the
// implicit empty group.
func (r *Registry) ActiveGroups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for g := range r.active {
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

// ListActive returns the tools in an active group, ordered by
// registration.
func (r *Registry) ListActive() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.byName[name]
		if r.active[t.Group()] {
			out = append(out, t)
		}
	}
	return out
}

// Lookup returns the tool registered under name, regardless of whether
// its group is currently active. The ReAct loop pairs it with IsActive
// and reports an unknown tool and an inactive one with the same
// "not found or not active" error result.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// IsActive reports whether name is both registered and in an active
// group.
func (r *Registry) IsActive(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return ok && r.active[t.Group()]
}

// validateSchemaDocument compiles s as a JSON Schema document, catching
// malformed tool descriptors (bad "type", dangling "$ref", etc.) at
// registration time rather than when the model layer marshals it.
func validateSchemaDocument(s map[string]any) error {
	if s == nil {
		return nil
	}
	const uri = "mem://tool-schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(uri, anySchemaDoc(s)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	_, err := c.Compile(uri)
	return err
}

// anySchemaDoc normalizes a map[string]any schema into the plain
// map[string]interface{}/[]interface{}/scalar tree AddResource expects,
// by a round trip through encoding/json. Both the schema builder and
// RegisterFromObject's reflection-generated schemas carry []string
// values ("required", "enum"), which become []interface{} here.
func anySchemaDoc(s map[string]any) any {
	raw, err := json.Marshal(s)
	if err != nil {
		return s
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return s
	}
	return out
}
