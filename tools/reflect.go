package tools

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/voocel/mas/schema"
)

// Describer lets an object registered via RegisterFromObject override
// the method-derived name/description/group for one of its methods.
// Optional: a method with no matching entry falls back to its Go name
// (snake_cased) and an empty description.
type Describer interface {
	DescribeTool(method string) (name, description, group string)
}

// ctxType / errType are cached once for the reflection checks below.
var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// RegisterFromObject discovers obj's exported methods shaped like
//
//	func(ctx context.Context, args ArgStruct) (ResultStruct, error)
//	func(ctx context.Context, args ArgStruct) (string, error)
//
// and registers one Tool per method, synthesizing the parameter schema
// from ArgStruct's fields by the same struct-tag convention as the
// corpus's typed-response schema generator: `json` for the field name
// and optionality (via omitempty), `description` and `enum` tags for
// the rest. Methods that don't match the shape are skipped.
func RegisterFromObject(r *Registry, obj any, group string) error {
	v := reflect.ValueOf(obj)
	t := v.Type()

	var describe func(string) (string, string, string)
	if d, ok := obj.(Describer); ok {
		describe = d.DescribeTool
	}

	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		argType, ok := reflectArgType(m.Type)
		if !ok {
			continue
		}

		name, desc, grp := snakeCase(m.Name), "", group
		if describe != nil {
			if dn, dd, dg := describe(m.Name); dn != "" {
				name, desc = dn, dd
				if dg != "" {
					grp = dg
				}
			}
		}

		tool := &reflectedTool{
			name:        name,
			description: desc,
			group:       grp,
			paramSchema: generateSchema(argType),
			argType:     argType,
			method:      v.Method(i),
		}
		if err := r.RegisterToolEntry(tool); err != nil {
			return fmt.Errorf("tools: registering %s.%s: %w", t.Name(), m.Name, err)
		}
	}
	return nil
}

// reflectArgType validates that a method signature is
// func(context.Context, Arg) (Result, error) (method type includes the
// receiver as argument 0) and returns Arg's type.
func reflectArgType(ft reflect.Type) (reflect.Type, bool) {
	if ft.NumIn() != 3 || ft.NumOut() != 2 {
		return nil, false
	}
	if ft.In(1) != ctxType {
		return nil, false
	}
	if !ft.Out(1).Implements(errType) {
		return nil, false
	}
	return ft.In(2), true
}

type reflectedTool struct {
	name        string
	description string
	group       string
	paramSchema map[string]any
	argType     reflect.Type
	method      reflect.Value
}

func (t *reflectedTool) Name() string           { return t.name }
func (t *reflectedTool) Description() string    { return t.description }
func (t *reflectedTool) Schema() map[string]any { return t.paramSchema }
func (t *reflectedTool) Group() string          { return t.group }
func (t *reflectedTool) Concurrent() bool       { return false }

func (t *reflectedTool) Invoke(ctx context.Context, call schema.ToolUse) (<-chan schema.ToolResult, error) {
	ch := make(chan schema.ToolResult, 1)
	go func() {
		defer close(ch)
		argPtr := reflect.New(t.argType)
		if err := decodeInto(call.Input, argPtr.Interface()); err != nil {
			ch <- schema.ErrorToolResult(call.ID, call.Name, err.Error())
			return
		}
		out := t.method.Call([]reflect.Value{reflect.ValueOf(ctx), argPtr.Elem()})
		if errv := out[1]; !errv.IsNil() {
			ch <- schema.ErrorToolResult(call.ID, call.Name, errv.Interface().(error).Error())
			return
		}
		ch <- schema.ToolResult{ID: call.ID, Name: call.Name, Output: []schema.ContentBlock{schema.TextBlock(resultText(out[0]))}}
	}()
	return ch, nil
}

var _ Tool = (*reflectedTool)(nil)

func snakeCase(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}
