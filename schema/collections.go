package schema

import (
	"fmt"
	"reflect"
	"sort"

	wireform "github.com/wireform/wireform"
	js "github.com/wireform/wireform/jsonschema"
)

// ListOf returns a []E field; element order is preserved on the wire. E must
// be the element field's native type.
func ListOf[E any](elem FieldType) FieldType {
	et := reflect.TypeOf((*E)(nil)).Elem()
	return FieldType{
		native: reflect.SliceOf(et),
		encode: func(v any, at string) (any, wireform.Issues) {
			list, ok := v.([]E)
			if !ok {
				return nil, invalidType(at, "expected list value")
			}
			out := make([]any, 0, len(list))
			for i, e := range list {
				ev, iss := elem.encode(e, wireform.IndexPath(at, i))
				if iss != nil {
					return nil, iss
				}
				out = append(out, ev)
			}
			return out, nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			raw, ok := v.([]any)
			if !ok {
				return nil, invalidType(at, "expected list")
			}
			if iss := dc.Enter(at); iss != nil {
				return nil, iss
			}
			defer dc.Leave()
			out := make([]E, 0, len(raw))
			var iss wireform.Issues
			for i, rv := range raw {
				val, i2 := elem.decode(dc, rv, wireform.IndexPath(at, i))
				if len(i2) > 0 {
					iss = wireform.AppendIssues(iss, i2...)
					if dc.FailFast() {
						return nil, iss
					}
					continue
				}
				e, ok := val.(E)
				if !ok {
					iss = wireform.AppendIssues(iss, wireform.Issue{Path: wireform.IndexPath(at, i), Code: wireform.CodeInvalidType, Message: fmt.Sprintf("list element type mismatch: %T", val)})
					continue
				}
				out = append(out, e)
			}
			if len(iss) > 0 {
				return nil, iss
			}
			return out, nil
		},
		check: func(v any, at string) wireform.Issues {
			list, ok := v.([]E)
			if !ok {
				return invalidType(at, "expected list value")
			}
			for i, e := range list {
				if iss := elem.check(e, wireform.IndexPath(at, i)); iss != nil {
					return iss
				}
			}
			return nil
		},
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "array", Items: elem.jsonSchema()} },
		depth:      1 + elem.depth,
	}
}

// MapOf returns a map[string]V field. Wire keys are always strings.
func MapOf[V any](elem FieldType) FieldType {
	vt := reflect.TypeOf((*V)(nil)).Elem()
	return FieldType{
		native: reflect.MapOf(reflect.TypeOf(""), vt),
		encode: func(v any, at string) (any, wireform.Issues) {
			m, ok := v.(map[string]V)
			if !ok {
				return nil, invalidType(at, "expected string-keyed map value")
			}
			out := make(map[string]any, len(m))
			for k, e := range m {
				ev, iss := elem.encode(e, wireform.JoinPath(at, k))
				if iss != nil {
					return nil, iss
				}
				out[k] = ev
			}
			return out, nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			raw, ok := v.(map[string]any)
			if !ok {
				return nil, invalidType(at, "expected object")
			}
			if iss := dc.Enter(at); iss != nil {
				return nil, iss
			}
			defer dc.Leave()
			// key-sorted order for deterministic issue selection
			keys := make([]string, 0, len(raw))
			for k := range raw {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			out := make(map[string]V, len(raw))
			var iss wireform.Issues
			for _, k := range keys {
				val, i2 := elem.decode(dc, raw[k], wireform.JoinPath(at, k))
				if len(i2) > 0 {
					iss = wireform.AppendIssues(iss, i2...)
					if dc.FailFast() {
						return nil, iss
					}
					continue
				}
				e, ok := val.(V)
				if !ok {
					iss = wireform.AppendIssues(iss, wireform.Issue{Path: wireform.JoinPath(at, k), Code: wireform.CodeInvalidType, Message: fmt.Sprintf("map element type mismatch: %T", val)})
					continue
				}
				out[k] = e
			}
			if len(iss) > 0 {
				return nil, iss
			}
			return out, nil
		},
		check: func(v any, at string) wireform.Issues {
			m, ok := v.(map[string]V)
			if !ok {
				return invalidType(at, "expected string-keyed map value")
			}
			for k, e := range m {
				if iss := elem.check(e, wireform.JoinPath(at, k)); iss != nil {
					return iss
				}
			}
			return nil
		},
		jsonSchema: func() *js.Schema {
			return &js.Schema{Type: "object", AdditionalProperties: elem.jsonSchema()}
		},
		depth: 1 + elem.depth,
	}
}

// SetOf returns a map[E]struct{} field stored as a list. Encoding sorts the
// encoded elements for deterministic wire output; decoding accepts any order
// and rejects duplicates.
func SetOf[E comparable](elem FieldType) FieldType {
	et := reflect.TypeOf((*E)(nil)).Elem()
	return FieldType{
		native: reflect.MapOf(et, reflect.TypeOf(struct{}{})),
		encode: func(v any, at string) (any, wireform.Issues) {
			set, ok := v.(map[E]struct{})
			if !ok {
				return nil, invalidType(at, "expected set value")
			}
			out := make([]any, 0, len(set))
			for e := range set {
				ev, iss := elem.encode(e, at)
				if iss != nil {
					return nil, iss
				}
				out = append(out, ev)
			}
			sort.Slice(out, func(i, j int) bool { return wireLess(out[i], out[j]) })
			return out, nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			raw, ok := v.([]any)
			if !ok {
				return nil, invalidType(at, "expected list")
			}
			if iss := dc.Enter(at); iss != nil {
				return nil, iss
			}
			defer dc.Leave()
			out := make(map[E]struct{}, len(raw))
			var iss wireform.Issues
			for i, rv := range raw {
				val, i2 := elem.decode(dc, rv, wireform.IndexPath(at, i))
				if len(i2) > 0 {
					iss = wireform.AppendIssues(iss, i2...)
					if dc.FailFast() {
						return nil, iss
					}
					continue
				}
				e, ok := val.(E)
				if !ok {
					iss = wireform.AppendIssues(iss, wireform.Issue{Path: wireform.IndexPath(at, i), Code: wireform.CodeInvalidType, Message: fmt.Sprintf("set element type mismatch: %T", val)})
					continue
				}
				if _, dup := out[e]; dup {
					iss = wireform.AppendIssues(iss, wireform.Issue{Path: wireform.IndexPath(at, i), Code: wireform.CodeDuplicateItem, Message: "duplicate set element"})
					if dc.FailFast() {
						return nil, iss
					}
					continue
				}
				out[e] = struct{}{}
			}
			if len(iss) > 0 {
				return nil, iss
			}
			return out, nil
		},
		check: func(v any, at string) wireform.Issues {
			set, ok := v.(map[E]struct{})
			if !ok {
				return invalidType(at, "expected set value")
			}
			for e := range set {
				if iss := elem.check(e, at); iss != nil {
					return iss
				}
			}
			return nil
		},
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "array", Items: elem.jsonSchema()} },
		depth:      1 + elem.depth,
	}
}

// wireLess orders encoded set elements: numbers numerically, strings
// lexically, anything else by its printed form.
func wireLess(a, b any) bool {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

// Rec embeds a prepared record schema as a nested field.
func Rec[T any](s *Schema[T]) FieldType {
	return FieldType{
		native: s.rt,
		encode: func(v any, at string) (any, wireform.Issues) {
			t, ok := v.(T)
			if !ok {
				return nil, invalidType(at, "expected nested record value")
			}
			tree, iss := s.EncodeAt(t, at)
			if iss != nil {
				return nil, iss
			}
			return map[string]any(tree), nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			t, iss := s.DecodeCtx(dc, v, at)
			if len(iss) > 0 {
				return nil, iss
			}
			return t, nil
		},
		check: func(v any, at string) wireform.Issues {
			t, ok := v.(T)
			if !ok {
				return invalidType(at, "expected nested record value")
			}
			return s.CheckAt(t, at)
		},
		jsonSchema: s.jsonSchemaFn(),
		depth:      1 + s.depth,
	}
}
