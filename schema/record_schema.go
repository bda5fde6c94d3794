package schema

import (
	"fmt"
	"reflect"
	"sort"

	wireform "github.com/wireform/wireform"
	"github.com/wireform/wireform/i18n"
	js "github.com/wireform/wireform/jsonschema"
)

// boundField is a declared field bound to its struct slot, with defaults
// already converted to the field's native type.
type boundField struct {
	*fieldSpec
	idx        int
	defNative  func() any
	softNative func() any
}

// Schema is a prepared, immutable record schema for T. Build it once with the
// Builder (or fetch a shared instance via For) and reuse it from any number
// of goroutines.
type Schema[T any] struct {
	rt       reflect.Type
	fields   []boundField
	byKey    map[string]int
	unknown  wireform.UnknownPolicy
	extraIdx int
	depth    int
}

var _ wireform.Schema[struct{}] = (*Schema[struct{}])(nil)

// Depth returns the schema's nesting contribution, used by containers and
// envelope families for the build-time ceiling.
func (s *Schema[T]) Depth() int { return s.depth }

// Unknown returns the record's unknown-key policy.
func (s *Schema[T]) Unknown() wireform.UnknownPolicy { return s.unknown }

// StorageKeys returns the declared storage keys in declaration order.
func (s *Schema[T]) StorageKeys() []string {
	out := make([]string, 0, len(s.fields))
	for i := range s.fields {
		out = append(out, s.fields[i].key)
	}
	return out
}

// Encode converts a record to its value tree. Fields equal to their default
// are omitted when StoreDefault(false) was declared; the ExtraData bucket, if
// any, is merged back verbatim (declared keys win).
func (s *Schema[T]) Encode(v T) (wireform.Tree, error) {
	tree, iss := s.EncodeAt(v, "")
	if len(iss) > 0 {
		return nil, iss
	}
	return tree, nil
}

// EncodeAt is Encode with an explicit path prefix, for nesting.
func (s *Schema[T]) EncodeAt(v T, at string) (wireform.Tree, wireform.Issues) {
	rv := reflect.ValueOf(v)
	out := make(wireform.Tree, len(s.fields))
	for i := range s.fields {
		bf := &s.fields[i]
		native := rv.Field(bf.idx).Interface()
		if !bf.storeDefault && bf.defNative != nil && reflect.DeepEqual(native, bf.defNative()) {
			continue
		}
		enc, iss := bf.typ.encode(native, wireform.JoinPath(at, bf.name))
		if len(iss) > 0 {
			return nil, iss
		}
		out[bf.key] = enc
	}
	if s.extraIdx >= 0 {
		if extra, ok := rv.Field(s.extraIdx).Interface().(wireform.ExtraData); ok {
			for k, ev := range extra {
				if _, taken := out[k]; !taken {
					out[k] = ev
				}
			}
		}
	}
	return out, nil
}

// Decode converts a value tree back into a record.
func (s *Schema[T]) Decode(tree any, opts ...wireform.DecodeOpt) (T, error) {
	dm, err := s.DecodeWithMeta(tree, opts...)
	return dm.Value, err
}

// DecodeWithMeta is Decode plus the substitution warnings collected while
// decoding (soft-default fills, enum fallbacks, unknown envelope tags).
func (s *Schema[T]) DecodeWithMeta(tree any, opts ...wireform.DecodeOpt) (wireform.Decoded[T], error) {
	dc := NewDecodeContext(opts...)
	v, iss := s.DecodeCtx(dc, tree, "")
	dm := wireform.Decoded[T]{Value: v, Warnings: dc.Warnings()}
	if len(iss) > 0 {
		return dm, iss
	}
	return dm, nil
}

// DecodeCtx decodes using an existing DecodeContext so nested records and
// envelope families share one depth guard and warning sink.
func (s *Schema[T]) DecodeCtx(dc *DecodeContext, tree any, at string) (T, wireform.Issues) {
	var zero T
	m, ok := tree.(map[string]any)
	if !ok {
		return zero, invalidType(at, "expected object")
	}
	if iss := dc.Enter(at); iss != nil {
		return zero, iss
	}
	defer dc.Leave()

	rv := reflect.New(s.rt).Elem()
	var iss wireform.Issues
	for i := range s.fields {
		bf := &s.fields[i]
		fieldPath := wireform.JoinPath(at, bf.name)
		raw, present := m[bf.key]
		var val any
		switch {
		case present:
			var i2 wireform.Issues
			val, i2 = bf.typ.decode(dc, raw, fieldPath)
			if len(i2) > 0 {
				iss = wireform.AppendIssues(iss, i2...)
				if dc.FailFast() {
					return zero, iss
				}
				continue
			}
		case bf.softNative != nil:
			val = bf.softNative()
			dc.Warn(wireform.Issue{
				Path:    fieldPath,
				Code:    wireform.CodeSoftDefault,
				Message: "missing field filled from soft default",
				Params:  map[string]any{"key": bf.key},
			})
		case bf.defNative != nil:
			val = bf.defNative()
		case bf.typ.optional:
			// typed nil is the struct zero value; nothing to assign
			continue
		default:
			iss = wireform.AppendIssues(iss, wireform.Issue{
				Path:    fieldPath,
				Code:    wireform.CodeRequired,
				Message: i18n.T(wireform.CodeRequired, nil),
				Params:  map[string]any{"key": bf.key},
			})
			if dc.FailFast() {
				return zero, iss
			}
			continue
		}
		if i2 := assignField(rv.Field(bf.idx), val, fieldPath); len(i2) > 0 {
			iss = wireform.AppendIssues(iss, i2...)
			if dc.FailFast() {
				return zero, iss
			}
		}
	}

	if i2 := s.collectUnknown(dc, m, rv, at); len(i2) > 0 {
		iss = wireform.AppendIssues(iss, i2...)
	}
	if len(iss) > 0 {
		return zero, iss
	}
	return rv.Interface().(T), nil
}

// collectUnknown handles storage keys the schema does not declare, per the
// record's UnknownPolicy.
func (s *Schema[T]) collectUnknown(dc *DecodeContext, m map[string]any, rv reflect.Value, at string) wireform.Issues {
	// unknown keys in sorted order for deterministic issue selection
	var uks []string
	for k := range m {
		if _, known := s.byKey[k]; !known {
			uks = append(uks, k)
		}
	}
	if len(uks) == 0 {
		return nil
	}
	sort.Strings(uks)

	switch s.unknown {
	case wireform.UnknownStrict:
		var iss wireform.Issues
		for _, k := range uks {
			iss = wireform.AppendIssues(iss, wireform.Issue{Path: wireform.JoinPath(at, k), Code: wireform.CodeUnknownKey, Message: i18n.T(wireform.CodeUnknownKey, nil)})
			if dc.FailFast() {
				return iss
			}
		}
		return iss
	case wireform.UnknownStrip:
		return nil
	default: // UnknownPreserve
		extra := make(wireform.ExtraData, len(uks))
		for _, k := range uks {
			extra[k] = m[k]
		}
		rv.Field(s.extraIdx).Set(reflect.ValueOf(extra))
		return nil
	}
}

// Check validates an in-memory record strictly, as done before encoding:
// every declared field must satisfy its own type. Failures here indicate
// programmer errors (for example a default mutated into an invalid state),
// so they are raised immediately.
func (s *Schema[T]) Check(v T) error {
	if iss := s.CheckAt(v, ""); len(iss) > 0 {
		return iss
	}
	return nil
}

// CheckAt is Check with an explicit path prefix, for nesting.
func (s *Schema[T]) CheckAt(v T, at string) wireform.Issues {
	rv := reflect.ValueOf(v)
	var iss wireform.Issues
	for i := range s.fields {
		bf := &s.fields[i]
		if i2 := bf.typ.check(rv.Field(bf.idx).Interface(), wireform.JoinPath(at, bf.name)); len(i2) > 0 {
			iss = wireform.AppendIssues(iss, i2...)
		}
	}
	return iss
}

// JSONSchema projects the record schema into a JSON Schema document.
func (s *Schema[T]) JSONSchema() (*js.Schema, error) {
	return s.jsonSchemaFn()(), nil
}

func (s *Schema[T]) jsonSchemaFn() func() *js.Schema {
	return func() *js.Schema {
		props := make(map[string]*js.Schema, len(s.fields))
		var req []string
		for i := range s.fields {
			bf := &s.fields[i]
			p := bf.typ.jsonSchema()
			if bf.defNative != nil {
				p.Default = bf.defNative()
			}
			props[bf.key] = p
			if bf.required() {
				req = append(req, bf.key)
			}
		}
		sort.Strings(req)
		var additional any
		if s.unknown == wireform.UnknownStrict {
			additional = false
		} else {
			additional = true
		}
		return &js.Schema{Type: "object", Properties: props, Required: req, AdditionalProperties: additional}
	}
}

// assignField writes a decoded native value into a struct slot, converting
// between identical underlying types where needed.
func assignField(fv reflect.Value, val any, at string) wireform.Issues {
	if !fv.CanSet() {
		return wireform.Issues{{Path: at, Code: wireform.CodeSchemaError, Message: "struct field is not settable"}}
	}
	if val == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	vv := reflect.ValueOf(val)
	switch {
	case vv.Type().AssignableTo(fv.Type()):
		fv.Set(vv)
	case vv.Type().ConvertibleTo(fv.Type()):
		fv.Set(vv.Convert(fv.Type()))
	default:
		return wireform.Issues{{Path: at, Code: wireform.CodeInvalidType, Message: fmt.Sprintf("cannot assign %T to struct field of type %s", val, fv.Type())}}
	}
	return nil
}
