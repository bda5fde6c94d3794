package schema

import (
	"fmt"
	"reflect"
	"strings"

	wireform "github.com/wireform/wireform"
)

// maxSchemaDepth is the build-time nesting ceiling. Hand-written schemas stay
// nowhere near it; generated or degenerate ones fail loudly at prep time
// instead of overflowing the stack at runtime.
const maxSchemaDepth = 64

// fieldSpec is one declared field before binding.
type fieldSpec struct {
	name         string
	key          string
	typ          FieldType
	def          any
	defFn        func() any
	hasDefault   bool
	soft         any
	softFn       func() any
	hasSoft      bool
	storeDefault bool
}

func (f *fieldSpec) required() bool {
	return !f.hasDefault && !f.hasSoft && !f.typ.optional
}

// Builder declares the fields of a record type T. Configuration problems are
// collected and reported by Build, not panicked at declaration sites.
type Builder[T any] struct {
	fields     []*fieldSpec
	unknown    wireform.UnknownPolicy
	unknownSet bool
}

// New creates a record builder for T.
func New[T any]() *Builder[T] {
	return &Builder[T]{}
}

// Field declares a field. name is the logical field name: it doubles as the
// default storage key and is matched against T's struct fields (tag first,
// then case-insensitive Go name).
func (b *Builder[T]) Field(name string, ft FieldType) *FieldStep[T] {
	f := &fieldSpec{name: name, key: name, typ: ft, storeDefault: true}
	b.fields = append(b.fields, f)
	return &FieldStep[T]{b: b, f: f}
}

// UnknownStrict rejects storage keys the schema does not declare.
func (b *Builder[T]) UnknownStrict() *Builder[T] {
	b.unknown = wireform.UnknownStrict
	b.unknownSet = true
	return b
}

// UnknownStrip drops storage keys the schema does not declare.
func (b *Builder[T]) UnknownStrip() *Builder[T] {
	b.unknown = wireform.UnknownStrip
	b.unknownSet = true
	return b
}

// PreserveUnknown keeps undeclared storage keys in the record's ExtraData
// field. This is also the default whenever T declares such a field.
func (b *Builder[T]) PreserveUnknown() *Builder[T] {
	b.unknown = wireform.UnknownPreserve
	b.unknownSet = true
	return b
}

// FieldStep scopes fluent per-field options after Field.
type FieldStep[T any] struct {
	b *Builder[T]
	f *fieldSpec
}

// Key overrides the storage key used on the wire, typically with a short
// token to save bytes in high-volume messages.
func (s *FieldStep[T]) Key(k string) *FieldStep[T] {
	s.f.key = k
	return s
}

// Default declares the field's default value. A missing key on decode is
// filled from it silently, and StoreDefault(false) makes encode omit the
// field when it equals this value.
func (s *FieldStep[T]) Default(v any) *FieldStep[T] {
	s.f.def = v
	s.f.hasDefault = true
	return s
}

// DefaultFn declares a default factory, for defaults that must not be shared
// between instances (mutable values).
func (s *FieldStep[T]) DefaultFn(fn func() any) *FieldStep[T] {
	s.f.defFn = fn
	s.f.hasDefault = true
	return s
}

// SoftDefault declares a decode-only default: a missing key is filled from it
// and recorded as a soft_default_applied warning. Unlike Default it never
// affects encode omission; it exists to keep newly added required fields
// readable from data written by older senders.
func (s *FieldStep[T]) SoftDefault(v any) *FieldStep[T] {
	s.f.soft = v
	s.f.hasSoft = true
	return s
}

// SoftDefaultFn is SoftDefault with a factory.
func (s *FieldStep[T]) SoftDefaultFn(fn func() any) *FieldStep[T] {
	s.f.softFn = fn
	s.f.hasSoft = true
	return s
}

// StoreDefault controls whether a field equal to its default is written at
// all. It is true by default; pass false to omit default-valued fields.
func (s *FieldStep[T]) StoreDefault(store bool) *FieldStep[T] {
	s.f.storeDefault = store
	return s
}

// Field declares the next field, continuing the chain.
func (s *FieldStep[T]) Field(name string, ft FieldType) *FieldStep[T] { return s.b.Field(name, ft) }

func (s *FieldStep[T]) UnknownStrict() *Builder[T]   { return s.b.UnknownStrict() }
func (s *FieldStep[T]) UnknownStrip() *Builder[T]    { return s.b.UnknownStrip() }
func (s *FieldStep[T]) PreserveUnknown() *Builder[T] { return s.b.PreserveUnknown() }

// Build validates the declaration and binds it to T's struct fields.
func (s *FieldStep[T]) Build() (*Schema[T], error) { return s.b.Build() }

// MustBuild is like Build but panics on error.
func (s *FieldStep[T]) MustBuild() *Schema[T] { return s.b.MustBuild() }

// resolveStructKey resolves a struct field's external name.
// Priority: wireform:"name=..." > json tag name > field name; "-" disables.
func resolveStructKey(sf reflect.StructField) string {
	if wt := sf.Tag.Get("wireform"); wt != "" {
		for _, p := range strings.Split(wt, ",") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			return jt[:i]
		}
		return jt
	}
	return sf.Name
}

var extraDataType = reflect.TypeOf(wireform.ExtraData(nil))

// Build performs every prep-time check: struct binding, storage-key
// uniqueness, default validity against the field's own type, and the nesting
// ceiling. The returned schema is immutable and safe to share.
func (b *Builder[T]) Build() (*Schema[T], error) {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, schemaErr("", fmt.Sprintf("record type %T must be a struct", zero), nil)
	}

	idxByName := make(map[string]int)
	lowerByName := make(map[string]int)
	extraIdx := -1
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Type == extraDataType {
			extraIdx = i
			continue
		}
		name := resolveStructKey(sf)
		if name == "-" || name == "" {
			continue
		}
		idxByName[name] = i
		lowerByName[strings.ToLower(sf.Name)] = i
	}

	var iss wireform.Issues
	fields := make([]boundField, 0, len(b.fields))
	byKey := make(map[string]int, len(b.fields))
	depth := 1
	for _, f := range b.fields {
		idx, ok := idxByName[f.name]
		if !ok {
			idx, ok = lowerByName[strings.ToLower(f.name)]
		}
		if !ok {
			iss = wireform.AppendIssues(iss, *schemaIssue(f.name, fmt.Sprintf("no struct field on %s matches declared field %q", rt, f.name)))
			continue
		}
		if f.typ.encode == nil || f.typ.decode == nil {
			iss = wireform.AppendIssues(iss, *schemaIssue(f.name, "field type is missing codec hooks"))
			continue
		}
		if f.typ.native != nil && rt.Field(idx).Type != f.typ.native {
			iss = wireform.AppendIssues(iss, *schemaIssue(f.name, fmt.Sprintf("struct field %s has type %s, field type expects %s", rt.Field(idx).Name, rt.Field(idx).Type, f.typ.native)))
			continue
		}
		if prev, dup := byKey[f.key]; dup {
			iss = wireform.AppendIssues(iss, *schemaIssue(f.name, fmt.Sprintf("storage key %q already used by field %q", f.key, fields[prev].name)))
			continue
		}

		bf := boundField{fieldSpec: f, idx: idx}
		if f.hasDefault {
			fn, err := normalizeDefault(f.name, f.def, f.defFn, f.typ)
			if err != nil {
				iss = wireform.AppendIssues(iss, err...)
				continue
			}
			bf.defNative = fn
		}
		if f.hasSoft {
			fn, err := normalizeDefault(f.name, f.soft, f.softFn, f.typ)
			if err != nil {
				iss = wireform.AppendIssues(iss, err...)
				continue
			}
			bf.softNative = fn
		}
		byKey[f.key] = len(fields)
		fields = append(fields, bf)
		if d := 1 + f.typ.depth; d > depth {
			depth = d
		}
	}
	if depth > maxSchemaDepth {
		iss = wireform.AppendIssues(iss, *schemaIssue("", fmt.Sprintf("record nesting depth %d exceeds ceiling %d; schemas must not recurse unboundedly", depth, maxSchemaDepth)))
	}

	unknown := b.unknown
	if !b.unknownSet {
		if extraIdx >= 0 {
			unknown = wireform.UnknownPreserve
		} else {
			unknown = wireform.UnknownStrip
		}
	}
	if unknown == wireform.UnknownPreserve && extraIdx < 0 {
		iss = wireform.AppendIssues(iss, *schemaIssue("", fmt.Sprintf("PreserveUnknown requires an ExtraData field on %s", rt)))
	}

	if len(iss) > 0 {
		return nil, iss
	}
	return &Schema[T]{rt: rt, fields: fields, byKey: byKey, unknown: unknown, extraIdx: extraIdx, depth: depth}, nil
}

// MustBuild is like Build but panics on error. Statically declared schemas
// use it so malformed declarations fail the process at startup.
func (b *Builder[T]) MustBuild() *Schema[T] {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// normalizeDefault converts a declared default to the field's native type and
// validates it against the field's own checks, once, at build time.
func normalizeDefault(name string, val any, fn func() any, ft FieldType) (func() any, wireform.Issues) {
	conv := func(v any) (any, wireform.Issues) {
		if v == nil {
			if ft.native != nil && canBeNil(ft.native) {
				return reflect.Zero(ft.native).Interface(), nil
			}
			return nil, wireform.Issues{*schemaIssue(name, "nil default for non-nilable field")}
		}
		if ft.native != nil {
			rv := reflect.ValueOf(v)
			if rv.Type() != ft.native {
				if !rv.Type().ConvertibleTo(ft.native) {
					return nil, wireform.Issues{*schemaIssue(name, fmt.Sprintf("default of type %T is not convertible to %s", v, ft.native))}
				}
				v = rv.Convert(ft.native).Interface()
			}
		}
		if ft.check != nil {
			if ci := ft.check(v, name); len(ci) > 0 {
				return nil, wireform.Issues{{Path: name, Code: wireform.CodeSchemaError, Message: "default value does not satisfy the field's type", Cause: ci}}
			}
		}
		return v, nil
	}

	if fn != nil {
		// validate one sample produced by the factory
		if _, iss := conv(fn()); iss != nil {
			return nil, iss
		}
		return func() any {
			v, _ := conv(fn())
			return v
		}, nil
	}
	v, iss := conv(val)
	if iss != nil {
		return nil, iss
	}
	return func() any { return v }, nil
}

func canBeNil(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

func schemaIssue(path, msg string) *wireform.Issue {
	return &wireform.Issue{Path: path, Code: wireform.CodeSchemaError, Message: msg}
}

func schemaErr(path, msg string, cause error) error {
	return wireform.Issues{{Path: path, Code: wireform.CodeSchemaError, Message: msg, Cause: cause}}
}
