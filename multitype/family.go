package multitype

import (
	"fmt"
	"reflect"
	"sort"

	wireform "github.com/wireform/wireform"
	"github.com/wireform/wireform/i18n"
	js "github.com/wireform/wireform/jsonschema"
	"github.com/wireform/wireform/schema"
)

// DefaultTagKey is the reserved storage key holding the variant tag.
const DefaultTagKey = "_t"

// Tagged is implemented by every concrete variant type of a family. TypeTag
// must be constant for the type: the tag of a zero value identifies the
// variant on the wire.
type Tagged interface {
	TypeTag() string
}

// Variant is one concrete type registered with a family. Build one with Of
// and hand it to the family builder.
type Variant[T Tagged] struct {
	tag       string
	ctype     reflect.Type
	keys      []string
	depth     int
	unknown   wireform.UnknownPolicy
	encodeAt  func(v T, at string) (wireform.Tree, wireform.Issues)
	decodeCtx func(dc *schema.DecodeContext, tree any, at string) (T, wireform.Issues)
	checkAt   func(v T, at string) wireform.Issues
	schemaFn  func() *js.Schema
}

// Tag returns the variant's wire tag.
func (v Variant[T]) Tag() string { return v.tag }

// Of adapts a prepared record schema for concrete type C into a variant of
// the family interface T. The tag is taken from C's zero value.
func Of[T Tagged, C Tagged](s *schema.Schema[C]) Variant[T] {
	var zero C
	v := Variant[T]{
		tag:     zero.TypeTag(),
		ctype:   reflect.TypeOf((*C)(nil)).Elem(),
		keys:    s.StorageKeys(),
		depth:   s.Depth(),
		unknown: s.Unknown(),
	}
	v.encodeAt = func(val T, at string) (wireform.Tree, wireform.Issues) {
		c, ok := any(val).(C)
		if !ok {
			return nil, wireform.Issues{{
				Path:    at,
				Code:    wireform.CodeInvalidType,
				Message: fmt.Sprintf("value of type %T does not belong to variant %q", val, v.tag),
			}}
		}
		return s.EncodeAt(c, at)
	}
	v.decodeCtx = func(dc *schema.DecodeContext, tree any, at string) (T, wireform.Issues) {
		c, iss := s.DecodeCtx(dc, tree, at)
		if len(iss) > 0 {
			var zt T
			return zt, iss
		}
		t, ok := any(c).(T)
		if !ok {
			var zt T
			return zt, wireform.Issues{{
				Path:    at,
				Code:    wireform.CodeSchemaError,
				Message: fmt.Sprintf("variant type %T does not implement the family interface", c),
			}}
		}
		return t, nil
	}
	v.checkAt = func(val T, at string) wireform.Issues {
		c, ok := any(val).(C)
		if !ok {
			return wireform.Issues{{
				Path:    at,
				Code:    wireform.CodeInvalidType,
				Message: fmt.Sprintf("value of type %T does not belong to variant %q", val, v.tag),
			}}
		}
		return s.CheckAt(c, at)
	}
	sf := func() *js.Schema {
		out, err := s.JSONSchema()
		if err != nil {
			return &js.Schema{}
		}
		return out
	}
	v.schemaFn = sf
	return v
}

// Builder declares the variants of a family. Problems are collected and
// reported by Build.
type Builder[T Tagged] struct {
	tagKey   string
	variants []Variant[T]
	fallback *Variant[T]
}

// NewFamily creates a family builder for the interface type T.
func NewFamily[T Tagged]() *Builder[T] {
	return &Builder[T]{tagKey: DefaultTagKey}
}

// TagKey overrides the reserved tag key. Variants must not declare it as a
// storage key.
func (b *Builder[T]) TagKey(k string) *Builder[T] {
	b.tagKey = k
	return b
}

// Variant registers a concrete variant.
func (b *Builder[T]) Variant(v Variant[T]) *Builder[T] {
	b.variants = append(b.variants, v)
	return b
}

// Fallback registers the variant that absorbs unrecognized tags. Its record
// type must carry an ExtraData field with PreserveUnknown so the original
// object survives a round trip; every family requires exactly one.
func (b *Builder[T]) Fallback(v Variant[T]) *Builder[T] {
	b.fallback = &v
	return b
}

// Family dispatches between the concrete record types of one interface. It is
// immutable once built and is itself a Schema for the interface type.
type Family[T Tagged] struct {
	tagKey   string
	byTag    map[string]*Variant[T]
	variants []Variant[T]
	fallback Variant[T]
	depth    int
}

var _ wireform.Schema[Tagged] = (*Family[Tagged])(nil)

// Build validates the declaration: an interface family type, a present
// fallback, distinct non-empty tags, and no variant colliding with the
// reserved tag key.
func (b *Builder[T]) Build() (*Family[T], error) {
	var iss wireform.Issues
	it := reflect.TypeOf((*T)(nil)).Elem()
	if it.Kind() != reflect.Interface {
		return nil, wireform.Issues{{Code: wireform.CodeSchemaError, Message: fmt.Sprintf("family type %s must be an interface", it)}}
	}
	if b.tagKey == "" {
		iss = wireform.AppendIssues(iss, wireform.Issue{Code: wireform.CodeSchemaError, Message: "tag key must not be empty"})
	}
	if b.fallback == nil {
		iss = wireform.AppendIssues(iss, wireform.Issue{Code: wireform.CodeSchemaError, Message: "family requires a fallback variant for unrecognized tags"})
	} else if b.fallback.unknown != wireform.UnknownPreserve {
		// a fallback that drops or rejects unknown keys cannot round-trip
		// messages from newer senders, which is its entire job
		iss = wireform.AppendIssues(iss, wireform.Issue{Code: wireform.CodeSchemaError, Message: fmt.Sprintf("fallback variant %s must preserve unknown keys (declare an ExtraData field with PreserveUnknown)", b.fallback.ctype)})
	}

	byTag := make(map[string]*Variant[T], len(b.variants))
	depth := 1
	all := b.variants
	if b.fallback != nil {
		all = append(append([]Variant[T]{}, b.variants...), *b.fallback)
	}
	for i := range b.variants {
		v := &b.variants[i]
		if v.tag == "" {
			iss = wireform.AppendIssues(iss, wireform.Issue{Code: wireform.CodeSchemaError, Message: fmt.Sprintf("variant %s has an empty tag", v.ctype)})
			continue
		}
		if prev, dup := byTag[v.tag]; dup {
			iss = wireform.AppendIssues(iss, wireform.Issue{Code: wireform.CodeSchemaError, Message: fmt.Sprintf("tag %q registered by both %s and %s", v.tag, prev.ctype, v.ctype)})
			continue
		}
		byTag[v.tag] = v
	}
	for i := range all {
		v := &all[i]
		if !v.ctype.Implements(it) {
			iss = wireform.AppendIssues(iss, wireform.Issue{Code: wireform.CodeSchemaError, Message: fmt.Sprintf("variant type %s does not implement %s", v.ctype, it)})
		}
		for _, k := range v.keys {
			if k == b.tagKey {
				iss = wireform.AppendIssues(iss, wireform.Issue{Code: wireform.CodeSchemaError, Message: fmt.Sprintf("variant %q declares the reserved tag key %q as a storage key", v.tag, b.tagKey)})
			}
		}
		if v.depth > depth {
			depth = v.depth
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return &Family[T]{
		tagKey:   b.tagKey,
		byTag:    byTag,
		variants: b.variants,
		fallback: *b.fallback,
		depth:    depth,
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder[T]) MustBuild() *Family[T] {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// TagKey returns the reserved tag key.
func (f *Family[T]) TagKey() string { return f.tagKey }

// Tags returns the registered tags in sorted order, fallback excluded.
func (f *Family[T]) Tags() []string {
	out := make([]string, 0, len(f.byTag))
	for tag := range f.byTag {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Depth returns the family's nesting contribution; variant fields are
// flattened into the envelope, so this is the deepest variant.
func (f *Family[T]) Depth() int { return f.depth }

// Verify re-asserts the family's runtime invariants: every registered tag
// matches its concrete type's own TypeTag. Tests for a message family call
// this once to catch a tag edited on one side only.
func (f *Family[T]) Verify() error {
	var iss wireform.Issues
	for tag, v := range f.byTag {
		zero := reflect.New(v.ctype).Elem().Interface()
		tv, ok := zero.(Tagged)
		if !ok {
			iss = wireform.AppendIssues(iss, wireform.Issue{Code: wireform.CodeSchemaError, Message: fmt.Sprintf("variant type %s lost its TypeTag method", v.ctype)})
			continue
		}
		if got := tv.TypeTag(); got != tag {
			iss = wireform.AppendIssues(iss, wireform.Issue{Code: wireform.CodeSchemaError, Message: fmt.Sprintf("type %s reports tag %q but is registered as %q", v.ctype, got, tag)})
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

// variantFor picks the encode path for a value: a registered tag wins, and
// values of the fallback's own type take the fallback path so preserved
// unknown objects re-encode as themselves.
func (f *Family[T]) variantFor(v T) (*Variant[T], bool) {
	rt := reflect.TypeOf(v)
	if rt == f.fallback.ctype {
		return &f.fallback, true
	}
	if vr, ok := f.byTag[v.TypeTag()]; ok {
		return vr, false
	}
	return nil, false
}

// Encode writes the value as a flat envelope object carrying the variant tag.
func (f *Family[T]) Encode(v T) (wireform.Tree, error) {
	tree, iss := f.EncodeAt(v, "")
	if len(iss) > 0 {
		return nil, iss
	}
	return tree, nil
}

// EncodeAt is Encode with an explicit path prefix, for nesting.
func (f *Family[T]) EncodeAt(v T, at string) (wireform.Tree, wireform.Issues) {
	if any(v) == nil {
		return nil, wireform.Issues{{Path: at, Code: wireform.CodeInvalidValue, Message: "cannot encode nil family value"}}
	}
	vr, isFallback := f.variantFor(v)
	if vr == nil {
		return nil, wireform.Issues{{
			Path:    at,
			Code:    wireform.CodeInvalidType,
			Message: fmt.Sprintf("type %T (tag %q) is not registered with this family", v, v.TypeTag()),
		}}
	}
	tree, iss := vr.encodeAt(v, at)
	if len(iss) > 0 {
		return nil, iss
	}
	if isFallback {
		// preserved objects carry their original tag in ExtraData; only
		// stamp ours when nothing survived
		if _, ok := tree[f.tagKey]; !ok {
			tree[f.tagKey] = vr.tag
		}
	} else {
		tree[f.tagKey] = vr.tag
	}
	return tree, nil
}

// Decode reads an envelope object back into a family value.
func (f *Family[T]) Decode(tree any, opts ...wireform.DecodeOpt) (T, error) {
	dm, err := f.DecodeWithMeta(tree, opts...)
	return dm.Value, err
}

// DecodeWithMeta is Decode plus the substitution warnings collected while
// decoding, including the unknown_tag_fallback warning.
func (f *Family[T]) DecodeWithMeta(tree any, opts ...wireform.DecodeOpt) (wireform.Decoded[T], error) {
	dc := schema.NewDecodeContext(opts...)
	v, iss := f.DecodeCtx(dc, tree, "")
	dm := wireform.Decoded[T]{Value: v, Warnings: dc.Warnings()}
	if len(iss) > 0 {
		return dm, iss
	}
	return dm, nil
}

// DecodeCtx decodes using an existing DecodeContext so envelopes nested in
// records share one depth guard and warning sink.
func (f *Family[T]) DecodeCtx(dc *schema.DecodeContext, tree any, at string) (T, wireform.Issues) {
	var zero T
	m, ok := tree.(map[string]any)
	if !ok {
		return zero, wireform.Issues{{Path: at, Code: wireform.CodeInvalidType, Message: i18n.T(wireform.CodeInvalidType, nil), Hint: "expected envelope object"}}
	}
	raw, present := m[f.tagKey]
	if !present {
		return zero, wireform.Issues{{
			Path:    wireform.JoinPath(at, f.tagKey),
			Code:    wireform.CodeRequired,
			Message: i18n.T(wireform.CodeRequired, nil),
			Hint:    "envelope is missing its tag key",
		}}
	}
	tag, ok := raw.(string)
	if !ok {
		return zero, wireform.Issues{{Path: wireform.JoinPath(at, f.tagKey), Code: wireform.CodeInvalidType, Message: i18n.T(wireform.CodeInvalidType, nil), Hint: "tag must be a string"}}
	}

	if vr, known := f.byTag[tag]; known {
		// the tag key is ours, not the variant's
		body := make(map[string]any, len(m)-1)
		for k, bv := range m {
			if k != f.tagKey {
				body[k] = bv
			}
		}
		return vr.decodeCtx(dc, body, at)
	}

	dc.Warn(wireform.Issue{
		Path:    wireform.JoinPath(at, f.tagKey),
		Code:    wireform.CodeUnknownTag,
		Message: "unrecognized tag routed to fallback",
		Params:  map[string]any{"got": tag},
	})
	// fallback sees the whole object, tag included, so re-encode reproduces it
	return f.fallback.decodeCtx(dc, m, at)
}

// Check validates an in-memory family value strictly via its variant schema.
func (f *Family[T]) Check(v T) error {
	if iss := f.CheckAt(v, ""); len(iss) > 0 {
		return iss
	}
	return nil
}

// CheckAt is Check with an explicit path prefix, for nesting.
func (f *Family[T]) CheckAt(v T, at string) wireform.Issues {
	if any(v) == nil {
		return wireform.Issues{{Path: at, Code: wireform.CodeInvalidValue, Message: "cannot check nil family value"}}
	}
	vr, _ := f.variantFor(v)
	if vr == nil {
		return wireform.Issues{{
			Path:    at,
			Code:    wireform.CodeInvalidType,
			Message: fmt.Sprintf("type %T (tag %q) is not registered with this family", v, v.TypeTag()),
		}}
	}
	return vr.checkAt(v, at)
}

// Field adapts the family into a record field whose native type is the family
// interface itself.
func (f *Family[T]) Field() schema.FieldType {
	return schema.Custom(schema.CustomHooks{
		Native: reflect.TypeOf((*T)(nil)).Elem(),
		Encode: func(v any, at string) (any, wireform.Issues) {
			t, ok := v.(T)
			if !ok {
				return nil, wireform.Issues{{Path: at, Code: wireform.CodeInvalidType, Message: fmt.Sprintf("expected family value, got %T", v)}}
			}
			tree, iss := f.EncodeAt(t, at)
			if len(iss) > 0 {
				return nil, iss
			}
			return map[string]any(tree), nil
		},
		Decode: func(dc *schema.DecodeContext, v any, at string) (any, wireform.Issues) {
			t, iss := f.DecodeCtx(dc, v, at)
			if len(iss) > 0 {
				return nil, iss
			}
			return t, nil
		},
		Check: func(v any, at string) wireform.Issues {
			t, ok := v.(T)
			if !ok {
				return wireform.Issues{{Path: at, Code: wireform.CodeInvalidType, Message: fmt.Sprintf("expected family value, got %T", v)}}
			}
			return f.CheckAt(t, at)
		},
		JSONSchema: func() *js.Schema {
			oneOf := make([]*js.Schema, 0, len(f.variants))
			for i := range f.variants {
				oneOf = append(oneOf, f.variants[i].schemaFn())
			}
			return &js.Schema{OneOf: oneOf}
		},
		Depth: 1 + f.depth,
	})
}
