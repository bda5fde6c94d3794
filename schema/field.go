package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"

	wireform "github.com/wireform/wireform"
	"github.com/wireform/wireform/codec"
	"github.com/wireform/wireform/i18n"
	js "github.com/wireform/wireform/jsonschema"
)

// FieldType is the type-erased descriptor for one field position: how to
// encode, decode and validate a native value of that position, plus the
// metadata the record builder needs. Instances are immutable; constructors
// return fresh values.
type FieldType struct {
	native     reflect.Type
	encode     func(v any, at string) (any, wireform.Issues)
	decode     func(dc *DecodeContext, v any, at string) (any, wireform.Issues)
	check      func(v any, at string) wireform.Issues
	jsonSchema func() *js.Schema
	optional   bool
	depth      int
}

// Native returns the Go type this field encodes from and decodes to.
func (ft FieldType) Native() reflect.Type { return ft.native }

func invalidType(at, hint string) wireform.Issues {
	return wireform.Issues{{Path: at, Code: wireform.CodeInvalidType, Message: i18n.T(wireform.CodeInvalidType, nil), Hint: hint}}
}

// ---- primitives ----

// StringOf returns a string field for any named string type.
func StringOf[T ~string]() FieldType {
	return FieldType{
		native: reflect.TypeOf((*T)(nil)).Elem(),
		encode: func(v any, at string) (any, wireform.Issues) {
			t, ok := v.(T)
			if !ok {
				return nil, invalidType(at, "expected string value")
			}
			return string(t), nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			s, ok := v.(string)
			if !ok {
				return nil, invalidType(at, "expected string")
			}
			return T(s), nil
		},
		check: func(v any, at string) wireform.Issues {
			if _, ok := v.(T); !ok {
				return invalidType(at, "expected string value")
			}
			return nil
		},
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "string"} },
		depth:      1,
	}
}

// String returns a plain string field.
func String() FieldType { return StringOf[string]() }

// Integer covers the named integer types usable as record fields.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// IntOf returns an integer field for any named integer type. Wire values
// outside the type's range raise invalid_value rather than wrapping.
func IntOf[T Integer]() FieldType {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	return FieldType{
		native: rt,
		encode: func(v any, at string) (any, wireform.Issues) {
			t, ok := v.(T)
			if !ok {
				return nil, invalidType(at, "expected integer value")
			}
			return int64(t), nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			n, iss := intFromWire(v, at)
			if iss != nil {
				return nil, iss
			}
			if !intInRange(rt, n) {
				return nil, wireform.Issues{{
					Path:    at,
					Code:    wireform.CodeInvalidValue,
					Message: fmt.Sprintf("value %d out of range for %s", n, rt),
				}}
			}
			return T(n), nil
		},
		check: func(v any, at string) wireform.Issues {
			if _, ok := v.(T); !ok {
				return invalidType(at, "expected integer value")
			}
			return nil
		},
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "integer"} },
		depth:      1,
	}
}

// Int returns a plain int field.
func Int() FieldType { return IntOf[int]() }

// FloatOf returns a float field for any named float type.
func FloatOf[T ~float32 | ~float64]() FieldType {
	return FieldType{
		native: reflect.TypeOf((*T)(nil)).Elem(),
		encode: func(v any, at string) (any, wireform.Issues) {
			t, ok := v.(T)
			if !ok {
				return nil, invalidType(at, "expected float value")
			}
			return float64(t), nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			f, iss := floatFromWire(v, at)
			if iss != nil {
				return nil, iss
			}
			return T(f), nil
		},
		check: func(v any, at string) wireform.Issues {
			if _, ok := v.(T); !ok {
				return invalidType(at, "expected float value")
			}
			return nil
		},
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "number"} },
		depth:      1,
	}
}

// Float returns a plain float64 field.
func Float() FieldType { return FloatOf[float64]() }

// BoolOf returns a bool field for any named bool type.
func BoolOf[T ~bool]() FieldType {
	return FieldType{
		native: reflect.TypeOf((*T)(nil)).Elem(),
		encode: func(v any, at string) (any, wireform.Issues) {
			t, ok := v.(T)
			if !ok {
				return nil, invalidType(at, "expected bool value")
			}
			return bool(t), nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			b, ok := v.(bool)
			if !ok {
				return nil, invalidType(at, "expected bool")
			}
			return T(b), nil
		},
		check: func(v any, at string) wireform.Issues {
			if _, ok := v.(T); !ok {
				return invalidType(at, "expected bool value")
			}
			return nil
		},
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "boolean"} },
		depth:      1,
	}
}

// Bool returns a plain bool field.
func Bool() FieldType { return BoolOf[bool]() }

// ---- codec-backed fields ----

// Bytes returns a []byte field stored as base64 text.
func Bytes() FieldType {
	c := codec.Bytes()
	return FieldType{
		native: reflect.TypeOf([]byte(nil)),
		encode: func(v any, at string) (any, wireform.Issues) {
			b, ok := v.([]byte)
			if !ok {
				return nil, invalidType(at, "expected byte string")
			}
			s, err := c.Encode(b)
			if err != nil {
				return nil, wireform.RebaseIssues(at, err)
			}
			return s, nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			s, ok := v.(string)
			if !ok {
				return nil, invalidType(at, "expected base64 string")
			}
			b, err := c.Decode(s)
			if err != nil {
				return nil, wireform.RebaseIssues(at, err)
			}
			return b, nil
		},
		check: func(v any, at string) wireform.Issues {
			if _, ok := v.([]byte); !ok {
				return invalidType(at, "expected byte string")
			}
			return nil
		},
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "string", Format: "byte"} },
		depth:      1,
	}
}

// Time returns a time.Time field stored as float Unix seconds, always UTC.
func Time() FieldType {
	c := codec.UnixSeconds()
	return FieldType{
		native: reflect.TypeOf(time.Time{}),
		encode: func(v any, at string) (any, wireform.Issues) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, invalidType(at, "expected time.Time")
			}
			f, err := c.Encode(t)
			if err != nil {
				return nil, wireform.RebaseIssues(at, err)
			}
			return f, nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			f, iss := floatFromWire(v, at)
			if iss != nil {
				return nil, iss
			}
			t, err := c.Decode(f)
			if err != nil {
				return nil, wireform.RebaseIssues(at, err)
			}
			return t, nil
		},
		check:      checkUTCTime,
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "number", Format: "unix-seconds"} },
		depth:      1,
	}
}

// TimeCalendar returns a time.Time field stored as the tagged calendar tuple
// {"_dt":[year,month,day,hour,minute,second,microsecond]}, always UTC.
func TimeCalendar() FieldType {
	c := codec.Calendar()
	return FieldType{
		native: reflect.TypeOf(time.Time{}),
		encode: func(v any, at string) (any, wireform.Issues) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, invalidType(at, "expected time.Time")
			}
			tree, err := c.Encode(t)
			if err != nil {
				return nil, wireform.RebaseIssues(at, err)
			}
			return map[string]any(tree), nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			m, ok := v.(map[string]any)
			if !ok {
				return nil, invalidType(at, "expected calendar timestamp object")
			}
			t, err := c.Decode(m)
			if err != nil {
				return nil, wireform.RebaseIssues(at, err)
			}
			return t, nil
		},
		check:      checkUTCTime,
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "object", Format: "calendar"} },
		depth:      2,
	}
}

func checkUTCTime(v any, at string) wireform.Issues {
	t, ok := v.(time.Time)
	if !ok {
		return invalidType(at, "expected time.Time")
	}
	if _, offset := t.Zone(); offset != 0 {
		return wireform.Issues{{Path: at, Code: wireform.CodeInvalidValue, Message: "timestamps must be UTC"}}
	}
	return nil
}

// UUID returns a uuid.UUID field stored as canonical UUID text.
func UUID() FieldType {
	c := codec.UUID()
	return FieldType{
		native: reflect.TypeOf(uuid.UUID{}),
		encode: func(v any, at string) (any, wireform.Issues) {
			id, ok := v.(uuid.UUID)
			if !ok {
				return nil, invalidType(at, "expected uuid.UUID")
			}
			s, err := c.Encode(id)
			if err != nil {
				return nil, wireform.RebaseIssues(at, err)
			}
			return s, nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			s, ok := v.(string)
			if !ok {
				return nil, invalidType(at, "expected UUID string")
			}
			id, err := c.Decode(s)
			if err != nil {
				return nil, wireform.RebaseIssues(at, err)
			}
			return id, nil
		},
		check: func(v any, at string) wireform.Issues {
			if _, ok := v.(uuid.UUID); !ok {
				return invalidType(at, "expected uuid.UUID")
			}
			return nil
		},
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "string", Format: "uuid"} },
		depth:      1,
	}
}

// ---- optional wrapper ----

// Optional wraps a field so its native form is *E: wire null and absent keys
// both decode to nil instead of raising, and nil encodes to null. E must be
// the element field's native type.
func Optional[E any](elem FieldType) FieldType {
	et := reflect.TypeOf((*E)(nil)).Elem()
	return FieldType{
		native: reflect.PointerTo(et),
		encode: func(v any, at string) (any, wireform.Issues) {
			p, ok := v.(*E)
			if !ok {
				return nil, invalidType(at, "expected pointer value")
			}
			if p == nil {
				return nil, nil
			}
			return elem.encode(*p, at)
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			if v == nil {
				return (*E)(nil), nil
			}
			val, iss := elem.decode(dc, v, at)
			if iss != nil {
				return nil, iss
			}
			e, ok := val.(E)
			if !ok {
				return nil, invalidType(at, fmt.Sprintf("optional element type mismatch: %T", val))
			}
			return &e, nil
		},
		check: func(v any, at string) wireform.Issues {
			p, ok := v.(*E)
			if !ok {
				return invalidType(at, "expected pointer value")
			}
			if p == nil {
				return nil
			}
			return elem.check(*p, at)
		},
		jsonSchema: elem.jsonSchema,
		optional:   true,
		depth:      elem.depth,
	}
}

// ---- custom hook ----

// CustomHooks builds a FieldType from raw hooks. Envelope families use this
// to participate as record fields; most callers use the typed constructors.
type CustomHooks struct {
	Native     reflect.Type
	Encode     func(v any, at string) (any, wireform.Issues)
	Decode     func(dc *DecodeContext, v any, at string) (any, wireform.Issues)
	Check      func(v any, at string) wireform.Issues
	JSONSchema func() *js.Schema
	Optional   bool
	Depth      int
}

// Custom wraps hooks as a FieldType.
func Custom(h CustomHooks) FieldType {
	d := h.Depth
	if d <= 0 {
		d = 1
	}
	jsf := h.JSONSchema
	if jsf == nil {
		jsf = func() *js.Schema { return &js.Schema{} }
	}
	check := h.Check
	if check == nil {
		check = func(any, string) wireform.Issues { return nil }
	}
	return FieldType{
		native:     h.Native,
		encode:     h.Encode,
		decode:     h.Decode,
		check:      check,
		jsonSchema: jsf,
		optional:   h.Optional,
		depth:      d,
	}
}

// intInRange reports whether n fits the integer type rt without truncation
// or sign change.
func intInRange(rt reflect.Type, n int64) bool {
	switch rt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := rt.Bits()
		if bits == 64 {
			return true
		}
		return n >= -(int64(1)<<(bits-1)) && n <= int64(1)<<(bits-1)-1
	default: // unsigned kinds
		if n < 0 {
			return false
		}
		bits := rt.Bits()
		if bits == 64 {
			return true
		}
		return uint64(n) <= uint64(1)<<bits-1
	}
}

// ---- wire number coercion ----

// intFromWire reads an integral number off the wire. The JSON driver keeps
// numbers as json.Number; trees built by hand may hold plain Go numbers.
func intFromWire(v any, at string) (int64, wireform.Issues) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, wireform.Issues{{Path: at, Code: wireform.CodeInvalidValue, Message: "expected integral number", Cause: err}}
		}
		return i, nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, wireform.Issues{{Path: at, Code: wireform.CodeInvalidValue, Message: "expected integral number"}}
		}
		return int64(n), nil
	default:
		return 0, invalidType(at, "expected number")
	}
}

func floatFromWire(v any, at string) (float64, wireform.Issues) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, wireform.Issues{{Path: at, Code: wireform.CodeInvalidValue, Message: "malformed number", Cause: err}}
		}
		return f, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, invalidType(at, "expected number")
	}
}
