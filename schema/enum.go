package schema

import (
	"reflect"
	"sort"

	wireform "github.com/wireform/wireform"
	"github.com/wireform/wireform/i18n"
	js "github.com/wireform/wireform/jsonschema"
)

// EnumOf returns a field for a named string type restricted to the given
// values. The wire stores the enum value itself, never a name; decoding a
// value outside the set raises invalid_enum.
func EnumOf[E ~string](values ...E) FieldType {
	return enumField[E](values, nil)
}

// EnumWithFallback is EnumOf plus a fallback: decoding an unrecognized value
// yields the fallback and records an enum_fallback_applied warning instead of
// raising, which is what lets old readers accept values added by newer
// senders. The fallback must be a member of the set.
func EnumWithFallback[E ~string](fallback E, values ...E) FieldType {
	fb := fallback
	return enumField[E](values, &fb)
}

func enumField[E ~string](values []E, fallback *E) FieldType {
	members := make(map[E]struct{}, len(values))
	for _, v := range values {
		members[v] = struct{}{}
	}
	if fallback != nil {
		// a fallback outside the set would just re-raise on re-encode
		if _, ok := members[*fallback]; !ok {
			members[*fallback] = struct{}{}
		}
	}
	enumList := make([]any, 0, len(members))
	for v := range members {
		enumList = append(enumList, string(v))
	}
	sort.Slice(enumList, func(i, j int) bool { return enumList[i].(string) < enumList[j].(string) })

	invalidEnum := func(at string, got string) wireform.Issues {
		return wireform.Issues{{
			Path:    at,
			Code:    wireform.CodeInvalidEnum,
			Message: i18n.T(wireform.CodeInvalidEnum, nil),
			Params:  map[string]any{"got": got},
		}}
	}

	return FieldType{
		native: reflect.TypeOf((*E)(nil)).Elem(),
		encode: func(v any, at string) (any, wireform.Issues) {
			e, ok := v.(E)
			if !ok {
				return nil, invalidType(at, "expected enum value")
			}
			if _, ok := members[e]; !ok {
				return nil, invalidEnum(at, string(e))
			}
			return string(e), nil
		},
		decode: func(dc *DecodeContext, v any, at string) (any, wireform.Issues) {
			s, ok := v.(string)
			if !ok {
				return nil, invalidType(at, "expected enum string")
			}
			e := E(s)
			if _, ok := members[e]; ok {
				return e, nil
			}
			if fallback != nil {
				dc.Warn(wireform.Issue{
					Path:    at,
					Code:    wireform.CodeEnumFallback,
					Message: "unrecognized enum value replaced by fallback",
					Params:  map[string]any{"got": s, "fallback": string(*fallback)},
				})
				return *fallback, nil
			}
			return nil, invalidEnum(at, s)
		},
		check: func(v any, at string) wireform.Issues {
			e, ok := v.(E)
			if !ok {
				return invalidType(at, "expected enum value")
			}
			if _, ok := members[e]; !ok {
				return invalidEnum(at, string(e))
			}
			return nil
		},
		jsonSchema: func() *js.Schema { return &js.Schema{Type: "string", Enum: enumList} },
		depth:      1,
	}
}
