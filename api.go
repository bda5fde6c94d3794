package wireform

// Encode is a thin wrapper around Schema.Encode for call sites that prefer the
// free-function form.
func Encode[T any](s Schema[T], v T) (Tree, error) {
	if s == nil {
		return nil, Issues{{Code: CodeSchemaError, Message: "nil schema"}}
	}
	return s.Encode(v)
}

// Decode is a thin wrapper around Schema.Decode.
func Decode[T any](s Schema[T], tree any, opts ...DecodeOpt) (T, error) {
	var zero T
	if s == nil {
		return zero, Issues{{Code: CodeSchemaError, Message: "nil schema"}}
	}
	return s.Decode(tree, opts...)
}

// DecodeWithMeta is a thin wrapper around Schema.DecodeWithMeta.
func DecodeWithMeta[T any](s Schema[T], tree any, opts ...DecodeOpt) (Decoded[T], error) {
	var zero Decoded[T]
	if s == nil {
		return zero, Issues{{Code: CodeSchemaError, Message: "nil schema"}}
	}
	return s.DecodeWithMeta(tree, opts...)
}

// SafeDecode decodes tree into T, returning (zero, false) on validation error.
func SafeDecode[T any](s Schema[T], tree any, opts ...DecodeOpt) (T, bool) {
	v, err := Decode(s, tree, opts...)
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// Is reports whether v round-trips through its schema without issues.
func Is[T any](s Schema[T], v T) bool {
	return s != nil && s.Check(v) == nil
}
