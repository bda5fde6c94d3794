package wireform

// Tree is the JSON-compatible value tree produced by encoders and consumed by
// decoders: nested combinations of nil, bool, json.Number/int64/float64,
// string, []any and string-keyed maps.
type Tree = map[string]any

// ExtraData is the side-channel bucket a record carries for storage keys that
// were present in the input but not declared by its schema. Declaring a field
// of this type on a record struct opts the record into unknown-key
// preservation: the bucket is filled on decode and merged back verbatim on
// encode, which is what lets older builds round-trip data from newer senders.
type ExtraData map[string]any

// UnknownPolicy controls how storage keys absent from the schema are handled.
type UnknownPolicy int

const (
	UnknownPreserve UnknownPolicy = iota // Keep unknown keys in the record's ExtraData field.
	UnknownStrip                         // Drop unknown keys.
	UnknownStrict                        // Reject unknown keys with an error.
)

// DecodeOpt bundles decoding options.
type DecodeOpt struct {
	// FailFast stops on the first issue instead of collecting all of them.
	FailFast bool
	// MaxDepth caps value-tree nesting during decode; 0 applies DefaultMaxDepth.
	// Cyclic schemas are rejected at build time already, so this is a
	// defense-in-depth check against pathological inputs.
	MaxDepth int
}

// DefaultMaxDepth is the decode nesting ceiling applied when DecodeOpt.MaxDepth
// is zero.
const DefaultMaxDepth = 64

// Decoded carries a decoded value together with the substitution warnings
// collected while decoding it (soft-default fills, enum fallbacks, unknown
// envelope tags). Warnings are always collected; callers may ignore them.
type Decoded[T any] struct {
	Value    T
	Warnings Issues
}

// Schema is the read side of a prepared record schema. Implementations live in
// the schema package; this interface is what generic entry points and
// transport layers program against: hand in a value tree, get back a validated
// record, and vice versa.
type Schema[T any] interface {
	// Encode converts a record to its value tree, omitting fields that equal
	// their default when the field opted out of storing defaults.
	Encode(v T) (Tree, error)
	// Decode converts a value tree back into a record, applying defaults and
	// preserving unknown keys per the record's policy.
	Decode(tree any, opts ...DecodeOpt) (T, error)
	// DecodeWithMeta is Decode plus the collected substitution warnings.
	DecodeWithMeta(tree any, opts ...DecodeOpt) (Decoded[T], error)
	// Check validates an in-memory record strictly, as done before encoding.
	Check(v T) error
}

// Codec performs bidirectional conversion between the wire representation A
// and the native representation B of a single value.
type Codec[A, B any] interface {
	Decode(a A) (B, error)
	Encode(b B) (A, error)
}
