package wireform

// Package wireform provides:
//
// - Schema-driven conversion between typed Go records and JSON-compatible
//   value trees (Encode/Decode/DecodeWithMeta)
// - A stable error model via Issues (dotted field path, code, message)
// - Compact storage keys, default omission, soft defaults and enum fallbacks
//   for forward/backward wire compatibility
// - Unknown-key preservation into a per-record ExtraData bucket so proxies
//   can re-emit fields they do not understand
// - Tagged envelope families (multitype) with a mandatory unknown-tag fallback
//
// Design policy:
// - Keep only public APIs in the root package; schema builders live under
//   schema/, wire codecs under codec/, envelope families under multitype/,
//   and the CLI under cmd/wireform.
// - Schemas are built once (the only place reflection runs) and are immutable
//   afterwards; encode and decode are pure computation.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := schema.New[Score]().
//		Field("label", schema.String()).Default("Score").StoreDefault(false).
//		Field("version", schema.String()).Default("").
//		MustBuild()
//
//	tree, err := s.Encode(Score{Label: "Time"})
//	v, err := s.Decode(tree)
//	dm, err := s.DecodeWithMeta(tree) // carries substitution warnings
