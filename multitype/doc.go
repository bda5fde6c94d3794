// Package multitype stores values of several concrete record types behind one
// shared interface, in a single flat object. Each variant contributes its own
// fields; a reserved tag key (default "_t") names the concrete type so readers
// can dispatch.
//
// A Family is built once from per-variant record schemas and a mandatory
// fallback variant. The fallback absorbs objects whose tag the reader does not
// recognize: the whole object, tag included, lands in the fallback's ExtraData
// bucket, so re-encoding writes the original message back unchanged. That is
// what lets an old reader relay messages minted by a newer sender.
package multitype
