package wireform

import (
	"bytes"
	"errors"
	"io"

	j "github.com/goccy/go-json"
)

// JSONTree decodes a JSON document into a value tree. Numbers are kept as
// json.Number so integer-typed fields survive without float64 rounding.
func JSONTree(data []byte) (any, error) {
	return JSONTreeFromReader(bytes.NewReader(data))
}

// JSONTreeFromReader is JSONTree over an io.Reader.
func JSONTreeFromReader(r io.Reader) (any, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	// reject trailing content so partial documents fail loudly
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, Issues{{Code: CodeParseError, Message: "trailing data after JSON document"}}
	}
	return v, nil
}

// MarshalTree renders a value tree as compact JSON.
func MarshalTree(tree any) ([]byte, error) {
	out, err := j.Marshal(tree)
	if err != nil {
		return nil, Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	return out, nil
}

// ToJSON encodes a record and renders it as JSON text.
func ToJSON[T any](s Schema[T], v T) ([]byte, error) {
	tree, err := Encode(s, v)
	if err != nil {
		return nil, err
	}
	return MarshalTree(tree)
}

// FromJSON parses JSON text and decodes it into a record.
func FromJSON[T any](s Schema[T], data []byte, opts ...DecodeOpt) (T, error) {
	tree, err := JSONTree(data)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode(s, tree, opts...)
}

// FromJSONWithMeta is FromJSON plus the collected substitution warnings.
func FromJSONWithMeta[T any](s Schema[T], data []byte, opts ...DecodeOpt) (Decoded[T], error) {
	tree, err := JSONTree(data)
	if err != nil {
		var zero Decoded[T]
		return zero, err
	}
	return DecodeWithMeta(s, tree, opts...)
}
