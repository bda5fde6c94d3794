package wireform

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLTree decodes a YAML document into a value tree, normalizing map keys to
// strings. Non-string scalar keys (ints, bools) are rendered with their YAML
// spelling; composite keys are rejected.
func YAMLTree(data []byte) (any, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	return normalizeYAML(node, "")
}

func normalizeYAML(v any, at string) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			nv, err := normalizeYAML(val, JoinPath(at, k))
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ks, err := yamlKeyString(k)
			if err != nil {
				return nil, Issues{{Path: at, Code: CodeInvalidType, Message: err.Error()}}
			}
			nv, err := normalizeYAML(val, JoinPath(at, ks))
			if err != nil {
				return nil, err
			}
			out[ks] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			nv, err := normalizeYAML(val, IndexPath(at, i))
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}

func yamlKeyString(k any) (string, error) {
	switch t := k.(type) {
	case string:
		return t, nil
	case int, int64, uint64, float64, bool:
		return fmt.Sprintf("%v", t), nil
	default:
		return "", fmt.Errorf("unsupported YAML map key of type %T", k)
	}
}

// FromYAML decodes a YAML document into a record through its schema.
func FromYAML[T any](s Schema[T], data []byte, opts ...DecodeOpt) (T, error) {
	tree, err := YAMLTree(data)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode(s, tree, opts...)
}

// ToYAML encodes a record and renders its value tree as YAML.
func ToYAML[T any](s Schema[T], v T) ([]byte, error) {
	tree, err := Encode(s, v)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return nil, Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	return out, nil
}
