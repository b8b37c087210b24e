package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/trackcse/internal/ir"
)

// marshalOptions converts run options to canonical JSON TEXT, so equal
// options always store as equal strings.
func marshalOptions(opts ir.DictAttr) (string, error) {
	if len(opts) == 0 {
		return "{}", nil
	}
	data, err := ir.MarshalCanonical(opts)
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	return string(data), nil
}

// unmarshalOptions parses options TEXT. Numbers are decoded as json.Number
// and must be integers; attributes never carry floats.
func unmarshalOptions(data string) (ir.DictAttr, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	v, err := integers(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	opts, err := ir.DictFromGo(v.(map[string]any))
	if err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	return opts, nil
}

// integers replaces every json.Number in v with an int64.
func integers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s", val)
		}
		return n, nil
	case []any:
		for i, elem := range val {
			x, err := integers(elem)
			if err != nil {
				return nil, err
			}
			val[i] = x
		}
		return val, nil
	case map[string]any:
		for k, elem := range val {
			x, err := integers(elem)
			if err != nil {
				return nil, err
			}
			val[k] = x
		}
		return val, nil
	default:
		return v, nil
	}
}
