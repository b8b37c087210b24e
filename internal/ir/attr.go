package ir

import (
	"fmt"
	"slices"
	"unicode/utf16"
)

// Attr is a sealed interface over the static attribute values an operation
// may carry. Only StringAttr, IntAttr, BoolAttr, ArrayAttr and DictAttr
// implement it. There is no float attribute: float formatting is not
// canonical and would make fingerprints unstable.
type Attr interface {
	attr()
}

// StringAttr is a string attribute.
type StringAttr string

func (StringAttr) attr() {}

// IntAttr is a signed 64-bit integer attribute.
type IntAttr int64

func (IntAttr) attr() {}

// BoolAttr is a boolean attribute.
type BoolAttr bool

func (BoolAttr) attr() {}

// ArrayAttr is an ordered list of attributes.
type ArrayAttr []Attr

func (ArrayAttr) attr() {}

// DictAttr maps names to attributes. An operation's attribute dictionary is a
// DictAttr. Use SortedKeys for deterministic iteration.
type DictAttr map[string]Attr

func (DictAttr) attr() {}

// A is a shorthand for building a DictAttr entry.
type A struct {
	Name  string
	Value Attr
}

// Dict builds a DictAttr from entries.
//
//	ir.Dict(ir.A{"predicate", ir.StringAttr("slt")}, ir.A{"fastmath", ir.BoolAttr(true)})
func Dict(entries ...A) DictAttr {
	d := make(DictAttr, len(entries))
	for _, e := range entries {
		d[e.Name] = e.Value
	}
	return d
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units), the order
// used by both the canonical encoding and the printer.
func (d DictAttr) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// Clone returns a shallow copy of the dictionary. Attribute values are
// treated as immutable once attached to an operation.
func (d DictAttr) Clone() DictAttr {
	if d == nil {
		return nil
	}
	out := make(DictAttr, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// compareKeysUTF16 orders strings by UTF-16 code units.
// Go's native string comparison is by UTF-8 bytes, which differs for
// characters outside the BMP.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// EqualAttrs reports whether two attributes are deeply equal.
// A nil dictionary and an empty dictionary are equal.
func EqualAttrs(a, b Attr) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case StringAttr:
		bv, ok := b.(StringAttr)
		return ok && av == bv
	case IntAttr:
		bv, ok := b.(IntAttr)
		return ok && av == bv
	case BoolAttr:
		bv, ok := b.(BoolAttr)
		return ok && av == bv
	case ArrayAttr:
		bv, ok := b.(ArrayAttr)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !EqualAttrs(av[i], bv[i]) {
				return false
			}
		}
		return true
	case DictAttr:
		bv, ok := b.(DictAttr)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, found := bv[k]
			if !found || !EqualAttrs(x, y) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// AttrFromGo converts a decoded Go value (as produced by YAML or JSON
// decoders) into an Attr. Floats and nulls are rejected.
func AttrFromGo(v any) (Attr, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null attributes are not allowed")
	case Attr:
		return val, nil
	case string:
		return StringAttr(val), nil
	case int:
		return IntAttr(val), nil
	case int64:
		return IntAttr(val), nil
	case bool:
		return BoolAttr(val), nil
	case float32, float64:
		return nil, fmt.Errorf("float attributes are not allowed: %v", val)
	case []any:
		arr := make(ArrayAttr, len(val))
		for i, elem := range val {
			a, err := AttrFromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = a
		}
		return arr, nil
	case map[string]any:
		d := make(DictAttr, len(val))
		for k, elem := range val {
			a, err := AttrFromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			d[k] = a
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type: %T", v)
	}
}

// DictFromGo converts a decoded map into a DictAttr.
func DictFromGo(m map[string]any) (DictAttr, error) {
	if len(m) == 0 {
		return nil, nil
	}
	a, err := AttrFromGo(m)
	if err != nil {
		return nil, err
	}
	return a.(DictAttr), nil
}
