package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Attr
		expected string
	}{
		{"string", StringAttr("hello"), `"hello"`},
		{"empty string", StringAttr(""), `""`},
		{"int", IntAttr(42), "42"},
		{"negative int", IntAttr(-100), "-100"},
		{"max int64", IntAttr(9223372036854775807), "9223372036854775807"},
		{"bool", BoolAttr(false), "false"},
		{"empty array", ArrayAttr{}, "[]"},
		{"empty dict", DictAttr{}, "{}"},
		{"array", ArrayAttr{IntAttr(1), StringAttr("a")}, `[1,"a"]`},
		{"sorted keys", DictAttr{"z": IntAttr(1), "a": IntAttr(2)}, `{"a":2,"z":1}`},
		{"nested", DictAttr{"n": DictAttr{"b": IntAttr(1), "a": IntAttr(2)}}, `{"n":{"a":2,"b":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"control character", "a\nb", `"a\nb"`},
		{"nfc normalization", "e\u0301", "\"\u00e9\""},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"paragraph separator literal", "a\u2029b", "\"a\u2029b\""},
		{"escaped backslash before u2028 text", `\u2028`, `"\\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(StringAttr(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalRejectsNil(t *testing.T) {
	_, err := MarshalCanonical(DictAttr{"a": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)

	_, err = MarshalCanonical(ArrayAttr{IntAttr(1), nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[1]")
}

func TestMarshalCanonicalEqualAttrsEncodeEqual(t *testing.T) {
	a := Dict(A{"x", IntAttr(1)}, A{"y", ArrayAttr{StringAttr("\u00e9")}})
	b := Dict(A{"y", ArrayAttr{StringAttr("e\u0301")}}, A{"x", IntAttr(1)})

	ea, err := MarshalCanonical(a)
	require.NoError(t, err)
	eb, err := MarshalCanonical(b)
	require.NoError(t, err)
	assert.Equal(t, ea, eb)
}
