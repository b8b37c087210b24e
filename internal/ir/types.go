package ir

import "strings"

// OpID identifies an operation within its Module. The zero OpID is never
// assigned and means "no operation".
type OpID int64

// ValueID identifies a value within its Module. The zero ValueID is never
// assigned.
type ValueID int64

// Type is an opaque value type such as "i32", "index" or "tensor<4xf32>".
// Types compare by string equality.
type Type string

// OperationState collects everything needed to create an operation.
type OperationState struct {
	Kind        string
	Operands    []*Value
	ResultTypes []Type
	Attrs       DictAttr
	Regions     int
	Successors  []*Block
}

// DialectOf returns the dialect prefix of an operation kind:
// "arith" for "arith.addi". Kinds without a dot have no dialect.
func DialectOf(kind string) string {
	if i := strings.IndexByte(kind, '.'); i >= 0 {
		return kind[:i]
	}
	return ""
}
