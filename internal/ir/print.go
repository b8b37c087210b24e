package ir

import (
	"strconv"
	"strings"
)

// Print renders op and everything nested in it in a generic textual form:
//
//	"builtin.module"() ({
//	^bb0:
//	  %0 = "test.source"() : () -> i32
//	  %1 = "arith.addi"(%0, %0) {overflow = "none"} : (i32, i32) -> i32
//	}) : () -> ()
//
// Values are numbered in print order and blocks by their position in the
// region, so structurally identical IR prints identically regardless of IDs.
func Print(op *Operation) string {
	p := &printer{names: make(map[*Value]string)}
	p.assignNames(op)
	p.printOp(op, "")
	return p.sb.String()
}

type printer struct {
	sb    strings.Builder
	names map[*Value]string
	next  int
}

func (p *printer) assignNames(op *Operation) {
	for _, r := range op.results {
		p.assign(r)
	}
	for _, region := range op.regions {
		for _, b := range region.blocks {
			for _, a := range b.args {
				p.assign(a)
			}
			for _, nested := range b.ops {
				p.assignNames(nested)
			}
		}
	}
}

func (p *printer) assign(v *Value) {
	p.names[v] = "%" + strconv.Itoa(p.next)
	p.next++
}

func (p *printer) valueName(v *Value) string {
	if n, ok := p.names[v]; ok {
		return n
	}
	return "%?"
}

func (p *printer) printOp(op *Operation, indent string) {
	sb := &p.sb
	sb.WriteString(indent)

	if len(op.results) > 0 {
		for i, r := range op.results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.valueName(r))
		}
		sb.WriteString(" = ")
	}

	sb.WriteString(`"` + op.kind + `"(`)
	for i, u := range op.operands {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.valueName(u.value))
	}
	sb.WriteString(")")

	if len(op.successors) > 0 {
		sb.WriteString("[")
		for i, s := range op.successors {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("^bb" + strconv.Itoa(s.Index()))
		}
		sb.WriteString("]")
	}

	if len(op.attrs) > 0 {
		sb.WriteString(" {")
		for i, k := range op.attrs.SortedKeys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k + " = ")
			if enc, err := MarshalCanonical(op.attrs[k]); err == nil {
				sb.Write(enc)
			} else {
				sb.WriteString("<invalid>")
			}
		}
		sb.WriteString("}")
	}

	if len(op.regions) > 0 {
		sb.WriteString(" (")
		for i, r := range op.regions {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.printRegion(r, indent)
		}
		sb.WriteString(")")
	}

	sb.WriteString(" : (")
	for i, u := range op.operands {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(u.value.typ))
	}
	sb.WriteString(") -> ")
	sb.WriteString(formatResultTypes(op.ResultTypes()))
	sb.WriteString("\n")
}

func (p *printer) printRegion(r *Region, indent string) {
	sb := &p.sb
	sb.WriteString("{\n")
	for i, b := range r.blocks {
		sb.WriteString(indent + "^bb" + strconv.Itoa(i))
		if len(b.args) > 0 {
			sb.WriteString("(")
			for j, a := range b.args {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(p.valueName(a) + ": " + string(a.typ))
			}
			sb.WriteString(")")
		}
		sb.WriteString(":\n")
		for _, op := range b.ops {
			p.printOp(op, indent+"  ")
		}
	}
	sb.WriteString(indent + "}")
}

func formatResultTypes(types []Type) string {
	switch len(types) {
	case 0:
		return "()"
	case 1:
		return string(types[0])
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
