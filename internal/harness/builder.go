package harness

import (
	"fmt"

	"github.com/roach88/trackcse/internal/ir"
)

// Built is the IR of a scenario with its names resolved.
type Built struct {
	Module *ir.Module

	// Ops maps labels to operations.
	Ops map[string]*ir.Operation

	labels map[ir.OpID]string
}

// Label returns the label of the operation with the given ID, or "op<ID>"
// for unlabeled operations.
func (b *Built) Label(id ir.OpID) string {
	if l, ok := b.labels[id]; ok {
		return l
	}
	return fmt.Sprintf("op%d", id)
}

type builder struct {
	built  *Built
	values map[string]*ir.Value
}

// BuildIR creates a module whose body holds decls.
//
// Operand names must be defined before use, in program order. Block
// arguments and block labels of a region are visible to every block of it,
// so forward successors work.
func BuildIR(decls []OpDecl) (*Built, error) {
	mod := ir.NewModule()
	b := &builder{
		built: &Built{
			Module: mod,
			Ops:    make(map[string]*ir.Operation),
			labels: make(map[ir.OpID]string),
		},
		values: make(map[string]*ir.Value),
	}
	if err := b.ops(mod.Body(), decls, nil, "ir"); err != nil {
		return nil, err
	}
	return b.built, nil
}

func (b *builder) ops(blk *ir.Block, decls []OpDecl, blocks map[string]*ir.Block, path string) error {
	bld := ir.NewBuilder(blk)
	for i, d := range decls {
		p := fmt.Sprintf("%s[%d]", path, i)
		if err := b.op(bld, d, blocks, p); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) op(bld *ir.Builder, d OpDecl, blocks map[string]*ir.Block, path string) error {
	st := ir.OperationState{Kind: d.Op, Regions: len(d.Regions)}

	for _, name := range d.Operands {
		v, ok := b.values[name]
		if !ok {
			return fmt.Errorf("%s: undefined value %q", path, name)
		}
		st.Operands = append(st.Operands, v)
	}

	resultNames := make([]string, len(d.Results))
	for i, r := range d.Results {
		name, typ, err := splitTyped(r)
		if err != nil {
			return fmt.Errorf("%s.results[%d]: %w", path, i, err)
		}
		if _, dup := b.values[name]; dup {
			return fmt.Errorf("%s: value %q defined twice", path, name)
		}
		resultNames[i] = name
		st.ResultTypes = append(st.ResultTypes, ir.Type(typ))
	}

	attrs, err := ir.DictFromGo(d.Attrs)
	if err != nil {
		return fmt.Errorf("%s.attrs: %w", path, err)
	}
	st.Attrs = attrs

	for _, name := range d.Successors {
		s, ok := blocks[name]
		if !ok {
			return fmt.Errorf("%s: undefined block %q", path, name)
		}
		st.Successors = append(st.Successors, s)
	}

	op := bld.Create(st)
	for i, name := range resultNames {
		b.values[name] = op.Result(i)
	}

	label := d.Label
	if label == "" && len(resultNames) > 0 {
		label = resultNames[0]
	}
	if label != "" {
		if _, dup := b.built.Ops[label]; dup {
			return fmt.Errorf("%s: label %q used twice", path, label)
		}
		b.built.Ops[label] = op
		b.built.labels[op.ID()] = label
	}

	for i, rd := range d.Regions {
		if err := b.region(op.Region(i), rd, fmt.Sprintf("%s.regions[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// region creates every block and its arguments first, then fills them.
func (b *builder) region(r *ir.Region, d RegionDecl, path string) error {
	blocks := make(map[string]*ir.Block)
	created := make([]*ir.Block, len(d.Blocks))
	for i, bd := range d.Blocks {
		blk := r.AddBlock()
		for j, a := range bd.Args {
			name, typ, err := splitTyped(a)
			if err != nil {
				return fmt.Errorf("%s.blocks[%d].args[%d]: %w", path, i, j, err)
			}
			if _, dup := b.values[name]; dup {
				return fmt.Errorf("%s.blocks[%d]: value %q defined twice", path, i, name)
			}
			b.values[name] = blk.AddArg(ir.Type(typ))
		}
		if bd.Label != "" {
			if _, dup := blocks[bd.Label]; dup {
				return fmt.Errorf("%s.blocks[%d]: block label %q used twice", path, i, bd.Label)
			}
			blocks[bd.Label] = blk
		}
		created[i] = blk
	}
	for i, bd := range d.Blocks {
		if err := b.ops(created[i], bd.Ops, blocks, fmt.Sprintf("%s.blocks[%d].ops", path, i)); err != nil {
			return err
		}
	}
	return nil
}
