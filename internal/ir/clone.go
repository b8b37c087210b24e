package ir

// Clone returns a structurally identical deep copy of the module.
//
// IDs in the copy are assigned afresh in pre-order, so the copy is
// independent of any erase history in m. Operands are wired after the
// whole structure exists, which keeps forward references across blocks
// intact.
func (m *Module) Clone() *Module {
	c := &cloner{
		dst: &Module{
			ops:    []*Operation{nil},
			values: []*Value{nil},
		},
		values: make(map[*Value]*Value),
		blocks: make(map[*Block]*Block),
	}
	c.dst.root = c.op(m.root)
	c.wireOperands()
	return c.dst
}

type cloner struct {
	dst     *Module
	values  map[*Value]*Value
	blocks  map[*Block]*Block
	pending [][2]*Operation // (source, copy) pairs awaiting operands
}

func (c *cloner) op(src *Operation) *Operation {
	dst := c.dst.Create(OperationState{
		Kind:        src.kind,
		ResultTypes: src.ResultTypes(),
		Attrs:       src.attrs,
		Regions:     len(src.regions),
	})
	for i, r := range src.results {
		c.values[r] = dst.results[i]
	}
	c.pending = append(c.pending, [2]*Operation{src, dst})

	for i, r := range src.regions {
		c.region(r, dst.regions[i])
	}
	return dst
}

func (c *cloner) region(src, dst *Region) {
	// Create every block first so successors can be resolved.
	for _, b := range src.blocks {
		nb := dst.AddBlock()
		for _, a := range b.args {
			c.values[a] = nb.AddArg(a.typ)
		}
		c.blocks[b] = nb
	}
	for _, b := range src.blocks {
		nb := c.blocks[b]
		for _, o := range b.ops {
			nb.Append(c.op(o))
		}
	}
}

func (c *cloner) wireOperands() {
	for _, p := range c.pending {
		src, dst := p[0], p[1]
		for _, u := range src.operands {
			v, ok := c.values[u.value]
			if !ok {
				// Only reachable for values defined outside the module.
				continue
			}
			dst.appendOperand(v)
		}
		for _, s := range src.successors {
			dst.successors = append(dst.successors, c.blocks[s])
		}
	}
}
