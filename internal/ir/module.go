package ir

// ModuleKind is the kind of every module's root operation.
const ModuleKind = "builtin.module"

// Module is the arena owning a tree of operations.
//
// Operation and value IDs index into the arena. Slot 0 is reserved so the
// zero ID never refers to anything. Erased entries become nil and IDs are
// never reused.
type Module struct {
	ops    []*Operation
	values []*Value
	root   *Operation
	live   int
}

// NewModule creates a module whose root has one region with one empty block.
func NewModule() *Module {
	m := &Module{
		ops:    []*Operation{nil},
		values: []*Value{nil},
	}
	m.root = m.Create(OperationState{Kind: ModuleKind, Regions: 1})
	m.root.regions[0].AddBlock()
	return m
}

// Root returns the root operation.
func (m *Module) Root() *Operation { return m.root }

// Body returns the root's single block.
func (m *Module) Body() *Block { return m.root.regions[0].blocks[0] }

// Op returns the live operation with the given ID, or nil if the ID was
// never assigned or the operation was erased.
func (m *Module) Op(id OpID) *Operation {
	if id <= 0 || int(id) >= len(m.ops) {
		return nil
	}
	return m.ops[id]
}

// Value returns the live value with the given ID, or nil.
func (m *Module) Value(id ValueID) *Value {
	if id <= 0 || int(id) >= len(m.values) {
		return nil
	}
	return m.values[id]
}

// NumOps returns the number of live operations, root included.
func (m *Module) NumOps() int { return m.live }

// Create builds a detached operation. Attach it with Block.Append or create
// it through a Builder.
func (m *Module) Create(st OperationState) *Operation {
	op := &Operation{
		id:         OpID(len(m.ops)),
		module:     m,
		kind:       st.Kind,
		attrs:      st.Attrs.Clone(),
		successors: append([]*Block(nil), st.Successors...),
	}
	m.ops = append(m.ops, op)
	m.live++

	for _, v := range st.Operands {
		op.appendOperand(v)
	}
	for i, t := range st.ResultTypes {
		r := m.newValue(t)
		r.def = op
		r.index = i
		op.results = append(op.results, r)
	}
	for i := 0; i < st.Regions; i++ {
		op.regions = append(op.regions, &Region{op: op, index: i})
	}
	return op
}

func (m *Module) newValue(t Type) *Value {
	v := &Value{id: ValueID(len(m.values)), typ: t}
	m.values = append(m.values, v)
	return v
}

// release drops an erased operation and the values it defines from the arena.
func (m *Module) release(op *Operation) {
	if m.ops[op.id] == op {
		m.ops[op.id] = nil
		m.live--
	}
	for _, r := range op.results {
		m.values[r.id] = nil
	}
	for _, region := range op.regions {
		for _, b := range region.blocks {
			for _, a := range b.args {
				m.values[a.id] = nil
			}
		}
	}
}

// Builder appends operations at the end of a block.
type Builder struct {
	block *Block
}

// NewBuilder returns a builder inserting at the end of b.
func NewBuilder(b *Block) *Builder {
	return &Builder{block: b}
}

// SetInsertionPointToEnd moves the insertion point to the end of b.
func (bld *Builder) SetInsertionPointToEnd(b *Block) {
	bld.block = b
}

// Block returns the current insertion block.
func (bld *Builder) Block() *Block { return bld.block }

// Create creates an operation and appends it to the insertion block.
func (bld *Builder) Create(st OperationState) *Operation {
	op := bld.block.region.op.module.Create(st)
	bld.block.Append(op)
	return op
}

// Op is a shorthand for a region-free, successor-free operation.
func (bld *Builder) Op(kind string, operands []*Value, resultTypes []Type, attrs DictAttr) *Operation {
	return bld.Create(OperationState{
		Kind:        kind,
		Operands:    operands,
		ResultTypes: resultTypes,
		Attrs:       attrs,
	})
}
