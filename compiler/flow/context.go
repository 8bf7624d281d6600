package flow

import (
	"strconv"

	"github.com/slowlang/mlogc/compiler/set"
)

type (
	Options struct {
		// CompactNames makes generated temporaries shorter.
		CompactNames bool

		// OptimizeGlobals enables store to load forwarding inside single-predecessor chains.
		OptimizeGlobals bool
	}

	// Context owns everything of one compilation unit:
	// value identities, bound values, names, blocks and instruction nodes.
	// It is not safe for concurrent use.
	Context struct {
		Options

		// alias[id] is the id it was redirected to or -1.
		alias  []int32
		values []Value
		global set.Bits[int32]

		names map[int32]string
		ids   map[string]ValueID

		temps int

		blocks []*Block
		arena  arena
	}
)

func NewContext(opts Options) *Context {
	c := &Context{
		Options: opts,
		names:   make(map[int32]string),
		ids:     make(map[string]ValueID),
	}

	null := c.RegisterValue(Null())
	if null != NullID {
		panic(null)
	}

	return c
}

func (c *Context) NullID() ImmutableID { return NullID }

func (c *Context) CreateImmutableID() ImmutableID {
	return ImmutableID(c.newID())
}

func (c *Context) CreateGlobalID() GlobalID {
	id := c.newID()

	c.global.Set(id)

	return GlobalID(id)
}

func (c *Context) newID() int32 {
	id := int32(len(c.alias))

	c.alias = append(c.alias, -1)
	c.values = append(c.values, nil)

	return id
}

// RegisterValue creates a new ImmutableID bound to v.
func (c *Context) RegisterValue(v Value) ImmutableID {
	id := c.CreateImmutableID()

	c.values[id] = v

	return id
}

// Resolve follows alias redirections to the id that owns the value.
// GlobalIDs resolve to themselves.
func (c *Context) Resolve(id ValueID) ValueID {
	return c.idOf(c.resolve(id.Num()))
}

func (c *Context) resolve(n int32) int32 {
	for c.alias[n] >= 0 {
		n = c.alias[n]
	}

	return n
}

func (c *Context) idOf(n int32) ValueID {
	if c.global.IsSet(n) {
		return GlobalID(n)
	}

	return ImmutableID(n)
}

// SetAlias redirects alias to whatever original currently resolves to.
// The redirection is stored already resolved, reads still follow chains
// because the original itself may be aliased later.
//
// If alias has a name and the original doesn't, the name moves to the original,
// so user chosen names survive against generated temporaries.
func (c *Context) SetAlias(alias ImmutableID, original ValueID) {
	a := int32(alias)
	o := c.resolve(original.Num())
	ra := c.resolve(a)

	if ra == o {
		return
	}

	if name, ok := c.names[ra]; ok {
		if _, ok := c.names[o]; !ok {
			c.setName(o, name)
		}
	}

	c.alias[a] = o
}

// Value returns the value bound to id after resolution or nil.
func (c *Context) Value(id ValueID) Value {
	return c.values[c.resolve(id.Num())]
}

// ValueOrTemp is like Value but binds a fresh StoreValue to unbound ids.
func (c *Context) ValueOrTemp(id ValueID) Value {
	if v := c.Value(id); v != nil {
		return v
	}

	name, ok := c.ValueName(id)
	if !ok {
		name = c.tempName()
	}

	s := &StoreValue{Name: name, Temporary: !ok}

	c.SetValue(id, s)

	return s
}

func (c *Context) SetValue(id ValueID, v Value) {
	c.values[c.resolve(id.Num())] = v
}

func (c *Context) ValueName(id ValueID) (string, bool) {
	name, ok := c.names[c.resolve(id.Num())]
	return name, ok
}

func (c *Context) SetValueName(id ValueID, name string) {
	c.setName(c.resolve(id.Num()), name)
}

// ValueIDByName returns the id the name was last given to.
func (c *Context) ValueIDByName(name string) (ValueID, bool) {
	id, ok := c.ids[name]
	return id, ok
}

func (c *Context) setName(n int32, name string) {
	c.names[n] = name
	c.ids[name] = c.idOf(n)
}

func (c *Context) tempName() string {
	n := c.temps
	c.temps++

	if c.CompactNames {
		return "&" + strconv.FormatInt(int64(n), 36)
	}

	return "&t" + strconv.Itoa(n)
}

// NewBlock allocates an empty block without a terminator.
func (c *Context) NewBlock() *Block {
	b := &Block{
		ID:           BlockID(len(c.blocks)),
		c:            c,
		Instructions: InstructionList{a: &c.arena, head: noNode, tail: noNode},
	}

	c.blocks = append(c.blocks, b)

	return b
}

func (c *Context) Block(id BlockID) *Block {
	return c.blocks[id]
}

func (c *Context) NumBlocks() int { return len(c.blocks) }
