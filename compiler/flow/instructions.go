package flow

import (
	"github.com/slowlang/mlogc/compiler/mlog"
	"github.com/slowlang/mlogc/compiler/pos"
)

type (
	// Instr is a block instruction.
	Instr interface {
		Location() *pos.Loc
		ToMlog(c *Context) ([]mlog.Instruction, error)

		instr()
	}

	// Terminator ends a block and decides where control goes next.
	Terminator interface {
		Location() *pos.Loc

		terminator()
	}

	// Lowerable instructions are virtual.
	// They are replaced by concrete ones by Graph.Lower.
	Lowerable interface {
		Instr

		Lower(c *Context, cur *Cursor) error
	}

	// NativeArg is either an ImmutableID or a Keyword.
	NativeArg interface {
		nativeArg()
	}

	Keyword string

	Load struct {
		Address GlobalID
		Out     ImmutableID

		Source *pos.Loc
	}

	Store struct {
		Address GlobalID
		Value   ImmutableID

		Source *pos.Loc
	}

	ValueGet struct {
		Object ImmutableID
		Key    ImmutableID
		Out    ImmutableID

		// Result is null if the object is null.
		OptionalObject bool
		// Result is null if the object has no such property.
		OptionalKey bool

		Source *pos.Loc
	}

	ValueSet struct {
		Target ImmutableID
		Key    ImmutableID
		Value  ImmutableID

		Source *pos.Loc
	}

	BinaryOp struct {
		Op    Op
		Left  ImmutableID
		Right ImmutableID
		Out   ImmutableID

		Source *pos.Loc
	}

	UnaryOp struct {
		Op    Op
		Value ImmutableID
		Out   ImmutableID

		Source *pos.Loc
	}

	Call struct {
		Callee ImmutableID
		Args   []ImmutableID
		Out    ImmutableID

		Source *pos.Loc
	}

	// Native is a single VM instruction.
	// Args are rendered in order, Inputs and Outputs are for bookkeeping only.
	Native struct {
		Args    []NativeArg
		Inputs  []ImmutableID
		Outputs []ImmutableID

		Source *pos.Loc
	}

	// Asm is a verbatim sequence of VM instructions.
	Asm struct {
		Lines   [][]NativeArg
		Inputs  []ImmutableID
		Outputs []ImmutableID

		Source *pos.Loc
	}

	Break struct {
		Target Edge

		Source *pos.Loc
	}

	// BreakIf goes to Consequent if Condition is not zero and to Alternate otherwise.
	BreakIf struct {
		Condition  ImmutableID
		Consequent Edge
		Alternate  Edge

		Source *pos.Loc
	}

	Return struct {
		Value ImmutableID

		Source *pos.Loc
	}

	End struct {
		Source *pos.Loc
	}

	// EndIf ends the run if Condition is not zero and goes to Alternate otherwise.
	EndIf struct {
		Condition ImmutableID
		Alternate Edge

		Source *pos.Loc
	}

	Stop struct {
		Source *pos.Loc
	}
)

var (
	_ Lowerable = &ValueGet{}
	_ Lowerable = &ValueSet{}
	_ Lowerable = &Call{}
)

func (*Load) instr()     {}
func (*Store) instr()    {}
func (*ValueGet) instr() {}
func (*ValueSet) instr() {}
func (*BinaryOp) instr() {}
func (*UnaryOp) instr()  {}
func (*Call) instr()     {}
func (*Native) instr()   {}
func (*Asm) instr()      {}

func (*Break) terminator()   {}
func (*BreakIf) terminator() {}
func (*Return) terminator()  {}
func (*End) terminator()     {}
func (*EndIf) terminator()   {}
func (*Stop) terminator()    {}

func (ImmutableID) nativeArg() {}
func (Keyword) nativeArg()     {}

func (x *Load) Location() *pos.Loc     { return x.Source }
func (x *Store) Location() *pos.Loc    { return x.Source }
func (x *ValueGet) Location() *pos.Loc { return x.Source }
func (x *ValueSet) Location() *pos.Loc { return x.Source }
func (x *BinaryOp) Location() *pos.Loc { return x.Source }
func (x *UnaryOp) Location() *pos.Loc  { return x.Source }
func (x *Call) Location() *pos.Loc     { return x.Source }
func (x *Native) Location() *pos.Loc   { return x.Source }
func (x *Asm) Location() *pos.Loc      { return x.Source }
func (x *Break) Location() *pos.Loc    { return x.Source }
func (x *BreakIf) Location() *pos.Loc  { return x.Source }
func (x *Return) Location() *pos.Loc   { return x.Source }
func (x *End) Location() *pos.Loc      { return x.Source }
func (x *EndIf) Location() *pos.Loc    { return x.Source }
func (x *Stop) Location() *pos.Loc     { return x.Source }

func (k Keyword) MlogString() string { return string(k) }

// Inputs returns ids read by x.
func Inputs(x Instr) []ImmutableID {
	switch x := x.(type) {
	case *Load:
		return nil
	case *Store:
		return []ImmutableID{x.Value}
	case *ValueGet:
		return []ImmutableID{x.Object, x.Key}
	case *ValueSet:
		return []ImmutableID{x.Target, x.Key, x.Value}
	case *BinaryOp:
		return []ImmutableID{x.Left, x.Right}
	case *UnaryOp:
		return []ImmutableID{x.Value}
	case *Call:
		return append([]ImmutableID{x.Callee}, x.Args...)
	case *Native:
		return x.Inputs
	case *Asm:
		return x.Inputs
	default:
		panic(x)
	}
}

// Outputs returns ids written by x.
func Outputs(x Instr) []ImmutableID {
	switch x := x.(type) {
	case *Load:
		return []ImmutableID{x.Out}
	case *Store, *ValueSet:
		return nil
	case *ValueGet:
		return []ImmutableID{x.Out}
	case *BinaryOp:
		return []ImmutableID{x.Out}
	case *UnaryOp:
		return []ImmutableID{x.Out}
	case *Call:
		return []ImmutableID{x.Out}
	case *Native:
		return x.Outputs
	case *Asm:
		return x.Outputs
	default:
		panic(x)
	}
}

// TerminatorInputs returns ids read by a terminator.
func TerminatorInputs(t Terminator) []ImmutableID {
	switch t := t.(type) {
	case *BreakIf:
		return []ImmutableID{t.Condition}
	case *EndIf:
		return []ImmutableID{t.Condition}
	case *Return:
		return []ImmutableID{t.Value}
	case *Break, *End, *Stop, nil:
		return nil
	default:
		panic(t)
	}
}

// Edges returns outgoing edges of a terminator.
// BreakIf edges are in consequent, alternate order.
func Edges(t Terminator) []Edge {
	switch t := t.(type) {
	case *Break:
		return []Edge{t.Target}
	case *BreakIf:
		return []Edge{t.Consequent, t.Alternate}
	case *EndIf:
		return []Edge{t.Alternate}
	default:
		return nil
	}
}

func (x *Load) ToMlog(c *Context) ([]mlog.Instruction, error) {
	return x.inst(mlog.New("set", c.ValueOrTemp(x.Out), c.ValueOrTemp(x.Address))), nil
}

func (x *Store) ToMlog(c *Context) ([]mlog.Instruction, error) {
	return x.inst(mlog.New("set", c.ValueOrTemp(x.Address), c.ValueOrTemp(x.Value))), nil
}

func (x *BinaryOp) ToMlog(c *Context) ([]mlog.Instruction, error) {
	i := mlog.New("op", mlog.Token(x.Op), c.ValueOrTemp(x.Out), c.ValueOrTemp(x.Left), c.ValueOrTemp(x.Right))
	i.Loc = x.Source

	return []mlog.Instruction{i}, nil
}

func (x *UnaryOp) ToMlog(c *Context) ([]mlog.Instruction, error) {
	i := mlog.New("op", mlog.Token(x.Op), c.ValueOrTemp(x.Out), c.ValueOrTemp(x.Value))
	i.Loc = x.Source

	return []mlog.Instruction{i}, nil
}

func (x *Native) ToMlog(c *Context) ([]mlog.Instruction, error) {
	i, err := nativeLine(c, x.Args, x.Source)
	if err != nil {
		return nil, err
	}

	return []mlog.Instruction{i}, nil
}

func (x *Asm) ToMlog(c *Context) (r []mlog.Instruction, err error) {
	for _, l := range x.Lines {
		i, err := nativeLine(c, l, x.Source)
		if err != nil {
			return nil, err
		}

		r = append(r, i)
	}

	return r, nil
}

func (x *ValueGet) ToMlog(c *Context) ([]mlog.Instruction, error) {
	return nil, Internalf(x.Source, "virtual value get reached emission")
}

func (x *ValueSet) ToMlog(c *Context) ([]mlog.Instruction, error) {
	return nil, Internalf(x.Source, "virtual value set reached emission")
}

func (x *Call) ToMlog(c *Context) ([]mlog.Instruction, error) {
	return nil, Internalf(x.Source, "virtual call reached emission")
}

func (x *Load) inst(i mlog.Instruction) []mlog.Instruction {
	i.Loc = x.Source
	return []mlog.Instruction{i}
}

func (x *Store) inst(i mlog.Instruction) []mlog.Instruction {
	i.Loc = x.Source
	return []mlog.Instruction{i}
}

func nativeLine(c *Context, args []NativeArg, l *pos.Loc) (mlog.Instruction, error) {
	if len(args) == 0 {
		return mlog.Instruction{}, Internalf(l, "empty native instruction")
	}

	op, ok := args[0].(Keyword)
	if !ok {
		return mlog.Instruction{}, Internalf(l, "native instruction must start with a keyword")
	}

	i := mlog.Instruction{Op: string(op), Loc: l}

	for _, a := range args[1:] {
		switch a := a.(type) {
		case Keyword:
			i.Args = append(i.Args, mlog.Token(a))
		case ImmutableID:
			i.Args = append(i.Args, c.ValueOrTemp(a))
		}
	}

	return i, nil
}
