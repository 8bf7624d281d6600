// Package format renders flow graphs as flow assembly text and as Graphviz DOT.
package format

import (
	"context"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/mlogc/compiler/flow"
	"github.com/slowlang/mlogc/compiler/values"
)

type (
	// names numbers blocks and values in order of appearance,
	// so formatting is stable across parse and format round trips.
	names struct {
		c *flow.Context

		blocks map[flow.BlockID]int
		imms   map[int32]int
	}
)

// Format appends the graph in flow assembly, blocks in traversal order.
func Format(ctx context.Context, b []byte, g *flow.Graph) (_ []byte, err error) {
	n := newNames(g)

	g.Traverse(func(blk *flow.Block) {
		if err != nil {
			return
		}

		b, err = n.formatBlock(b, blk, 1)
		if err != nil {
			err = errors.Wrap(err, "block %v", blk.ID)
		}
	})

	if err != nil {
		return nil, err
	}

	return b, nil
}

func newNames(g *flow.Graph) *names {
	n := &names{
		c:      g.Context(),
		blocks: map[flow.BlockID]int{},
		imms:   map[int32]int{},
	}

	g.Traverse(func(b *flow.Block) {
		n.blocks[b.ID] = len(n.blocks)
	})

	return n
}

func (n *names) formatBlock(b []byte, x *flow.Block, d int) (_ []byte, err error) {
	b = app(b, 0, "%s:\n", n.block(x.ID))

	l := &x.Instructions

	for id := l.Head(); id != flow.NoNode; id = l.Next(id) {
		b = app(b, d, "")

		b, err = n.formatInstr(b, l.At(id))
		if err != nil {
			return nil, err
		}

		b = append(b, '\n')
	}

	b = app(b, d, "")

	b, err = n.formatTerminator(b, x.Term)
	if err != nil {
		return nil, err
	}

	b = append(b, '\n')

	return b, nil
}

func (n *names) formatInstr(b []byte, x flow.Instr) ([]byte, error) {
	switch x := x.(type) {
	case *flow.Load:
		b = app(b, 0, "%s = load %s", n.imm(x.Out), n.global(x.Address))
	case *flow.Store:
		b = app(b, 0, "store %s %s", n.global(x.Address), n.value(x.Value))
	case *flow.BinaryOp:
		b = app(b, 0, "%s = op %s %s %s", n.imm(x.Out), x.Op, n.value(x.Left), n.value(x.Right))
	case *flow.UnaryOp:
		b = app(b, 0, "%s = unop %s %s", n.imm(x.Out), x.Op, n.value(x.Value))
	case *flow.ValueGet:
		b = app(b, 0, "%s = get %s %s", n.imm(x.Out), n.value(x.Object), n.value(x.Key))

		if x.OptionalObject {
			b = append(b, " optional-object"...)
		}

		if x.OptionalKey {
			b = append(b, " optional-key"...)
		}
	case *flow.ValueSet:
		b = app(b, 0, "set %s %s %s", n.value(x.Target), n.value(x.Key), n.value(x.Value))
	case *flow.Call:
		b = app(b, 0, "%s = call %s", n.imm(x.Out), n.value(x.Callee))

		for _, a := range x.Args {
			b = append(b, ' ')
			b = append(b, n.value(a)...)
		}
	case *flow.Native:
		b = append(b, "native "...)
		b = n.formatNative(b, x.Args, x.Outputs)
	case *flow.Asm:
		b = append(b, "asm "...)

		for i, l := range x.Lines {
			if i != 0 {
				b = append(b, " ; "...)
			}

			b = n.formatNative(b, l, x.Outputs)
		}
	default:
		return nil, errors.New("unsupported instruction: %T", x)
	}

	return b, nil
}

func (n *names) formatNative(b []byte, args []flow.NativeArg, outs []flow.ImmutableID) []byte {
	for i, a := range args {
		if i != 0 {
			b = append(b, ' ')
		}

		switch a := a.(type) {
		case flow.Keyword:
			b = append(b, a...)
		case flow.ImmutableID:
			if isOutput(a, outs) {
				b = append(b, '>')
				b = append(b, n.imm(a)...)
			} else {
				b = append(b, n.value(a)...)
			}
		}
	}

	return b
}

func (n *names) formatTerminator(b []byte, t flow.Terminator) ([]byte, error) {
	switch t := t.(type) {
	case *flow.Break:
		b = app(b, 0, "break %s", n.edge(t.Target))
	case *flow.BreakIf:
		b = app(b, 0, "break-if %s %s %s", n.value(t.Condition), n.edge(t.Consequent), n.edge(t.Alternate))
	case *flow.EndIf:
		b = app(b, 0, "end-if %s %s", n.value(t.Condition), n.edge(t.Alternate))
	case *flow.Return:
		b = app(b, 0, "return %s", n.value(t.Value))
	case *flow.End:
		b = append(b, "end"...)
	case *flow.Stop:
		b = append(b, "stop"...)
	default:
		return nil, errors.New("unsupported terminator: %T", t)
	}

	return b, nil
}

func (n *names) block(id flow.BlockID) string {
	i, ok := n.blocks[id]
	if !ok {
		return "unreachable" + strconv.Itoa(int(id))
	}

	return "b" + strconv.Itoa(i)
}

func (n *names) edge(e flow.Edge) string {
	if e.Back {
		return "^" + n.block(e.To)
	}

	return n.block(e.To)
}

// imm names an id in assignment position.
func (n *names) imm(id flow.ImmutableID) string {
	r := n.c.Resolve(id)

	if g, ok := r.(flow.GlobalID); ok {
		return n.global(g)
	}

	num := r.Num()

	i, ok := n.imms[num]
	if !ok {
		i = len(n.imms)
		n.imms[num] = i
	}

	return "%" + strconv.Itoa(i)
}

// value names an id in operand position. Known values are inlined.
func (n *names) value(id flow.ImmutableID) string {
	switch v := n.c.Value(id).(type) {
	case *flow.Literal:
		return v.MlogString()
	case *flow.StoreValue:
		if v.Constant {
			return v.Name
		}
	case *values.Command:
		return v.Name
	case *values.Namespace:
		return v.Name
	case *values.Object:
		return v.Name
	}

	return n.imm(id)
}

func (n *names) global(id flow.GlobalID) string {
	if name, ok := n.c.ValueName(id); ok {
		return "$" + name
	}

	return "$g" + strconv.Itoa(int(id))
}

func isOutput(id flow.ImmutableID, outs []flow.ImmutableID) bool {
	for _, o := range outs {
		if o == id {
			return true
		}
	}

	return false
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
