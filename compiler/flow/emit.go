package flow

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/mlogc/compiler/mlog"
	"github.com/slowlang/mlogc/compiler/pos"
	"github.com/slowlang/mlogc/compiler/set"
)

// ToMlog lowers, optimizes and emits the graph.
// The graph must not be used afterwards.
func (g *Graph) ToMlog(ctx context.Context) (code []mlog.Instruction, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "flow: to mlog", "start", g.Start, "end", g.End)
	defer tr.Finish("err", &err)

	err = g.Lower()
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}

	g.Optimize(ctx)

	code, err = g.Emit()
	if err != nil {
		return nil, errors.Wrap(err, "emit")
	}

	tr.V("emit").Printw("emitted", "instructions", len(code))

	return code, nil
}

// Layout orders blocks for emission.
// A block goes after all of its forward parents,
// children are visited alternate first so that the alternate falls through from the branch.
func (g *Graph) Layout() []*Block {
	g.SetParents()

	var visited set.Bits[BlockID]
	var layout []*Block

	var walk func(id BlockID)
	walk = func(id BlockID) {
		if visited.IsSet(id) {
			return
		}

		b := g.c.Block(id)

		for _, p := range b.ForwardParents() {
			if !visited.IsSet(p) {
				return
			}
		}

		visited.Set(id)
		layout = append(layout, b)

		edges := b.ChildEdges()

		for i := len(edges) - 1; i >= 0; i-- {
			if edges[i].Back {
				continue
			}

			walk(edges[i].To)
		}
	}

	walk(g.Start)

	return layout
}

// Emit linearizes the graph. Lower must have been called.
func (g *Graph) Emit() (code []mlog.Instruction, err error) {
	layout := g.Layout()

	if err := g.checkLayout(layout); err != nil {
		return nil, err
	}

	addr := make(map[BlockID]*mlog.Address, len(layout))

	for _, b := range layout {
		addr[b.ID] = &mlog.Address{}
	}

	r := g.Readers()

	for i, b := range layout {
		addr[b.ID].Resolve(len(code))

		next := NoBlock
		if i+1 < len(layout) {
			next = layout[i+1].ID
		}

		fn, fused := b.ConditionInstruction()
		if fused != nil && !g.fusable(b, fn, fused, r) {
			fn, fused = NoNode, nil
		}

		l := &b.Instructions

		for n := l.Head(); n != NoNode; n = l.Next(n) {
			if n == fn {
				continue
			}

			ms, err := l.At(n).ToMlog(g.c)
			if err != nil {
				return nil, err
			}

			code = append(code, ms...)
		}

		jump := func(e Edge, l *pos.Loc) {
			if e.To == next {
				return
			}

			j := mlog.Jump(addr[e.To], mlog.Always, nil, nil)
			j.Loc = l

			code = append(code, j)
		}

		switch t := b.Term.(type) {
		case *Break:
			jump(t.Target, t.Source)
		case *BreakIf:
			code = append(code, g.condJump(addr[t.Consequent.To], t.Condition, fused, t.Source))
			jump(t.Alternate, t.Source)
		case *EndIf:
			code = append(code, g.condJump(mlog.Zero, t.Condition, fused, t.Source))
			jump(t.Alternate, t.Source)
		case *End:
			i := mlog.New("end")
			i.Loc = t.Source

			code = append(code, i)
		case *Stop:
			i := mlog.New("stop")
			i.Loc = t.Source

			code = append(code, i)
		case *Return:
			return nil, Internalf(t.Source, "return outside of a function")
		case nil:
			return nil, Internalf(nil, "block %v has no terminator", b.ID)
		default:
			return nil, Internalf(t.Location(), "unsupported terminator: %T", t)
		}
	}

	return code, nil
}

// checkLayout makes sure every reachable block is laid out.
// A forward edge cycle without a back edge makes blocks wait for each other.
func (g *Graph) checkLayout(layout []*Block) error {
	reach := g.ReachableSet()
	if reach.Size() == len(layout) {
		return nil
	}

	var laid set.Bits[BlockID]

	for _, b := range layout {
		laid.Set(b.ID)
	}

	missing := NoBlock

	reach.Range(func(id BlockID) bool {
		if laid.IsSet(id) {
			return true
		}

		missing = id

		return false
	})

	return Internalf(nil, "block %v is reachable but not laid out", missing)
}

// fusable reports whether the condition instruction at node n may be moved into the jump.
// Its result must be read by the terminator only
// and no later instruction of the block may write a global it reads.
func (g *Graph) fusable(b *Block, n NodeID, x *BinaryOp, r *ReaderMap) bool {
	if g.c.Resolve(x.Out).IsGlobal() || r.Readers(x.Out) != 1 {
		return false
	}

	left, right := g.c.Resolve(x.Left), g.c.Resolve(x.Right)
	if !left.IsGlobal() && !right.IsGlobal() {
		return true
	}

	writes := func(id ValueID) bool {
		return id.IsGlobal() && (id == left || id == right)
	}

	l := &b.Instructions

	for n = l.Next(n); n != NoNode; n = l.Next(n) {
		switch y := l.At(n).(type) {
		case *Store:
			if writes(y.Address) {
				return false
			}
		case *Asm:
			return false
		default:
			for _, out := range Outputs(y) {
				if writes(g.c.Resolve(out)) {
					return false
				}
			}
		}
	}

	return true
}

func (g *Graph) condJump(to mlog.Arg, cond ImmutableID, fused *BinaryOp, l *pos.Loc) mlog.Instruction {
	var j mlog.Instruction

	if fused != nil {
		j = mlog.Jump(to, mlog.Cond(fused.Op), g.c.ValueOrTemp(fused.Left), g.c.ValueOrTemp(fused.Right))
	} else {
		j = mlog.Jump(to, mlog.NotEqual, g.c.ValueOrTemp(cond), Number(0))
	}

	j.Loc = l

	return j
}
