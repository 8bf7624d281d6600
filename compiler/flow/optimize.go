package flow

import (
	"context"
	"maps"

	"nikand.dev/go/heap"
	"tlog.app/go/tlog"

	"github.com/slowlang/mlogc/compiler/set"
)

// CanonicalizeBinaryOperations moves literal operands to the right.
func (g *Graph) CanonicalizeBinaryOperations() {
	g.Traverse(func(b *Block) {
		l := &b.Instructions

		for n := l.Head(); n != NoNode; n = l.Next(n) {
			x, ok := l.At(n).(*BinaryOp)
			if !ok || !x.IsCanonicalizable() {
				continue
			}

			if !g.isLiteral(x.Left) || g.isLiteral(x.Right) {
				continue
			}

			x.Canonicalize()
		}
	})
}

// CanonicalizeBreakIfs puts an empty arm which only jumps or ends on the consequent side.
// Layout places the alternate right after the branch, so the other arm gets the fallthrough.
func (g *Graph) CanonicalizeBreakIfs() {
	cur := NewCursor(g.c, CursorEdit, g.c.Block(g.Start))

	g.Traverse(func(b *Block) {
		br, ok := b.Term.(*BreakIf)
		if !ok {
			return
		}

		alt := g.c.Block(br.Alternate.To)
		cons := g.c.Block(br.Consequent.To)

		if !alt.IsEmpty() || !isJumpOrEnd(alt.Term) {
			return
		}

		if cons.IsEmpty() && isJumpOrEnd(cons.Term) {
			return
		}

		cur.SetBlock(b)

		br.Condition = NegateValue(g.c, cur, br.Condition, br.Source)
		br.Consequent, br.Alternate = br.Alternate, br.Consequent
	})
}

func isJumpOrEnd(t Terminator) bool {
	switch t.(type) {
	case *Break, *End:
		return true
	}

	return false
}

// FoldConstantOperations evaluates operations on literals and removes them.
func (g *Graph) FoldConstantOperations() {
	g.Traverse(func(b *Block) {
		l := &b.Instructions

		for n := l.Head(); n != NoNode; {
			next := l.Next(n)

			var folded bool

			switch x := l.At(n).(type) {
			case *BinaryOp:
				folded = x.ConstantFold(g.c)
			case *UnaryOp:
				folded = x.ConstantFold(g.c)
			}

			if folded {
				l.Remove(n)
			}

			n = next
		}
	})
}

// TransformComparisons simplifies comparisons of another comparison result with 0 or 1.
func (g *Graph) TransformComparisons() {
	w := g.Writers()

	g.Traverse(func(b *Block) {
		l := &b.Instructions

		for n := l.Head(); n != NoNode; {
			next := l.Next(n)

			if x, ok := l.At(n).(*BinaryOp); ok && g.transformComparison(x, w) {
				w.Remove(x)
				l.Remove(n)
			}

			n = next
		}
	})
}

// transformComparison reports whether x was folded to a constant.
func (g *Graph) transformComparison(x *BinaryOp, w *WriterMap) bool {
	seen := map[*BinaryOp]struct{}{x: {}}

	for {
		var same, inv, other float64

		switch x.Op {
		case OpEqual, OpStrictEq:
			same, inv, other = 1, 0, 0
		case OpNotEqual:
			same, inv, other = 0, 1, 1
		default:
			return false
		}

		src, ok := w.Writer(x.Left).(*BinaryOp)
		if !ok || !src.IsJumpMergeable() {
			return false
		}

		if _, ok := seen[src]; ok {
			return false
		}

		seen[src] = struct{}{}

		r, ok := g.c.Value(x.Right).(*Literal)
		if !ok || !r.IsNumber() {
			return false
		}

		switch r.Num {
		case same:
			x.Op, x.Left, x.Right = src.Op, src.Left, src.Right
		case inv:
			if !src.IsInvertible() {
				return false
			}

			x.Op, x.Left, x.Right = inverted[src.Op], src.Left, src.Right
		default:
			g.c.SetValue(x.Out, Number(other))

			return true
		}
	}
}

// FlipBreakIfs branches on v directly instead of on `v == 0` with swapped arms.
func (g *Graph) FlipBreakIfs() {
	g.Traverse(func(b *Block) {
		br, ok := b.Term.(*BreakIf)
		if !ok {
			return
		}

		_, op := b.ConditionInstruction()
		if op == nil || op.Op != OpEqual {
			return
		}

		// keep canonicalized break-ifs
		if g.c.Block(br.Consequent.To).IsEmpty() {
			return
		}

		r, ok := g.c.Value(op.Right).(*Literal)
		if !ok || !r.IsNumber() || r.Num != 0 {
			return
		}

		br.Condition = op.Left
		br.Consequent, br.Alternate = br.Alternate, br.Consequent
	})
}

// CreateEndIfs fuses a BreakIf into an empty End block into an EndIf.
func (g *Graph) CreateEndIfs() {
	g.Traverse(func(b *Block) {
		br, ok := b.Term.(*BreakIf)
		if !ok {
			return
		}

		cons := g.c.Block(br.Consequent.To)

		if _, ok := cons.Term.(*End); !ok || !cons.IsEmpty() {
			return
		}

		b.Term = &EndIf{
			Condition: br.Condition,
			Alternate: br.Alternate,
			Source:    br.Source,
		}
	})
}

func (g *Graph) RemoveConstantBreakIfs() {
	g.Traverse(func(b *Block) {
		br, ok := b.Term.(*BreakIf)
		if !ok {
			return
		}

		cond, ok := g.c.Value(br.Condition).(*Literal)
		if !ok {
			return
		}

		to := br.Consequent
		if cond.Float() == 0 {
			to = br.Alternate
		}

		b.Term = &Break{Target: to, Source: br.Source}
	})
}

func (g *Graph) RemoveConstantEndIfs() {
	g.Traverse(func(b *Block) {
		ei, ok := b.Term.(*EndIf)
		if !ok {
			return
		}

		cond, ok := g.c.Value(ei.Condition).(*Literal)
		if !ok {
			return
		}

		if cond.Float() != 0 {
			b.Term = &End{Source: ei.Source}
		} else {
			b.Term = &Break{Target: ei.Alternate, Source: ei.Source}
		}
	})
}

// RemoveUnusedInstructions deletes loads and operations nobody reads.
// Blocks are swept from tail to head in post order.
// A block defining a value which became unused is swept again,
// so the result is a fixed point over the whole graph.
func (g *Graph) RemoveUnusedInstructions() {
	r := g.Readers()

	order := make([]int, g.c.NumBlocks())
	var blocks []BlockID

	def := map[int32]BlockID{}

	g.TraversePostOrder(func(b *Block) {
		order[b.ID] = len(blocks)
		blocks = append(blocks, b.ID)

		l := &b.Instructions

		for n := l.Head(); n != NoNode; n = l.Next(n) {
			for _, out := range Outputs(l.At(n)) {
				def[g.c.resolve(int32(out))] = b.ID
			}
		}
	})

	q := heap.Heap[BlockID]{Less: func(d []BlockID, i, j int) bool {
		return order[d[i]] < order[d[j]]
	}}

	var queued set.Bits[BlockID]

	for _, id := range blocks {
		q.Push(id)
		queued.Set(id)
	}

	for q.Len() != 0 {
		id := q.Pop()
		queued.Clear(id)

		l := &g.c.Block(id).Instructions

		for n := l.Tail(); n != NoNode; {
			prev := l.Prev(n)
			x := l.At(n)

			if !g.unused(x, r) {
				n = prev
				continue
			}

			l.Remove(n)
			r.Remove(x)

			for _, in := range Inputs(x) {
				if r.Readers(in) != 0 {
					continue
				}

				d, ok := def[g.c.resolve(int32(in))]
				if ok && d != id && queued.Add(d) {
					q.Push(d)
				}
			}

			n = prev
		}
	}
}

func (g *Graph) unused(x Instr, r *ReaderMap) bool {
	var out ImmutableID

	switch x := x.(type) {
	case *Load:
		out = x.Out
	case *BinaryOp:
		out = x.Out
	case *UnaryOp:
		out = x.Out
	default:
		return false
	}

	if g.c.Resolve(out).IsGlobal() {
		return false
	}

	return r.Readers(out) == 0
}

// OptimizeImmediateLoads makes the instruction following a Load read the global directly
// if it's the only reader of the loaded value.
func (g *Graph) OptimizeImmediateLoads() {
	r := g.Readers()

	g.Traverse(func(b *Block) {
		l := &b.Instructions

		for n := l.Head(); n != NoNode; {
			next := l.Next(n)

			ld, ok := l.At(n).(*Load)
			if ok && next != NoNode && g.c.Resolve(ld.Out) == ValueID(ld.Out) &&
				r.Readers(ld.Out) == 1 && r.Has(ld.Out, l.At(next)) {
				g.c.SetAlias(ld.Out, ld.Address)
				l.Remove(n)
			}

			n = next
		}
	})
}

// OptimizeImmediateStores makes the instruction preceding a Store write the global directly
// if the stored value is its output and is read by the Store only.
func (g *Graph) OptimizeImmediateStores() {
	r := g.Readers()
	w := g.Writers()

	g.Traverse(func(b *Block) {
		l := &b.Instructions

		for n := l.Head(); n != NoNode; {
			next := l.Next(n)
			prev := l.Prev(n)

			st, ok := l.At(n).(*Store)
			if !ok || prev == NoNode {
				n = next
				continue
			}

			if g.c.Resolve(st.Value).IsGlobal() || g.c.Value(st.Value) != nil {
				n = next
				continue
			}

			if w.Writer(st.Value) != l.At(prev) || r.Readers(st.Value) != 1 {
				n = next
				continue
			}

			g.c.SetAlias(st.Value, st.Address)
			l.Remove(n)

			n = next
		}
	})
}

// OptimizeGlobals forwards stored values to loads of the same global
// along chains of single-parent blocks.
func (g *Graph) OptimizeGlobals() {
	known := map[BlockID]map[GlobalID]ImmutableID{}

	g.SetParents()

	g.TraverseParentsFirst(func(b *Block) {
		var m map[GlobalID]ImmutableID

		if len(b.Parents) == 1 {
			m = maps.Clone(known[b.Parents[0]])
		}

		if m == nil {
			m = map[GlobalID]ImmutableID{}
		}

		known[b.ID] = m

		l := &b.Instructions

		for n := l.Head(); n != NoNode; {
			next := l.Next(n)

			switch x := l.At(n).(type) {
			case *Store:
				m[x.Address] = x.Value
			case *Load:
				if v, ok := m[x.Address]; ok {
					g.c.SetAlias(x.Out, v)
					l.Remove(n)
				}
			case *Asm:
				clear(m)
			}

			n = next
		}
	})
}

// Optimize runs the whole pipeline. Order matters.
func (g *Graph) Optimize(ctx context.Context) {
	tr := tlog.SpanFromContext(ctx)

	pass := func(name string, f func()) {
		f()

		if tr.If("opt_passes") {
			tr.Printw("pass", "name", name, "blocks", g.ReachableSet())
		}

		if tr.If("opt_edges") {
			g.Traverse(func(b *Block) {
				for _, e := range b.ChildEdges() {
					tr.Printw("edge", "pass", name, "from", b.ID, "to", e)
				}
			})
		}
	}

	pass("simplify", g.Simplify)
	pass("remove_critical_edges", g.RemoveCriticalEdges)
	pass("split_leaves", g.SplitLeaves)
	pass("canonicalize_binary_operations", g.CanonicalizeBinaryOperations)

	if g.c.OptimizeGlobals {
		pass("optimize_globals", g.OptimizeGlobals)
	}

	pass("canonicalize_break_ifs", g.CanonicalizeBreakIfs)
	pass("fold_constant_operations", g.FoldConstantOperations)
	pass("transform_comparisons", g.TransformComparisons)
	pass("flip_break_ifs", g.FlipBreakIfs)
	pass("create_end_ifs", g.CreateEndIfs)
	pass("remove_constant_break_ifs", g.RemoveConstantBreakIfs)
	pass("remove_constant_end_ifs", g.RemoveConstantEndIfs)
	pass("remove_unused_instructions", g.RemoveUnusedInstructions)
	pass("optimize_immediate_loads", g.OptimizeImmediateLoads)
	pass("optimize_immediate_stores", g.OptimizeImmediateStores)
	pass("simplify", g.Simplify)
}

func (g *Graph) isLiteral(id ImmutableID) bool {
	_, ok := g.c.Value(id).(*Literal)
	return ok
}
