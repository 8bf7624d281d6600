package flow

import (
	"github.com/slowlang/mlogc/compiler/set"
)

// RemoveCriticalEdges splits BreakIf arms leading into blocks with several parents
// by putting a fresh block with a single Break in between.
func (g *Graph) RemoveCriticalEdges() {
	var visited set.Bits[BlockID]

	q := []BlockID{g.Start}

	for len(q) != 0 {
		id := q[0]
		q = q[1:]

		if !visited.Add(id) {
			continue
		}

		b := g.c.Block(id)

		q = append(q, b.Children()...)

		br, ok := b.Term.(*BreakIf)
		if !ok {
			continue
		}

		br.Consequent = g.splitEdge(b, br.Consequent, br)
		br.Alternate = g.splitEdge(b, br.Alternate, br)
	}
}

func (g *Graph) splitEdge(from *Block, e Edge, t Terminator) Edge {
	to := g.c.Block(e.To)

	if len(to.Parents) <= 1 {
		return e
	}

	mid := g.c.NewBlock()
	mid.Term = &Break{Target: e, Source: t.Location()}
	mid.AddParent(from.ID)

	to.RemoveParent(from.ID)
	to.AddParent(mid.ID)

	return Forward(mid.ID)
}

// MergeBlocks fuses a block ending with a forward Break
// with its target if the target has no other parents.
func (g *Graph) MergeBlocks() {
	g.Traverse(func(b *Block) {
		for {
			br, ok := b.Term.(*Break)
			if !ok || br.Target.Back {
				return
			}

			t := g.c.Block(br.Target.To)
			if t == b || t.ID == g.Start || len(t.Parents) != 1 {
				return
			}

			b.Instructions.Splice(&t.Instructions)
			b.Term = t.Term
			t.Term = nil

			for _, ch := range Edges(b.Term) {
				chb := g.c.Block(ch.To)

				chb.RemoveParent(t.ID)
				chb.AddParent(b.ID)
			}

			if t.ID == g.End {
				g.End = b.ID
			}
		}
	})
}

// SkipBlocks redirects edges going through chains of empty blocks
// which only Break further to the end of the chain.
func (g *Graph) SkipBlocks() {
	g.Traverse(func(b *Block) {
		switch t := b.Term.(type) {
		case *Break:
			t.Target = g.redirect(b, t.Target)
		case *BreakIf:
			t.Consequent = g.redirect(b, t.Consequent)
			t.Alternate = g.redirect(b, t.Alternate)
		}
	})
}

func (g *Graph) redirect(from *Block, old Edge) Edge {
	var seen set.Bits[BlockID]

	cur := old

	for seen.Add(cur.To) {
		b := g.c.Block(cur.To)

		br, ok := b.Term.(*Break)
		if !ok || !b.IsEmpty() || b.ID == g.Start || len(b.ForwardParents()) != len(b.Parents) {
			break
		}

		cur = br.Target
	}

	if cur == old || cur.To == from.ID && !cur.Back {
		return old
	}

	g.c.Block(cur.To).AddParent(from.ID)
	g.c.Block(old.To).RemoveParent(from.ID)

	return cur
}

// SplitLeaves replaces a Break into an empty block ending the run
// with that ending itself.
func (g *Graph) SplitLeaves() {
	g.Traverse(func(b *Block) {
		br, ok := b.Term.(*Break)
		if !ok {
			return
		}

		t := g.c.Block(br.Target.To)
		if !t.IsEmpty() {
			return
		}

		switch tt := t.Term.(type) {
		case *End:
			b.Term = &End{Source: tt.Source}
		case *Stop:
			b.Term = &Stop{Source: tt.Source}
		}
	})
}

// Simplify runs structural passes until they are stable.
func (g *Graph) Simplify() {
	g.SetParents()
	g.MergeBlocks()
	g.SkipBlocks()
	g.SetParents()
}
