package flow

import (
	"github.com/slowlang/mlogc/compiler/set"
)

// Graph is the control flow graph of a compilation unit.
// Blocks not reachable from Start by forward edges are garbage.
type Graph struct {
	Start, End BlockID

	c *Context
}

// From makes a graph of blocks reachable from entry.
// Blocks without a terminator fall through to exit.
func From(c *Context, entry, exit *Block) *Graph {
	g := &Graph{
		Start: entry.ID,
		End:   exit.ID,
		c:     c,
	}

	g.Traverse(func(b *Block) {
		if b.Term == nil && b.ID != g.End {
			b.Term = &Break{Target: Forward(g.End)}
		}
	})

	if b := c.Block(g.End); b.Term == nil {
		b.Term = &End{}
	}

	g.SetParents()

	return g
}

func (g *Graph) Context() *Context { return g.c }

func (g *Graph) Block(id BlockID) *Block { return g.c.Block(id) }

// SetParents recomputes parent lists of reachable blocks from their terminators.
func (g *Graph) SetParents() {
	g.Traverse(func(b *Block) {
		b.Parents = b.Parents[:0]
	})

	g.Traverse(func(b *Block) {
		for _, ch := range b.Children() {
			g.c.Block(ch).AddParent(b.ID)
		}
	})
}

// Traverse calls f on each block reachable through forward edges, parents before children
// along the DFS tree.
func (g *Graph) Traverse(f func(b *Block)) {
	var visited set.Bits[BlockID]

	var walk func(id BlockID)
	walk = func(id BlockID) {
		if !visited.Add(id) {
			return
		}

		b := g.c.Block(id)

		f(b)

		for _, e := range b.ChildEdges() {
			if e.Back {
				continue
			}

			walk(e.To)
		}
	}

	walk(g.Start)
}

// TraversePostOrder calls f on a block after all of its forward children.
func (g *Graph) TraversePostOrder(f func(b *Block)) {
	var visited set.Bits[BlockID]

	var walk func(id BlockID)
	walk = func(id BlockID) {
		if !visited.Add(id) {
			return
		}

		b := g.c.Block(id)

		for _, e := range b.ChildEdges() {
			if e.Back {
				continue
			}

			walk(e.To)
		}

		f(b)
	}

	walk(g.Start)
}

// TraverseParentsFirst calls f on a block only after all of its forward parents.
// Parents must be up to date.
func (g *Graph) TraverseParentsFirst(f func(b *Block)) {
	var visited set.Bits[BlockID]

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

		f(b)

		for _, e := range b.ChildEdges() {
			if e.Back {
				continue
			}

			walk(e.To)
		}
	}

	walk(g.Start)
}

// ReachableSet returns blocks reachable from Start.
func (g *Graph) ReachableSet() (s set.Bits[BlockID]) {
	g.Traverse(func(b *Block) { s.Set(b.ID) })

	return s
}

// Reachable returns the number of blocks reachable from Start.
func (g *Graph) Reachable() int {
	s := g.ReachableSet()

	return s.Size()
}
