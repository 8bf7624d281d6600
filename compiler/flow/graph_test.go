package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/mlogc/compiler/flow"
	"github.com/slowlang/mlogc/compiler/format"
	"github.com/slowlang/mlogc/compiler/parse"
)

func parseGraph(t testing.TB, text string) (*flow.Context, *flow.Graph) {
	t.Helper()

	c := flow.NewContext(flow.Options{})

	g, err := parse.Parse(context.Background(), c, "test.flow", []byte(text))
	require.NoError(t, err)

	return c, g
}

func formatGraph(t testing.TB, g *flow.Graph) string {
	t.Helper()

	b, err := format.Format(context.Background(), nil, g)
	require.NoError(t, err)

	return string(b)
}

func instructions(g *flow.Graph) (r []flow.Instr) {
	g.Traverse(func(b *flow.Block) {
		r = append(r, b.Instructions.Slice()...)
	})

	return r
}

func TestFromFallthrough(t *testing.T) {
	_, g := parseGraph(t, `
	native print 1
next:
	native print 2
`)

	start := g.Block(g.Start)

	br, ok := start.Term.(*flow.Break)
	require.True(t, ok)

	next := g.Block(br.Target.To)
	assert.Equal(t, []flow.BlockID{start.ID}, next.Parents)
	assert.Equal(t, &flow.Break{Target: flow.Forward(g.End)}, next.Term)
	assert.IsType(t, &flow.End{}, g.Block(g.End).Term)

	assert.Equal(t, 3, g.Reachable())
}

func TestTraverseOrders(t *testing.T) {
	_, g := parseGraph(t, `
entry:
	%c = op lessThan %x 1
	break-if %c a b
a:
	break join
b:
	break join
join:
	break-if %c ^entry out
out:
	end
`)

	var pre, post, parents []flow.BlockID

	g.Traverse(func(b *flow.Block) { pre = append(pre, b.ID) })
	g.TraversePostOrder(func(b *flow.Block) { post = append(post, b.ID) })
	g.TraverseParentsFirst(func(b *flow.Block) { parents = append(parents, b.ID) })

	require.Len(t, pre, 5)
	require.Len(t, post, 5)
	require.Len(t, parents, 5)

	assert.Equal(t, g.Start, pre[0])
	assert.Equal(t, g.Start, post[len(post)-1])
	assert.Equal(t, g.Start, parents[0])

	index := map[flow.BlockID]int{}
	for i, id := range parents {
		index[id] = i
	}

	for _, id := range parents {
		for _, p := range g.Block(id).ForwardParents() {
			assert.Less(t, index[p], index[id], "block %v parent %v", id, p)
		}
	}

	assert.Len(t, g.Block(g.Start).Parents, 1)
	assert.Empty(t, g.Block(g.Start).ForwardParents())
}

func TestReachableSet(t *testing.T) {
	_, g := parseGraph(t, `
	native print 1
	break next
dead:
	native print 2
	end
next:
	end
`)

	s := g.ReachableSet()

	assert.Equal(t, 2, s.Size())
	assert.Equal(t, 2, g.Reachable())
	assert.True(t, s.IsSet(g.Start))

	g.Traverse(func(b *flow.Block) {
		assert.True(t, s.IsSet(b.ID))
	})
}

func TestRemoveCriticalEdges(t *testing.T) {
	_, g := parseGraph(t, `
	%c = op lessThan %a 1
	break-if %c join other
other:
	native print 1
	break join
join:
	end
`)

	require.Equal(t, 3, g.Reachable())

	g.RemoveCriticalEdges()
	g.SetParents()

	assert.Equal(t, 4, g.Reachable())

	g.Traverse(func(b *flow.Block) {
		if _, ok := b.Term.(*flow.BreakIf); !ok {
			return
		}

		for _, ch := range b.Children() {
			assert.Len(t, g.Block(ch).Parents, 1, "block %v child %v", b.ID, ch)
		}
	})
}

func TestSimplify(t *testing.T) {
	_, g := parseGraph(t, `
	break a
a:
	break b
b:
	native print 1
	break c
c:
	%c = op lessThan %x 1
	break-if %c d e
d:
	break f
e:
	native print 2
	break f
f:
	end
`)

	before := g.Reachable()

	g.Simplify()

	first := formatGraph(t, g)

	assert.Less(t, g.Reachable(), before)
	assert.Equal(t, `b0:
	native print 1
	%0 = op lessThan %1 1
	break-if %0 b1 b2
b1:
	end
b2:
	native print 2
	break b1
`, first)

	g.Simplify()

	assert.Equal(t, first, formatGraph(t, g))
}

func TestSimplifyKeepsLoops(t *testing.T) {
	_, g := parseGraph(t, `
entry:
	break loop
loop:
	native print 1
	break ^loop
`)

	g.Simplify()

	start := g.Block(g.Start)

	br, ok := start.Term.(*flow.Break)
	require.True(t, ok)
	assert.False(t, br.Target.Back)

	loop := g.Block(br.Target.To)

	lb, ok := loop.Term.(*flow.Break)
	require.True(t, ok)
	assert.True(t, lb.Target.Back)
	assert.Equal(t, loop.ID, lb.Target.To)

	assert.Equal(t, 2, g.Reachable())
}

func TestSplitLeaves(t *testing.T) {
	_, g := parseGraph(t, `
	%c = op lessThan %a 1
	break-if %c x y
x:
	native print 1
	break done
y:
	native print 2
	break done
done:
	stop
`)

	g.SplitLeaves()

	g.Traverse(func(b *flow.Block) {
		if b.IsEmpty() {
			return
		}

		_, ok := b.Term.(*flow.Break)
		assert.False(t, ok, "block %v", b.ID)
	})

	g.SetParents()

	assert.Equal(t, 3, g.Reachable())
}
