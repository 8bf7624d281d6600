package flow_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/tlog"

	"github.com/slowlang/mlogc/compiler/flow"
)

func TestRemoveUnusedInstructions(t *testing.T) {
	t.Run("chain", func(t *testing.T) {
		_, g := parseGraph(t, `
	%a = load $x
	%b = op add %a 1
	break next
next:
	%c = op mul %b 2
	%d = unop floor %c
	native print 5
`)

		g.RemoveUnusedInstructions()

		l := instructions(g)
		require.Len(t, l, 1)
		assert.IsType(t, &flow.Native{}, l[0])
	})

	t.Run("used", func(t *testing.T) {
		_, g := parseGraph(t, `
	%a = load $x
	%b = op add %a 1
	store $y %b
	%c = op mul %a 2
`)

		g.RemoveUnusedInstructions()

		l := instructions(g)
		require.Len(t, l, 3)
		assert.IsType(t, &flow.Load{}, l[0])
		assert.IsType(t, &flow.BinaryOp{}, l[1])
		assert.IsType(t, &flow.Store{}, l[2])
	})

	t.Run("loop", func(t *testing.T) {
		_, g := parseGraph(t, `
entry:
	%i = load $i
	break loop
loop:
	%n = op add %i 1
	store $i %n
	%dead = op mul %n 3
	%c = op lessThan %n 10
	break-if %c ^loop out
out:
	end
`)

		g.RemoveUnusedInstructions()

		r := g.Readers()

		for _, x := range instructions(g) {
			switch x := x.(type) {
			case *flow.Load:
				assert.NotZero(t, r.Readers(x.Out))
			case *flow.BinaryOp:
				assert.NotEqual(t, flow.OpMul, x.Op)
				assert.NotZero(t, r.Readers(x.Out))
			}
		}

		assert.Len(t, instructions(g), 4)
	})
}

func TestOptimizeImmediateLoads(t *testing.T) {
	for _, tc := range []struct {
		Name    string
		Text    string
		Removed bool
	}{
		{Name: "adjacent", Removed: true, Text: `
	%a = load $x
	%b = op add %a 1
	native print %b
`},
		{Name: "read_twice", Text: `
	%a = load $x
	%b = op add %a 1
	native print %a
	native print %b
`},
		{Name: "not_adjacent", Text: `
	%a = load $x
	native print 1
	native print %a
`},
		{Name: "read_by_terminator", Text: `
	%a = load $x
	break-if %a t f
t:
	end
f:
	end
`},
		{Name: "condition_before_store", Removed: true, Text: `
	%a = load $x
	%c = op greaterThan %a 0
	store $x 5
	native print %c
`},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			c, g := parseGraph(t, tc.Text)

			before := instructions(g)
			ld := before[0].(*flow.Load)

			g.OptimizeImmediateLoads()

			after := instructions(g)

			if !tc.Removed {
				assert.Len(t, after, len(before))
				assert.Equal(t, flow.ValueID(ld.Out), c.Resolve(ld.Out))
				return
			}

			assert.Len(t, after, len(before)-1)
			assert.NotContains(t, after, flow.Instr(ld))
			assert.Equal(t, flow.ValueID(ld.Address), c.Resolve(ld.Out))
		})
	}
}

func TestOptimizeImmediateStores(t *testing.T) {
	for _, tc := range []struct {
		Name    string
		Text    string
		Removed bool
	}{
		{Name: "adjacent", Removed: true, Text: `
	%y = op add %a 1
	store $b %y
`},
		{Name: "literal", Text: `
	native print 1
	store $b 1
`},
		{Name: "string", Text: `
	%y = op add %a 1
	store $b "s"
`},
		{Name: "read_twice", Text: `
	%y = op add %a 1
	store $b %y
	native print %y
`},
		{Name: "not_adjacent", Text: `
	%y = op add %a 1
	native print 1
	store $b %y
`},
		{Name: "first", Text: `
	store $b %y
	native print 1
`},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			c, g := parseGraph(t, tc.Text)

			before := instructions(g)

			var st *flow.Store

			for _, x := range before {
				if x, ok := x.(*flow.Store); ok {
					st = x
				}
			}

			require.NotNil(t, st)

			resolved := c.Resolve(st.Value)

			g.OptimizeImmediateStores()

			after := instructions(g)

			if !tc.Removed {
				assert.Len(t, after, len(before))
				assert.Contains(t, after, flow.Instr(st))
				assert.Equal(t, resolved, c.Resolve(st.Value))
				return
			}

			assert.Len(t, after, len(before)-1)
			assert.NotContains(t, after, flow.Instr(st))
			assert.Equal(t, flow.ValueID(st.Address), c.Resolve(st.Value))
		})
	}
}

func TestTransformComparisons(t *testing.T) {
	c, g := parseGraph(t, `
	%c = op lessThan %a 5
	%d = op equal %c 0
	%e = op notEqual %c 0
	%f = op equal %c 7
	%g = op equal %d 1
	native print %d
	native print %e
	native print %f
	native print %g
`)

	g.TransformComparisons()

	l := g.Block(g.Start).Instructions.Slice()
	require.Len(t, l, 8)

	src := l[0].(*flow.BinaryOp)

	check := func(x flow.Instr, op flow.Op) {
		t.Helper()

		b, ok := x.(*flow.BinaryOp)
		require.True(t, ok)

		assert.Equal(t, op, b.Op)
		assert.Equal(t, src.Left, b.Left)
		assert.Equal(t, src.Right, b.Right)
	}

	check(l[1], flow.OpGreaterEq)
	check(l[2], flow.OpLess)
	check(l[3], flow.OpGreaterEq)

	f := l[6].(*flow.Native)
	assert.Equal(t, flow.Number(0), c.Value(f.Inputs[0]))
}

func TestCanonicalizeBinaryOperations(t *testing.T) {
	c, g := parseGraph(t, `
	%c = op lessThan 1 %a
	%d = op sub 1 %a
	%e = op add 1 2
	native print %c
	native print %d
	native print %e
`)

	g.CanonicalizeBinaryOperations()

	l := g.Block(g.Start).Instructions.Slice()

	lt := l[0].(*flow.BinaryOp)
	assert.Equal(t, flow.OpGreater, lt.Op)
	assert.Equal(t, flow.Number(1), c.Value(lt.Right))
	assert.Nil(t, c.Value(lt.Left))

	sub := l[1].(*flow.BinaryOp)
	assert.Equal(t, flow.Number(1), c.Value(sub.Left))

	add := l[2].(*flow.BinaryOp)
	assert.Equal(t, flow.Number(1), c.Value(add.Left))
	assert.Equal(t, flow.Number(2), c.Value(add.Right))
}

func TestCanonicalizeBreakIfs(t *testing.T) {
	_, g := parseGraph(t, `
	%c = op lessThan %a 1
	break-if %c work skip
work:
	native print 1
	end
skip:
	end
`)

	start := g.Block(g.Start)
	old := *start.Term.(*flow.BreakIf)

	g.CanonicalizeBreakIfs()

	br := start.Term.(*flow.BreakIf)
	assert.Equal(t, old.Alternate, br.Consequent)
	assert.Equal(t, old.Consequent, br.Alternate)

	n, op := start.ConditionInstruction()
	require.NotNil(t, op)
	assert.Equal(t, start.Instructions.Tail(), n)
	assert.Equal(t, flow.OpEqual, op.Op)
	assert.Equal(t, old.Condition, op.Left)
	assert.Equal(t, op.Out, br.Condition)
}

func TestFlipBreakIfs(t *testing.T) {
	_, g := parseGraph(t, `
	%c = op equal %a 0
	break-if %c x y
x:
	native print 1
	end
y:
	native print 2
	end
`)

	start := g.Block(g.Start)
	old := *start.Term.(*flow.BreakIf)
	cond := start.Instructions.At(start.Instructions.Head()).(*flow.BinaryOp)

	g.FlipBreakIfs()

	br := start.Term.(*flow.BreakIf)
	assert.Equal(t, cond.Left, br.Condition)
	assert.Equal(t, old.Alternate, br.Consequent)
	assert.Equal(t, old.Consequent, br.Alternate)
}

func TestCreateEndIfs(t *testing.T) {
	_, g := parseGraph(t, `
	%c = op lessThan %a 1
	break-if %c done work
work:
	native print 1
	end
done:
	end
`)

	start := g.Block(g.Start)
	old := *start.Term.(*flow.BreakIf)

	g.CreateEndIfs()

	assert.Equal(t, &flow.EndIf{
		Condition: old.Condition,
		Alternate: old.Alternate,
		Source:    old.Source,
	}, start.Term)
}

func TestRemoveConstantBreakIfs(t *testing.T) {
	for _, tc := range []struct {
		Cond string
		Cons bool
	}{
		{Cond: "true", Cons: true},
		{Cond: "false"},
		{Cond: "null"},
		{Cond: `"str"`, Cons: true},
		{Cond: "0.5", Cons: true},
	} {
		_, g := parseGraph(t, `
	break-if `+tc.Cond+` a b
a:
	native print 1
	end
b:
	native print 2
	end
`)

		start := g.Block(g.Start)
		old := *start.Term.(*flow.BreakIf)

		g.RemoveConstantBreakIfs()

		br, ok := start.Term.(*flow.Break)
		require.True(t, ok, "cond %v", tc.Cond)

		exp := old.Alternate
		if tc.Cons {
			exp = old.Consequent
		}

		assert.Equal(t, exp, br.Target, "cond %v", tc.Cond)
	}
}

func TestRemoveConstantEndIfs(t *testing.T) {
	_, g := parseGraph(t, `
	end-if false next
next:
	native print 1
	end-if 1 more
more:
	end
`)

	start := g.Block(g.Start)
	next := g.Block(start.Term.(*flow.EndIf).Alternate.To)

	g.RemoveConstantEndIfs()

	assert.Equal(t, &flow.Break{Target: flow.Forward(next.ID), Source: start.Term.Location()}, start.Term)
	assert.IsType(t, &flow.End{}, next.Term)
}

func TestRemoveConstantBreakIfsKeepsRuntime(t *testing.T) {
	_, g := parseGraph(t, `
	%c = load $c
	break-if %c a b
a:
	end
b:
	stop
`)

	g.RemoveConstantBreakIfs()
	g.RemoveConstantEndIfs()

	assert.IsType(t, &flow.BreakIf{}, g.Block(g.Start).Term)
}

func TestOptimizeLogsPasses(t *testing.T) {
	_, g := parseGraph(t, `
	store $i 0
loop:
	%i = load $i
	%n = op add %i 1
	store $i %n
	%c = op lessThan %n 10
	break-if %c ^loop out
out:
	end
`)

	var buf bytes.Buffer

	l := tlog.New(tlog.NewConsoleWriter(&buf, 0))
	l.SetVerbosity("*")

	ctx := tlog.ContextWithSpan(context.Background(), tlog.Span{Logger: l})

	g.Optimize(ctx)

	out := buf.String()
	t.Logf("log:\n%s", out)

	assert.Contains(t, out, "remove_unused_instructions")
	assert.Contains(t, out, "edge")
	assert.Contains(t, out, "<")
}
