package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/mlogc/compiler/flow"
	"github.com/slowlang/mlogc/compiler/mlog"
)

func TestLayout(t *testing.T) {
	_, g := parseGraph(t, `
entry:
	%c = op lessThan %x 1
	break-if %c a b
a:
	native print 1
	break join
b:
	native print 2
	break join
join:
	%d = op lessThan %x 2
	break-if %d ^entry out
out:
	end
`)

	layout := g.Layout()
	require.Len(t, layout, g.Reachable())
	assert.Equal(t, g.Start, layout[0].ID)

	index := map[flow.BlockID]int{}
	for i, b := range layout {
		index[b.ID] = i
	}

	for _, b := range layout {
		for _, p := range b.ForwardParents() {
			assert.Less(t, index[p], index[b.ID])
		}
	}

	br := layout[0].Term.(*flow.BreakIf)
	assert.Equal(t, br.Alternate.To, layout[1].ID)
}

func TestEmitFallthrough(t *testing.T) {
	_, g := parseGraph(t, `
	native print 1
	break next
next:
	native print 2
	end
`)

	code, err := g.Emit()
	require.NoError(t, err)

	b, err := mlog.Print(nil, code, mlog.PrintOptions{})
	require.NoError(t, err)

	assert.Equal(t, "print 1\nprint 2\nend\n", string(b))
}

func TestEmitConditionBeforeStore(t *testing.T) {
	for _, tc := range []struct {
		Name string
		Text string
		Code string
	}{
		{Name: "store", Text: `
	%x = load $x
	%c = op greaterThan %x 0
	store $x 5
	break-if %c t f
t:
	native print 1
	end
f:
	native print 2
	end
`, Code: "op greaterThan &t0 x 0\nset x 5\njump 5 notEqual &t0 0\nprint 2\nend\nprint 1\nend\n"},
		{Name: "asm", Text: `
	%x = load $x
	%c = op greaterThan %x 0
	asm set x 5
	break-if %c t f
t:
	native print 1
	end
f:
	native print 2
	end
`, Code: "op greaterThan &t0 x 0\nset x 5\njump 5 notEqual &t0 0\nprint 2\nend\nprint 1\nend\n"},
		{Name: "other_global", Text: `
	%x = load $x
	%c = op greaterThan %x 0
	store $y 5
	break-if %c t f
t:
	native print 1
	end
f:
	native print 2
	end
`, Code: "set y 5\njump 4 greaterThan x 0\nprint 2\nend\nprint 1\nend\n"},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			_, g := parseGraph(t, tc.Text)

			g.OptimizeImmediateLoads()

			code, err := g.Emit()
			require.NoError(t, err)

			b, err := mlog.Print(nil, code, mlog.PrintOptions{})
			require.NoError(t, err)

			assert.Equal(t, tc.Code, string(b))
		})
	}
}

func TestEmitReachable(t *testing.T) {
	_, g := parseGraph(t, `
	%c = op lessThan %x 1
	break-if %c a b
a:
	native print 1
	break ^a
b:
	native print 2
	stop
dead:
	native print 3
	end
`)

	code, err := g.ToMlog(context.Background())
	require.NoError(t, err)

	_, err = mlog.Print(nil, code, mlog.PrintOptions{})
	require.NoError(t, err)

	prints := 0

	for _, i := range code {
		if i.Op == "print" {
			prints++
			assert.NotEqual(t, "3", i.Args[0].MlogString())
		}

		if i.IsJump() {
			a := i.Target.(*mlog.Address)
			assert.True(t, a.Resolved)
			assert.Less(t, a.Index, len(code))
		}
	}

	assert.Equal(t, 2, prints)
}

func TestEmitForwardCycle(t *testing.T) {
	_, g := parseGraph(t, `
	%c = op lessThan %x 1
	break-if %c a b
a:
	native print 1
	break b
b:
	native print 2
	break a
`)

	_, err := g.Emit()
	require.Error(t, err)

	var e *flow.Error
	require.True(t, errors.As(err, &e))
	assert.True(t, e.Internal)
	assert.Contains(t, e.Msg, "is reachable but not laid out")
}

func TestEmitReturn(t *testing.T) {
	_, g := parseGraph(t, `
	native print 1
	return 1
`)

	_, err := g.ToMlog(context.Background())
	require.Error(t, err)

	var e *flow.Error
	require.True(t, errors.As(err, &e))
	assert.True(t, e.Internal)
}

func TestEmitNative(t *testing.T) {
	_, g := parseGraph(t, `
	native ucontrol move 10 >%r @unit
	asm print "a" ; printflush @message1
`)

	code, err := g.Emit()
	require.NoError(t, err)

	b, err := mlog.Print(nil, code, mlog.PrintOptions{})
	require.NoError(t, err)

	assert.Equal(t, `ucontrol move 10 &t0 @unit
print "a"
printflush @message1
end
`, string(b))
}
