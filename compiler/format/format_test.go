package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/mlogc/compiler/flow"
	"github.com/slowlang/mlogc/compiler/parse"
)

const loop = `entry:
	%c = op lessThan %x 10
	break-if %c small big
small:
	%r = call print "small"
	end
big:
	store $y %x
	break ^entry
`

func formatText(t testing.TB, text string) string {
	t.Helper()

	ctx := context.Background()
	c := flow.NewContext(flow.Options{})

	g, err := parse.Parse(ctx, c, "test.flow", []byte(text))
	require.NoError(t, err)

	b, err := Format(ctx, nil, g)
	require.NoError(t, err)

	return string(b)
}

func TestFormat(t *testing.T) {
	res := formatText(t, loop)

	assert.Equal(t, `b0:
	%0 = op lessThan %1 10
	break-if %0 b1 b2
b1:
	%2 = call print "small"
	end
b2:
	store $y %1
	break ^b0
`, res)

	assert.Equal(t, res, formatText(t, res))
}

func TestFormatInstructions(t *testing.T) {
	text := `b0:
	%0 = load $x
	%1 = unop floor %0
	%2 = get Math "max"
	%3 = get @unit "health" optional-object optional-key
	set %3 "k" null
	native ucontrol move >%4 %1 @unit
	asm print "a" ; print %4
	end-if 1 b1
b1:
	stop
`

	res := formatText(t, text)

	assert.Equal(t, text, res)
}

func TestDOT(t *testing.T) {
	ctx := context.Background()
	c := flow.NewContext(flow.Options{})

	g, err := parse.Parse(ctx, c, "test.flow", []byte(loop))
	require.NoError(t, err)

	b, err := DOT(ctx, nil, g)
	require.NoError(t, err)

	res := string(b)

	assert.Contains(t, res, "digraph flow {\n")
	assert.Contains(t, res, `b0 -> b1 [label="T"];`)
	assert.Contains(t, res, `b0 -> b2 [label="F"];`)
	assert.Contains(t, res, `b2 -> b0 [style=dashed];`)
	assert.Contains(t, res, `%2 = call print \"small\"\lend\l`)
	assert.Contains(t, res, "}\n")
}
