package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/mlogc/compiler/flow"
)

func compile(t testing.TB, text string, opts Options) string {
	t.Helper()

	obj, err := Compile(context.Background(), "test.flow", []byte(text), opts)
	require.NoError(t, err)

	t.Logf("compiled:\n%s", obj)

	return string(obj)
}

func TestIfElse(t *testing.T) {
	res := compile(t, `
	%x = load $x
	%c = op greaterThan %x 0
	break-if %c then else
then:
	store $y 1
	break join
else:
	store $y 2
	break join
join:
	%y = load $y
	%r = call print %y
`, Options{})

	assert.Equal(t, `jump 3 greaterThan x 0
set y 2
jump 4 always
set y 1
print y
end
`, res)
}

func TestLoop(t *testing.T) {
	res := compile(t, `
	store $i 0
loop:
	%i = load $i
	%n = op add %i 1
	store $i %n
	%c = op greaterThan %n 10
	break-if %c after next
next:
	break-if true ^loop after
after:
	%v = load $i
	%r = call print %v
`, Options{})

	assert.Equal(t, `set i 0
op add &t0 i 1
set i &t0
jump 5 greaterThan &t0 10
jump 1 always
print i
end
`, res)
}

func TestConstantExpression(t *testing.T) {
	res := compile(t, `
	%a = op mul 2 3
	%b = op add 1 %a
	%r = call print %b
`, Options{})

	assert.Equal(t, "print 7\nend\n", res)
}

func TestFusedCondition(t *testing.T) {
	text := `
	%x = load $a
	%c = op equal %x 0
	break-if %c done work
work:
	%r = call print %x
	break done
done:
	end
`

	assert.Equal(t, `set &t0 a
jump 0 equal &t0 0
print &t0
end
`, compile(t, text, Options{}))

	assert.Equal(t, `set &0 a
jump 0 equal &0 0
print &0
end
`, compile(t, text, Options{CompactNames: true}))
}

func TestEarlyExit(t *testing.T) {
	res := compile(t, `
	%c = op lessThan %a 1
	break-if %c work skip
work:
	native print 1
	end
skip:
	end
`, Options{})

	assert.Equal(t, "jump 0 greaterThanEq &t0 1\nprint 1\nend\n", res)
}

func TestConditionReadTwice(t *testing.T) {
	res := compile(t, `
	%c = op lessThan %a 1
	native print %c
	break-if %c t f
t:
	end
f:
	native print 2
`, Options{})

	assert.Equal(t, `op lessThan &t0 &t1 1
print &t0
jump 0 notEqual &t0 0
print 2
end
`, res)
}

func TestConditionBeforeStore(t *testing.T) {
	res := compile(t, `
	%x = load $x
	%c = op greaterThan %x 0
	store $x 5
	break-if %c then else
then:
	native print 1
	end
else:
	native print 2
	end
`, Options{})

	assert.Equal(t, `op greaterThan &t0 x 0
set x 5
jump 5 notEqual &t0 0
print 2
end
print 1
end
`, res)

	res = compile(t, `
	%x = load $x
	%c = op greaterThan %x 0
	store $y 5
	break-if %c then else
then:
	native print 1
	end
else:
	native print 2
	end
`, Options{})

	assert.Equal(t, `set y 5
jump 4 greaterThan x 0
print 2
end
print 1
end
`, res)
}

func TestImmediateStore(t *testing.T) {
	res := compile(t, `
	%x = load $a
	%y = op add %x 1
	store $b %y
`, Options{})

	assert.Equal(t, "op add b a 1\nend\n", res)
}

func TestOptimizeGlobals(t *testing.T) {
	text := `
	store $a 5
	%x = load $a
	native print %x
`

	assert.Equal(t, "set a 5\nprint a\nend\n", compile(t, text, Options{}))
	assert.Equal(t, "set a 5\nprint 5\nend\n", compile(t, text, Options{OptimizeGlobals: true}))
}

func TestValues(t *testing.T) {
	res := compile(t, `
	%v = call read @cell1 3
	%r = call print %v
	%h = get @unit "health"
	%r2 = call print %h
	%x = load $x
	%m = get Math "max"
	%mx = call %m %x 3
	%r3 = call print %mx
	%p = get @this "x"
	%r4 = call print %p
`, Options{})

	assert.Equal(t, `read &t0 @cell1 3
print &t0
sensor &t1 @unit @health
print &t1
op max &t2 x 3
print &t2
print @thisx
end
`, res)
}

func TestUnreachable(t *testing.T) {
	res := compile(t, `
	native print 1
	end
dead:
	native print 2
	end
`, Options{})

	assert.Equal(t, "print 1\nend\n", res)
}

func TestSourcemap(t *testing.T) {
	res := compile(t, "native print 1\n", Options{Sourcemap: true})

	assert.Equal(t, "print 1 # test.flow:1:1\nend\n", res)
}

func TestCompileErrors(t *testing.T) {
	for _, tc := range []struct {
		Text string
		Err  string
		Line int
	}{
		{Text: "break nowhere\n", Err: "undefined block nowhere", Line: 1},
		{Text: "native print 1\n%r = call 5\n", Err: "[Literal(5)] is not callable", Line: 2},
	} {
		_, err := Compile(context.Background(), "test.flow", []byte(tc.Text), Options{})
		require.Error(t, err)

		var e *flow.Error
		require.True(t, errors.As(err, &e), "%v", err)

		assert.Equal(t, tc.Err, e.Msg)
		assert.Equal(t, tc.Line, e.Loc.Line)
	}
}

func TestCompileFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "a.flow")

	err := os.WriteFile(name, []byte("native print 1\n"), 0o600)
	require.NoError(t, err)

	obj, err := CompileFile(context.Background(), name, Options{})
	require.NoError(t, err)
	assert.Equal(t, "print 1\nend\n", string(obj))

	_, err = CompileFile(context.Background(), filepath.Join(t.TempDir(), "missing.flow"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDump(t *testing.T) {
	text := []byte(`
	%a = op mul 2 3
	%b = op add 1 %a
	%r = call print %b
`)

	res, err := Dump(context.Background(), "test.flow", text, Options{}, false, false)
	require.NoError(t, err)
	assert.Equal(t, `b0:
	%0 = op mul 2 3
	%1 = op add 1 %0
	%2 = call print %1
	break b1
b1:
	end
`, string(res))

	res, err = Dump(context.Background(), "test.flow", text, Options{}, true, false)
	require.NoError(t, err)
	assert.Equal(t, "b0:\n\tnative print 7\n\tend\n", string(res))

	res, err = Dump(context.Background(), "test.flow", text, Options{}, true, true)
	require.NoError(t, err)
	assert.Contains(t, string(res), "digraph flow {")
}
