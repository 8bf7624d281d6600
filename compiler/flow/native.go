package flow

import (
	"github.com/slowlang/mlogc/compiler/pos"
)

func NewSensor(object, prop, out ImmutableID, l *pos.Loc) *Native {
	return &Native{
		Args:    []NativeArg{Keyword("sensor"), out, object, prop},
		Inputs:  []ImmutableID{object, prop},
		Outputs: []ImmutableID{out},
		Source:  l,
	}
}

func NewRead(cell, index, out ImmutableID, l *pos.Loc) *Native {
	return &Native{
		Args:    []NativeArg{Keyword("read"), out, cell, index},
		Inputs:  []ImmutableID{cell, index},
		Outputs: []ImmutableID{out},
		Source:  l,
	}
}

func NewWrite(cell, index, value ImmutableID, l *pos.Loc) *Native {
	return &Native{
		Args:   []NativeArg{Keyword("write"), value, cell, index},
		Inputs: []ImmutableID{value, cell, index},
		Source: l,
	}
}

func NewPrint(value ImmutableID, l *pos.Loc) *Native {
	return &Native{
		Args:   []NativeArg{Keyword("print"), value},
		Inputs: []ImmutableID{value},
		Source: l,
	}
}

// NegateValue adds `value == 0` at the cursor and returns its result.
// Loop and if handlers branch on the negated test to get a better block order.
func NegateValue(c *Context, cur *Cursor, value ImmutableID, l *pos.Loc) ImmutableID {
	out := c.CreateImmutableID()

	cur.AddInstruction(&BinaryOp{
		Op:     OpEqual,
		Left:   value,
		Right:  c.RegisterValue(Number(0)),
		Out:    out,
		Source: l,
	})

	return out
}
