// Package mlog describes the flat instruction stream run by the logic processor VM.
package mlog

import (
	"strconv"

	"github.com/slowlang/mlogc/compiler/pos"
)

type (
	// Arg is anything that renders as a single mlog token.
	Arg interface {
		MlogString() string
	}

	// Instruction is one line of output.
	// Target is set for jumps and rendered as the first argument.
	Instruction struct {
		Op     string
		Target Arg
		Args   []Arg
		Loc    *pos.Loc
	}

	// Address is a jump target placeholder resolved once every block is laid out.
	Address struct {
		Index    int
		Resolved bool
	}

	// Token is a raw keyword or symbol argument.
	Token string

	// Cond is a jump condition.
	Cond string
)

const (
	Equal         Cond = "equal"
	NotEqual      Cond = "notEqual"
	LessThan      Cond = "lessThan"
	LessThanEq    Cond = "lessThanEq"
	GreaterThan   Cond = "greaterThan"
	GreaterThanEq Cond = "greaterThanEq"
	StrictEqual   Cond = "strictEqual"
	Always        Cond = "always"
)

// Zero is the literal address of the first instruction.
// The VM wraps around to it after the last one, so jumping there ends the run.
var Zero = &Address{Resolved: true}

func Jump(to Arg, cond Cond, l, r Arg) Instruction {
	if cond == Always {
		return Instruction{
			Op:     "jump",
			Target: to,
			Args:   []Arg{Token(Always)},
		}
	}

	return Instruction{
		Op:     "jump",
		Target: to,
		Args:   []Arg{Token(cond), l, r},
	}
}

func New(op string, args ...Arg) Instruction {
	return Instruction{
		Op:   op,
		Args: args,
	}
}

func (i Instruction) IsJump() bool { return i.Target != nil }

// JumpCond returns the condition of a jump instruction.
func (i Instruction) JumpCond() Cond {
	if !i.IsJump() || len(i.Args) == 0 {
		return ""
	}

	return Cond(i.Args[0].MlogString())
}

func (a *Address) Resolve(i int) {
	a.Index = i
	a.Resolved = true
}

func (a *Address) MlogString() string {
	if a == nil || !a.Resolved {
		return "-1"
	}

	return strconv.Itoa(a.Index)
}

func (t Token) MlogString() string { return string(t) }
