package flow

import (
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/loc"

	"github.com/slowlang/mlogc/compiler/pos"
)

type (
	// Error is the only error kind raised by the compiler core.
	// Internal errors are bugs in the core or misuse of the Cursor contract,
	// the rest are attributable to the compiled program.
	Error struct {
		Msg      string
		Loc      *pos.Loc
		Internal bool

		// PC is where an internal error was raised.
		PC loc.PC
	}
)

func Errorf(l *pos.Loc, format string, args ...any) *Error {
	return &Error{
		Msg: fmt.Sprintf(format, args...),
		Loc: l,
	}
}

func Internalf(l *pos.Loc, format string, args ...any) *Error {
	return &Error{
		Msg:      fmt.Sprintf(format, args...),
		Loc:      l,
		Internal: true,
		PC:       loc.Caller(1),
	}
}

// WithLoc sets the location of the Error in err chain if it has none yet.
// The deepest location wins.
func WithLoc(err error, l *pos.Loc) error {
	var e *Error

	if l == nil || !errors.As(err, &e) || e.Loc != nil {
		return err
	}

	e.Loc = l

	return err
}

func (e *Error) Error() string {
	p := ""
	if e.Internal {
		p = "internal: "
	}

	if e.Loc == nil {
		return p + e.Msg
	}

	return fmt.Sprintf("%s%v: %s", p, e.Loc, e.Msg)
}
