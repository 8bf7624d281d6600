package pos

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Loc is a position range in a source file.
	// Line and Column are 1-based, zero means unknown.
	Loc struct {
		File string

		Line, Column       int
		EndLine, EndColumn int
	}
)

func At(file string, line, col int) *Loc {
	return &Loc{
		File:   file,
		Line:   line,
		Column: col,
	}
}

func (l *Loc) String() string {
	if l == nil {
		return "<unknown>"
	}

	b := make([]byte, 0, len(l.File)+16)

	if l.File != "" {
		b = append(b, l.File...)
		b = append(b, ':')
	}

	b = strconv.AppendInt(b, int64(l.Line), 10)

	if l.Column != 0 {
		b = append(b, ':')
		b = strconv.AppendInt(b, int64(l.Column), 10)
	}

	return string(b)
}

func (l *Loc) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if l == nil {
		return e.AppendNil(b)
	}

	return e.AppendString(b, l.String())
}
