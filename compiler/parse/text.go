package parse

import (
	"bytes"
	"context"
	"strconv"

	"tlog.app/go/errors"
)

type (
	// Const matches exact text.
	Const string

	// Word is a name or a keyword: letters, digits, '_', '-', '.' not starting with a digit.
	Word struct{}

	// Sigil is a Prefix followed by name characters, like %x or $counter.
	Sigil struct {
		Prefix byte
	}

	// Str is a double quoted Go-style string.
	Str struct{}

	Punct string

	Imm    string
	Global string
	Store  string
	Back   string
	Text   string
	Name   string
)

func (p Const) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	if bytes.HasPrefix(b[st:], []byte(p)) {
		return Punct(p), st + len(p), nil
	}

	return nil, st, errors.New("%q expected", string(p))
}

func (p Word) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	if st == len(b) || !isNameStart(b[st]) {
		return nil, st, errors.New("word expected")
	}

	i = scanName(b, st+1)

	return Name(b[st:i]), i, nil
}

func (p Sigil) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	if st == len(b) || b[st] != p.Prefix {
		return nil, st, errors.New("%c expected", p.Prefix)
	}

	i = scanName(b, st+1)
	if i == st+1 {
		return nil, i, errors.New("name expected after %c", p.Prefix)
	}

	name := string(b[st+1 : i])

	switch p.Prefix {
	case '%':
		return Imm(name), i, nil
	case '$':
		return Global(name), i, nil
	case '@':
		return Store("@" + name), i, nil
	case '^':
		return Back(name), i, nil
	default:
		return nil, st, errors.New("unsupported sigil: %c", p.Prefix)
	}
}

func (p Str) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	if st == len(b) || b[st] != '"' {
		return nil, st, errors.New("string expected")
	}

	for i = st + 1; i < len(b) && b[i] != '"' && b[i] != '\n'; i++ {
		if b[i] == '\\' {
			i++
		}
	}

	if i >= len(b) || b[i] != '"' {
		return nil, i, errors.New("unterminated string")
	}

	i++

	s, err := strconv.Unquote(string(b[st:i]))
	if err != nil {
		return nil, i, errors.Wrap(err, "unquote")
	}

	return Text(s), i, nil
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isName(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9' || c == '-' || c == '.'
}

func scanName(b []byte, i int) int {
	for i < len(b) && isName(b[i]) {
		i++
	}

	return i
}
