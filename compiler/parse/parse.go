// Package parse reads flow assembly: a textual form of the control flow graph.
//
//	entry:
//		%c = op lessThan %x 10
//		break-if %c small big
//	small:
//		%r = call print "small"
//		end
//	big:
//		store $y %x
//		break ^entry
//
// Lines are instructions or `name:` labels starting a block.
// A block without a terminator falls through into the next label,
// the last one into the implicit exit block ending the program.
package parse

import (
	"context"
	"os"
	"sort"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/mlogc/compiler/flow"
	"github.com/slowlang/mlogc/compiler/pos"
	"github.com/slowlang/mlogc/compiler/values"
)

type (
	State struct {
		b []byte // all files concatenated

		files []file

		c        *flow.Context
		builtins map[string]flow.ImmutableID

		blocks  map[string]*flow.Block
		defined map[string]int // label -> offset
		used    map[string]int

		imms    map[string]flow.ImmutableID
		globals map[string]flow.GlobalID

		entry, exit *flow.Block
		cur         *flow.Cursor
		started     bool
	}

	file struct {
		base int
		size int
		name string
	}

	Parser interface {
		Parse(ctx context.Context, b []byte, st int) (x any, i int, err error)
	}

	tok struct {
		x   any
		off int
	}
)

var token = AnyOf{
	Const("="), Const(">"), Const(";"), Const(":"),
	Sigil{Prefix: '%'},
	Sigil{Prefix: '$'},
	Sigil{Prefix: '@'},
	Sigil{Prefix: '^'},
	Num{},
	Str{},
	Word{},
}

func ParseFile(ctx context.Context, c *flow.Context, name string) (*flow.Graph, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, c, name, data)
}

func Parse(ctx context.Context, c *flow.Context, name string, text []byte) (*flow.Graph, error) {
	s := New(c)

	s.AddFile(name, text)

	return s.Parse(ctx)
}

func New(c *flow.Context) *State {
	return &State{
		c:        c,
		builtins: values.Builtins(c),
		blocks:   map[string]*flow.Block{},
		defined:  map[string]int{},
		used:     map[string]int{},
		imms:     map[string]flow.ImmutableID{},
		globals:  map[string]flow.GlobalID{},
	}
}

func (s *State) AddFile(name string, text []byte) {
	f := file{
		name: name,
		base: len(s.b),
		size: len(text),
	}

	s.b = append(s.b, text...)

	if len(text) != 0 && text[len(text)-1] != '\n' {
		s.b = append(s.b, '\n')
		f.size++
	}

	s.files = append(s.files, f)
}

func (s *State) Parse(ctx context.Context) (g *flow.Graph, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "files", len(s.files), "size", len(s.b))
	defer tr.Finish("err", &err)

	s.entry = s.c.NewBlock()
	s.exit = s.c.NewBlock()
	s.cur = flow.NewCursor(s.c, flow.CursorEdit, s.entry)

	for st := 0; st < len(s.b); {
		end := st
		for end < len(s.b) && s.b[end] != '\n' {
			end++
		}

		toks, err := s.tokens(ctx, st, end)
		if err != nil {
			return nil, err
		}

		if len(toks) != 0 {
			err = s.statement(toks)
			if err != nil {
				return nil, flow.WithLoc(err, s.Loc(toks[0].off))
			}
		}

		st = end + 1
	}

	names := make([]string, 0, len(s.used))

	for name := range s.used {
		if _, ok := s.defined[name]; !ok {
			names = append(names, name)
		}
	}

	if len(names) != 0 {
		sort.Slice(names, func(i, j int) bool { return s.used[names[i]] < s.used[names[j]] })

		return nil, flow.Errorf(s.Loc(s.used[names[0]]), "undefined block %s", names[0])
	}

	g = flow.From(s.c, s.entry, s.exit)

	tr.V("parse").Printw("parsed", "blocks", len(s.blocks), "reachable", g.Reachable())

	return g, nil
}

// tokens splits a line. Comments start with '#'.
func (s *State) tokens(ctx context.Context, st, end int) (r []tok, err error) {
	b := s.b[:end]

	for i := st; ; {
		i = SpaceTab.Skip(b, i)

		if i == end || b[i] == '#' {
			return r, nil
		}

		x, j, err := token.Parse(ctx, b, i)
		if err != nil {
			return nil, flow.Errorf(s.Loc(i), "bad token: %v", err)
		}

		if j < end && isName(b[j]) && isName(b[j-1]) {
			return nil, flow.Errorf(s.Loc(j), "unexpected %q", b[j])
		}

		r = append(r, tok{x: x, off: i})
		i = j
	}
}

// Loc converts a buffer offset into a file position.
func (s *State) Loc(off int) *pos.Loc {
	for _, f := range s.files {
		if off < f.base || off >= f.base+f.size {
			continue
		}

		line, col := 1, 1

		for _, c := range s.b[f.base:off] {
			if c == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}

		return pos.At(f.name, line, col)
	}

	return nil
}
