package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/mlogc/compiler/flow"
	"github.com/slowlang/mlogc/compiler/format"
	"github.com/slowlang/mlogc/compiler/mlog"
	"github.com/slowlang/mlogc/compiler/parse"
)

type (
	Options struct {
		CompactNames    bool
		Sourcemap       bool
		OptimizeGlobals bool
	}
)

func CompileFile(ctx context.Context, name string, opts Options) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, opts)
}

// Compile turns flow assembly into mlog text.
func Compile(ctx context.Context, name string, text []byte, opts Options) (obj []byte, err error) {
	code, err := CompileCode(ctx, name, text, opts)
	if err != nil {
		return nil, err
	}

	obj, err = mlog.Print(nil, code, mlog.PrintOptions{Sourcemap: opts.Sourcemap})
	if err != nil {
		return nil, errors.Wrap(err, "print")
	}

	return obj, nil
}

// CompileCode is Compile stopping before printing.
func CompileCode(ctx context.Context, name string, text []byte, opts Options) (code []mlog.Instruction, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	c := flow.NewContext(opts.flow())

	g, err := parse.Parse(ctx, c, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	if tr.If("dump_graph") {
		dump, err := format.Format(ctx, nil, g)
		tr.Printw("graph", "text", dump, "err", err)
	}

	code, err = g.ToMlog(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "compile")
	}

	return code, nil
}

// Dump parses and optionally optimizes the graph and formats it back.
func Dump(ctx context.Context, name string, text []byte, opts Options, optimize, dot bool) (_ []byte, err error) {
	c := flow.NewContext(opts.flow())

	g, err := parse.Parse(ctx, c, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	if optimize {
		err = g.Lower()
		if err != nil {
			return nil, errors.Wrap(err, "lower")
		}

		g.Optimize(ctx)
	}

	if dot {
		return format.DOT(ctx, nil, g)
	}

	return format.Format(ctx, nil, g)
}

func (o Options) flow() flow.Options {
	return flow.Options{
		CompactNames:    o.CompactNames,
		OptimizeGlobals: o.OptimizeGlobals,
	}
}
