package main

import (
	"context"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/mlogc/compiler"
)

func main() {
	optFlags := []*cli.Flag{
		cli.NewFlag("compact-names", false, "use short names for generated temporaries"),
		cli.NewFlag("optimize-globals", false, "forward stored globals to loads in straight line code"),
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile flow assembly files into mlog",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: append([]*cli.Flag{
			cli.NewFlag("sourcemap", false, "annotate instructions with source locations"),
			cli.NewFlag("output,o", "", "output file, stdout if empty"),
		}, optFlags...),
	}

	dumpCmd := &cli.Command{
		Name:        "dump",
		Description: "print the flow graph back as text",
		Action:      dumpAct,
		Args:        cli.Args{},
		Flags: append([]*cli.Flag{
			cli.NewFlag("optimize", false, "lower and optimize before printing"),
		}, optFlags...),
	}

	dotCmd := &cli.Command{
		Name:        "dot",
		Description: "print the flow graph in graphviz format",
		Action:      dotAct,
		Args:        cli.Args{},
		Flags: append([]*cli.Flag{
			cli.NewFlag("optimize", false, "lower and optimize before printing"),
		}, optFlags...),
	}

	app := &cli.Command{
		Name:        "mlogc",
		Description: "mlogc compiles flow assembly into logic processor code",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbose,v", "", "tlog verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			compileCmd,
			dumpCmd,
			dotCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbose"))

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	opts := options(c)
	opts.Sourcemap = c.Bool("sourcemap")

	var out []byte

	for _, a := range c.Args {
		obj, err := compiler.CompileFile(ctx, a, opts)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		out = append(out, obj...)
	}

	return write(c.String("output"), out)
}

func dumpAct(c *cli.Command) error {
	return dump(c, false)
}

func dotAct(c *cli.Command) error {
	return dump(c, true)
}

func dump(c *cli.Command, dot bool) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read file")
		}

		res, err := compiler.Dump(ctx, a, text, options(c), c.Bool("optimize"), dot)
		if err != nil {
			return errors.Wrap(err, "dump %v", a)
		}

		_, err = os.Stdout.Write(res)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func options(c *cli.Command) compiler.Options {
	return compiler.Options{
		CompactNames:    c.Bool("compact-names"),
		OptimizeGlobals: c.Bool("optimize-globals"),
	}
}

func write(name string, data []byte) error {
	if name == "" || name == "-" {
		_, err := os.Stdout.Write(data)
		if err != nil {
			return errors.Wrap(err, "write stdout")
		}

		return nil
	}

	err := os.WriteFile(name, data, 0o644)
	if err != nil {
		return errors.Wrap(err, "write file")
	}

	return nil
}
