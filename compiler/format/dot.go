package format

import (
	"context"
	"strings"

	"tlog.app/go/errors"

	"github.com/slowlang/mlogc/compiler/flow"
)

// DOT appends the graph in Graphviz format.
// Consequent edges are labeled T, alternates F, back edges are dashed.
func DOT(ctx context.Context, b []byte, g *flow.Graph) (_ []byte, err error) {
	n := newNames(g)

	b = append(b, "digraph flow {\n"...)
	b = app(b, 1, "node [shape=box fontname=monospace];\n")

	g.Traverse(func(blk *flow.Block) {
		if err != nil {
			return
		}

		var text []byte

		text, err = n.formatBlock(text, blk, 0)
		if err != nil {
			err = errors.Wrap(err, "block %v", blk.ID)
			return
		}

		b = app(b, 1, "%s [label=\"%s\"];\n", n.block(blk.ID), dotEscape(string(text)))

		_, cond := blk.Term.(*flow.BreakIf)

		for i, e := range blk.ChildEdges() {
			var attrs []string

			if cond {
				attrs = append(attrs, `label="`+[]string{"T", "F"}[i]+`"`)
			}

			if e.Back {
				attrs = append(attrs, "style=dashed")
			}

			b = app(b, 1, "%s -> %s", n.block(blk.ID), n.block(e.To))

			if len(attrs) != 0 {
				b = app(b, 0, " [%s]", strings.Join(attrs, " "))
			}

			b = append(b, ";\n"...)
		}
	})

	if err != nil {
		return nil, err
	}

	b = append(b, "}\n"...)

	return b, nil
}

var dotReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\l`)

func dotEscape(s string) string {
	return dotReplacer.Replace(s)
}
