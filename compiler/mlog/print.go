package mlog

import (
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
)

type (
	PrintOptions struct {
		// Sourcemap appends the source location of each instruction as a comment.
		Sourcemap bool
	}
)

var ErrUnresolvedAddress = errors.New("unresolved jump address")

// Print renders code as mlog text, one instruction per line.
func Print(b []byte, code []Instruction, opts PrintOptions) ([]byte, error) {
	for i, inst := range code {
		if a, ok := inst.Target.(*Address); ok && !a.Resolved {
			return nil, errors.Wrap(ErrUnresolvedAddress, "instruction %d (%v)", i, inst.Op)
		}

		b = append(b, inst.Op...)

		if inst.Target != nil {
			b = append(b, ' ')
			b = append(b, inst.Target.MlogString()...)
		}

		for _, a := range inst.Args {
			b = append(b, ' ')
			b = append(b, a.MlogString()...)
		}

		if opts.Sourcemap && inst.Loc != nil {
			b = hfmt.Appendf(b, " # %s", inst.Loc.String())
		}

		b = append(b, '\n')
	}

	return b, nil
}
