package parse

import (
	"context"
	"strconv"

	"tlog.app/go/errors"
)

type (
	Num struct{}
)

func (p Num) Parse(ctx context.Context, b []byte, st int) (x any, i int, err error) {
	i = st

	if i < len(b) && b[i] == '-' {
		i++
	}

	if i < len(b) && b[i] == '0' && i+1 < len(b) && (b[i+1] == 'x' || b[i+1] == 'X') {
		i += 2
		dst := i

		for i < len(b) && isHex(b[i]) {
			i++
		}

		if i == dst {
			return nil, i, errors.New("hex digits expected")
		}

		v, err := strconv.ParseInt(string(b[st:i]), 0, 64)
		if err != nil {
			return nil, i, errors.Wrap(err, "parse int")
		}

		return float64(v), i, nil
	}

	dst := i
	dot := false
	exp := false

loop:
	for ; i < len(b); i++ {
		switch {
		case b[i] >= '0' && b[i] <= '9':
		case !dot && !exp && b[i] == '.':
			dot = true
		case !exp && i != dst && (b[i] == 'e' || b[i] == 'E'):
			exp = true

			if i+1 < len(b) && (b[i+1] == '-' || b[i+1] == '+') {
				i++
			}
		default:
			break loop
		}
	}

	if i == dst || i == dst+1 && b[dst] == '.' {
		return nil, st, errors.New("number expected")
	}

	v, err := strconv.ParseFloat(string(b[st:i]), 64)
	if err != nil {
		return nil, i, errors.Wrap(err, "parse float")
	}

	return v, i, nil
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
