package flow

import (
	"math"
)

// Op is an mlog operator name.
type Op string

const (
	OpAdd       Op = "add"
	OpSub       Op = "sub"
	OpMul       Op = "mul"
	OpDiv       Op = "div"
	OpIdiv      Op = "idiv"
	OpMod       Op = "mod"
	OpPow       Op = "pow"
	OpEqual     Op = "equal"
	OpNotEqual  Op = "notEqual"
	OpLand      Op = "land"
	OpLess      Op = "lessThan"
	OpLessEq    Op = "lessThanEq"
	OpGreater   Op = "greaterThan"
	OpGreaterEq Op = "greaterThanEq"
	OpStrictEq  Op = "strictEqual"
	OpShl       Op = "shl"
	OpShr       Op = "shr"
	OpOr        Op = "or"
	OpAnd       Op = "and"
	OpXor       Op = "xor"
	OpMax       Op = "max"
	OpMin       Op = "min"
	OpAngle     Op = "angle"
	OpAngleDiff Op = "angleDiff"
	OpLen       Op = "len"
	OpNoise     Op = "noise"

	OpNot   Op = "not"
	OpAbs   Op = "abs"
	OpLog   Op = "log"
	OpLog10 Op = "log10"
	OpFloor Op = "floor"
	OpCeil  Op = "ceil"
	OpSqrt  Op = "sqrt"
	OpRand  Op = "rand"
	OpSin   Op = "sin"
	OpCos   Op = "cos"
	OpTan   Op = "tan"
	OpAsin  Op = "asin"
	OpAcos  Op = "acos"
	OpAtan  Op = "atan"
)

// equality tolerance of the VM for numbers
const epsilon = 1e-6

var inverted = map[Op]Op{
	OpEqual:     OpNotEqual,
	OpNotEqual:  OpEqual,
	OpLess:      OpGreaterEq,
	OpGreaterEq: OpLess,
	OpLessEq:    OpGreater,
	OpGreater:   OpLessEq,
}

var mirrored = map[Op]Op{
	OpLess:      OpGreater,
	OpGreater:   OpLess,
	OpLessEq:    OpGreaterEq,
	OpGreaterEq: OpLessEq,
}

func BinaryOps() []Op {
	return []Op{
		OpAdd, OpSub, OpMul, OpDiv, OpIdiv, OpMod, OpPow,
		OpEqual, OpNotEqual, OpLand, OpLess, OpLessEq, OpGreater, OpGreaterEq, OpStrictEq,
		OpShl, OpShr, OpOr, OpAnd, OpXor, OpMax, OpMin,
		OpAngle, OpAngleDiff, OpLen, OpNoise,
	}
}

func UnaryOps() []Op {
	return []Op{
		OpNot, OpAbs, OpLog, OpLog10, OpFloor, OpCeil, OpSqrt, OpRand,
		OpSin, OpCos, OpTan, OpAsin, OpAcos, OpAtan,
	}
}

// IsJumpMergeable reports whether the operator is also a jump condition.
func (x *BinaryOp) IsJumpMergeable() bool {
	switch x.Op {
	case OpEqual, OpNotEqual, OpLess, OpLessEq, OpGreater, OpGreaterEq, OpStrictEq:
		return true
	}

	return false
}

func (x *BinaryOp) IsInvertible() bool {
	_, ok := inverted[x.Op]
	return ok
}

// Invert replaces the operator with its logical negation.
func (x *BinaryOp) Invert() error {
	op, ok := inverted[x.Op]
	if !ok {
		return Internalf(x.Source, "operator %v is not invertible", x.Op)
	}

	x.Op = op

	return nil
}

// IsCanonicalizable reports whether operands may be swapped,
// possibly together with mirroring the operator.
func (x *BinaryOp) IsCanonicalizable() bool {
	switch x.Op {
	case OpAdd, OpMul, OpEqual, OpNotEqual, OpStrictEq, OpLand,
		OpOr, OpAnd, OpXor, OpMax, OpMin:
		return true
	}

	_, ok := mirrored[x.Op]

	return ok
}

// Canonicalize swaps operands and mirrors directional operators.
func (x *BinaryOp) Canonicalize() {
	if op, ok := mirrored[x.Op]; ok {
		x.Op = op
	}

	x.Left, x.Right = x.Right, x.Left
}

// ConstantFold binds the result to Out if both operands are literals
// and the result is known at compile time.
func (x *BinaryOp) ConstantFold(c *Context) bool {
	l, ok := c.Value(x.Left).(*Literal)
	if !ok {
		return false
	}

	r, ok := c.Value(x.Right).(*Literal)
	if !ok {
		return false
	}

	v, ok := FoldBinary(x.Op, l, r)
	if !ok {
		return false
	}

	c.SetValue(x.Out, v)

	return true
}

func (x *UnaryOp) ConstantFold(c *Context) bool {
	l, ok := c.Value(x.Value).(*Literal)
	if !ok {
		return false
	}

	v, ok := FoldUnary(x.Op, l)
	if !ok {
		return false
	}

	c.SetValue(x.Out, v)

	return true
}

// FoldBinary evaluates op the way the VM does.
// Equality of different kinds is false, other operators need numbers or nulls.
func FoldBinary(op Op, l, r *Literal) (*Literal, bool) {
	switch op {
	case OpEqual, OpNotEqual, OpStrictEq:
		eq := equal(l, r, op == OpStrictEq)

		if op == OpNotEqual {
			eq = !eq
		}

		return Bool(eq), true
	}

	if l.IsString() || r.IsString() {
		return nil, false
	}

	a, b := l.Float(), r.Float()

	var res float64

	switch op {
	case OpAdd:
		res = a + b
	case OpSub:
		res = a - b
	case OpMul:
		res = a * b
	case OpDiv:
		if b == 0 {
			return nil, false
		}

		res = a / b
	case OpIdiv:
		if b == 0 {
			return nil, false
		}

		res = math.Floor(a / b)
	case OpMod:
		if b == 0 {
			return nil, false
		}

		res = math.Mod(a, b)
	case OpPow:
		res = math.Pow(a, b)
	case OpLand:
		res = b2f(a != 0 && b != 0)
	case OpLess:
		res = b2f(a < b)
	case OpLessEq:
		res = b2f(a <= b)
	case OpGreater:
		res = b2f(a > b)
	case OpGreaterEq:
		res = b2f(a >= b)
	case OpShl:
		res = float64(int64(a) << uint64(int64(b)&63))
	case OpShr:
		res = float64(int64(a) >> uint64(int64(b)&63))
	case OpOr:
		res = float64(int64(a) | int64(b))
	case OpAnd:
		res = float64(int64(a) & int64(b))
	case OpXor:
		res = float64(int64(a) ^ int64(b))
	case OpMax:
		res = math.Max(a, b)
	case OpMin:
		res = math.Min(a, b)
	case OpAngle:
		res = degrees(math.Atan2(b, a))
		if res < 0 {
			res += 360
		}
	case OpAngleDiff:
		res = angleDiff(a, b)
	case OpLen:
		res = math.Hypot(a, b)
	default:
		return nil, false
	}

	if math.IsNaN(res) || math.IsInf(res, 0) {
		return nil, false
	}

	return Number(res), true
}

func FoldUnary(op Op, l *Literal) (*Literal, bool) {
	if l.IsString() {
		return nil, false
	}

	a := l.Float()

	var res float64

	switch op {
	case OpNot:
		res = float64(^int64(a))
	case OpAbs:
		res = math.Abs(a)
	case OpLog:
		res = math.Log(a)
	case OpLog10:
		res = math.Log10(a)
	case OpFloor:
		res = math.Floor(a)
	case OpCeil:
		res = math.Ceil(a)
	case OpSqrt:
		res = math.Sqrt(a)
	case OpSin:
		res = math.Sin(radians(a))
	case OpCos:
		res = math.Cos(radians(a))
	case OpTan:
		res = math.Tan(radians(a))
	case OpAsin:
		res = degrees(math.Asin(a))
	case OpAcos:
		res = degrees(math.Acos(a))
	case OpAtan:
		res = degrees(math.Atan(a))
	default:
		return nil, false
	}

	if math.IsNaN(res) || math.IsInf(res, 0) {
		return nil, false
	}

	return Number(res), true
}

func equal(l, r *Literal, strict bool) bool {
	if l.Kind != r.Kind {
		return false
	}

	switch l.Kind {
	case LiteralNumber:
		if strict {
			return l.Num == r.Num
		}

		return math.Abs(l.Num-r.Num) < epsilon
	case LiteralString:
		return l.Str == r.Str
	default:
		return true
	}
}

func angleDiff(a, b float64) float64 {
	a = math.Mod(a, 360)
	b = math.Mod(b, 360)

	if a < 0 {
		a += 360
	}

	if b < 0 {
		b += 360
	}

	d := math.Abs(a - b)

	return math.Min(d, 360-d)
}

func degrees(r float64) float64 { return r * 180 / math.Pi }
func radians(d float64) float64 { return d * math.Pi / 180 }

func b2f(v bool) float64 {
	if v {
		return 1
	}

	return 0
}
