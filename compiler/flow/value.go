package flow

import (
	"math"
	"strconv"

	"github.com/slowlang/mlogc/compiler/pos"
)

type (
	// Value is bound to a ValueID through the Context.
	Value interface {
		MlogString() string
		DebugString() string
	}

	// Getter values support property access. Consulted by ValueGet lowering.
	Getter interface {
		Get(c *Context, cur *Cursor, target, key ImmutableID, l *pos.Loc) (ImmutableID, error)
	}

	// Setter values support property assignment. Consulted by ValueSet lowering.
	Setter interface {
		Set(c *Context, cur *Cursor, target, key, value ImmutableID, l *pos.Loc) error
	}

	// Caller values can be called. Consulted by Call lowering.
	Caller interface {
		Call(c *Context, cur *Cursor, l *pos.Loc, args []ImmutableID) (ImmutableID, error)
	}

	// PropertyChecker is used by optional property access.
	PropertyChecker interface {
		HasProperty(c *Context, key Value) bool
	}

	LiteralKind uint8

	// Literal is a compile time constant.
	Literal struct {
		Kind LiteralKind
		Num  float64
		Str  string
	}

	// StoreValue is a named cell whose value is only known at runtime.
	StoreValue struct {
		Name string

		Constant  bool
		Temporary bool
	}
)

const (
	LiteralNull LiteralKind = iota
	LiteralNumber
	LiteralString
)

func Number(f float64) *Literal { return &Literal{Kind: LiteralNumber, Num: f} }
func String(s string) *Literal  { return &Literal{Kind: LiteralString, Str: s} }
func Null() *Literal            { return &Literal{} }

func Bool(v bool) *Literal {
	if v {
		return Number(1)
	}

	return Number(0)
}

func (l *Literal) IsNull() bool   { return l.Kind == LiteralNull }
func (l *Literal) IsNumber() bool { return l.Kind == LiteralNumber }
func (l *Literal) IsString() bool { return l.Kind == LiteralString }

// Float is the numeric meaning of the literal in the VM:
// null is 0, strings are non-null objects and count as 1.
func (l *Literal) Float() float64 {
	switch l.Kind {
	case LiteralNumber:
		return l.Num
	case LiteralString:
		return 1
	default:
		return 0
	}
}

func (l *Literal) MlogString() string {
	switch l.Kind {
	case LiteralNumber:
		return formatNumber(l.Num)
	case LiteralString:
		return strconv.Quote(l.Str)
	default:
		return "null"
	}
}

func (l *Literal) DebugString() string {
	return "Literal(" + l.MlogString() + ")"
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (s *StoreValue) MlogString() string  { return s.Name }
func (s *StoreValue) DebugString() string { return strconv.Quote(s.Name) }

// Get senses a property of a runtime object.
func (s *StoreValue) Get(c *Context, cur *Cursor, target, key ImmutableID, l *pos.Loc) (ImmutableID, error) {
	prop := c.Value(key)
	out := c.CreateImmutableID()

	if coord := s.thisCoord(prop); coord != "" {
		c.SetValue(out, &StoreValue{Name: "@this" + coord, Constant: true})

		return out, nil
	}

	switch prop := prop.(type) {
	case *Literal:
		if !prop.IsString() {
			break
		}

		sense := c.RegisterValue(&StoreValue{Name: "@" + prop.Str, Constant: true})

		cur.AddInstruction(NewSensor(target, sense, out, l))

		return out, nil
	case *StoreValue, nil:
		cur.AddInstruction(NewSensor(target, key, out, l))

		return out, nil
	}

	return 0, Errorf(l, "the property [%s] cannot be sensed", prop.DebugString())
}

func (s *StoreValue) HasProperty(c *Context, key Value) bool {
	switch key := key.(type) {
	case *Literal:
		return key.IsString()
	case *StoreValue:
		return true
	}

	return false
}

func (s *StoreValue) thisCoord(prop Value) (name string) {
	if s.Name != "@this" {
		return ""
	}

	switch prop := prop.(type) {
	case *Literal:
		if prop.IsString() {
			name = prop.Str
		}
	case *StoreValue:
		if len(prop.Name) > 1 && prop.Name[0] == '@' {
			name = prop.Name[1:]
		}
	}

	if name == "x" || name == "y" {
		return name
	}

	return ""
}
