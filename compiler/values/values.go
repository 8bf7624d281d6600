// Package values provides compile time macro values:
// objects, namespaces of VM constants and callable native commands.
package values

import (
	"math"
	"strconv"

	"github.com/slowlang/mlogc/compiler/flow"
	"github.com/slowlang/mlogc/compiler/pos"
)

type (
	// Object is a compile time record. Its properties are bindings, not runtime storage.
	Object struct {
		Name string
		Data map[string]flow.ImmutableID
	}

	// Namespace maps property access to VM constants with Prefix.
	Namespace struct {
		Name   string
		Prefix string
	}

	// Command is a native VM instruction called as a function.
	// Outputs go first in the emitted instruction, then arguments.
	Command struct {
		Name    string
		Inputs  int
		Outputs int
	}

	// Operation is an operator called as a function, like Math.max(a, b).
	Operation struct {
		Op    flow.Op
		Arity int
	}
)

var (
	_ flow.Getter          = &Object{}
	_ flow.Setter          = &Object{}
	_ flow.PropertyChecker = &Object{}
	_ flow.Getter          = &Namespace{}
	_ flow.Caller          = &Command{}
	_ flow.Caller          = &Operation{}
)

func NewObject(name string) *Object {
	return &Object{Name: name, Data: map[string]flow.ImmutableID{}}
}

func (o *Object) MlogString() string  { return strconv.Quote("[object " + o.Name + "]") }
func (o *Object) DebugString() string { return "Object(" + o.Name + ")" }

func (o *Object) Get(c *flow.Context, cur *flow.Cursor, target, key flow.ImmutableID, l *pos.Loc) (flow.ImmutableID, error) {
	k, ok := propertyName(c.Value(key))
	if !ok {
		return 0, flow.Errorf(l, "the member [%s] does not exist in [%s]", c.ValueOrTemp(key).DebugString(), o.DebugString())
	}

	id, ok := o.Data[k]
	if !ok {
		return 0, flow.Errorf(l, "the member [%s] does not exist in [%s]", k, o.DebugString())
	}

	return id, nil
}

func (o *Object) Set(c *flow.Context, cur *flow.Cursor, target, key, value flow.ImmutableID, l *pos.Loc) error {
	k, ok := propertyName(c.Value(key))
	if !ok {
		return flow.Errorf(l, "object keys must be known at compile time")
	}

	o.Data[k] = value

	return nil
}

func (o *Object) HasProperty(c *flow.Context, key flow.Value) bool {
	k, ok := propertyName(key)
	if !ok {
		return false
	}

	_, ok = o.Data[k]

	return ok
}

func (n *Namespace) MlogString() string  { return strconv.Quote("[namespace " + n.Name + "]") }
func (n *Namespace) DebugString() string { return "Namespace(" + n.Name + ")" }

func (n *Namespace) Get(c *flow.Context, cur *flow.Cursor, target, key flow.ImmutableID, l *pos.Loc) (flow.ImmutableID, error) {
	k, ok := propertyName(c.Value(key))
	if !ok {
		return 0, flow.Errorf(l, "namespace %s members must be known at compile time", n.Name)
	}

	return c.RegisterValue(&flow.StoreValue{Name: n.Prefix + k, Constant: true}), nil
}

func (n *Namespace) HasProperty(c *flow.Context, key flow.Value) bool {
	_, ok := propertyName(key)
	return ok
}

func (x *Command) MlogString() string  { return strconv.Quote("[command " + x.Name + "]") }
func (x *Command) DebugString() string { return "Command(" + x.Name + ")" }

// Call emits the command. The result is the first output or null.
func (x *Command) Call(c *flow.Context, cur *flow.Cursor, l *pos.Loc, args []flow.ImmutableID) (flow.ImmutableID, error) {
	if len(args) != x.Inputs {
		return 0, flow.Errorf(l, "%s expects %d arguments, got %d", x.Name, x.Inputs, len(args))
	}

	n := x.native(c, l, args)

	cur.AddInstruction(n)

	if x.Outputs == 0 {
		return c.NullID(), nil
	}

	return n.Outputs[0], nil
}

func (x *Command) native(c *flow.Context, l *pos.Loc, args []flow.ImmutableID) *flow.Native {
	switch x.Name {
	case "print":
		return flow.NewPrint(args[0], l)
	case "read":
		return flow.NewRead(args[0], args[1], c.CreateImmutableID(), l)
	case "write":
		return flow.NewWrite(args[1], args[2], args[0], l)
	case "sensor":
		return flow.NewSensor(args[0], args[1], c.CreateImmutableID(), l)
	}

	n := &flow.Native{
		Args:   []flow.NativeArg{flow.Keyword(x.Name)},
		Inputs: args,
		Source: l,
	}

	for i := 0; i < x.Outputs; i++ {
		out := c.CreateImmutableID()

		n.Args = append(n.Args, out)
		n.Outputs = append(n.Outputs, out)
	}

	for _, a := range args {
		n.Args = append(n.Args, a)
	}

	return n
}

func (x *Operation) MlogString() string  { return strconv.Quote("[operation " + string(x.Op) + "]") }
func (x *Operation) DebugString() string { return "Operation(" + string(x.Op) + ")" }

func (x *Operation) Call(c *flow.Context, cur *flow.Cursor, l *pos.Loc, args []flow.ImmutableID) (flow.ImmutableID, error) {
	if len(args) != x.Arity {
		return 0, flow.Errorf(l, "%s expects %d arguments, got %d", x.Op, x.Arity, len(args))
	}

	out := c.CreateImmutableID()

	switch x.Arity {
	case 1:
		cur.AddInstruction(&flow.UnaryOp{Op: x.Op, Value: args[0], Out: out, Source: l})
	case 2:
		cur.AddInstruction(&flow.BinaryOp{Op: x.Op, Left: args[0], Right: args[1], Out: out, Source: l})
	default:
		return 0, flow.Internalf(l, "operation %s with arity %d", x.Op, x.Arity)
	}

	return out, nil
}

// Builtins registers the global macros in c.
func Builtins(c *flow.Context) map[string]flow.ImmutableID {
	r := map[string]flow.ImmutableID{}

	for _, x := range []*Command{
		{Name: "print", Inputs: 1},
		{Name: "printflush", Inputs: 1},
		{Name: "drawflush", Inputs: 1},
		{Name: "wait", Inputs: 1},
		{Name: "read", Inputs: 2, Outputs: 1},
		{Name: "write", Inputs: 3},
		{Name: "getlink", Inputs: 1, Outputs: 1},
		{Name: "sensor", Inputs: 2, Outputs: 1},
		{Name: "ubind", Inputs: 1},
	} {
		r[x.Name] = c.RegisterValue(x)
	}

	r["Vars"] = c.RegisterValue(&Namespace{Name: "Vars", Prefix: "@"})

	m := NewObject("Math")

	m.Data["PI"] = c.RegisterValue(flow.Number(math.Pi))
	m.Data["E"] = c.RegisterValue(flow.Number(math.E))

	for _, op := range flow.UnaryOps() {
		m.Data[string(op)] = c.RegisterValue(&Operation{Op: op, Arity: 1})
	}

	for _, op := range []flow.Op{flow.OpMax, flow.OpMin, flow.OpAngle, flow.OpAngleDiff, flow.OpLen, flow.OpNoise, flow.OpPow, flow.OpIdiv} {
		m.Data[string(op)] = c.RegisterValue(&Operation{Op: op, Arity: 2})
	}

	r["Math"] = c.RegisterValue(m)

	return r
}

func propertyName(v flow.Value) (string, bool) {
	l, ok := v.(*flow.Literal)
	if !ok {
		return "", false
	}

	switch {
	case l.IsString():
		return l.Str, true
	case l.IsNumber():
		return l.MlogString(), true
	}

	return "", false
}
