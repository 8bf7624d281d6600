package parse

import (
	"slices"

	"github.com/slowlang/mlogc/compiler/flow"
	"github.com/slowlang/mlogc/compiler/pos"
)

func (s *State) statement(toks []tok) error {
	l := s.Loc(toks[0].off)

	defer func() {
		s.started = true
	}()

	if len(toks) == 2 && toks[1].x == Punct(":") {
		name, ok := toks[0].x.(Name)
		if !ok {
			return flow.Errorf(l, "bad label")
		}

		return s.label(string(name), toks[0].off, l)
	}

	b := s.cur.Block()
	if b.Term != nil {
		return flow.Errorf(l, "instruction after terminator")
	}

	if out, ok := toks[0].x.(Imm); ok {
		if len(toks) < 3 || toks[1].x != Punct("=") {
			return flow.Errorf(l, "assignment expected")
		}

		return s.assignment(s.imm(string(out)), toks[2:], l)
	}

	w, ok := toks[0].x.(Name)
	if !ok {
		return flow.Errorf(l, "instruction expected")
	}

	args := toks[1:]

	switch w {
	case "store":
		if len(args) != 2 {
			return flow.Errorf(l, "store: address and value expected")
		}

		g, ok := args[0].x.(Global)
		if !ok {
			return flow.Errorf(l, "store: global expected")
		}

		v, err := s.value(args[1])
		if err != nil {
			return err
		}

		s.cur.AddInstruction(&flow.Store{Address: s.global(string(g)), Value: v, Source: l})
	case "set":
		ids, err := s.values(args, 3, "set")
		if err != nil {
			return err
		}

		s.cur.AddInstruction(&flow.ValueSet{Target: ids[0], Key: ids[1], Value: ids[2], Source: l})
	case "native":
		x, err := s.native(args, l)
		if err != nil {
			return err
		}

		s.cur.AddInstruction(x)
	case "asm":
		x := &flow.Asm{Source: l}

		for len(args) != 0 {
			end := slices.IndexFunc(args, func(t tok) bool { return t.x == Punct(";") })
			if end < 0 {
				end = len(args)
			}

			line, err := s.native(args[:end], l)
			if err != nil {
				return err
			}

			x.Lines = append(x.Lines, line.Args)
			x.Inputs = append(x.Inputs, line.Inputs...)
			x.Outputs = append(x.Outputs, line.Outputs...)

			if end < len(args) {
				end++
			}

			args = args[end:]
		}

		if len(x.Lines) == 0 {
			return flow.Errorf(l, "asm: empty")
		}

		s.cur.AddInstruction(x)
	default:
		return s.terminator(w, args, l)
	}

	return nil
}

func (s *State) assignment(out flow.ImmutableID, toks []tok, l *pos.Loc) error {
	w, ok := toks[0].x.(Name)
	if !ok {
		return flow.Errorf(l, "operation expected")
	}

	args := toks[1:]

	switch w {
	case "load":
		if len(args) != 1 {
			return flow.Errorf(l, "load: address expected")
		}

		g, ok := args[0].x.(Global)
		if !ok {
			return flow.Errorf(l, "load: global expected")
		}

		s.cur.AddInstruction(&flow.Load{Address: s.global(string(g)), Out: out, Source: l})
	case "op":
		op, args, err := s.operator(args, flow.BinaryOps(), l)
		if err != nil {
			return err
		}

		ids, err := s.values(args, 2, "op")
		if err != nil {
			return err
		}

		s.cur.AddInstruction(&flow.BinaryOp{Op: op, Left: ids[0], Right: ids[1], Out: out, Source: l})
	case "unop":
		op, args, err := s.operator(args, flow.UnaryOps(), l)
		if err != nil {
			return err
		}

		ids, err := s.values(args, 1, "unop")
		if err != nil {
			return err
		}

		s.cur.AddInstruction(&flow.UnaryOp{Op: op, Value: ids[0], Out: out, Source: l})
	case "get":
		x := &flow.ValueGet{Out: out, Source: l}

	flags:
		for len(args) > 2 {
			switch args[len(args)-1].x {
			case Name("optional-object"):
				x.OptionalObject = true
			case Name("optional-key"):
				x.OptionalKey = true
			default:
				break flags
			}

			args = args[:len(args)-1]
		}

		ids, err := s.values(args, 2, "get")
		if err != nil {
			return err
		}

		x.Object, x.Key = ids[0], ids[1]

		s.cur.AddInstruction(x)
	case "call":
		ids, err := s.values(args, -1, "call")
		if err != nil {
			return err
		}

		if len(ids) == 0 {
			return flow.Errorf(l, "call: callee expected")
		}

		s.cur.AddInstruction(&flow.Call{Callee: ids[0], Args: ids[1:], Out: out, Source: l})
	default:
		return flow.Errorf(l, "unknown operation: %s", w)
	}

	return nil
}

func (s *State) terminator(w Name, args []tok, l *pos.Loc) (err error) {
	var t flow.Terminator
	var edges []flow.Edge
	var cond flow.ImmutableID

	need := func(n int, labels int) error {
		if len(args) != n {
			return flow.Errorf(l, "%s: %d arguments expected", w, n)
		}

		if n > labels {
			cond, err = s.value(args[0])
			if err != nil {
				return err
			}
		}

		for _, a := range args[n-labels:] {
			e, err := s.edge(a)
			if err != nil {
				return err
			}

			edges = append(edges, e)
		}

		return nil
	}

	switch w {
	case "break":
		if err = need(1, 1); err != nil {
			return err
		}

		t = &flow.Break{Target: edges[0], Source: l}
	case "break-if":
		if err = need(3, 2); err != nil {
			return err
		}

		t = &flow.BreakIf{Condition: cond, Consequent: edges[0], Alternate: edges[1], Source: l}
	case "end-if":
		if err = need(2, 1); err != nil {
			return err
		}

		t = &flow.EndIf{Condition: cond, Alternate: edges[0], Source: l}
	case "return":
		if err = need(1, 0); err != nil {
			return err
		}

		t = &flow.Return{Value: cond, Source: l}
	case "end":
		if err = need(0, 0); err != nil {
			return err
		}

		t = &flow.End{Source: l}
	case "stop":
		if err = need(0, 0); err != nil {
			return err
		}

		t = &flow.Stop{Source: l}
	default:
		return flow.Errorf(l, "unknown instruction: %s", w)
	}

	s.cur.SetEndInstruction(t)

	return nil
}

func (s *State) label(name string, off int, l *pos.Loc) error {
	if _, ok := s.defined[name]; ok {
		return flow.Errorf(l, "block %s redefined", name)
	}

	s.defined[name] = off

	// the first label names the entry block
	if _, ok := s.blocks[name]; !ok && !s.started {
		s.blocks[name] = s.entry
	}

	b := s.block(name)

	if s.cur.Block().Term == nil {
		s.cur.ConnectBlock(b, l)
	}

	s.cur.SetBlock(b)

	return nil
}

func (s *State) native(args []tok, l *pos.Loc) (*flow.Native, error) {
	x := &flow.Native{Source: l}

	if len(args) == 0 {
		return nil, flow.Errorf(l, "native: instruction expected")
	}

	if _, ok := args[0].x.(Name); !ok {
		return nil, flow.Errorf(l, "native: instruction name expected")
	}

	for i := 0; i < len(args); i++ {
		a := args[i]

		if a.x == Punct(">") {
			if i+1 == len(args) {
				return nil, flow.Errorf(l, "native: output expected after >")
			}

			i++

			out, ok := args[i].x.(Imm)
			if !ok {
				return nil, flow.Errorf(s.Loc(args[i].off), "native: outputs must be immutable values")
			}

			id := s.imm(string(out))

			x.Args = append(x.Args, id)
			x.Outputs = append(x.Outputs, id)

			continue
		}

		if w, ok := a.x.(Name); ok && (i == 0 || s.keyword(w)) {
			x.Args = append(x.Args, flow.Keyword(w))
			continue
		}

		id, err := s.value(a)
		if err != nil {
			return nil, err
		}

		x.Args = append(x.Args, id)
		x.Inputs = append(x.Inputs, id)
	}

	return x, nil
}

// keyword reports whether a bare word in native code is used literally.
func (s *State) keyword(w Name) bool {
	switch w {
	case "null", "true", "false":
		return false
	}

	return true
}

func (s *State) operator(args []tok, ops []flow.Op, l *pos.Loc) (flow.Op, []tok, error) {
	if len(args) == 0 {
		return "", nil, flow.Errorf(l, "operator expected")
	}

	w, _ := args[0].x.(Name)
	op := flow.Op(w)

	if !slices.Contains(ops, op) {
		return "", nil, flow.Errorf(l, "unknown operator: %v", args[0].x)
	}

	return op, args[1:], nil
}

func (s *State) values(args []tok, n int, what string) ([]flow.ImmutableID, error) {
	if n >= 0 && len(args) != n {
		var l *pos.Loc
		if len(args) != 0 {
			l = s.Loc(args[0].off)
		}

		return nil, flow.Errorf(l, "%s: %d operands expected, got %d", what, n, len(args))
	}

	r := make([]flow.ImmutableID, len(args))

	for i, a := range args {
		id, err := s.value(a)
		if err != nil {
			return nil, err
		}

		r[i] = id
	}

	return r, nil
}

func (s *State) value(t tok) (flow.ImmutableID, error) {
	switch x := t.x.(type) {
	case Imm:
		return s.imm(string(x)), nil
	case float64:
		return s.c.RegisterValue(flow.Number(x)), nil
	case Text:
		return s.c.RegisterValue(flow.String(string(x))), nil
	case Store:
		return s.c.RegisterValue(&flow.StoreValue{Name: string(x), Constant: true}), nil
	case Name:
		switch x {
		case "null":
			return s.c.NullID(), nil
		case "true":
			return s.c.RegisterValue(flow.Bool(true)), nil
		case "false":
			return s.c.RegisterValue(flow.Bool(false)), nil
		}

		if id, ok := s.builtins[string(x)]; ok {
			return id, nil
		}

		return 0, flow.Errorf(s.Loc(t.off), "unknown name: %s", x)
	case Global:
		return 0, flow.Errorf(s.Loc(t.off), "global $%s can only be loaded or stored", x)
	default:
		return 0, flow.Errorf(s.Loc(t.off), "value expected, got %v", t.x)
	}
}

func (s *State) edge(t tok) (flow.Edge, error) {
	switch x := t.x.(type) {
	case Name:
		return flow.Forward(s.use(string(x), t.off)), nil
	case Back:
		return flow.Backward(s.use(string(x), t.off)), nil
	default:
		return flow.Edge{}, flow.Errorf(s.Loc(t.off), "block name expected, got %v", t.x)
	}
}

func (s *State) use(name string, off int) flow.BlockID {
	if _, ok := s.used[name]; !ok {
		s.used[name] = off
	}

	return s.block(name).ID
}

func (s *State) block(name string) *flow.Block {
	b, ok := s.blocks[name]
	if !ok {
		b = s.c.NewBlock()
		s.blocks[name] = b
	}

	return b
}

func (s *State) imm(name string) flow.ImmutableID {
	id, ok := s.imms[name]
	if !ok {
		id = s.c.CreateImmutableID()
		s.imms[name] = id
	}

	return id
}

func (s *State) global(name string) flow.GlobalID {
	id, ok := s.globals[name]
	if !ok {
		id = s.c.CreateGlobalID()
		s.c.SetValueName(id, name)
		s.globals[name] = id
	}

	return id
}
