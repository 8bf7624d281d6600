package flow

// Lower replaces virtual instructions with concrete ones
// provided by the values they operate on.
func (g *Graph) Lower() (err error) {
	cur := NewCursor(g.c, CursorEdit, g.c.Block(g.Start))

	g.Traverse(func(b *Block) {
		if err != nil {
			return
		}

		cur.SetBlock(b)

		l := &b.Instructions

		for n := l.Head(); n != NoNode; {
			x, ok := l.At(n).(Lowerable)
			if !ok {
				n = l.Next(n)
				continue
			}

			cur.SetPosition(n)

			err = x.Lower(g.c, cur)
			if err != nil {
				err = WithLoc(err, x.Location())
				return
			}

			// lowered instructions are right after n and get lowered in turn
			next := l.Next(n)
			l.Remove(n)
			n = next
		}
	})

	return err
}

func (x *ValueGet) Lower(c *Context, cur *Cursor) error {
	obj := c.ValueOrTemp(x.Object)
	key := c.ValueOrTemp(x.Key)

	if x.OptionalObject {
		if l, ok := obj.(*Literal); ok && l.IsNull() {
			c.SetAlias(x.Out, NullID)
			return nil
		}
	}

	if x.OptionalKey {
		pc, ok := obj.(PropertyChecker)
		if !ok || !pc.HasProperty(c, key) {
			c.SetAlias(x.Out, NullID)
			return nil
		}
	}

	g, ok := obj.(Getter)
	if !ok {
		return Errorf(x.Source, "the member [%s] does not exist in [%s]", key.DebugString(), obj.DebugString())
	}

	res, err := g.Get(c, cur, x.Object, x.Key, x.Source)
	if err != nil {
		return WithLoc(err, x.Source)
	}

	c.SetAlias(x.Out, res)

	return nil
}

func (x *ValueSet) Lower(c *Context, cur *Cursor) error {
	obj := c.ValueOrTemp(x.Target)

	s, ok := obj.(Setter)
	if !ok {
		return Errorf(x.Source, "this object does not support setting values")
	}

	err := s.Set(c, cur, x.Target, x.Key, x.Value, x.Source)
	if err != nil {
		return WithLoc(err, x.Source)
	}

	return nil
}

func (x *Call) Lower(c *Context, cur *Cursor) error {
	callee := c.ValueOrTemp(x.Callee)

	f, ok := callee.(Caller)
	if !ok {
		return Errorf(x.Source, "[%s] is not callable", callee.DebugString())
	}

	res, err := f.Call(c, cur, x.Source, x.Args)
	if err != nil {
		return WithLoc(err, x.Source)
	}

	c.SetAlias(x.Out, res)

	return nil
}
