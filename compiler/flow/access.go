package flow

type (
	// ReaderMap is a multiset of readers per resolved value.
	// Readers are instructions or terminators.
	ReaderMap struct {
		c *Context
		m map[int32]map[any]int
	}

	// WriterMap is the unique writer per resolved value.
	WriterMap struct {
		c *Context
		m map[int32]Instr
	}
)

func NewReaderMap(c *Context) *ReaderMap {
	return &ReaderMap{c: c, m: make(map[int32]map[any]int)}
}

func NewWriterMap(c *Context) *WriterMap {
	return &WriterMap{c: c, m: make(map[int32]Instr)}
}

// Add registers every read of x.
func (r *ReaderMap) Add(x Instr) {
	for _, id := range Inputs(x) {
		r.add(id, x)
	}
}

func (r *ReaderMap) Remove(x Instr) {
	for _, id := range Inputs(x) {
		r.remove(id, x)
	}
}

func (r *ReaderMap) AddTerminator(t Terminator) {
	for _, id := range TerminatorInputs(t) {
		r.add(id, t)
	}
}

func (r *ReaderMap) RemoveTerminator(t Terminator) {
	for _, id := range TerminatorInputs(t) {
		r.remove(id, t)
	}
}

// Count is the number of reads of id, a reader reading twice counts twice.
func (r *ReaderMap) Count(id ValueID) (n int) {
	for _, k := range r.m[r.c.resolve(id.Num())] {
		n += k
	}

	return n
}

// Readers is the number of distinct readers of id.
func (r *ReaderMap) Readers(id ValueID) int {
	return len(r.m[r.c.resolve(id.Num())])
}

func (r *ReaderMap) Has(id ValueID, reader any) bool {
	return r.m[r.c.resolve(id.Num())][reader] != 0
}

func (r *ReaderMap) add(id ImmutableID, x any) {
	n := r.c.resolve(int32(id))

	s := r.m[n]
	if s == nil {
		s = make(map[any]int)
		r.m[n] = s
	}

	s[x]++
}

func (r *ReaderMap) remove(id ImmutableID, x any) {
	n := r.c.resolve(int32(id))

	s := r.m[n]
	if s[x] == 0 {
		return
	}

	s[x]--

	if s[x] == 0 {
		delete(s, x)
	}
}

func (w *WriterMap) Add(x Instr) {
	for _, id := range Outputs(x) {
		w.m[w.c.resolve(int32(id))] = x
	}
}

func (w *WriterMap) Remove(x Instr) {
	for _, id := range Outputs(x) {
		n := w.c.resolve(int32(id))

		if w.m[n] == x {
			delete(w.m, n)
		}
	}
}

func (w *WriterMap) Writer(id ValueID) Instr {
	return w.m[w.c.resolve(id.Num())]
}

// Readers collects reads of every instruction and terminator reachable from g.Start.
func (g *Graph) Readers() *ReaderMap {
	r := NewReaderMap(g.c)

	g.Traverse(func(b *Block) {
		for n := b.Instructions.Head(); n != NoNode; n = b.Instructions.Next(n) {
			r.Add(b.Instructions.At(n))
		}

		r.AddTerminator(b.Term)
	})

	return r
}

func (g *Graph) Writers() *WriterMap {
	w := NewWriterMap(g.c)

	g.Traverse(func(b *Block) {
		for n := b.Instructions.Head(); n != NoNode; n = b.Instructions.Next(n) {
			w.Add(b.Instructions.At(n))
		}
	})

	return w
}
