package flow

type (
	// NodeID is a stable handle of an instruction node in the Context arena.
	NodeID int32

	node struct {
		inst       Instr
		prev, next NodeID
	}

	arena struct {
		nodes []node
	}

	// InstructionList is a doubly linked list of instructions.
	// Nodes live in the Context arena so handles stay valid while the list is edited.
	InstructionList struct {
		a *arena

		head, tail NodeID
		n          int
	}
)

const noNode NodeID = -1

// NoNode is the handle past either end of a list.
const NoNode = noNode

func (a *arena) alloc(x Instr) NodeID {
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, node{inst: x, prev: noNode, next: noNode})

	return id
}

func (l *InstructionList) Len() int             { return l.n }
func (l *InstructionList) IsEmpty() bool        { return l.n == 0 }
func (l *InstructionList) Head() NodeID         { return l.head }
func (l *InstructionList) Tail() NodeID         { return l.tail }
func (l *InstructionList) Next(n NodeID) NodeID { return l.a.nodes[n].next }
func (l *InstructionList) Prev(n NodeID) NodeID { return l.a.nodes[n].prev }
func (l *InstructionList) At(n NodeID) Instr    { return l.a.nodes[n].inst }

// Add appends x to the end of the list.
func (l *InstructionList) Add(x Instr) NodeID {
	id := l.a.alloc(x)

	l.n++

	if l.head == noNode {
		l.head = id
		l.tail = id

		return id
	}

	l.a.nodes[l.tail].next = id
	l.a.nodes[id].prev = l.tail
	l.tail = id

	return id
}

// InsertAfter puts x right after before.
func (l *InstructionList) InsertAfter(before NodeID, x Instr) NodeID {
	id := l.a.alloc(x)
	after := l.a.nodes[before].next

	l.n++

	l.a.nodes[id].prev = before
	l.a.nodes[id].next = after
	l.a.nodes[before].next = id

	if after != noNode {
		l.a.nodes[after].prev = id
	}

	if l.tail == before {
		l.tail = id
	}

	return id
}

// Remove unlinks n. The handle must not be used with this list afterwards.
func (l *InstructionList) Remove(n NodeID) {
	nd := &l.a.nodes[n]
	prev, next := nd.prev, nd.next

	l.n--

	if prev != noNode {
		l.a.nodes[prev].next = next
	} else {
		l.head = next
	}

	if next != noNode {
		l.a.nodes[next].prev = prev
	} else {
		l.tail = prev
	}

	nd.prev, nd.next = noNode, noNode
}

func (l *InstructionList) RemoveLast() {
	if l.tail == noNode {
		return
	}

	l.Remove(l.tail)
}

// TruncateAfter drops every node following n.
func (l *InstructionList) TruncateAfter(n NodeID) {
	cnt := 0

	for x := l.a.nodes[n].next; x != noNode; x = l.a.nodes[x].next {
		cnt++
	}

	l.n -= cnt
	l.a.nodes[n].next = noNode
	l.tail = n
}

// Splice moves all nodes of x to the end of l. x is left empty.
func (l *InstructionList) Splice(x *InstructionList) {
	if x.n == 0 {
		return
	}

	if l.n == 0 {
		l.head, l.tail, l.n = x.head, x.tail, x.n
	} else {
		l.a.nodes[l.tail].next = x.head
		l.a.nodes[x.head].prev = l.tail
		l.tail = x.tail
		l.n += x.n
	}

	x.head, x.tail, x.n = noNode, noNode, 0
}

// Slice returns instructions in order.
func (l *InstructionList) Slice() []Instr {
	r := make([]Instr, 0, l.n)

	for n := l.head; n != noNode; n = l.a.nodes[n].next {
		r = append(r, l.a.nodes[n].inst)
	}

	return r
}

// Find returns the node holding x or NoNode.
func (l *InstructionList) Find(x Instr) NodeID {
	for n := l.head; n != noNode; n = l.a.nodes[n].next {
		if l.a.nodes[n].inst == x {
			return n
		}
	}

	return noNode
}
