package flow

import (
	"github.com/slowlang/mlogc/compiler/pos"
)

type (
	CursorMode uint8

	// Cursor is a write position inside a block.
	// Handlers build the graph through it without touching block internals.
	//
	// In CursorCreate mode nothing is added to a block that already has a terminator,
	// code following an early exit is dropped.
	Cursor struct {
		Mode CursorMode

		c     *Context
		block *Block

		// pos is the node new instructions go after.
		// NoNode means the end of the block.
		pos NodeID
	}
)

const (
	CursorCreate CursorMode = iota
	CursorEdit
)

func NewCursor(c *Context, mode CursorMode, b *Block) *Cursor {
	return &Cursor{
		Mode:  mode,
		c:     c,
		block: b,
		pos:   NoNode,
	}
}

func (cur *Cursor) Block() *Block { return cur.block }

func (cur *Cursor) Position() NodeID { return cur.pos }

// SetBlock switches to b and resets the position to its end.
func (cur *Cursor) SetBlock(b *Block) {
	cur.block = b
	cur.pos = NoNode
}

func (cur *Cursor) SetPosition(n NodeID) {
	cur.pos = n
}

func (cur *Cursor) AddInstruction(x Instr) {
	if cur.Mode == CursorCreate && cur.block.Term != nil {
		return
	}

	l := &cur.block.Instructions

	if cur.pos == NoNode {
		l.Add(x)
		return
	}

	cur.pos = l.InsertAfter(cur.pos, x)
}

// RemoveInstruction removes the instruction at the position
// and moves the position to the previous one.
// Without a position the last instruction is removed.
func (cur *Cursor) RemoveInstruction() {
	l := &cur.block.Instructions

	if cur.pos == NoNode {
		l.RemoveLast()
		return
	}

	prev := l.Prev(cur.pos)
	l.Remove(cur.pos)
	cur.pos = prev
}

// ConnectBlock ends the current block with a Break to b and continues in b.
func (cur *Cursor) ConnectBlock(b *Block, l *pos.Loc) {
	if b == cur.block {
		return
	}

	cur.SetEndInstruction(&Break{Target: Forward(b.ID), Source: l})
	cur.SetBlock(b)
}

func (cur *Cursor) SetEndInstruction(t Terminator) {
	if cur.Mode == CursorCreate && cur.block.Term != nil {
		return
	}

	cur.block.Term = t
}

// DiscardFollowing drops every instruction after the position.
func (cur *Cursor) DiscardFollowing() error {
	if cur.pos == NoNode {
		return Internalf(nil, "discard following instructions without a position")
	}

	cur.block.Instructions.TruncateAfter(cur.pos)

	return nil
}
