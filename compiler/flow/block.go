package flow

import (
	"slices"
)

// Block is a basic block: instructions followed by a single terminator.
// Term is nil only while the block is being built.
type Block struct {
	ID BlockID

	// Parents are recomputed by Graph.SetParents.
	Parents []BlockID

	Term         Terminator
	Instructions InstructionList

	c *Context
}

func (b *Block) ChildEdges() []Edge {
	return Edges(b.Term)
}

func (b *Block) Children() []BlockID {
	edges := b.ChildEdges()
	r := make([]BlockID, len(edges))

	for i, e := range edges {
		r[i] = e.To
	}

	return r
}

// ForwardParents are parents reaching b through a forward edge.
func (b *Block) ForwardParents() []BlockID {
	r := make([]BlockID, 0, len(b.Parents))

	for _, p := range b.Parents {
		for _, e := range b.c.Block(p).ChildEdges() {
			if e.To == b.ID && !e.Back {
				r = append(r, p)
				break
			}
		}
	}

	return r
}

func (b *Block) AddParent(p BlockID) {
	if slices.Contains(b.Parents, p) {
		return
	}

	b.Parents = append(b.Parents, p)
}

func (b *Block) RemoveParent(p BlockID) {
	i := slices.Index(b.Parents, p)
	if i < 0 {
		return
	}

	b.Parents = slices.Delete(b.Parents, i, i+1)
}

func (b *Block) IsEmpty() bool { return b.Instructions.IsEmpty() }

// ConditionInstruction finds the comparison computing the BreakIf or EndIf condition,
// the one that may be fused into the conditional jump.
func (b *Block) ConditionInstruction() (NodeID, *BinaryOp) {
	var cond ImmutableID

	switch t := b.Term.(type) {
	case *BreakIf:
		cond = t.Condition
	case *EndIf:
		cond = t.Condition
	default:
		return NoNode, nil
	}

	rc := b.c.resolve(int32(cond))
	l := &b.Instructions

	for n := l.Tail(); n != NoNode; n = l.Prev(n) {
		op, ok := l.At(n).(*BinaryOp)
		if !ok || b.c.resolve(int32(op.Out)) != rc {
			continue
		}

		if !op.IsJumpMergeable() {
			return NoNode, nil
		}

		return n, op
	}

	return NoNode, nil
}
