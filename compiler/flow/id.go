package flow

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	// ValueID is either an ImmutableID or a GlobalID.
	ValueID interface {
		Num() int32
		IsGlobal() bool
	}

	// ImmutableID identifies a write-once value. It may be aliased to another id.
	ImmutableID int32

	// GlobalID identifies a mutable storage cell accessed with Load and Store.
	GlobalID int32

	BlockID int32

	// Edge is an outgoing control flow edge.
	// Back marks loop-carried edges, set by whoever closes the loop.
	Edge struct {
		To   BlockID
		Back bool
	}
)

// NullID is registered to the null literal by NewContext.
const NullID ImmutableID = 0

const NoBlock BlockID = -1

func (id ImmutableID) Num() int32     { return int32(id) }
func (id ImmutableID) IsGlobal() bool { return false }

func (id GlobalID) Num() int32     { return int32(id) }
func (id GlobalID) IsGlobal() bool { return true }

func (id ImmutableID) String() string { return "%" + strconv.Itoa(int(id)) }
func (id GlobalID) String() string    { return "$" + strconv.Itoa(int(id)) }
func (id BlockID) String() string     { return "b" + strconv.Itoa(int(id)) }

func Forward(b BlockID) Edge  { return Edge{To: b} }
func Backward(b BlockID) Edge { return Edge{To: b, Back: true} }

func (e Edge) TlogAppend(b []byte) []byte {
	var en tlwire.Encoder

	if e.Back {
		return en.AppendFormat(b, "%d<", int(e.To))
	}

	return en.AppendFormat(b, "%d", int(e.To))
}
