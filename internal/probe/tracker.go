package probe

import "github.com/cbrunnkvist/nettest/internal/wire"

// Class is how a data datagram was classified against its predecessor.
type Class int

const (
	ClassFirst      Class = iota // First data datagram, no predecessor
	ClassInOrder                 // previous + 1
	ClassDuplicate               // same as previous
	ClassOutOfOrder              // anything else
	ClassMalformed               // too short to carry a sequence number
)

func (c Class) String() string {
	switch c {
	case ClassFirst:
		return "first"
	case ClassInOrder:
		return "in_order"
	case ClassDuplicate:
		return "duplicate"
	case ClassOutOfOrder:
		return "out_of_order"
	case ClassMalformed:
		return "malformed"
	}
	return "unknown"
}

// SequenceTracker classifies data datagrams using only the previous sequence
// number, so memory stays constant however long the stream runs.
//
// Classification is against the immediately preceding datagram, not the
// highest sequence seen: a value repeated three times in a row counts as two
// duplicates, and a single late datagram typically flags both itself and its
// successor as out of order.
type SequenceTracker struct {
	previous uint32
	seeded   bool

	Received   uint64
	Duplicates uint64
	OutOfOrder uint64
	Malformed  uint64
}

// Observe accounts one data datagram. Control messages must not be passed in.
func (t *SequenceTracker) Observe(datagram []byte) Class {
	t.Received++

	cur, err := wire.Seq(datagram)
	if err != nil {
		t.Malformed++
		return ClassMalformed
	}

	if !t.seeded {
		t.seeded = true
		t.previous = cur
		return ClassFirst
	}

	class := ClassInOrder
	switch {
	case cur == t.previous:
		class = ClassDuplicate
		t.Duplicates++
	case cur != t.previous+1 || cur < t.previous:
		class = ClassOutOfOrder
		t.OutOfOrder++
	}
	t.previous = cur
	return class
}
