package entity

// Handle encodes a 32-bit pool index in the lower bits and a 32-bit
// generation in the upper bits. The generation increments when a slot is
// reclaimed, so stale handles held by containers or scripts resolve to nil
// instead of pointing at a recycled entity.
type Handle uint64

func NewHandle(index uint32, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32      { return uint32(h) }
func (h Handle) Generation() uint32 { return uint32(h >> 32) }
func (h Handle) IsZero() bool       { return h == 0 }
