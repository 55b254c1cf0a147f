package lossy

// hashIndex is the running 64-slot colour table the encoder shares with any
// conforming decoder. Slots are keyed by Pixel.Hash. A validity mask tracks
// which slots have been written, so a never-seen colour that happens to match
// a zeroed slot can not be referenced.
//
// The mask starts at 1: a decoder's table is zero-initialised, so slot 0
// legitimately holds (0,0,0,0) before any insert.
type hashIndex struct {
	slots [64]Pixel
	valid uint64
}

func (h *hashIndex) reset() {
	*h = hashIndex{valid: 1}
}

// at returns the slot value and whether the slot has been populated.
func (h *hashIndex) at(i int) (Pixel, bool) {
	return h.slots[i], h.valid&(1<<uint(i)) != 0
}

// insert stores p at its hash slot and returns the slot number.
func (h *hashIndex) insert(p Pixel) int {
	i := p.Hash()
	h.slots[i] = p
	h.valid |= 1 << uint(i)
	return i
}
