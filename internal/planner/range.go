package planner

import "github.com/triplewire/quadstore/internal/keycodec"

// BuildRange computes the [Start, End] key range to scan for a Pattern
// under the given Plan's chosen index. Bound positions narrow the
// range to their exact hash; unbound positions (and any bound position
// the scan can't express once NeedsFilter is set) are filled with the
// sentinel min/max byte so the range still covers every possible
// value there.
func BuildRange(plan Plan, p Pattern) (start, end keycodec.Key) {
	order := fieldOrder(plan.Index)
	terms := [4]OptionalTerm{p.Subject, p.Predicate, p.Object, p.Context}

	// Once we hit the first unbound (or filter-only) position in the
	// index's own field order, every subsequent slot must be a full
	// wildcard: a bound value there can't be folded into a contiguous
	// range and is instead re-checked by the caller via NeedsFilter.
	openEnded := false
	for slot, pos := range order {
		ot := terms[pos]
		if openEnded || !ot.Bound {
			openEnded = true
			fillSlot(&start, slot, 0x00)
			fillSlot(&end, slot, 0xFF)
			continue
		}
		h := keycodec.HashTerm(ot.Term)
		copy(start[slot*16:slot*16+16], h[:])
		copy(end[slot*16:slot*16+16], h[:])
	}
	return start, end
}

func fillSlot(k *keycodec.Key, slot int, b byte) {
	for i := slot * 16; i < slot*16+16; i++ {
		k[i] = b
	}
}
