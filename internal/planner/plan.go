package planner

import "github.com/triplewire/quadstore/internal/keycodec"

// Plan is the outcome of selecting an index for a Pattern: which index
// to scan, and whether the caller must re-check bound positions that
// the chosen index cannot express as a contiguous key range.
type Plan struct {
	Index       keycodec.IndexKind
	NeedsFilter bool
}

// fieldOrder returns the statement positions in the order the given
// index orders its key, as indices into [subject, predicate, object,
// context].
func fieldOrder(kind keycodec.IndexKind) [4]int {
	const (
		subject = iota
		predicate
		object
		context
	)
	switch kind {
	case keycodec.IndexSPOC:
		return [4]int{subject, predicate, object, context}
	case keycodec.IndexCSPO:
		return [4]int{context, subject, predicate, object}
	case keycodec.IndexOPSC:
		return [4]int{object, predicate, subject, context}
	case keycodec.IndexPCOS:
		return [4]int{predicate, context, object, subject}
	}
	return [4]int{subject, predicate, object, context}
}

// Select picks the index to scan for a pattern, following a fixed
// priority: a pattern binding both subject and context prefers CSPO,
// since that index alone makes both a contiguous range; otherwise the
// first of subject, object, predicate, context (in that order) that is
// bound picks its dedicated index; an entirely unbound pattern falls
// back to SPOC, which is as good a full-table order as any other.
func Select(p Pattern) Plan {
	bound := [4]bool{p.Subject.Bound, p.Predicate.Bound, p.Object.Bound, p.Context.Bound}

	var kind keycodec.IndexKind
	switch {
	case bound[0] && bound[3]:
		kind = keycodec.IndexCSPO
	case bound[0]:
		kind = keycodec.IndexSPOC
	case bound[2]:
		kind = keycodec.IndexOPSC
	case bound[1]:
		kind = keycodec.IndexPCOS
	case bound[3]:
		kind = keycodec.IndexCSPO
	default:
		kind = keycodec.IndexSPOC
	}

	return Plan{Index: kind, NeedsFilter: needsFilter(kind, bound)}
}

// needsFilter reports whether any bound position falls outside the
// contiguous bound-prefix of the chosen index's field order, meaning
// the caller must re-check that position against each scanned
// statement rather than trusting the key range alone.
func needsFilter(kind keycodec.IndexKind, bound [4]bool) bool {
	order := fieldOrder(kind)
	sawUnbound := false
	for _, pos := range order {
		if bound[pos] {
			if sawUnbound {
				return true
			}
		} else {
			sawUnbound = true
		}
	}
	return false
}
