package chord

import (
	"crypto/sha1"
	"math/rand"
)

// IDBits is the compile-time width of the identifier circle (m in spec.md
// §3). The original rgp C++ library this design is based on fixes
// ChordId to uint32 (see SPEC_FULL.md, "SUPPLEMENTED FEATURES" #3), so we
// persist that choice here rather than the 160-bit big.Int space the
// teacher repo's SHA-1 hashing implied.
const IDBits = 32

// ID is a point on the circular identifier space {0, ..., 2^32-1}. Node ids
// and key ids live in the same space; only cyclic ordering is meaningful,
// never numeric distance.
type ID uint32

// randomID draws a new node identifier. Collisions are not handled (see
// spec.md §9 open question 2); this implementation re-draws are left to
// the caller if it cares to check against known peers.
func randomID() ID {
	return ID(rand.Uint32())
}

// HashKey maps an opaque byte string to its identifier via SHA-1, folding
// the 20-byte digest down to the low 4 bytes. SHA-1 is the teacher's
// choice (utils.go: hashKey); truncating to 32 bits is required to fit
// IDBits.
func HashKey(payload []byte) ID {
	sum := sha1.Sum(payload)
	return ID(sum[16])<<24 | ID(sum[17])<<16 | ID(sum[18])<<8 | ID(sum[19])
}

// between reports whether id lies strictly between start and end walking
// clockwise, i.e. on the open arc (start, end). Wrap-around is handled by
// comparing against the non-wrapping case first.
func between(id, start, end ID) bool {
	if start == end {
		// Degenerate arc: everything except start/end itself is "between"
		// on a ring of more than one point.
		return id != start
	}
	if start < end {
		return id > start && id < end
	}
	return id > start || id < end
}

// betweenInclusiveEnd reports whether id lies on the half-open-low,
// closed-high arc (start, end] — the shape of a responsibility arc
// (spec.md §3).
func betweenInclusiveEnd(id, start, end ID) bool {
	if id == end {
		return true
	}
	return between(id, start, end)
}
