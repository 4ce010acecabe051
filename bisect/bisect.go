// Package bisect provides integer binary search over a monotone predicate,
// the way the standard library's sort.Search does over a slice index — here
// the search runs over an arbitrary closed interval of int64 values instead,
// since the decider bisects over byte-size limits, not slice positions.
package bisect

// FindMaxLegal returns the largest v in [lo, hi] for which pred(v) is true.
// pred must be monotone on [lo, hi]: true for every v <= some threshold T and
// false after it (or true everywhere, or false everywhere). Callers must
// guarantee pred(lo) is true; behavior is otherwise unspecified.
func FindMaxLegal(pred func(int64) bool, lo, hi int64) int64 {
	best := lo
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if pred(mid) {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

// FindMinLegal is the dual of FindMaxLegal: it returns the smallest v in
// [lo, hi] for which pred(v) is true. pred must be monotone on [lo, hi]:
// false before some threshold T and true from T onward. Callers must
// guarantee pred(hi) is true.
func FindMinLegal(pred func(int64) bool, lo, hi int64) int64 {
	best := hi
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if pred(mid) {
			best = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return best
}
