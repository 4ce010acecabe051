// Package rangepack greedily packs a weighted sequence into contiguous,
// capacity-bounded ranges. It is the core building block the parallelism
// decider uses both to size a downstream fan-in evenly and, via CountRanges,
// as the monotone predicate that bisect searches over.
package rangepack

import "github.com/ChristianF88/batchdecider/model"

// PackRanges packs weights into contiguous ranges left to right: a range is
// extended as long as it is still empty or adding the next weight would not
// exceed limit, otherwise the current range closes and a new one opens at
// that index. A range therefore always contains at least one element even
// when that element alone exceeds limit — there is no way to split a single
// weight across two ranges.
//
// Returns nil for an empty input.
func PackRanges(weights []int64, limit int64) []model.IndexRange {
	if len(weights) == 0 {
		return nil
	}

	var ranges []model.IndexRange
	start := 0
	var sum int64
	for i, w := range weights {
		if sum == 0 || sum+w <= limit {
			sum += w
			continue
		}
		ranges = append(ranges, model.NewIndexRange(start, i-1))
		start = i
		sum = w
	}
	ranges = append(ranges, model.NewIndexRange(start, len(weights)-1))
	return ranges
}

// CountRanges is PackRanges without materializing the ranges. Its result
// must always equal len(PackRanges(weights, limit)); decider.legalize relies
// on this component running many times inside a bisection search, where
// only the count is needed.
func CountRanges(weights []int64, limit int64) int {
	if len(weights) == 0 {
		return 0
	}

	count := 0
	var sum int64
	for _, w := range weights {
		if sum == 0 || sum+w <= limit {
			sum += w
			continue
		}
		count++
		sum = w
	}
	return count + 1
}
