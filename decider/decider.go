// Package decider implements the adaptive batch parallelism decider: given
// the finalized byte statistics of a job vertex's consumed upstream results,
// it chooses a legal downstream parallelism and the exact per-subtask input
// assignment. It is a pure function of its inputs and immutable Config,
// holds no state between calls, and is safe to call concurrently on
// disjoint vertices — the same "parallel workers over independent inputs"
// shape as the teacher's processTrieParallel.
package decider

import (
	"fmt"

	"github.com/ChristianF88/batchdecider/bisect"
	"github.com/ChristianF88/batchdecider/diagnostics"
	"github.com/ChristianF88/batchdecider/inputinfo"
	"github.com/ChristianF88/batchdecider/model"
	"github.com/ChristianF88/batchdecider/rangepack"
)

// UnsetParallelism is the sentinel passed as initialParallelism when the job
// vertex has no user-fixed parallelism.
const UnsetParallelism = -1

// Config is the immutable per-job configuration snapshot a Decider is built
// from. All four fields are required; see New for validation.
type Config struct {
	MinParallelism           int
	MaxParallelism           int
	DataVolumePerTask        int64
	DefaultSourceParallelism int
}

// Decider decides parallelism and input assignment for job vertices sharing
// one Config. It holds no mutable state between Decide calls.
type Decider struct {
	cfg  Config
	diag diagnostics.Sink
}

// New validates cfg and constructs a Decider. diag may be nil, in which case
// diagnostics are discarded.
func New(cfg Config, diag diagnostics.Sink) (*Decider, error) {
	if cfg.MinParallelism <= 0 {
		return nil, fmt.Errorf("%w: minParallelism must be > 0, got %d", ErrConfigInvalid, cfg.MinParallelism)
	}
	if cfg.MaxParallelism < cfg.MinParallelism {
		return nil, fmt.Errorf("%w: maxParallelism (%d) must be >= minParallelism (%d)", ErrConfigInvalid, cfg.MaxParallelism, cfg.MinParallelism)
	}
	if cfg.DataVolumePerTask <= 0 {
		return nil, fmt.Errorf("%w: dataVolumePerTask must be > 0, got %d", ErrConfigInvalid, cfg.DataVolumePerTask)
	}
	if cfg.DefaultSourceParallelism <= 0 {
		return nil, fmt.Errorf("%w: defaultSourceParallelism must be > 0, got %d", ErrConfigInvalid, cfg.DefaultSourceParallelism)
	}
	if diag == nil {
		diag = diagnostics.Discard{}
	}
	return &Decider{cfg: cfg, diag: diag}, nil
}

// Decide chooses a parallelism and input assignment for vertexID given its
// consumed upstream results. initialParallelism is either a positive,
// user-fixed parallelism or UnsetParallelism.
func (d *Decider) Decide(vertexID string, consumedResults []model.BlockingResultInfo, initialParallelism int) (model.ParallelismAndInputInfos, error) {
	if initialParallelism != UnsetParallelism && initialParallelism <= 0 {
		return model.ParallelismAndInputInfos{}, fmt.Errorf("%w: initialParallelism must be positive or UnsetParallelism, got %d", ErrInvalidArgument, initialParallelism)
	}

	// Source vertex: nothing to consume, nothing to assign.
	if len(consumedResults) == 0 {
		p := d.cfg.DefaultSourceParallelism
		if initialParallelism != UnsetParallelism {
			p = initialParallelism
		}
		return model.ParallelismAndInputInfos{Parallelism: p, Inputs: map[model.ResultId]model.JobVertexInputInfo{}}, nil
	}

	if initialParallelism == UnsetParallelism && isPureAllToAll(consumedResults) {
		infos, ok, err := d.evenData(vertexID, consumedResults)
		if err != nil {
			return model.ParallelismAndInputInfos{}, err
		}
		if ok {
			return infos, nil
		}
		d.diag.Log(diagnostics.Info, vertexID, "even-data legalization failed, falling back to even-subpartitions", nil)
	}

	return d.evenSubpartitions(consumedResults, initialParallelism)
}

// isPureAllToAll reports whether every consumed result is non-pointwise and
// not every one of them is broadcast.
func isPureAllToAll(results []model.BlockingResultInfo) bool {
	allBroadcast := true
	for _, r := range results {
		if r.IsPointwise() {
			return false
		}
		if !r.IsBroadcast() {
			allBroadcast = false
		}
	}
	return !allBroadcast
}

// evenData implements the §4.4 even-data path. The bool return is false when
// legalization (§4.4.1) could not bring the parallelism into [min, max]; the
// caller falls back to evenSubpartitions in that case, per spec.
func (d *Decider) evenData(vertexID string, consumedResults []model.BlockingResultInfo) (model.ParallelismAndInputInfos, bool, error) {
	var rawBroadcastBytes int64
	for _, r := range consumedResults {
		if r.IsBroadcast() {
			rawBroadcastBytes += r.NumBytesProduced()
		}
	}
	broadcastBytes := cappedBroadcastBytes(rawBroadcastBytes, d.cfg.DataVolumePerTask)

	subpartitionCount := -1
	for _, r := range consumedResults {
		if r.IsBroadcast() {
			continue
		}
		for p := 0; p < r.NumPartitions(); p++ {
			n := r.NumSubpartitions(p)
			if subpartitionCount == -1 {
				subpartitionCount = n
				continue
			}
			if n != subpartitionCount {
				return model.ParallelismAndInputInfos{}, false, fmt.Errorf(
					"%w: vertex %s consumes all-to-all results with mismatched subpartition counts (%d vs %d)",
					ErrInvalidState, vertexID, subpartitionCount, n)
			}
		}
	}
	if subpartitionCount <= 0 {
		return model.ParallelismAndInputInfos{}, false, fmt.Errorf("%w: vertex %s has no non-broadcast subpartitions to aggregate", ErrInvalidState, vertexID)
	}

	weights := make([]int64, subpartitionCount)
	for _, r := range consumedResults {
		if r.IsBroadcast() {
			continue
		}
		agg := r.AggregatedSubpartitionBytes()
		for i, b := range agg {
			weights[i] += b
		}
	}

	limit := d.cfg.DataVolumePerTask - broadcastBytes
	ranges := rangepack.PackRanges(weights, limit)
	p0 := len(ranges)

	if p0 < d.cfg.MinParallelism || p0 > d.cfg.MaxParallelism {
		legalized, ok := d.legalize(weights, limit, p0)
		if !ok {
			return model.ParallelismAndInputInfos{}, false, nil
		}
		ranges = legalized
	}

	infos := inputinfo.Build(ranges, consumedResults)
	infos.EvenData = true
	return infos, true, nil
}

// legalize implements §4.4.1. It returns the adjusted ranges and whether the
// resulting parallelism now falls within [min, max].
func (d *Decider) legalize(weights []int64, limit int64, p0 int) ([]model.IndexRange, bool) {
	min := int64(d.cfg.MinParallelism)
	max := int64(d.cfg.MaxParallelism)

	minW := weights[0]
	var totalW int64
	for _, w := range weights {
		if w < minW {
			minW = w
		}
		totalW += w
	}

	var adjustedLimit int64
	if int64(p0) < min {
		l1 := bisect.FindMaxLegal(func(v int64) bool {
			return int64(rangepack.CountRanges(weights, v)) >= min
		}, minW, limit)
		pStar := int64(rangepack.CountRanges(weights, l1))
		l2 := bisect.FindMinLegal(func(v int64) bool {
			return int64(rangepack.CountRanges(weights, v)) == pStar
		}, minW, l1)
		adjustedLimit = l2
	} else {
		adjustedLimit = bisect.FindMinLegal(func(v int64) bool {
			return int64(rangepack.CountRanges(weights, v)) <= max
		}, limit, totalW)
	}

	ranges := rangepack.PackRanges(weights, adjustedLimit)
	p := int64(len(ranges))
	if p < min || p > max {
		return nil, false
	}
	return ranges, true
}

// evenSubpartitions implements the §4.5 path: arbitrary topology, or a
// user-fixed parallelism.
func (d *Decider) evenSubpartitions(consumedResults []model.BlockingResultInfo, initialParallelism int) (model.ParallelismAndInputInfos, error) {
	p := initialParallelism
	if p == UnsetParallelism {
		p = d.decideParallelism(consumedResults)
	}
	return inputinfo.ComputeVertexInputInfos(p, consumedResults), nil
}

// decideParallelism implements §4.5.1.
func (d *Decider) decideParallelism(consumedResults []model.BlockingResultInfo) int {
	var rawBroadcastBytes, nonBroadcastBytes int64
	for _, r := range consumedResults {
		if r.IsBroadcast() {
			rawBroadcastBytes += r.NumBytesProduced()
		} else {
			nonBroadcastBytes += r.NumBytesProduced()
		}
	}
	broadcastBytes := cappedBroadcastBytes(rawBroadcastBytes, d.cfg.DataVolumePerTask)

	budget := d.cfg.DataVolumePerTask - broadcastBytes
	if budget <= 0 {
		// Capped broadcast bytes consumed the whole per-task budget; fall
		// back to the smallest budget that still makes progress instead of
		// dividing by zero.
		budget = 1
	}
	p := int(ceilDiv(nonBroadcastBytes, budget))

	if p < d.cfg.MinParallelism {
		p = d.cfg.MinParallelism
	}
	if p > d.cfg.MaxParallelism {
		p = d.cfg.MaxParallelism
	}
	return p
}
