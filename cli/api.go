package cli

import "github.com/ChristianF88/batchdecider/model"

// scenarioResultInfo implements model.BlockingResultInfo directly from a
// decoded scenario file, the CLI's equivalent of statsingest's
// haxmap-backed accumulator: no mutation, no concurrency, just a
// read-only view over already-finalized numbers.
type scenarioResultInfo struct {
	id                model.ResultId
	broadcast         bool
	pointwise         bool
	numBytesProduced  int64
	subpartitionBytes [][]int64 // by partition index
	aggregated        []int64
}

func newScenarioResultInfo(r scenarioResult) scenarioResultInfo {
	info := scenarioResultInfo{
		id: model.ResultId{
			JobID:             r.JobID,
			VertexID:          r.VertexID,
			ResultPartitionID: r.ResultPartitionID,
		},
		broadcast:         r.Broadcast,
		pointwise:         r.Pointwise,
		numBytesProduced:  r.NumBytesProduced,
		subpartitionBytes: r.SubpartitionBytes,
	}
	if !r.Pointwise {
		for _, partition := range r.SubpartitionBytes {
			if len(info.aggregated) < len(partition) {
				grown := make([]int64, len(partition))
				copy(grown, info.aggregated)
				info.aggregated = grown
			}
			for i, b := range partition {
				info.aggregated[i] += b
			}
		}
	}
	return info
}

func (s scenarioResultInfo) ResultId() model.ResultId { return s.id }
func (s scenarioResultInfo) IsBroadcast() bool        { return s.broadcast }
func (s scenarioResultInfo) IsPointwise() bool        { return s.pointwise }
func (s scenarioResultInfo) NumPartitions() int       { return len(s.subpartitionBytes) }

func (s scenarioResultInfo) NumSubpartitions(partitionIdx int) int {
	if partitionIdx < 0 || partitionIdx >= len(s.subpartitionBytes) {
		return 0
	}
	return len(s.subpartitionBytes[partitionIdx])
}

func (s scenarioResultInfo) NumBytesProduced() int64 { return s.numBytesProduced }

func (s scenarioResultInfo) AggregatedSubpartitionBytes() []int64 {
	out := make([]int64, len(s.aggregated))
	copy(out, s.aggregated)
	return out
}

// rangesForPlot picks the chosen subpartition ranges of the first
// non-broadcast result, for the decide command's optional weight-distribution
// plot. Every non-broadcast input shares identical ranges in the even-data
// path, so any one of them describes the boundary markers.
func rangesForPlot(results []scenarioResultInfo, infos model.ParallelismAndInputInfos) []model.IndexRange {
	for _, r := range results {
		if r.broadcast {
			continue
		}
		input, ok := infos.Inputs[r.id]
		if !ok {
			continue
		}
		ranges := make([]model.IndexRange, len(input.Subtasks))
		for i, subtask := range input.Subtasks {
			ranges[i] = subtask.SubpartitionRange
		}
		return ranges
	}
	return nil
}

// aggregateWeights sums non-broadcast aggregated subpartition bytes across
// every result, for the decide command's optional weight-distribution plot.
func aggregateWeights(results []scenarioResultInfo) []int64 {
	var weights []int64
	for _, r := range results {
		if r.broadcast {
			continue
		}
		agg := r.AggregatedSubpartitionBytes()
		if len(weights) < len(agg) {
			grown := make([]int64, len(agg))
			copy(grown, weights)
			weights = grown
		}
		for i, b := range agg {
			weights[i] += b
		}
	}
	return weights
}
