// Package inputinfo expands a chosen parallelism (and, on the even-data
// path, a chosen weighted packing) into the per-subtask input assignment
// every consumed result needs. The pointwise branch here plays the role the
// distilled spec calls the external VertexInputInfoComputationUtils: a pure
// function of (parallelism, consumed results) with no dependency on the
// decider's byte-size bookkeeping.
package inputinfo

import "github.com/ChristianF88/batchdecider/model"

// Build expands the even-data path's chosen subpartition ranges into a full
// ParallelismAndInputInfos (§4.6). ranges has one entry per downstream
// subtask; every non-broadcast result shares the exact same ranges, and
// every broadcast result gets (0,0) for every subtask.
func Build(ranges []model.IndexRange, consumedResults []model.BlockingResultInfo) model.ParallelismAndInputInfos {
	p := len(ranges)
	inputs := make(map[model.ResultId]model.JobVertexInputInfo, len(consumedResults))
	for _, r := range consumedResults {
		partitionRange := model.NewIndexRange(0, r.NumPartitions()-1)
		subtasks := make([]model.ExecutionVertexInputInfo, p)
		for i := 0; i < p; i++ {
			subRange := ranges[i]
			if r.IsBroadcast() {
				subRange = model.NewIndexRange(0, 0)
			}
			subtasks[i] = model.ExecutionVertexInputInfo{
				SubtaskIndex:      i,
				PartitionRange:    partitionRange,
				SubpartitionRange: subRange,
			}
		}
		inputs[r.ResultId()] = model.JobVertexInputInfo{Subtasks: subtasks}
	}
	return model.ParallelismAndInputInfos{Parallelism: p, Inputs: inputs}
}

// ComputeVertexInputInfos implements the §4.5 even-subpartitions assignment
// for an arbitrary mix of broadcast, pointwise, and all-to-all results given
// an already-chosen parallelism p. Unlike Build, this divides subpartition
// *indices* evenly, with no regard to their byte weight.
func ComputeVertexInputInfos(p int, consumedResults []model.BlockingResultInfo) model.ParallelismAndInputInfos {
	inputs := make(map[model.ResultId]model.JobVertexInputInfo, len(consumedResults))
	for _, r := range consumedResults {
		var subtasks []model.ExecutionVertexInputInfo
		switch {
		case r.IsBroadcast():
			subtasks = broadcastSubtasks(p, r)
		case r.IsPointwise():
			subtasks = pointwiseSubtasks(p, r)
		default:
			subtasks = allToAllSubtasks(p, r)
		}
		inputs[r.ResultId()] = model.JobVertexInputInfo{Subtasks: subtasks}
	}
	return model.ParallelismAndInputInfos{Parallelism: p, Inputs: inputs}
}

func broadcastSubtasks(p int, r model.BlockingResultInfo) []model.ExecutionVertexInputInfo {
	partitionRange := model.NewIndexRange(0, r.NumPartitions()-1)
	out := make([]model.ExecutionVertexInputInfo, p)
	for i := 0; i < p; i++ {
		out[i] = model.ExecutionVertexInputInfo{
			SubtaskIndex:      i,
			PartitionRange:    partitionRange,
			SubpartitionRange: model.NewIndexRange(0, 0),
		}
	}
	return out
}

func allToAllSubtasks(p int, r model.BlockingResultInfo) []model.ExecutionVertexInputInfo {
	partitionRange := model.NewIndexRange(0, r.NumPartitions()-1)
	s := r.NumSubpartitions(0)
	out := make([]model.ExecutionVertexInputInfo, p)
	for i := 0; i < p; i++ {
		out[i] = model.ExecutionVertexInputInfo{
			SubtaskIndex:      i,
			PartitionRange:    partitionRange,
			SubpartitionRange: splitRange(i, p, s),
		}
	}
	return out
}

// pointwiseSubtasks mirrors each downstream subtask to a contiguous range of
// upstream partitions. When there are at least as many partitions as
// subtasks, every subtask owns a contiguous slice of partitions and reads
// each in full. When there are fewer partitions than subtasks, each
// partition is instead shared by a contiguous block of subtasks, and the
// partition's own subpartitions are split evenly across that block.
func pointwiseSubtasks(p int, r model.BlockingResultInfo) []model.ExecutionVertexInputInfo {
	sourceCount := r.NumPartitions()
	out := make([]model.ExecutionVertexInputInfo, p)

	if sourceCount >= p {
		for i := 0; i < p; i++ {
			start := i * sourceCount / p
			end := (i + 1) * sourceCount / p
			partitionRange := model.NewIndexRange(start, end-1)
			out[i] = model.ExecutionVertexInputInfo{
				SubtaskIndex:      i,
				PartitionRange:    partitionRange,
				SubpartitionRange: splitRange(0, 1, r.NumSubpartitions(start)),
			}
		}
		return out
	}

	for partition := 0; partition < sourceCount; partition++ {
		start := ceilDivInt(partition*p, sourceCount)
		end := ceilDivInt((partition+1)*p, sourceCount)
		numConsumers := end - start
		for i := start; i < end; i++ {
			out[i] = model.ExecutionVertexInputInfo{
				SubtaskIndex:      i,
				PartitionRange:    model.NewIndexRange(partition, partition),
				SubpartitionRange: splitRange(i-start, numConsumers, r.NumSubpartitions(partition)),
			}
		}
	}
	return out
}

// splitRange divides [0, size-1] into numConsumers contiguous, as-even-as-
// possible shares and returns the share for the given index.
func splitRange(index, numConsumers, size int) model.IndexRange {
	start := index * size / numConsumers
	end := (index+1)*size/numConsumers - 1
	if end < start {
		end = start
	}
	return model.NewIndexRange(start, end)
}

func ceilDivInt(a, b int) int {
	return (a + b - 1) / b
}
