// Package model holds the data types the parallelism decider reads and
// produces: upstream result identifiers, the read-only statistics facade the
// decider consumes, and the per-subtask input assignment it emits.
package model

import "fmt"

// IndexRange is an inclusive, immutable range of non-negative indices.
type IndexRange struct {
	Start int
	End   int
}

// NewIndexRange builds an IndexRange, panicking if start > end or either
// bound is negative. Callers within this module only ever construct ranges
// from already-validated bookkeeping, so a panic here means an internal bug.
func NewIndexRange(start, end int) IndexRange {
	if start < 0 || end < start {
		panic(fmt.Sprintf("model: invalid index range [%d, %d]", start, end))
	}
	return IndexRange{Start: start, End: end}
}

// Len returns the number of indices covered by the range.
func (r IndexRange) Len() int { return r.End - r.Start + 1 }

// ResultId identifies an upstream intermediate dataset. Equality is by value,
// which gives identity semantics as long as callers mint one ResultId per
// distinct result partition.
type ResultId struct {
	JobID             string
	VertexID          string
	ResultPartitionID string
}

func (id ResultId) String() string {
	return id.JobID + "/" + id.VertexID + "/" + id.ResultPartitionID
}

// MarshalText lets ResultId serve as a JSON object key (encoding/json only
// accepts string-keyed maps, or keys implementing encoding.TextMarshaler).
func (id ResultId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// BlockingResultInfo is the read-only capability the decider consumes for one
// already-finalized upstream result. Implementations must be safe to read
// concurrently; the decider never mutates them.
type BlockingResultInfo interface {
	ResultId() ResultId
	IsBroadcast() bool
	IsPointwise() bool
	NumPartitions() int
	NumSubpartitions(partitionIdx int) int
	NumBytesProduced() int64
	// AggregatedSubpartitionBytes is only meaningful (and only required to be
	// non-nil) for non-broadcast, non-pointwise (all-to-all) results.
	AggregatedSubpartitionBytes() []int64
}

// ExecutionVertexInputInfo describes what one downstream subtask reads from
// one upstream result: the Cartesian product of PartitionRange and
// SubpartitionRange.
type ExecutionVertexInputInfo struct {
	SubtaskIndex      int
	PartitionRange    IndexRange
	SubpartitionRange IndexRange
}

// JobVertexInputInfo is the per-subtask input assignment for one upstream
// result, indexed 0..P-1.
type JobVertexInputInfo struct {
	Subtasks []ExecutionVertexInputInfo
}

// ParallelismAndInputInfos is the decider's output: the chosen parallelism
// and, for every consumed result, how each subtask should read it.
type ParallelismAndInputInfos struct {
	Parallelism int
	Inputs      map[ResultId]JobVertexInputInfo
	// EvenData reports whether the even-data path produced this result
	// (directly within [min, max], or after legalization). False means the
	// decider fell back to even-subpartitions, used a user-fixed
	// parallelism, or this is a source vertex with nothing to consume.
	EvenData bool
}
