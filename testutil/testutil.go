// Package testutil provides shared test fixtures: fake
// model.BlockingResultInfo builders for decider scenarios, and the
// teacher's original cross-platform temp path helpers.
package testutil

import (
	"os"
	"testing"

	"github.com/ChristianF88/batchdecider/model"
)

// FakeResult is an in-memory, immutable model.BlockingResultInfo for tests,
// constructed directly from known subpartition byte weights instead of
// accumulated from events the way statsingest.Store does it.
type FakeResult struct {
	id                model.ResultId
	broadcast         bool
	pointwise         bool
	subpartitionCount []int // per partition
	aggregated        []int64
	numBytesProduced  int64
}

// AllToAllResult builds a non-broadcast, non-pointwise result from a flat
// list of per-subpartition byte weights, as if produced by a single
// partition with len(weights) subpartitions.
func AllToAllResult(name string, weights []int64) FakeResult {
	var total int64
	for _, w := range weights {
		total += w
	}
	return FakeResult{
		id:                model.ResultId{JobID: "test-job", VertexID: "producer", ResultPartitionID: name},
		subpartitionCount: []int{len(weights)},
		aggregated:        append([]int64(nil), weights...),
		numBytesProduced:  total,
	}
}

// BroadcastResult builds a broadcast result carrying totalBytes, as if
// produced by a single partition with one subpartition.
func BroadcastResult(name string, totalBytes int64) FakeResult {
	return FakeResult{
		id:                model.ResultId{JobID: "test-job", VertexID: "producer", ResultPartitionID: name},
		broadcast:         true,
		subpartitionCount: []int{1},
		numBytesProduced:  totalBytes,
	}
}

// PointwiseResult builds a pointwise result with the given per-partition
// subpartition counts; byte weights are irrelevant to pointwise splitting
// so NumBytesProduced is left at 0 unless set via WithBytes.
func PointwiseResult(name string, subpartitionsPerPartition []int) FakeResult {
	return FakeResult{
		id:                model.ResultId{JobID: "test-job", VertexID: "producer", ResultPartitionID: name},
		pointwise:         true,
		subpartitionCount: subpartitionsPerPartition,
	}
}

// WithBytes returns a copy of f carrying the given total byte count.
func (f FakeResult) WithBytes(n int64) FakeResult {
	f.numBytesProduced = n
	return f
}

func (f FakeResult) ResultId() model.ResultId { return f.id }
func (f FakeResult) IsBroadcast() bool        { return f.broadcast }
func (f FakeResult) IsPointwise() bool        { return f.pointwise }
func (f FakeResult) NumPartitions() int       { return len(f.subpartitionCount) }

func (f FakeResult) NumSubpartitions(partitionIdx int) int {
	if partitionIdx < 0 || partitionIdx >= len(f.subpartitionCount) {
		return 0
	}
	return f.subpartitionCount[partitionIdx]
}

func (f FakeResult) NumBytesProduced() int64 { return f.numBytesProduced }

func (f FakeResult) AggregatedSubpartitionBytes() []int64 {
	out := make([]int64, len(f.aggregated))
	copy(out, f.aggregated)
	return out
}

// TempFilePath returns a cross-platform temporary file path with the given
// pattern. Does not create the file.
func TempFilePath(t *testing.T, pattern string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	path := tmpFile.Name()
	tmpFile.Close()
	os.Remove(path)

	return path
}

// TempDirPath returns a cross-platform temporary directory path.
func TempDirPath(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}
