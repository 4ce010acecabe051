// Package statsingest assembles the model.BlockingResultInfo the decider
// reads from finalized per-partition byte-count events reported by upstream
// task executors. It mirrors the teacher's ingestor package: a lumberjack-
// protocol TCP listener feeding a concurrent in-memory store, except the
// events here carry byte statistics instead of access-log lines.
package statsingest

import (
	"fmt"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/ChristianF88/batchdecider/model"
)

// PartitionStatEvent is the wire payload one upstream task executor reports
// after finishing (and only after finishing) one result partition.
type PartitionStatEvent struct {
	JobID             string  `json:"job_id"`
	VertexID          string  `json:"vertex_id"`
	ResultID          string  `json:"result_id"`
	PartitionIndex    int     `json:"partition_index"`
	NumPartitions     int     `json:"num_partitions"`
	NumSubpartitions  int     `json:"num_subpartitions"`
	SubpartitionBytes []int64 `json:"subpartition_bytes"`
	Broadcast         bool    `json:"broadcast"`
	Pointwise         bool    `json:"pointwise"`
}

func (e PartitionStatEvent) resultId() model.ResultId {
	return model.ResultId{JobID: e.JobID, VertexID: e.VertexID, ResultPartitionID: e.ResultID}
}

// resultAccumulator builds up one model.BlockingResultInfo out of possibly
// many per-partition events arriving out of order across goroutines.
type resultAccumulator struct {
	mu sync.Mutex

	id                model.ResultId
	broadcast         bool
	pointwise         bool
	numPartitions     int
	subpartitionCount map[int]int // partition index -> numSubpartitions
	aggregated        []int64     // aggregated[i] = sum over partitions of subpartitionBytes[i], all-to-all only
	numBytesProduced  int64
}

func newAccumulator(id model.ResultId) *resultAccumulator {
	return &resultAccumulator{id: id, subpartitionCount: make(map[int]int)}
}

func (a *resultAccumulator) addPartition(e PartitionStatEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.broadcast = e.Broadcast
	a.pointwise = e.Pointwise
	if e.NumPartitions > a.numPartitions {
		a.numPartitions = e.NumPartitions
	}
	a.subpartitionCount[e.PartitionIndex] = e.NumSubpartitions

	for _, b := range e.SubpartitionBytes {
		a.numBytesProduced += b
	}
	if !e.Pointwise {
		if len(a.aggregated) < len(e.SubpartitionBytes) {
			grown := make([]int64, len(e.SubpartitionBytes))
			copy(grown, a.aggregated)
			a.aggregated = grown
		}
		for i, b := range e.SubpartitionBytes {
			a.aggregated[i] += b
		}
	}
}

func (a *resultAccumulator) ResultId() model.ResultId { return a.id }

func (a *resultAccumulator) IsBroadcast() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.broadcast
}

func (a *resultAccumulator) IsPointwise() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pointwise
}

func (a *resultAccumulator) NumPartitions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numPartitions
}

func (a *resultAccumulator) NumSubpartitions(partitionIdx int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.subpartitionCount[partitionIdx]
}

func (a *resultAccumulator) NumBytesProduced() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numBytesProduced
}

func (a *resultAccumulator) AggregatedSubpartitionBytes() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int64, len(a.aggregated))
	copy(out, a.aggregated)
	return out
}

// Store holds one resultAccumulator per ResultId, written concurrently by
// ingest goroutines and read concurrently by decider-invoking goroutines.
// Backed by haxmap the same way sliding.SlidingWindow backs its per-IP
// stats by a concurrent map keyed on a primitive.
type Store struct {
	byResult *haxmap.Map[string, *resultAccumulator]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byResult: haxmap.New[string, *resultAccumulator]()}
}

// Ingest records one finalized partition's statistics.
func (s *Store) Ingest(e PartitionStatEvent) {
	key := e.resultId().String()
	acc, ok := s.byResult.Get(key)
	if !ok {
		// Another ingest goroutine may race us here; GetOrSet keeps
		// whichever accumulator was stored first so all events for this
		// result land in the same one.
		acc, _ = s.byResult.GetOrSet(key, newAccumulator(e.resultId()))
	}
	acc.addPartition(e)
}

// ConsumedResults returns the BlockingResultInfo facade for the given
// ResultIds, in order, for use as a decider.Decide argument. It returns an
// error naming the first id that has no recorded statistics.
func (s *Store) ConsumedResults(ids []model.ResultId) ([]model.BlockingResultInfo, error) {
	out := make([]model.BlockingResultInfo, 0, len(ids))
	for _, id := range ids {
		acc, ok := s.byResult.Get(id.String())
		if !ok {
			return nil, fmt.Errorf("statsingest: no statistics recorded for result %s", id)
		}
		out = append(out, acc)
	}
	return out, nil
}
