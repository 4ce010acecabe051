package decider

import (
	"errors"
	"testing"

	"github.com/ChristianF88/batchdecider/model"
	"github.com/ChristianF88/batchdecider/testutil"
)

const (
	miB = 1 << 20
	giB = 1 << 30
	tiB = 1 << 40
)

func defaultConfig() Config {
	return Config{
		MinParallelism:           3,
		MaxParallelism:           100,
		DataVolumePerTask:        giB,
		DefaultSourceParallelism: 10,
	}
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero min", Config{MinParallelism: 0, MaxParallelism: 10, DataVolumePerTask: 1, DefaultSourceParallelism: 1}},
		{"max below min", Config{MinParallelism: 10, MaxParallelism: 5, DataVolumePerTask: 1, DefaultSourceParallelism: 1}},
		{"zero data volume", Config{MinParallelism: 1, MaxParallelism: 10, DataVolumePerTask: 0, DefaultSourceParallelism: 1}},
		{"zero default source parallelism", Config{MinParallelism: 1, MaxParallelism: 10, DataVolumePerTask: 1, DefaultSourceParallelism: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, nil); !errors.Is(err, ErrConfigInvalid) {
				t.Errorf("New(%+v) error = %v, want ErrConfigInvalid", tt.cfg, err)
			}
		})
	}
}

func TestSourceVertexIdentity(t *testing.T) {
	d, err := New(defaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	infos, err := d.Decide("source", nil, 7)
	if err != nil {
		t.Fatal(err)
	}
	if infos.Parallelism != 7 || len(infos.Inputs) != 0 {
		t.Errorf("Decide with fixed parallelism = %+v, want (7, {})", infos)
	}

	infos, err = d.Decide("source", nil, UnsetParallelism)
	if err != nil {
		t.Fatal(err)
	}
	if infos.Parallelism != 10 || len(infos.Inputs) != 0 {
		t.Errorf("Decide with unset parallelism = %+v, want (10, {})", infos)
	}
}

// S1-S4: decideParallelism against the worked examples.
func TestDecideParallelismScenarios(t *testing.T) {
	d, err := New(defaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name           string
		broadcastBytes int64
		dataBytes      int64
		want           int
	}{
		{"S1 base", 256 * miB, 256*miB + 8*giB, 11},
		{"S2 clamp to max", 256 * miB, 8*giB + 1*tiB, 100},
		{"S3 clamp to min", 256 * miB, 512 * miB, 3},
		{"S4 broadcast cap active", 1 * giB, 8 * giB, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := []model.BlockingResultInfo{
				testutil.BroadcastResult("bc", tt.broadcastBytes),
				testutil.AllToAllResult("data", []int64{tt.dataBytes}),
			}
			got := d.decideParallelism(results)
			if got != tt.want {
				t.Errorf("decideParallelism() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Regression: capped broadcast bytes consuming the entire per-task budget
// must not divide by zero.
func TestDecideParallelismBroadcastConsumesWholeBudget(t *testing.T) {
	cfg := Config{
		MinParallelism:           1,
		MaxParallelism:           1,
		DataVolumePerTask:        1,
		DefaultSourceParallelism: 1,
	}
	d, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	results := []model.BlockingResultInfo{
		testutil.BroadcastResult("bc", 1),
		testutil.AllToAllResult("data", []int64{5}),
	}

	var got int
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("decideParallelism panicked: %v", r)
			}
		}()
		got = d.decideParallelism(results)
	}()

	if got != cfg.MaxParallelism {
		t.Errorf("decideParallelism() = %d, want %d (clamped to max)", got, cfg.MaxParallelism)
	}
}

// S5: all-to-all even-data path with two inputs sharing identical ranges.
func TestEvenDataScenario(t *testing.T) {
	cfg := Config{MinParallelism: 1, MaxParallelism: 10, DataVolumePerTask: 60, DefaultSourceParallelism: 1}
	d, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	a := testutil.AllToAllResult("a", []int64{10, 15, 13, 12, 1, 10, 8, 20, 12, 17})
	b := testutil.AllToAllResult("b", []int64{8, 12, 21, 9, 13, 7, 19, 13, 14, 5})

	infos, err := d.Decide("v", []model.BlockingResultInfo{a, b}, UnsetParallelism)
	if err != nil {
		t.Fatal(err)
	}
	if infos.Parallelism != 5 {
		t.Fatalf("Parallelism = %d, want 5", infos.Parallelism)
	}

	want := []model.IndexRange{
		model.NewIndexRange(0, 1),
		model.NewIndexRange(2, 3),
		model.NewIndexRange(4, 6),
		model.NewIndexRange(7, 8),
		model.NewIndexRange(9, 9),
	}
	for _, id := range []model.ResultId{a.ResultId(), b.ResultId()} {
		input, ok := infos.Inputs[id]
		if !ok {
			t.Fatalf("no input info for %s", id)
		}
		for i, st := range input.Subtasks {
			if st.SubpartitionRange != want[i] {
				t.Errorf("%s subtask %d range = %v, want %v", id, i, st.SubpartitionRange, want[i])
			}
		}
	}
}

// S6: legalization fails to bring P0 within [min,max] at min==max, so Decide
// falls back to the even-subpartitions path.
func TestEvenDataFallbackOnLegalizationFailure(t *testing.T) {
	cfg := Config{MinParallelism: 8, MaxParallelism: 8, DataVolumePerTask: 10, DefaultSourceParallelism: 1}
	d, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	r := testutil.AllToAllResult("a", []int64{10, 1, 10, 1, 10, 1, 10, 1, 10, 1})
	infos, err := d.Decide("v", []model.BlockingResultInfo{r}, UnsetParallelism)
	if err != nil {
		t.Fatal(err)
	}
	if infos.Parallelism != 8 {
		t.Fatalf("Parallelism = %d, want 8", infos.Parallelism)
	}

	want := []model.IndexRange{
		model.NewIndexRange(0, 0),
		model.NewIndexRange(1, 1),
		model.NewIndexRange(2, 2),
		model.NewIndexRange(3, 4),
		model.NewIndexRange(5, 5),
		model.NewIndexRange(6, 6),
		model.NewIndexRange(7, 7),
		model.NewIndexRange(8, 9),
	}
	input := infos.Inputs[r.ResultId()]
	for i, st := range input.Subtasks {
		if st.SubpartitionRange != want[i] {
			t.Errorf("subtask %d range = %v, want %v", i, st.SubpartitionRange, want[i])
		}
	}
}

// S7: a pointwise input forces the even-subpartitions path even though an
// all-to-all input is also present.
func TestMixedPointwiseAndAllToAll(t *testing.T) {
	cfg := Config{MinParallelism: 1, MaxParallelism: 10, DataVolumePerTask: 60, DefaultSourceParallelism: 1}
	d, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	a := testutil.AllToAllResult("a", []int64{10, 15, 13, 12, 1, 10, 8, 20, 12, 17})
	b := testutil.PointwiseResult("b", []int{5, 5})

	infos, err := d.Decide("v", []model.BlockingResultInfo{a, b}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if infos.Parallelism != 4 {
		t.Fatalf("Parallelism = %d, want 4", infos.Parallelism)
	}

	wantA := []model.IndexRange{
		model.NewIndexRange(0, 1),
		model.NewIndexRange(2, 4),
		model.NewIndexRange(5, 6),
		model.NewIndexRange(7, 9),
	}
	inputA := infos.Inputs[a.ResultId()]
	for i, st := range inputA.Subtasks {
		if st.SubpartitionRange != wantA[i] {
			t.Errorf("a subtask %d range = %v, want %v", i, st.SubpartitionRange, wantA[i])
		}
	}

	wantBPartition := []model.IndexRange{
		model.NewIndexRange(0, 0),
		model.NewIndexRange(0, 0),
		model.NewIndexRange(1, 1),
		model.NewIndexRange(1, 1),
	}
	wantBSub := []model.IndexRange{
		model.NewIndexRange(0, 1),
		model.NewIndexRange(2, 4),
		model.NewIndexRange(0, 1),
		model.NewIndexRange(2, 4),
	}
	inputB := infos.Inputs[b.ResultId()]
	for i, st := range inputB.Subtasks {
		if st.PartitionRange != wantBPartition[i] {
			t.Errorf("b subtask %d partition range = %v, want %v", i, st.PartitionRange, wantBPartition[i])
		}
		if st.SubpartitionRange != wantBSub[i] {
			t.Errorf("b subtask %d subpartition range = %v, want %v", i, st.SubpartitionRange, wantBSub[i])
		}
	}
}

func TestEvenDataRejectsMismatchedSubpartitionCounts(t *testing.T) {
	cfg := Config{MinParallelism: 1, MaxParallelism: 10, DataVolumePerTask: 100, DefaultSourceParallelism: 1}
	d, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	a := testutil.AllToAllResult("a", []int64{1, 2, 3})
	b := testutil.AllToAllResult("b", []int64{1, 2})

	_, err = d.Decide("v", []model.BlockingResultInfo{a, b}, UnsetParallelism)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("error = %v, want ErrInvalidState", err)
	}
}

func TestDecideRejectsBadInitialParallelism(t *testing.T) {
	d, err := New(defaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.Decide("v", nil, -5)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

// L1: idempotence.
func TestDecideIsIdempotent(t *testing.T) {
	d, err := New(defaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	results := []model.BlockingResultInfo{
		testutil.AllToAllResult("a", []int64{1, 2, 3, 4, 5}),
	}
	first, err := d.Decide("v", results, UnsetParallelism)
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.Decide("v", results, UnsetParallelism)
	if err != nil {
		t.Fatal(err)
	}
	if first.Parallelism != second.Parallelism {
		t.Errorf("Parallelism differs across identical calls: %d vs %d", first.Parallelism, second.Parallelism)
	}
	if len(first.Inputs) != len(second.Inputs) {
		t.Errorf("Inputs length differs across identical calls: %d vs %d", len(first.Inputs), len(second.Inputs))
	}
}
