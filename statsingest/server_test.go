package statsingest

import "testing"

func TestDecodeEvent(t *testing.T) {
	m := map[string]any{
		"job_id":             "job-1",
		"vertex_id":          "vertex-a",
		"result_id":          "result-1",
		"partition_index":    float64(2),
		"num_partitions":     float64(4),
		"num_subpartitions":  float64(3),
		"subpartition_bytes": []any{float64(1), float64(2), float64(3)},
		"broadcast":          false,
		"pointwise":          true,
	}

	e, err := decodeEvent(m)
	if err != nil {
		t.Fatal(err)
	}
	if e.JobID != "job-1" || e.VertexID != "vertex-a" || e.ResultID != "result-1" {
		t.Errorf("decoded ids = %+v", e)
	}
	if e.PartitionIndex != 2 || e.NumPartitions != 4 || e.NumSubpartitions != 3 {
		t.Errorf("decoded counts = %+v", e)
	}
	if len(e.SubpartitionBytes) != 3 || e.SubpartitionBytes[2] != 3 {
		t.Errorf("decoded bytes = %v", e.SubpartitionBytes)
	}
	if e.Broadcast || !e.Pointwise {
		t.Errorf("decoded flags: broadcast=%v pointwise=%v", e.Broadcast, e.Pointwise)
	}
}

func TestDecodeEventRequiresIdentityFields(t *testing.T) {
	_, err := decodeEvent(map[string]any{"vertex_id": "v", "result_id": "r"})
	if err == nil {
		t.Fatal("expected an error for missing job_id")
	}
}

func TestInt64Field(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{float64(42), 42},
		{int64(7), 7},
		{int(3), 3},
		{"not a number", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := int64Field(tt.in); got != tt.want {
			t.Errorf("int64Field(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
