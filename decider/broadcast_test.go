package decider

import "testing"

func TestCappedBroadcastBytes(t *testing.T) {
	tests := []struct {
		name              string
		rawBroadcastBytes int64
		dataVolumePerTask int64
		want              int64
	}{
		{"under cap", 100, 1000, 100},
		{"exactly at cap", 500, 1000, 500},
		{"over cap clamps to half budget", 900, 1000, 500},
		{"zero broadcast", 0, 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cappedBroadcastBytes(tt.rawBroadcastBytes, tt.dataVolumePerTask)
			if got != tt.want {
				t.Errorf("cappedBroadcastBytes(%d, %d) = %d, want %d", tt.rawBroadcastBytes, tt.dataVolumePerTask, got, tt.want)
			}
		})
	}
}

func TestCeilDiv(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{0, 5, 0},
		{-3, 5, 0},
		{10, 5, 2},
		{11, 5, 3},
		{1, 1, 1},
	}
	for _, tt := range tests {
		if got := ceilDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
