package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForVisitsEveryIndex(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	n := 10000
	seen := make([]int32, n)
	For(n, cfg, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})

	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times", i, c)
		}
	}
}

func TestForSequentialFallback(t *testing.T) {
	var counter int64
	For(100, Config{Enabled: false}, func(_ int) {
		atomic.AddInt64(&counter, 1)
	})
	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestForSmallRangeStaysSequential(t *testing.T) {
	cfg := DefaultConfig()
	var counter int64
	For(10, cfg, func(_ int) {
		counter++ // safe: below MinChunkSize, so no goroutines
	})
	if counter != 10 {
		t.Errorf("counter = %d, want 10", counter)
	}
}
