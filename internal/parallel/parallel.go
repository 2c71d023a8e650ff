// Package parallel provides chunked parallel loops for element-wise kernels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel loop execution.
type Config struct {
	Enabled      bool
	NumWorkers   int
	MinChunkSize int // below this, run sequentially to avoid goroutine overhead
}

// DefaultConfig sizes the loop to the machine's CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4096,
	}
}

// For runs f(i) for i in [0, n), splitting the range across workers when the
// range is large enough. f must be safe to call concurrently for distinct i.
func For(n int, cfg Config, f func(i int)) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
