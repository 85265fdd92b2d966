// Command hop-bench drives a fixed-duration, concurrent workload of
// Increment calls against a hop server through the remote backend, for
// rough throughput measurements. It has no in-process mode.
package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hopdb/hop/client"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:46733", "hop server address")
	duration := flag.Duration("duration", 5*time.Second, "benchmark duration")
	concurrency := flag.Int("concurrency", 8, "number of concurrent workers")
	maxConns := flag.Int("maxconns", 16, "connection pool size")
	flag.Parse()

	c, err := client.NewRemoteClient(*addr, int32(*maxConns), nil)
	if err != nil {
		fmt.Printf("hop-bench: %v\n", err)
		return
	}
	defer c.Close()

	fmt.Printf("hop-bench: %s, concurrency=%d, duration=%v\n", *addr, *concurrency, *duration)

	var ops, errs int64
	deadline := time.Now().Add(*duration)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			key := fmt.Sprintf("hop-bench:%d", worker)
			for time.Now().Before(deadline) {
				if _, err := c.Increment(key).Do(ctx); err != nil {
					atomic.AddInt64(&errs, 1)
					continue
				}
				atomic.AddInt64(&ops, 1)
			}
		}(w)
	}
	wg.Wait()

	elapsed := duration.String()
	fmt.Printf("completed in %s window: %d ops, %d errors, %.0f ops/sec\n",
		elapsed, ops, errs, float64(ops)/(*duration).Seconds())

	stats := c.Stats()
	fmt.Printf("client stats: dispatched=%d succeeded=%d errored=%d\n",
		stats.Dispatched, stats.Succeeded, stats.Errored)
}
