// Command pagecache-bench drives a synthetic read/write workload
// against a buffer pool and reports hit/miss/eviction counts.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumidb/pagecache/buffer"
	"github.com/lumidb/pagecache/config"
	"github.com/lumidb/pagecache/logging"
	"github.com/lumidb/pagecache/storage/diskio"
	"github.com/lumidb/pagecache/storage/page"
	"github.com/lumidb/pagecache/telemetry"
	"github.com/lumidb/pagecache/wal"
)

var (
	configPath   = flag.String("config", "", "path to a YAML config file (optional, defaults used otherwise)")
	numPages     = flag.Int("pages", 500, "number of distinct pages the workload touches")
	numWorkers   = flag.Int("workers", 8, "concurrent workload goroutines")
	duration     = flag.Duration("duration", 10*time.Second, "how long to run the workload")
	writeRatio   = flag.Float64("write_ratio", 0.2, "fraction of accesses that mutate the page")
	throttleRead = flag.Float64("throttle_reads_per_sec", 0, "if > 0, rate-limit disk reads and writes, each to this many pages per second, to simulate slow storage")
	memDisk      = flag.Bool("mem_disk", true, "use an in-memory disk instead of a file (the WAL file is still created on disk)")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	tel, shutdown, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		log.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}

	var disk diskio.DiskProvider
	if *memDisk {
		disk = diskio.NewMemDisk(cfg.PageSize)
	} else {
		disk, err = diskio.OpenFileDisk(cfg.DiskPath, cfg.PageSize)
		if err != nil {
			log.Fatal("failed to open disk file", zap.Error(err))
		}
	}
	if *throttleRead > 0 {
		disk = diskio.NewThrottledDisk(disk, *throttleRead, *throttleRead)
	}

	walPath := cfg.DiskPath + ".wal"
	logManager, err := wal.NewManager(walPath, log)
	if err != nil {
		log.Fatal("failed to open wal", zap.Error(err))
	}
	defer logManager.Close()

	pool := buffer.NewPool(cfg.PoolSize, cfg.ReplacerK, disk, &buffer.Options{
		Logger:     log,
		LogManager: logManager,
		Metrics:    metrics,
	})
	defer pool.Close()

	ids := make([]page.PageID, *numPages)
	for i := range ids {
		_, id, err := pool.NewPage()
		if err != nil {
			log.Fatal("failed pre-allocating page", zap.Error(err))
		}
		ids[i] = id
		pool.UnpinPage(id, false, buffer.AccessUnknown)
	}

	log.Info("starting workload",
		zap.Int("pages", *numPages),
		zap.Int("workers", *numWorkers),
		zap.Duration("duration", *duration),
		zap.Float64("write_ratio", *writeRatio),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < *numWorkers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for ctx.Err() == nil {
				id := ids[rng.Intn(len(ids))]
				pg, err := pool.FetchPage(id, buffer.AccessGet)
				if err != nil {
					continue
				}
				dirty := rng.Float64() < *writeRatio
				if dirty {
					pg.Lock()
					data := pg.Data()
					if len(data) > 0 {
						data[0]++
					}
					pg.Unlock()
				}
				pool.UnpinPage(id, dirty, buffer.AccessGet)
			}
		}(int64(w) + 1)
	}
	wg.Wait()

	stats := pool.Stats()
	log.Info("workload complete",
		zap.Uint64("hits", stats.Hits),
		zap.Uint64("misses", stats.Misses),
		zap.Uint64("evictions", stats.Evictions),
		zap.Int("frames_in_use", stats.FramesInUse),
		zap.Int("pool_size", stats.PoolSize),
	)
}
