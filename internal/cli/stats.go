package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/SincereJuliya/chatbotgermano/internal/metrics"
)

// printStats displays backend call statistics.
func printStats(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintf(w, "\nBackend Statistics\n")
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", snap.UptimeSeconds)

	for _, name := range snap.OperationNames() {
		op := snap.Operations[name]
		fmt.Fprintf(w, "\n%s:\n", name)
		fmt.Fprintf(w, "  Calls: %d, Failures: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
		fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n", op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}

	hits, misses := snap.Counters[metrics.CounterCacheHit], snap.Counters[metrics.CounterCacheMiss]
	if hits+misses > 0 {
		fmt.Fprintf(w, "\nDocument cache: %d hits, %d misses (%.0f%% hit rate)\n", hits, misses, snap.CacheHitRate()*100)
	}
}

// logStats writes one log record per backend operation.
func logStats(logger *slog.Logger, snap metrics.Snapshot) {
	for _, name := range snap.OperationNames() {
		op := snap.Operations[name]
		logger.Info("backend stats",
			"op", name,
			"count", op.Count,
			"failures", op.Failures,
			"avg_ms", op.AvgTimeMs,
			"max_ms", op.MaxTimeMs,
		)
	}
	logger.Info("document cache stats",
		"hits", snap.Counters[metrics.CounterCacheHit],
		"misses", snap.Counters[metrics.CounterCacheMiss],
		"hit_rate", snap.CacheHitRate(),
	)
}
