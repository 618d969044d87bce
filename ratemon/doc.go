// Package ratemon implements a moving-window throughput counter for
// pipeline stages.
//
// Each stage (acquisition, rendering) owns an independent Monitor and calls
// Record once per processed sample. Every windowSize samples the monitor
// derives the sustained rate from the monotonic clock and emits it to its
// sink, then resets the window.
//
// A Monitor is intentionally not thread-safe: it is owned and driven by
// exactly one goroutine. Sharing one counter between stages would couple
// their measurements, so the pipeline passes a separate instance into each
// handler.
package ratemon
