package observability

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// logger. It also counts cache lookups so a summary can be logged when the
// process exits.
type LogHooks struct {
	Logger *log.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLogHooks returns hooks writing to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger.WithPrefix("hooks")}
}

// Install registers h for the pipeline, cache and HTTP events.
func (h *LogHooks) Install() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

// CacheStats returns the number of cache hits and misses seen so far.
func (h *LogHooks) CacheStats() (hits, misses int64) {
	return h.hits.Load(), h.misses.Load()
}

func (h *LogHooks) OnBuildComplete(_ context.Context, nodes, edges int, d time.Duration) {
	h.Logger.Debug("build", "nodes", nodes, "edges", edges, "duration", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, engine string, nodes int) {
	h.Logger.Debug("layout start", "engine", engine, "nodes", nodes)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, engine string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("layout failed", "engine", engine, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("layout done", "engine", engine, "duration", d)
}

func (h *LogHooks) OnDiagnostic(_ context.Context, code, subject, message string) {
	h.Logger.Debug("diagnostic", "code", code, "subject", subject, "message", message)
}

func (h *LogHooks) OnRelayout(_ context.Context, builds int, d time.Duration, err error) {
	h.Logger.Debug("relayout", "build", builds, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.hits.Add(1)
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.misses.Add(1)
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Debug("served", "method", method, "route", route, "status", status, "duration", d)
}
