package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements all
// three hook interfaces, which is what --verbose registers.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnBuildStart(_ context.Context, source string) {
	h.logger.Debug("build start", "source", source)
}

func (h *LogHooks) OnBuildComplete(_ context.Context, source string, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("build failed", "source", source, "err", err, "took", d)
		return
	}
	h.logger.Debug("build done", "source", source, "nodes", nodes, "edges", edges, "took", d)
}

func (h *LogHooks) OnSerializeStart(_ context.Context, nodes int) {
	h.logger.Debug("serialize start", "nodes", nodes)
}

func (h *LogHooks) OnSerializeComplete(_ context.Context, bytes int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("serialize failed", "err", err, "took", d)
		return
	}
	h.logger.Debug("serialize done", "bytes", bytes, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "size", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Info("response", "method", method, "route", route, "status", status, "took", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
