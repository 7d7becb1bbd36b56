package logger

import (
	"context"
	log "log/slog"
)

// TraceIDKey Context 与 gin.Context 中共用的 Key
const TraceIDKey = "trace_id"

// WithTraceID 已有 trace_id 时保持不变
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if _, ok := TraceID(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func TraceID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(TraceIDKey).(string)
	return id, ok && id != ""
}

// ContextHandler 从 ctx 中提取 trace_id 写入日志
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if traceID, ok := TraceID(ctx); ok {
		r.AddAttrs(log.String(TraceIDKey, traceID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &ContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) log.Handler {
	return &ContextHandler{h.Handler.WithGroup(name)}
}
