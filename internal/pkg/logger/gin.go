package logger

import (
	"Marketplace/internal/api/config"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// accessLog 与 slog JSON 输出对齐，Logstash 按 target_index 分流
type accessLog struct {
	Time        string `json:"time"`
	Level       string `json:"level"`
	Msg         string `json:"msg"`
	TraceID     string `json:"trace_id"`
	LogToken    string `json:"log_token,omitempty"`
	TargetIndex string `json:"target_index,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	ClientIP    string `json:"client_ip"`
	Latency     string `json:"latency"`
}

func SetupGin(r *gin.Engine, cfg config.LogstashConfig) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output: LogWriter,
		// websocket 长连接的访问日志在断开时才输出，意义不大
		SkipPaths: []string{"/api/im/ws"},
		Formatter: func(p gin.LogFormatterParams) string {
			return formatAccessLog(p, cfg)
		},
	}))

	r.Use(gin.Recovery())
}

func formatAccessLog(p gin.LogFormatterParams, cfg config.LogstashConfig) string {
	traceID, _ := p.Keys[TraceIDKey].(string)
	if traceID == "" && p.Request != nil {
		traceID, _ = TraceID(p.Request.Context())
	}

	level := "INFO"
	if p.StatusCode >= 500 {
		level = "ERROR"
	}

	// query 中可能带 token，只记录路径
	path, _, _ := strings.Cut(p.Path, "?")

	line, err := json.Marshal(accessLog{
		Time:        p.TimeStamp.Format(time.RFC3339),
		Level:       level,
		Msg:         "GIN_ACCESS",
		TraceID:     traceID,
		LogToken:    cfg.Token,
		TargetIndex: cfg.Index,
		Method:      p.Method,
		Path:        path,
		Status:      p.StatusCode,
		ClientIP:    p.ClientIP,
		Latency:     p.Latency.String(),
	})
	if err != nil {
		return ""
	}
	return string(line) + "\n"
}
