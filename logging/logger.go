// Package logging 提供了统一的结构化日志（slog）封装，支持日志切割与 OpenTelemetry 追踪上下文注入。
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"go.opentelemetry.io/otel/trace" // OpenTelemetry追踪
)

var (
	// defaultLogger 是全局默认的Logger实例，采用单例模式。
	defaultLogger *Logger
	// once 用于确保InitLogger函数只被执行一次。
	once sync.Once
	// level 为所有经由本包创建的 Handler 共享，支持运行时调整。
	level = new(slog.LevelVar)
)

// Config 定义日志配置
type Config struct {
	Service    string
	Module     string
	Level      string
	Format     string // json 或 text
	File       string // 日志文件路径，为空则只输出到 stdout
	Console    bool   // 配置了 File 时是否同时输出到 stdout
	MaxSize    int    // 每个日志文件最大尺寸 (MB)
	MaxBackups int    // 保留旧日志文件的最大个数
	MaxAge     int    // 保留旧日志文件的最大天数
	Compress   bool   // 是否压缩旧日志
}

// Logger 封装了原生的 `*slog.Logger`，并添加了服务名和模块名。
type Logger struct {
	*slog.Logger
	Service string
	Module  string
}

// TraceHandler 从 context 中提取 trace_id 与 span_id 注入日志记录。
type TraceHandler struct {
	slog.Handler
}

// Handle 在 SpanContext 有效时追加追踪属性，再交给被装饰的 Handler。
func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs 保持装饰器在派生 Handler 上依然生效。
func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup 保持装饰器在派生 Handler 上依然生效。
func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}

// SetLevel 运行时调整全局日志级别 (debug/info/warn/error)。
func SetLevel(lvl string) {
	level.Set(parseLevel(lvl))
}

func parseLevel(lvl string) slog.Level {
	switch lvl {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(w io.Writer, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// NewFromConfig 创建一个新的Logger实例。
// 配置了 File 时使用 lumberjack 进行日志切割。
func NewFromConfig(cfg Config) *Logger {
	SetLevel(cfg.Level)

	var handler slog.Handler
	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize, // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
			Compress:   cfg.Compress,
		}
		// 文件始终使用 JSON，便于采集
		handler = newHandler(fileWriter, "json")
		if cfg.Console {
			handler = newTeeHandler(handler, newHandler(os.Stdout, cfg.Format))
		}
	} else {
		handler = newHandler(os.Stdout, cfg.Format)
	}

	logger := slog.New(&TraceHandler{Handler: handler}).With(
		slog.String("service", cfg.Service),
		slog.String("module", cfg.Module),
	)

	return &Logger{
		Logger:  logger,
		Service: cfg.Service,
		Module:  cfg.Module,
	}
}

// InitLogger 初始化全局默认日志记录器, 只生效一次。
func InitLogger(cfg Config) {
	once.Do(func() {
		defaultLogger = NewFromConfig(cfg)
		slog.SetDefault(defaultLogger.Logger)
	})
}

// Default 返回默认日志记录器实例
func Default() *Logger {
	InitLogger(Config{Service: "fixmsg", Module: "default", Level: "info"})
	return defaultLogger
}

// Component 派生一个带 component 属性的子 Logger。
func (l *Logger) Component(name string) *slog.Logger {
	return l.Logger.With(slog.String("component", name))
}

// Info 记录 Info 级别日志
func Info(ctx context.Context, msg string, args ...any) {
	Default().InfoContext(ctx, msg, args...)
}

// Warn 记录 Warn 级别日志
func Warn(ctx context.Context, msg string, args ...any) {
	Default().WarnContext(ctx, msg, args...)
}

// LogDuration 记录操作耗时, 返回的函数在结束时调用并可追加结果字段.
func LogDuration(ctx context.Context, operation string, args ...any) func(more ...any) {
	start := time.Now()
	return func(more ...any) {
		logArgs := append(append(args, more...), "duration", time.Since(start))
		Info(ctx, operation+" finished", logArgs...)
	}
}
