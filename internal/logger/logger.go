package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FieldUserID is the structured log field key for the authenticated caller.
	FieldUserID = "user_id"
	// FieldModel is the structured log field key for the generation model.
	FieldModel = "ai_model"
	// FieldPipeline names the pipeline (recommendations, assessment, roadmap, chat).
	FieldPipeline = "pipeline"
)

func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}

	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "msg",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	return cfg.Build()
}

// WithFields attaches fields to the logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// PipelineFields returns the standard fields for one pipeline invocation.
// Empty values are skipped to keep entries compact.
func PipelineFields(pipeline, userID string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if p := strings.TrimSpace(pipeline); p != "" {
		fields = append(fields, zap.String(FieldPipeline, p))
	}
	if u := strings.TrimSpace(userID); u != "" {
		fields = append(fields, zap.String(FieldUserID, u))
	}
	return fields
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
