package observability

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey string

const ctxKeyCorrelationID ctxKey = "correlation_id"

// LoggerOptions controls where logs go. Stdout is always written.
type LoggerOptions struct {
	// File, when set, also receives logs through a rotating writer.
	File   string
	Level  zapcore.Level
	Stdout io.Writer
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// NewLogger builds the JSON logger used across the service.
func NewLogger(opts LoggerOptions) *zap.Logger {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(out), opts.Level),
	}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename: opts.File, MaxSize: 50, MaxAge: 7, MaxBackups: 5, Compress: true,
			}),
			opts.Level,
		))
	}
	return zap.New(zapcore.NewTee(cores...))
}

// WithCorrelationID stores a correlation id in the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyCorrelationID).(string)
	return id
}

// FromContext adds the correlation id to logger if present.
func FromContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if id := CorrelationID(ctx); id != "" {
		return logger.With(zap.String("correlation_id", id))
	}
	return logger
}
