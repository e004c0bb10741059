package log

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup builds the process logger, writing JSON to stdout and, when file is
// set, appending to it as well. The logger is installed as zap's global.
func Setup(level, file string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	if file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", file, err)
		}
		sinks = append(sinks, zapcore.AddSync(f))
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.NewMultiWriteSyncer(sinks...), lvl)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// requestFields copies every request string: fiber reuses its buffers once the
// handler returns, while zap cores may hold fields longer.
func requestFields(c *fiber.Ctx, action string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, 6+len(fields))
	out = append(out, zap.String("action", action))
	if c != nil {
		out = append(out,
			zap.String("ip", utils.CopyString(c.IP())),
			zap.String("method", utils.CopyString(c.Method())),
			zap.String("path", utils.CopyString(c.Path())),
			zap.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			out = append(out, zap.String("req_id", utils.CopyString(rid)))
		}
	}
	if len(fields) > 0 {
		out = append(out, zap.Any("fields", fields))
	}
	return out
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	zap.L().Info(action, requestFields(c, action, fields)...)
}

// Audit records a successful state change.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	zap.L().Info(action, append(requestFields(c, action, fields), zap.Bool("audit", true))...)
}

// Security records rejected input.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	zap.L().Warn(action, requestFields(c, action, fields)...)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	zap.L().Error(action, append(requestFields(c, action, fields), zap.Error(err))...)
}

// Middleware writes one access entry per request. Handler errors are passed to
// the app's error handler first so the entry carries the final status.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		fields := append(requestFields(c, "http.access", nil), zap.Int64("latency_ms", time.Since(start).Milliseconds()))
		zap.L().Info("http.access", fields...)
		return nil
	}
}
