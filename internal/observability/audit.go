package observability

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/secureleak/report-service/internal/config"
)

// AuditLogger writes security events to a dedicated log file, kept apart
// from the application log. Line shape:
//
//	[ts] [ip] User:<id|anon> Action:<kind> Target:<id|->
//
// Writing an audit line must never fail a request; callers discard errors.
type AuditLogger struct {
	logger *zap.Logger
}

// NewAuditLogger opens the audit log sink.
func NewAuditLogger(cfg config.LoggerConfig) (*AuditLogger, error) {
	path := cfg.AuditLogPath
	if path == "" {
		path = "audit.log"
	}

	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(zapcore.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			TimeKey:    "ts",
			EncodeTime: zapcore.ISO8601TimeEncoder,
		},
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return &AuditLogger{logger: logger}, nil
}

// Event records one security event.
func (a *AuditLogger) Event(action string, userID *int64, target, ip string) error {
	if a == nil || a.logger == nil {
		return nil
	}

	actor := "anon"
	if userID != nil {
		actor = strconv.FormatInt(*userID, 10)
	}
	if target == "" {
		target = "-"
	}
	if ip == "" {
		ip = "unknown"
	}

	a.logger.Info(fmt.Sprintf("[%s] User:%s Action:%s Target:%s", ip, actor, action, target))
	return nil
}

// Sync flushes buffered audit lines.
func (a *AuditLogger) Sync() {
	if a != nil && a.logger != nil {
		_ = a.logger.Sync()
	}
}
