package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds a production ready structured logger.
func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	return cfg.Build()
}

// WithOperation enriches the logger with operation and request identifiers.
func WithOperation(logger *zap.Logger, operation, requestID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	return logger.With(fields...)
}

// WithReport enriches the logger with the caller-supplied report identifier.
// Report IDs come from the reporting backend and are distinct from the
// request IDs this service mints per verification.
func WithReport(logger *zap.Logger, reportID string) *zap.Logger {
	if reportID == "" {
		return logger
	}
	return logger.With(zap.String("report_id", reportID))
}
