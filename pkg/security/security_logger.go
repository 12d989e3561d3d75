package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of security event
type EventType string

const (
	EventRateLimitTriggered    EventType = "rate_limit_triggered"
	EventUnauthorizedAccess    EventType = "unauthorized_access"
	EventForbiddenStatusChange EventType = "forbidden_status_change"
	EventUploadRejected        EventType = "upload_rejected"
	EventUploadInfected        EventType = "upload_infected"
	EventUploadRateLimited     EventType = "upload_rate_limited"
	EventDataExport            EventType = "data_export"
)

// eventLevels derives the log level from the event type, never from the caller.
var eventLevels = map[EventType]zapcore.Level{
	EventDataExport:            zapcore.InfoLevel,
	EventUploadRejected:        zapcore.WarnLevel,
	EventRateLimitTriggered:    zapcore.WarnLevel,
	EventUploadRateLimited:     zapcore.WarnLevel,
	EventUnauthorizedAccess:    zapcore.WarnLevel,
	EventForbiddenStatusChange: zapcore.ErrorLevel,
	EventUploadInfected:        zapcore.ErrorLevel,
}

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time
	Event        EventType
	SubjectType  string // "email", "ip", "user_id"
	SubjectValue string // masked or hashed for PII
	IP           string
	RequestID    string
	Details      map[string]interface{}
}

// SecurityLogger writes security events as structured zap entries
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
}

// NewSecurityLogger builds a production zap logger writing JSON to stdout
func NewSecurityLogger(serviceName, environment string) *SecurityLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return NewSecurityLoggerWith(logger, serviceName, environment)
}

// NewSecurityLoggerWith wraps an existing zap logger (tests use zap.NewNop or an observer)
func NewSecurityLoggerWith(logger *zap.Logger, serviceName, environment string) *SecurityLogger {
	return &SecurityLogger{
		zapLogger:   logger,
		serviceName: serviceName,
		environment: environment,
	}
}

// NopSecurityLogger discards every event
func NopSecurityLogger() *SecurityLogger {
	return NewSecurityLoggerWith(zap.NewNop(), "", "")
}

// Log logs a security event
func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if sl == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	level, ok := eventLevels[event.Event]
	if !ok {
		level = zapcore.WarnLevel
	}

	fields := []zap.Field{
		zap.String("service", sl.serviceName),
		zap.String("env", sl.environment),
		zap.String("event", string(event.Event)),
		zap.Time("occurred_at", event.Timestamp),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)
}

// LogRateLimitTriggered logs when the global rate limit rejects a request
func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]interface{}{"endpoint": endpoint},
	})
}

// LogUnauthorizedAccess logs a rejected or missing bearer token
func (sl *SecurityLogger) LogUnauthorizedAccess(ctx context.Context, ip, requestID, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventUnauthorizedAccess,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]interface{}{"reason": reason},
	})
}

// LogForbiddenStatusChange logs a status change attempted without the privileged role
func (sl *SecurityLogger) LogForbiddenStatusChange(ctx context.Context, userID, role, candidateID string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventForbiddenStatusChange,
		SubjectType:  "user_id",
		SubjectValue: HashValue(userID),
		Details:      map[string]interface{}{"role": role, "candidate_id": candidateID},
	})
}

// LogUploadRejected logs a resume that failed the upload gate
func (sl *SecurityLogger) LogUploadRejected(ctx context.Context, userID, filename, kind string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventUploadRejected,
		SubjectType:  "user_id",
		SubjectValue: HashValue(userID),
		Details:      map[string]interface{}{"filename": filename, "kind": kind},
	})
}

// LogUploadInfected logs a resume flagged by the antivirus scanner
func (sl *SecurityLogger) LogUploadInfected(ctx context.Context, userID, filename, scanner, threat string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventUploadInfected,
		SubjectType:  "user_id",
		SubjectValue: HashValue(userID),
		Details:      map[string]interface{}{"filename": filename, "scanner": scanner, "threat": threat},
	})
}

// LogUploadRateLimited logs an upload refused by the upload limiter
func (sl *SecurityLogger) LogUploadRateLimited(ctx context.Context, userID, ip string, retryAfter int) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventUploadRateLimited,
		SubjectType:  "user_id",
		SubjectValue: HashValue(userID),
		IP:           ip,
		Details:      map[string]interface{}{"retry_after": retryAfter},
	})
}

// LogDataExport logs a candidate export
func (sl *SecurityLogger) LogDataExport(ctx context.Context, userID, format string, rows int) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventDataExport,
		SubjectType:  "user_id",
		SubjectValue: HashValue(userID),
		Details:      map[string]interface{}{"format": format, "rows": rows},
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	atIndex := -1
	for i, c := range email {
		if c == '@' {
			atIndex = i
			break
		}
	}
	if atIndex <= 1 {
		return "***" + email[1:]
	}
	return string(email[0]) + "***" + email[atIndex:]
}

// HashValue creates a truncated SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	if value == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}
