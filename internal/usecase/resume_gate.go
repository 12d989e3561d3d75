package usecase

import (
	"context"
	"errors"
	"fmt"

	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/pkg/apperror"
	"candidate-tracker-backend/pkg/logger"
	"candidate-tracker-backend/pkg/security"
	"candidate-tracker-backend/pkg/security/antivirus"
)

// UploadQuota admits or refuses another upload for a client.
type UploadQuota interface {
	AllowUpload(ctx context.Context, ip, userID string) (bool, int, error)
}

// ResumeGate decides whether an uploaded file may be stored as a resume.
// Order: type, size, content sniff, malware scan, upload quota.
type ResumeGate struct {
	maxBytes int64
	scanner  antivirus.Scanner
	quota    UploadQuota
	secLog   *security.SecurityLogger
}

// NewResumeGate builds a gate. A nil scanner means no scanning; a nil quota means no limit.
func NewResumeGate(maxBytes int64, scanner antivirus.Scanner, quota UploadQuota, secLog *security.SecurityLogger) *ResumeGate {
	if scanner == nil {
		scanner = antivirus.NewNoOpScanner()
	}
	if maxBytes <= 0 {
		maxBytes = security.MaxResumeBytes
	}
	return &ResumeGate{maxBytes: maxBytes, scanner: scanner, quota: quota, secLog: secLog}
}

func (g *ResumeGate) Check(ctx context.Context, upload *domain.ResumeUpload) (security.FileValidationResult, error) {
	actor := domain.ActorFromContext(ctx)

	result, err := security.ValidateResume(upload.Filename, upload.ContentType, upload.Data, g.maxBytes)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			g.secLog.LogUploadRejected(ctx, actor.UserID, upload.Filename, appErr.Kind)
		}
		return result, err
	}

	scan := g.scanner.Scan(ctx, upload.Filename, upload.Data)
	if scan.Error != nil {
		logger.Log.Error("Resume scan failed", "scanner", scan.ScannerName, "error", scan.Error)
	}
	if scan.Infected {
		g.secLog.LogUploadInfected(ctx, actor.UserID, upload.Filename, scan.ScannerName, scan.ThreatName)
		return result, apperror.BadRequest("Resume was rejected by the malware scan").WithKind(apperror.KindFileInfected)
	}

	if g.quota != nil {
		ip := domain.ClientIPFromContext(ctx)
		allowed, retryAfter, err := g.quota.AllowUpload(ctx, ip, actor.UserID)
		if err != nil {
			logger.Log.Warn("Upload quota check degraded", "error", err)
		}
		if !allowed {
			g.secLog.LogUploadRateLimited(ctx, actor.UserID, ip, retryAfter)
			return result, apperror.TooManyRequests(
				fmt.Sprintf("Too many resume uploads. Try again in %d seconds", retryAfter),
			).WithKind(apperror.KindUploadRateLimited)
		}
	}

	return result, nil
}
