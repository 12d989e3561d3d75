package security

import (
	"path/filepath"
	"strings"

	"candidate-tracker-backend/pkg/apperror"

	"github.com/gabriel-vasile/mimetype"
)

// MaxResumeBytes is the default upload cap (5MB, decimal).
const MaxResumeBytes int64 = 5_000_000

const (
	MsgUnsupportedResume = "Resume must be a PDF, DOC, or DOCX file"
	MsgResumeTooLarge    = "File size is too large. Maximum size is 5MB"
	MsgResumeMismatch    = "Resume content does not match its file type"
)

// Allowed file extensions (strict whitelist), mapped to the sniffed content
// types that may back them. Legacy .doc files sniff as a generic OLE container
// and bare .docx files as a zip archive.
var allowedExtensions = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

// Strict declared MIME types - application/octet-stream is not accepted
var strictMIMETypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// FileValidationResult contains the result of a passed validation
type FileValidationResult struct {
	Extension    string // lowercase extension including the dot
	DeclaredMIME string // media type sent by the client, parameters stripped
	DetectedMIME string // media type sniffed from content
}

// ValidateResume runs the resume checks in order:
// 1. extension and declared media type whitelist
// 2. size cap
// 3. sniffed content agrees with the extension
// Failures are *apperror.AppError values with a distinct kind each.
func ValidateResume(filename, declaredMIME string, data []byte, maxBytes int64) (FileValidationResult, error) {
	if maxBytes <= 0 {
		maxBytes = MaxResumeBytes
	}

	ext := strings.ToLower(filepath.Ext(filename))
	declared := normalizeMIME(declaredMIME)
	result := FileValidationResult{Extension: ext, DeclaredMIME: declared}

	accepted, ok := allowedExtensions[ext]
	if !ok || !strictMIMETypes[declared] {
		return result, apperror.BadRequest(MsgUnsupportedResume).WithKind(apperror.KindUnsupportedFileType)
	}

	if int64(len(data)) > maxBytes {
		return result, apperror.BadRequest(MsgResumeTooLarge).WithKind(apperror.KindFileTooLarge)
	}

	detected := mimetype.Detect(data)
	result.DetectedMIME = detected.String()
	if !matchesAny(detected, accepted) {
		return result, apperror.BadRequest(MsgResumeMismatch).WithKind(apperror.KindFileContentMismatch)
	}

	return result, nil
}

// matchesAny walks the detected type and its parents. A docx is a zip, a doc
// is an OLE container.
func matchesAny(m *mimetype.MIME, accepted []string) bool {
	for ; m != nil; m = m.Parent() {
		for _, a := range accepted {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}

func normalizeMIME(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}

// IsAllowedResumeExtension checks only the extension (for quick pre-validation)
func IsAllowedResumeExtension(filename string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}
