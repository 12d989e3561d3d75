package domain

import "context"

// ResumeObject is a stored resume blob.
type ResumeObject struct {
	Key         string
	ContentType string
	Data        []byte
}

// ResumeStore keeps resume content outside the candidate row.
// Get returns ErrNotFound for unknown keys.
type ResumeStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (*ResumeObject, error)
	Delete(ctx context.Context, key string) error
}
