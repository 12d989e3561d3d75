package postgres

import (
	"context"
	"errors"
	"fmt"

	"candidate-tracker-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// resumeRepo stores resume blobs in their own table when no bucket is configured.
type resumeRepo struct {
	db *pgxpool.Pool
}

func NewResumeStore(db *pgxpool.Pool) domain.ResumeStore {
	return &resumeRepo{db: db}
}

func (r *resumeRepo) Put(ctx context.Context, key string, data []byte, contentType string) error {
	query := `
		INSERT INTO candidate_resumes (key, content_type, size, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET content_type = EXCLUDED.content_type, size = EXCLUDED.size, data = EXCLUDED.data`
	if _, err := r.db.Exec(ctx, query, key, contentType, len(data), data); err != nil {
		return fmt.Errorf("store resume: %w", err)
	}
	return nil
}

func (r *resumeRepo) Get(ctx context.Context, key string) (*domain.ResumeObject, error) {
	obj := domain.ResumeObject{Key: key}
	err := r.db.QueryRow(ctx, `SELECT content_type, data FROM candidate_resumes WHERE key = $1`, key).
		Scan(&obj.ContentType, &obj.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load resume: %w", err)
	}
	return &obj, nil
}

func (r *resumeRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM candidate_resumes WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	return nil
}
