package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/pkg/apperror"
	"candidate-tracker-backend/pkg/filter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// candidateColumns maps queryable field names to SQL expressions. Anything not
// listed here never reaches a query string.
var candidateColumns = map[string]string{
	"id":              "c.id",
	"full_name":       "c.full_name",
	"email":           "c.email",
	"status":          "c.status",
	"position":        "c.position",
	"experience":      "c.experience",
	"notes":           "c.notes",
	"resume_filename": "c.resume_filename",
	"interview_date":  "c.interview_date",
	"created_at":      "c.created_at",
	"created_by":      "c.created_by",
}

var sqlOperators = map[filter.Operator]string{
	filter.OpEq:  "=",
	filter.OpNe:  "IS DISTINCT FROM",
	filter.OpGt:  ">",
	filter.OpGte: ">=",
	filter.OpLt:  "<",
	filter.OpLte: "<=",
}

const selectCandidate = `
	SELECT c.id::text, c.full_name, c.email, c.status, c.position, c.experience,
		c.resume_key, c.resume_filename, c.notes, c.interview_date, c.created_at,
		c.created_by, COALESCE(u.name, ''), COALESCE(u.email, '')
	FROM candidates c
	LEFT JOIN users u ON u.id = c.created_by`

type candidateRepository struct {
	db *pgxpool.Pool
}

func NewCandidateRepository(db *pgxpool.Pool) domain.CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(ctx context.Context, c *domain.Candidate) error {
	query := `
		INSERT INTO candidates (full_name, email, status, position, experience,
			resume_key, resume_filename, notes, interview_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id::text, created_at`
	err := r.db.QueryRow(ctx, query,
		c.FullName, c.Email, c.Status, c.Position, c.Experience,
		c.ResumeKey, c.ResumeFilename, c.Notes, c.InterviewDate, c.CreatedBy.ID,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *candidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	row := r.db.QueryRow(ctx, selectCandidate+` WHERE c.id = $1`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

func (r *candidateRepository) Find(ctx context.Context, q domain.CandidateListQuery) ([]domain.Candidate, error) {
	where, args, err := buildWhere(q.Clauses, 1)
	if err != nil {
		return nil, err
	}
	order, err := buildOrder(q.Sort)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		selectCandidate, where, order, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return collectCandidates(rows)
}

func (r *candidateRepository) Count(ctx context.Context, clauses []filter.Clause) (int64, error) {
	where, args, err := buildWhere(clauses, 1)
	if err != nil {
		return 0, err
	}
	var total int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM candidates c WHERE %s`, where)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return total, nil
}

func (r *candidateRepository) FindByStatus(ctx context.Context, status string) ([]domain.Candidate, error) {
	rows, err := r.db.Query(ctx, selectCandidate+` WHERE c.status = $1 ORDER BY c.created_at DESC, c.id`, status)
	if err != nil {
		return nil, fmt.Errorf("list candidates by status: %w", err)
	}
	return collectCandidates(rows)
}

func (r *candidateRepository) FindByPosition(ctx context.Context, term string) ([]domain.Candidate, error) {
	pattern := "%" + escapeLike(term) + "%"
	rows, err := r.db.Query(ctx, selectCandidate+` WHERE c.position ILIKE $1 ESCAPE '\' ORDER BY c.created_at DESC, c.id`, pattern)
	if err != nil {
		return nil, fmt.Errorf("list candidates by position: %w", err)
	}
	return collectCandidates(rows)
}

// Update writes every mutable column. created_by and the resume columns are never touched.
func (r *candidateRepository) Update(ctx context.Context, c *domain.Candidate) error {
	query := `
		UPDATE candidates
		SET full_name = $2, email = $3, status = $4, position = $5, experience = $6,
			notes = $7, interview_date = $8
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		c.ID, c.FullName, c.Email, c.Status, c.Position, c.Experience, c.Notes, c.InterviewDate)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *candidateRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE candidates SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update candidate status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *candidateRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// buildWhere turns parsed clauses into a parameterized condition. Placeholders
// start at $start. An empty clause list yields TRUE.
func buildWhere(clauses []filter.Clause, start int) (string, []interface{}, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIndex := start

	for _, cl := range clauses {
		column, ok := candidateColumns[cl.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter field %q", cl.Field)
		}

		if cl.Op == filter.OpIn {
			conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", column, argIndex))
			args = append(args, pq.Array(cl.Value))
			argIndex++
			continue
		}

		op, ok := sqlOperators[cl.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported operator %q", cl.Op)
		}
		conditions = append(conditions, fmt.Sprintf("%s %s $%d", column, op, argIndex))
		args = append(args, cl.Value)
		argIndex++
	}

	return strings.Join(conditions, " AND "), args, nil
}

func buildOrder(sort []filter.SortField) (string, error) {
	parts := make([]string, 0, len(sort)+1)
	for _, s := range sort {
		column, ok := candidateColumns[s.Field]
		if !ok {
			return "", fmt.Errorf("unknown sort field %q", s.Field)
		}
		dir := "ASC NULLS LAST"
		if s.Desc {
			dir = "DESC NULLS LAST"
		}
		parts = append(parts, column+" "+dir)
	}
	// stable pages across equal keys
	parts = append(parts, "c.id ASC")
	return strings.Join(parts, ", "), nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanCandidate(row pgx.Row) (*domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(
		&c.ID, &c.FullName, &c.Email, &c.Status, &c.Position, &c.Experience,
		&c.ResumeKey, &c.ResumeFilename, &c.Notes, &c.InterviewDate, &c.CreatedAt,
		&c.CreatedBy.ID, &c.CreatedBy.Name, &c.CreatedBy.Email,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCandidates(rows pgx.Rows) ([]domain.Candidate, error) {
	defer rows.Close()

	candidates := []domain.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperror.BadRequest("A candidate with this email already exists").WithKind(apperror.KindDuplicateEmail)
	}
	return apperror.Internal(err)
}
