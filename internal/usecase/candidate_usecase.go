package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/pkg/apperror"
	"candidate-tracker-backend/pkg/filter"
	"candidate-tracker-backend/pkg/logger"
	"candidate-tracker-backend/pkg/pagination"
	"candidate-tracker-backend/pkg/security"
	"candidate-tracker-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxExportRows caps a single export
const maxExportRows = 10000

type candidateUsecase struct {
	repo           domain.CandidateRepository
	resumes        domain.ResumeStore
	gate           *ResumeGate
	validate       *validator.Validate
	privilegedRole string
	limits         pagination.Limits
	secLog         *security.SecurityLogger
}

// CandidateOption customizes the candidate usecase
type CandidateOption func(*candidateUsecase)

// WithPrivilegedRole sets the role allowed to change candidate status
func WithPrivilegedRole(role string) CandidateOption {
	return func(u *candidateUsecase) {
		if role != "" {
			u.privilegedRole = role
		}
	}
}

// WithPageLimits overrides the list page caps
func WithPageLimits(l pagination.Limits) CandidateOption {
	return func(u *candidateUsecase) { u.limits = l }
}

func WithSecurityLogger(sl *security.SecurityLogger) CandidateOption {
	return func(u *candidateUsecase) { u.secLog = sl }
}

func NewCandidateUsecase(repo domain.CandidateRepository, resumes domain.ResumeStore, gate *ResumeGate, validate *validator.Validate, opts ...CandidateOption) domain.CandidateUsecase {
	if validate == nil {
		validate = validation.New()
	}
	if gate == nil {
		gate = NewResumeGate(0, nil, nil, nil)
	}
	u := &candidateUsecase{
		repo:           repo,
		resumes:        resumes,
		gate:           gate,
		validate:       validate,
		privilegedRole: domain.RoleAdmin,
		limits:         pagination.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *candidateUsecase) List(ctx context.Context, params url.Values) (*domain.CandidateList, error) {
	q, err := filter.Parse(params, domain.CandidateSchema)
	if err != nil {
		return nil, filterError(err)
	}

	page, err := pagination.Parse(q.RawPage, q.RawLimit, u.limits)
	if err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	total, err := u.repo.Count(ctx, q.Clauses)
	if err != nil {
		return nil, err
	}

	candidates, err := u.repo.Find(ctx, domain.CandidateListQuery{
		Clauses: q.Clauses,
		Sort:    q.Sort,
		Limit:   page.Limit,
		Offset:  page.Offset(),
	})
	if err != nil {
		return nil, err
	}
	maskAll(candidates)

	return &domain.CandidateList{
		Candidates: candidates,
		Fields:     q.Select,
		Total:      total,
		Pagination: page.Describe(total),
	}, nil
}

func (u *candidateUsecase) ListByStatus(ctx context.Context, status string) ([]domain.Candidate, error) {
	if !domain.IsValidStatus(status) {
		return nil, invalidStatus(status)
	}
	candidates, err := u.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	maskAll(candidates)
	return candidates, nil
}

func (u *candidateUsecase) ListByPosition(ctx context.Context, position string) ([]domain.Candidate, error) {
	position = strings.TrimSpace(position)
	if position == "" {
		return nil, apperror.BadRequest("Position is required")
	}
	candidates, err := u.repo.FindByPosition(ctx, position)
	if err != nil {
		return nil, err
	}
	maskAll(candidates)
	return candidates, nil
}

func (u *candidateUsecase) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	c, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c.MaskResume()
	return c, nil
}

func (u *candidateUsecase) Create(ctx context.Context, input domain.CreateCandidateInput, resume *domain.ResumeUpload) (*domain.Candidate, error) {
	actor := domain.ActorFromContext(ctx)
	if !actor.Authenticated() {
		return nil, apperror.Unauthorized("Not authorized to access this route")
	}

	c := &domain.Candidate{
		FullName:  input.FullName,
		Email:     input.Email,
		Status:    input.Status,
		Position:  input.Position,
		Notes:     input.Notes,
		CreatedBy: domain.CreatorRef{ID: actor.UserID},
	}
	if c.Status == "" {
		c.Status = domain.StatusOngoing
	}
	if input.Experience != nil {
		c.Experience = *input.Experience
	}
	if input.InterviewDate != "" {
		t, err := parseDate(input.InterviewDate)
		if err != nil {
			return nil, err
		}
		c.InterviewDate = &t
	}

	c.Normalize()
	if err := u.validateCandidate(c); err != nil {
		return nil, err
	}

	var blobKey string
	if resume != nil {
		checked, err := u.gate.Check(ctx, resume)
		if err != nil {
			return nil, err
		}
		filename := filepath.Base(resume.Filename)
		blobKey = fmt.Sprintf("resumes/%s/%s", uuid.NewString(), filename)
		if err := u.resumes.Put(ctx, blobKey, resume.Data, checked.DeclaredMIME); err != nil {
			return nil, apperror.Internal(err)
		}
		c.ResumeKey = &blobKey
		c.ResumeFilename = &filename
	}

	if err := u.repo.Create(ctx, c); err != nil {
		if blobKey != "" {
			if delErr := u.resumes.Delete(ctx, blobKey); delErr != nil {
				logger.Log.Error("Failed to remove orphaned resume", "key", blobKey, "error", delErr)
			}
		}
		return nil, err
	}

	logger.Log.Info("Candidate created", "candidate_id", c.ID, "created_by", actor.UserID, "has_resume", c.HasResume())
	c.MaskResume()
	return c, nil
}

func (u *candidateUsecase) Update(ctx context.Context, id string, patch domain.CandidatePatch) (*domain.Candidate, error) {
	c, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}

	actor := domain.ActorFromContext(ctx)
	if patch.Status != nil && actor.Role != u.privilegedRole {
		u.secLog.LogForbiddenStatusChange(ctx, actor.UserID, actor.Role, id)
		return nil, apperror.Forbidden("Only admins can change candidate status")
	}

	if patch.FullName != nil {
		c.FullName = *patch.FullName
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.Position != nil {
		c.Position = *patch.Position
	}
	if patch.Experience != nil {
		c.Experience = *patch.Experience
	}
	if patch.Notes != nil {
		c.Notes = patch.Notes
	}
	if patch.InterviewDate != nil {
		if *patch.InterviewDate == "" {
			c.InterviewDate = nil
		} else {
			t, err := parseDate(*patch.InterviewDate)
			if err != nil {
				return nil, err
			}
			c.InterviewDate = &t
		}
	}

	c.Normalize()
	if err := u.validateCandidate(c); err != nil {
		return nil, err
	}

	if err := u.repo.Update(ctx, c); err != nil {
		return nil, notFoundOr(err, id)
	}
	c.MaskResume()
	return c, nil
}

func (u *candidateUsecase) UpdateStatus(ctx context.Context, id, status string) (*domain.Candidate, error) {
	actor := domain.ActorFromContext(ctx)
	if actor.Role != u.privilegedRole {
		u.secLog.LogForbiddenStatusChange(ctx, actor.UserID, actor.Role, id)
		return nil, apperror.Forbidden("Only admins can update candidate status")
	}
	if !domain.IsValidStatus(status) {
		return nil, invalidStatus(status)
	}

	if err := u.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, notFoundOr(err, id)
	}
	return u.Get(ctx, id)
}

func (u *candidateUsecase) Delete(ctx context.Context, id string) error {
	c, err := u.load(ctx, id)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, id)
	}
	if c.HasResume() {
		if err := u.resumes.Delete(ctx, *c.ResumeKey); err != nil {
			logger.Log.Error("Failed to remove resume of deleted candidate", "candidate_id", id, "error", err)
		}
	}
	return nil
}

func (u *candidateUsecase) DownloadResume(ctx context.Context, id string) (*domain.ResumeDownload, error) {
	c, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.HasResume() {
		return nil, apperror.NotFound("No resume uploaded for this candidate")
	}

	obj, err := u.resumes.Get(ctx, *c.ResumeKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound("No resume uploaded for this candidate")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	filename := filepath.Base(*c.ResumeKey)
	if c.ResumeFilename != nil {
		filename = *c.ResumeFilename
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &domain.ResumeDownload{Filename: filename, ContentType: contentType, Data: obj.Data}, nil
}

func (u *candidateUsecase) load(ctx context.Context, id string) (*domain.Candidate, error) {
	c, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	return c, nil
}

func (u *candidateUsecase) validateCandidate(c *domain.Candidate) error {
	if err := u.validate.Struct(c); err != nil {
		return apperror.Validation("Validation failed", validation.FormatValidationErrors(err))
	}
	return nil
}

func maskAll(candidates []domain.Candidate) {
	for i := range candidates {
		candidates[i].MaskResume()
	}
}

func invalidStatus(status string) error {
	return apperror.BadRequest(fmt.Sprintf("Invalid status: %s. Valid statuses are: %s",
		status, strings.Join(domain.CandidateStatuses, ", "))).WithKind(apperror.KindInvalidStatus)
}

func filterError(err error) error {
	var fe *filter.Error
	if errors.As(err, &fe) {
		return apperror.BadRequest(fe.Error()).WithKind(apperror.KindInvalidFilter)
	}
	return err
}

func notFoundOr(err error, id string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.NotFound(fmt.Sprintf("Candidate not found with id of %s", id))
	}
	return err
}

// parseDate accepts a calendar date or an RFC3339 timestamp.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.Validation("Validation failed", []string{"interview_date: must be a date (YYYY-MM-DD) or RFC3339 timestamp"})
}
