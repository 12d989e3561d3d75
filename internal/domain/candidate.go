package domain

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"candidate-tracker-backend/pkg/filter"
	"candidate-tracker-backend/pkg/pagination"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("resource not found")

// Candidate statuses
const (
	StatusRejected  = "rejected"
	StatusOngoing   = "ongoing"
	StatusSelected  = "selected"
	StatusScheduled = "scheduled"
)

// CandidateStatuses lists the valid statuses in display order.
var CandidateStatuses = []string{StatusRejected, StatusOngoing, StatusSelected, StatusScheduled}

// ResumePlaceholder replaces resume content in every response.
const ResumePlaceholder = "Binary data not shown"

func IsValidStatus(status string) bool {
	for _, s := range CandidateStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// CreatorRef is the user who created a candidate. Name and Email are only
// populated when the creator is joined in.
type CreatorRef struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type Candidate struct {
	ID             string     `json:"id"`
	FullName       string     `json:"full_name" validate:"required,max=200,valid_name"`
	Email          string     `json:"email" validate:"required,max=254,candidate_email"`
	Status         string     `json:"status" validate:"required,candidate_status"`
	Position       string     `json:"position" validate:"required,max=200,no_emoji"`
	Experience     int        `json:"experience" validate:"gte=0"`
	ResumeFile     string     `json:"resume_file,omitempty"`
	ResumeFilename *string    `json:"resume_filename,omitempty"`
	ResumeKey      *string    `json:"-"`
	Notes          *string    `json:"notes,omitempty"`
	InterviewDate  *time.Time `json:"interview_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CreatedBy      CreatorRef `json:"created_by"`
}

// HasResume reports whether a resume blob is attached.
func (c *Candidate) HasResume() bool {
	return c.ResumeKey != nil && *c.ResumeKey != ""
}

// MaskResume sets the response placeholder for attached resume content.
func (c *Candidate) MaskResume() {
	if c.HasResume() {
		c.ResumeFile = ResumePlaceholder
	} else {
		c.ResumeFile = ""
	}
}

// Normalize trims names and lowercases the email before validation.
func (c *Candidate) Normalize() {
	c.FullName = strings.TrimSpace(c.FullName)
	c.Position = strings.TrimSpace(c.Position)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
}

// Project returns only the selected fields. id is always included.
func (c *Candidate) Project(fields []string) map[string]interface{} {
	out := map[string]interface{}{"id": c.ID}
	for _, f := range fields {
		switch f {
		case "full_name":
			out[f] = c.FullName
		case "email":
			out[f] = c.Email
		case "status":
			out[f] = c.Status
		case "position":
			out[f] = c.Position
		case "experience":
			out[f] = c.Experience
		case "resume_file":
			if c.HasResume() {
				out[f] = ResumePlaceholder
			} else {
				out[f] = nil
			}
		case "resume_filename":
			out[f] = c.ResumeFilename
		case "notes":
			out[f] = c.Notes
		case "interview_date":
			out[f] = c.InterviewDate
		case "created_at":
			out[f] = c.CreatedAt
		case "created_by":
			out[f] = c.CreatedBy
		}
	}
	return out
}

// CandidateSchema whitelists the fields accepted by list filters, select and sort.
var CandidateSchema = filter.NewSchema("-created_at",
	filter.Field{Name: "id", Kind: filter.KindString},
	filter.Field{Name: "full_name", Kind: filter.KindString, Filterable: true, Sortable: true},
	filter.Field{Name: "email", Kind: filter.KindString, Filterable: true, Sortable: true, Lower: true},
	filter.Field{Name: "status", Kind: filter.KindEnum, Enum: CandidateStatuses, Filterable: true, Sortable: true},
	filter.Field{Name: "position", Kind: filter.KindString, Filterable: true, Sortable: true},
	filter.Field{Name: "experience", Kind: filter.KindInt, Filterable: true, Sortable: true},
	filter.Field{Name: "notes", Kind: filter.KindString, Filterable: true},
	filter.Field{Name: "resume_file", Kind: filter.KindString},
	filter.Field{Name: "resume_filename", Kind: filter.KindString, Filterable: true},
	filter.Field{Name: "interview_date", Kind: filter.KindTime, Filterable: true, Sortable: true},
	filter.Field{Name: "created_at", Kind: filter.KindTime, Filterable: true, Sortable: true},
	filter.Field{Name: "created_by", Kind: filter.KindString, Filterable: true},
)

// CandidateListQuery is a translated, paginated list request.
type CandidateListQuery struct {
	Clauses []filter.Clause
	Sort    []filter.SortField
	Limit   int
	Offset  int
}

// CandidateList is the result of a filtered list request.
type CandidateList struct {
	Candidates []Candidate
	Fields     []string
	Total      int64
	Pagination pagination.Descriptor
}

// Render returns the records to serialize, projected when select was given.
func (l *CandidateList) Render() interface{} {
	if len(l.Fields) == 0 {
		if l.Candidates == nil {
			return []Candidate{}
		}
		return l.Candidates
	}
	out := make([]map[string]interface{}, 0, len(l.Candidates))
	for i := range l.Candidates {
		out = append(out, l.Candidates[i].Project(l.Fields))
	}
	return out
}

// CreateCandidateInput carries client-supplied fields for a new candidate.
type CreateCandidateInput struct {
	FullName      string  `json:"full_name" form:"full_name"`
	Email         string  `json:"email" form:"email"`
	Status        string  `json:"status" form:"status"`
	Position      string  `json:"position" form:"position"`
	Experience    *int    `json:"experience" form:"experience"`
	Notes         *string `json:"notes" form:"notes"`
	InterviewDate string  `json:"interview_date" form:"interview_date"` // YYYY-MM-DD or RFC3339
}

// CandidatePatch is a partial update. Nil fields are left untouched.
type CandidatePatch struct {
	FullName      *string `json:"full_name"`
	Email         *string `json:"email"`
	Status        *string `json:"status"`
	Position      *string `json:"position"`
	Experience    *int    `json:"experience"`
	Notes         *string `json:"notes"`
	InterviewDate *string `json:"interview_date"`
}

// ResumeUpload is an uploaded file held in memory.
type ResumeUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ResumeDownload is a stored resume ready to be sent back.
type ResumeDownload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportRequest configures a spreadsheet export of a filtered list.
type ExportRequest struct {
	Params  url.Values
	Columns []string
	Format  string
}

type CandidateRepository interface {
	Create(ctx context.Context, c *Candidate) error
	GetByID(ctx context.Context, id string) (*Candidate, error)
	Find(ctx context.Context, q CandidateListQuery) ([]Candidate, error)
	Count(ctx context.Context, clauses []filter.Clause) (int64, error)
	FindByStatus(ctx context.Context, status string) ([]Candidate, error)
	FindByPosition(ctx context.Context, term string) ([]Candidate, error)
	Update(ctx context.Context, c *Candidate) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type CandidateUsecase interface {
	List(ctx context.Context, params url.Values) (*CandidateList, error)
	ListByStatus(ctx context.Context, status string) ([]Candidate, error)
	ListByPosition(ctx context.Context, position string) ([]Candidate, error)
	Get(ctx context.Context, id string) (*Candidate, error)
	Create(ctx context.Context, input CreateCandidateInput, resume *ResumeUpload) (*Candidate, error)
	Update(ctx context.Context, id string, patch CandidatePatch) (*Candidate, error)
	UpdateStatus(ctx context.Context, id, status string) (*Candidate, error)
	Delete(ctx context.Context, id string) error
	DownloadResume(ctx context.Context, id string) (*ResumeDownload, error)
	Export(ctx context.Context, req ExportRequest) ([]byte, string, error)
}
