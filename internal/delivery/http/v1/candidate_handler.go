package v1

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"candidate-tracker-backend/internal/delivery/http/response"
	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/pkg/apperror"
	"candidate-tracker-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is the allowance for form fields and part headers.
const multipartOverhead = 1 << 20

type CandidateHandler struct {
	candidateUC    domain.CandidateUsecase
	maxResumeBytes int64
}

// CandidateRoutes holds the middleware chains guarding each route class.
type CandidateRoutes struct {
	Create   []gin.HandlerFunc
	Mutate   []gin.HandlerFunc
	Status   []gin.HandlerFunc
	Export   []gin.HandlerFunc
	MaxBytes int64
}

func NewCandidateHandler(r *gin.RouterGroup, candidateUC domain.CandidateUsecase, routes CandidateRoutes) {
	handler := &CandidateHandler{candidateUC: candidateUC, maxResumeBytes: routes.MaxBytes}

	candidates := r.Group("/candidates")
	{
		candidates.GET("", handler.List)
		candidates.GET("/export", chain(routes.Export, handler.Export)...)
		candidates.GET("/status/:status", handler.ListByStatus)
		candidates.GET("/position/:position", handler.ListByPosition)
		candidates.GET("/:id", handler.Get)
		candidates.GET("/:id/resume", handler.DownloadResume)
		candidates.POST("", chain(routes.Create, handler.Create)...)
		candidates.PUT("/:id", chain(routes.Mutate, handler.Update)...)
		candidates.PUT("/:id/status", chain(routes.Status, handler.UpdateStatus)...)
		candidates.DELETE("/:id", chain(routes.Mutate, handler.Delete)...)
	}
}

func chain(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw)+1)
	return append(append(out, mw...), h)
}

// List godoc
// @Summary      List candidates
// @Description  Filter with field[op]=value (gt, gte, lt, lte, in, ne), select, sort, page and limit
// @Tags         candidates
// @Produce      json
// @Param        select  query     string  false  "Comma-separated fields to return"
// @Param        sort    query     string  false  "Comma-separated sort fields, prefix - for descending"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Page size (default 25)"
// @Success      200     {object}  response.Response{data=[]domain.Candidate}
// @Failure      400     {object}  response.ErrorResponse
// @Router       /candidates [get]
func (h *CandidateHandler) List(c *gin.Context) {
	result, err := h.candidateUC.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		c.Error(err)
		return
	}

	response.Page(c, "Candidates retrieved", len(result.Candidates), result.Pagination, result.Render())
}

// ListByStatus godoc
// @Summary      List candidates by status
// @Tags         candidates
// @Produce      json
// @Param        status  path      string  true  "rejected, ongoing, selected or scheduled"
// @Success      200     {object}  response.Response{data=[]domain.Candidate}
// @Failure      400     {object}  response.ErrorResponse
// @Router       /candidates/status/{status} [get]
func (h *CandidateHandler) ListByStatus(c *gin.Context) {
	candidates, err := h.candidateUC.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		c.Error(err)
		return
	}

	response.Collection(c, "Candidates retrieved", len(candidates), candidates)
}

// ListByPosition godoc
// @Summary      List candidates by position
// @Description  Case-insensitive substring match on position
// @Tags         candidates
// @Produce      json
// @Param        position  path      string  true  "Position search term"
// @Success      200       {object}  response.Response{data=[]domain.Candidate}
// @Router       /candidates/position/{position} [get]
func (h *CandidateHandler) ListByPosition(c *gin.Context) {
	candidates, err := h.candidateUC.ListByPosition(c.Request.Context(), c.Param("position"))
	if err != nil {
		c.Error(err)
		return
	}

	response.Collection(c, "Candidates retrieved", len(candidates), candidates)
}

// Get godoc
// @Summary      Get a candidate
// @Tags         candidates
// @Produce      json
// @Param        id   path      string  true  "Candidate ID"
// @Success      200  {object}  response.Response{data=domain.Candidate}
// @Failure      404  {object}  response.ErrorResponse
// @Router       /candidates/{id} [get]
func (h *CandidateHandler) Get(c *gin.Context) {
	candidate, err := h.candidateUC.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Candidate retrieved", candidate)
}

// Create godoc
// @Summary      Create a candidate
// @Description  Accepts JSON, or multipart/form-data with an optional resume file (pdf, doc, docx)
// @Tags         candidates
// @Accept       json,mpfd
// @Produce      json
// @Param        resume  formData  file    false  "Resume file"
// @Success      201     {object}  response.Response{data=domain.Candidate}
// @Failure      400     {object}  response.ErrorResponse
// @Failure      401     {object}  response.ErrorResponse
// @Failure      429     {object}  response.ErrorResponse
// @Router       /candidates [post]
// @Security     BearerAuth
func (h *CandidateHandler) Create(c *gin.Context) {
	var input domain.CreateCandidateInput
	var resume *domain.ResumeUpload

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		// Bodies stay under the multipart memory limit so nothing spills to disk
		limit := h.bodyLimit()
		if c.Request.ContentLength > limit {
			c.Error(resumeTooLarge())
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		if err := c.ShouldBind(&input); err != nil {
			if bodyTooLarge(err) {
				c.Error(resumeTooLarge())
				return
			}
			c.Error(apperror.BadRequest("Invalid form data"))
			return
		}
		fh, err := c.FormFile("resume")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case bodyTooLarge(err):
			c.Error(resumeTooLarge())
			return
		case err != nil:
			c.Error(apperror.BadRequest("Invalid resume upload"))
			return
		default:
			resume, err = h.readResume(fh)
			if err != nil {
				c.Error(err)
				return
			}
		}
	} else if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	candidate, err := h.candidateUC.Create(c.Request.Context(), input, resume)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Candidate created", candidate)
}

// Update godoc
// @Summary      Update a candidate
// @Description  Partial update. Changing status requires the privileged role.
// @Tags         candidates
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Candidate ID"
// @Param        request  body      domain.CandidatePatch  true  "Fields to change"
// @Success      200      {object}  response.Response{data=domain.Candidate}
// @Failure      400      {object}  response.ErrorResponse
// @Failure      403      {object}  response.ErrorResponse
// @Failure      404      {object}  response.ErrorResponse
// @Router       /candidates/{id} [put]
// @Security     BearerAuth
func (h *CandidateHandler) Update(c *gin.Context) {
	var patch domain.CandidatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	candidate, err := h.candidateUC.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Candidate updated", candidate)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus godoc
// @Summary      Change a candidate's status
// @Tags         candidates
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Candidate ID"
// @Param        request  body      updateStatusRequest  true  "New status"
// @Success      200      {object}  response.Response{data=domain.Candidate}
// @Failure      400      {object}  response.ErrorResponse
// @Failure      403      {object}  response.ErrorResponse
// @Failure      404      {object}  response.ErrorResponse
// @Router       /candidates/{id}/status [put]
// @Security     BearerAuth
func (h *CandidateHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	candidate, err := h.candidateUC.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Candidate status updated", candidate)
}

// Delete godoc
// @Summary      Delete a candidate
// @Tags         candidates
// @Produce      json
// @Param        id   path      string  true  "Candidate ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.ErrorResponse
// @Router       /candidates/{id} [delete]
// @Security     BearerAuth
func (h *CandidateHandler) Delete(c *gin.Context) {
	if err := h.candidateUC.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Candidate deleted", gin.H{})
}

// DownloadResume godoc
// @Summary      Download a candidate's resume
// @Tags         candidates
// @Produce      application/octet-stream
// @Param        id   path      string  true  "Candidate ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  response.ErrorResponse
// @Router       /candidates/{id}/resume [get]
func (h *CandidateHandler) DownloadResume(c *gin.Context) {
	file, err := h.candidateUC.DownloadResume(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Export godoc
// @Summary      Export candidates to Excel/CSV
// @Description  Downloads candidates matching the list filters. Privileged role only.
// @Tags         candidates
// @Produce      application/octet-stream
// @Param        format   query     string  false  "Export format (xlsx, csv). Default: xlsx"
// @Param        columns  query     string  false  "Comma-separated column names to include"
// @Success      200      {file}    binary
// @Failure      400      {object}  response.ErrorResponse
// @Failure      403      {object}  response.ErrorResponse
// @Router       /candidates/export [get]
// @Security     BearerAuth
func (h *CandidateHandler) Export(c *gin.Context) {
	params := c.Request.URL.Query()
	format := params.Get("format")
	var columns []string
	if cols := params.Get("columns"); cols != "" {
		columns = strings.Split(cols, ",")
	}
	params.Del("format")
	params.Del("columns")

	data, filename, err := h.candidateUC.Export(c.Request.Context(), domain.ExportRequest{
		Params:  params,
		Columns: columns,
		Format:  format,
	})
	if err != nil {
		c.Error(err)
		return
	}

	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if format == "csv" {
		contentType = "text/csv"
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// bodyLimit leaves room for form fields and multipart framing around the file.
func (h *CandidateHandler) bodyLimit() int64 {
	fileCap := h.maxResumeBytes
	if fileCap <= 0 {
		fileCap = security.MaxResumeBytes
	}
	return fileCap + multipartOverhead
}

func bodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || (err != nil && strings.Contains(err.Error(), "request body too large"))
}

func resumeTooLarge() error {
	return apperror.BadRequest(security.MsgResumeTooLarge).WithKind(apperror.KindFileTooLarge)
}

// readResume buffers at most one byte past the cap so oversize files are
// still reported as too large without holding the whole body. Files with a
// disallowed extension are passed on unread; the gate rejects them by name.
func (h *CandidateHandler) readResume(fh *multipart.FileHeader) (*domain.ResumeUpload, error) {
	if !security.IsAllowedResumeExtension(fh.Filename) {
		return &domain.ResumeUpload{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type")}, nil
	}

	src, err := fh.Open()
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer src.Close()

	limit := h.maxResumeBytes
	if limit <= 0 {
		limit = fh.Size
	}
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &domain.ResumeUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
