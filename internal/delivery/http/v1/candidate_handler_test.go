package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"candidate-tracker-backend/config"
	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/pkg/apperror"
	"candidate-tracker-backend/pkg/auth"
	"candidate-tracker-backend/pkg/pagination"
	"candidate-tracker-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type MockCandidateUsecase struct {
	mock.Mock
}

func (m *MockCandidateUsecase) List(ctx context.Context, params url.Values) (*domain.CandidateList, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CandidateList), args.Error(1)
}

func (m *MockCandidateUsecase) ListByStatus(ctx context.Context, status string) ([]domain.Candidate, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Candidate), args.Error(1)
}

func (m *MockCandidateUsecase) ListByPosition(ctx context.Context, position string) ([]domain.Candidate, error) {
	args := m.Called(ctx, position)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Candidate), args.Error(1)
}

func (m *MockCandidateUsecase) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *MockCandidateUsecase) Create(ctx context.Context, input domain.CreateCandidateInput, resume *domain.ResumeUpload) (*domain.Candidate, error) {
	args := m.Called(ctx, input, resume)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *MockCandidateUsecase) Update(ctx context.Context, id string, patch domain.CandidatePatch) (*domain.Candidate, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *MockCandidateUsecase) UpdateStatus(ctx context.Context, id, status string) (*domain.Candidate, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *MockCandidateUsecase) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCandidateUsecase) DownloadResume(ctx context.Context, id string) (*domain.ResumeDownload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResumeDownload), args.Error(1)
}

func (m *MockCandidateUsecase) Export(ctx context.Context, req domain.ExportRequest) ([]byte, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

// stubAuth returns stored users keyed by subject.
type stubAuth struct {
	roles map[string]string
}

func (s *stubAuth) EnsureUserExists(_ context.Context, u *domain.User) (*domain.User, error) {
	role, ok := s.roles[u.ID]
	if !ok {
		role = domain.RoleRecruiter
	}
	return &domain.User{ID: u.ID, Email: u.Email, Name: u.Name, Role: role}, nil
}

func (s *stubAuth) GetCurrentUser(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id, Role: s.roles[id]}, nil
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newTestRouter(uc domain.CandidateUsecase, requireAuth bool) *gin.Engine {
	return NewRouter(RouterDeps{
		CandidateUC: uc,
		AuthUC:      &stubAuth{roles: map[string]string{"admin-1": domain.RoleAdmin}},
		Verifier:    auth.NewVerifier(testSecret, nil),
		SecLog:      security.NopSecurityLogger(),
		Config: &config.Config{
			PrivilegedRole:           domain.RoleAdmin,
			RequireAuthForMutations:  requireAuth,
			ResumeMaxBytes:           security.MaxResumeBytes,
			RateLimitGlobalThreshold: 1000,
			RateLimitWindowSeconds:   60,
		},
	})
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func actorIs(userID, role string) interface{} {
	return mock.MatchedBy(func(ctx context.Context) bool {
		a := domain.ActorFromContext(ctx)
		return a.UserID == userID && a.Role == role
	})
}

func TestCandidateHandler_List(t *testing.T) {
	t.Run("Should return the page with count and pagination", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("List", mock.Anything, mock.MatchedBy(func(v url.Values) bool {
			return v.Get("experience[gte]") == "3" && v.Get("page") == "2"
		})).Return(&domain.CandidateList{
			Candidates: []domain.Candidate{{ID: "a", FullName: "Jane Doe"}},
			Total:      30,
			Pagination: pagination.Descriptor{
				Next: &pagination.PageRef{Page: 3, Limit: 10},
				Prev: &pagination.PageRef{Page: 1, Limit: 10},
			},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/candidates?experience[gte]=3&page=2&limit=10", nil)
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(1), body["count"])
		pg := body["pagination"].(map[string]interface{})
		assert.Equal(t, float64(3), pg["next"].(map[string]interface{})["page"])
		assert.Equal(t, float64(1), pg["prev"].(map[string]interface{})["page"])
		uc.AssertExpectations(t)
	})

	t.Run("Should surface filter errors as 400 with a request id", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("List", mock.Anything, mock.Anything).
			Return(nil, apperror.BadRequest("Unknown filter field: salary").WithKind("invalid_filter"))

		req := httptest.NewRequest(http.MethodGet, "/v1/candidates?salary[gt]=1", nil)
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "invalid_filter", body["code"])
		assert.NotEmpty(t, body["request_id"])
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("Should hide unexpected errors behind a generic 500", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection reset"))

		w := perform(newTestRouter(uc, true), httptest.NewRequest(http.MethodGet, "/v1/candidates", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestCandidateHandler_ListByStatus(t *testing.T) {
	t.Run("Should return candidates with count", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("ListByStatus", mock.Anything, domain.StatusOngoing).
			Return([]domain.Candidate{{ID: "a"}, {ID: "b"}}, nil)

		w := perform(newTestRouter(uc, true), httptest.NewRequest(http.MethodGet, "/v1/candidates/status/ongoing", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), decode(t, w)["count"])
	})

	t.Run("Should route position searches separately from ids", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("ListByPosition", mock.Anything, "engineer").Return([]domain.Candidate{}, nil)

		w := perform(newTestRouter(uc, true), httptest.NewRequest(http.MethodGet, "/v1/candidates/position/engineer", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(0), decode(t, w)["count"])
		uc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestCandidateHandler_Create(t *testing.T) {
	t.Run("Should reject anonymous creates with 401", func(t *testing.T) {
		uc := new(MockCandidateUsecase)

		req := httptest.NewRequest(http.MethodPost, "/v1/candidates", strings.NewReader(`{"full_name":"Jane"}`))
		req.Header.Set("Content-Type", "application/json")
		w := perform(newTestRouter(uc, true), req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		uc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should reject a token signed with another secret", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("other"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/candidates", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+forged)
		w := perform(newTestRouter(uc, true), req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should create from JSON without a resume", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("Create", actorIs("user-1", domain.RoleRecruiter), mock.MatchedBy(func(in domain.CreateCandidateInput) bool {
			return in.FullName == "Jane Doe" && in.Email == "JANE@example.com" && *in.Experience == 4
		}), (*domain.ResumeUpload)(nil)).Return(&domain.Candidate{ID: "new", FullName: "Jane Doe"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/candidates",
			strings.NewReader(`{"full_name":"Jane Doe","email":"JANE@example.com","position":"Engineer","experience":4}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "new", decode(t, w)["data"].(map[string]interface{})["id"])
		uc.AssertExpectations(t)
	})

	t.Run("Should pass the multipart resume through", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("Create", mock.Anything, mock.MatchedBy(func(in domain.CreateCandidateInput) bool {
			return in.FullName == "Jane Doe" && in.Position == "Engineer"
		}), mock.MatchedBy(func(r *domain.ResumeUpload) bool {
			return r != nil && r.Filename == "cv.pdf" && r.ContentType == "application/pdf" && string(r.Data) == "%PDF-1.4 body"
		})).Return(&domain.Candidate{ID: "new"}, nil)

		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		require.NoError(t, mw.WriteField("full_name", "Jane Doe"))
		require.NoError(t, mw.WriteField("position", "Engineer"))
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="resume"; filename="cv.pdf"`)
		h.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write([]byte("%PDF-1.4 body"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/candidates", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusCreated, w.Code)
		uc.AssertExpectations(t)
	})

	t.Run("Should truncate oversize uploads just past the cap", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(r *domain.ResumeUpload) bool {
			return r != nil && int64(len(r.Data)) == security.MaxResumeBytes+1
		})).Return(nil, apperror.BadRequest(security.MsgResumeTooLarge).WithKind("file_too_large"))

		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		part, err := mw.CreateFormFile("resume", "cv.pdf")
		require.NoError(t, err)
		_, _ = part.Write(bytes.Repeat([]byte("a"), 6_000_000))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/candidates", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "file_too_large", decode(t, w)["code"])
	})
}

func TestCandidateHandler_Update(t *testing.T) {
	t.Run("Should require a token when mutations are protected", func(t *testing.T) {
		uc := new(MockCandidateUsecase)

		req := httptest.NewRequest(http.MethodPut, "/v1/candidates/abc", strings.NewReader(`{"notes":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		w := perform(newTestRouter(uc, true), req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should let anonymous updates through when the policy allows", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("Update", actorIs("", ""), "abc", mock.MatchedBy(func(p domain.CandidatePatch) bool {
			return p.Notes != nil && *p.Notes == "x" && p.Status == nil
		})).Return(&domain.Candidate{ID: "abc"}, nil)

		req := httptest.NewRequest(http.MethodPut, "/v1/candidates/abc", strings.NewReader(`{"notes":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		w := perform(newTestRouter(uc, false), req)

		assert.Equal(t, http.StatusOK, w.Code)
		uc.AssertExpectations(t)
	})

	t.Run("Should forward forbidden status changes as 403", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("Update", mock.Anything, "abc", mock.Anything).
			Return(nil, apperror.Forbidden("User user-1 is not authorized to update candidate status"))

		req := httptest.NewRequest(http.MethodPut, "/v1/candidates/abc", strings.NewReader(`{"status":"selected"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
		w := perform(newTestRouter(uc, true), req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCandidateHandler_UpdateStatus(t *testing.T) {
	t.Run("Should stop non-privileged callers before the usecase", func(t *testing.T) {
		uc := new(MockCandidateUsecase)

		req := httptest.NewRequest(http.MethodPut, "/v1/candidates/abc/status", strings.NewReader(`{"status":"selected"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
		w := perform(newTestRouter(uc, true), req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		uc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should change status for the privileged role", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("UpdateStatus", actorIs("admin-1", domain.RoleAdmin), "abc", domain.StatusSelected).
			Return(&domain.Candidate{ID: "abc", Status: domain.StatusSelected}, nil)

		req := httptest.NewRequest(http.MethodPut, "/v1/candidates/abc/status", strings.NewReader(`{"status":"selected"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signToken(t, "admin-1"))
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "selected", decode(t, w)["data"].(map[string]interface{})["status"])
	})
}

func TestCandidateHandler_Delete(t *testing.T) {
	t.Run("Should return an empty object", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("Delete", mock.Anything, "abc").Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/v1/candidates/abc", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: signToken(t, "user-1")})
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]interface{}{}, decode(t, w)["data"])
	})

	t.Run("Should return 404 for a missing candidate", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("Delete", mock.Anything, "missing").Return(apperror.NotFound("Candidate not found with id of missing"))

		req := httptest.NewRequest(http.MethodDelete, "/v1/candidates/missing", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
		w := perform(newTestRouter(uc, true), req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCandidateHandler_Files(t *testing.T) {
	t.Run("Should send the resume as an attachment", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("DownloadResume", mock.Anything, "abc").Return(&domain.ResumeDownload{
			Filename:    "cv.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.4"),
		}, nil)

		w := perform(newTestRouter(uc, true), httptest.NewRequest(http.MethodGet, "/v1/candidates/abc/resume", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="cv.pdf"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "%PDF-1.4", w.Body.String())
	})

	t.Run("Should export csv without passing format or columns as filters", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("Export", mock.Anything, mock.MatchedBy(func(r domain.ExportRequest) bool {
			return r.Format == "csv" &&
				len(r.Columns) == 2 &&
				r.Params.Get("status") == "ongoing" &&
				!r.Params.Has("format") && !r.Params.Has("columns")
		})).Return([]byte("full_name,email\n"), "candidates.csv", nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/candidates/export?format=csv&columns=full_name,email&status=ongoing", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "admin-1"))
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "candidates.csv")
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("Should report operational without checks", func(t *testing.T) {
		w := perform(newTestRouter(new(MockCandidateUsecase), true), httptest.NewRequest(http.MethodGet, "/v1/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})
}

func TestAuthHandler_Me(t *testing.T) {
	t.Run("Should return the caller with the stored role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "admin-1"))
		w := perform(newTestRouter(new(MockCandidateUsecase), true), req)

		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "admin-1", data["id"])
		assert.Equal(t, domain.RoleAdmin, data["role"])
	})

	t.Run("Should require a token", func(t *testing.T) {
		w := perform(newTestRouter(new(MockCandidateUsecase), true), httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func oversizeMultipart(t *testing.T, size int) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("full_name", "Jane Doe"))
	part, err := mw.CreateFormFile("resume", "cv.pdf")
	require.NoError(t, err)
	_, _ = part.Write(bytes.Repeat([]byte("a"), size))
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestCandidateHandler_UploadBodyCap(t *testing.T) {
	t.Run("Should reject a declared oversize body before reading it", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		body, contentType := oversizeMultipart(t, 12_000_000)

		req := httptest.NewRequest(http.MethodPost, "/v1/candidates", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "file_too_large", resp["code"])
		assert.Equal(t, security.MsgResumeTooLarge, resp["error"])
		uc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should stop a streamed oversize body without spilling to disk", func(t *testing.T) {
		tmp := t.TempDir()
		t.Setenv("TMPDIR", tmp)

		uc := new(MockCandidateUsecase)
		body, contentType := oversizeMultipart(t, 40_000_000)

		req := httptest.NewRequest(http.MethodPost, "/v1/candidates", body)
		req.ContentLength = -1
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "file_too_large", decode(t, w)["code"])
		uc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)

		entries, err := os.ReadDir(tmp)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Should hand disallowed extensions to the gate unread", func(t *testing.T) {
		uc := new(MockCandidateUsecase)
		uc.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(r *domain.ResumeUpload) bool {
			return r != nil && r.Filename == "setup.exe" && r.Data == nil
		})).Return(nil, apperror.BadRequest(security.MsgUnsupportedResume).WithKind(apperror.KindUnsupportedFileType))

		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		require.NoError(t, mw.WriteField("full_name", "Jane Doe"))
		part, err := mw.CreateFormFile("resume", "setup.exe")
		require.NoError(t, err)
		_, _ = part.Write([]byte("MZ\x90\x00"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/candidates", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
		w := perform(newTestRouter(uc, true), req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "unsupported_file_type", decode(t, w)["code"])
		uc.AssertExpectations(t)
	})
}

func TestRouter_AccessLog(t *testing.T) {
	t.Run("Should log the status written by the error handler", func(t *testing.T) {
		var logs bytes.Buffer
		prev := gin.DefaultWriter
		gin.DefaultWriter = &logs
		t.Cleanup(func() { gin.DefaultWriter = prev })

		uc := new(MockCandidateUsecase)
		uc.On("ListByStatus", mock.Anything, "hired").
			Return(nil, apperror.BadRequest("Invalid status: hired").WithKind(apperror.KindInvalidStatus))
		r := newTestRouter(uc, true)

		w := perform(r, httptest.NewRequest(http.MethodGet, "/v1/candidates/status/hired", nil))
		require.Equal(t, http.StatusBadRequest, w.Code)

		assert.Contains(t, logs.String(), "| 400 |")
		assert.NotContains(t, logs.String(), "| 200 |")
	})
}
