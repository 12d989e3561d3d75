package v1

import (
	"candidate-tracker-backend/config"
	"candidate-tracker-backend/internal/delivery/http/middleware"
	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/internal/usecase"
	"candidate-tracker-backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	CandidateUC domain.CandidateUsecase
	AuthUC      domain.AuthUsecase
	HealthUC    usecase.HealthUsecase
	Verifier    middleware.TokenVerifier
	SecLog      *security.SecurityLogger
	Config      *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	maxResume := deps.Config.ResumeMaxBytes
	if maxResume <= 0 {
		maxResume = security.MaxResumeBytes
	}
	// Multipart bodies up to the resume cap stay in memory
	r.MaxMultipartMemory = maxResume + multipartOverhead

	// Global Middlewares
	r.Use(gin.Recovery())
	r.Use(gin.Logger()) // wraps ErrorHandler to log final status codes
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL, deps.Config.IsProduction()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimitConfig(
		deps.Config.RateLimitGlobalThreshold,
		deps.Config.RateLimitWindowSeconds,
		deps.SecLog,
	)))

	v1 := r.Group("/v1")

	NewHealthHandler(v1, deps.HealthUC)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authn := middleware.NewAuthenticator(deps.Verifier, deps.AuthUC, deps.SecLog)
	required := authn.RequireAuth()
	privileged := []gin.HandlerFunc{required, middleware.RequireRole(deps.Config.PrivilegedRole)}

	mutate := []gin.HandlerFunc{required}
	if !deps.Config.RequireAuthForMutations {
		mutate = []gin.HandlerFunc{authn.OptionalAuth()}
	}

	NewAuthHandler(v1.Group("", required), deps.AuthUC)

	NewCandidateHandler(v1, deps.CandidateUC, CandidateRoutes{
		Create:   []gin.HandlerFunc{required},
		Mutate:   mutate,
		Status:   privileged,
		Export:   privileged,
		MaxBytes: maxResume,
	})

	return r
}
