package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candidate-tracker-backend/config"
	_ "candidate-tracker-backend/docs" // Important for Swagger
	v1 "candidate-tracker-backend/internal/delivery/http/v1"
	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/internal/repository/postgres"
	s3store "candidate-tracker-backend/internal/repository/s3"
	"candidate-tracker-backend/internal/usecase"
	"candidate-tracker-backend/pkg/auth"
	"candidate-tracker-backend/pkg/database"
	"candidate-tracker-backend/pkg/logger"
	"candidate-tracker-backend/pkg/pagination"
	"candidate-tracker-backend/pkg/redis"
	"candidate-tracker-backend/pkg/security"
	"candidate-tracker-backend/pkg/security/antivirus"
	"candidate-tracker-backend/pkg/validation"

	"github.com/jackc/pgx/v5/pgxpool"
)

// @title           Candidate Tracker API
// @version         1.0
// @description     Recruitment candidate records with filtering, pagination and resume uploads.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting candidate tracker", "port", cfg.Port, "env", cfg.AppEnv)

	secLog := security.NewSecurityLogger("candidate-tracker", cfg.AppEnv)
	defer secLog.Sync()

	ctx := context.Background()

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (optional: limits fall back to in-process state)
	if err := redis.Initialize(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
		logger.Log.Warn("Redis unavailable, using in-memory rate limits", "error", err)
	}
	defer redis.Close()

	// 5. Setup Repositories
	userRepo := postgres.NewUserRepository(dbPool)
	candidateRepo := postgres.NewCandidateRepository(dbPool)
	resumeStore := newResumeStore(ctx, cfg, dbPool)

	// 6. Setup Upload Gate
	var scanner antivirus.Scanner
	if cfg.ClamAVAddress != "" {
		scanner = antivirus.NewChainScanner(antivirus.NewClamAVScanner(cfg.ClamAVAddress, 30*time.Second))
	} else {
		logger.Log.Warn("CLAMAV_ADDRESS not set - resumes will not be scanned")
	}
	gate := usecase.NewResumeGate(
		cfg.ResumeMaxBytes,
		scanner,
		security.NewUploadLimiter(cfg.UploadPerMinute, cfg.UploadPerDay),
		secLog,
	)

	// 7. Setup UseCases
	authUC := usecase.NewAuthUsecase(userRepo)
	candidateUC := usecase.NewCandidateUsecase(candidateRepo, resumeStore, gate, validation.New(),
		usecase.WithPrivilegedRole(cfg.PrivilegedRole),
		usecase.WithPageLimits(pagination.Limits{MaxLimit: cfg.MaxPageLimit, MaxPage: cfg.MaxPage}),
		usecase.WithSecurityLogger(secLog),
	)
	healthUC := usecase.NewHealthUsecase(map[string]usecase.Pinger{
		"database": dbPool,
		"redis":    usecase.PingFunc(redis.Ping),
	})

	// 8. Setup Auth (JWKS and/or shared secret)
	var jwksProvider *auth.Provider
	if cfg.AuthJWKSURL != "" {
		jwksProvider = auth.NewProvider(cfg.AuthJWKSURL)
	}
	if jwksProvider == nil && cfg.AuthJWTSecret == "" {
		logger.Log.Warn("No AUTH_JWKS_URL or AUTH_JWT_SECRET - every authenticated route will return 401")
	}
	verifier := auth.NewVerifier(cfg.AuthJWTSecret, jwksProvider)

	// 9. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		CandidateUC: candidateUC,
		AuthUC:      authUC,
		HealthUC:    healthUC,
		Verifier:    verifier,
		SecLog:      secLog,
		Config:      cfg,
	})

	// 10. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

// newResumeStore prefers the S3 bucket and falls back to the database.
func newResumeStore(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) domain.ResumeStore {
	s3cfg := security.S3ClientConfig{
		Provider:        security.S3Provider(cfg.S3Provider),
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Region:          cfg.S3Region,
		Bucket:          cfg.ResumeBucket,
		Endpoint:        cfg.S3Endpoint,
	}
	if !s3cfg.Enabled() {
		logger.Log.Info("Resume bucket not configured - storing resumes in postgres")
		return postgres.NewResumeStore(db)
	}

	client, err := security.NewS3Client(ctx, s3cfg)
	if err != nil {
		logger.Log.Error("Failed to create S3 client", "error", err)
		os.Exit(1)
	}
	if err := security.CheckBucket(ctx, client, cfg.ResumeBucket); err != nil {
		logger.Log.Warn("Resume bucket check failed", "bucket", cfg.ResumeBucket, "error", err)
	}
	logger.Log.Info("Storing resumes in S3", "provider", cfg.S3Provider, "bucket", cfg.ResumeBucket)
	return s3store.NewResumeStore(client, cfg.ResumeBucket)
}
