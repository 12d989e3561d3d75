package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	AppEnv string
	DBUrl  string
	// Identity provider: RS256 tokens verified against a JWKS endpoint, or
	// HS256 tokens verified with a shared secret.
	AuthJWKSURL   string
	AuthJWTSecret string
	FrontendURL   string
	// Authorization policy
	PrivilegedRole          string
	RequireAuthForMutations bool
	// Listing
	MaxPageLimit int
	MaxPage      int
	// Resume uploads
	ResumeMaxBytes  int64
	UploadPerMinute int
	UploadPerDay    int
	ClamAVAddress   string
	// Resume blob storage (S3-compatible). Postgres is used when unset.
	S3Provider        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Endpoint        string
	ResumeBucket      string
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitGlobalThreshold int
}

func LoadConfig() (*Config, error) {
	// Only effective locally; production sets real environment variables
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		AppEnv:        getEnv("APP_ENV", "development"),
		DBUrl:         getEnv("DATABASE_URL", ""),
		AuthJWKSURL:   getEnv("AUTH_JWKS_URL", ""),
		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		FrontendURL:   strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		// Authorization policy
		PrivilegedRole:          getEnv("PRIVILEGED_ROLE", "admin"),
		RequireAuthForMutations: getEnvBool("REQUIRE_AUTH_FOR_MUTATIONS", true),
		// Listing
		MaxPageLimit: getEnvInt("MAX_PAGE_LIMIT", 100),
		MaxPage:      getEnvInt("MAX_PAGE", 10000),
		// Resume uploads
		ResumeMaxBytes:  int64(getEnvInt("RESUME_MAX_BYTES", 5_000_000)),
		UploadPerMinute: getEnvInt("UPLOAD_PER_MINUTE", 10),
		UploadPerDay:    getEnvInt("UPLOAD_PER_DAY", 50),
		ClamAVAddress:   getEnv("CLAMAV_ADDRESS", ""),
		// Blob storage
		S3Provider:        getEnv("S3_PROVIDER", "aws"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		ResumeBucket:      getEnv("RESUME_BUCKET", ""),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),    // 1 minute window
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 100), // 100 requests per window
	}

	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}
	if cfg.AuthJWKSURL == "" && cfg.AuthJWTSecret == "" {
		log.Println("WARNING: neither AUTH_JWKS_URL nor AUTH_JWT_SECRET is set. Every authenticated route will return 401.")
	}
	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
