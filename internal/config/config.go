// Package config resolves runtime settings from the environment, with a
// best-effort .env load. CLI flags defined by the entry points override
// individual fields after Load.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	ListenAddr string
	WorkDir    string
	OutDir     string

	Provider     string
	GeminiAPIKey string
	GroqAPIKey   string

	PrimaryModel string
	FastModel    string

	DocumentRounds int
	AnalysisRounds int

	SandboxTimeout time.Duration
	SandboxImage   string
	Interpreter    string

	ArtifactBackend string
	ArtifactDir     string
	S3              S3Config

	RunStorePath string
	RunStoreDSN  string

	CacheSize int
	CacheTTL  time.Duration
	RateRPS   float64
	RateBurst int
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Defaults mirroring the reference behavior: big model for the writing
// roles, fast model for the judging roles, 5 document rounds, 15
// analysis rounds, 60s sandbox wall clock.
const (
	DefaultPrimaryModel   = "gemini-2.5-pro"
	DefaultFastModel      = "gemini-2.5-flash"
	DefaultDocumentRounds = 5
	DefaultAnalysisRounds = 15
	DefaultSandboxTimeout = 60 * time.Second
	DefaultCacheSize      = 256
	DefaultCacheTTL       = 15 * time.Minute
)

func Load() Config {
	_ = godotenv.Load()

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	cfg := Config{
		Env:        env,
		ListenAddr: resolveListenAddr(),
		WorkDir:    firstNonEmpty(os.Getenv("WORKDIR"), "data"),
		OutDir:     firstNonEmpty(os.Getenv("OUT_DIR"), "out"),

		Provider:     strings.ToLower(firstNonEmpty(os.Getenv("LLM_PROVIDER"), "gemini")),
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GroqAPIKey:   strings.TrimSpace(os.Getenv("GROQ_API_KEY")),

		PrimaryModel: firstNonEmpty(os.Getenv("MODEL_PRIMARY"), DefaultPrimaryModel),
		FastModel:    firstNonEmpty(os.Getenv("MODEL_FAST"), DefaultFastModel),

		DocumentRounds: intFromEnv("DOC_MAX_ROUNDS", DefaultDocumentRounds),
		AnalysisRounds: intFromEnv("ANALYSIS_MAX_ROUNDS", DefaultAnalysisRounds),

		SandboxTimeout: time.Duration(intFromEnv("SANDBOX_TIMEOUT_SECONDS", int(DefaultSandboxTimeout/time.Second))) * time.Second,
		SandboxImage:   strings.TrimSpace(os.Getenv("SANDBOX_DOCKER_IMAGE")),
		Interpreter:    firstNonEmpty(os.Getenv("SANDBOX_INTERPRETER"), "python3"),

		ArtifactBackend: strings.ToLower(firstNonEmpty(os.Getenv("ARTIFACT_BACKEND"), "file")),
		ArtifactDir:     firstNonEmpty(os.Getenv("ARTIFACT_DIR"), "out/artifacts"),
		S3:              loadS3Config(env),

		RunStorePath: firstNonEmpty(os.Getenv("RUN_STORE_PATH"), "out/runs.json"),
		RunStoreDSN:  strings.TrimSpace(os.Getenv("RUN_STORE_PG_DSN")),

		CacheSize: intFromEnv("LLM_CACHE_SIZE", DefaultCacheSize),
		CacheTTL:  time.Duration(intFromEnv("LLM_CACHE_TTL_SECONDS", int(DefaultCacheTTL/time.Second))) * time.Second,
		RateRPS:   floatFromEnv("LLM_RPS", 0),
		RateBurst: intFromEnv("LLM_BURST", 1),
	}
	return cfg
}

// APIKey returns the key for the selected provider.
func (c Config) APIKey() string {
	if c.Provider == "groq" {
		return c.GroqAPIKey
	}
	return c.GeminiAPIKey
}

func resolveListenAddr() string {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return ":8081"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func loadS3Config(env string) S3Config {
	return S3Config{
		Endpoint:  resolveS3Endpoint(env),
		Region:    firstNonEmpty(os.Getenv("ARTIFACT_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(os.Getenv("ARTIFACT_S3_ACCESS_KEY"), os.Getenv("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(os.Getenv("ARTIFACT_S3_SECRET_KEY"), os.Getenv("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(os.Getenv("ARTIFACT_S3_BUCKET"), "refinery-artifacts"),
		UseSSL:    resolveS3UseSSL(env),
	}
}

func resolveS3Endpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return firstNonEmpty(os.Getenv("ARTIFACT_MINIO_ENDPOINT"), "minio:9000")
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveS3UseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func intFromEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func floatFromEnv(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
