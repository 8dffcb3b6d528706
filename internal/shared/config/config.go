package config

import (
	"log"
	"os"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	ExtractorType string

	GeminiAPIKey string
	GeminiModel  string

	SheetID            string
	SheetRange         string
	GoogleSACredsFile  string
	DatabaseURL        string

	WebhookURL            string
	WebhookCandidateEmail string

	EmailFrom         string
	FollowUpScheduler string
	ScheduleGroup     string
	ScheduleTargetARN string
	ScheduleRoleARN   string
	EmailQueueURL     string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	sheetID := os.Getenv("GOOGLE_SHEET_ID")

	if env == "production" && sheetID == "" {
		log.Printf("GOOGLE_SHEET_ID is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		Env:             env,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:        getEnv("S3_BUCKET_NAME", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),

		ExtractorType: normalizeExtractorType(getEnv("EXTRACTOR", "inprocess")),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		SheetID:           sheetID,
		SheetRange:        getEnv("GOOGLE_SHEET_RANGE", "Sheet1!A:I"),
		GoogleSACredsFile: getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		DatabaseURL:       os.Getenv("DATABASE_URL"),

		WebhookURL:            getEnv("WEBHOOK_URL", ""),
		WebhookCandidateEmail: getEnv("WEBHOOK_CANDIDATE_EMAIL", ""),

		EmailFrom:         getEnv("EMAIL_FROM", ""),
		FollowUpScheduler: normalizeSchedulerType(getEnv("FOLLOW_UP_SCHEDULER", "queue")),
		ScheduleGroup:     getEnv("SCHEDULE_GROUP", "default"),
		ScheduleTargetARN: getEnv("SCHEDULE_TARGET_ARN", ""),
		ScheduleRoleARN:   getEnv("SCHEDULE_ROLE_ARN", ""),
		EmailQueueURL:     getEnv("EMAIL_QUEUE_URL", ""),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeExtractorType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "textract":
		return "textract"
	default:
		return "inprocess"
	}
}

func normalizeSchedulerType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "eventbridge":
		return "eventbridge"
	default:
		return "queue"
	}
}
