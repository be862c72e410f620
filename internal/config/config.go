package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env      string
	HTTPPort string

	MongoURI  string
	MongoDB   string
	DataDir   string
	RedisAddr string

	JWTIssuer     string
	JWTSigningKey string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	AdminEmail      string
	AdminPassword   string
	StudentEmail    string
	StudentPassword string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	QueueBackend    string
	AuditLogPath    string
	RateLimitPerMin int
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file in the working directory is honored when
// present.
func Load() App {
	_ = godotenv.Load()

	return App{
		Env:      getEnv("APP_ENV", "dev"),
		HTTPPort: getEnv("HTTP_PORT", "5000"),

		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "attendance_management"),
		DataDir:   getEnv("DATA_DIR", "data"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		JWTIssuer:     getEnv("JWT_ISSUER", "attendance-backend"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:     durationEnv("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    durationEnv("REFRESH_TTL", 24*time.Hour),

		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@gmail.com"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),
		StudentEmail:    getEnv("STUDENT_EMAIL", "student@gmail.com"),
		StudentPassword: getEnv("STUDENT_PASSWORD", "student123"),

		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "attendance"),

		QueueBackend:    getEnv("QUEUE_BACKEND", "memory"),
		AuditLogPath:    getEnv("AUDIT_LOG_PATH", "data/audit.log"),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
