package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Groq     GroqConfig
	Chroma   ChromaConfig
	Drive    DriveConfig
	Context  ContextConfig
	Chat     ChatConfig
	Storage  StorageConfig
	Admin    AdminConfig
	Sync     SyncConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	PublicURL string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
}

type RedisConfig struct {
	Addr     string
	Password string
	Username string
	DB       int
}

// GroqConfig configures the completion capability. An empty APIKey is a
// terminal condition for the answering engine, not a startup failure.
type GroqConfig struct {
	APIKey            string
	Model             string
	MaxTokens         int
	Temperature       float64
	ValidateResponses bool
}

type ChromaConfig struct {
	URL        string
	Collection string
}

type DriveConfig struct {
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	DownloadTimeout time.Duration
}

// ContextConfig bounds the prompt context assembled from documents.
type ContextConfig struct {
	MaxChars  int
	PerDocCap int
	MaxDocs   int
	TopN      int
}

type ChatConfig struct {
	HistoryLimit      int
	RateLimitPerMin   int
	PasswordMinLength int
}

type StorageConfig struct {
	S3 S3Config
}

type S3Config struct {
	BucketName string
	Endpoint   string
	Region     string
	AccessKey  string
	SecretKey  string
}

type AdminConfig struct {
	Username string
	Password string
}

// SyncConfig optionally schedules periodic re-syncs of one drive folder.
type SyncConfig struct {
	Cron      string
	FolderURL string
	Folder    string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvAsInt("SERVER_PORT", 8080),
			PublicURL: getEnv("PUBLIC_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Name:     getEnv("POSTGRES_DB", "telecom"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		Redis: RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", getEnv("REDIS_HOST", "localhost"), getEnvAsInt("REDIS_PORT", 6379)),
			Password: getEnv("REDIS_PASSWORD", ""),
			Username: getEnv("REDIS_USERNAME", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Groq: GroqConfig{
			APIKey:            getEnv("GROQ_API_KEY", ""),
			Model:             getEnv("GROQ_MODEL", "llama3-8b-8192"),
			MaxTokens:         getEnvAsInt("GROQ_MAX_TOKENS", 500),
			Temperature:       getEnvAsFloat("GROQ_TEMPERATURE", 0.7),
			ValidateResponses: getEnvAsBool("GROQ_VALIDATE_RESPONSES", false),
		},
		Chroma: ChromaConfig{
			URL:        getEnv("CHROMA_URL", "http://localhost:8000"),
			Collection: getEnv("CHROMA_COLLECTION", "drive_docs"),
		},
		Drive: DriveConfig{
			ClientID:        getEnv("GDRIVE_CLIENT_ID", ""),
			ClientSecret:    getEnv("GDRIVE_CLIENT_SECRET", ""),
			RefreshToken:    getEnv("GDRIVE_REFRESH_TOKEN", ""),
			DownloadTimeout: time.Duration(getEnvAsInt("GDRIVE_DOWNLOAD_TIMEOUT", 60)) * time.Second,
		},
		Context: ContextConfig{
			MaxChars:  getEnvAsInt("CONTEXT_MAX_CHARS", 800),
			PerDocCap: getEnvAsInt("CONTEXT_PER_DOC_CAP", 500),
			MaxDocs:   getEnvAsInt("CONTEXT_MAX_DOCS", 2),
			TopN:      getEnvAsInt("CONTEXT_TOP_N", 5),
		},
		Chat: ChatConfig{
			HistoryLimit:      getEnvAsInt("CHAT_HISTORY_LIMIT", 50),
			RateLimitPerMin:   getEnvAsInt("CHAT_RATE_LIMIT_PER_MIN", 20),
			PasswordMinLength: getEnvAsInt("PASSWORD_MIN_LENGTH", 6),
		},
		Storage: StorageConfig{
			S3: S3Config{
				BucketName: getEnv("S3_BUCKET_NAME", ""),
				Endpoint:   getEnv("S3_ENDPOINT", ""),
				Region:     getEnv("S3_REGION", ""),
				AccessKey:  getEnv("S3_ACCESS_KEY", ""),
				SecretKey:  getEnv("S3_SECRET_KEY", ""),
			},
		},
		Admin: AdminConfig{
			Username: getEnv("DEFAULT_ADMIN_USERNAME", "admin"),
			Password: getEnv("DEFAULT_ADMIN_PASSWORD", "admin123"),
		},
		Sync: SyncConfig{
			Cron:      getEnv("SYNC_CRON", ""),
			FolderURL: getEnv("SYNC_FOLDER_URL", ""),
			Folder:    getEnv("SYNC_FOLDER_NAME", ""),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
