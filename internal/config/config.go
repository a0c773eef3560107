package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Firebase  FirebaseConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Backup    BackupConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	Environment    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
}

// StoreConfig selects the document and file store backends.
type StoreConfig struct {
	Backend     string // firestore|mongo|memory
	FileBackend string // gcs|minio|memory
	PageSize    int
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON string
	StorageBucket   string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	UserTTL  time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	PublicURL string
}

// AuthConfig controls how bearer tokens are verified. Firebase wins when
// enabled; OIDC is used when an issuer is set; unverified parsing is for
// the auth emulator only.
type AuthConfig struct {
	Firebase        bool
	OIDCIssuer      string
	OIDCClientID    string
	AllowUnverified bool
	AdminEmails     []string
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type BackupConfig struct {
	Endpoint         string
	DriveCredentials string
	RetentionMonths  int
	Timeout          time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", 15)
	viper.SetDefault("STORE_BACKEND", "firestore")
	viper.SetDefault("FILE_BACKEND", "gcs")
	viper.SetDefault("STORE_PAGE_SIZE", 8)
	viper.SetDefault("MONGODB_DATABASE", "cloudquiz")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_USER_TTL", 300)
	viper.SetDefault("MINIO_BUCKET", "cloudquiz")
	viper.SetDefault("AUTH_FIREBASE", true)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("BACKUP_RETENTION_MONTHS", 2)
	viper.SetDefault("BACKUP_TIMEOUT", 540)

	cfg := &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Host:           viper.GetString("SERVER_HOST"),
			Environment:    viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: time.Duration(viper.GetInt("SERVER_REQUEST_TIMEOUT")) * time.Second,
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(viper.GetString("STORE_BACKEND")),
			FileBackend: strings.ToLower(viper.GetString("FILE_BACKEND")),
			PageSize:    viper.GetInt("STORE_PAGE_SIZE"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       viper.GetString("FIREBASE_PROJECT_ID"),
			CredentialsFile: viper.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
			CredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),
			StorageBucket:   viper.GetString("FIREBASE_STORAGE_BUCKET"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			UserTTL:  time.Duration(viper.GetInt("REDIS_USER_TTL")) * time.Second,
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
			PublicURL: viper.GetString("MINIO_PUBLIC_URL"),
		},
		Auth: AuthConfig{
			Firebase:        viper.GetBool("AUTH_FIREBASE"),
			OIDCIssuer:      viper.GetString("OIDC_ISSUER"),
			OIDCClientID:    viper.GetString("OIDC_CLIENT_ID"),
			AllowUnverified: viper.GetBool("ALLOW_UNVERIFIED_TOKENS"),
			AdminEmails:     splitList(viper.GetString("ADMIN_EMAILS")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Backup: BackupConfig{
			Endpoint:         viper.GetString("BACKUP_ENDPOINT"),
			DriveCredentials: os.Getenv("BACKUP_DRIVE_CREDENTIALS"),
			RetentionMonths:  viper.GetInt("BACKUP_RETENTION_MONTHS"),
			Timeout:          time.Duration(viper.GetInt("BACKUP_TIMEOUT")) * time.Second,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "firestore":
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore backend")
		}
	case "mongo":
		if c.MongoDB.URI == "" {
			return fmt.Errorf("MONGODB_URI is required for the mongo backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.Store.FileBackend {
	case "gcs":
		if c.Firebase.StorageBucket == "" {
			return fmt.Errorf("FIREBASE_STORAGE_BUCKET is required for the gcs file backend")
		}
	case "minio":
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required for the minio file backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown FILE_BACKEND %q", c.Store.FileBackend)
	}
	if c.Store.PageSize <= 0 {
		c.Store.PageSize = 8
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
