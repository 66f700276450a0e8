package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env           string `envconfig:"ENV" default:"local"`
	HTTPHost      string `envconfig:"HTTP_HOST" default:""`
	HTTPPort      string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey        string `envconfig:"API_KEY" required:"true"`
	DefaultLocale string `envconfig:"DEFAULT_LOCALE" default:"id"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".taskdesk/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"taskdesk/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-southeast-3"`
	// S3Endpoint targets an S3-compatible service instead of AWS.
	S3Endpoint string `envconfig:"S3_ENDPOINT"`
	// SQLite settings (used when Type == "sqlite")
	SQLitePath string `envconfig:"SQLITE_PATH" default:".taskdesk/taskdesk.sqlite"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:ops@damwatch.local"`
}

// Configured reports whether push delivery can be attempted.
func (e *VAPIDEnv) Configured() bool {
	return e != nil && e.VAPIDPublicKey != "" && e.VAPIDPrivateKey != ""
}

type RetentionEnv struct {
	NotificationTTL        time.Duration `envconfig:"NOTIFICATION_TTL" default:"720h"`
	NotificationMaxPerUser int           `envconfig:"NOTIFICATION_MAX_PER_USER" default:"500"`
	ActivityTTL            time.Duration `envconfig:"ACTIVITY_TTL" default:"2160h"`
	ArchiveAfter           time.Duration `envconfig:"ARCHIVE_AFTER" default:"720h"`
	SweepInterval          time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`
}

type IdentityEnv struct {
	RosterFile string `envconfig:"ROSTER_FILE"`
	// Created at boot when no admin exists yet.
	BootstrapAdminUsername string `envconfig:"BOOTSTRAP_ADMIN_USERNAME" default:"admin"`
	BootstrapAdminName     string `envconfig:"BOOTSTRAP_ADMIN_NAME" default:"Administrator"`
}

type Env struct {
	BaseEnv
	StorageEnv
	VAPIDEnv
	RetentionEnv
	IdentityEnv
}

const namespace = "TASKDESK"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.validate(); err != nil {
		return nil, fmt.Errorf("invalid env: %w", err)
	}
	return &env, nil
}

func (e *Env) validate() error {
	switch e.StorageEnv.Type {
	case "local", "memory", "sqlite":
	case "s3":
		if e.S3Bucket == "" {
			return fmt.Errorf("%s_S3_BUCKET is required for s3 storage", namespace)
		}
	default:
		return fmt.Errorf("unknown %s_STORAGE_TYPE %q", namespace, e.StorageEnv.Type)
	}
	if e.SweepInterval <= 0 {
		return fmt.Errorf("%s_SWEEP_INTERVAL must be positive, got %s", namespace, e.SweepInterval)
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func (e *BaseEnv) Addr() string {
	return e.HTTPHost + ":" + e.HTTPPort
}
