package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("TASKDESK_API_KEY", "secret")
	t.Setenv("TASKDESK_STORAGE_TYPE", "sqlite")
	t.Setenv("TASKDESK_NOTIFICATION_TTL", "48h")
	t.Setenv("TASKDESK_LOG_LEVEL", "warn")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "secret", env.APIKey)
	assert.Equal(t, "sqlite", env.StorageEnv.Type)
	assert.Equal(t, 48*time.Hour, env.NotificationTTL)
	assert.Equal(t, 500, env.NotificationMaxPerUser)
	assert.Equal(t, "id", env.DefaultLocale)
	assert.Equal(t, slog.LevelWarn, env.SlogLevel())
	assert.Equal(t, ":3200", env.Addr())
	assert.False(t, env.VAPIDEnv.Configured())
}

func TestLoadEnv_RequiresAPIKey(t *testing.T) {
	t.Setenv("TASKDESK_API_KEY", "placeholder")
	require.NoError(t, os.Unsetenv("TASKDESK_API_KEY"))
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestLoadEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown storage type",
			env:     map[string]string{"TASKDESK_STORAGE_TYPE": "postgres"},
			wantErr: `unknown TASKDESK_STORAGE_TYPE "postgres"`,
		},
		{
			name:    "s3 without bucket",
			env:     map[string]string{"TASKDESK_STORAGE_TYPE": "s3"},
			wantErr: "TASKDESK_S3_BUCKET is required",
		},
		{
			name:    "zero sweep interval",
			env:     map[string]string{"TASKDESK_SWEEP_INTERVAL": "0s"},
			wantErr: "TASKDESK_SWEEP_INTERVAL must be positive",
		},
		{
			name:    "negative sweep interval",
			env:     map[string]string{"TASKDESK_SWEEP_INTERVAL": "-5m"},
			wantErr: "TASKDESK_SWEEP_INTERVAL must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TASKDESK_API_KEY", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnv_S3WithBucket(t *testing.T) {
	t.Setenv("TASKDESK_API_KEY", "secret")
	t.Setenv("TASKDESK_STORAGE_TYPE", "s3")
	t.Setenv("TASKDESK_S3_BUCKET", "dam-records")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "dam-records", env.S3Bucket)
	assert.Equal(t, time.Hour, env.SweepInterval)
}
