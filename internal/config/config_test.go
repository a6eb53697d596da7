package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://postgres:@localhost:5432/property_engine?sslmode=disable", cfg.Database.DSN())
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 5*time.Minute, cfg.Cache.BookedRangesTTL)
	assert.Equal(t, time.Hour, cfg.Cache.CalculationTTL)
	assert.Equal(t, "0 0 9 * * *", cfg.Scheduler.ReviewSweepCron)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Health.Timeout)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_DRIVER", "MEMORY")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("CACHE_BOOKED_RANGES_TTL", "30s")
	t.Setenv("SCHEDULER_TIMEZONE", "Africa/Johannesburg")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.Database.DSN())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, 30*time.Second, cfg.Cache.BookedRangesTTL)
	assert.Equal(t, "Africa/Johannesburg", cfg.Location().String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			env:     map[string]string{"JWT_SECRET": ""},
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"JWT_SECRET": "s", "DATABASE_DRIVER": "mysql"},
			wantErr: "DATABASE_DRIVER",
		},
		{
			name:    "bad cron",
			env:     map[string]string{"JWT_SECRET": "s", "SCHEDULER_REVIEW_SWEEP_CRON": "every day"},
			wantErr: "SCHEDULER_REVIEW_SWEEP_CRON",
		},
		{
			name:    "bad timezone",
			env:     map[string]string{"JWT_SECRET": "s", "SCHEDULER_TIMEZONE": "Mars/Olympus"},
			wantErr: "SCHEDULER_TIMEZONE",
		},
		{
			name:    "zero cache ttl",
			env:     map[string]string{"JWT_SECRET": "s", "CACHE_CALCULATION_TTL": "0s"},
			wantErr: "cache TTLs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
