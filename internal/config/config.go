package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		GoogleBooks
		Backend
		RemoteConfig
		Sync
		Encryption
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	GoogleBooks struct {
		BaseURL string
	}
	Backend struct {
		BaseURL string
	}
	RemoteConfig struct {
		BaseURL         string
		RefreshInterval time.Duration
	}
	Sync struct {
		Schedule string // Cron format: "0 3 * * 0" = weekly, Sunday 03:00
	}
	Encryption struct {
		// Key is a base64 encoded 32 byte AES key. When empty, Passphrase
		// is stretched into a key instead.
		Key        string
		Passphrase string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("googlebooks_base_url", "")
	v.SetDefault("backend_base_url", DefaultBackendBaseURL)
	v.SetDefault("remote_config_base_url", DefaultRemoteConfigBaseURL)
	v.SetDefault("remote_config_refresh_interval", "12h")
	v.SetDefault("sync_schedule", DefaultSyncSchedule)
	v.SetDefault("encryption_key", "")
	v.SetDefault("encryption_passphrase", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		GoogleBooks: GoogleBooks{
			BaseURL: v.GetString("GOOGLEBOOKS_BASE_URL"),
		},
		Backend: Backend{
			BaseURL: v.GetString("BACKEND_BASE_URL"),
		},
		RemoteConfig: RemoteConfig{
			BaseURL:         v.GetString("REMOTE_CONFIG_BASE_URL"),
			RefreshInterval: v.GetDuration("REMOTE_CONFIG_REFRESH_INTERVAL"),
		},
		Sync: Sync{
			Schedule: v.GetString("SYNC_SCHEDULE"),
		},
		Encryption: Encryption{
			Key:        v.GetString("ENCRYPTION_KEY"),
			Passphrase: v.GetString("ENCRYPTION_PASSPHRASE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
