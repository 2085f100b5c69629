// Package config resolves taskdeck settings from the config file,
// environment, and defaults, in that order of increasing precedence
// reversed: env beats file beats defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Settings is everything the rest of the program needs to know about
// its environment.
type Settings struct {
	// Token is the API credential. Empty means unauthenticated: remote
	// calls will fail and the cache engine stays inert.
	Token string

	// BaseURL is the API root.
	BaseURL string

	// CacheEnabled gates the local sync engine.
	CacheEnabled bool

	// CacheTTL is how long synced data stays fresh.
	CacheTTL time.Duration

	// CacheDBPath is the cache database file.
	CacheDBPath string

	// LogPath receives the debug log.
	LogPath string
}

// Load reads $XDG_CONFIG_HOME/taskdeck/config.yaml (if present) and the
// TASKDECK_* environment, and returns the merged settings. A missing
// config file is not an error; a malformed one is.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "taskdeck"))
	}

	v.SetEnvPrefix("taskdeck")
	v.AutomaticEnv()
	_ = v.BindEnv("token")
	_ = v.BindEnv("cache.enabled", "TASKDECK_CACHE_ENABLED")
	_ = v.BindEnv("cache.ttl_seconds", "TASKDECK_CACHE_TTL_SECONDS")
	_ = v.BindEnv("cache.db_path", "TASKDECK_CACHE_DB_PATH")
	_ = v.BindEnv("api.base_url", "TASKDECK_API_BASE_URL")

	v.SetDefault("api.base_url", "https://api.taskdeck.io/v1")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.db_path", defaultDBPath())
	v.SetDefault("log.path", defaultLogPath())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Settings{
		Token:        v.GetString("token"),
		BaseURL:      v.GetString("api.base_url"),
		CacheEnabled: v.GetBool("cache.enabled"),
		CacheTTL:     time.Duration(v.GetInt("cache.ttl_seconds")) * time.Second,
		CacheDBPath:  v.GetString("cache.db_path"),
		LogPath:      v.GetString("log.path"),
	}, nil
}

func defaultDBPath() string {
	return filepath.Join(dataDir(), "cache.db")
}

func defaultLogPath() string {
	return filepath.Join(dataDir(), "taskdeck.log")
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "taskdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskdeck"
	}
	return filepath.Join(home, ".local", "share", "taskdeck")
}
