package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jfeld/taskdeck/internal/api"
	"github.com/jfeld/taskdeck/internal/cache"
	"github.com/jfeld/taskdeck/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "td",
	Short: "taskdeck command-line client",
	Long: `td is a command-line client for the taskdeck task service.

Reads are served from a local cache database kept fresh with incremental
delta syncs; when the service is unreachable the last synced data is
served instead. Writes go straight to the service.`,
	SilenceUsage: true,
}

// app bundles the per-process collaborators the commands share.
type app struct {
	settings *config.Settings
	client   *api.Client
	engine   *cache.Engine
}

// setup loads settings and wires the API client and cache engine.
// Engine diagnostics go to a rotating debug log, not the terminal: the
// cache is supposed to be invisible when it works.
func setup() (*app, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := log.New(&lumberjack.Logger{
		Filename:   settings.LogPath,
		MaxSize:    5, // megabytes
		MaxBackups: 2,
	}, "[cache] ", log.LstdFlags)

	client := api.New(settings.BaseURL, settings.Token)
	engine := cache.New(cache.Config{
		Enabled: settings.CacheEnabled,
		DBPath:  settings.CacheDBPath,
		TTL:     settings.CacheTTL,
		Token:   settings.Token,
		Fetcher: client,
		Logger:  logger,
	})

	return &app{settings: settings, client: client, engine: engine}, nil
}

// requireToken fails early for commands that cannot work without a
// credential.
func (a *app) requireToken() error {
	if a.settings.Token == "" {
		return fmt.Errorf("no API token configured (set TASKDECK_TOKEN or token in config.yaml)")
	}
	return nil
}
