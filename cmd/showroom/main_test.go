package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/config"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/health"
)

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-c", "showroom.yaml", "--log-level", "debug", "--shutdown-timeout", "3s", "--validate"})
	require.NoError(t, err)
	assert.Equal(t, "showroom.yaml", cfg.ConfigPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Validate)
}

func TestValidateFlags(t *testing.T) {
	base := CLIConfig{LogLevel: "info", LogFormat: "json", ShutdownTimeout: time.Second}

	tests := []struct {
		name    string
		mutate  func(*CLIConfig)
		wantErr bool
	}{
		{"defaults", func(*CLIConfig) {}, false},
		{"missing config file", func(c *CLIConfig) { c.ConfigPath = "/nonexistent/showroom.yaml" }, true},
		{"bad level", func(c *CLIConfig) { c.LogLevel = "trace" }, true},
		{"bad format", func(c *CLIConfig) { c.LogFormat = "xml" }, true},
		{"zero timeout", func(c *CLIConfig) { c.ShutdownTimeout = 0 }, true},
		{"version skips checks", func(c *CLIConfig) { c.ShowVersion = true; c.LogLevel = "trace" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := validateFlags(&cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInitializeConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showroom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scene:\n  name: loft\n"), 0o600))
	t.Setenv("SHOWROOM_SCENE_DIR", "/srv/scenes")

	cfg, err := initializeConfiguration(&CLIConfig{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "loft", cfg.Scene.Name)
	assert.Equal(t, "/srv/scenes", cfg.Scene.Dir)

	b := bridgeConfig(cfg)
	assert.Equal(t, cfg.Bridge.Addr, b.Addr)
	assert.Equal(t, cfg.Bridge.CommandTimeout.D(), b.CommandTimeout)
}

func TestInitializeConfigurationDefaults(t *testing.T) {
	cfg, err := initializeConfiguration(&CLIConfig{})
	require.NoError(t, err)
	assert.Equal(t, config.Default().Scene, cfg.Scene)
}

func TestNATSOptions(t *testing.T) {
	cfg := config.Default()
	cfg.NATS.Username = "showroom"
	cfg.NATS.Password = "secret"
	cfg.NATS.TLS.CAFile = "ca.pem"
	monitor := health.NewMonitor(appName)
	assert.Len(t, natsOptions(cfg, setupLogger("info", "json"), monitor), 9)
}
