package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Port, cfg.Port)
	assert.Equal(t, 12000000, cfg.Recording.VideoBitrate)
	assert.Equal(t, 128000, cfg.Recording.AudioBitrate)
	assert.Equal(t, 44100, cfg.Recording.AudioSampleRate)
	assert.Equal(t, "h264", cfg.Recording.PreferredEncoder)
	assert.Equal(t, filepath.Join("Movies", AppFolder), filepath.Join(filepath.Base(filepath.Dir(cfg.OutputDir)), filepath.Base(cfg.OutputDir)))
}

func TestLoadOverridesFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
port = 9000
outputDir = "/tmp/recs"

[recording]
    videoBitrate = 4000000
    preferredEncoder = "hevc"

[mqtt]
    broker = "tcp://file:1883"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("SCREENREC_MQTT_BROKER", "tcp://env:1883")
	t.Setenv("SCREENREC_OUTPUT_DIR", "/tmp/env-recs")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/tmp/env-recs", cfg.OutputDir)
	assert.Equal(t, 4000000, cfg.Recording.VideoBitrate)
	assert.Equal(t, "hevc", cfg.Recording.PreferredEncoder)
	// untouched keys keep their defaults
	assert.Equal(t, 44100, cfg.Recording.AudioSampleRate)
	assert.Equal(t, "tcp://env:1883", cfg.MQTT.Broker)
}

func TestLoadRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = [oops"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"output dir", func(c *Config) { c.OutputDir = "" }},
		{"video bitrate", func(c *Config) { c.Recording.VideoBitrate = -1 }},
		{"audio bitrate", func(c *Config) { c.Recording.AudioBitrate = 0 }},
		{"sample rate", func(c *Config) { c.Recording.AudioSampleRate = 0 }},
		{"frame rate", func(c *Config) { c.Recording.FrameRate = 0 }},
		{"odd sd height", func(c *Config) { c.Recording.SDHeight = 481 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestExtractDefaultConfigDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	require.NoError(t, ExtractDefaultConfig(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8092, cfg.Port)
	assert.Equal(t, "screenrecorder", cfg.MQTT.TopicPrefix)
	assert.True(t, cfg.Library.Watch)

	// a second call leaves the existing file alone
	require.NoError(t, os.WriteFile(path, []byte("port = 9100\n"), 0644))
	require.NoError(t, ExtractDefaultConfig(path))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "videos"), expandTilde("~/videos"))
	assert.Equal(t, "/abs/path", expandTilde("/abs/path"))
}
