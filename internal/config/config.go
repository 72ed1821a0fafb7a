package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sperrystudios/screenrecorder/internal/logging"
)

// AppFolder is the folder created under the user's Movies directory.
const AppFolder = "ScreenRecorder"

type Config struct {
	Port       int    `toml:"port"`
	OutputDir  string `toml:"outputDir"`
	FfmpegPath string `toml:"ffmpegPath"`
	LogFfmpeg  bool   `toml:"logFfmpeg"`
	NoVideo    bool   `toml:"noVideo"` // log ffmpeg commands without running them

	Recording    RecordingConfig    `toml:"recording"`
	Notification NotificationConfig `toml:"notification"`
	Permissions  PermissionsConfig  `toml:"permissions"`
	Library      LibraryConfig      `toml:"library"`
	MQTT         MQTTConfig         `toml:"mqtt"`
}

type RecordingConfig struct {
	VideoBitrate       int    `toml:"videoBitrate"`    // bits per second
	AudioBitrate       int    `toml:"audioBitrate"`    // bits per second
	AudioSampleRate    int    `toml:"audioSampleRate"` // Hz
	PreferredEncoder   string `toml:"preferredEncoder"`
	FrameRate          int    `toml:"frameRate"`
	SDHeight           int    `toml:"sdHeight"`
	Display            string `toml:"display"`     // capture input override
	AudioDevice        string `toml:"audioDevice"` // audio input override
	StopTimeoutSeconds int    `toml:"stopTimeoutSeconds"`
}

type NotificationConfig struct {
	Title string `toml:"title"`
	Text  string `toml:"text"`
}

// PermissionsConfig holds the grants used when no dialog can be shown.
type PermissionsConfig struct {
	Microphone  bool `toml:"microphone"`
	Storage     bool `toml:"storage"`
	AutoConsent bool `toml:"autoConsent"`
}

type LibraryConfig struct {
	RescanCommand string `toml:"rescanCommand"` // {path} is replaced by the recording path
	Watch         bool   `toml:"watch"`
}

type MQTTConfig struct {
	Broker      string `toml:"broker"`
	TopicPrefix string `toml:"topicPrefix"`
	ClientID    string `toml:"clientId"`
}

// Default returns the configuration used when no config.toml exists.
func Default() Config {
	return Config{
		Port:      8092,
		OutputDir: DefaultOutputDir(),
		Recording: RecordingConfig{
			VideoBitrate:       12000000,
			AudioBitrate:       128000,
			AudioSampleRate:    44100,
			PreferredEncoder:   "h264",
			FrameRate:          30,
			SDHeight:           480,
			StopTimeoutSeconds: 10,
		},
		Notification: NotificationConfig{
			Title: "Recording your screen",
			Text:  "Use the window or screenrecctl to stop the recording",
		},
		Library: LibraryConfig{
			Watch: true,
		},
		MQTT: MQTTConfig{
			TopicPrefix: "screenrecorder",
		},
	}
}

// Load reads the configuration file at path on top of the defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		logging.InfoLogger.Printf("Loaded configuration from %s", path)
	} else {
		logging.WarningLogger.Printf("%s not found, using default configuration", path)
	}

	applyEnvOverrides(&cfg)
	cfg.OutputDir = expandTilde(cfg.OutputDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCREENREC_FFMPEG_PATH"); v != "" {
		cfg.FfmpegPath = v
	}
	if v := os.Getenv("SCREENREC_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("SCREENREC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		} else {
			logging.WarningLogger.Printf("Ignoring SCREENREC_PORT=%q: %v", v, err)
		}
	}
	if v := os.Getenv("SCREENREC_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
}

// Validate reports configuration values the recorder cannot work with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("outputDir must not be empty")
	}
	if c.Recording.VideoBitrate <= 0 {
		return fmt.Errorf("invalid videoBitrate %d", c.Recording.VideoBitrate)
	}
	if c.Recording.AudioBitrate <= 0 {
		return fmt.Errorf("invalid audioBitrate %d", c.Recording.AudioBitrate)
	}
	if c.Recording.AudioSampleRate <= 0 {
		return fmt.Errorf("invalid audioSampleRate %d", c.Recording.AudioSampleRate)
	}
	if c.Recording.FrameRate <= 0 {
		return fmt.Errorf("invalid frameRate %d", c.Recording.FrameRate)
	}
	if c.Recording.SDHeight <= 0 || c.Recording.SDHeight%2 != 0 {
		return fmt.Errorf("sdHeight must be a positive even number, got %d", c.Recording.SDHeight)
	}
	return nil
}

// GetInstallDir returns the per-user directory holding config.toml,
// the permission grants and the logs.
func GetInstallDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "screenrecorder")
	}
	return filepath.Join(".", "screenrecorder")
}

// ConfigFilePath returns the location of config.toml in the install directory.
func ConfigFilePath() string {
	return filepath.Join(GetInstallDir(), "config.toml")
}

// DefaultOutputDir returns the public Movies/<AppFolder> directory.
func DefaultOutputDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Movies", AppFolder)
	}
	return filepath.Join(".", "Movies", AppFolder)
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
