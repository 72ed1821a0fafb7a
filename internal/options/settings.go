package options

import (
	"strings"

	"github.com/sperrystudios/screenrecorder/internal/config"
	"github.com/sperrystudios/screenrecorder/internal/logging"
)

// Encoder preferences passed to the recorder.
const (
	EncoderH264    = "H264"
	EncoderDefault = "DEFAULT"
)

// Notification describes what the desktop shows while a recording runs.
type Notification struct {
	Icon  []byte // PNG
	Title string
	Text  string
}

// Settings is the full configuration call made to the recorder before a start.
type Settings struct {
	Quality         Quality
	AudioEnabled    bool
	VideoBitrate    int
	AudioBitrate    int
	AudioSampleRate int
	VideoEncoder    string // EncoderH264 or EncoderDefault
	FrameRate       int
	SDHeight        int
	Notification    Notification
	OutputDir       string
}

// EncoderProbe lists the encoder names available on this machine.
type EncoderProbe interface {
	Encoders() ([]string, error)
}

// Build combines a snapshot with the configured defaults.
// The preferred encoder is requested only when one of the probed encoder
// names contains it; otherwise the recorder default is used.
func Build(opts Options, cfg *config.Config, icon []byte, probe EncoderProbe) Settings {
	encoder := EncoderDefault
	if SupportsEncoder(probe, cfg.Recording.PreferredEncoder) {
		encoder = EncoderH264
	}

	return Settings{
		Quality:         opts.Quality,
		AudioEnabled:    opts.AudioEnabled,
		VideoBitrate:    cfg.Recording.VideoBitrate,
		AudioBitrate:    cfg.Recording.AudioBitrate,
		AudioSampleRate: cfg.Recording.AudioSampleRate,
		VideoEncoder:    encoder,
		FrameRate:       cfg.Recording.FrameRate,
		SDHeight:        cfg.Recording.SDHeight,
		Notification: Notification{
			Icon:  icon,
			Title: cfg.Notification.Title,
			Text:  cfg.Notification.Text,
		},
		OutputDir: cfg.OutputDir,
	}
}

// SupportsEncoder reports whether any probed encoder name contains name.
// A failing probe counts as no encoders at all.
func SupportsEncoder(probe EncoderProbe, name string) bool {
	if probe == nil || name == "" {
		return false
	}
	encoders, err := probe.Encoders()
	if err != nil {
		logging.WarningLogger.Printf("Encoder probe failed, using default encoder: %v", err)
		return false
	}
	for _, enc := range encoders {
		if strings.Contains(enc, name) {
			return true
		}
	}
	return false
}
