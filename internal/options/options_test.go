package options

import (
	"errors"
	"testing"

	"github.com/sperrystudios/screenrecorder/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProbe struct {
	names []string
	err   error
	calls int
}

func (p *stubProbe) Encoders() ([]string, error) {
	p.calls++
	return p.names, p.err
}

func TestParseQuality(t *testing.T) {
	q, err := ParseQuality("hd")
	require.NoError(t, err)
	assert.Equal(t, HD, q)

	q, err = ParseQuality(" SD ")
	require.NoError(t, err)
	assert.Equal(t, SD, q)

	_, err = ParseQuality("4k")
	assert.Error(t, err)

	assert.Equal(t, "HD", HD.String())
	assert.Equal(t, "SD", SD.String())
}

func TestSelectionSnapshotIsIndependent(t *testing.T) {
	sel := NewSelection()
	first := sel.Snapshot()
	assert.Equal(t, Options{Quality: HD, AudioEnabled: true}, first)

	sel.SetQuality(SD)
	sel.SetAudioEnabled(false)

	assert.Equal(t, Options{Quality: HD, AudioEnabled: true}, first)
	assert.Equal(t, Options{Quality: SD, AudioEnabled: false}, sel.Snapshot())
}

func TestBuildUsesDefaultsAndSnapshot(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = "/tmp/out"
	icon := []byte{0x89, 'P', 'N', 'G'}
	probe := &stubProbe{names: []string{"libx264", "h264_vaapi", "mpeg4"}}

	s := Build(Options{Quality: SD, AudioEnabled: false}, &cfg, icon, probe)

	assert.Equal(t, SD, s.Quality)
	assert.False(t, s.AudioEnabled)
	assert.Equal(t, 12000000, s.VideoBitrate)
	assert.Equal(t, 128000, s.AudioBitrate)
	assert.Equal(t, 44100, s.AudioSampleRate)
	assert.Equal(t, EncoderH264, s.VideoEncoder)
	assert.Equal(t, "/tmp/out", s.OutputDir)
	assert.Equal(t, icon, s.Notification.Icon)
	assert.Equal(t, "Recording your screen", s.Notification.Title)
	assert.Equal(t, 1, probe.calls)
}

func TestBuildFallsBackToDefaultEncoder(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name  string
		probe EncoderProbe
	}{
		{"no matching encoder", &stubProbe{names: []string{"mpeg4", "libvpx"}}},
		{"probe error", &stubProbe{err: errors.New("ffmpeg missing")}},
		{"no probe", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Build(Options{Quality: HD, AudioEnabled: true}, &cfg, nil, tt.probe)
			assert.Equal(t, EncoderDefault, s.VideoEncoder)
		})
	}
}
