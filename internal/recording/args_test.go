package recording

import (
	"strings"
	"testing"

	"github.com/sperrystudios/screenrecorder/internal/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() options.Settings {
	return options.Settings{
		Quality:         options.HD,
		AudioEnabled:    true,
		VideoBitrate:    12000000,
		AudioBitrate:    128000,
		AudioSampleRate: 44100,
		VideoEncoder:    options.EncoderH264,
		FrameRate:       30,
		SDHeight:        480,
		OutputDir:       "/tmp",
	}
}

func argString(args []string) string {
	return strings.Join(args, " ")
}

func TestBuildCaptureArgsLinuxHDWithAudio(t *testing.T) {
	in := captureInput{goos: "linux", display: ":1.0"}
	args, err := buildCaptureArgs(in, testSettings(), "libx264", "/tmp/out.mp4", "error")
	require.NoError(t, err)

	s := argString(args)
	assert.Contains(t, s, "-f x11grab -framerate 30 -i :1.0")
	assert.Contains(t, s, "-f pulse -i default")
	assert.Contains(t, s, "-c:v libx264")
	assert.Contains(t, s, "-b:v 12000000")
	assert.Contains(t, s, "-c:a aac -b:a 128000 -ar 44100")
	assert.NotContains(t, s, "scale=")
	assert.NotContains(t, s, "-an")
	assert.Equal(t, "/tmp/out.mp4", args[len(args)-1])
}

func TestBuildCaptureArgsSDWithoutAudioDefaultEncoder(t *testing.T) {
	s := testSettings()
	s.Quality = options.SD
	s.AudioEnabled = false

	in := captureInput{goos: "linux", display: ":0.0", audioDevice: "mic"}
	args, err := buildCaptureArgs(in, s, "", "/tmp/out.mp4", "error")
	require.NoError(t, err)

	joined := argString(args)
	assert.Contains(t, joined, "-vf scale=-2:480")
	assert.Contains(t, joined, "-an")
	assert.NotContains(t, joined, "-c:v")
	assert.NotContains(t, joined, "pulse")
}

func TestBuildCaptureArgsWindows(t *testing.T) {
	in := captureInput{goos: "windows", audioDevice: "audio=Microphone (USB)"}
	args, err := buildCaptureArgs(in, testSettings(), "h264_nvenc", "C:\\out.mp4", "error")
	require.NoError(t, err)

	joined := argString(args)
	assert.Contains(t, joined, "-f gdigrab -framerate 30 -i desktop")
	assert.Contains(t, joined, "-f dshow -i audio=Microphone (USB)")

	// audio on windows needs a named device
	_, err = buildCaptureArgs(captureInput{goos: "windows"}, testSettings(), "", "out.mp4", "error")
	assert.Error(t, err)
}

func TestBuildCaptureArgsDarwin(t *testing.T) {
	s := testSettings()
	args, err := buildCaptureArgs(captureInput{goos: "darwin"}, s, "", "out.mp4", "error")
	require.NoError(t, err)
	assert.Contains(t, argString(args), "-f avfoundation -framerate 30 -capture_cursor 1 -i 1:0")

	s.AudioEnabled = false
	args, err = buildCaptureArgs(captureInput{goos: "darwin"}, s, "", "out.mp4", "error")
	require.NoError(t, err)
	assert.Contains(t, argString(args), "-i 1:none")
}

func TestBuildCaptureArgsUnsupportedPlatform(t *testing.T) {
	_, err := buildCaptureArgs(captureInput{goos: "plan9"}, testSettings(), "", "out.mp4", "error")
	assert.Error(t, err)
}
