package recording

import (
	"fmt"
	"os"

	"github.com/sperrystudios/screenrecorder/internal/options"
)

// captureInput names the platform grabbers and their default sources.
type captureInput struct {
	goos        string
	display     string
	audioDevice string
}

// inputArgs returns the grabber arguments for the screen and, when
// enabled, the microphone.
func (in captureInput) inputArgs(s options.Settings) ([]string, error) {
	fps := fmt.Sprintf("%d", s.FrameRate)

	switch in.goos {
	case "linux":
		display := in.display
		if display == "" {
			display = os.Getenv("DISPLAY")
		}
		if display == "" {
			display = ":0.0"
		}
		args := []string{"-f", "x11grab", "-framerate", fps, "-i", display}
		if s.AudioEnabled {
			device := in.audioDevice
			if device == "" {
				device = "default"
			}
			args = append(args, "-f", "pulse", "-i", device)
		}
		return args, nil

	case "windows":
		display := in.display
		if display == "" {
			display = "desktop"
		}
		args := []string{"-f", "gdigrab", "-framerate", fps, "-i", display}
		if s.AudioEnabled {
			if in.audioDevice == "" {
				return nil, fmt.Errorf("recording.audioDevice must name a dshow device on windows, e.g. \"audio=Microphone\"")
			}
			args = append(args, "-f", "dshow", "-i", in.audioDevice)
		}
		return args, nil

	case "darwin":
		screen := in.display
		if screen == "" {
			screen = "1"
		}
		audio := "none"
		if s.AudioEnabled {
			audio = in.audioDevice
			if audio == "" {
				audio = "0"
			}
		}
		return []string{"-f", "avfoundation", "-framerate", fps, "-capture_cursor", "1",
			"-i", fmt.Sprintf("%s:%s", screen, audio)}, nil
	}

	return nil, fmt.Errorf("screen capture is not supported on %s", in.goos)
}

// buildCaptureArgs builds the complete ffmpeg command line for one session.
// encoder is the concrete ffmpeg encoder name, or empty for ffmpeg's default.
func buildCaptureArgs(in captureInput, s options.Settings, encoder, fileName, loglevel string) ([]string, error) {
	input, err := in.inputArgs(s)
	if err != nil {
		return nil, err
	}

	args := []string{"-hide_banner", "-loglevel", loglevel, "-y"}
	args = append(args, input...)

	if encoder != "" {
		args = append(args, "-c:v", encoder)
	}
	args = append(args,
		"-b:v", fmt.Sprintf("%d", s.VideoBitrate),
		"-pix_fmt", "yuv420p",
	)
	if s.Quality == options.SD {
		args = append(args, "-vf", fmt.Sprintf("scale=-2:%d", s.SDHeight))
	}

	if s.AudioEnabled {
		args = append(args,
			"-c:a", "aac",
			"-b:a", fmt.Sprintf("%d", s.AudioBitrate),
			"-ar", fmt.Sprintf("%d", s.AudioSampleRate),
		)
	} else {
		args = append(args, "-an")
	}

	args = append(args, "-movflags", "+faststart", fileName)
	return args, nil
}
