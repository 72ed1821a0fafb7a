package recording

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/sperrystudios/screenrecorder/internal/logging"
)

// FindFFmpeg returns the configured ffmpeg path, or the one found in PATH.
func FindFFmpeg(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			logging.ErrorLogger.Printf("FFmpeg not found at %s: %v", configured, err)
		}
		return configured
	}

	if path, err := exec.LookPath("ffmpeg"); err == nil {
		logging.InfoLogger.Printf("Found ffmpeg in PATH at: %s", path)
		return path
	}

	logging.ErrorLogger.Printf("Could not find ffmpeg in PATH")
	logging.ErrorLogger.Printf("Please install FFmpeg using your package manager or from https://ffmpeg.org/")
	return "ffmpeg"
}

// openFfmpegLog creates a timestamped log file for one ffmpeg run.
func openFfmpegLog(logDir string) (*os.File, error) {
	logsDir := filepath.Join(logDir, "ffmpeg")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg logs directory: %w", err)
	}
	name := filepath.Join(logsDir, fmt.Sprintf("ffmpeg_%s.log", time.Now().Format("20060102_150405")))
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg log file %s: %w", name, err)
	}
	logging.InfoLogger.Printf("FFmpeg output will be logged to: %s", name)
	return f, nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append([]byte(nil), t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
