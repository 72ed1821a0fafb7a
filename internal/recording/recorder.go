package recording

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sperrystudios/screenrecorder/internal/consent"
	"github.com/sperrystudios/screenrecorder/internal/logging"
	"github.com/sperrystudios/screenrecorder/internal/options"
	"github.com/sperrystudios/screenrecorder/internal/procutil"
)

// Notifier shows the desktop notification while a recording runs.
type Notifier interface {
	Notify(options.Notification)
}

type Config struct {
	FfmpegPath  string
	LogFfmpeg   bool
	LogDir      string
	NoVideo     bool // log the command, do not run ffmpeg
	Display     string
	AudioDevice string
	StopTimeout time.Duration
	Notifier    Notifier
	Probe       *Probe
}

// FFmpegRecorder captures the screen by running one ffmpeg process per
// session. Completion and failures are delivered on Results.
type FFmpegRecorder struct {
	cfg   Config
	input captureInput

	mu        sync.Mutex
	settings  *options.Settings
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	fileName  string
	session   string
	busy      bool
	stopping  bool
	stopTimer *time.Timer

	results chan Result
}

func New(cfg Config) *FFmpegRecorder {
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 10 * time.Second
	}
	if cfg.Probe == nil {
		cfg.Probe = NewProbe(cfg.FfmpegPath)
	}
	return &FFmpegRecorder{
		cfg: cfg,
		input: captureInput{
			goos:        runtime.GOOS,
			display:     cfg.Display,
			audioDevice: cfg.AudioDevice,
		},
		results: make(chan Result, 4),
	}
}

// Configure stores the settings used by the next Start.
func (r *FFmpegRecorder) Configure(s options.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return ErrBusy
	}
	r.settings = &s
	logging.Trace("Recorder configured: quality=%s audio=%v encoder=%s", s.Quality, s.AudioEnabled, s.VideoEncoder)
	return nil
}

// Start launches ffmpeg for a new session. The output file name is chosen here.
func (r *FFmpegRecorder) Start(token consent.Token) error {
	if !token.Valid() {
		return fmt.Errorf("invalid capture consent token")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy {
		return ErrBusy
	}
	if r.settings == nil {
		return ErrNotConfigured
	}
	s := *r.settings

	if err := os.MkdirAll(s.OutputDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	fileName := nextFileName(s.OutputDir, time.Now(), r.fileName)

	encoder := ""
	if s.VideoEncoder == options.EncoderH264 {
		name, err := r.cfg.Probe.H264Encoder()
		if err != nil {
			logging.WarningLogger.Printf("H.264 requested but encoders could not be listed, using ffmpeg default: %v", err)
		}
		encoder = name
	}

	loglevel := "error"
	if r.cfg.LogFfmpeg {
		loglevel = "info"
	}
	args, err := buildCaptureArgs(r.input, s, encoder, fileName, loglevel)
	if err != nil {
		return err
	}

	if r.cfg.NoVideo {
		logging.InfoLogger.Printf("Simulating start recording: %s %s", r.cfg.FfmpegPath, strings.Join(args, " "))
		r.busy = true
		r.fileName = fileName
		r.session = token.ID
		logging.InfoLogger.Printf("Recording session %s started (simulated)", token.ID)
		return nil
	}

	cmd := procutil.Command(r.cfg.FfmpegPath, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	tail := newTailBuffer(4096)
	var logFile *os.File
	if r.cfg.LogFfmpeg {
		if f, err := openFfmpegLog(r.cfg.LogDir); err != nil {
			logging.ErrorLogger.Printf("%v", err)
		} else {
			logFile = f
		}
	}
	if logFile != nil {
		cmd.Stderr = io.MultiWriter(tail, logFile)
		cmd.Stdout = logFile
	} else {
		cmd.Stderr = tail
		cmd.Stdout = io.Discard
	}

	logging.InfoLogger.Printf("Executing command: %s", cmd.String())
	if err := cmd.Start(); err != nil {
		stdin.Close()
		if logFile != nil {
			logFile.Close()
		}
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	if err := procutil.Assign(cmd); err != nil {
		logging.WarningLogger.Printf("Could not attach ffmpeg to job object: %v", err)
	}

	r.cmd = cmd
	r.stdin = stdin
	r.fileName = fileName
	r.session = token.ID
	r.busy = true
	r.stopping = false

	go r.wait(cmd, token.ID, fileName, tail, logFile)

	if r.cfg.Notifier != nil {
		r.cfg.Notifier.Notify(s.Notification)
	}
	logging.InfoLogger.Printf("Recording session %s started: %s", token.ID, fileName)
	return nil
}

// Stop asks ffmpeg to finish the file. It returns at once; the outcome
// arrives on Results. ffmpeg is killed if it has not exited after StopTimeout.
func (r *FFmpegRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.busy {
		return ErrNotRecording
	}

	if r.cfg.NoVideo {
		logging.InfoLogger.Printf("Simulating stop recording: %s", r.fileName)
		result := Completed(r.fileName)
		result.Session = r.session
		r.deliver(result)
		return nil
	}

	if r.stopping {
		return nil
	}
	r.stopping = true

	logging.InfoLogger.Println("Attempting to stop ffmpeg gracefully...")
	if _, err := r.stdin.Write([]byte("q\n")); err != nil {
		logging.InfoLogger.Printf("Could not write 'q' to ffmpeg (this is normal if process exited): %v", err)
	}
	if err := r.stdin.Close(); err != nil {
		logging.InfoLogger.Printf("Could not close ffmpeg stdin (this is normal if process exited): %v", err)
	}

	cmd := r.cmd
	r.stopTimer = time.AfterFunc(r.cfg.StopTimeout, func() {
		logging.WarningLogger.Printf("ffmpeg did not stop within %s, killing it", r.cfg.StopTimeout)
		if err := procutil.ForceKill(cmd); err != nil {
			logging.ErrorLogger.Printf("Failed to kill ffmpeg: %v", err)
		}
	})
	return nil
}

// IsBusy reports whether a session is running or still being finalized.
func (r *FFmpegRecorder) IsBusy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

func (r *FFmpegRecorder) Results() <-chan Result {
	return r.results
}

// wait reaps ffmpeg and reports how the session ended.
func (r *FFmpegRecorder) wait(cmd *exec.Cmd, session, fileName string, stderr *tailBuffer, logFile *os.File) {
	err := cmd.Wait()
	if logFile != nil {
		logFile.Close()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopTimer != nil {
		r.stopTimer.Stop()
		r.stopTimer = nil
	}

	var result Result
	switch {
	case err == nil:
		logging.InfoLogger.Printf("ffmpeg stopped gracefully, saved %s", fileName)
		result = Completed(fileName)
	case r.stopping && fileHasContent(fileName):
		// ffmpeg exits non-zero when it is interrupted but the file is usable
		logging.InfoLogger.Printf("ffmpeg exited with error while stopping (this is normal): %v", err)
		result = Completed(fileName)
	default:
		exitCode := CodeGeneric
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			exitCode = exitErr.ExitCode()
		}
		recErr := classifyFailure(stderr.String(), exitCode)
		logging.ErrorLogger.Printf("ffmpeg failed: %v", recErr)
		result = Failed(recErr)
	}
	result.Session = session

	r.cmd = nil
	r.stdin = nil
	r.deliver(result)
}

// deliver queues the result and marks the recorder idle. r.mu must be held,
// so nobody sees the recorder idle before its result is on the channel.
func (r *FFmpegRecorder) deliver(result Result) {
	r.results <- result
	r.busy = false
	r.stopping = false
}

// nextFileName names a new recording after the current time. A suffix is
// added when the name is taken, or was used by the previous session.
func nextFileName(dir string, now time.Time, previous string) string {
	base := "ScreenRecord_" + now.Format("2006-01-02_15-04-05")
	name := filepath.Join(dir, base+".mp4")
	for i := 1; name == previous || fileExists(name); i++ {
		name = filepath.Join(dir, fmt.Sprintf("%s_%d.mp4", base, i))
	}
	return name
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func fileHasContent(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
