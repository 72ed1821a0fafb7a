package recording

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/sperrystudios/screenrecorder/internal/logging"
	"github.com/sperrystudios/screenrecorder/internal/procutil"
)

// Probe queries ffmpeg for the encoders it was built with.
// The list is fetched once and reused.
type Probe struct {
	ffmpegPath string

	mu       sync.Mutex
	encoders []string
	fetched  bool
}

func NewProbe(ffmpegPath string) *Probe {
	return &Probe{ffmpegPath: ffmpegPath}
}

// Encoders returns the names of all video and audio encoders.
func (p *Probe) Encoders() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fetched {
		return p.encoders, nil
	}

	cmd := procutil.Command(p.ffmpegPath, "-hide_banner", "-encoders")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to query ffmpeg encoders: %w", err)
	}

	p.encoders = parseEncoderList(out.String())
	p.fetched = true
	logging.InfoLogger.Printf("ffmpeg reports %d encoders", len(p.encoders))
	return p.encoders, nil
}

// H264Encoder picks the encoder used when H.264 is requested.
// The software encoder is preferred because it works on every machine;
// otherwise the first h264 encoder found is used.
func (p *Probe) H264Encoder() (string, error) {
	encoders, err := p.Encoders()
	if err != nil {
		return "", err
	}
	return pickH264(encoders), nil
}

// H264Candidates returns every encoder name containing h264.
func (p *Probe) H264Candidates() ([]string, error) {
	encoders, err := p.Encoders()
	if err != nil {
		return nil, err
	}
	var found []string
	for _, name := range encoders {
		if strings.Contains(name, "h264") {
			found = append(found, name)
		}
	}
	return found, nil
}

// VerifyEncoder encodes a tenth of a second of a null source to check that
// an encoder compiled into ffmpeg actually works on this hardware.
func (p *Probe) VerifyEncoder(name string) bool {
	args := []string{"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "nullsrc=s=64x64:d=0.1"}
	if strings.Contains(name, "vaapi") {
		args = append([]string{"-init_hw_device", "vaapi=va:/dev/dri/renderD128"}, args...)
		args = append(args, "-vf", "format=nv12,hwupload")
	}
	args = append(args, "-c:v", name, "-f", "null", "-")

	cmd := procutil.Command(p.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logging.InfoLogger.Printf("Encoder test for %s failed: %v (%s)", name, err, strings.TrimSpace(stderr.String()))
		return false
	}
	return true
}

func pickH264(encoders []string) string {
	var first string
	for _, name := range encoders {
		if name == "libx264" {
			return name
		}
		if first == "" && strings.Contains(name, "h264") {
			first = name
		}
	}
	return first
}

// parseEncoderList reads the output of "ffmpeg -encoders":
//
//	Encoders:
//	 V..... = Video
//	 ...
//	 ------
//	 V....D libx264              libx264 H.264 / AVC ...
func parseEncoderList(output string) []string {
	var names []string
	inList := false
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "------") {
			inList = true
			continue
		}
		if !inList {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		names = append(names, fields[1])
	}
	return names
}
