// Package options turns the user's recording choices into the settings
// handed to the recorder right before each start.
package options

import (
	"fmt"
	"strings"
	"sync"
)

// Quality is the resolution class of a recording.
type Quality int

const (
	HD Quality = iota
	SD
)

func (q Quality) String() string {
	switch q {
	case HD:
		return "HD"
	case SD:
		return "SD"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// ParseQuality accepts "hd" or "sd" in any case.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HD":
		return HD, nil
	case "SD":
		return SD, nil
	}
	return HD, fmt.Errorf("unknown quality %q, expected HD or SD", s)
}

// Options is the snapshot of the user's choices taken when a session starts.
type Options struct {
	Quality      Quality
	AudioEnabled bool
}

// Selection holds the live state of the quality and audio controls.
// It is written by the UI and remote surfaces and only read through Snapshot.
type Selection struct {
	mu           sync.Mutex
	quality      Quality
	audioEnabled bool
}

// NewSelection returns a selection with the app defaults: HD with audio.
func NewSelection() *Selection {
	return &Selection{quality: HD, audioEnabled: true}
}

func (s *Selection) SetQuality(q Quality) {
	s.mu.Lock()
	s.quality = q
	s.mu.Unlock()
}

func (s *Selection) SetAudioEnabled(enabled bool) {
	s.mu.Lock()
	s.audioEnabled = enabled
	s.mu.Unlock()
}

// Snapshot returns an immutable copy of the current choices.
func (s *Selection) Snapshot() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Options{Quality: s.quality, AudioEnabled: s.audioEnabled}
}
