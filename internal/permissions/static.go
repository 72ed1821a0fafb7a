package permissions

import "github.com/sperrystudios/screenrecorder/internal/logging"

// StaticRequester answers from fixed grants, for runs without a window.
// A storage grant only holds while OutputDir is writable.
type StaticRequester struct {
	Microphone bool
	Storage    bool
	OutputDir  string
}

func (r StaticRequester) Check(p Permission) bool {
	switch p {
	case Microphone:
		return r.Microphone
	case Storage:
		if !r.Storage {
			return false
		}
		if err := CheckWritable(r.OutputDir); err != nil {
			logging.ErrorLogger.Printf("Storage permission unusable: %v", err)
			return false
		}
		return true
	}
	return false
}

// Request cannot ask anyone, so it reports the configured answer.
func (r StaticRequester) Request(p Permission, done func(bool)) {
	done(r.Check(p))
}
