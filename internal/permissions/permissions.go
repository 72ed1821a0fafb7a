// Package permissions guards recording behind the microphone and storage
// grants. Grants are requested one at a time, in order, and a denial ends
// the attempt; the user has to press start again to retry.
package permissions

import (
	"fmt"

	"github.com/sperrystudios/screenrecorder/internal/logging"
)

type Permission int

const (
	Microphone Permission = iota
	Storage
)

// Required lists the grants needed before capture consent is asked for,
// in the order they are requested.
var Required = []Permission{Microphone, Storage}

func (p Permission) String() string {
	switch p {
	case Microphone:
		return "microphone"
	case Storage:
		return "storage"
	default:
		return fmt.Sprintf("Permission(%d)", int(p))
	}
}

// Requester checks and requests individual grants. Request reports the
// user's answer through done, possibly from another goroutine.
type Requester interface {
	Check(Permission) bool
	Request(p Permission, done func(granted bool))
}

type Gate struct {
	requester Requester
}

func NewGate(r Requester) *Gate {
	return &Gate{requester: r}
}

// Ensure calls onReady once every required grant is held. A missing grant is
// requested and the walk resumes from that point when the answer arrives.
// The first denial calls onDenied and nothing else is requested.
func (g *Gate) Ensure(onReady func(), onDenied func(Permission)) {
	g.step(0, onReady, onDenied)
}

func (g *Gate) step(i int, onReady func(), onDenied func(Permission)) {
	for ; i < len(Required); i++ {
		p := Required[i]
		if g.requester.Check(p) {
			continue
		}

		next := i + 1
		logging.InfoLogger.Printf("Requesting %s permission", p)
		g.requester.Request(p, func(granted bool) {
			if !granted {
				logging.WarningLogger.Printf("Permission %s denied", p)
				onDenied(p)
				return
			}
			logging.InfoLogger.Printf("Permission %s granted", p)
			g.step(next, onReady, onDenied)
		})
		return
	}
	onReady()
}
