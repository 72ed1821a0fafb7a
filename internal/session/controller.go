// Package session runs the start/stop state machine. Every input, whether a
// button press, a permission answer, a consent answer or a recorder result,
// is posted to a single loop goroutine which alone changes session state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sperrystudios/screenrecorder/internal/consent"
	"github.com/sperrystudios/screenrecorder/internal/logging"
	"github.com/sperrystudios/screenrecorder/internal/options"
	"github.com/sperrystudios/screenrecorder/internal/permissions"
	"github.com/sperrystudios/screenrecorder/internal/recording"
	"github.com/sperrystudios/screenrecorder/internal/status"
)

// adoptedSession stands for a session started before this controller existed.
const adoptedSession = "*"

const (
	LabelStart = "Start Recording"
	LabelStop  = "Stop Recording"

	MsgSaved          = "Saved successfully"
	MsgConsentDenied  = "Screen capture was not allowed"
	MsgUnsupported    = "Some settings are not supported by your device"
	MsgFailed         = "Recording failed - see log"
	MsgStillFinishing = "Still saving the previous recording, try again in a moment"
)

// Recorder is the external capture engine.
type Recorder interface {
	Configure(options.Settings) error
	Start(consent.Token) error
	Stop() error
	IsBusy() bool
	Results() <-chan recording.Result
}

// View is what the controller shows the user.
type View interface {
	SetButtonLabel(string)
	ShowMessage(string)
	// ShowOptions is called after the selection changed, whoever changed it.
	ShowOptions(options.Options)
}

// MediaIndex is told about every finished recording.
type MediaIndex interface {
	Rescan(path string)
}

type State int

const (
	Idle State = iota
	AwaitingConsent
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingConsent:
		return "awaiting-consent"
	case Recording:
		return "recording"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Deps struct {
	Recorder  Recorder
	Gate      *permissions.Gate
	Prompter  consent.Prompter
	Selection *options.Selection
	// Settings expands the options snapshot into recorder settings.
	Settings func(options.Options) options.Settings
	View     View
	Index    MediaIndex
	Status   *status.Hub
}

type Controller struct {
	d      Deps
	events chan func()
	done   chan struct{}

	// written only by the loop
	state     State
	attempt   string // id of the start attempt in flight, empty when none
	current   string // session being recorded
	finishing string // stopped session whose result has not arrived yet

	mu    sync.Mutex
	snap  State
	label string
}

func NewController(d Deps) *Controller {
	if d.View == nil {
		d.View = LogView{}
	}
	if d.Status == nil {
		d.Status = status.NewHub()
	}
	if d.Selection == nil {
		d.Selection = options.NewSelection()
	}

	c := &Controller{
		d:      d,
		events: make(chan func(), 64),
		done:   make(chan struct{}),
	}

	// a session left running by an earlier controller is adopted
	if d.Recorder.IsBusy() {
		logging.InfoLogger.Println("Recorder already busy, resuming in recording state")
		c.current = adoptedSession
		c.setState(Recording)
		d.Status.Send(status.Recording, "Recording", "")
	} else {
		c.setState(Idle)
	}
	return c
}

// Run processes events until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	results := c.d.Recorder.Results()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-c.events:
			fn()
		case res := <-results:
			c.handleResult(res)
		}
	}
}

func (c *Controller) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
		logging.WarningLogger.Println("Session controller stopped, event dropped")
	}
}

// Toggle is the start/stop button.
func (c *Controller) Toggle() {
	c.post(c.toggle)
}

// SetQuality and SetAudioEnabled change the selection used by the next start.
func (c *Controller) SetQuality(q options.Quality) {
	c.d.Selection.SetQuality(q)
	logging.InfoLogger.Printf("Quality set to %s", q)
	c.post(c.showOptions)
}

func (c *Controller) SetAudioEnabled(enabled bool) {
	c.d.Selection.SetAudioEnabled(enabled)
	logging.InfoLogger.Printf("Audio recording enabled: %v", enabled)
	c.post(c.showOptions)
}

func (c *Controller) showOptions() {
	c.d.View.ShowOptions(c.d.Selection.Snapshot())
}

func (c *Controller) Options() options.Options {
	return c.d.Selection.Snapshot()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *Controller) Label() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.label
}

func (c *Controller) Status() status.Message {
	return c.d.Status.Last()
}

func (c *Controller) setState(s State) {
	c.state = s
	label := LabelStart
	if s == Recording {
		label = LabelStop
	}

	c.mu.Lock()
	c.snap = s
	changed := c.label != label
	c.label = label
	c.mu.Unlock()

	if changed {
		c.d.View.SetButtonLabel(label)
	}
}

func (c *Controller) toggle() {
	switch c.state {
	case Recording:
		c.stop()
	case AwaitingConsent:
		logging.Trace("Toggle ignored while waiting for capture consent")
	case Idle:
		if c.attempt != "" {
			logging.Trace("Toggle ignored while permissions are being requested")
			return
		}
		if c.finishing != "" || c.d.Recorder.IsBusy() {
			c.d.View.ShowMessage(MsgStillFinishing)
			return
		}
		c.begin()
	}
}

func (c *Controller) begin() {
	id := uuid.NewString()
	c.attempt = id
	logging.InfoLogger.Printf("Start requested (attempt %s)", id)
	c.d.Status.Send(status.Consent, "Waiting for permissions", "")

	c.d.Gate.Ensure(
		func() { c.post(func() { c.permissionsReady(id) }) },
		func(p permissions.Permission) { c.post(func() { c.permissionDenied(id, p) }) },
	)
}

func (c *Controller) permissionDenied(id string, p permissions.Permission) {
	if id != c.attempt {
		return
	}
	c.attempt = ""
	msg := fmt.Sprintf("No permission for %s", p)
	c.d.View.ShowMessage(msg)
	c.d.Status.Send(status.Idle, msg, "")
}

func (c *Controller) permissionsReady(id string) {
	if id != c.attempt || c.state != Idle {
		return
	}
	c.setState(AwaitingConsent)
	c.d.Status.Send(status.Consent, "Waiting for screen capture consent", "")

	c.d.Prompter.Request(func(token consent.Token, err error) {
		c.post(func() { c.consentAnswered(id, token, err) })
	})
}

func (c *Controller) consentAnswered(id string, token consent.Token, err error) {
	if id != c.attempt || c.state != AwaitingConsent {
		return
	}
	c.attempt = ""

	if err != nil || !token.Valid() {
		if err != nil && !errors.Is(err, consent.ErrDenied) {
			logging.ErrorLogger.Printf("Capture consent failed: %v", err)
		}
		c.setState(Idle)
		c.d.View.ShowMessage(MsgConsentDenied)
		c.d.Status.Send(status.Idle, MsgConsentDenied, "")
		return
	}

	opts := c.d.Selection.Snapshot()
	settings := c.d.Settings(opts)
	logging.InfoLogger.Printf("Starting session %s: quality=%s audio=%v encoder=%s",
		token.ID, opts.Quality, opts.AudioEnabled, settings.VideoEncoder)

	if err := c.d.Recorder.Configure(settings); err != nil {
		c.startFailed(fmt.Errorf("configure recorder: %w", err))
		return
	}
	if err := c.d.Recorder.Start(token); err != nil {
		c.startFailed(fmt.Errorf("start recorder: %w", err))
		return
	}

	c.current = token.ID
	c.setState(Recording)
	c.d.Status.Send(status.Recording, "Recording", "")
}

func (c *Controller) startFailed(err error) {
	logging.ErrorLogger.Printf("Recording could not start: %v", err)
	c.setState(Idle)
	c.d.View.ShowMessage(MsgFailed)
	c.d.Status.Send(status.Error, MsgFailed, "")
}

func (c *Controller) stop() {
	c.finishing, c.current = c.current, ""
	c.setState(Idle)
	c.d.Status.Send(status.Idle, "Saving recording", "")
	if err := c.d.Recorder.Stop(); err != nil {
		logging.WarningLogger.Printf("Stop: %v", err)
	}
}

func sameSession(want, got string) bool {
	return want != "" && (want == adoptedSession || want == got)
}

// handleResult reports how a session ended. Results of sessions the
// controller is not waiting for are dropped, so a late result can never end
// a newer recording.
func (c *Controller) handleResult(res recording.Result) {
	switch {
	case sameSession(c.finishing, res.Session):
		c.finishing = ""
	case c.state == Recording && sameSession(c.current, res.Session):
		c.current = ""
		c.setState(Idle)
	default:
		logging.WarningLogger.Printf("Dropping result of unknown session %q", res.Session)
		return
	}

	if res.OK() {
		logging.InfoLogger.Printf("Recording saved: %s", res.Path)
		c.d.View.ShowMessage(MsgSaved)
		c.d.Status.Send(status.Saved, MsgSaved, res.Path)
		if c.d.Index != nil {
			go c.d.Index.Rescan(res.Path)
		}
		return
	}

	logging.ErrorLogger.Printf("Recording failed: %v", res.Err)
	msg := MsgFailed
	if res.Err.Unsupported() {
		msg = MsgUnsupported
	}
	c.d.View.ShowMessage(msg)
	c.d.Status.Send(status.Error, msg, "")
}

// LogView writes messages to the log. It is used when no window is shown.
type LogView struct{}

func (LogView) SetButtonLabel(label string) {
	logging.Trace("Button: %s", label)
}

func (LogView) ShowMessage(msg string) {
	logging.InfoLogger.Println(msg)
}

func (LogView) ShowOptions(opts options.Options) {
	logging.Trace("Options: quality=%s audio=%v", opts.Quality, opts.AudioEnabled)
}
