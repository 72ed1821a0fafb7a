package ui

import (
	"path/filepath"
	"sync"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/sperrystudios/screenrecorder/internal/assets"
	"github.com/sperrystudios/screenrecorder/internal/consent"
	"github.com/sperrystudios/screenrecorder/internal/options"
	"github.com/sperrystudios/screenrecorder/internal/permissions"
	"github.com/sperrystudios/screenrecorder/internal/session"
	"github.com/sperrystudios/screenrecorder/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu        sync.Mutex
	toggles   int
	selection *options.Selection
	state     session.State
}

func newFakeController() *fakeController {
	return &fakeController{selection: options.NewSelection()}
}

func (c *fakeController) Toggle() {
	c.mu.Lock()
	c.toggles++
	c.mu.Unlock()
}

func (c *fakeController) SetQuality(q options.Quality) { c.selection.SetQuality(q) }
func (c *fakeController) SetAudioEnabled(b bool)       { c.selection.SetAudioEnabled(b) }
func (c *fakeController) Options() options.Options     { return c.selection.Snapshot() }
func (c *fakeController) State() session.State         { return c.state }

func newTestWindow(t *testing.T) (*MainWindow, *fakeController) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	w := NewMainWindow(a, 8092, t.TempDir())
	ctrl := newFakeController()
	w.Bind(ctrl)
	return w, ctrl
}

func TestButtonTogglesController(t *testing.T) {
	w, ctrl := newTestWindow(t)

	assert.Equal(t, session.LabelStart, w.button.Text)
	test.Tap(w.button)
	test.Tap(w.button)
	assert.Equal(t, 2, ctrl.toggles)
}

func TestControlsUpdateSelection(t *testing.T) {
	w, ctrl := newTestWindow(t)

	w.quality.SetSelected("SD")
	w.audio.SetChecked(false)

	assert.Equal(t, options.Options{Quality: options.SD, AudioEnabled: false}, ctrl.Options())
}

func TestBindShowsControllerChoices(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	w := NewMainWindow(a, 8092, t.TempDir())

	ctrl := newFakeController()
	ctrl.selection.SetQuality(options.SD)
	ctrl.selection.SetAudioEnabled(false)
	w.Bind(ctrl)

	assert.Equal(t, "SD", w.quality.Selected)
	assert.False(t, w.audio.Checked)
}

func TestViewUpdates(t *testing.T) {
	w, _ := newTestWindow(t)

	w.SetButtonLabel(session.LabelStop)
	assert.Equal(t, session.LabelStop, w.button.Text)

	w.ShowMessage(session.MsgSaved)
	assert.Equal(t, session.MsgSaved, w.messageLabel.Text)

	w.showStatus(status.Message{Code: status.Error, Text: session.MsgFailed})
	assert.Equal(t, session.MsgFailed, w.statusLabel.Text)
	assert.True(t, w.statusLabel.TextStyle.Bold)

	w.showStatus(status.Message{Code: status.Idle})
	assert.Equal(t, "Ready", w.statusLabel.Text)
	assert.False(t, w.statusLabel.TextStyle.Bold)
}

func TestShowOptionsMovesControls(t *testing.T) {
	w, ctrl := newTestWindow(t)

	// selection changed elsewhere, then reported to the window
	ctrl.selection.SetQuality(options.SD)
	ctrl.selection.SetAudioEnabled(false)
	w.ShowOptions(ctrl.Options())

	assert.Equal(t, "SD", w.quality.Selected)
	assert.False(t, w.audio.Checked)
	assert.Equal(t, options.Options{Quality: options.SD, AudioEnabled: false}, ctrl.Options())

	w.ShowOptions(options.Options{Quality: options.HD, AudioEnabled: true})
	assert.Equal(t, "HD", w.quality.Selected)
	assert.True(t, w.audio.Checked)
}

func TestNotifierInstallsNotificationIcon(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	n := NewNotifier(a)

	n.Notify(options.Notification{Title: "Recording your screen"})
	assert.Nil(t, n.icon)

	n.Notify(options.Notification{Icon: assets.Icon(), Title: "Recording your screen", Text: "stop it"})
	assert.Equal(t, assets.Icon(), n.icon)

	res := notificationIcon(assets.Icon())
	assert.Equal(t, "notification.png", res.Name())
	assert.Equal(t, assets.Icon(), res.Content())
}

func TestDialogRequesterAnswers(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	win := a.NewWindow("test")
	dir := t.TempDir()

	store, err := permissions.OpenFileStore(filepath.Join(dir, "grants.toml"))
	require.NoError(t, err)
	r := NewDialogRequester(win, store, filepath.Join(dir, "Movies"))

	assert.False(t, r.Check(permissions.Microphone))
	assert.False(t, r.answer(permissions.Microphone, false))
	assert.False(t, r.Check(permissions.Microphone))

	assert.True(t, r.answer(permissions.Microphone, true))
	assert.True(t, r.Check(permissions.Microphone))

	assert.True(t, r.answer(permissions.Storage, true))
	assert.True(t, r.Check(permissions.Storage))
	assert.DirExists(t, filepath.Join(dir, "Movies"))

	// answers survive a restart
	reopened, err := permissions.OpenFileStore(filepath.Join(dir, "grants.toml"))
	require.NoError(t, err)
	assert.True(t, reopened.Granted(permissions.Microphone))
	assert.True(t, reopened.Granted(permissions.Storage))
}

func TestAnswerConsent(t *testing.T) {
	var token consent.Token
	var got error

	answerConsent(true, func(tk consent.Token, err error) { token, got = tk, err })
	assert.NoError(t, got)
	assert.True(t, token.Valid())

	answerConsent(false, func(tk consent.Token, err error) { token, got = tk, err })
	assert.ErrorIs(t, got, consent.ErrDenied)
	assert.False(t, token.Valid())
}
