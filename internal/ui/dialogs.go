package ui

import (
	"bytes"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"github.com/sperrystudios/screenrecorder/internal/consent"
	"github.com/sperrystudios/screenrecorder/internal/logging"
	"github.com/sperrystudios/screenrecorder/internal/options"
	"github.com/sperrystudios/screenrecorder/internal/permissions"
)

var permissionText = map[permissions.Permission]string{
	permissions.Microphone: "Screen Recorder needs the microphone to record audio with your screen.",
	permissions.Storage:    "Screen Recorder needs to save recordings in %s.",
}

// DialogRequester asks for permissions with confirm dialogs and remembers
// the answers in a FileStore.
type DialogRequester struct {
	window    fyne.Window
	store     *permissions.FileStore
	outputDir string
}

func NewDialogRequester(window fyne.Window, store *permissions.FileStore, outputDir string) *DialogRequester {
	return &DialogRequester{window: window, store: store, outputDir: outputDir}
}

func (r *DialogRequester) Check(p permissions.Permission) bool {
	if !r.store.Granted(p) {
		return false
	}
	if p == permissions.Storage {
		if err := permissions.CheckWritable(r.outputDir); err != nil {
			logging.ErrorLogger.Printf("Storage permission unusable: %v", err)
			return false
		}
	}
	return true
}

func (r *DialogRequester) Request(p permissions.Permission, done func(bool)) {
	text := permissionText[p]
	if p == permissions.Storage {
		text = fmt.Sprintf(text, r.outputDir)
	}
	d := dialog.NewConfirm(fmt.Sprintf("Allow %s access?", p), text, func(ok bool) {
		done(r.answer(p, ok))
	}, r.window)
	d.SetConfirmText("Allow")
	d.SetDismissText("Deny")
	d.Show()
}

// answer records the user's choice. A storage grant is refused when the
// output directory cannot be written.
func (r *DialogRequester) answer(p permissions.Permission, ok bool) bool {
	if ok && p == permissions.Storage {
		if err := permissions.CheckWritable(r.outputDir); err != nil {
			logging.ErrorLogger.Printf("Cannot use %s: %v", r.outputDir, err)
			dialog.ShowError(err, r.window)
			ok = false
		}
	}
	if err := r.store.Record(p, ok); err != nil {
		logging.ErrorLogger.Printf("%v", err)
	}
	return ok
}

// DialogPrompter asks for capture consent before every session.
type DialogPrompter struct {
	window fyne.Window
}

func NewDialogPrompter(window fyne.Window) *DialogPrompter {
	return &DialogPrompter{window: window}
}

func (p *DialogPrompter) Request(done func(consent.Token, error)) {
	d := dialog.NewConfirm("Start recording?",
		"Screen Recorder will capture everything shown on your screen.",
		func(ok bool) { answerConsent(ok, done) }, p.window)
	d.SetConfirmText("Start now")
	d.SetDismissText("Cancel")
	d.Show()
}

func answerConsent(ok bool, done func(consent.Token, error)) {
	if !ok {
		done(consent.Token{}, consent.ErrDenied)
		return
	}
	done(consent.NewToken(), nil)
}

// Notifier shows the recording notification through the desktop.
// Desktop notifications carry the app icon, so the notification icon is
// installed as the app icon first.
type Notifier struct {
	app  fyne.App
	icon []byte
}

func NewNotifier(a fyne.App) *Notifier {
	return &Notifier{app: a}
}

func (n *Notifier) Notify(note options.Notification) {
	if len(note.Icon) > 0 && !bytes.Equal(note.Icon, n.icon) {
		n.icon = note.Icon
		n.app.SetIcon(notificationIcon(note.Icon))
	}
	n.app.SendNotification(fyne.NewNotification(note.Title, note.Text))
}

func notificationIcon(png []byte) fyne.Resource {
	return fyne.NewStaticResource("notification.png", png)
}
