// Package ui is the desktop window: quality and audio choices, the
// start/stop button, and the dialogs used to ask for permissions.
package ui

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sperrystudios/screenrecorder/internal/assets"
	"github.com/sperrystudios/screenrecorder/internal/config"
	"github.com/sperrystudios/screenrecorder/internal/iputils"
	"github.com/sperrystudios/screenrecorder/internal/logging"
	"github.com/sperrystudios/screenrecorder/internal/options"
	"github.com/sperrystudios/screenrecorder/internal/session"
	"github.com/sperrystudios/screenrecorder/internal/status"
)

// Controller is what the window drives.
type Controller interface {
	Toggle()
	SetQuality(options.Quality)
	SetAudioEnabled(bool)
	Options() options.Options
	State() session.State
}

type MainWindow struct {
	window fyne.Window

	button       *widget.Button
	quality      *widget.RadioGroup
	audio        *widget.Check
	statusLabel  *widget.Label
	messageLabel *widget.Label

	mu        sync.Mutex
	ctrl      Controller
	hideTimer *time.Timer
}

// NewMainWindow builds the window. Bind must be called before the controls
// do anything.
func NewMainWindow(a fyne.App, port int, outputDir string) *MainWindow {
	w := &MainWindow{window: a.NewWindow("Screen Recorder")}
	w.window.SetIcon(assets.IconResource)

	title := widget.NewLabel("Screen Recorder")
	title.TextStyle = fyne.TextStyle{Bold: true}

	w.quality = widget.NewRadioGroup([]string{options.HD.String(), options.SD.String()}, nil)
	w.quality.Horizontal = true
	w.quality.Required = true
	w.quality.SetSelected(options.HD.String())
	w.quality.OnChanged = w.qualityChanged

	w.audio = widget.NewCheck("Record audio", nil)
	w.audio.SetChecked(true)
	w.audio.OnChanged = w.audioChanged

	w.button = widget.NewButton(session.LabelStart, w.toggle)
	w.button.Importance = widget.HighImportance

	w.statusLabel = widget.NewLabel("Ready")
	w.statusLabel.Wrapping = fyne.TextWrapWord
	w.messageLabel = widget.NewLabel("")
	w.messageLabel.Wrapping = fyne.TextWrapWord

	parsedURL, _ := url.Parse(fmt.Sprintf("http://localhost:%d", port))
	hyperlink := widget.NewHyperlink("Open recordings in browser", parsedURL)
	remote := widget.NewLabel("")
	if urls := iputils.RemoteURLs(port); len(urls) > 0 {
		remote.SetText("Remote control: " + strings.Join(urls, ", "))
	}

	content := container.NewPadded(container.NewVBox(
		title,
		container.NewHBox(widget.NewLabel("Quality"), w.quality),
		w.audio,
		w.button,
		widget.NewSeparator(),
		w.statusLabel,
		w.messageLabel,
		container.NewHBox(hyperlink),
		remote,
	))
	w.window.SetContent(content)
	w.window.Resize(fyne.NewSize(420, 300))
	w.window.CenterOnScreen()

	w.window.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("Files",
			fyne.NewMenuItem("Open Recordings Folder", func() {
				openDirectory(outputDir)
			}),
			fyne.NewMenuItem("Open Application Directory", func() {
				openDirectory(config.GetInstallDir())
			}),
		),
		fyne.NewMenu("Help",
			fyne.NewMenuItem("About", func() {
				dialog.ShowInformation("About", fmt.Sprintf("Screen Recorder\nVersion %s", config.GetProgramVersion()), w.window)
			}),
		),
	))

	w.window.SetCloseIntercept(w.confirmClose)
	return w
}

// Bind connects the controls to the controller and shows its current choices.
func (w *MainWindow) Bind(ctrl Controller) {
	w.mu.Lock()
	w.ctrl = ctrl
	w.mu.Unlock()

	w.ShowOptions(ctrl.Options())
}

// ShowOptions moves the controls to opts. Changes made over HTTP or MQTT
// arrive here too.
func (w *MainWindow) ShowOptions(opts options.Options) {
	if w.quality.Selected != opts.Quality.String() {
		w.quality.SetSelected(opts.Quality.String())
	}
	if w.audio.Checked != opts.AudioEnabled {
		w.audio.SetChecked(opts.AudioEnabled)
	}
}

func (w *MainWindow) Window() fyne.Window {
	return w.window
}

func (w *MainWindow) controller() Controller {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctrl
}

func (w *MainWindow) toggle() {
	if ctrl := w.controller(); ctrl != nil {
		ctrl.Toggle()
	}
}

func (w *MainWindow) qualityChanged(selected string) {
	ctrl := w.controller()
	if ctrl == nil {
		return
	}
	q, err := options.ParseQuality(selected)
	if err != nil {
		logging.WarningLogger.Printf("%v", err)
		return
	}
	ctrl.SetQuality(q)
}

func (w *MainWindow) audioChanged(checked bool) {
	if ctrl := w.controller(); ctrl != nil {
		ctrl.SetAudioEnabled(checked)
	}
}

// SetButtonLabel and ShowMessage make the window the controller's view.
func (w *MainWindow) SetButtonLabel(label string) {
	w.button.SetText(label)
}

func (w *MainWindow) ShowMessage(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.hideTimer != nil {
		w.hideTimer.Stop()
	}
	w.messageLabel.SetText(msg)
	w.hideTimer = time.AfterFunc(10*time.Second, func() {
		w.messageLabel.SetText("")
	})
}

// WatchStatus shows every status message until ch is closed.
func (w *MainWindow) WatchStatus(ch <-chan status.Message) {
	for msg := range ch {
		w.showStatus(msg)
	}
}

func (w *MainWindow) showStatus(msg status.Message) {
	text := msg.Text
	if text == "" {
		text = "Ready"
	}
	w.statusLabel.SetText(text)
	w.statusLabel.TextStyle = fyne.TextStyle{Bold: msg.Code == status.Error || msg.Code == status.Recording}
	w.statusLabel.Refresh()
}

func (w *MainWindow) confirmClose() {
	ctrl := w.controller()
	if ctrl == nil || ctrl.State() != session.Recording {
		w.window.Close()
		return
	}
	confirmDialog := dialog.NewConfirm(
		"Confirm Exit",
		"A recording is in progress. Exiting stops it and keeps what was recorded so far. Are you sure you want to exit?",
		func(exit bool) {
			if exit {
				logging.InfoLogger.Println("Closing screen recorder during a recording")
				ctrl.Toggle()
				w.window.Close()
			}
		},
		w.window,
	)
	confirmDialog.SetConfirmText("Stop and Exit")
	confirmDialog.SetDismissText("Keep Recording")
	confirmDialog.Show()
}

// openDirectory opens dir in the file explorer
func openDirectory(dir string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", dir)
	case "darwin":
		cmd = exec.Command("open", dir)
	case "linux":
		cmd = exec.Command("xdg-open", dir)
	default:
		logging.WarningLogger.Printf("Unsupported platform: %s", runtime.GOOS)
		return
	}
	if err := cmd.Start(); err != nil {
		logging.ErrorLogger.Printf("Failed to open %s: %v", dir, err)
	}
}
