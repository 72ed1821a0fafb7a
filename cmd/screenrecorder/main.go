package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"
	"golang.org/x/sync/errgroup"

	"github.com/sperrystudios/screenrecorder/internal/assets"
	"github.com/sperrystudios/screenrecorder/internal/config"
	"github.com/sperrystudios/screenrecorder/internal/consent"
	"github.com/sperrystudios/screenrecorder/internal/httpServer"
	"github.com/sperrystudios/screenrecorder/internal/iputils"
	"github.com/sperrystudios/screenrecorder/internal/library"
	"github.com/sperrystudios/screenrecorder/internal/logging"
	"github.com/sperrystudios/screenrecorder/internal/monitor"
	"github.com/sperrystudios/screenrecorder/internal/options"
	"github.com/sperrystudios/screenrecorder/internal/permissions"
	"github.com/sperrystudios/screenrecorder/internal/procutil"
	"github.com/sperrystudios/screenrecorder/internal/recording"
	"github.com/sperrystudios/screenrecorder/internal/session"
	"github.com/sperrystudios/screenrecorder/internal/status"
	"github.com/sperrystudios/screenrecorder/internal/ui"
	"github.com/sperrystudios/screenrecorder/internal/websocket"
)

var (
	verbose    bool
	headless   bool
	noVideo    bool
	configPath string
)

// services are shared by the desktop and headless modes.
type services struct {
	cfg    *config.Config
	ffmpeg string
	probe  *recording.Probe
	hub    *status.Hub
	index  *library.Index
	ws     *websocket.Hub

	recorder *recording.FFmpegRecorder
}

func main() {
	// Disable Fyne telemetry
	os.Setenv("FYNE_TELEMETRY", "0")

	flag.BoolVar(&verbose, "v", false, "enable verbose logging")
	flag.BoolVar(&verbose, "verbose", false, "enable verbose logging")
	flag.BoolVar(&headless, "headless", false, "run without a window; grants come from config.toml")
	flag.BoolVar(&noVideo, "noVideo", false, "log ffmpeg actions but do not execute them")
	flag.StringVar(&configPath, "config", "", "path to config.toml")
	flag.Parse()

	if err := logging.Init(filepath.Join(config.GetInstallDir(), "logs")); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()
	logging.SetVerbose(verbose)
	logging.InfoLogger.Printf("Screen Recorder %s starting", config.GetProgramVersion())

	if configPath == "" {
		configPath = config.ConfigFilePath()
		if err := config.ExtractDefaultConfig(configPath); err != nil {
			logging.WarningLogger.Printf("Could not write default config: %v", err)
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logging.ErrorLogger.Fatalf("Error loading configuration: %v", err)
	}
	if noVideo {
		cfg.NoVideo = true
	}

	s := newServices(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if headless {
		err = runHeadless(ctx, s)
	} else {
		err = runDesktop(ctx, s)
	}
	s.finish()
	if err != nil {
		logging.ErrorLogger.Printf("%v", err)
		logging.Close()
		os.Exit(1)
	}
	logging.InfoLogger.Println("Screen Recorder stopped")
}

func newServices(cfg *config.Config) *services {
	if err := os.MkdirAll(cfg.OutputDir, os.ModePerm); err != nil {
		logging.ErrorLogger.Printf("Failed to create output directory %s: %v", cfg.OutputDir, err)
	}
	if err := procutil.InitJob(); err != nil {
		logging.WarningLogger.Printf("Could not create job object, ffmpeg may outlive the app: %v", err)
	}

	ffmpeg := recording.FindFFmpeg(cfg.FfmpegPath)
	index := library.NewIndex(cfg.OutputDir, cfg.Library.RescanCommand)
	if err := index.Load(); err != nil {
		logging.WarningLogger.Printf("%v", err)
	}

	return &services{
		cfg:    cfg,
		ffmpeg: ffmpeg,
		probe:  recording.NewProbe(ffmpeg),
		hub:    status.NewHub(),
		index:  index,
		ws:     websocket.NewHub(),
	}
}

func (s *services) newRecorder(notifier recording.Notifier) {
	s.recorder = recording.New(recording.Config{
		FfmpegPath:  s.ffmpeg,
		LogFfmpeg:   s.cfg.LogFfmpeg,
		LogDir:      logging.GetLogDir(),
		NoVideo:     s.cfg.NoVideo,
		Display:     s.cfg.Recording.Display,
		AudioDevice: s.cfg.Recording.AudioDevice,
		StopTimeout: time.Duration(s.cfg.Recording.StopTimeoutSeconds) * time.Second,
		Notifier:    notifier,
		Probe:       s.probe,
	})
}

func (s *services) newController(requester permissions.Requester, prompter consent.Prompter, view session.View) *session.Controller {
	return session.NewController(session.Deps{
		Recorder:  s.recorder,
		Gate:      permissions.NewGate(requester),
		Prompter:  prompter,
		Selection: options.NewSelection(),
		Settings: func(o options.Options) options.Settings {
			return options.Build(o, s.cfg, assets.Icon(), s.probe)
		},
		View:   view,
		Index:  s.index,
		Status: s.hub,
	})
}

// run starts the controller loop and every remote surface, and returns when
// ctx is done or one of them fails.
func (s *services) run(ctx context.Context, ctrl *session.Controller) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctrl.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return httpServer.New(s.cfg.Port, ctrl, s.index, s.ws).ListenAndServe(ctx)
	})

	s.index.Subscribe(func(library.Change) {
		s.ws.SendMessage(websocket.ReloadMessage)
	})
	updates := s.hub.Subscribe()
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg := <-updates:
				s.ws.SendStatus(msg)
			}
		}
	})

	if s.cfg.Library.Watch {
		g.Go(func() error {
			if err := s.index.Watch(ctx); err != nil {
				logging.WarningLogger.Printf("%v", err)
			}
			return nil
		})
	}

	if s.cfg.MQTT.Broker != "" {
		g.Go(func() error {
			if err := monitor.New(s.cfg.MQTT, ctrl).Run(ctx, s.hub, s.index); err != nil {
				logging.ErrorLogger.Printf("%v", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// finish lets a running ffmpeg write its file before the process exits.
func (s *services) finish() {
	if s.recorder == nil || !s.recorder.IsBusy() {
		return
	}
	logging.InfoLogger.Println("Recording still running at exit, stopping it")
	if err := s.recorder.Stop(); err != nil {
		logging.WarningLogger.Printf("Stop: %v", err)
	}
	timeout := time.Duration(s.cfg.Recording.StopTimeoutSeconds+2) * time.Second
	select {
	case res := <-s.recorder.Results():
		if res.OK() {
			logging.InfoLogger.Printf("Recording saved: %s", res.Path)
		} else {
			logging.ErrorLogger.Printf("Recording failed: %v", res.Err)
		}
	case <-time.After(timeout):
		logging.ErrorLogger.Println("ffmpeg did not finish in time")
	}
}

func runHeadless(ctx context.Context, s *services) error {
	logging.InfoLogger.Printf("Running headless, control with screenrecctl or http://localhost:%d", s.cfg.Port)
	for _, u := range iputils.RemoteURLs(s.cfg.Port) {
		logging.InfoLogger.Printf("Remote control available at %s", u)
	}
	s.newRecorder(nil)

	requester := permissions.StaticRequester{
		Microphone: s.cfg.Permissions.Microphone,
		Storage:    s.cfg.Permissions.Storage,
		OutputDir:  s.cfg.OutputDir,
	}
	prompter := consent.AutoPrompter{Grant: s.cfg.Permissions.AutoConsent}
	ctrl := s.newController(requester, prompter, session.LogView{})
	return s.run(ctx, ctrl)
}

func runDesktop(ctx context.Context, s *services) error {
	a := app.NewWithID("com.sperrystudios.screenrecorder")
	a.SetIcon(assets.IconResource)
	s.newRecorder(ui.NewNotifier(a))

	store, err := permissions.OpenFileStore(filepath.Join(config.GetInstallDir(), "grants.toml"))
	if err != nil {
		return err
	}

	win := ui.NewMainWindow(a, s.cfg.Port, s.cfg.OutputDir)
	requester := ui.NewDialogRequester(win.Window(), store, s.cfg.OutputDir)
	prompter := ui.NewDialogPrompter(win.Window())
	ctrl := s.newController(requester, prompter, win)
	win.Bind(ctrl)

	go win.WatchStatus(s.hub.Subscribe())

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		err := s.run(ctx, ctrl)
		if err != nil {
			logging.ErrorLogger.Printf("%v", err)
		}
		done <- err
		// Interrupt signal or a failed surface closes the window
		a.Quit()
	}()

	win.Window().ShowAndRun()
	cancel()
	return <-done
}
