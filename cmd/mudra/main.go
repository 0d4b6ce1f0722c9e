// Mudra turns hand gestures seen by the webcam into desktop actions.
//
// It runs in the system tray. Ctrl+Shift+G (configurable) pauses and
// resumes gesture control.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/afero"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/hotkey"
	"github.com/ayusman/mudra/internal/notify"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/report"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/signal"
	"github.com/ayusman/mudra/internal/speech"
	"github.com/ayusman/mudra/internal/status"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

// Version is set at build time with -ldflags.
var Version = "dev"

type options struct {
	configPath string
	camera     int
	addr       string
	model      string
	plugins    string
	noTray     bool
}

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	var opts options
	flag.StringVar(&opts.configPath, "config", defaultConfigPath(), "path to config.json")
	flag.IntVar(&opts.camera, "camera", -1, "camera device ID (overrides config)")
	flag.StringVar(&opts.addr, "addr", "", "status server address (overrides config)")
	flag.StringVar(&opts.model, "model", "", "whisper model path; enables speech to text")
	flag.StringVar(&opts.plugins, "plugins", "", "plugin directory (overrides config)")
	flag.BoolVar(&opts.noTray, "no-tray", false, "run without the system tray")
	flag.Parse()

	log.Printf("Mudra %s starting", Version)

	// The tray and hotkey event loops need the main thread on macOS.
	hotkey.RunOnMainThread(func() {
		if err := run(opts); err != nil {
			log.Fatalf("Mudra failed: %v", err)
		}
	})
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".mudra", "config.json")
}

func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if _, err := os.Stat(opts.configPath); errors.Is(err, os.ErrNotExist) {
		// First run: leave an editable copy of the defaults.
		if err := cfg.Save(opts.configPath); err != nil {
			log.Printf("Failed to write default config: %v", err)
		} else {
			log.Printf("Wrote default config to %s", opts.configPath)
		}
	}
	if opts.camera >= 0 {
		cfg.Camera.DeviceID = opts.camera
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.model != "" {
		cfg.Speech.ModelPath = opts.model
	}
	if opts.plugins != "" {
		cfg.Plugins.Dir = opts.plugins
	}
	return cfg, nil
}

func run(opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	reporter, err := report.New(cfg.SentryDSN, "mudra@"+Version)
	if err != nil {
		log.Printf("Error reporting disabled: %v", err)
	}
	defer reporter.Flush()
	defer reporter.Recover()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	enabled, err := st.Settings().GetBool(store.SettingEnabled, true)
	if err != nil {
		log.Printf("Failed to read enabled setting: %v", err)
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Actuation
	plugins := plugin.NewManager(cfg.PluginDir())
	if err := plugins.Discover(); err != nil {
		return fmt.Errorf("discover plugins: %w", err)
	}
	for _, name := range []string{actuator.InputPlugin, actuator.SystemPlugin} {
		if _, err := plugins.Get(name); err != nil {
			log.Printf("Plugin %s not found in %s; its actions will fail", name, plugins.PluginDir())
		}
	}
	log.Printf("Loaded %d plugins", len(plugins.List()))

	pluginAct := actuator.NewPluginActuator(plugins, plugin.NewExecutor(time.Duration(cfg.Plugins.Timeout)), cfg.Plugins.QueueSize)
	defer pluginAct.Close()
	journal := actuator.NewJournal(pluginAct, app.NewEventRecorder(st))
	defer journal.Close()

	actionCfg := cfg.ActionConfig()
	if err := os.MkdirAll(actionCfg.ScreenshotDir, 0755); err != nil {
		log.Printf("Failed to create screenshot directory: %v", err)
	}

	// Detection
	camera := capture.NewCamera(cfg.Camera)
	hands, err := detector.NewMediaPipeDetector(cfg.Detector)
	if err != nil {
		return fmt.Errorf("hand detection unavailable: %w", err)
	}
	preview := capture.NewFrameBuffer()
	source := app.NewCameraSource(camera, hands, preview)
	if err := source.Open(); err != nil {
		return err
	}
	defer source.Close()

	// Status surfaces
	notifier := notify.New(cfg.Speech.Notify)
	latest := &status.Latest{}
	broadcaster := status.NewBroadcaster()
	sinks := status.Multi{latest, broadcaster, &status.LabelLogger{}}

	var tr *tray.Tray
	if !opts.noTray {
		tr = tray.New(enabled)
		sinks = append(sinks, tr)
	}

	capturing := signal.NewLevel()
	pipeline, err := app.New(app.Config{
		Thresholds:       cfg.Thresholds(),
		VoteWindow:       cfg.Gesture.VoteWindow,
		ResetVoterOnLoss: cfg.Gesture.ResetVoterOnLoss,
		Table:            cfg.Gesture.Table,
		Action:           actionCfg,
		Enabled:          enabled,
		OnError:          func(err error) { reporter.Error("pipeline", err) },
	}, source, journal, capturing, sinks)
	if err != nil {
		return err
	}

	pipeline.OnEnabledChange(func(enabled bool) {
		if err := st.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
			log.Printf("Failed to save enabled setting: %v", err)
		}
		if tr != nil {
			tr.SetEnabled(enabled)
		}
		if enabled {
			notifier.Resumed()
		} else {
			notifier.Paused()
		}
	})

	// Speech
	if cfg.Speech.ModelPath != "" {
		closeSpeech, err := startSpeech(ctx, cfg, capturing, journal, st, notifier, reporter)
		if err != nil {
			log.Printf("Speech to text disabled: %v", err)
			reporter.Error("speech", err)
		} else {
			defer closeSpeech()
		}
	} else {
		log.Println("Speech to text disabled: no whisper model configured")
	}

	// Status server
	if cfg.Server.Addr != "" {
		staticDir := cfg.Server.StaticDir
		if staticDir == "" {
			staticDir = findWebDir(cfg.DataDir)
		}
		srv := server.New(server.Config{
			StaticDir:   staticDir,
			Store:       st,
			Latest:      latest,
			Broadcaster: broadcaster,
			Frames:      preview,
		})
		go func() {
			log.Printf("Starting server on %s", cfg.Server.Addr)
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.Printf("Server failed: %v", err)
				reporter.Error("server", err)
			}
		}()
	}

	// Failsafe
	if cfg.Failsafe.Hotkey != "" {
		mods, key, err := config.ParseHotkey(cfg.Failsafe.Hotkey)
		if err != nil {
			return err
		}
		hk := hotkey.New(func() { pipeline.Toggle() })
		if err := hk.Register(mods, key); err != nil {
			log.Printf("Failsafe hotkey unavailable: %v", err)
		} else {
			log.Printf("Press %s to pause or resume gesture control", hk.Current())
			defer hk.Unregister()
		}
	}

	done := make(chan error, 1)
	go func() { done <- pipeline.Run(ctx) }()

	if tr != nil {
		tr.OnToggle(pipeline.SetEnabled)
		tr.OnOpenStatus(func() {
			if cfg.Server.Addr == "" {
				return
			}
			if err := browser.OpenURL("http://" + cfg.Server.Addr); err != nil {
				log.Printf("Failed to open status page: %v", err)
			}
		})
		tr.OnQuit(stop)
		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		tr.Run()
	} else {
		<-ctx.Done()
	}
	stop()

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		reporter.Error("pipeline", err)
		return err
	}
	log.Println("Mudra stopped")
	return nil
}

// startSpeech wires the microphone, whisper and the capture coordinator.
// The returned function waits for the coordinator to stop, then releases
// the audio and model resources. Call it after ctx is done.
func startSpeech(ctx context.Context, cfg config.Config, capturing *signal.Level, typer speech.Typer,
	st *store.Store, notifier *notify.Notifier, reporter *report.Reporter) (func(), error) {
	mic, err := speech.NewPortAudioSource(cfg.Speech.SampleRate, cfg.Speech.ChunkFrames)
	if err != nil {
		return nil, err
	}
	whisper, err := speech.NewWhisperTranscriber(cfg.Speech.ModelPath, cfg.Speech.Language)
	if err != nil {
		mic.Close()
		return nil, err
	}

	coord := speech.NewCoordinator(cfg.CoordinatorConfig(), capturing, mic, whisper, typer)
	coord.Observe(app.NewSessionJournal(st))
	coord.Observe(notifier)
	coord.Observe(reporter)
	if cfg.Speech.RecordingsDir != "" {
		coord.Observe(speech.NewRecorder(afero.NewOsFs(), cfg.Speech.RecordingsDir, cfg.Speech.SampleRate))
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Speech capture stopped: %v", err)
		}
	}()
	log.Printf("Speech to text ready (%s)", filepath.Base(cfg.Speech.ModelPath))

	return func() {
		// A session in progress finishes once the capture signal drops.
		<-stopped
		if err := whisper.Close(); err != nil {
			log.Printf("Error closing whisper model: %v", err)
		}
		if err := mic.Close(); err != nil {
			log.Printf("Error closing audio: %v", err)
		}
	}, nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
