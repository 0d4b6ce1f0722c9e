// Package config loads the Mudra configuration file.
//
// Every field has a default; a config file only needs the fields it
// changes. Durations are written as Go duration strings such as "800ms".
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/speech"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration that encodes as a duration string.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the full application configuration.
type Config struct {
	// DataDir holds the database and default screenshot and recording dirs.
	DataDir   string          `json:"data_dir"`
	SentryDSN string          `json:"sentry_dsn,omitempty"`
	Gesture   GestureConfig   `json:"gesture"`
	Action    ActionConfig    `json:"action"`
	Camera    capture.Config  `json:"camera"`
	Detector  detector.Config `json:"detector"`
	Speech    SpeechConfig    `json:"speech"`
	Plugins   PluginsConfig   `json:"plugins"`
	Server    ServerConfig    `json:"server"`
	Failsafe  FailsafeConfig  `json:"failsafe"`
}

// GestureConfig configures signature extraction, voting and classification.
type GestureConfig struct {
	FingerRatio float64 `json:"finger_ratio"`
	ThumbRatio  float64 `json:"thumb_ratio"`
	VoteWindow  int     `json:"vote_window"`
	// ResetVoterOnLoss empties the voting window when the hand is lost.
	ResetVoterOnLoss bool `json:"reset_voter_on_loss"`
	// Table overrides the signature to label mapping.
	Table gesture.Table `json:"table,omitempty"`
}

// ActionConfig configures the action state machine.
type ActionConfig struct {
	ActionHold      Duration `json:"action_hold"`
	MinGap          Duration `json:"min_gap"`
	AltTabHold      Duration `json:"alt_tab_hold"`
	AltTabRepeat    Duration `json:"alt_tab_repeat"`
	ClickCooldown   Duration `json:"click_cooldown"`
	PinchThreshold  float64  `json:"pinch_threshold"`
	Smoothing       float64  `json:"smoothing"`
	Margin          float64  `json:"margin"`
	Span            float64  `json:"span"`
	ScreenWidth     int      `json:"screen_width"`
	ScreenHeight    int      `json:"screen_height"`
	BrightnessStep  int      `json:"brightness_step"`
	ScreenshotDir   string   `json:"screenshot_dir,omitempty"`
	RepeatWhileHeld bool     `json:"repeat_while_held"`
}

// SpeechConfig configures capture and transcription. Speech is disabled
// when ModelPath is empty.
type SpeechConfig struct {
	ModelPath     string   `json:"model_path,omitempty"`
	Language      string   `json:"language"`
	SampleRate    int      `json:"sample_rate"`
	ChunkFrames   int      `json:"chunk_frames"`
	MinBytes      int      `json:"min_bytes"`
	SettleDelay   Duration `json:"settle_delay"`
	RetryDelay    Duration `json:"retry_delay"`
	RecordingsDir string   `json:"recordings_dir,omitempty"`
	Notify        bool     `json:"notify"`
}

// PluginsConfig configures actuator plugins.
type PluginsConfig struct {
	Dir       string   `json:"dir,omitempty"`
	Timeout   Duration `json:"timeout"`
	QueueSize int      `json:"queue_size"`
}

// ServerConfig configures the status HTTP server. An empty Addr disables it.
type ServerConfig struct {
	Addr      string `json:"addr"`
	StaticDir string `json:"static_dir,omitempty"`
}

// FailsafeConfig configures the global pause hotkey, e.g. "ctrl+shift+g".
// An empty Hotkey disables it.
type FailsafeConfig struct {
	Hotkey string `json:"hotkey"`
}

// Default returns the built-in configuration.
func Default() Config {
	act := action.DefaultConfig()
	th := gesture.DefaultThresholds()
	sp := speech.DefaultCoordinatorConfig()

	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".mudra")

	return Config{
		DataDir: dataDir,
		Gesture: GestureConfig{
			FingerRatio: th.FingerRatio,
			ThumbRatio:  th.ThumbRatio,
			VoteWindow:  gesture.DefaultWindow,
		},
		Action: ActionConfig{
			ActionHold:     Duration(act.ActionHold),
			MinGap:         Duration(act.MinGap),
			AltTabHold:     Duration(act.AltTabHold),
			AltTabRepeat:   Duration(act.AltTabRepeat),
			ClickCooldown:  Duration(act.ClickCooldown),
			PinchThreshold: act.PinchThreshold,
			Smoothing:      act.Smoothing,
			Margin:         act.Margin,
			Span:           act.Span,
			ScreenWidth:    act.ScreenWidth,
			ScreenHeight:   act.ScreenHeight,
			BrightnessStep: act.BrightnessStep,
		},
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Speech: SpeechConfig{
			Language:    "en",
			SampleRate:  sp.SampleRate,
			ChunkFrames: sp.ChunkFrames,
			MinBytes:    sp.MinBytes,
			SettleDelay: Duration(sp.SettleDelay),
			RetryDelay:  Duration(sp.RetryDelay),
			Notify:      true,
		},
		Plugins: PluginsConfig{
			Timeout:   Duration(5 * time.Second),
			QueueSize: 64,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
		Failsafe: FailsafeConfig{
			Hotkey: "ctrl+shift+g",
		},
	}
}

// Load reads the JSON file at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as indented JSON.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid field, wrapped in ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	if c.Gesture.FingerRatio <= 0 || c.Gesture.ThumbRatio <= 0 {
		errs = append(errs, fmt.Errorf("gesture ratios must be positive"))
	}
	if c.Gesture.VoteWindow < 0 {
		errs = append(errs, fmt.Errorf("vote window must not be negative, got %d", c.Gesture.VoteWindow))
	}
	if c.Gesture.Table != nil {
		if err := c.Gesture.Table.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.ActionConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Speech.SampleRate <= 0 || c.Speech.ChunkFrames <= 0 {
		errs = append(errs, fmt.Errorf("speech sample rate and chunk frames must be positive"))
	}
	if c.Speech.MinBytes < 0 {
		errs = append(errs, fmt.Errorf("speech min bytes must not be negative, got %d", c.Speech.MinBytes))
	}
	if c.Plugins.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("plugin timeout must be positive"))
	}
	if c.Failsafe.Hotkey != "" {
		if _, _, err := ParseHotkey(c.Failsafe.Hotkey); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Thresholds returns the signature extraction thresholds.
func (c Config) Thresholds() gesture.Thresholds {
	return gesture.Thresholds{FingerRatio: c.Gesture.FingerRatio, ThumbRatio: c.Gesture.ThumbRatio}
}

// ActionConfig returns the state machine configuration.
func (c Config) ActionConfig() action.Config {
	a := c.Action
	dir := a.ScreenshotDir
	if dir == "" {
		dir = filepath.Join(c.DataDir, "screenshots")
	}
	return action.Config{
		ActionHold:      time.Duration(a.ActionHold),
		MinGap:          time.Duration(a.MinGap),
		AltTabHold:      time.Duration(a.AltTabHold),
		AltTabRepeat:    time.Duration(a.AltTabRepeat),
		ClickCooldown:   time.Duration(a.ClickCooldown),
		PinchThreshold:  a.PinchThreshold,
		Smoothing:       a.Smoothing,
		Margin:          a.Margin,
		Span:            a.Span,
		ScreenWidth:     a.ScreenWidth,
		ScreenHeight:    a.ScreenHeight,
		BrightnessStep:  a.BrightnessStep,
		ScreenshotDir:   dir,
		RepeatWhileHeld: a.RepeatWhileHeld,
	}
}

// CoordinatorConfig returns the speech coordinator configuration.
func (c Config) CoordinatorConfig() speech.CoordinatorConfig {
	s := c.Speech
	return speech.CoordinatorConfig{
		SampleRate:  s.SampleRate,
		SampleWidth: 2,
		ChunkFrames: s.ChunkFrames,
		MinBytes:    s.MinBytes,
		SettleDelay: time.Duration(s.SettleDelay),
		RetryDelay:  time.Duration(s.RetryDelay),
	}
}

// DBPath returns the sqlite database path inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// PluginDir returns the plugin directory, defaulting to DataDir/plugins.
func (c Config) PluginDir() string {
	if c.Plugins.Dir != "" {
		return c.Plugins.Dir
	}
	return filepath.Join(c.DataDir, "plugins")
}

// ParseHotkey splits "ctrl+shift+g" into modifiers and a key name. Only
// ctrl and shift are accepted as modifiers.
func ParseHotkey(s string) (mods []string, key string, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == len(parts)-1 {
			if len(p) != 1 || p[0] < 'a' || p[0] > 'z' {
				return nil, "", fmt.Errorf("hotkey %q: key must be a single letter", s)
			}
			key = p
			break
		}
		switch p {
		case "ctrl", "shift":
			mods = append(mods, p)
		default:
			return nil, "", fmt.Errorf("hotkey %q: unknown modifier %q", s, p)
		}
	}
	if len(mods) == 0 {
		return nil, "", fmt.Errorf("hotkey %q: at least one modifier is required", s)
	}
	return mods, key, nil
}
