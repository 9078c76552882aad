package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Container is the output file container format.
type Container string

const (
	ContainerMP4  Container = "mp4"
	ContainerMKV  Container = "mkv"
	ContainerWebM Container = "webm"
)

// Codec selects the video encoder, or "auto" to let the capture tool decide.
type Codec string

const (
	CodecAuto Codec = "auto"
	CodecH264 Codec = "h264"
	CodecHEVC Codec = "hevc"
	CodecAV1  Codec = "av1"
	CodecVP8  Codec = "vp8"
	CodecVP9  Codec = "vp9"
)

const (
	defaultFPS       = 60
	defaultStopGrace = 5 * time.Second

	// External collaborators; overridable for odd setups and for tests.
	defaultSelectorCmd = "slurp"
	defaultCaptureCmd  = "gpu-screen-recorder"
)

// Config is an immutable snapshot of the recording configuration.
// Resolution order: defaults, then the TOML config file, then environment
// overrides (SCREENCASTD_*).
type Config struct {
	FPS        int
	Container  Container
	Codec      Codec
	OutputDir  string
	FullOutput bool

	SelectorCmd string
	CaptureCmd  string
	StopGrace   time.Duration
}

type fileConfig struct {
	FPS          int    `toml:"fps"`
	Container    string `toml:"container"`
	Codec        string `toml:"codec"`
	OutputDir    string `toml:"output_dir"`
	FullOutput   bool   `toml:"full_output"`
	SelectorCmd  string `toml:"selector_cmd"`
	CaptureCmd   string `toml:"capture_cmd"`
	StopGraceSec int    `toml:"stop_grace_seconds"`
}

// Extension returns the filename extension for the configured container.
func (c Config) Extension() string {
	return string(c.Container)
}

// Validate checks the snapshot against the allowed value sets.
func (c Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	switch c.Container {
	case ContainerMP4, ContainerMKV, ContainerWebM:
	default:
		return fmt.Errorf("unknown container %q (want mp4, mkv or webm)", c.Container)
	}
	switch c.Codec {
	case CodecAuto, CodecH264, CodecHEVC, CodecAV1, CodecVP8, CodecVP9:
	default:
		return fmt.Errorf("unknown codec %q", c.Codec)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	return nil
}

// Load resolves a config snapshot from defaults, the config file (if any)
// and environment overrides, and ensures the output directory exists.
func Load() (Config, error) {
	cfg := Config{
		FPS:         defaultFPS,
		Container:   ContainerMP4,
		Codec:       CodecAuto,
		OutputDir:   defaultOutputDir(),
		SelectorCmd: defaultSelectorCmd,
		CaptureCmd:  defaultCaptureCmd,
		StopGrace:   defaultStopGrace,
	}

	if path := FilePath(); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return Config{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if fc.FPS != 0 {
		cfg.FPS = fc.FPS
	}
	if fc.Container != "" {
		cfg.Container = Container(fc.Container)
	}
	if fc.Codec != "" {
		cfg.Codec = Codec(fc.Codec)
	}
	if fc.OutputDir != "" {
		cfg.OutputDir = expandTilde(fc.OutputDir)
	}
	if fc.FullOutput {
		cfg.FullOutput = true
	}
	if fc.SelectorCmd != "" {
		cfg.SelectorCmd = fc.SelectorCmd
	}
	if fc.CaptureCmd != "" {
		cfg.CaptureCmd = fc.CaptureCmd
	}
	if fc.StopGraceSec > 0 {
		cfg.StopGrace = time.Duration(fc.StopGraceSec) * time.Second
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCREENCASTD_FPS"); v != "" {
		if fps, err := strconv.Atoi(v); err == nil {
			cfg.FPS = fps
		}
	}
	if v := os.Getenv("SCREENCASTD_CONTAINER"); v != "" {
		cfg.Container = Container(v)
	}
	if v := os.Getenv("SCREENCASTD_CODEC"); v != "" {
		cfg.Codec = Codec(v)
	}
	if v := os.Getenv("SCREENCASTD_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = expandTilde(v)
	}
	if v := os.Getenv("SCREENCASTD_FULL_OUTPUT"); v != "" {
		cfg.FullOutput = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("SCREENCASTD_SELECTOR_CMD"); v != "" {
		cfg.SelectorCmd = v
	}
	if v := os.Getenv("SCREENCASTD_CAPTURE_CMD"); v != "" {
		cfg.CaptureCmd = v
	}
}

// FilePath returns the path of the config file, or "" if it does not exist.
func FilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "screencastd")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "screencastd")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultOutputDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Videos", "Screencasts")
	}
	return filepath.Join(".", "Screencasts")
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
