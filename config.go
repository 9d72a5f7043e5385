package umbrella

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable that overrides the config path.
const ConfigEnv = "UMBRELLA_CONFIG"

// Config holds the runtime settings of the engine and its window.
type Config struct {
	// Window
	Title        string `yaml:"title"`
	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
	TPS          int    `yaml:"tps"`

	// Render target, also the reference dimensions of every draw
	RenderWidth  int `yaml:"render_width"`
	RenderHeight int `yaml:"render_height"`

	// Assets
	Root        string `yaml:"root"`
	ImagesRoot  string `yaml:"images_root"`
	MapRoot     string `yaml:"map_root"`
	ScriptsRoot string `yaml:"scripts_root"` // defaults to map_root
	Map         string `yaml:"map"`

	// Simulation
	CollisionMargin float64 `yaml:"collision_margin"`
	Gravity         float64 `yaml:"gravity"`

	// Diagnostics
	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`
}

// DefaultConfig returns Config with the engine's stock settings.
func DefaultConfig() Config {
	return Config{
		Title:           "Umbrella is a verb",
		WindowWidth:     768,
		WindowHeight:    768,
		TPS:             60,
		RenderWidth:     DefaultReferenceSize,
		RenderHeight:    DefaultReferenceSize,
		Root:            ".",
		ImagesRoot:      "assets/images",
		MapRoot:         "assets/tiled",
		Map:             "assets/tiled/Finite.tmx",
		CollisionMargin: DefaultCollisionMargin,
		Gravity:         DefaultGravity,
		LogLevel:        "info",
	}
}

// LoadConfig loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigPath returns the config path from the environment, or def.
func ConfigPath(def string) string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	return def
}

// Validate checks the settings that would otherwise fail later.
func (c Config) Validate() error {
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.WindowWidth, c.WindowHeight)
	}
	if c.RenderWidth <= 0 || c.RenderHeight <= 0 {
		return fmt.Errorf("render size %dx%d must be positive", c.RenderWidth, c.RenderHeight)
	}
	if c.TPS <= 0 {
		return fmt.Errorf("tps %d must be positive", c.TPS)
	}
	if c.CollisionMargin < 0 {
		return fmt.Errorf("collision margin %v must not be negative", c.CollisionMargin)
	}
	if c.Map == "" {
		return fmt.Errorf("map path is empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Scripts returns the scripts root, falling back to the map root.
func (c Config) Scripts() string {
	if c.ScriptsRoot != "" {
		return c.ScriptsRoot
	}
	return c.MapRoot
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
