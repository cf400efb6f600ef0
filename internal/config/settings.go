package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the startup configuration, loaded from an optional YAML file.
// Zero-valued fields keep their defaults so a partial file only overrides
// what it names.
type Settings struct {
	Seed int64 `yaml:"seed"`

	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
	WindowTitle  string `yaml:"window_title"`

	LoadRadius  int `yaml:"load_radius"`
	LoadRadiusY int `yaml:"load_radius_y"`

	CacheDir     string  `yaml:"cache_dir"`
	MouseSens    float64 `yaml:"mouse_sensitivity"`
	FlySpeedMult float64 `yaml:"fly_speed_mult"`
}

// DefaultSettings returns the configuration used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		Seed:         1337,
		WindowWidth:  1280,
		WindowHeight: 720,
		WindowTitle:  "isoterra",
		LoadRadius:   4,
		LoadRadiusY:  2,
		CacheDir:     "",
		MouseSens:    0.002,
		FlySpeedMult: 3,
	}
}

// LoadSettings reads path and overlays it onto the defaults. A missing file
// is not an error; a malformed one is.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return s, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

func (s Settings) validate() error {
	if s.WindowWidth <= 0 || s.WindowHeight <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", s.WindowWidth, s.WindowHeight)
	}
	if s.LoadRadius < 1 || s.LoadRadiusY < 1 {
		return fmt.Errorf("load radii %d/%d must be at least 1", s.LoadRadius, s.LoadRadiusY)
	}
	if s.MouseSens <= 0 {
		return fmt.Errorf("mouse sensitivity %g must be positive", s.MouseSens)
	}
	return nil
}

// Apply pushes the streaming fields into the live settings.
func (s Settings) Apply() {
	SetLoadRadius(s.LoadRadius, s.LoadRadiusY)
}
