package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("settings %+v, want defaults %+v", s, DefaultSettings())
	}
}

func TestLoadSettingsPartialOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isoterra.yaml")
	body := "seed: 99\nload_radius: 6\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Seed != 99 {
		t.Errorf("Seed = %d, want 99", s.Seed)
	}
	if s.LoadRadius != 6 {
		t.Errorf("LoadRadius = %d, want 6", s.LoadRadius)
	}
	// Unnamed fields keep their defaults.
	if s.WindowWidth != DefaultSettings().WindowWidth {
		t.Errorf("WindowWidth = %d, want default %d", s.WindowWidth, DefaultSettings().WindowWidth)
	}
}

func TestLoadSettingsRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isoterra.yaml")
	if err := os.WriteFile(path, []byte("seed: [not an int\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestLoadSettingsValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isoterra.yaml")
	if err := os.WriteFile(path, []byte("window_width: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("invalid window size accepted")
	}
}

func TestStreamSettingsClamped(t *testing.T) {
	defer SetLoadRadius(4, 2) // restore defaults for other tests

	SetLoadRadius(100, 100)
	if GetLoadRadius() != 16 || GetLoadRadiusY() != 8 {
		t.Errorf("radii %d/%d after oversized set, want clamped 16/8", GetLoadRadius(), GetLoadRadiusY())
	}

	SetLoadRadius(0, 0)
	if GetLoadRadius() != 1 || GetLoadRadiusY() != 1 {
		t.Errorf("radii %d/%d after undersized set, want clamped 1/1", GetLoadRadius(), GetLoadRadiusY())
	}
}

func TestEvictRadiusExceedsLoadRadius(t *testing.T) {
	defer SetLoadRadius(4, 2)

	SetLoadRadius(5, 3)
	if GetEvictRadius() <= GetLoadRadius() {
		t.Errorf("evict radius %d not larger than load radius %d", GetEvictRadius(), GetLoadRadius())
	}
	if GetEvictRadiusY() <= GetLoadRadiusY() {
		t.Errorf("evict radius Y %d not larger than load radius Y %d", GetEvictRadiusY(), GetLoadRadiusY())
	}
}
