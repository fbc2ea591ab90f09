package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Manager.QueueCapacity != 64 {
		t.Errorf("expected queue capacity 64, got %d", cfg.Manager.QueueCapacity)
	}
	if cfg.Log.Level != "disabled" {
		t.Errorf("expected disabled logging, got %q", cfg.Log.Level)
	}
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file must not be an error, got %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "engine.toml", `
[manager]
queue_capacity = 128

[log]
level = "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Manager.QueueCapacity != 128 {
		t.Errorf("expected 128, got %d", cfg.Manager.QueueCapacity)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug, got %q", cfg.Log.Level)
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "engine.toml", `
[log]
level = "info"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Manager.QueueCapacity != 64 {
		t.Errorf("absent keys must keep defaults, got %d", cfg.Manager.QueueCapacity)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "engine.toml", "[manager\nbroken")

	_, err := Load(path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Path != path {
		t.Errorf("ParseError path = %q, want %q", pe.Path, path)
	}
	if pe.Unwrap() == nil {
		t.Error("ParseError must wrap the underlying error")
	}
}

func TestLoadFromReader(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("[manager]\nqueue_capacity = 7\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Manager.QueueCapacity != 7 {
		t.Errorf("expected 7, got %d", cfg.Manager.QueueCapacity)
	}
}

func TestConfig_Logger(t *testing.T) {
	cfg := Defaults()
	if lvl := cfg.Logger(os.Stderr).GetLevel(); lvl != zerolog.Disabled {
		t.Errorf("expected disabled logger, got %v", lvl)
	}

	cfg.Log.Level = "trace"
	if lvl := cfg.Logger(os.Stderr).GetLevel(); lvl != zerolog.TraceLevel {
		t.Errorf("expected trace, got %v", lvl)
	}

	cfg.Log.Level = "not-a-level"
	if lvl := cfg.Logger(os.Stderr).GetLevel(); lvl != zerolog.Disabled {
		t.Errorf("unparseable level must disable logging, got %v", lvl)
	}
}

func TestReloaded(t *testing.T) {
	cfg := Defaults()
	e := Reloaded("/etc/engine.toml", cfg)

	if e.Name != ReloadedName {
		t.Errorf("expected %s, got %s", ReloadedName, e.Name)
	}
	p, err := e.Kwarg("path")
	if err != nil || p != "/etc/engine.toml" {
		t.Errorf("expected path kwarg, got %v (%v)", p, err)
	}
	if _, err := e.Kwarg("config"); err != nil {
		t.Errorf("expected config kwarg: %v", err)
	}
}
