package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadGlobal(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := &Global{DefaultProfile: "work"}
	if err := SaveGlobal(path, cfg); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}

	loaded, err := LoadGlobal(path)
	if err != nil {
		t.Fatalf("LoadGlobal() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
}

func TestLoadGlobalMissing(t *testing.T) {
	_, err := LoadGlobal("/nonexistent/config.toml")
	if err == nil {
		t.Error("LoadGlobal() expected error for missing file")
	}
}

func TestSaveAndLoadProfile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "profile.toml")

	cfg := &Profile{
		Identity: Identity{UID: "u-local", Name: "Alice"},
		Relay:    Relay{URL: "wss://relay.example/socket"},
	}
	if err := SaveProfile(path, cfg); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	loaded, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if loaded.Identity.UID != "u-local" {
		t.Errorf("Identity.UID = %q, want u-local", loaded.Identity.UID)
	}
	if loaded.Relay.URL != "wss://relay.example/socket" {
		t.Errorf("Relay.URL = %q", loaded.Relay.URL)
	}
	// Default metrics addr comes from the env tag default.
	if loaded.Metrics.Addr != "127.0.0.1:9477" {
		t.Errorf("Metrics.Addr = %q, want default 127.0.0.1:9477", loaded.Metrics.Addr)
	}
}

func TestLoadProfileMissingFileUsesEnv(t *testing.T) {
	t.Setenv("PEERCHAT_UID", "u-env")
	t.Setenv("PEERCHAT_RELAY_URL", "wss://env.example")

	cfg, err := LoadProfile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if cfg.Identity.UID != "u-env" {
		t.Errorf("Identity.UID = %q, want u-env", cfg.Identity.UID)
	}
	if cfg.Relay.URL != "wss://env.example" {
		t.Errorf("Relay.URL = %q, want wss://env.example", cfg.Relay.URL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "profile.toml")
	if err := SaveProfile(path, &Profile{Relay: Relay{URL: "wss://file.example"}}); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PEERCHAT_RELAY_URL", "wss://override.example")

	cfg, err := LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Relay.URL != "wss://override.example" {
		t.Errorf("Relay.URL = %q, want env override", cfg.Relay.URL)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := SaveGlobal(path, &Global{DefaultProfile: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
