package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("missing file must yield defaults, got %+v", cfg)
	}
	if cfg.AuthPlugin != "password" {
		t.Errorf("default auth plugin %q, want password", cfg.AuthPlugin)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	content := []byte("auth_url: http://auth:5000/v2.0\nregion: RegionOne\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AuthURL != "http://auth:5000/v2.0" {
		t.Errorf("auth_url %q", cfg.AuthURL)
	}
	if cfg.Region != "RegionOne" {
		t.Errorf("region %q", cfg.Region)
	}
	// Keys absent from the file keep their defaults.
	if cfg.AuthPlugin != "password" {
		t.Errorf("auth plugin %q, want password", cfg.AuthPlugin)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("auth_url: [unterminated"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error for invalid yaml")
	}
}
