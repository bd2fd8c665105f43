package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfig_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("serve:\n  port: 9999\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestFindConfig_SearchPath(t *testing.T) {
	// When no config exists anywhere, should error. Override
	// searchPathsFunc to avoid finding real config files on
	// developer/deploy machines.
	dir := t.TempDir()
	orig := searchPathsFunc
	searchPathsFunc = func() []string {
		return []string{filepath.Join(dir, "config.yaml")}
	}
	defer func() { searchPathsFunc = orig }()

	_, err := FindConfig("")
	if err == nil {
		t.Fatal("FindConfig(\"\") with no config files should error")
	}
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("serve:\n  port: 8080\n"), 0600)

	orig, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(orig)

	got, err := FindConfig("")
	if err != nil {
		t.Fatalf("FindConfig(\"\") error: %v", err)
	}
	if got != "config.yaml" {
		t.Errorf("FindConfig(\"\") = %q, want %q", got, "config.yaml")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("serve:\n  bus_url: ${LCMWS_TEST_BUS_URL}\n"), 0600)
	os.Setenv("LCMWS_TEST_BUS_URL", "udpm://239.255.76.67:7667?ttl=1")
	defer os.Unsetenv("LCMWS_TEST_BUS_URL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Serve.BusURL != "udpm://239.255.76.67:7667?ttl=1" {
		t.Errorf("bus_url = %q, want expanded value", cfg.Serve.BusURL)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("serve:\n  channel: CAMERA.*\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Serve.Port != 8765 {
		t.Errorf("port = %d, want default 8765", cfg.Serve.Port)
	}
	if cfg.Serve.Handler != "json" {
		t.Errorf("handler = %q, want default %q", cfg.Serve.Handler, "json")
	}
	if cfg.Serve.Channel != "CAMERA.*" {
		t.Errorf("channel = %q, want %q (explicit value preserved)", cfg.Serve.Channel, "CAMERA.*")
	}
}

func TestValidate_BadChannelRegex(t *testing.T) {
	cfg := Default()
	cfg.Serve.Channel = "(unterminated"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for invalid channel regex")
	}
}

func TestValidate_BadHandler(t *testing.T) {
	cfg := Default()
	cfg.Serve.Handler = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for unknown handler")
	}
}

func TestValidate_QualityOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.Serve.Quality = 101

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for quality out of range")
	}
}

func TestValidate_PortOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.Serve.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for port out of range")
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() config should validate cleanly, got: %v", err)
	}
}
