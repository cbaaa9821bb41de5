package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"gateway.url", cfg.Gateway.URL, "http://localhost:8080/jenkins"},
		{"gateway.client_id", cfg.Gateway.ClientID, ""},
		{"gateway.request_timeout_seconds", cfg.Gateway.RequestTimeoutSeconds, 10},
		{"jenkins.organization", cfg.Jenkins.Organization, "jenkins"},
		{"tui.accent_color", cfg.TUI.AccentColor, DefaultAccentColor},
		{"tui.log_level", cfg.TUI.LogLevel, "info"},
		{"notifications.url", cfg.Notifications.URL, ""},
		{"notifications.on_finish", cfg.Notifications.OnFinish, true},
		{"provision.package_json", cfg.Provision.PackageJSON, "package.json"},
		{"provision.script", cfg.Provision.Script, "postinstall.js"},
		{"provision.hook", cfg.Provision.Hook, "postinstall"},
		{"provision.runner", cfg.Provision.Runner, "npm"},
		{"provision.scripts", strings.Join(cfg.Provision.Scripts, ","), "do_prod_installs,do_dev_installs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), `
[project]
name = "TestProject"

[gateway]
url = "https://ci.example.com/jenkins"
client_id = "usain-dev"
request_timeout_seconds = 3

[jenkins]
organization = "acme"
username = "bot"

[tui]
accent_color = "#FF00AA"
log_level = "debug"

[notifications]
url = "https://ntfy.sh/builds"
on_finish = false

[provision]
package_json = "web/package.json"
script = "setup.js"
hook = "install"
scripts = ["a", "b", "c"]
runner = "pnpm"
`)

		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}

		tests := []struct {
			name string
			got  any
			want any
		}{
			{"project.name", cfg.Project.Name, "TestProject"},
			{"gateway.url", cfg.Gateway.URL, "https://ci.example.com/jenkins"},
			{"gateway.client_id", cfg.Gateway.ClientID, "usain-dev"},
			{"gateway.request_timeout", cfg.Gateway.RequestTimeout(), 3 * time.Second},
			{"jenkins.organization", cfg.Jenkins.Organization, "acme"},
			{"jenkins.username", cfg.Jenkins.Username, "bot"},
			{"tui.accent_color", cfg.TUI.AccentColor, "#FF00AA"},
			{"tui.log_level", cfg.TUI.LogLevel, "debug"},
			{"notifications.url", cfg.Notifications.URL, "https://ntfy.sh/builds"},
			{"notifications.on_finish", cfg.Notifications.OnFinish, false},
			{"provision.package_json", cfg.Provision.PackageJSON, "web/package.json"},
			{"provision.script", cfg.Provision.Script, "setup.js"},
			{"provision.hook", cfg.Provision.Hook, "install"},
			{"provision.scripts", strings.Join(cfg.Provision.Scripts, ","), "a,b,c"},
			{"provision.runner", cfg.Provision.Runner, "pnpm"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if tt.got != tt.want {
					t.Errorf("got %v, want %v", tt.got, tt.want)
				}
			})
		}
	})

	t.Run("partial config uses defaults", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), `
[project]
name = "Partial"
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}

		if cfg.Project.Name != "Partial" {
			t.Errorf("project.name: got %q, want %q", cfg.Project.Name, "Partial")
		}
		if cfg.Gateway.URL != "http://localhost:8080/jenkins" {
			t.Errorf("gateway.url: got %q (want default)", cfg.Gateway.URL)
		}
		if cfg.Provision.Runner != "npm" {
			t.Errorf("provision.runner: got %q, want %q (default)", cfg.Provision.Runner, "npm")
		}
	})

	t.Run("empty project name is detected", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"from-pkg"}`), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(writeConfig(t, dir, "[project]\nname = \"\"\n"))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Project.Name != "from-pkg" {
			t.Errorf("project.name: got %q, want %q", cfg.Project.Name, "from-pkg")
		}
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "[gateway]\nurll = \"http://x\"\n")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "gateway.urll") {
			t.Errorf("expected unknown-key error naming gateway.urll, got %v", err)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		_, err := Load("/nonexistent/usain.toml")
		if err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid toml returns error", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "not valid [[[ toml")
		if _, err := Load(path); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origDir, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(origDir) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAutoDiscovery(t *testing.T) {
	t.Run("finds usain.toml in parent directory", func(t *testing.T) {
		root := t.TempDir()
		child := filepath.Join(root, "sub", "dir")
		if err := os.MkdirAll(child, 0755); err != nil {
			t.Fatal(err)
		}
		writeConfig(t, root, "[project]\nname = \"FoundIt\"\n")
		chdir(t, child)

		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Project.Name != "FoundIt" {
			t.Errorf("project.name: got %q, want %q", cfg.Project.Name, "FoundIt")
		}
	})

	t.Run("returns ErrNotFound when usain.toml not found anywhere", func(t *testing.T) {
		chdir(t, t.TempDir())

		_, err := Load("")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("LoadOrDefaults falls back", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)

		cfg, err := LoadOrDefaults("", dir)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Gateway.URL != Defaults().Gateway.URL {
			t.Errorf("gateway.url: got %q", cfg.Gateway.URL)
		}
		if cfg.Project.Name != filepath.Base(dir) {
			t.Errorf("project.name: got %q, want %q", cfg.Project.Name, filepath.Base(dir))
		}
	})

	t.Run("LoadOrDefaults keeps decode errors", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, "bad [[[")
		if _, err := LoadOrDefaults(path, dir); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string // "" = valid
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad gateway url", func(c *Config) { c.Gateway.URL = "localhost:8080" }, "gateway.url"},
		{"ftp gateway url", func(c *Config) { c.Gateway.URL = "ftp://host/jenkins" }, "gateway.url"},
		{"negative timeout", func(c *Config) { c.Gateway.RequestTimeoutSeconds = -1 }, "request_timeout_seconds"},
		{"client id with slash", func(c *Config) { c.Gateway.ClientID = "a/b" }, "gateway.client_id"},
		{"empty organization", func(c *Config) { c.Jenkins.Organization = "" }, "jenkins.organization"},
		{"bad accent", func(c *Config) { c.TUI.AccentColor = "purple" }, "tui.accent_color"},
		{"empty accent ok", func(c *Config) { c.TUI.AccentColor = "" }, ""},
		{"bad log level", func(c *Config) { c.TUI.LogLevel = "verbose" }, "tui.log_level"},
		{"bad notification url", func(c *Config) { c.Notifications.URL = "not a url" }, "notifications.url"},
		{"empty runner", func(c *Config) { c.Provision.Runner = "" }, "provision.runner"},
		{"empty hook", func(c *Config) { c.Provision.Hook = "" }, "provision.hook"},
		{"blank script entry", func(c *Config) { c.Provision.Scripts = []string{"a", " "} }, "provision.scripts[1]"},
		{"no scripts ok", func(c *Config) { c.Provision.Scripts = nil }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantSub == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %v should mention %q", err, tt.wantSub)
			}
		})
	}

	t.Run("reports every issue", func(t *testing.T) {
		cfg := Defaults()
		cfg.Gateway.URL = ""
		cfg.Provision.Runner = ""
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error")
		}
		for _, want := range []string{"gateway.url", "provision.runner"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q should mention %q", err, want)
			}
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJenkinsToken(t *testing.T) {
	t.Setenv(TokenEnv, "abc123")
	if got := (JenkinsConfig{}).Token(); got != "abc123" {
		t.Errorf("Token() = %q, want %q", got, "abc123")
	}
}

func TestInitFile(t *testing.T) {
	t.Run("creates usain.toml", func(t *testing.T) {
		dir := t.TempDir()
		path, err := InitFile(dir)
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(path) != FileName {
			t.Errorf("expected %s, got %s", FileName, filepath.Base(path))
		}

		// The template must load cleanly and match Defaults.
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("generated file is not valid: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("generated file does not validate: %v", err)
		}
		d := Defaults()
		if cfg.Gateway != d.Gateway || cfg.Jenkins != d.Jenkins || cfg.TUI != d.TUI || cfg.Notifications != d.Notifications {
			t.Errorf("template drifted from Defaults: %+v", cfg)
		}
	})

	t.Run("refuses to overwrite existing", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "existing")

		if _, err := InitFile(dir); err == nil {
			t.Errorf("expected error when %s already exists", FileName)
		}
	})
}
