package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LISSConsulting/usain/internal/config"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()
	want := map[string]bool{"watch": false, "provision": false, "init": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command missing %q", name)
		}
	}
	if root.Version != version {
		t.Errorf("Version = %q, want %q", root.Version, version)
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("root should have a --config flag")
	}
}

func TestWatchCmd_Flags(t *testing.T) {
	cmd := watchCmd()
	for _, name := range []string{"state", "no-tui", "log-level"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("watch missing --%s", name)
		}
	}
	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("watch with no runs should be rejected")
	}
}

func TestProvisionCmd_Flags(t *testing.T) {
	cmd := provisionCmd()
	if f := cmd.Flags().Lookup("dir"); f == nil || f.DefValue != "." {
		t.Errorf("provision --dir should default to \".\"")
	}
	if cmd.Flags().Lookup("dry-run") == nil {
		t.Error("provision missing --dry-run")
	}
}

func TestInitCmd_CreatesConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"init"})
	if err := root.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), "Created") {
		t.Errorf("expected Created message, got %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err != nil {
		t.Errorf("expected %s to exist: %v", config.FileName, err)
	}

	root = rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"init"})
	if err := root.Execute(); err == nil {
		t.Error("second init should refuse to overwrite")
	}
}

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
