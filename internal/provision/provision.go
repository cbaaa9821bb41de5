// Package provision implements the one-shot install step: run the extra
// package installs declared in package.json, then remove the install hook
// and its script so the step never runs again.
package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrAlreadyProvisioned is returned when neither the install hook nor the
// script file remains.
var ErrAlreadyProvisioned = errors.New("provision: already provisioned")

// Task describes one provisioning run.
type Task struct {
	Dir         string   // project directory; relative paths resolve against it
	PackageJSON string   // manifest path, e.g. "package.json"
	Script      string   // self-deleting script, e.g. "postinstall.js"
	Hook        string   // scripts key that invokes Script, e.g. "postinstall"
	Scripts     []string // scripts to run, in order
	Runner      ScriptRunner
	Logger      *slog.Logger
}

// Plan is what Run will do (or did).
type Plan struct {
	Run        []string // scripts to execute, in order
	Skipped    []string // configured scripts not declared in package.json
	RemoveKeys []string // scripts.* keys to delete from package.json
	DeleteFile string   // absolute script path, or "" when it is already gone
}

// String renders the plan for --dry-run output.
func (p Plan) String() string {
	var b strings.Builder
	for _, s := range p.Run {
		fmt.Fprintf(&b, "run     %s\n", s)
	}
	for _, s := range p.Skipped {
		fmt.Fprintf(&b, "skip    %s (not in package.json)\n", s)
	}
	for _, k := range p.RemoveKeys {
		fmt.Fprintf(&b, "remove  scripts.%s\n", k)
	}
	if p.DeleteFile != "" {
		fmt.Fprintf(&b, "delete  %s\n", p.DeleteFile)
	}
	return b.String()
}

func (t *Task) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(t.Dir, p)
}

func (t *Task) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

// Plan inspects package.json and the script file without changing anything.
// It returns ErrAlreadyProvisioned when there is nothing left to do.
func (t *Task) Plan() (Plan, error) {
	data, err := os.ReadFile(t.path(t.PackageJSON))
	if err != nil {
		return Plan{}, fmt.Errorf("provision: read manifest: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return Plan{}, fmt.Errorf("provision: %s is not valid JSON", t.PackageJSON)
	}
	scripts := gjson.GetBytes(data, "scripts")

	var plan Plan
	hookPresent := scripts.Get(escapeKey(t.Hook)).Exists()
	if hookPresent {
		plan.RemoveKeys = append(plan.RemoveKeys, t.Hook)
	}

	scriptPath := t.path(t.Script)
	switch _, err := os.Stat(scriptPath); {
	case err == nil:
		plan.DeleteFile = scriptPath
	case !errors.Is(err, fs.ErrNotExist):
		return Plan{}, fmt.Errorf("provision: stat script: %w", err)
	}

	if !hookPresent && plan.DeleteFile == "" {
		return Plan{}, ErrAlreadyProvisioned
	}

	for _, s := range t.Scripts {
		if !scripts.Get(escapeKey(s)).Exists() {
			plan.Skipped = append(plan.Skipped, s)
			continue
		}
		plan.Run = append(plan.Run, s)
		if s != t.Hook {
			plan.RemoveKeys = append(plan.RemoveKeys, s)
		}
	}
	return plan, nil
}

// Run executes the plan: each script in order, stopping at the first
// failure with package.json and the script file untouched; then the hook and
// script keys are removed from package.json and the script file is deleted
// if it still exists.
func (t *Task) Run(ctx context.Context) (Plan, error) {
	log := t.logger()
	plan, err := t.Plan()
	if err != nil {
		return Plan{}, err
	}
	if t.Runner == nil {
		return plan, errors.New("provision: no script runner")
	}

	for _, s := range plan.Skipped {
		log.Warn("script not declared, skipping", "script", s)
	}
	for _, s := range plan.Run {
		log.Info("running script", "script", s)
		if err := t.Runner.RunScript(ctx, s); err != nil {
			return plan, fmt.Errorf("provision: %w", err)
		}
	}

	if len(plan.RemoveKeys) > 0 {
		if err := t.rewriteManifest(plan.RemoveKeys); err != nil {
			return plan, err
		}
		log.Info("removed install scripts", "manifest", t.PackageJSON, "keys", plan.RemoveKeys)
	}

	if plan.DeleteFile != "" {
		if err := removeIfExists(plan.DeleteFile); err != nil {
			return plan, err
		}
		log.Info("deleted install script", "path", plan.DeleteFile)
	}
	return plan, nil
}

// rewriteManifest deletes scripts.<key> for every key, keeping the order of
// everything else, and re-indents the file with two spaces.
func (t *Task) rewriteManifest(keys []string) error {
	path := t.path(t.PackageJSON)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("provision: stat manifest: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("provision: read manifest: %w", err)
	}

	out, err := RemoveScripts(data, keys)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("provision: write manifest: %w", err)
	}
	return nil
}

// RemoveScripts returns manifest with scripts.<key> deleted for each key,
// indented with two spaces. A trailing newline is kept if manifest had one.
func RemoveScripts(manifest []byte, keys []string) ([]byte, error) {
	out := manifest
	for _, k := range keys {
		var err error
		out, err = sjson.DeleteBytes(out, "scripts."+escapeKey(k))
		if err != nil {
			return nil, fmt.Errorf("provision: delete scripts.%s: %w", k, err)
		}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(out), "", "  "); err != nil {
		return nil, fmt.Errorf("provision: indent manifest: %w", err)
	}
	if bytes.HasSuffix(manifest, []byte("\n")) {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// removeIfExists deletes path only when it is present.
func removeIfExists(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("provision: delete script: %w", err)
	}
	return nil
}

// escapeKey escapes the gjson/sjson path metacharacters in a single key.
func escapeKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
