package provision

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ScriptRunner runs one package.json script.
type ScriptRunner interface {
	RunScript(ctx context.Context, script string) error
}

// Runner executes "<name> run <script>" in a working directory, e.g.
// "npm run do_prod_installs".
type Runner struct {
	Name   string    // package manager binary: npm, pnpm, yarn
	Dir    string    // working directory
	Stdout io.Writer // optional; receives the script's stdout
	Stderr io.Writer // optional; receives the script's stderr
}

// NewRunner creates a Runner for the given package manager and directory.
func NewRunner(name, dir string) *Runner {
	return &Runner{Name: name, Dir: dir}
}

// RunScript runs script and returns an error carrying the tail of stderr
// when it exits non-zero.
func (r *Runner) RunScript(ctx context.Context, script string) error {
	cmd := exec.CommandContext(ctx, r.Name, "run", script)
	cmd.Dir = r.Dir

	var stderr bytes.Buffer
	cmd.Stdout = r.Stdout
	cmd.Stderr = &stderr
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, r.Stderr)
	}

	if err := cmd.Run(); err != nil {
		errMsg := lastLines(strings.TrimSpace(stderr.String()), 5)
		if errMsg == "" {
			return fmt.Errorf("%s run %s: %w", r.Name, script, err)
		}
		return fmt.Errorf("%s run %s: %s: %w", r.Name, script, errMsg, err)
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
