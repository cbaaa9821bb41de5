package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/LISSConsulting/usain/internal/config"
	"github.com/LISSConsulting/usain/internal/gateway"
	"github.com/LISSConsulting/usain/internal/indicator"
	"github.com/LISSConsulting/usain/internal/jenkins"
	"github.com/LISSConsulting/usain/internal/provision"
	"github.com/LISSConsulting/usain/internal/run"
)

type watchOptions struct {
	state    string // --state; empty = ask Jenkins
	noTUI    bool
	logLevel string // --log-level; empty = config
}

// runLookup fetches a run's current state. *jenkins.Client satisfies it.
type runLookup interface {
	Run(ctx context.Context, pipeline, id string) (run.Run, error)
}

// loadConfig loads usain.toml (or defaults when there is none) and validates it.
func loadConfig(path string) (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := config.LoadOrDefaults(path, dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// executeWatch resolves the runs, connects to the gateway, creates one
// indicator per run and hands them to the TUI or the plain printer.
func executeWatch(ctx context.Context, configPath string, args []string, opts watchOptions) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	levelName := cfg.TUI.LogLevel
	if opts.logLevel != "" {
		levelName = opts.logLevel
	}
	level, err := config.ParseLogLevel(levelName)
	if err != nil {
		return err
	}

	refs, err := parseRefs(args)
	if err != nil {
		return err
	}

	var lookup runLookup
	if opts.state == "" {
		lookup = jenkins.New(cfg.Gateway.URL, cfg.Jenkins.Organization, cfg.Jenkins.Username,
			cfg.Jenkins.Token(), cfg.Gateway.RequestTimeout())
	}
	runs, err := resolveRuns(ctx, refs, opts.state, lookup)
	if err != nil {
		return err
	}

	if opts.noTUI || !isTTY() {
		return runPlain(ctx, cfg, runs, level, os.Stdout)
	}
	return runWithTUI(ctx, cfg, runs, level)
}

// parseRefs parses pipeline/id arguments, dropping duplicates.
func parseRefs(args []string) ([]run.Ref, error) {
	seen := make(map[run.Ref]bool, len(args))
	refs := make([]run.Ref, 0, len(args))
	for _, a := range args {
		ref, err := run.ParseRef(a)
		if err != nil {
			return nil, err
		}
		if seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs, nil
}

// resolveRuns builds a run.Run for every ref: from state when it is set,
// otherwise from lookup.
func resolveRuns(ctx context.Context, refs []run.Ref, state string, lookup runLookup) ([]run.Run, error) {
	runs := make([]run.Run, 0, len(refs))
	if state != "" {
		st, err := run.ParseState(state)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			runs = append(runs, run.Run{Pipeline: ref.Pipeline, ID: ref.ID, State: st})
		}
		return runs, nil
	}

	if lookup == nil {
		return nil, errors.New("watch: no run lookup configured")
	}
	for _, ref := range refs {
		r, err := lookup.Run(ctx, ref.Pipeline, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("watch: %s: %w", ref, err)
		}
		runs = append(runs, r)
	}
	return runs, nil
}

// newGateway creates a gateway client for cfg that logs through logger.
func newGateway(cfg *config.Config, logger *slog.Logger) *gateway.Client {
	return gateway.New(cfg.Gateway.URL,
		gateway.WithClientID(cfg.Gateway.ClientID),
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.Gateway.RequestTimeout()}),
		gateway.WithLogger(logger),
	)
}

// openIndicators creates one indicator per run. If any subscription fails,
// the indicators already created are closed and the error is returned.
func openIndicators(bus indicator.Bus, runs []run.Run, opts func(run.Run) []indicator.Option) ([]*indicator.Indicator, error) {
	inds := make([]*indicator.Indicator, 0, len(runs))
	for _, r := range runs {
		ind, err := indicator.New(bus, r, opts(r)...)
		if err != nil {
			closeIndicators(inds)
			return nil, err
		}
		inds = append(inds, ind)
	}
	return inds, nil
}

func closeIndicators(inds []*indicator.Indicator) {
	for _, ind := range inds {
		ind.Close()
	}
}

// executeProvision runs (or with dryRun, prints) the provisioning task for
// the project in dir. An already provisioned project is not an error.
func executeProvision(ctx context.Context, configPath, dir string, dryRun bool, w io.Writer) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	pc := cfg.Provision
	runner := provision.NewRunner(pc.Runner, abs)
	runner.Stdout = w
	runner.Stderr = os.Stderr
	task := &provision.Task{
		Dir:         abs,
		PackageJSON: pc.PackageJSON,
		Script:      pc.Script,
		Hook:        pc.Hook,
		Scripts:     pc.Scripts,
		Runner:      runner,
		Logger:      slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	if dryRun {
		plan, err := task.Plan()
		if errors.Is(err, provision.ErrAlreadyProvisioned) {
			fmt.Fprintln(w, "Already provisioned: nothing to do.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprint(w, plan.String())
		return nil
	}

	_, err = task.Run(ctx)
	switch {
	case errors.Is(err, provision.ErrAlreadyProvisioned):
		fmt.Fprintln(w, "Already provisioned: nothing to do.")
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintln(w, "Provisioned.")
	return nil
}
