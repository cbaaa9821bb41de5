package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/LISSConsulting/usain/internal/config"
	"github.com/LISSConsulting/usain/internal/gateway"
	"github.com/LISSConsulting/usain/internal/indicator"
	"github.com/LISSConsulting/usain/internal/notify"
	"github.com/LISSConsulting/usain/internal/run"
	"github.com/LISSConsulting/usain/internal/tui"
)

// isTTY reports whether stdout is a terminal.
func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// deliveryBuffer sizes the hand-off channel so that one ended event per run
// always fits, with headroom for duplicates.
func deliveryBuffer(runs int) int {
	return 16 + 2*runs
}

// runWithTUI watches runs in the bubbletea TUI until the user quits or ctx
// is cancelled. slog output is routed into the TUI event log.
func runWithTUI(ctx context.Context, cfg *config.Config, runs []run.Run, level slog.Level) error {
	logs := make(chan tui.LogLine, 256)
	deliveries := make(chan tui.Delivery, deliveryBuffer(len(runs)))

	prevLogger := slog.Default()
	logger := slog.New(tui.NewLogHandler(logs, level))
	slog.SetDefault(logger)
	defer slog.SetDefault(prevLogger)

	gw := newGateway(cfg, logger)
	if err := gw.Connect(ctx); err != nil {
		return err
	}
	defer gw.Close()

	notifier := notify.New(cfg.Notifications.URL, cfg.Project.Name, cfg.Notifications.OnFinish)
	defer notifier.Wait()

	theme := tui.NewTheme(cfg.TUI.AccentColor)
	inds, err := openIndicators(gw, runs, func(r run.Run) []indicator.Option {
		return []indicator.Option{
			indicator.WithRenderer(theme.RenderIndicator),
			indicator.WithHandoff(tui.Handoff(deliveries, r)),
			indicator.WithObserver(notifier.Hook),
		}
	})
	if err != nil {
		return err
	}
	defer closeIndicators(inds)

	model := tui.New(tui.Options{
		ProjectName: cfg.Project.Name,
		GatewayURL:  cfg.Gateway.URL,
		AccentColor: cfg.TUI.AccentColor,
		Indicators:  inds,
		Deliveries:  deliveries,
		Logs:        logs,
		Stream:      gw,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// runPlain watches runs without the TUI, printing one line per run and one
// per transition to w. It returns once every run has finished.
func runPlain(ctx context.Context, cfg *config.Config, runs []run.Run, level slog.Level, w io.Writer) error {
	prevLogger := slog.Default()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	defer slog.SetDefault(prevLogger)

	gw := newGateway(cfg, logger)
	if err := gw.Connect(ctx); err != nil {
		return err
	}
	defer gw.Close()

	notifier := notify.New(cfg.Notifications.URL, cfg.Project.Name, cfg.Notifications.OnFinish)
	defer notifier.Wait()

	p := newPrinter(w)
	events := make(chan gateway.Event, deliveryBuffer(len(runs)))
	inds, err := openIndicators(gw, runs, func(run.Run) []indicator.Option {
		return []indicator.Option{
			indicator.WithHandoff(queue(events)),
			indicator.WithObserver(func(r run.Run, s indicator.DisplayState) {
				p.print(r, s)
				notifier.Hook(r, s)
			}),
		}
	})
	if err != nil {
		return err
	}
	defer closeIndicators(inds)

	return watchPlain(ctx, inds, events, gw, p)
}

// queue returns a gateway callback that enqueues events without blocking
// the gateway reader.
func queue(ch chan<- gateway.Event) gateway.Callback {
	return func(ev gateway.Event) {
		select {
		case ch <- ev:
		default:
		}
	}
}

// watchPlain prints the starting state of every indicator, then applies
// queued events on the calling goroutine until all runs have finished, ctx
// is cancelled or the stream ends.
func watchPlain(ctx context.Context, inds []*indicator.Indicator, events <-chan gateway.Event, stream tui.Stream, p *printer) error {
	pending := 0
	for _, ind := range inds {
		p.print(ind.Run(), ind.State())
		if !ind.State().Finished() {
			pending++
		}
	}

	for pending > 0 {
		select {
		case ev := <-events:
			for _, ind := range inds {
				if ind.OnEvent(ev) {
					pending--
				}
			}
		case <-stream.Done():
			err := stream.Err()
			if err == nil {
				err = gateway.ErrStreamEnded
			}
			return fmt.Errorf("watch: %d run(s) still running: %w", pending, err)
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// printer writes timestamped, coloured indicator lines.
type printer struct {
	w   io.Writer
	now func() time.Time
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, now: time.Now}
}

func (p *printer) print(r run.Run, s indicator.DisplayState) {
	line := indicator.PlainRenderer(r, s)
	fmt.Fprintf(p.w, "[%s] %s\n", p.now().Format("15:04:05"), stateColor(s).Sprint(line))
}

// stateColor picks the colour for a display state: cyan while running,
// then by result.
func stateColor(s indicator.DisplayState) *color.Color {
	if !s.Finished() {
		return color.New(color.FgCyan)
	}
	switch s.Result {
	case "SUCCESS":
		return color.New(color.FgGreen)
	case "FAILURE":
		return color.New(color.FgRed, color.Bold)
	case "UNSTABLE":
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}
