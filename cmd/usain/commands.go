package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LISSConsulting/usain/internal/config"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <pipeline>/<id>...",
		Short: "Show RUNNING/FINISHED for runs until they end",
		Long: "Subscribes to the gateway job channel and shows one indicator per run.\n" +
			"Each run's starting state is fetched from Blue Ocean unless --state is given.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			opts := watchOptions{}
			opts.state, _ = cmd.Flags().GetString("state")
			opts.noTUI, _ = cmd.Flags().GetBool("no-tui")
			opts.logLevel, _ = cmd.Flags().GetString("log-level")

			ctx, cancel := signalContext()
			defer cancel()
			return executeWatch(ctx, configPath, args, opts)
		},
	}
	cmd.Flags().String("state", "", "assume this Blue Ocean state for every run instead of querying Jenkins")
	cmd.Flags().Bool("no-tui", false, "print transitions as plain lines instead of the TUI")
	cmd.Flags().String("log-level", "", "override tui.log_level (debug, info, warn, error)")
	return cmd
}

func provisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Run the one-shot package installs and remove the install hook",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dir, _ := cmd.Flags().GetString("dir")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			ctx, cancel := signalContext()
			defer cancel()
			return executeProvision(ctx, configPath, dir, dryRun, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("dir", ".", "project directory containing package.json")
	cmd.Flags().Bool("dry-run", false, "print what would be done without doing it")
	return cmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create usain.toml in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			path, err := config.InitFile(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
}
