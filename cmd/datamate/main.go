package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hession/datamate/internal/agent"
	"github.com/hession/datamate/internal/cli"
	"github.com/hession/datamate/internal/config"
	"github.com/hession/datamate/internal/server"
	"github.com/hession/datamate/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	version = cli.Version
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "datamate",
		Short: "DataMate - Your Business Data Assistant",
		Long: `DataMate answers plain-language questions about a sales dataset.

It can:
  • List customer names and top products
  • Total sales for a region
  • Report the average price
  • Open a support ticket`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configDir != "" {
				config.SetConfigDir(configDir)
			}
		},
		RunE: runREPL,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ./config)")

	rootCmd.AddCommand(
		newAskCmd(),
		newSummaryCmd(),
		newServeCmd(),
		newToolsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func runREPL(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !a.cfg.IsAPIKeyConfigured() {
		apiKey, err := cli.ReadAPIKey(out)
		if err != nil {
			return err
		}
		a.cfg.Model.APIKey = apiKey
	}

	ag, err := a.newAgent(nil, agent.WithToolCallHandler(cli.ToolCallOutput(out)))
	if err != nil {
		return err
	}

	commands := cli.NewCommands(a.store, a.registry, a.cfg)
	cli.NewSession(ctx, ag, commands, a.prompts.GetExamples(), out).Run()
	return nil
}

func newAskCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ag, err := a.newAgent(nil)
			if err != nil {
				return err
			}

			turn := ag.Ask(ctx, strings.Join(args, " "))
			if asJSON {
				return writeJSON(cmd, turn)
			}
			fmt.Fprintln(cmd.OutOrStdout(), turn.Reply)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full turn as JSON")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show row count, columns, totals and sample rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := store.Summarize(cmd.Context(), a.store)
			if err != nil {
				return fmt.Errorf("failed to summarize dataset: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, summary)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderSummary(summary))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve questions, summary and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			ag, err := a.newAgent(registry)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := server.New(ag, a.store, a.registry, server.Options{
				Addr:     addr,
				Log:      a.log.With().Str("component", "server").Logger(),
				Gatherer: registry,
			})
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the data tools the assistant can use",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTools(a.registry.List()))
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.String())

			path, _ := config.ConfigPath()
			fmt.Fprintf(cmd.OutOrStdout(), "\nConfig file path: %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "DataMate v%s\n", version)
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
