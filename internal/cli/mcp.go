package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tripcheck/internal/config"
	tripmcp "github.com/ppiankov/tripcheck/internal/mcp"
	"github.com/ppiankov/tripcheck/internal/reload"
)

var mcpWatch bool

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVar(&mcpWatch, "watch", true, "Reload the config file when it changes")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs tripcheck as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes tools: tripcheck_verdict, tripcheck_blocker_delta, tripcheck_diff, tripcheck_suggest.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	var source func() *config.Config
	if mcpWatch && path != "" {
		w, err := reload.New(path, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		w.OnReload = func(cfg *config.Config, hash string) {
			slog.Debug("verdict thresholds updated",
				"hash", hash,
				"go_min", cfg.Verdict.GoMin,
				"possible_min", cfg.Verdict.PossibleMin,
				"over_budget_warn", cfg.Verdict.OverBudgetWarn,
				"over_budget_block", cfg.Verdict.OverBudgetBlock,
			)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Warn("config watcher stopped", "error", err)
			}
		}()
		source = w.Current
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		source = func() *config.Config { return cfg }
	}

	srv := tripmcp.New(tripmcp.Config{
		Source:  source,
		Logger:  slog.Default(),
		Version: version,
	})

	fmt.Fprintln(os.Stderr, "tripcheck MCP server running on stdio")
	if path != "" {
		fmt.Fprintf(os.Stderr, "Config: %s\n", path)
	}
	fmt.Fprintln(os.Stderr)

	return srv.Run(ctx)
}
