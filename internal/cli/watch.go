package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/livefir/hotreload"
)

// watchCmd starts a watch session over a source root.
var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Watch a source tree and serve template patches",
	Long: `Watch a source tree for template edits and serve patches.

Examples:
  hotreload watch
  hotreload watch ./app --listen 127.0.0.1:9000
  hotreload watch --config hotreload.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

// Watch command flags
var (
	watchConfig   string
	watchListen   string
	watchDebounce int
	watchExclude  []string
)

func init() {
	watchCmd.Flags().StringVarP(&watchConfig, "config", "c", "", "Path to a YAML config file")
	watchCmd.Flags().StringVar(&watchListen, "listen", "", "Patch endpoint address (overrides config)")
	watchCmd.Flags().IntVar(&watchDebounce, "debounce", 0, "Event coalescing window in milliseconds (overrides config)")
	watchCmd.Flags().StringSliceVar(&watchExclude, "exclude", nil, "Extra directory names to skip")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg := hotreload.DefaultConfig(root)
	if watchConfig != "" {
		loaded, err := hotreload.LoadConfig(watchConfig)
		if err != nil {
			return err
		}
		cfg = loaded
		if len(args) == 1 {
			cfg.Root = root
		}
	}
	if watchListen != "" {
		cfg.Listen = watchListen
	}
	if watchDebounce != 0 {
		cfg.DebounceMS = watchDebounce
	}
	cfg.Exclude = append(cfg.Exclude, watchExclude...)

	session, err := hotreload.NewSession(cfg, newLogger())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return session.Run(ctx)
}
