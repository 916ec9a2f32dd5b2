package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tillsync/internal/broadcast"
	"github.com/roach88/tillsync/internal/config"
	"github.com/roach88/tillsync/internal/engine"
	"github.com/roach88/tillsync/internal/queue"
	"github.com/roach88/tillsync/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file path
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tillsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tillsync",
		Short: "tillsync - offline-first POS order sync",
		Long:  "Inspect and drive the offline-first order synchronization engine of the POS client.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openEngine wires an engine from configuration for one command run.
// The returned closer releases the store and bus.
func openEngine(opts *RootOptions) (*engine.Engine, func(), error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "load config", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open store", err)
	}

	bus := broadcast.New(cfg.RedisURL, cfg.BroadcastChannel)

	var client queue.Client
	if cfg.APIBaseURL != "" {
		client = engine.NewHTTPClient(cfg.APIBaseURL, "")
	}

	eng := engine.New(st, queue.New(st), bus, client,
		engine.WithStabilizationDelay(cfg.StabilizationDelay))
	if client != nil {
		eng.SetOnline(true)
	}

	closer := func() {
		bus.Close()
		st.Close()
	}
	return eng, closer, nil
}
