// Package cli implements the aide command line interface over the assembly
// layer.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aidekit/aide/internal/assembly"
	"github.com/aidekit/aide/internal/config"
	"github.com/aidekit/aide/internal/storage"
	"github.com/aidekit/aide/internal/storage/boltstore"
	"github.com/aidekit/aide/internal/storage/memory"
	"github.com/aidekit/aide/internal/storage/sqlite"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Driver   string
	Path     string
	LogLevel string
	FreeTier bool
}

// NewRootCommand builds the aide root command. Flag defaults come from the
// environment so `AIDE_STORAGE_PATH=… aide render …` works without flags.
func NewRootCommand() *cobra.Command {
	cfg, err := config.Parse()
	if err != nil {
		cfg = config.Config{StorageDriver: "sqlite", StoragePath: "aide.db", LogLevel: "info"}
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "aide",
		Short:         "aide - deterministic document engine",
		Long:          "aide folds primitive event logs into canonical document snapshots and renders them to HTML or text.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", cfg.StorageDriver, "storage driver (sqlite|bolt|memory)")
	cmd.PersistentFlags().StringVar(&opts.Path, "store", cfg.StoragePath, "storage database path")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", cfg.LogLevel, "log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&opts.FreeTier, "free-tier", cfg.FreeTier, "render attribution on published copies")

	cmd.AddCommand(newCreateCommand(opts))
	cmd.AddCommand(newApplyCommand(opts))
	cmd.AddCommand(newRenderCommand(opts))
	cmd.AddCommand(newPublishCommand(opts))
	cmd.AddCommand(newForkCommand(opts))
	cmd.AddCommand(newCompactCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newRepairCommand(opts))
	return cmd
}

func (o *RootOptions) logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(o.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// openAssembly opens the configured store and wraps it in an Assembly. The
// returned closer releases the store handle.
func (o *RootOptions) openAssembly() (*assembly.Assembly, func() error, error) {
	var (
		store  storage.Store
		closer func() error
	)
	switch o.Driver {
	case "sqlite":
		s, err := sqlite.Open(o.Path)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s.Close
	case "bolt":
		s, err := boltstore.Open(o.Path)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s.Close
	case "memory":
		store, closer = memory.New(), func() error { return nil }
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", o.Driver)
	}

	asm, err := assembly.New(store, assembly.WithLogger(o.logger()))
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return asm, closer, nil
}
