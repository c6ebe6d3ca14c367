// Package cli implements transferctl.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"transfer-dapp-api/internal/app"
	"transfer-dapp-api/internal/config"
	"transfer-dapp-api/pkg/logger"
)

type options struct {
	envFile string
	output  string
}

// NewRootCmd builds the command tree. Every subcommand loads configuration
// from the environment and the --env file.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "transferctl",
		Short:         "Connect a wallet, send transfers and read the transfer ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "Environment file to load when present")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "plain", "Output format: plain|json")

	root.AddCommand(
		newServeCmd(opts),
		newConnectCmd(opts),
		newHistoryCmd(opts),
		newCountCmd(opts),
		newSendCmd(opts),
		newUnreconciledCmd(opts),
	)
	return root
}

// withApp loads config, builds the app for the duration of fn and closes it.
func withApp(ctx context.Context, opts *options, w io.Writer, fn func(*app.App) error) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	log := logger.New(w, cfg.LogLevel)
	if opts.output == "json" {
		log = log.Level(zerolog.ErrorLevel)
	}
	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func render(w io.Writer, opts *options, v interface{}, plain func(io.Writer)) error {
	if opts.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if opts.output != "plain" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	plain(w)
	return nil
}
