package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"transfer-dapp-api/internal/app"
	"transfer-dapp-api/internal/model"
	"transfer-dapp-api/internal/units"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the GraphQL provider, metrics and health endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, opts, cmd.ErrOrStderr(), func(a *app.App) error {
				return Serve(ctx, a)
			})
		},
	}
}

// Serve runs the HTTP server until ctx is done.
func Serve(ctx context.Context, a *app.App) error {
	a.Workflow.Init(ctx)
	router, err := a.Router()
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: a.Config.ListenAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", srv.Addr).Msg("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Logger.Info().Msg("Server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newConnectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Request wallet authorization and print the connected account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, cmd.ErrOrStderr(), func(a *app.App) error {
				account, err := a.Session.Connect(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts, map[string]string{"account": account.Hex()}, func(w io.Writer) {
					fmt.Fprintln(w, account.Hex())
				})
			})
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List every transfer recorded on the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, cmd.ErrOrStderr(), func(a *app.App) error {
				records := a.Workflow.LoadHistory(cmd.Context())
				return render(cmd.OutOrStdout(), opts, records, func(w io.Writer) {
					for _, r := range records {
						fmt.Fprintf(w, "%s  %s -> %s  %s ETH  %s  %s\n",
							r.Timestamp, r.AddressFrom, r.AddressTo, r.Amount, r.Keyword, r.Message)
					}
				})
			})
		},
	}
}

func newCountCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Read the ledger's transfer count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, cmd.ErrOrStderr(), func(a *app.App) error {
				count, err := a.Workflow.RefreshCount(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts, map[string]int64{"count": count}, func(w io.Writer) {
					fmt.Fprintln(w, count)
				})
			})
		},
	}
}

func newSendCmd(opts *options) *cobra.Command {
	var form model.TransferFormData
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a transfer from the connected account and record it on the ledger",
		Example: `  transferctl send --to 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 --amount 0.01 \
    --keyword coffee --message "thanks"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, cmd.ErrOrStderr(), func(a *app.App) error {
				a.Workflow.Init(cmd.Context())
				a.Workflow.SetForm(form)
				receipt, err := a.Workflow.Submit(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts, receipt, func(w io.Writer) {
					fmt.Fprintf(w, "sent %s ETH to %s\nvalue tx:  %s\nrecord tx: %s\ncount:     %d\n",
						units.FormatAmount(receipt.BaseUnits), receipt.To.Hex(),
						receipt.ValueTxHash.Hex(), receipt.RecordTxHash.Hex(), receipt.Count)
				})
			})
		},
	}
	cmd.Flags().StringVar(&form.AddressTo, "to", "", "Recipient address")
	cmd.Flags().StringVar(&form.Amount, "amount", "", "Amount in ETH")
	cmd.Flags().StringVar(&form.Keyword, "keyword", "", "Keyword stored with the record")
	cmd.Flags().StringVar(&form.Message, "message", "", "Message stored with the record")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newUnreconciledCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "unreconciled",
		Short: "List submissions whose value was sent but never recorded",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, cmd.ErrOrStderr(), func(a *app.App) error {
				subs, err := a.Workflow.Unreconciled(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts, subs, func(w io.Writer) {
					for _, s := range subs {
						fmt.Fprintf(w, "%s  %s -> %s  %s wei  value tx %s  %s\n",
							s.ID, s.From, s.To, s.Amount, s.ValueTxHash, s.Reason)
					}
				})
			})
		},
	}
}
