// Package app wires the provider from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"transfer-dapp-api/internal/cache"
	"transfer-dapp-api/internal/config"
	"transfer-dapp-api/internal/db"
	"transfer-dapp-api/internal/graph"
	"transfer-dapp-api/internal/ledger"
	"transfer-dapp-api/internal/metrics"
	"transfer-dapp-api/internal/notify"
	"transfer-dapp-api/internal/session"
	"transfer-dapp-api/internal/transfer"
	"transfer-dapp-api/internal/wallet"
	"transfer-dapp-api/pkg/graphql"
)

type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Session  *session.Manager
	Workflow *transfer.Workflow
	Resolver *graph.Resolver
	AlertLog *notify.Log
	Journal  transfer.Journal

	node     *ethclient.Client
	walletRC *wallet.RPC
	cacheDB  *badger.DB
	store    *db.Store
}

// Build dials the node and wallet and opens the stores. Nothing is read
// from the chain until Workflow.Init.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}

	var err error
	if a.node, err = ethclient.DialContext(ctx, cfg.EthRPCURL); err != nil {
		return nil, fmt.Errorf("dial node: %w", err)
	}

	// Keep w and sender as untyped nils when no wallet is configured.
	var (
		w      wallet.Wallet
		sender ledger.Sender
	)
	if cfg.WalletRPCURL != "" {
		if a.walletRC, err = wallet.Dial(ctx, cfg.WalletRPCURL); err != nil {
			a.Close()
			return nil, fmt.Errorf("dial wallet: %w", err)
		}
		w, sender = a.walletRC, a.walletRC
	} else {
		logger.Warn().Msg("WALLET_RPC_URL not set, running without a wallet")
	}

	contract, err := ledger.NewContract(cfg.ContractAddress, a.node, sender, cfg.PollInterval)
	if err != nil {
		a.Close()
		return nil, err
	}

	if a.cacheDB, err = cache.Open(cfg.CacheDir); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		if a.store, err = db.Open(ctx, cfg.DatabaseURL); err != nil {
			a.Close()
			return nil, err
		}
		if err := a.store.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.Journal = a.store
	} else {
		a.Journal = db.NewMemoryJournal()
	}

	m := metrics.New(a.Registry)
	a.AlertLog = notify.NewLog(logger, 0)
	a.Session = session.NewManager(w, a.AlertLog, m, logger)
	a.Workflow = transfer.New(transfer.Deps{
		Session: a.Session,
		Ledger:  contract,
		Cache:   cache.NewCountCache(a.cacheDB, logger),
		Journal: a.Journal,
		Alerts:  a.AlertLog,
		Metrics: m,
		Logger:  logger,
	}, transfer.Config{ConfirmTimeout: cfg.ConfirmTimeout})
	a.Session.SetHistoryLoader(a.Workflow)
	a.Resolver = &graph.Resolver{Session: a.Session, Workflow: a.Workflow, AlertLog: a.AlertLog}
	return a, nil
}

// Router serves the GraphQL endpoint, metrics and a health probe.
func (a *App) Router() (*mux.Router, error) {
	handler, err := graphql.NewHandler(a.Resolver)
	if err != nil {
		return nil, err
	}
	return NewRouter(handler, a.Registry), nil
}

func NewRouter(query http.Handler, reg *prometheus.Registry) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/query", query).Methods(http.MethodPost, http.MethodOptions)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return router
}

func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("close journal")
		}
	}
	if a.cacheDB != nil {
		if err := a.cacheDB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("close cache")
		}
	}
	if a.walletRC != nil {
		a.walletRC.Close()
	}
	if a.node != nil {
		a.node.Close()
	}
}
