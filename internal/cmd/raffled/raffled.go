// Package raffled parses raffle daemon flags and starts the HTTP runtime.
package raffled

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/0xGIDHUB/raffle-engine/internal/api"
	entrypoint "github.com/0xGIDHUB/raffle-engine/internal/platform/cmd"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/oracle"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/payout"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/service"
	"github.com/0xGIDHUB/raffle-engine/internal/storage"
	"github.com/0xGIDHUB/raffle-engine/internal/storage/bbolt"
	"github.com/0xGIDHUB/raffle-engine/internal/storage/memory"
	"github.com/0xGIDHUB/raffle-engine/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Config holds raffle daemon configuration.
type Config struct {
	Port             int    `env:"RAFFLE_ENGINE_PORT" envDefault:"8080"`
	Addr             string `env:"RAFFLE_ENGINE_ADDR"`
	DBPath           string `env:"RAFFLE_ENGINE_DB_PATH"`
	LedgerPath       string `env:"RAFFLE_ENGINE_LEDGER_PATH"`
	PoolAddress      string `env:"RAFFLE_ENGINE_POOL_ADDRESS" envDefault:"0x0000000000000000000000000000000000000001"`
	PayoutPolicy     string `env:"RAFFLE_ENGINE_PAYOUT_POLICY" envDefault:"atomic"`
	KeyHash          string `env:"RAFFLE_ENGINE_KEY_HASH" envDefault:"0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"`
	SubscriptionID   uint64 `env:"RAFFLE_ENGINE_SUBSCRIPTION_ID" envDefault:"1"`
	CallbackGasLimit uint32 `env:"RAFFLE_ENGINE_CALLBACK_GAS_LIMIT" envDefault:"500000"`
	AutoFulfill      bool   `env:"RAFFLE_ENGINE_AUTO_FULFILL" envDefault:"true"`
}

// ParseConfig parses environment and flags into a Config. Flags win over
// environment values, which win over defaults.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The daemon port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The daemon listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite path for snapshot and journal (in-memory store when empty)")
	fs.StringVar(&cfg.LedgerPath, "ledger", cfg.LedgerPath, "Bolt path for the ledger (in-memory ledger when empty)")
	fs.StringVar(&cfg.PayoutPolicy, "payout-policy", cfg.PayoutPolicy, "Payout policy: atomic or partial-commit")
	fs.BoolVar(&cfg.AutoFulfill, "auto-fulfill", cfg.AutoFulfill, "Fulfill randomness requests automatically")
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the raffle daemon.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRaffled, func(ctx context.Context) error {
		svc, cleanup, err := buildService(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		addr := cfg.Addr
		if addr == "" {
			addr = fmt.Sprintf(":%d", cfg.Port)
		}
		return serve(ctx, addr, api.NewRouter(api.NewHandler(svc)))
	})
}

func buildService(ctx context.Context, cfg Config) (*service.Service, func(), error) {
	cleanup := func() {}

	pool, err := domain.ParseAddress(cfg.PoolAddress)
	if err != nil {
		return nil, cleanup, fmt.Errorf("pool address: %w", err)
	}
	policy, err := payout.ParsePolicy(cfg.PayoutPolicy)
	if err != nil {
		return nil, cleanup, err
	}

	var snapshots storage.RaffleStore
	var events storage.EventStore
	if cfg.DBPath != "" {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open sqlite store: %w", err)
		}
		prev := cleanup
		cleanup = func() {
			if err := store.Close(); err != nil {
				log.Printf("close sqlite store: %v", err)
			}
			prev()
		}
		snapshots, events = store, store
		log.Printf("snapshot and journal on sqlite at %s", cfg.DBPath)
	} else {
		store := memory.NewStore()
		snapshots, events = store, store
	}

	var ledger storage.Ledger
	if cfg.LedgerPath != "" {
		boltLedger, err := bbolt.Open(cfg.LedgerPath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open ledger: %w", err)
		}
		prev := cleanup
		cleanup = func() {
			if err := boltLedger.Close(); err != nil {
				log.Printf("close ledger: %v", err)
			}
			prev()
		}
		ledger = boltLedger
		log.Printf("ledger on bolt at %s", cfg.LedgerPath)
	} else {
		ledger = memory.NewLedger()
	}

	var opts []oracle.Option
	if cfg.AutoFulfill {
		opts = append(opts, oracle.WithAutoFulfill())
	}
	coordinator, err := oracle.NewCoordinator(opts...)
	if err != nil {
		return nil, cleanup, err
	}

	raffle, err := restoreSnapshot(ctx, snapshots)
	if err != nil {
		return nil, cleanup, err
	}

	svc, err := service.NewService(service.Params{
		Raffle:           raffle,
		Oracle:           coordinator,
		Payout:           payout.NewEngine(ledger, policy),
		Ledger:           ledger,
		Events:           events,
		Snapshots:        snapshots,
		Pool:             pool,
		KeyHash:          cfg.KeyHash,
		SubscriptionID:   cfg.SubscriptionID,
		CallbackGasLimit: cfg.CallbackGasLimit,
	})
	if err != nil {
		return nil, cleanup, err
	}
	coordinator.SetConsumer(svc)

	return svc, cleanup, nil
}

// restoreSnapshot loads the persisted raffle, nil when none was saved yet.
func restoreSnapshot(ctx context.Context, snapshots storage.RaffleStore) (*domain.Raffle, error) {
	raffle, err := snapshots.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore raffle snapshot: %w", err)
	}
	log.Printf("restored raffle snapshot: state=%s players=%d", raffle.State, len(raffle.Players))
	return &raffle, nil
}

func serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
