package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/chainbook/internal/blob/s3"
	"github.com/alanyoungcy/chainbook/internal/cache/redis"
	"github.com/alanyoungcy/chainbook/internal/chain"
	"github.com/alanyoungcy/chainbook/internal/config"
	"github.com/alanyoungcy/chainbook/internal/domain"
	"github.com/alanyoungcy/chainbook/internal/metrics"
	"github.com/alanyoungcy/chainbook/internal/notify"
	"github.com/alanyoungcy/chainbook/internal/server/handler"
	"github.com/alanyoungcy/chainbook/internal/server/ws"
	"github.com/alanyoungcy/chainbook/internal/service"
	"github.com/alanyoungcy/chainbook/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Node *service.NodeService

	BookCache *redis.BookCache
	Bus       *redis.SignalBus
	Hub       *ws.Hub

	EventStore      *postgres.EventStore
	SettlementStore *postgres.SettlementStore
	Archiver        *s3blob.Archiver
	Notifier        *notify.Notifier

	Health map[string]handler.Pinger
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Health: make(map[string]handler.Pinger)}

	// --- Chain state (genesis) ---
	state, err := buildState(cfg)
	if err != nil {
		return nil, nil, err
	}
	deps.Node = service.NewNodeService(state, logger)

	// --- Redis (book cache + signal bus) ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })
	deps.Health["redis"] = redisClient

	deps.BookCache = redis.NewBookCache(redisClient, 0)
	deps.Bus = redis.NewSignalBus(redisClient)
	deps.Hub = ws.NewHub(deps.Bus, logger)

	// --- PostgreSQL read model (optional) ---
	if cfg.Postgres.DSN != "" || cfg.Postgres.Host != "" {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)
		deps.Health["postgres"] = pgClient

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.EventStore = postgres.NewEventStore(pool)
		deps.SettlementStore = postgres.NewSettlementStore(pool)
	}

	// --- S3 settlement archive (optional, needs the settlement store) ---
	if cfg.S3.Bucket != "" && deps.SettlementStore != nil {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.SettlementStore)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Event fan-out ---
	deps.Node.AddSink(metrics.EventCounter{})
	deps.Node.AddSink(service.NewBookMirror(deps.Node, deps.BookCache))
	deps.Node.AddSink(service.NewBusPublisher(deps.Bus, logger))
	if deps.EventStore != nil {
		deps.Node.AddSink(deps.EventStore)
	}
	if deps.SettlementStore != nil {
		deps.Node.AddSink(deps.SettlementStore)
	}
	if len(senders) > 0 {
		deps.Node.AddSink(deps.Notifier)
	}

	return deps, cleanup, nil
}

// buildState seeds a fresh chain state from the genesis document.
func buildState(cfg *config.Config) (*chain.State, error) {
	gen, err := config.LoadGenesis(cfg.Chain.GenesisPath)
	if err != nil {
		return nil, fmt.Errorf("wire: genesis: %w", err)
	}

	genesisTime := time.Now().UTC()
	if gen.Time != "" {
		genesisTime, err = time.Parse(time.RFC3339, gen.Time)
		if err != nil {
			return nil, fmt.Errorf("wire: genesis time: %w", err)
		}
	}

	state := chain.NewState(cfg.Chain.Parameters(), genesisTime)

	accounts := make(map[string]domain.ObjectID, len(gen.Accounts))
	for _, acct := range gen.Accounts {
		accounts[acct.Name] = state.RegisterAccount(acct.Name)
	}

	assets := make(map[string]domain.ObjectID, len(gen.Assets))
	for _, asset := range gen.Assets {
		authorized := make([]domain.ObjectID, 0, len(asset.Authorized))
		for _, name := range asset.Authorized {
			authorized = append(authorized, accounts[name])
		}
		assets[asset.Symbol] = state.RegisterAsset(asset.Symbol, asset.Precision, authorized...)
	}

	for _, ev := range gen.Events {
		state.RegisterEvent(ev.Description)
	}

	for _, bal := range gen.Balances {
		state.Fund(accounts[bal.Account], domain.AssetAmount{
			AssetID: assets[bal.Asset],
			Amount:  bal.Amount,
		})
	}

	return state, nil
}
