package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/chainbook/internal/server"
	"github.com/alanyoungcy/chainbook/internal/server/handler"
)

// NodeMode runs the full node: the block driver advancing head time, the
// HTTP API, and the WebSocket hub.
func (a *App) NodeMode(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.runBlockDriver(ctx, deps) })
	g.Go(func() error { return deps.Hub.Run(ctx) })

	if a.cfg.Server.Enabled {
		g.Go(func() error { return a.runServer(ctx, deps) })
	}

	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// QueryMode serves the read API without producing blocks; the state stays
// at genesis plus whatever transactions arrive.
func (a *App) QueryMode(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return deps.Hub.Run(ctx) })
	if a.cfg.Server.Enabled {
		g.Go(func() error { return a.runServer(ctx, deps) })
	}

	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// runBlockDriver advances the head block time on a fixed interval, which
// flushes expired delayed bets deterministically.
func (a *App) runBlockDriver(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Chain.BlockInterval.Duration
	a.logger.InfoContext(ctx, "block driver started",
		slog.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			deps.Node.AdvanceBlock(ctx, now.UTC())
		}
	}
}

// runServer assembles the handlers and serves the HTTP API.
func (a *App) runServer(ctx context.Context, deps *Dependencies) error {
	logger := slog.Default()

	handlers := server.Handlers{
		Health:       handler.NewHealthHandler(deps.Health),
		Groups:       handler.NewGroupHandler(deps.Node, logger),
		Markets:      handler.NewMarketHandler(deps.Node, logger),
		Transactions: handler.NewTransactionHandler(deps.Node, logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, deps.Hub, logger)

	return srv.Start(ctx)
}
