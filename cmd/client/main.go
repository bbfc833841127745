// FoodBridge client core daemon. Wires the backend client, listing feed,
// request ledger, conversation resolver, and notification aggregator, and
// serves Prometheus metrics. Conversation sync sessions are opened on demand
// through the Core handle; the daemon itself only runs the background loops.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/foodbridge/client-core/internal/config"
	"github.com/foodbridge/client-core/internal/domain/conversation"
	"github.com/foodbridge/client-core/internal/domain/listing"
	"github.com/foodbridge/client-core/internal/domain/notification"
	"github.com/foodbridge/client-core/internal/domain/request"
	"github.com/foodbridge/client-core/internal/infrastructure/apiclient"
	"github.com/foodbridge/client-core/internal/infrastructure/logger"
	"github.com/foodbridge/client-core/internal/infrastructure/push"
	"github.com/foodbridge/client-core/internal/infrastructure/store"
)

// Core bundles the wired client components for embedding callers (UI shells,
// integration tests).
type Core struct {
	Feed       *listing.Feed
	Ledger     *request.Ledger
	Resolver   *conversation.Resolver
	Aggregator *notification.Aggregator

	api        *apiclient.Client
	subscriber conversation.Subscriber
	syncCfg    conversation.SyncConfig
	log        zerolog.Logger
}

// NewCore wires the client core from configuration.
func NewCore(cfg *config.Config, log zerolog.Logger) *Core {
	api := apiclient.New(cfg.APIBaseURL, cfg.AuthToken, cfg.HTTPTimeout, log)
	cache := store.NewConversationCache(log)
	ledger := request.NewLedger(api, cache, cfg.UserID, log)
	resolver := conversation.NewResolver(api, cfg.UserID, cfg.BadgeRefreshInterval, log)
	feed := listing.NewFeed(api, api, cfg.UserID, cfg.FeedRefreshInterval, log)
	aggregator := notification.NewAggregator(ledger, cache, cfg.BadgeRefreshInterval, log)

	var subscriber conversation.Subscriber
	if capability := push.DetectCapability(cfg.RealtimeURL, cfg.RealtimeKey, log); capability.Available {
		subscriber = push.NewSubscriber(capability.Endpoint, capability.Key, log)
	}

	syncCfg := conversation.DefaultSyncConfig()
	syncCfg.PollInterval = cfg.MessagePollInterval
	syncCfg.SubscribeTimeout = cfg.SubscribeTimeout

	return &Core{
		Feed:       feed,
		Ledger:     ledger,
		Resolver:   resolver,
		Aggregator: aggregator,
		api:        api,
		subscriber: subscriber,
		syncCfg:    syncCfg,
		log:        log,
	}
}

// OpenConversation resolves the conversation with a counterpart and opens a
// sync session for it. The caller owns the session and must Close it before
// opening another.
func (c *Core) OpenConversation(ctx context.Context, counterpartID, listingID string) (*conversation.SyncSession, error) {
	conv, err := c.Resolver.Resolve(ctx, counterpartID, listingID)
	if err != nil {
		return nil, err
	}
	return conversation.OpenSync(ctx, conv.ID, c.api, c.api, c.subscriber, c.syncCfg, c.log)
}

// Start runs the background loops.
func (c *Core) Start(ctx context.Context) {
	c.Feed.Start(ctx)
	c.Aggregator.Start(ctx)
}

// Stop halts the background loops.
func (c *Core) Stop() {
	c.Aggregator.Stop()
	c.Feed.Stop()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat).With().
		Str("instance_id", uuid.NewString()).
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core := NewCore(cfg, log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr(), Handler: mux}

	log.Info().
		Str("api", cfg.APIBaseURL).
		Bool("realtime", cfg.RealtimeEnabled()).
		Int("metrics_port", cfg.MetricsPort).
		Msg("starting client core")

	core.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("metrics server stopped with error")
	}

	core.Stop()
	log.Info().Msg("client core exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
