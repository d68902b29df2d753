package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/susu3304/sharetabbot/internal/api"
	"github.com/susu3304/sharetabbot/internal/bot"
	"github.com/susu3304/sharetabbot/internal/config"
	"github.com/susu3304/sharetabbot/internal/db"
	"github.com/susu3304/sharetabbot/internal/flow"
	"github.com/susu3304/sharetabbot/internal/logging"
	"github.com/susu3304/sharetabbot/internal/pricing"
	"github.com/susu3304/sharetabbot/internal/receipt"
	"github.com/susu3304/sharetabbot/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot and the split history API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, newLogger(cfg))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader, closeReader, err := newReceiptReader(ctx, cfg, log.Sub("receipt"))
	if err != nil {
		return err
	}
	defer closeReader()

	ingester := receipt.NewService(receipt.NewHTTPFetcher(cfg.HTTPTimeout), reader, log.Sub("receipt"))
	calc := pricing.NewClient(cfg.BackendURL, cfg.HTTPTimeout, log.Sub("pricing"))

	discordBot, err := bot.New(cfg.DiscordToken, cfg.SessionIdleTimeout, log.Sub("bot"))
	if err != nil {
		return err
	}

	opts := []flow.Option{flow.WithLogger(log.Sub("flow"))}
	var apiServer *api.API
	if cfg.DatabaseURL != "" {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := database.RunMigrations(ctx); err != nil {
			return err
		}
		opts = append(opts, flow.WithLedger(database))
		apiServer = api.New(cfg.WebBind, cfg.JWTSecret, database, log.Sub("api"))
	} else {
		log.Info().Msg("DATABASE_URL not set, split history and API disabled")
	}

	engine := flow.NewEngine(store.NewMemory(), store.NewInflight(), ingester, calc, discordBot.Sender(), opts...)

	if err := discordBot.Start(engine); err != nil {
		return err
	}
	defer discordBot.Stop()

	if apiServer != nil {
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Error().Err(err).Msg("api server stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("api shutdown")
		}
	}
	return nil
}

// newReceiptReader picks the OCR collaborator and puts the Redis cache in
// front of it when REDIS_URL is set. An unreachable Redis only disables the cache.
func newReceiptReader(ctx context.Context, cfg *config.Config, log *logging.Logger) (receipt.Reader, func(), error) {
	var reader receipt.Reader
	switch cfg.OCRProvider {
	case config.OCRProviderOpenAI:
		reader = receipt.NewVisionReader(openai.NewClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	default:
		reader = receipt.NewClient(cfg.BackendURL, cfg.HTTPTimeout, log)
	}
	noop := func() {}

	if cfg.RedisURL == "" {
		return reader, noop, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, noop, errors.Wrap(err, "parse REDIS_URL")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, receipt cache disabled")
		_ = client.Close()
		return reader, noop, nil
	}

	cached := receipt.NewCachedReader(reader, client,
		receipt.WithTTL(cfg.ReceiptCacheTTL),
		receipt.WithCacheLogger(log),
	)
	return cached, func() { _ = client.Close() }, nil
}
