package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/RishiKendai/plagcheck/internal/cache"
	"github.com/RishiKendai/plagcheck/internal/config"
	"github.com/RishiKendai/plagcheck/internal/infra/mongo"
	"github.com/RishiKendai/plagcheck/internal/infra/postgres"
	redisInfra "github.com/RishiKendai/plagcheck/internal/infra/redis"
	"github.com/RishiKendai/plagcheck/internal/plagiarism"
	"github.com/RishiKendai/plagcheck/internal/remote"
	"github.com/RishiKendai/plagcheck/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// services are built per command run and released by close
type services struct {
	checker *plagiarism.Checker
	redis   redis.Cmdable
	closers []func()
}

func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// App carries what the commands share. newServices is swapped in tests.
type App struct {
	cfg         *config.Config
	in          io.Reader
	out         io.Writer
	newServices func(ctx context.Context, cfg *config.Config, needRedis bool) (*services, error)
}

func NewApp() *App {
	return &App{
		in:          os.Stdin,
		out:         os.Stdout,
		newServices: buildServices,
	}
}

func buildServices(ctx context.Context, cfg *config.Config, needRedis bool) (*services, error) {
	svc := &services{}

	var store plagiarism.DocumentStore
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		store = repository.NewSQLDocumentsRepository(postgres.Connector{DSN: cfg.PostgresDSN})
	default:
		store = repository.NewDocumentsRepository(mongo.Connector{
			URI:      cfg.MongoURI,
			Username: cfg.MongoUsername,
			Password: cfg.MongoPassword,
			Database: cfg.MongoDBName,
		}, cfg.MongoCollection)
	}

	if needRedis || cfg.ShingleCache == config.CacheRedis {
		client, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, 0)
		if err != nil {
			if needRedis {
				return nil, fmt.Errorf("failed to create Redis client: %w", err)
			}
			log.Warn().Err(err).Msg("Redis unavailable, shingle cache disabled")
		} else {
			svc.redis = client.Client
			svc.closers = append(svc.closers, func() { _ = client.Close() })
		}
	}

	var shingler plagiarism.Shingler
	switch cfg.ShingleCache {
	case config.CacheMemory:
		shingler = plagiarism.NewCachedShingler(cache.NewMemoryCache(cfg.ShingleCacheTTL, 2*cfg.ShingleCacheTTL))
	case config.CacheRedis:
		if client, ok := svc.redis.(*redis.Client); ok {
			shingler = plagiarism.NewCachedShingler(cache.NewRedisCache(client, cfg.ShingleCacheTTL))
		}
	}

	detector := remote.NewClient(remote.ClientConfig{
		URL:      cfg.RapidAPIURL,
		Host:     cfg.RapidAPIHost,
		APIKey:   cfg.RapidAPIKey,
		Language: cfg.RapidAPILanguage,
		Timeout:  cfg.RemoteTimeout,
		RPS:      cfg.RapidAPIRPS,
	})

	svc.checker = plagiarism.NewChecker(store, detector, plagiarism.NewMatcher(shingler))

	log.Debug().
		Str("store", cfg.StoreDriver).
		Str("cache", cfg.ShingleCache).
		Msg("Services initialized")
	return svc, nil
}
