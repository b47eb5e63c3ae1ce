package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/survey-dashboard/internal/domain/survey"
	"github.com/yanqian/survey-dashboard/internal/infra/config"
	"github.com/yanqian/survey-dashboard/internal/infra/scorestore"
	"github.com/yanqian/survey-dashboard/internal/infra/source"
)

func provideSurveyConfig(cfg *config.Config) survey.Config {
	return survey.Config{
		DefaultDataset: cfg.Survey.DefaultDataset,
		FuzzyThreshold: cfg.Survey.FuzzyThreshold,
		Fields:         cfg.Survey.Fields.Fields(),
		Program:        cfg.Survey.Program.ProgramRules(),
		ScoreTTL:       cfg.ScoreCache.TTL,
	}
}

func provideDatasets(cfg *config.Config) ([]survey.Dataset, error) {
	out := make([]survey.Dataset, 0, len(cfg.Survey.Datasets))
	for _, ds := range cfg.Survey.Datasets {
		catalog, err := config.LoadCatalog(ds.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", ds.Name, err)
		}
		out = append(out, survey.Dataset{
			Name:    strings.TrimSpace(ds.Name),
			Source:  survey.SourceRef{Driver: ds.Driver, Location: ds.Location},
			Catalog: catalog,
		})
	}
	return out, nil
}

func provideSource(cfg *config.Config, logger *slog.Logger) survey.Source {
	router := source.NewRouter().Register(config.DriverFile, source.NewFileSource(""))
	if usesDriver(cfg, config.DriverS3) {
		router.Register(config.DriverS3, provideObjectSource(cfg, logger))
	}
	if usesDriver(cfg, config.DriverPostgres) {
		router.Register(config.DriverPostgres, providePostgresSource(cfg, logger))
	}
	return router
}

func usesDriver(cfg *config.Config, driver string) bool {
	for _, ds := range cfg.Survey.Datasets {
		if ds.Driver == driver {
			return true
		}
	}
	return false
}

func provideObjectSource(cfg *config.Config, logger *slog.Logger) survey.Source {
	store := cfg.ObjectStore
	src, err := source.NewObjectSource(store.Endpoint, store.AccessKey, store.SecretKey, store.Bucket, store.Region, logger)
	if err != nil {
		logger.Error("failed to initialize object store source, s3 datasets are unavailable", "error", err)
		return nil
	}
	logger.Info("object store source enabled", "endpoint", store.Endpoint, "bucket", store.Bucket)
	return src
}

func providePostgresSource(cfg *config.Config, logger *slog.Logger) survey.Source {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, postgres datasets are unavailable", "error", err)
		return nil
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, postgres datasets are unavailable", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, postgres datasets are unavailable", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres source enabled")
	return source.NewPostgresSource(pool)
}

func provideScoreStore(cfg *config.Config, logger *slog.Logger) survey.ScoreStore {
	if cfg.ScoreCache.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return scorestore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return scorestore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
		} else {
			logger.Info("score valkey store enabled", "addr", cfg.ScoreCache.Redis.Addr)
			return scorestore.NewValkeyStore(client, "survey")
		}
	}
	return scorestore.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.ScoreCache.Redis.Addr, "://") {
		return valkey.ParseURL(cfg.ScoreCache.Redis.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.ScoreCache.Redis.Addr}}, nil
}
