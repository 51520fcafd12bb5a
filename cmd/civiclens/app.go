package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/civiclens/internal/ai"
	"github.com/xxxsen/civiclens/internal/config"
	"github.com/xxxsen/civiclens/internal/dashcache"
	"github.com/xxxsen/civiclens/internal/db"
	"github.com/xxxsen/civiclens/internal/embedcache"
	"github.com/xxxsen/civiclens/internal/finance"
	"github.com/xxxsen/civiclens/internal/gateway"
	"github.com/xxxsen/civiclens/internal/job"
	"github.com/xxxsen/civiclens/internal/repo"
	"github.com/xxxsen/civiclens/internal/schedule"
	"github.com/xxxsen/civiclens/internal/search"
	"github.com/xxxsen/civiclens/internal/service"
	"github.com/xxxsen/civiclens/internal/vindex"
)

const reindexJobName = job.ReindexJobName

type app struct {
	db           *sql.DB
	embedCache   *repo.EmbeddingCacheRepo
	index        *vindex.Index
	indexService *service.IndexService
	orchestrator *search.Orchestrator
	aggregator   *finance.Aggregator
	dashboard    *service.DashboardService
	scheduler    *schedule.CronScheduler
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{scheduler: schedule.NewCronScheduler()}

	var cacheStore dashcache.Store
	var entryStore vindex.EntryStore
	if cfg.Database.Enabled() {
		conn, err := db.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		if err := db.ApplyMigrations(conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		a.db = conn
		a.embedCache = repo.NewEmbeddingCacheRepo(conn)
		cacheStore = repo.NewCacheEntryRepo(conn)
		entryStore = repo.NewBillEmbeddingRepo(conn)
	}

	congress := gateway.NewCongressClient(gatewayOptions(cfg.Gateways.Congress))
	fec := gateway.NewFECClient(gatewayOptions(cfg.Gateways.FEC))
	openStates := gateway.NewOpenStatesClient(gatewayOptions(cfg.Gateways.OpenStates))
	lda := gateway.NewLDAClient(gatewayOptions(cfg.Gateways.LDA))
	news := gateway.NewNewsDataClient(gatewayOptions(cfg.Gateways.NewsData))

	manager, err := buildAIManager(cfg.AI, a.embedCache)
	if err != nil {
		a.Close()
		return nil, err
	}

	mode := vindex.ScoreFold
	if cfg.Index.Normalized {
		mode = vindex.ScoreClamp
	}
	a.index = vindex.New(manager.Embedder(), vindex.Options{
		SummaryChars: cfg.Index.SummaryChars,
		MinScore:     cfg.Index.MinScore,
		Mode:         mode,
		Store:        entryStore,
	})
	if err := a.index.Load(ctx); err != nil {
		logutil.GetLogger(ctx).Warn("load persisted index failed", zap.Error(err))
	}

	a.indexService = service.NewIndexService(congress, a.index, service.IndexConfig{
		BillCount:       cfg.Index.BillCount,
		DetailBatchSize: cfg.Index.DetailBatchSize,
		DetailDelay:     time.Duration(cfg.Index.DetailDelayMs) * time.Millisecond,
	})
	a.orchestrator = search.NewOrchestrator(a.index, congress, manager, search.Config{
		DefaultMaxResults: cfg.Search.DefaultMaxResults,
		MaxResultsLimit:   cfg.Search.MaxResultsLimit,
		RecentWindow:      cfg.Search.RecentWindow,
	})
	a.aggregator = finance.NewAggregator(fec, finance.Config{
		EmployerLimit:   cfg.Finance.EmployerLimit,
		OccupationLimit: cfg.Finance.OccupationLimit,
	})

	ttls := make(map[string]time.Duration, len(cfg.Cache.TTLs))
	for key, seconds := range cfg.Cache.TTLs {
		ttls[key] = time.Duration(seconds) * time.Second
	}
	cache := dashcache.New(cacheStore, dashcache.Options{
		TTLs:       ttls,
		DefaultTTL: time.Duration(cfg.Cache.DefaultTTL) * time.Second,
	})
	a.dashboard = service.NewDashboardService(service.DashboardDeps{
		Analyst:    manager,
		News:       news,
		Lobbying:   lda,
		StateBills: openStates,
		Sponsored:  congress,
		Cache:      cache,
	}, service.DashboardConfig{
		PolarizationBatchSize: cfg.Jobs.PolarizationBatchSize,
		PolarizationDelay:     time.Duration(cfg.Jobs.PolarizationBatchDelayMs) * time.Millisecond,
	})
	return a, nil
}

func (a *app) scheduleJobs(cfg config.JobsConfig) error {
	if err := a.scheduler.AddJob(job.NewReindexJob(a.indexService), cfg.ReindexSpec); err != nil {
		return fmt.Errorf("schedule reindex: %w", err)
	}
	if a.embedCache != nil {
		cleanup := job.NewEmbeddingCacheCleanupJob(a.embedCache, cfg.EmbedCacheMaxAgeDays)
		if err := a.scheduler.AddJob(cleanup, cfg.EmbedCacheCleanupSpec); err != nil {
			return fmt.Errorf("schedule embedding cache cleanup: %w", err)
		}
	}
	return nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func gatewayOptions(cfg config.GatewayConfig) gateway.Options {
	return gateway.Options{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	}
}

// buildAIManager assembles the provider fallback chains. Embeddings are cached
// in memory and, when a database is configured, in postgres behind it.
func buildAIManager(cfg config.AIConfig, store *repo.EmbeddingCacheRepo) (*ai.Manager, error) {
	var generators []ai.GeneratorEntry
	var embedders []ai.EmbedderEntry
	for _, p := range cfg.Providers {
		if p.Model != "" {
			provider, err := ai.NewProvider(p.Provider, p.Data)
			if err != nil {
				return nil, fmt.Errorf("init ai provider %s: %w", p.Name, err)
			}
			generators = append(generators, ai.GeneratorEntry{Name: p.Name, Generator: ai.NewGenerator(provider, p.Model)})
		}
		if p.EmbedModel != "" {
			provider, err := ai.NewEmbedProvider(p.Provider, p.Data)
			if err != nil {
				return nil, fmt.Errorf("init embed provider %s: %w", p.Name, err)
			}
			embedders = append(embedders, ai.EmbedderEntry{Name: p.Name, Embedder: ai.NewEmbedder(provider, p.EmbedModel)})
		}
	}
	embedder := ai.NewGroupEmbedder(embedders)
	if embedder != nil {
		if store != nil {
			embedder = embedcache.WrapDBCacheToEmbedder(embedder, store)
		}
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.EmbedCacheSize, time.Duration(cfg.EmbedCacheTTL)*time.Second)
	}
	return ai.NewManager(ai.NewGroupGenerator(generators), embedder, ai.ManagerConfig{Timeout: cfg.Timeout}), nil
}
