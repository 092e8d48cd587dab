package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/go-kratos/kratos/v2"
	"golang.org/x/time/rate"

	"github.com/factlens/research_radar/internal/config"
	"github.com/factlens/research_radar/internal/feed"
	"github.com/factlens/research_radar/internal/gateway"
	"github.com/factlens/research_radar/internal/images"
	"github.com/factlens/research_radar/internal/llm"
	"github.com/factlens/research_radar/internal/logger"
	"github.com/factlens/research_radar/internal/model"
	"github.com/factlens/research_radar/internal/search/factory"
	"github.com/factlens/research_radar/internal/sections"
	"github.com/factlens/research_radar/internal/server"
	"github.com/factlens/research_radar/internal/storage"
	"github.com/factlens/research_radar/internal/store"
	"github.com/factlens/research_radar/internal/workflow"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	logger.Log.Info("starting research radar...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		logger.Log.Fatalf("failed to initialize chat model: %v", err)
	}

	// Limit is RPM/60, burst is QPS.
	limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	limiter := rate.NewLimiter(limit, cfg.Concurrency.QPS)
	logger.Log.Infof("rate limiter configured: limit=%.2f req/s, burst=%d", limit, cfg.Concurrency.QPS)

	searcher, err := factory.NewSearcher(cfg)
	if err != nil {
		logger.Log.Fatalf("failed to initialize search provider: %v", err)
	}

	policy := llm.Policy{MaxRetries: cfg.Retry.Retries(), BaseDelay: cfg.Retry.BaseDelay()}
	client := llm.NewClient(chatModel, limiter, policy)

	engine := workflow.New(
		gateway.New(searcher, policy),
		sections.NewGenerator(client),
		images.NewPexelsClient(cfg.Images.PexelsAPIKey),
	)

	var persist store.Persister
	var warm map[string]*model.Report
	if cfg.DB.Host != "" {
		db, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Fatalf("failed to initialize storage: %v", err)
		}
		defer db.Close()
		persist = db
		if warm, err = db.LoadReports(ctx); err != nil {
			logger.Log.Errorf("failed to load persisted reports: %v", err)
		} else {
			logger.Log.Infof("loaded %d persisted reports", len(warm))
		}
	}

	reports := store.New(engine, cfg.Queue.InterJobDelay(), persist)
	if len(warm) > 0 {
		reports.Preload(warm)
	}
	reports.Start(ctx)

	refresh := 3 * time.Hour
	if cfg.Feed.RefreshHours > 0 {
		refresh = time.Duration(cfg.Feed.RefreshHours) * time.Hour
	}
	topics := feed.NewManager(searcher, reports, feed.PageImageExtractor(nil), refresh)

	httpSrv := server.NewHTTPServer(cfg.Server, server.NewService(reports, topics))
	app := kratos.New(
		kratos.Name("research_radar"),
		kratos.Server(httpSrv),
	)
	if err := app.Run(); err != nil {
		logger.Log.Fatalf("server exited: %v", err)
	}
}
