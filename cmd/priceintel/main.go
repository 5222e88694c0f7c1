// Command priceintel is the price-intelligence HTTP service: it wires the
// catalogue, semantic index, query planner, multi-step executor, result
// processor, price engine, monitoring registry, and the gin API surface
// into one explicit Services aggregate and serves it, replacing the
// get_semantic_indexer/get_query_planner/get_multi_step_processor-style
// module singletons with a struct built once in main and passed down.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quickdeals/price-intel/common/cache"
	"github.com/quickdeals/price-intel/common/config"
	"github.com/quickdeals/price-intel/common/db"
	catalogue "github.com/quickdeals/price-intel/services/catalogue_service/src"
	monitoring "github.com/quickdeals/price-intel/services/monitoring_service/src"
	priceengine "github.com/quickdeals/price-intel/services/price_engine_service/src"
	queryapi "github.com/quickdeals/price-intel/services/query_api_service/src"
	executor "github.com/quickdeals/price-intel/services/query_executor_service/src"
	planner "github.com/quickdeals/price-intel/services/query_planner_service/src"
	resultprocessor "github.com/quickdeals/price-intel/services/result_processor_service/src"
	semanticindex "github.com/quickdeals/price-intel/services/semantic_index_service/src"
)

// Services is the explicit dependency graph of the process: everything a
// handler or background worker needs is reached through this struct,
// constructed once in main, never through a package-level var.
type Services struct {
	Config     *config.Config
	Static     *config.StaticConfig
	Log        *zap.Logger
	DB         *db.DB
	Cache      *cache.Cache
	Catalogue  *catalogue.Catalogue
	Index      *semanticindex.Index
	Planner    *planner.Planner
	Executor   *executor.Processor
	Processor  *resultprocessor.Processor
	Samples    *queryapi.SampleQueryHandlers
	Monitoring *monitoring.Registry
	Engine     *priceengine.Engine
	Scheduler  *priceengine.Scheduler
	Registry   *prometheus.Registry
}

func main() {
	log := initLogger()
	defer log.Sync()

	cfg := config.Load()
	static, err := config.LoadStatic(os.Getenv("STATIC_CONFIG_PATH"))
	if err != nil {
		log.Fatal("failed to load static configuration", zap.Error(err))
	}

	svc, err := buildServices(cfg, static, log)
	if err != nil {
		log.Fatal("failed to build services", zap.Error(err))
	}
	defer svc.DB.Close()
	defer svc.Cache.Close()

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelBootstrap()
	if err := bootstrap(bootstrapCtx, svc); err != nil {
		log.Fatal("failed to bootstrap services", zap.Error(err))
	}

	runCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go svc.Monitoring.Run(runCtx, time.Duration(cfg.SystemSampleSeconds)*time.Second)

	if err := svc.Scheduler.Start(runCtx, cfg.PriceUpdateIntervalSeconds); err != nil {
		log.Fatal("failed to start price update scheduler", zap.Error(err))
	}

	server := httpServer(cfg, svc)
	startAndWaitForShutdown(log, server, svc.Scheduler, stopBackground)
}

func initLogger() *zap.Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	log, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)
	return log
}

// buildServices constructs every collaborator. Opening the database pool
// pings the server, so an unreachable database is reported here along with
// configuration problems.
func buildServices(cfg *config.Config, static *config.StaticConfig, log *zap.Logger) (*Services, error) {
	database, err := db.Connect(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisURL := cfg.RedisURL
	if cfg.CacheDisableExt {
		redisURL = ""
	}
	c := cache.New(redisURL, log)

	reg := prometheus.NewRegistry()
	monitoringRegistry := monitoring.NewRegistry(
		time.Duration(cfg.SlowQueryThresholdMS)*time.Millisecond, log, reg,
	)
	database.SetQueryHook(monitoringRegistry.DB.RecordQuery)

	cat := catalogue.New(database, log)
	embedder := chooseEmbedder(cfg)
	index := semanticindex.New(cat, embedder, c, log, cfg.EmbeddingCacheDir, static.DomainHints)
	queryPlanner := planner.New(cat, c)
	exec := executor.New(database, index, queryPlanner, log)
	processor := resultprocessor.New(c, log)
	samples := queryapi.NewSampleQueryHandlers(database, log)

	priceCfg := priceengine.ConfigFromEnv(cfg)
	engine := priceengine.New(priceCfg, static, database, log)
	scheduler := priceengine.NewScheduler(engine, log)

	return &Services{
		Config: cfg, Static: static, Log: log,
		DB: database, Cache: c,
		Catalogue: cat, Index: index, Planner: queryPlanner,
		Executor: exec, Processor: processor, Samples: samples,
		Monitoring: monitoringRegistry,
		Engine:     engine, Scheduler: scheduler,
		Registry: reg,
	}, nil
}

// chooseEmbedder picks the resty-backed remote embedder when an endpoint is
// configured, falling back to the deterministic local embedder otherwise,
// matching the pluggable-embedding-backend contract.
func chooseEmbedder(cfg *config.Config) semanticindex.Embedder {
	if cfg.EmbeddingAPIURL != "" {
		return semanticindex.NewRestyEmbedder(cfg.EmbeddingAPIURL, cfg.EmbeddingAPIKey, 256)
	}
	return semanticindex.NewLocalFallbackEmbedder(256)
}

// bootstrap does the I/O-bound startup work: schema migration, index
// autoindex creation, and the semantic index's load-or-build.
func bootstrap(ctx context.Context, svc *Services) error {
	if err := svc.DB.AutoMigrate(); err != nil {
		return fmt.Errorf("auto-migrate schema: %w", err)
	}
	if err := svc.DB.CreateIndexes(); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	if err := svc.Catalogue.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh catalogue: %w", err)
	}
	if err := svc.Index.LoadOrBuild(ctx); err != nil {
		return fmt.Errorf("load or build semantic index: %w", err)
	}
	svc.Log.Info("bootstrap complete",
		zap.Int("pool_size", svc.Config.DBPoolSize),
		zap.String("environment", svc.Config.Environment),
	)
	return nil
}

func httpServer(cfg *config.Config, svc *Services) *http.Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dispatcher := queryapi.NewDispatcher(svc.Samples, svc.Executor, svc.Index, svc.Log)
	limiters := queryapi.NewRateLimiters()
	controller := queryapi.NewController(dispatcher, svc.Processor, svc.Samples, svc.Monitoring, svc.Cache, svc.DB, svc.Log)

	router := queryapi.NewRouter(controller, svc.DB, limiters, svc.Log)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{})))

	return &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func startAndWaitForShutdown(log *zap.Logger, server *http.Server, scheduler *priceengine.Scheduler, stopBackground context.CancelFunc) {
	go func() {
		log.Info("starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	scheduler.Stop()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
	log.Info("shutdown complete")
}
