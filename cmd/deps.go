package cmd

import (
	"os"

	"example.com/loomtrack/services/supplychain/config"
	"example.com/loomtrack/services/supplychain/internal/cache"
	"example.com/loomtrack/services/supplychain/internal/database"
	"example.com/loomtrack/services/supplychain/internal/metrics"
	"example.com/loomtrack/services/supplychain/internal/models"
	"example.com/loomtrack/services/supplychain/internal/repositories"
	"example.com/loomtrack/services/supplychain/internal/search"
	"example.com/loomtrack/services/supplychain/internal/services"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// dependencies holds everything a command wires together at startup
type dependencies struct {
	cfg               config.Config
	db                *gorm.DB
	cache             *cache.RedisCache
	tracer            tracing.Tracer
	metrics           *metrics.Metrics
	lotService        *services.LotService
	pipelineService   *services.PipelineService
	catalogService    *services.CatalogService
	capabilityService *services.CapabilityService
}

// buildDependencies loads configuration, connects the infrastructure
// clients and assembles the service layer. Cache, tracing and search
// degrade to disabled clients when unavailable; the databases are required.
func buildDependencies() (*dependencies, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := models.SetupModels(db); err != nil {
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.Noop()
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	metricsCollector := metrics.NewMetrics()
	metricsCollector.SetHealth("database", true)
	metricsCollector.SetHealth("redis", redisCache != nil)
	metricsCollector.SetHealth("elasticsearch", elasticClient != nil)

	roleRepo := repositories.NewRoleRepository(db, readOnlyDB)
	factoryRepo := repositories.NewFactoryRepository(db, readOnlyDB)
	lotRepo := repositories.NewLotRepository(db, readOnlyDB)
	approvalRepo := repositories.NewApprovalRepository(db, readOnlyDB)
	inspectionRepo := repositories.NewInspectionRepository(db, readOnlyDB)
	pipelineRepo := repositories.NewPipelineRepository(db, readOnlyDB)

	pipelineService := services.NewPipelineService(pipelineRepo, roleRepo, factoryRepo, lotRepo, redisCache, metricsCollector, tracer)
	lotService := services.NewLotService(db, lotRepo, approvalRepo, inspectionRepo, pipelineService, elasticClient, metricsCollector, tracer)
	catalogService := services.NewCatalogService(roleRepo, pipelineService, tracer)
	capabilityService := services.NewCapabilityService(factoryRepo, roleRepo, tracer)

	return &dependencies{
		cfg:               cfg,
		db:                db,
		cache:             redisCache,
		tracer:            tracer,
		metrics:           metricsCollector,
		lotService:        lotService,
		pipelineService:   pipelineService,
		catalogService:    catalogService,
		capabilityService: capabilityService,
	}, nil
}

// close releases infrastructure clients
func (d *dependencies) close() {
	if err := d.cache.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close Redis cache")
	}
	d.tracer.Close()
}
