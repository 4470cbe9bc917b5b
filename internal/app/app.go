package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/gridironlab/valuation-engine/external/alerting"
	"github.com/gridironlab/valuation-engine/external/rankings"
	"github.com/gridironlab/valuation-engine/external/sleeper"
	"github.com/gridironlab/valuation-engine/internal/config"
	"github.com/gridironlab/valuation-engine/internal/domain/adjustment"
	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/market"
	"github.com/gridironlab/valuation-engine/internal/domain/profile"
	"github.com/gridironlab/valuation-engine/internal/domain/tuning"
	"github.com/gridironlab/valuation-engine/internal/domain/value"
	"github.com/gridironlab/valuation-engine/internal/infrastructure/repository/memory"
	"github.com/gridironlab/valuation-engine/internal/infrastructure/repository/postgres"
	"github.com/gridironlab/valuation-engine/internal/interfaces/httpapi"
	"github.com/gridironlab/valuation-engine/internal/namematch"
	"github.com/gridironlab/valuation-engine/internal/platform/cache"
	idgen "github.com/gridironlab/valuation-engine/internal/platform/id"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/platform/resilience"
	"github.com/gridironlab/valuation-engine/internal/usecase"
)

// App owns the HTTP server, the background job loops, and every
// resource that must be released on shutdown.
type App struct {
	Server *http.Server

	logger  *logging.Logger
	jobs    *jobRunner
	closers []func(context.Context) error
}

type repositories struct {
	identities  identity.Repository
	conflicts   conflict.Repository
	profiles    profile.Repository
	values      value.Repository
	adjustments adjustment.Repository
	tuning      tuning.Repository
	markets     market.Repository
	merger      usecase.MergeStore
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	app := &App{logger: logger}

	repos, dbClose, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}
	if dbClose != nil {
		app.closers = append(app.closers, dbClose)
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	idGen := idgen.NewRandomGenerator()
	scorer := namematch.NewScorer(namematch.DefaultNicknames())

	identitySvc := usecase.NewIdentityService(repos.identities, repos.conflicts, scorer, idGen, logger)
	profileSvc := usecase.NewProfileService(repos.profiles, store, idGen, logger)
	tuningSvc := usecase.NewTuningService(repos.tuning, store, logger)
	adjustmentSvc := usecase.NewAdjustmentService(repos.adjustments, tuningSvc, idGen, logger)
	effectiveSvc := usecase.NewEffectiveValueService(repos.values, adjustmentSvc, logger)
	tradeSvc := usecase.NewTradeService(effectiveSvc, tuningSvc, logger)
	conflictSvc := usecase.NewConflictService(repos.conflicts, repos.identities, repos.merger, logger)
	duplicateSvc := usecase.NewDuplicateService(repos.identities, repos.conflicts, idGen, logger)

	var (
		playerFeed usecase.PlayerFeed
		rankFeed   usecase.RankFeed
		attributes usecase.AttributeSource
		rosters    usecase.RosterSource
	)
	if cfg.SleeperEnabled {
		sleeperClient := sleeper.NewClient(sleeper.ClientConfig{
			BaseURL:    cfg.SleeperBaseURL,
			Timeout:    cfg.SleeperTimeout,
			MaxRetries: cfg.SleeperMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.SleeperCircuitEnabled,
				FailureThreshold: cfg.SleeperCircuitFailureCount,
				OpenTimeout:      cfg.SleeperCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.SleeperCircuitHalfOpenMaxReq,
			},
		})
		playerFeed = sleeperClient
		attributes = sleeper.NewAttributeProvider(sleeperClient, repos.identities)
		if len(cfg.SleeperLeagueIDs) > 0 {
			rosters = sleeper.NewRosterProvider(sleeperClient, repos.identities, cfg.SleeperLeagueIDs)
		}
	}
	if cfg.RankingsEnabled {
		rankFeed = rankings.NewClient(rankings.ClientConfig{
			BaseURL: cfg.RankingsBaseURL,
			Token:   cfg.RankingsToken,
			Source:  cfg.RankingsSource,
			Timeout: cfg.RankingsTimeout,
			Logger:  logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.RankingsCircuitEnabled,
				FailureThreshold: cfg.RankingsCircuitFailureCount,
				OpenTimeout:      cfg.RankingsCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.RankingsCircuitHalfOpenMaxReq,
			},
		})
	}

	validatorSvc := usecase.NewValidatorService(repos.identities, repos.conflicts, repos.values, rosters, logger)
	rebuildSvc := usecase.NewRebuildService(
		repos.identities,
		repos.markets,
		repos.values,
		profileSvc,
		validatorSvc,
		duplicateSvc,
		tuningSvc,
		attributes,
		idGen,
		logger,
	)
	syncSvc := usecase.NewSyncService(identitySvc, repos.identities, repos.markets, playerFeed, rankFeed, logger)

	var alerts *alerting.Publisher
	if cfg.AlertingEnabled {
		alerts = alerting.NewPublisher(alerting.PublisherConfig{
			WebhookURL: cfg.AlertingWebhookURL,
			Token:      cfg.AlertingToken,
			Timeout:    cfg.AlertingTimeout,
		}, logger)
	}

	handler := httpapi.NewHandler(
		identitySvc,
		profileSvc,
		effectiveSvc,
		tradeSvc,
		adjustmentSvc,
		tuningSvc,
		conflictSvc,
		duplicateSvc,
		validatorSvc,
		rebuildSvc,
		syncSvc,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	app.jobs = newJobRunner(jobRunnerConfig{
		IdentitySyncInterval: cfg.JobIdentitySyncInterval,
		RebuildInterval:      cfg.JobRebuildInterval,
		SweepInterval:        cfg.JobSweepInterval,
		SyncEnabled:          cfg.SleeperEnabled || cfg.RankingsEnabled,
	}, jobServices{
		identity:   identitySvc,
		profile:    profileSvc,
		adjustment: adjustmentSvc,
		rebuild:    rebuildSvc,
		sync:       syncSvc,
		alerts:     alerts,
	}, logger)

	return app, nil
}

// StartJobs launches the periodic sync, rebuild, and sweep loops.
// Safe to call once; the loops stop when Shutdown runs.
func (a *App) StartJobs() {
	if a.jobs == nil {
		return
	}
	a.jobs.Start()
	a.logger.Info("background jobs started")
}

// Shutdown stops the job loops, drains the HTTP server, and closes
// the database pool.
func (a *App) Shutdown(ctx context.Context) error {
	if a.jobs != nil {
		a.jobs.Stop()
	}

	var firstErr error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	for _, closeFn := range a.closers {
		if err := closeFn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, func(context.Context) error, error) {
	dbURL := strings.TrimSpace(cfg.DBURL)
	if dbURL == "" || strings.EqualFold(dbURL, "memory") {
		logger.Info("using in-memory repositories", "reason", "DB_URL not set")
		identityRepo := memory.NewIdentityRepository(memory.SeedIdentities())
		return repositories{
			identities:  identityRepo,
			conflicts:   memory.NewConflictRepository(),
			profiles:    memory.NewProfileRepository(),
			values:      memory.NewValueRepository(),
			adjustments: memory.NewAdjustmentRepository(),
			tuning:      memory.NewTuningRepository(nil),
			markets:     memory.NewMarketRepository(memory.SeedMarketRanks()),
			merger:      identityRepo,
		}, nil, nil
	}

	db, err := openDB(cfg, dbURL)
	if err != nil {
		return repositories{}, nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("database connected", "db_name", dbNameFromURL(dbURL))

	identityRepo := postgres.NewIdentityRepository(db)
	closeFn := func(context.Context) error { return db.Close() }

	return repositories{
		identities:  identityRepo,
		conflicts:   postgres.NewConflictRepository(db),
		profiles:    postgres.NewProfileRepository(db),
		values:      postgres.NewValueRepository(db),
		adjustments: postgres.NewAdjustmentRepository(db),
		tuning:      postgres.NewTuningRepository(db),
		markets:     postgres.NewMarketRepository(db),
		merger:      identityRepo,
	}, closeFn, nil
}

func openDB(cfg config.Config, dbURL string) (*sqlx.DB, error) {
	normalized := normalizeDBURL(dbURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", normalized,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
