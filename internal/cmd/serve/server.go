package serve

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/moltbook/memory-bridge/internal/config"
	"github.com/moltbook/memory-bridge/internal/keywords"
	"github.com/moltbook/memory-bridge/internal/memory"
	"github.com/moltbook/memory-bridge/internal/plugin/route/memories"
	routesystem "github.com/moltbook/memory-bridge/internal/plugin/route/system"
	storemetrics "github.com/moltbook/memory-bridge/internal/plugin/store/metrics"
	registrycache "github.com/moltbook/memory-bridge/internal/registry/cache"
	registryroute "github.com/moltbook/memory-bridge/internal/registry/route"
	registrystore "github.com/moltbook/memory-bridge/internal/registry/store"
	"github.com/moltbook/memory-bridge/internal/security"
	"github.com/moltbook/memory-bridge/internal/service"
)

// Server holds the running server and its subsystems.
type Server struct {
	Config          *config.Config
	Store           registrystore.MemoryStore
	Service         *memory.Service
	Router          *gin.Engine
	Running         *RunningServer
	closeManagement func(context.Context) error
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.closeManagement != nil {
		_ = s.closeManagement(ctx)
	}
	return s.Running.Close(ctx)
}

// StartServer initializes all subsystems and starts the HTTP server.
// Use cfg.Listener.Port=0 for a random port. Actual port: Server.Running.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log.Info("Starting memory bridge",
		"httpPort", cfg.Listener.Port,
		"db", cfg.DatastoreType,
		"cache", cfg.CacheType,
	)

	// Initialize Prometheus metrics with configured constant labels.
	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)
	keywords.OnFallback = func() {
		security.KeywordExtractionFallbacksTotal.Inc()
	}

	// Initialize cache.
	var queryCache registrycache.QueryCache
	if cacheLoader, err := registrycache.Select(cfg.CacheType); err != nil {
		log.Warn("Cache not available", "cache", cfg.CacheType, "err", err)
	} else if qc, err := cacheLoader(ctx); err != nil {
		log.Warn("Failed to initialize cache", "cache", cfg.CacheType, "err", err)
	} else {
		queryCache = qc
	}

	// Initialize store.
	storeLoader, err := registrystore.Select(cfg.DatastoreType)
	if err != nil {
		return nil, err
	}
	store, err := storeLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	store = storemetrics.Wrap(store)

	if cfg.DatastoreMigrateAtStart {
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}

	// Set up gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ManagementAccessLog {
		router.Use(security.AccessLogMiddleware())
	} else {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	router.Use(maxBodySizeMiddleware(cfg.MaxBodySize))

	// Mount main route plugins on the main router.
	for _, loader := range registryroute.MainRouteLoaders() {
		if err := loader(router); err != nil {
			return nil, fmt.Errorf("failed to load routes: %w", err)
		}
	}

	// Start the background enricher before the facade so stores can enqueue.
	var enricher *service.Enricher
	var queue memory.EnrichmentQueue
	if cfg.EnrichmentEnabled {
		enricher = service.NewEnricher(store, queryCache, cfg.MaxKeywords, cfg.EnrichmentQueueSize)
		go enricher.Start(ctx)
		queue = enricher
	}

	svc := memory.New(cfg, store, queryCache, queue)

	// Create shared key resolver and auth middleware, then mount API routes.
	resolver := security.NewKeyResolver(cfg)
	auth := security.AuthMiddleware(resolver)
	memories.MountRoutes(router, svc, auth)

	// Mount management route plugins. If a dedicated management port is configured,
	// run them on a bare gin engine served by the management server. Otherwise,
	// mount them on the main router so single-port behaviour is unchanged.
	var closeManagement func(context.Context) error
	if cfg.ManagementListenerEnabled {
		mgmtRouter := gin.New()
		mgmtRouter.Use(gin.Recovery())
		if cfg.ManagementAccessLog {
			mgmtRouter.Use(security.AccessLogMiddleware())
		}
		for _, loader := range registryroute.ManagementRouteLoaders() {
			if err := loader(mgmtRouter); err != nil {
				return nil, fmt.Errorf("failed to load management routes: %w", err)
			}
		}
		// Management listener shares TLS cert/key with the main listener.
		mgmtCfg := cfg.ManagementListener
		mgmtCfg.TLSCertFile = cfg.Listener.TLSCertFile
		mgmtCfg.TLSKeyFile = cfg.Listener.TLSKeyFile
		_, closeManagement, err = startManagementServer(mgmtCfg, mgmtRouter)
		if err != nil {
			return nil, fmt.Errorf("failed to start management server: %w", err)
		}
	} else {
		for _, loader := range registryroute.ManagementRouteLoaders() {
			if err := loader(router); err != nil {
				return nil, fmt.Errorf("failed to load management routes: %w", err)
			}
		}
	}

	running, err := StartSinglePortHTTP(ctx, cfg.Listener, router)
	if err != nil {
		return nil, err
	}

	log.Info("Server listening",
		"port", running.Port,
		"plaintext", cfg.Listener.EnablePlainText,
		"tls", cfg.Listener.EnableTLS,
	)

	routesystem.MarkReady()
	return &Server{
		Config:          cfg,
		Store:           store,
		Service:         svc,
		Router:          router,
		Running:         running,
		closeManagement: closeManagement,
	}, nil
}
