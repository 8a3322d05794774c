// Дашборд Gate Admin: вход, защищённые страницы и экран Gate Master поверх Gate API.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/config"
	"github.com/gateadmin/internal/handler"
	"github.com/gateadmin/internal/listctl"
	"github.com/gateadmin/internal/live"
	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/middleware"
	"github.com/gateadmin/internal/startup"
	"github.com/gateadmin/internal/storage"
	"github.com/gateadmin/internal/storage/memory"
	"github.com/gateadmin/internal/storage/postgres"
	"github.com/gateadmin/migrations"
)

func main() {
	logger.SetPrefix("dashboard")
	dev := flag.Bool("dev", false, "store sessions in embedded PostgreSQL (no external DB required)")
	flag.Parse()

	logger.Info("starting dashboard")
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync(2 * time.Second)

	if *dev {
		embedded := startup.EmbeddedPostgres{
			Port:     5433,
			DataDir:  filepath.Join(".", ".pgdata"),
			User:     "gate",
			Password: "gate_secret",
			Database: "gate_dashboard",
		}
		db, err := startup.StartEmbeddedPostgres(embedded)
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			os.Exit(1)
		}
		defer stopEmbedded(db)
		cfg.SessionStore = config.StorePostgres
		cfg.Database.URL = embedded.URL()
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	store, closeStore := openStore(bgCtx, cfg)
	defer closeStore()
	defer bgCancel()
	logger.Infof("session store: %s", cfg.SessionStore)

	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)
	pages, err := handler.NewRenderer()
	if err != nil {
		logger.Errorf("templates: %v", err)
		os.Exit(1)
	}

	controllerOpts := listctl.Options{
		Limit:        cfg.DefaultPageLimit,
		LimitOptions: cfg.LimitOptions,
		Debounce:     cfg.SearchDebounce,
	}
	hub := live.NewHub(cfg.MaxWSConnections, live.Config{
		WriteWait:      cfg.WSWriteTimeout,
		PongWait:       cfg.WSPongTimeout,
		MaxMessageSize: cfg.WSMaxMessageSize,
		SendBufSize:    cfg.WSSendBufferSize,
		Controller:     controllerOpts,
	})
	hubCtx, hubCancel := context.WithCancel(context.Background())
	var hubWg sync.WaitGroup
	hubWg.Add(1)
	go func() {
		defer hubWg.Done()
		hub.Run(hubCtx)
	}()

	authH := handler.NewAuthHandler(api, pages, hub)
	pageH := handler.NewPageHandler(pages)
	gateH := handler.NewGateMasterHandler(api, pages, cfg.DefaultPageLimit, cfg.LimitOptions)
	wsH := handler.NewWSHandler(hub, api, cfg.CORSAllowedOrigins)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.RequestLog)
	r.Use(middleware.BrowserSession(store, middleware.SessionCookie{
		Name:   cfg.SessionCookie,
		Secure: cfg.CookieSecure,
		TTL:    cfg.SessionTTL,
	}))
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", handler.Health)
	r.Handle("/static/*", handler.Static())
	r.With(middleware.InternalOnly(cfg.InternalSecret)).Get("/internal/stats", handler.Stats(hub, cfg.SessionStore))
	r.Get("/signin", authH.SignInPage)
	r.With(middleware.RateLimitSignIn(cfg.SignInPerMinute)).Post("/signin", authH.SignIn)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)
		r.Get("/", pageH.Dashboard)
		r.Get("/gate-master", gateH.Page)
		r.Get("/basic-tables", pageH.BasicTables)
		r.Post("/signout", authH.SignOut)
		r.Get("/api/gerbangs", gateH.List)
		r.Get("/ws", wsH.ServeWS)
	})
	r.NotFound(pageH.NotFound)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("dashboard listening on %s (Gate API %s)", cfg.ServerAddr, cfg.APIBaseURL)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			hubCancel()
			hubWg.Wait()
			return
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	logger.Info("server stopped accepting connections")
	hubCancel()
	hubWg.Wait()
	logger.Info("hub stopped")
	srvWg.Wait()
}

// openStore выбирает хранилище сессий по SESSION_STORE. Возвращаемая функция
// освобождает соединения.
func openStore(ctx context.Context, cfg *config.Config) (storage.SessionStore, func()) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		client := startup.ConnectRedisWithRetry(cfg.Redis.URL, cfg.SessionTTL, 60*time.Second, "dashboard: ")
		return client, func() {
			if err := client.Close(); err != nil {
				logger.Errorf("redis close: %v", err)
			}
		}
	case config.StorePostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
		if err != nil {
			logger.Errorf("parse db config: %v", err)
			os.Exit(1)
		}
		poolCfg.MaxConns = int32(cfg.DBMaxConnections())
		pool := startup.ConnectDBWithRetry(poolCfg, 60*time.Second, "dashboard: ")
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = startup.RunMigrations(migrateCtx, pool, migrations.Files)
		cancel()
		if err != nil {
			logger.Errorf("%v", err)
			pool.Close()
			os.Exit(1)
		}
		client := postgres.New(pool, cfg.SessionTTL)
		go purgeExpired(ctx, client, 10*time.Minute)
		return client, pool.Close
	default:
		client := memory.New(cfg.SessionTTL)
		go purgeExpired(ctx, client, 10*time.Minute)
		return client, func() {}
	}
}

// purgeExpired периодически удаляет истёкшие сессии (Postgres и in-memory).
func purgeExpired(ctx context.Context, client storage.Purger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := client.PurgeExpired(ctx)
			if err != nil {
				logger.Errorf("purge sessions: %v", err)
				continue
			}
			if n > 0 {
				logger.Infof("purged %d expired session keys", n)
			}
		}
	}
}

func stopEmbedded(db *embeddedpostgres.EmbeddedPostgres) {
	logger.Info("stopping embedded postgres...")
	if err := db.Stop(); err != nil {
		logger.Errorf("embedded postgres stop: %v", err)
	}
}
