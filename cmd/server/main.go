// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"simkah/internal/audit"
	audithandler "simkah/internal/audit/handler"
	"simkah/internal/jwttoken"
	"simkah/internal/platform/config"
	"simkah/internal/platform/httpserver"
	"simkah/internal/platform/logger"
	"simkah/internal/platform/metrics"
	platformredis "simkah/internal/platform/redis"
	scenariohandler "simkah/internal/scenario/handler"
	submissionhandler "simkah/internal/submission/handler"
	"simkah/internal/submission/service"
	submissionstore "simkah/internal/submission/store"
	submissionmemory "simkah/internal/submission/store/memory"
	submissionpostgres "simkah/internal/submission/store/postgres"
	"simkah/internal/ticket"
	transport "simkah/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checks := map[string]transport.HealthChecker{}

	// Stores: postgres when configured, in-memory otherwise (dev mode).
	var (
		subStore   submissionstore.Store
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping database", "error", err.Error())
			os.Exit(1)
		}
		subStore = submissionpostgres.New(db)
		auditStore = audit.NewPostgres(db)
		checks["postgres"] = dbHealth{db: db}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		subStore = submissionmemory.New()
		auditStore = audit.NewInMemoryStore()
	}

	// Ticket sequence: redis when configured, in-memory otherwise.
	var sequencer ticket.Sequencer = ticket.NewInMemorySequencer()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sequencer = ticket.NewRedisSequencer(redisClient.Client)
		checks["redis"] = redisClient
	} else {
		log.Warn("REDIS_URL not set, using in-memory ticket sequence")
	}

	// Audit feed: the channel worker drains events off the request path.
	inbox := make(chan audit.Event, cfg.AuditBuffer)
	auditWorker := audit.NewWorker(auditStore, inbox)
	auditSvc := audit.NewService(auditStore)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	jwtValidator := jwttoken.NewJWTServiceAdapter(jwtService)

	submissions := service.New(subStore, ticket.NewAllocator(sequencer),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(audit.NewChannelPublisher(inbox)),
	)

	router := transport.NewRouter(transport.Config{
		Logger: log,
		Handlers: []transport.Registrar{
			submissionhandler.New(submissions, log, m, jwtValidator),
			audithandler.New(auditSvc, log, jwtValidator),
			scenariohandler.New(log, jwtValidator),
		},
		Checks: checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting simkah server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := auditWorker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
