package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"habitat/internal/auth"
	"habitat/internal/bootstrap"
	govhandler "habitat/internal/governance/handler"
	"habitat/internal/governance/sweeper"
	memberhandler "habitat/internal/membership/handler"
	memberservice "habitat/internal/membership/service"
	mstore "habitat/internal/membership/store"
	"habitat/internal/platform/config"
	"habitat/internal/platform/httpserver"
	"habitat/internal/platform/kafka"
	"habitat/internal/platform/logger"
	"habitat/internal/platform/metrics"
	"habitat/pkg/platform/audit/worker"
	"habitat/pkg/platform/httputil"
	"habitat/pkg/platform/middleware/admin"
	authmw "habitat/pkg/platform/middleware/auth"
	"habitat/pkg/platform/middleware/metadata"
	"habitat/pkg/platform/middleware/ratelimit"
	request "habitat/pkg/platform/middleware/request"
	"habitat/pkg/platform/middleware/requesttime"
)

// main wires dependencies, serves HTTP and runs the background jobs until
// SIGINT or SIGTERM. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()

	b, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.Server.SeedFile != "" {
		stats, err := mstore.SeedFromFile(ctx, b.Members, cfg.Server.SeedFile)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "membership seed loaded",
			"file", cfg.Server.SeedFile,
			"societies", stats.Societies,
			"residents", stats.Residents,
			"providers", stats.Providers,
		)
	}

	governance := bootstrap.Governance(cfg, b, log, m.Registry())
	membership := memberservice.New(b.Members,
		memberservice.WithLogger(log),
		memberservice.WithPendingListings(governance),
	)

	limiter := ratelimit.New(cfg.RateLimit.VotesPerSecond, cfg.RateLimit.Burst, log)
	jwt := auth.NewMiddlewareAdapter(auth.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer))

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(m.Middleware)
	r.Use(request.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", health(b))
	r.Handle("/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.RequireJSON)
		r.Use(authmw.RequireAuth(jwt, log))
		memberhandler.New(membership, log).Register(r)
		govhandler.New(governance, log, govhandler.WithWriteLimiter(limiter.Middleware)).Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.Auth.AdminToken, log))
		govhandler.NewAdmin(governance, log).Register(r)
	})

	sw, err := sweeper.New(governance, cfg.Governance.SweepSchedule,
		sweeper.WithLogger(log),
		sweeper.WithPruner(limiter),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting habitat", "addr", cfg.Server.Addr)
		return httpserver.Serve(gctx, httpserver.New(cfg.Server.Addr, r), cfg.Server.ShutdownTimeout)
	})
	g.Go(func() error {
		return sw.Run(gctx)
	})
	if cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			return err
		}
		relay := worker.NewWorker(b.Audit, producer, log, worker.WithInterval(cfg.Kafka.RelayInterval))
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func health(b *bootstrap.Backends) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := healthResponse{Status: "ok", Storage: "memory"}
		status := http.StatusOK
		if b.DB != nil {
			resp.Storage = "postgres"
			if err := b.DB.PingContext(ctx); err != nil {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		if b.Redis != nil {
			if err := b.Redis.Health(ctx); err != nil {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, resp)
	}
}
