// Package bootstrap opens the storage and lock backends selected by config
// and assembles the governance engine on top of them. The server and the
// operator CLI share it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"habitat/internal/governance/lock"
	govmetrics "habitat/internal/governance/metrics"
	"habitat/internal/governance/models"
	govservice "habitat/internal/governance/service"
	gstore "habitat/internal/governance/store"
	memberservice "habitat/internal/membership/service"
	mstore "habitat/internal/membership/store"
	"habitat/internal/platform/config"
	"habitat/internal/platform/postgres"
	redisclient "habitat/internal/platform/redis"
	"habitat/pkg/platform/audit"
	"habitat/pkg/platform/audit/publishers/compliance"
	auditmemory "habitat/pkg/platform/audit/store/memory"
	auditpostgres "habitat/pkg/platform/audit/store/postgres"
	"habitat/pkg/platform/circuit"
)

const localLockTimeout = 5 * time.Second

// MembershipBackend is everything the process needs from the membership
// store: governance reads and commits, membership queries and seeding.
type MembershipBackend interface {
	mstore.Seeder
	govservice.MembershipStore
	memberservice.Store
}

// AuditBackend is an audit store that also feeds the outbox relay.
type AuditBackend interface {
	audit.Store
	audit.OutboxSource
}

// Backends holds the storage and lock implementations chosen by config.
type Backends struct {
	Requests govservice.Store
	Members  MembershipBackend
	Audit    AuditBackend
	Tx       govservice.TxRunner
	Locker   lock.Locker
	DB       *sql.DB
	Redis    *redisclient.Client
}

func (b *Backends) Close() {
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
	if b.DB != nil {
		_ = b.DB.Close()
	}
}

// Open connects the configured backends. Postgres is migrated on open.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}
	switch cfg.Server.StorageBackend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		b.DB = db
		b.Requests = gstore.NewPostgres(db)
		b.Members = mstore.NewPostgres(db)
		b.Audit = auditpostgres.New(db)
		b.Tx = postgres.NewTxRunner(db, cfg.Database.TxTimeout)
		logger.InfoContext(ctx, "using postgres storage")
	default:
		b.Requests = gstore.NewInMemory()
		b.Members = mstore.NewInMemory()
		b.Audit = auditmemory.NewInMemoryStore()
		logger.InfoContext(ctx, "using in-memory storage")
	}

	switch cfg.Server.LockBackend {
	case config.BackendRedis:
		client, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.Redis = client
		b.Locker = lock.NewRedisLocker(client.Client,
			lock.WithExpiry(cfg.Redis.LockExpiry),
			lock.WithRedisLogger(logger),
		)
		logger.InfoContext(ctx, "using redis locks")
	default:
		b.Locker = lock.NewKeyedLocker(localLockTimeout)
	}
	return b, nil
}

// QuorumPolicy builds the configured policy. The version recorded on each
// request names the policy and its thresholds.
func QuorumPolicy(cfg config.GovernanceConfig) models.QuorumPolicy {
	if cfg.QuorumPolicy == config.QuorumFixed {
		version := fmt.Sprintf("fixed-%d-%d-%s", cfg.ApproveThreshold, cfg.RejectThreshold, cfg.PolicyVersion)
		return models.NewFixedPolicy(version, cfg.ApproveThreshold, cfg.RejectThreshold)
	}
	return models.NewMajorityPolicy("majority-" + cfg.PolicyVersion)
}

// Governance assembles the engine over b. reg receives the governance and
// audit metrics.
func Governance(cfg config.Config, b *Backends, logger *slog.Logger, reg prometheus.Registerer) *govservice.Service {
	publisher := compliance.New(b.Audit,
		compliance.WithLogger(logger),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)
	opts := []govservice.Option{
		govservice.WithLogger(logger),
		govservice.WithMetrics(govmetrics.New(reg)),
		govservice.WithAuditPublisher(publisher),
		govservice.WithLocker(b.Locker),
		govservice.WithPolicy(QuorumPolicy(cfg.Governance)),
		govservice.WithVotingWindow(cfg.Governance.VotingWindow),
		govservice.WithEscalationAttempts(cfg.Governance.EscalationAttempts),
		govservice.WithCommitBreaker(circuit.New("membership-commit")),
	}
	if b.Tx != nil {
		opts = append(opts, govservice.WithTxRunner(b.Tx))
	}
	return govservice.New(b.Requests, b.Members, opts...)
}
