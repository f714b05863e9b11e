package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"kitabu/internal/domain/validator"
	"kitabu/internal/infra/db"
	"kitabu/internal/infra/repository"
	"kitabu/internal/pkg/errs"
	"kitabu/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

type PostgresUoW struct {
	pool     *pgxpool.Pool
	registry *validator.Registry
}

func NewPostgresUoW(pool *pgxpool.Pool, registry *validator.Registry) shared.UnitOfWork {
	return &PostgresUoW{pool: pool, registry: registry}
}

// ReadCommitted suffices: admissions serialize on subject row locks, not on
// isolation level.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// Avoids defer accumulation in the retry loop to prevent connection leaks.
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		tx := &pgTx{dbtx: pgxTx, registry: u.registry}

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries {
				slog.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, base)

		slog.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx     db.DBTX
	registry *validator.Registry

	// Lazy-initialized repositories
	subjectRepo     shared.SubjectRepository
	reservationRepo shared.ReservationRepository
	groupRepo       shared.GroupRepository
	validatorRepo   shared.ValidatorRepository
	clusterRepo     shared.ClusterRepository
	ownerRepo       shared.OwnerRepository
}

func (t *pgTx) Subjects() shared.SubjectRepository {
	if t.subjectRepo == nil {
		t.subjectRepo = repository.NewSubjectRepository(t.dbtx)
	}
	return t.subjectRepo
}

func (t *pgTx) Reservations() shared.ReservationRepository {
	if t.reservationRepo == nil {
		t.reservationRepo = repository.NewReservationRepository(t.dbtx)
	}
	return t.reservationRepo
}

func (t *pgTx) Groups() shared.GroupRepository {
	if t.groupRepo == nil {
		t.groupRepo = repository.NewGroupRepository(t.dbtx)
	}
	return t.groupRepo
}

func (t *pgTx) Validators() shared.ValidatorRepository {
	if t.validatorRepo == nil {
		t.validatorRepo = repository.NewValidatorRepository(t.dbtx, t.registry)
	}
	return t.validatorRepo
}

func (t *pgTx) Clusters() shared.ClusterRepository {
	if t.clusterRepo == nil {
		t.clusterRepo = repository.NewClusterRepository(t.dbtx)
	}
	return t.clusterRepo
}

func (t *pgTx) Owners() shared.OwnerRepository {
	if t.ownerRepo == nil {
		t.ownerRepo = repository.NewOwnerRepository(t.dbtx)
	}
	return t.ownerRepo
}
