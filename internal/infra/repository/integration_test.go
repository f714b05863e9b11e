//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"kitabu/internal/domain/subject"
	"kitabu/internal/domain/validator"
	"kitabu/internal/infra/db"
	"kitabu/internal/infra/readstore"
	"kitabu/internal/infra/uow"
	"kitabu/internal/pkg/clock"
	"kitabu/internal/pkg/config"
	"kitabu/internal/pkg/jwt"
	"kitabu/internal/usecase/commands"
	"kitabu/internal/usecase/queries"
	"kitabu/internal/usecase/shared"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce      sync.Once
	pgContainer testcontainers.Container

	pgUser     = "test"
	pgPassword = "testpass"
)

func startPostgresOnce(t *testing.T) config.DBConfig {
	t.Helper()

	pgOnce.Do(func() {
		req := testcontainers.ContainerRequest{
			Image:        "postgres:17",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       "postgres",
			},
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw,size=512m",
			},
			Cmd: []string{
				"postgres",
				"-c", "fsync=off",
				"-c", "synchronous_commit=off",
				"-c", "max_connections=200",
			},
			WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
				return fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=disable",
					pgUser, pgPassword, host, port.Port())
			}).WithStartupTimeout(60 * time.Second),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
		defer cancel()

		var err error
		pgContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		require.NoError(t, err, "failed to start postgres container")
	})

	ctx := context.Background()
	mappedPort, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	return config.DBConfig{
		Host:     host,
		Port:     mappedPort.Port(),
		User:     pgUser,
		Password: pgPassword,
		DBName:   "postgres",
		SSLMode:  "disable",
	}
}

// newTestPool creates a throwaway database on the shared container and
// applies the schema, so every test starts from a clean slate.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	adminCfg := startPostgresOnce(t)
	dbName := "testdb_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	adminPool, err := pgxpool.New(ctx, adminCfg.BuildDSN())
	require.NoError(t, err)
	defer adminPool.Close()

	_, err = adminPool.Exec(ctx, "CREATE DATABASE "+dbName)
	require.NoError(t, err, "failed to create test database")

	cfg := adminCfg
	cfg.DBName = dbName

	pool, cleanup, err := db.Connect(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, db.ApplySchema(ctx, pool))

	t.Cleanup(func() {
		cleanup()

		dropCtx, dropCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dropCancel()
		dropPool, err := pgxpool.New(dropCtx, adminCfg.BuildDSN())
		if err != nil {
			return
		}
		defer dropPool.Close()
		_, _ = dropPool.Exec(dropCtx, "DROP DATABASE IF EXISTS "+dbName)
	})

	return pool
}

type integrationEnv struct {
	pool         *pgxpool.Pool
	uow          shared.UnitOfWork
	store        queries.ReadStore
	registry     *validator.Registry
	reservations commands.ReservationCommands
	subjects     commands.SubjectCommands
	auth         commands.AuthCommands
}

func newIntegrationEnv(t *testing.T, groupDelay time.Duration) *integrationEnv {
	t.Helper()

	pool := newTestPool(t)
	registry := validator.NewRegistry()
	unit := uow.NewPostgresUoW(pool, registry)
	clk := clock.NewRealClock()

	return &integrationEnv{
		pool:         pool,
		uow:          unit,
		store:        readstore.NewPostgresReadStore(pool),
		registry:     registry,
		reservations: commands.NewReservationCommands(unit, clk, registry, groupDelay),
		subjects:     commands.NewSubjectCommands(unit, clk, registry),
		auth:         commands.NewAuthCommands(unit, jwt.NewService("integration-secret", time.Hour)),
	}
}

func window(dayOffset, startH, endH int) (time.Time, time.Time) {
	day := time.Now().UTC().AddDate(0, 0, dayOffset).Truncate(24 * time.Hour)
	return day.Add(time.Duration(startH) * time.Hour), day.Add(time.Duration(endH) * time.Hour)
}

func TestReserveRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newIntegrationEnv(t, 0)

	subj, err := env.subjects.CreateSubject(ctx, commands.CreateSubjectParams{Name: "lab", Capacity: 2})
	require.NoError(t, err)

	start, end := window(1, 10, 12)
	ownerID := uuid.New()

	res, err := env.reservations.Reserve(ctx, commands.ReserveParams{
		SubjectID: subj.ID(),
		OwnerID:   &ownerID,
		Start:     start,
		End:       end,
		Size:      2,
	})
	require.NoError(t, err)

	view, err := env.store.ReservationByID(ctx, res.ID())
	require.NoError(t, err)
	assert.Equal(t, subj.ID(), view.SubjectID)
	assert.Equal(t, 2, view.Size)
	assert.True(t, view.Approved)
	assert.True(t, view.Start.Equal(start))
	assert.True(t, view.End.Equal(end))

	_, err = env.reservations.Reserve(ctx, commands.ReserveParams{
		SubjectID: subj.ID(), Start: start, End: end, Size: 1,
	})
	require.ErrorIs(t, err, subject.ErrSizeExceeded, "the persisted row must count against capacity")
}

func TestApprovalRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newIntegrationEnv(t, 0)

	approvalWindow := time.Hour
	subj, err := env.subjects.CreateSubject(ctx, commands.CreateSubjectParams{
		Name: "review room", Capacity: 1, ApprovalWindow: &approvalWindow,
	})
	require.NoError(t, err)

	start, end := window(1, 10, 12)
	res, err := env.reservations.Reserve(ctx, commands.ReserveParams{SubjectID: subj.ID(), Start: start, End: end})
	require.NoError(t, err)
	require.False(t, res.Approved())
	require.NotNil(t, res.ValidUntil())

	approved, err := env.reservations.Approve(ctx, res.ID())
	require.NoError(t, err)
	assert.True(t, approved.Approved())

	view, err := env.store.ReservationByID(ctx, res.ID())
	require.NoError(t, err)
	assert.True(t, view.Approved)
}

func TestValidatorChainRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newIntegrationEnv(t, 0)

	subj, err := env.subjects.CreateSubject(ctx, commands.CreateSubjectParams{Name: "studio", Capacity: 4})
	require.NoError(t, err)

	id, err := env.subjects.CreateValidator(ctx, commands.CreateValidatorParams{
		Kind:   validator.KindMaxDuration,
		Params: []byte(`{"max_seconds":3600}`),
	})
	require.NoError(t, err)
	require.NoError(t, env.subjects.AttachValidator(ctx, subj.ID(), id))

	start, end := window(1, 10, 12)
	_, err = env.reservations.Reserve(ctx, commands.ReserveParams{SubjectID: subj.ID(), Start: start, End: end})
	require.ErrorIs(t, err, validator.ErrInvalidPeriod, "stored params must decode back into a working rule")

	shortStart, shortEnd := window(1, 10, 11)
	_, err = env.reservations.Reserve(ctx, commands.ReserveParams{SubjectID: subj.ID(), Start: shortStart, End: shortEnd})
	require.NoError(t, err)
}

// Two group reservations race for the same two subjects, listing them in
// opposite orders while a deliberate delay keeps both transactions open at
// once. Row locks taken in sorted order must serialize them: one commits,
// one observes the winner's rows and rolls back, and neither subject ends
// up overbooked.
func TestGroupReserveIsolation(t *testing.T) {
	ctx := context.Background()
	env := newIntegrationEnv(t, 100*time.Millisecond)

	first, err := env.subjects.CreateSubject(ctx, commands.CreateSubjectParams{Name: "first", Capacity: 1})
	require.NoError(t, err)
	second, err := env.subjects.CreateSubject(ctx, commands.CreateSubjectParams{Name: "second", Capacity: 1})
	require.NoError(t, err)

	start, end := window(1, 10, 12)
	request := func(id uuid.UUID) commands.ReserveParams {
		return commands.ReserveParams{SubjectID: id, Start: start, End: end, Size: 1}
	}

	orders := [][]commands.ReserveParams{
		{request(first.ID()), request(second.ID())},
		{request(second.ID()), request(first.ID())},
	}

	errc := make(chan error, len(orders))
	var wg sync.WaitGroup
	for _, requests := range orders {
		wg.Add(1)
		go func(requests []commands.ReserveParams) {
			defer wg.Done()
			_, err := env.reservations.ReserveGroup(ctx, requests)
			errc <- err
		}(requests)
	}
	wg.Wait()
	close(errc)

	failures := 0
	for err := range errc {
		if err != nil {
			require.ErrorIs(t, err, subject.ErrSizeExceeded)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one group must lose the race")

	for _, id := range []uuid.UUID{first.ID(), second.ID()} {
		subjectID := id
		rows, err := env.store.SearchReservations(ctx, queries.ReservationFilter{SubjectID: &subjectID})
		require.NoError(t, err)
		assert.Len(t, rows, 1, "no subject may be overbooked")
	}
}

// Two plain reserves contend for the same subject row on a real database.
// FOR UPDATE serializes them: the subject holds 1 of 5 up front, each racer
// asks for 4 more, and only one can be admitted.
func TestReserveIsolation(t *testing.T) {
	ctx := context.Background()
	env := newIntegrationEnv(t, 0)

	subj, err := env.subjects.CreateSubject(ctx, commands.CreateSubjectParams{Name: "shared", Capacity: 5})
	require.NoError(t, err)

	start, end := window(1, 10, 12)
	_, err = env.reservations.Reserve(ctx, commands.ReserveParams{
		SubjectID: subj.ID(), Start: start, End: end, Size: 1,
	})
	require.NoError(t, err)

	errc := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.reservations.Reserve(ctx, commands.ReserveParams{
				SubjectID: subj.ID(), Start: start, End: end, Size: 4,
			})
			errc <- err
		}()
	}
	wg.Wait()
	close(errc)

	failures := 0
	for err := range errc {
		if err != nil {
			require.ErrorIs(t, err, subject.ErrSizeExceeded)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one reserve must lose the race")

	subjectID := subj.ID()
	rows, err := env.store.SearchReservations(ctx, queries.ReservationFilter{SubjectID: &subjectID})
	require.NoError(t, err)
	assert.Len(t, rows, 2, "the seeded row plus the single winner")
}

func TestOwnerUniqueEmail(t *testing.T) {
	ctx := context.Background()
	env := newIntegrationEnv(t, 0)

	params := commands.RegisterParams{Email: "alice@example.com", Password: "correct-horse", Role: "member"}
	registered, err := env.auth.Register(ctx, params)
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, params)
	require.ErrorIs(t, err, commands.ErrEmailTaken)

	result, err := env.auth.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.ID(), result.OwnerID)
}
