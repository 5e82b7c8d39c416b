// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gatehouse/gatehouse/internal/auth"
	authpg "github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/candidate"
	candidatepg "github.com/gatehouse/gatehouse/internal/candidate/postgres"
	"github.com/gatehouse/gatehouse/internal/store"
)

// setupPostgres starts a PostgreSQL container, connects a pool, and applies
// all migrations.
func setupPostgres() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gatehouse_test"),
		postgres.WithUsername("gatehouse"),
		postgres.WithPassword("gatehouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	pool, err := store.NewPool(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		pool.Close()
		return nil, nil, err
	}
	_ = migrator.Close()

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup, nil
}

var _ = Describe("PostgreSQL repositories", func() {
	var pool *pgxpool.Pool
	var cleanup func()

	BeforeEach(func() {
		var err error
		pool, cleanup, err = setupPostgres()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	Describe("PrincipalRepository", func() {
		It("round-trips a principal", func() {
			ctx := context.Background()
			repo := authpg.NewPrincipalRepository(pool)

			principal, err := auth.NewPrincipal("alice", "$argon2id$v=19$m=65536,t=1,p=4$salt$hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, principal)).To(Succeed())

			got, err := repo.GetByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(principal.ID))
			Expect(got.PasswordHash).To(Equal(principal.PasswordHash))
			Expect(got.TOTPSecret).To(BeNil())
			Expect(got.RefreshHash).To(BeNil())
		})

		It("rejects duplicate usernames", func() {
			ctx := context.Background()
			repo := authpg.NewPrincipalRepository(pool)

			first, err := auth.NewPrincipal("alice", "hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, first)).To(Succeed())

			second, err := auth.NewPrincipal("alice", "hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, second)).To(MatchError(auth.ErrDuplicateUsername))
		})

		It("matches username case-sensitively", func() {
			ctx := context.Background()
			repo := authpg.NewPrincipalRepository(pool)

			principal, err := auth.NewPrincipal("Alice", "hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, principal)).To(Succeed())

			_, err = repo.GetByUsername(ctx, "alice")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("sets and clears the refresh hash", func() {
			ctx := context.Background()
			repo := authpg.NewPrincipalRepository(pool)

			principal, err := auth.NewPrincipal("alice", "hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, principal)).To(Succeed())

			hash := "refresh-hash"
			Expect(repo.SetRefreshHash(ctx, principal.ID, &hash)).To(Succeed())

			got, err := repo.GetByID(ctx, principal.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.RefreshHash).To(HaveValue(Equal(hash)))

			Expect(repo.SetRefreshHash(ctx, principal.ID, nil)).To(Succeed())
			got, err = repo.GetByID(ctx, principal.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.RefreshHash).To(BeNil())
		})

		It("persists the TOTP secret", func() {
			ctx := context.Background()
			repo := authpg.NewPrincipalRepository(pool)

			principal, err := auth.NewPrincipal("alice", "hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, principal)).To(Succeed())

			Expect(repo.SetTOTPSecret(ctx, principal.ID, "JBSWY3DPEHPK3PXP")).To(Succeed())

			got, err := repo.GetByID(ctx, principal.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.TOTPSecret).To(HaveValue(Equal("JBSWY3DPEHPK3PXP")))
		})
	})

	Describe("CandidateRepository", func() {
		It("lists candidates in creation order", func() {
			ctx := context.Background()
			repo := candidatepg.NewCandidateRepository(pool)

			first, err := candidate.New("Alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, first)).To(Succeed())

			second, err := candidate.New("Bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, second)).To(Succeed())

			candidates, err := repo.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(HaveLen(2))
			Expect(candidates[0].Name).To(Equal("Alice"))
			Expect(candidates[1].Name).To(Equal("Bob"))
		})
	})
})
