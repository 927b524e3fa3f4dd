// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"prive-club/internal/model"
	"prive-club/internal/pkg/db"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func createTestAccount(t *testing.T, pool *pgxpool.Pool, name string) *model.Account {
	t.Helper()
	repo := NewAccountRepository(pool)
	account, err := repo.Create(context.Background(), name, nil)
	require.NoError(t, err)
	return account
}

// ============================================================================
// AccountRepository Tests
// ============================================================================

func TestAccountRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	account, err := repo.Create(ctx, "Maria Silva", nil)
	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.Equal(t, "Maria Silva", account.Name)
	assert.Equal(t, int64(0), account.Balance)
	assert.True(t, account.Active)
	assert.Nil(t, account.ReferredBy)
	assert.False(t, account.CreatedAt.IsZero())
}

func TestAccountRepository_ReferralCode(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	account := createTestAccount(t, pool, "Ana")
	require.NoError(t, repo.SetReferralCode(ctx, account.ID, "JZ-TEST99"))

	found, err := repo.GetByReferralCode(ctx, "JZ-TEST99")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = repo.GetByReferralCode(ctx, "JZ-NOPE")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	code := "JZ-TEST99"
	referred, err := repo.Create(ctx, "Beatriz", &code)
	require.NoError(t, err)

	list, err := repo.ListReferredBy(ctx, "JZ-TEST99")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, referred.ID, list[0].ID)
}

func TestAccountRepository_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	_, err := repo.GetByID(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_Reconcile(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	ledgerRepo := NewLedgerRepository(pool)
	ctx := context.Background()

	account := createTestAccount(t, pool, "Clara")

	// Reconcile with an empty ledger resets to zero
	balance, err := accountRepo.Reconcile(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	_, err = ledgerRepo.Append(ctx, account.ID, 200, model.SourceReferral, nil)
	require.NoError(t, err)
	_, err = ledgerRepo.Append(ctx, account.ID, -50, model.SourceRedemption, nil)
	require.NoError(t, err)

	balance, err = accountRepo.Reconcile(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	// Idempotent: a second run does not change the result
	balance, err = accountRepo.Reconcile(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	// Even a corrupted cache is overwritten by the ledger sum
	_, err = accountRepo.IncrementBalance(ctx, account.ID, 1000)
	require.NoError(t, err)
	balance, err = accountRepo.Reconcile(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)
}

func TestAccountRepository_Deactivate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	account := createTestAccount(t, pool, "Duda")
	require.NoError(t, repo.Deactivate(ctx, account.ID))

	found, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)

	// Inactive accounts drop out of the roster listing
	list, err := repo.List(ctx)
	require.NoError(t, err)
	for _, a := range list {
		assert.NotEqual(t, account.ID, a.ID)
	}

	assert.ErrorIs(t, repo.Deactivate(ctx, 99999), ErrAccountNotFound)
}

// ============================================================================
// LedgerRepository Tests
// ============================================================================

func TestLedgerRepository_AppendAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewLedgerRepository(pool)
	ctx := context.Background()

	account := createTestAccount(t, pool, "Elisa")

	desc := "arrival check-in"
	entry, err := repo.Append(ctx, account.ID, 50, model.SourceCheckin, &desc)
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.Equal(t, int64(50), entry.Amount)
	assert.Equal(t, model.SourceCheckin, entry.Source)
	require.NotNil(t, entry.Description)
	assert.Equal(t, desc, *entry.Description)

	_, err = repo.Append(ctx, account.ID, -30, model.SourceRedemption, nil)
	require.NoError(t, err)

	_, err = repo.Append(ctx, account.ID, 0, model.SourceCheckin, nil)
	assert.ErrorIs(t, err, ErrZeroEntryAmount)

	entries, err := repo.ListByAccount(ctx, account.ID, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first
	assert.Equal(t, int64(-30), entries[0].Amount)
	assert.Equal(t, int64(50), entries[1].Amount)

	sum, err := repo.SumByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), sum)

	count, err := repo.CountByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLedgerRepository_ListSince(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewLedgerRepository(pool)
	ctx := context.Background()

	account := createTestAccount(t, pool, "Fernanda")

	_, err := repo.Append(ctx, account.ID, 50, model.SourceCheckin, nil)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	entries, err := repo.ListByAccount(ctx, account.ID, &future)
	require.NoError(t, err)
	assert.Empty(t, entries)

	past := time.Now().Add(-time.Hour)
	entries, err = repo.ListByAccount(ctx, account.ID, &past)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedgerRepository_SumEmptyAccount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewLedgerRepository(pool)
	account := createTestAccount(t, pool, "Gabriela")

	sum, err := repo.SumByAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
}

// ============================================================================
// RuleRepository Tests
// ============================================================================

func TestRuleRepository_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRuleRepository(pool)
	ctx := context.Background()

	rule, err := repo.Upsert(ctx, &model.RewardRule{
		Code:        model.SourceCheckin,
		Description: "Arrival check-in",
		Points:      50,
		Active:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(50), rule.Points)

	// Upsert on the same code updates in place
	rule, err = repo.Upsert(ctx, &model.RewardRule{
		Code:        model.SourceCheckin,
		Description: "Arrival check-in",
		Points:      75,
		Active:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(75), rule.Points)

	rules, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	_, err = repo.GetByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRuleRepository_SetActive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRuleRepository(pool)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, &model.RewardRule{
		Code:   model.SourceReferral,
		Points: 200,
		Active: true,
	})
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(ctx, model.SourceReferral, false))

	rule, err := repo.GetByCode(ctx, model.SourceReferral)
	require.NoError(t, err)
	assert.False(t, rule.Active)

	assert.ErrorIs(t, repo.SetActive(ctx, "NOPE", true), ErrRuleNotFound)
}

// ============================================================================
// TierRepository Tests
// ============================================================================

func TestTierRepository_Replace(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewTierRepository(pool)
	ctx := context.Background()

	err := repo.Replace(ctx, []model.Tier{
		{Name: "Select", MinPoints: 0},
		{Name: "Prime", MinPoints: 500},
	})
	require.NoError(t, err)

	tiers, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, "Select", tiers[0].Name)
	assert.Equal(t, "Prime", tiers[1].Name)

	// Replace swaps the whole table
	err = repo.Replace(ctx, []model.Tier{
		{Name: "Silver", MinPoints: 0},
		{Name: "Gold", MinPoints: 500},
		{Name: "Diamond", MinPoints: 1000},
	})
	require.NoError(t, err)

	tiers, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 3)
	assert.Equal(t, "Diamond", tiers[2].Name)
}

// ============================================================================
// RewardRepository Tests
// ============================================================================

func TestRewardRepository_CRUD(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRewardRepository(pool)
	ctx := context.Background()

	stock := 5
	reward, err := repo.Create(ctx, &model.Reward{
		Title:      "Lash refill discount",
		Category:   "discount",
		PointsCost: 300,
		Stock:      &stock,
		Active:     true,
	})
	require.NoError(t, err)
	assert.NotZero(t, reward.ID)

	_, err = repo.Create(ctx, &model.Reward{
		Title:      "Free hydragloss",
		PointsCost: 150,
		Active:     false,
	})
	require.NoError(t, err)

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Cheapest first
	assert.Equal(t, int64(150), all[0].PointsCost)

	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, reward.ID, active[0].ID)

	reward.PointsCost = 250
	updated, err := repo.Update(ctx, reward)
	require.NoError(t, err)
	assert.Equal(t, int64(250), updated.PointsCost)

	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrRewardNotFound)
}

// ============================================================================
// CampaignRepository Tests
// ============================================================================

func TestCampaignRepository_Lifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCampaignRepository(pool)
	ctx := context.Background()

	campaign, err := repo.Create(ctx, &model.Campaign{
		Name:        "Double points week",
		Multiplier:  2,
		TargetTiers: []string{"Select", "Prime"},
		NotifyTitle: "Double points!",
		NotifyBody:  "All week long",
	})
	require.NoError(t, err)
	assert.False(t, campaign.Active, "campaigns start inactive")
	assert.Equal(t, []string{"Select", "Prime"}, campaign.TargetTiers)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	campaign, err = repo.SetActive(ctx, campaign.ID, true)
	require.NoError(t, err)
	assert.True(t, campaign.Active)

	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, campaign.ID, active[0].ID)

	_, err = repo.SetActive(ctx, 99999, true)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

// ============================================================================
// AppointmentRepository Tests
// ============================================================================

func TestAppointmentRepository_CreateAndTransition(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAppointmentRepository(pool)
	ctx := context.Background()

	account := createTestAccount(t, pool, "Helena")

	appointment, err := repo.Create(ctx, &model.Appointment{
		AccountID:   account.ID,
		ServiceName: "Volume lashes",
		AmountCents: 25000,
		ScheduledAt: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentScheduled, appointment.Status)

	updated, err := repo.UpdateStatus(ctx, appointment.ID, model.AppointmentScheduled, model.AppointmentCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCompleted, updated.Status)

	// A second transition from the stale expected status loses the race
	_, err = repo.UpdateStatus(ctx, appointment.ID, model.AppointmentScheduled, model.AppointmentCancelled)
	assert.ErrorIs(t, err, ErrStatusConflict)

	_, err = repo.UpdateStatus(ctx, 99999, model.AppointmentScheduled, model.AppointmentCompleted)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	list, err := repo.ListByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
