package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/duekeeper/internal/model"
)

// createTestStorage opens a migrated store on a temp database.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testObligation(name string) model.Obligation {
	return model.Obligation{
		ID:        uuid.New(),
		Name:      name,
		Amount:    decimal.RequireFromString("1200.50"),
		Category:  model.CategoryDebt,
		Kind:      model.KindFixedExpense,
		Frequency: model.FrequencyMonthly,
		DueDay:    5,
	}
}

func TestSQLiteStorage_NewValidation(t *testing.T) {
	_, err := NewSQLiteStorage("")
	assert.Error(t, err)
}

func TestSQLiteStorage_Obligations(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	t.Run("empty database is an empty set", func(t *testing.T) {
		got, err := store.GetObligations(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("round trip", func(t *testing.T) {
		want := []model.Obligation{testObligation("Rent"), testObligation("Internet")}
		want[1].Frequency = model.FrequencyPeriodic
		want[1].DueDay = 0
		want[1].IntervalDays = 90
		want[1].CycleAnchor = model.NewDate(2024, time.January, 1)
		want[1].NextDueDate = model.NewDate(2024, time.March, 31)

		require.NoError(t, store.SaveObligations(ctx, want))

		got, err := store.GetObligations(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, want[0].ID, got[0].ID)
		assert.True(t, got[0].Amount.Equal(want[0].Amount))
		assert.Equal(t, model.FrequencyPeriodic, got[1].Frequency)
		assert.Equal(t, "2024-03-31", got[1].NextDueDate.String())
	})

	t.Run("save replaces the whole document", func(t *testing.T) {
		require.NoError(t, store.SaveObligations(ctx, []model.Obligation{testObligation("Only")}))

		got, err := store.GetObligations(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Only", got[0].Name)
	})

	t.Run("nil saves as empty set", func(t *testing.T) {
		require.NoError(t, store.SaveObligations(ctx, nil))

		got, err := store.GetObligations(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSQLiteStorage_Archive(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	archivedAt := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	record := model.ArchiveRecord{Obligation: testObligation("Car Loan"), ArchivedAt: archivedAt}
	record.EndDate = model.NewDate(2024, time.May, 31)

	require.NoError(t, store.SaveArchive(ctx, []model.ArchiveRecord{record}))

	got, err := store.GetArchive(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Car Loan", got[0].Name)
	assert.Equal(t, "2024-05-31", got[0].EndDate.String())
	assert.True(t, got[0].ArchivedAt.Equal(archivedAt))
}

func TestSQLiteStorage_SealState(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	t.Run("never sealed reads zero", func(t *testing.T) {
		state, err := store.GetSealState(ctx)
		require.NoError(t, err)
		assert.False(t, state.Sealed)
		assert.Empty(t, state.SealedItems)
	})

	t.Run("round trip", func(t *testing.T) {
		at := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
		want := model.SealState{
			Sealed:       true,
			SealedPeriod: "2024-06",
			SealedAt:     &at,
			SealedItems: []model.SealItem{{
				Name:      "Rent",
				Amount:    decimal.RequireFromString("1200"),
				AnchorKey: "5",
			}},
		}
		require.NoError(t, store.SaveSealState(ctx, want))

		got, err := store.GetSealState(ctx)
		require.NoError(t, err)
		assert.True(t, got.Sealed)
		assert.Equal(t, "2024-06", got.SealedPeriod)
		require.NotNil(t, got.SealedAt)
		assert.True(t, got.SealedAt.Equal(at))
		require.Len(t, got.SealedItems, 1)
		assert.True(t, got.SealedItems[0].Equal(want.SealedItems[0]))
	})

	t.Run("clearing persists", func(t *testing.T) {
		require.NoError(t, store.SaveSealState(ctx, model.SealState{}))

		got, err := store.GetSealState(ctx)
		require.NoError(t, err)
		assert.False(t, got.Sealed)
	})
}

func TestSQLiteStorage_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.SaveObligations(ctx, []model.Obligation{testObligation("Rent")}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(ctx))

	got, err := reopened.GetObligations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rent", got[0].Name)
}
