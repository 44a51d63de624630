package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/core"
	"finsight/internal/store"
)

func TestStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return now })

	older, err := s.Create(ctx, "u1", core.Record{Kind: core.KindExpense, Amount: core.Rupees(100), Title: "Tea", Category: core.Food, Date: now.AddDate(0, 0, -3)})
	require.NoError(t, err)
	newer, err := s.Create(ctx, "u1", core.Record{Kind: core.KindExpense, Amount: core.Rupees(200), Title: "Cab", Category: core.Travel})
	require.NoError(t, err)

	assert.NotEmpty(t, newer.ID)
	assert.NotEqual(t, older.ID, newer.ID)
	assert.Equal(t, now, newer.Date, "zero date is stamped with now")
	assert.True(t, newer.UpdatedAt.IsZero(), "new records are not edited yet")

	list, err := s.ListAll(ctx, "u1", core.KindExpense)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.True(t, list[0].UpdatedAt.IsZero())

	other, err := s.ListAll(ctx, "u2", core.KindExpense)
	require.NoError(t, err)
	assert.Empty(t, other)

	inc, err := s.ListAll(ctx, "u1", core.KindIncome)
	require.NoError(t, err)
	assert.Empty(t, inc)
}

func TestStore_CreateRejectsInvalid(t *testing.T) {
	_, err := New().Create(context.Background(), "u1", core.Record{Kind: core.KindExpense, Amount: core.Rupees(1), Category: core.Food})
	assert.True(t, errors.Is(err, core.ErrEmptyTitle))
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return clock })

	r, err := s.Create(ctx, "u1", core.Record{Kind: core.KindIncome, Amount: core.Rupees(1000)})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	amt := core.Rupees(1500)
	got, err := s.Update(ctx, "u1", core.KindIncome, r.ID, core.RecordPatch{Amount: &amt})
	require.NoError(t, err)
	assert.Equal(t, amt, got.Amount)
	assert.Equal(t, clock, got.UpdatedAt)
	assert.Equal(t, r.Date, got.Date)

	_, err = s.Update(ctx, "u2", core.KindIncome, r.ID, core.RecordPatch{Amount: &amt})
	assert.ErrorIs(t, err, store.ErrNotFound, "other users cannot touch the record")

	_, err = s.Update(ctx, "u1", core.KindIncome, "missing", core.RecordPatch{Amount: &amt})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, err := s.Create(ctx, "u1", core.Record{Kind: core.KindIncome, Amount: core.Rupees(1)})
	require.NoError(t, err)
	b, err := s.Create(ctx, "u1", core.Record{Kind: core.KindIncome, Amount: core.Rupees(2)})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "u1", core.KindIncome, a.ID))
	require.NoError(t, s.Delete(ctx, "u1", core.KindIncome, a.ID))
	require.NoError(t, s.Delete(ctx, "u1", core.KindIncome, "never-existed"))

	list, err := s.ListAll(ctx, "u1", core.KindIncome)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestStore_SeedKeepsMissingDates(t *testing.T) {
	s := New()
	s.Seed("u1", core.Record{Kind: core.KindIncome, Amount: core.Rupees(5)})

	list, err := s.ListAll(context.Background(), "u1", core.KindIncome)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Date.IsZero())
	assert.NotEmpty(t, list[0].ID)
}
