package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	account := sampleAccount()
	account.ID = ""
	created, err := store.Create(ctx, account)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = store.Create(ctx, account)
	require.ErrorIs(t, err, domain.ErrEmailTaken)

	byEmail, err := store.FindByEmail(ctx, account.Email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byEmail.Profile.MonthlyIncome = 9999
	*byEmail.Profile.CreditScore = 300
	again, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, again.Profile.MonthlyIncome)
	assert.Equal(t, 750, *again.Profile.CreditScore)

	again.Settings.DarkMode = true
	again.Email = "changed@example.com"
	updated, err := store.Update(ctx, again)
	require.NoError(t, err)
	assert.True(t, updated.Settings.DarkMode)
	assert.Equal(t, account.Email, updated.Email, "update must not touch identity")

	require.NoError(t, store.Delete(ctx, created.ID))
	_, err = store.FindByID(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	_, err = store.Update(ctx, again)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.NoError(t, store.Ping(ctx))
}

func TestMemoryStore_ConcurrentCreateSameEmail(t *testing.T) {
	store := NewMemoryStore()
	account := sampleAccount()
	account.ID = ""

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Create(context.Background(), account); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}
