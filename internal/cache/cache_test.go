package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetRoundtrip(t *testing.T) {
	store := NewMemory(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemory_MissOnUnknownKey(t *testing.T) {
	store := NewMemory(time.Minute)
	defer store.Stop()

	_, err := store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_EntryExpires(t *testing.T) {
	store := NewMemory(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_DeleteIsIdempotent(t *testing.T) {
	store := NewMemory(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, store.Delete(ctx, "k", "never-existed"))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

// TestPurpose: Validates that list cache keys embed the tenant so entries of
// different tenants can never collide.
// Scope: Unit Test
// Security: Multi-tenant boundary enforcement
func TestListKey_TenantDistinct(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	branch := uuid.New()

	assert.NotEqual(t,
		ListKey(tenantA, "patients", AllPartitions),
		ListKey(tenantB, "patients", AllPartitions),
	)
	assert.NotEqual(t,
		ListKey(tenantA, "patients", AllPartitions),
		ListKey(tenantA, "patients", branch.String()),
	)
	assert.NotEqual(t,
		ListKey(tenantA, "patients", AllPartitions),
		ListKey(tenantA, "branches", AllPartitions),
	)
	assert.Equal(t,
		"tenant:"+tenantA.String()+":patients:list:all",
		ListKey(tenantA, "patients", AllPartitions),
	)
}

func TestDisabled_AlwaysMisses(t *testing.T) {
	var store Store = Disabled{}
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, store.Delete(ctx, "k"))
}
