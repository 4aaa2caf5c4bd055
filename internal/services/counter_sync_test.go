package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/events"
	"github.com/yukikurage/taskflow-api/internal/models"
	"go.uber.org/zap"
)

func TestCounterSync_IgnoresMissingUsers(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@example.com")
	env.createTask(t, alice, alice, "one")

	assert.NotPanics(t, func() {
		env.counters.HandleTaskEvent(context.Background(), events.TaskEvent{
			Kind:    events.TaskUpdated,
			OwnerID: alice.ID,
			UserIDs: []uint64{9999, alice.ID},
		})
	})
	assert.Equal(t, int64(1), env.reloadUser(t, alice.ID).TasksActive)
}

func TestCounterSync_ConcurrentRecomputeConverges(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "Alice", "alice@example.com")
	for i := 0; i < 5; i++ {
		env.createTask(t, alice, alice, "task")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.counters.Recompute(ctx, alice.ID)
		}()
	}
	wg.Wait()

	counts, err := env.counters.Recompute(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssigneeCounts{Completed: 0, Active: 5}, counts)
	assert.Equal(t, int64(5), env.reloadUser(t, alice.ID).TasksActive)
}

func TestCounterReconciler_SweepRepairsDrift(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	env.createTask(t, alice, bob, "one")

	require.NoError(t, env.db.Model(&models.User{}).Where("1 = 1").
		UpdateColumns(map[string]any{"tasks_active": 7, "tasks_completed": 3}).Error)

	reconciler, err := NewCounterReconciler(env.userRepo, env.counters, zap.NewNop(), "")
	require.NoError(t, err)

	updated, err := reconciler.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	a := env.reloadUser(t, alice.ID)
	b := env.reloadUser(t, bob.ID)
	assert.Equal(t, models.AssigneeCounts{}, models.AssigneeCounts{Completed: a.TasksCompleted, Active: a.TasksActive})
	assert.Equal(t, models.AssigneeCounts{Active: 1}, models.AssigneeCounts{Completed: b.TasksCompleted, Active: b.TasksActive})

	reconciler.Start()
	reconciler.Stop(ctx)
}

func TestCounterReconciler_Schedule(t *testing.T) {
	env := setupServiceTestEnv(t)

	_, err := NewCounterReconciler(env.userRepo, env.counters, zap.NewNop(), "not a schedule")
	assert.Error(t, err)

	reconciler, err := NewCounterReconciler(env.userRepo, env.counters, zap.NewNop(), "@every 1h")
	require.NoError(t, err)
	reconciler.Start()
	reconciler.Stop(context.Background())
}
