package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/utils"
)

func TestUserService_SearchUsers(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "Alice Smith", "alice@example.com")
	env.createUser(t, "Bob Jones", "bob@corp.io")

	_, err := env.users.SearchUsers(ctx, " a ", 10)
	assert.True(t, apierrors.IsKind(err, apierrors.KindValidation))

	users, err := env.users.SearchUsers(ctx, "SMI", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice Smith", users[0].Name)

	users, err = env.users.SearchUsers(ctx, "corp", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Bob Jones", users[0].Name)
}

func TestUserService_ListUsersPaginates(t *testing.T) {
	env := setupServiceTestEnv(t)
	for _, name := range []string{"Ann", "Ben", "Cat"} {
		env.createUser(t, name, name+"@example.com")
	}

	users, page, err := env.users.ListUsers(context.Background(), ListUsersInput{
		Pagination: utils.NewPaginationParams(2, 2),
	})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 2, page.Page)
}

func TestUserService_UpdateUser(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")

	user, err := env.users.UpdateUser(ctx, alice.ID, bob.ID, UserPatch{Name: stringPtr("Robert Brown")})
	require.NoError(t, err)
	assert.Equal(t, "RB", user.Avatar)

	_, err = env.users.UpdateUser(ctx, alice.ID, bob.ID, UserPatch{Email: stringPtr("alice@example.com")})
	assert.ErrorIs(t, err, ErrEmailInUse)

	_, err = env.users.UpdateUser(ctx, alice.ID, 9999, UserPatch{Name: stringPtr("Ghost")})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_DeleteUserRefreshesAssignees(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Owner", "owner@example.com")
	helper := env.createUser(t, "Helper", "helper@example.com")

	env.createTask(t, owner, helper, "one")
	done := env.createTask(t, owner, helper, "two")
	_, err := env.tasks.ToggleCompletion(ctx, owner.ID, done.ID)
	require.NoError(t, err)
	env.createProject(t, owner, "Apollo", time.Now().Add(time.Hour), helper.ID)

	before := env.reloadUser(t, helper.ID)
	assert.Equal(t, int64(1), before.TasksActive)
	assert.Equal(t, int64(1), before.TasksCompleted)

	require.NoError(t, env.users.DeleteUser(ctx, helper.ID, owner.ID))

	after := env.reloadUser(t, helper.ID)
	assert.Zero(t, after.TasksActive)
	assert.Zero(t, after.TasksCompleted)

	for _, model := range []any{&models.Task{}, &models.Project{}, &models.ProjectMember{}} {
		var count int64
		require.NoError(t, env.db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}

	assert.ErrorIs(t, env.users.DeleteUser(ctx, helper.ID, owner.ID), ErrUserNotFound)
}

func TestUserService_RefreshMetrics(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "Alice", "alice@example.com")
	env.createTask(t, alice, alice, "one")

	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", alice.ID).
		UpdateColumn("tasks_active", 42).Error)

	user, err := env.users.RefreshMetrics(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.TasksActive)

	_, err = env.users.RefreshMetrics(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_Stats(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	empty, err := env.users.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.AvgTasksCompleted)

	alice := env.createUser(t, "Alice", "alice@example.com")
	env.createUser(t, "Bob", "bob@example.com")
	task := env.createTask(t, alice, alice, "one")
	_, err = env.tasks.ToggleCompletion(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	require.NoError(t, env.userRepo.TouchLastLogin(ctx, alice.ID, time.Now().UTC()))

	stats, err := env.users.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.RecentlyActive)
	assert.Equal(t, int64(1), stats.InactiveUsers)
	assert.Equal(t, int64(1), stats.TasksCompleted)
	assert.InDelta(t, 0.5, stats.AvgTasksCompleted, 1e-9)
}
