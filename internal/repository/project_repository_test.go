package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

func newTestProject(owner *models.User, name string, deadline time.Time) *models.Project {
	return &models.Project{
		Name:           name,
		Description:    name + " description",
		Status:         models.ProjectStatusPlanning,
		Priority:       models.ProjectPriorityMedium,
		Category:       models.ProjectCategoryDevelopment,
		StartDate:      time.Now().UTC(),
		Deadline:       deadline,
		ProjectManager: "Pat Manager",
		OwnerID:        owner.ID,
	}
}

func TestProjectRepository_MembersAreIdempotent(t *testing.T) {
	db := setupRepositoryTestEnv(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")

	project := newTestProject(alice, "Apollo", time.Now().UTC().Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, project, []uint64{alice.ID, alice.ID}))

	now := time.Now().UTC()
	require.NoError(t, repo.AddMember(ctx, project.ID, bob.ID, now))
	require.NoError(t, repo.AddMember(ctx, project.ID, bob.ID, now.Add(time.Minute)))

	found, err := repo.FindOwned(ctx, project.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, found.Members, 2)
	assert.Equal(t, "Alice", found.Members[0].User.Name)
	assert.Equal(t, "Bob", found.Members[1].User.Name)

	require.NoError(t, repo.RemoveMember(ctx, project.ID, bob.ID))
	require.NoError(t, repo.RemoveMember(ctx, project.ID, bob.ID))

	found, err = repo.FindOwned(ctx, project.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, found.Members, 1)
	assert.Equal(t, alice.ID, found.Members[0].UserID)
}

func TestProjectRepository_UpdateReplacesTeamOnlyWhenGiven(t *testing.T) {
	db := setupRepositoryTestEnv(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")

	project := newTestProject(alice, "Apollo", time.Now().UTC().Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, project, []uint64{alice.ID}))

	project.Name = "Apollo II"
	require.NoError(t, repo.Update(ctx, project, nil))

	found, err := repo.FindOwned(ctx, project.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apollo II", found.Name)
	require.Len(t, found.Members, 1)

	require.NoError(t, repo.Update(ctx, found, []uint64{bob.ID}))
	found, err = repo.FindOwned(ctx, project.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, found.Members, 1)
	assert.Equal(t, bob.ID, found.Members[0].UserID)

	require.NoError(t, repo.Update(ctx, found, []uint64{}))
	found, err = repo.FindOwned(ctx, project.ID, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Members)
}

func TestProjectRepository_OwnerScopingAndDelete(t *testing.T) {
	db := setupRepositoryTestEnv(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")

	project := newTestProject(alice, "Apollo", time.Now().UTC().Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, project, []uint64{bob.ID}))

	_, err := repo.FindOwned(ctx, project.ID, bob.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.DeleteOwned(ctx, project.ID, bob.ID), gorm.ErrRecordNotFound)

	require.NoError(t, repo.DeleteOwned(ctx, project.ID, alice.ID))

	var members int64
	require.NoError(t, db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&members).Error)
	assert.Zero(t, members)
}

func TestProjectRepository_ListSearchStatsAndDeadlines(t *testing.T) {
	db := setupRepositoryTestEnv(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "Alice", "alice@example.com")
	now := time.Now().UTC()

	soon := newTestProject(alice, "Website redesign", now.Add(3*24*time.Hour))
	soon.Status = models.ProjectStatusActive
	late := newTestProject(alice, "Data warehouse", now.Add(-24*time.Hour))
	late.Category = models.ProjectCategoryAnalytics
	done := newTestProject(alice, "Mobile app", now.Add(5*24*time.Hour))
	done.SetStatus(models.ProjectStatusCompleted, now)
	far := newTestProject(alice, "Security audit", now.Add(90*24*time.Hour))
	far.ProjectManager = "Quinn Lead"

	for _, p := range []*models.Project{soon, late, done, far} {
		require.NoError(t, repo.Create(ctx, p, nil))
	}

	projects, err := repo.List(ctx, ProjectFilter{OwnerID: alice.ID, Search: "analytics"})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, late.ID, projects[0].ID)

	projects, err = repo.List(ctx, ProjectFilter{OwnerID: alice.ID, Search: "quinn"})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, far.ID, projects[0].ID)

	active := models.ProjectStatusActive
	projects, err = repo.List(ctx, ProjectFilter{OwnerID: alice.ID, Status: &active})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, soon.ID, projects[0].ID)

	stats, err := repo.Stats(ctx, alice.ID, now)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStats{Total: 4, Active: 1, Completed: 1, Planning: 2, Overdue: 1}, stats)

	deadlines, err := repo.DeadlinesBetween(ctx, alice.ID, now, now.Add(30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, deadlines, 1)
	assert.Equal(t, soon.ID, deadlines[0].ID)

	counts, err := repo.CountByStatus(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.StatusCount{
		{Status: models.ProjectStatusActive, Count: 1},
		{Status: models.ProjectStatusCompleted, Count: 1},
		{Status: models.ProjectStatusPlanning, Count: 2},
	}, counts)
}
