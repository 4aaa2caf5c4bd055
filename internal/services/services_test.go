package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/auth"
	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/events"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	bus      *events.Bus
	counters *CounterSync
	tokens   *auth.TokenService
	auth     *AuthService
	tasks    *TaskService
	projects *ProjectService
	users    *UserService
}

func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close(db)
	})

	logger := zap.NewNop()
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	activity := NewActivityRecorder(logger, NewGormActivitySink(repository.NewActivityRepository(db)))

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: "test-secret", TTL: time.Hour, Issuer: "taskflow-test"})
	require.NoError(t, err)

	bus := events.NewBus()
	counters := NewCounterSync(userRepo, taskRepo, logger)
	bus.Subscribe(counters.HandleTaskEvent)

	return &serviceTestEnv{
		db:       db,
		userRepo: userRepo,
		taskRepo: taskRepo,
		bus:      bus,
		counters: counters,
		tokens:   tokens,
		auth:     NewAuthService(userRepo, auth.NewPasswordHasher(bcrypt.MinCost), tokens, activity, logger),
		tasks:    NewTaskService(taskRepo, userRepo, projectRepo, bus, activity, logger),
		projects: NewProjectService(projectRepo, userRepo, activity, logger),
		users:    NewUserService(userRepo, taskRepo, counters, bus, activity, logger),
	}
}

func (env *serviceTestEnv) createUser(t *testing.T, name, email string) *models.User {
	t.Helper()

	user := &models.User{Email: email, PasswordHash: "hashedpassword"}
	user.SetName(name)
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *serviceTestEnv) reloadUser(t *testing.T, id uint64) *models.User {
	t.Helper()

	var user models.User
	require.NoError(t, env.db.First(&user, id).Error)
	return &user
}

func timePtr(t time.Time) *time.Time { return &t }

func boolPtr(b bool) *bool { return &b }

func stringPtr(s string) *string { return &s }

func uint64Ptr(v uint64) *uint64 { return &v }
