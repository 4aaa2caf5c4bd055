package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/auth"
	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/events"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/services"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type handlerTestEnv struct {
	db       *gorm.DB
	auth     *services.AuthService
	tasks    *services.TaskService
	projects *services.ProjectService
	users    *services.UserService
}

func newHandlerTestEnv(t require.TestingT) *handlerTestEnv {
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	logger := zap.NewNop()
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	activity := services.NewActivityRecorder(logger, services.NewGormActivitySink(repository.NewActivityRepository(db)))

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)

	bus := events.NewBus()
	counters := services.NewCounterSync(userRepo, taskRepo, logger)
	bus.Subscribe(counters.HandleTaskEvent)

	return &handlerTestEnv{
		db:       db,
		auth:     services.NewAuthService(userRepo, auth.NewPasswordHasher(bcrypt.MinCost), tokens, activity, logger),
		tasks:    services.NewTaskService(taskRepo, userRepo, projectRepo, bus, activity, logger),
		projects: services.NewProjectService(projectRepo, userRepo, activity, logger),
		users:    services.NewUserService(userRepo, taskRepo, counters, bus, activity, logger),
	}
}

func (env *handlerTestEnv) close() {
	_ = database.Close(env.db)
}

func (env *handlerTestEnv) createTestUser(t require.TestingT, name, email string) *models.User {
	user := &models.User{Email: email, PasswordHash: "hashedpassword"}
	user.SetName(name)
	require.NoError(t, env.db.Create(user).Error)
	return user
}

// newContext builds a test context as if the auth gate and id middleware had
// already run. A zero userID or id leaves the value unset.
func newContext(method, url string, body any, userID, id uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, nil)
	if body != nil {
		payload, _ := json.Marshal(body)
		req = httptest.NewRequest(method, url, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if userID != 0 {
		c.Set(constants.ContextKeyUserID, userID)
	}
	if id != 0 {
		c.Set(constants.ContextKeyIDParam, id)
	}
	return c, w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t require.TestingT, w *httptest.ResponseRecorder, data any) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func init() {
	gin.SetMode(gin.TestMode)
	UseJSONFieldNames()
}
