package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"go.uber.org/zap"
)

// ActivitySink stores activity records somewhere.
type ActivitySink interface {
	Name() string
	Write(ctx context.Context, activity *models.Activity) error
}

// ClientInfo identifies the caller behind a request.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type clientInfoKey struct{}

// WithClientInfo attaches the caller's address and user agent to ctx.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

func clientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

// ActivityRecorder writes audit records to every configured sink. Recording
// never fails the operation that triggered it.
type ActivityRecorder struct {
	sinks  []ActivitySink
	logger *zap.Logger
	now    func() time.Time
}

// NewActivityRecorder creates a recorder fanning out to sinks.
func NewActivityRecorder(logger *zap.Logger, sinks ...ActivitySink) *ActivityRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityRecorder{
		sinks:  sinks,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record stores one activity. Sink failures are logged and dropped.
func (r *ActivityRecorder) Record(ctx context.Context, activity models.Activity) {
	if r == nil {
		return
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = r.now()
	}
	client := clientInfoFrom(ctx)
	if activity.IP == "" {
		activity.IP = client.IP
	}
	if activity.UserAgent == "" {
		activity.UserAgent = truncate(client.UserAgent, 255)
	}

	for _, sink := range r.sinks {
		entry := activity
		if err := sink.Write(ctx, &entry); err != nil {
			r.logger.Warn("failed to record activity",
				zap.String("sink", sink.Name()),
				zap.Uint64("user_id", activity.UserID),
				zap.String("action", string(activity.Action)),
				zap.String("action_type", string(activity.ActionType)),
				zap.Error(err),
			)
		}
	}
}

// GormActivitySink stores activities in the activities table.
type GormActivitySink struct {
	repo repository.ActivityRepository
}

// NewGormActivitySink creates a sink backed by repo.
func NewGormActivitySink(repo repository.ActivityRepository) *GormActivitySink {
	return &GormActivitySink{repo: repo}
}

func (s *GormActivitySink) Name() string { return "database" }

func (s *GormActivitySink) Write(ctx context.Context, activity *models.Activity) error {
	return s.repo.Create(ctx, activity)
}

// RedisActivitySink keeps the most recent activities of each user in a
// capped Redis list.
type RedisActivitySink struct {
	rdb        redis.Cmdable
	maxEntries int64
}

// NewRedisActivitySink creates a sink keeping at most maxEntries per user.
func NewRedisActivitySink(rdb redis.Cmdable, maxEntries int64) *RedisActivitySink {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &RedisActivitySink{rdb: rdb, maxEntries: maxEntries}
}

// ActivityKey is the list holding a user's recent activities.
func ActivityKey(userID uint64) string {
	return fmt.Sprintf("activity:user:%d", userID)
}

func (s *RedisActivitySink) Name() string { return "redis" }

func (s *RedisActivitySink) Write(ctx context.Context, activity *models.Activity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return err
	}
	key := ActivityKey(activity.UserID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, s.maxEntries-1)
		return nil
	})
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
