// Package queue delivers render tasks through a Redis list. LPUSH on the
// producer side, blocking BRPOP on workers; at-least-once with a bounded
// retry budget, which the idempotent task handlers make safe.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"muckamuck/internal/tasks"
)

var (
	taskTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "render_tasks_total", Help: "Count of processed render tasks"},
		[]string{"task", "outcome"},
	)
	taskLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "render_task_duration_seconds",
			Help:    "Execution time of render tasks",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"},
	)
)

func init() { prometheus.MustRegister(taskTotal, taskLatency) }

type Queue struct {
	rdb        *redis.Client
	key        string
	maxRetries int
	log        *zap.Logger
}

func New(rdb *redis.Client, key string, maxRetries int, log *zap.Logger) *Queue {
	if key == "" {
		key = "muckamuck:tasks"
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Queue{rdb: rdb, key: key, maxRetries: maxRetries, log: log}
}

// Schedule pushes one task. Safe to call from request handlers; the
// payload is small and LPUSH is O(1).
func (q *Queue) Schedule(ctx context.Context, t tasks.Task) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, b).Err()
}

// Run consumes tasks with the given concurrency until ctx is cancelled.
// A failed task goes back on the queue with Attempt bumped; past the
// retry budget it is dropped and logged.
func (q *Queue) Run(ctx context.Context, h *tasks.Handler, workers int) error {
	if workers <= 0 {
		workers = 4
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error { return q.worker(ctx, h) })
	}
	return g.Wait()
}

func (q *Queue) worker(ctx context.Context, h *tasks.Handler) error {
	for {
		res, err := q.rdb.BRPop(ctx, 5*time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			q.log.Warn("queue pop failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		// BRPop returns [key, value].
		if len(res) != 2 {
			continue
		}
		q.process(ctx, h, []byte(res[1]))
	}
}

func (q *Queue) process(ctx context.Context, h *tasks.Handler, payload []byte) {
	var t tasks.Task
	if err := json.Unmarshal(payload, &t); err != nil {
		q.log.Error("discarding malformed task", zap.ByteString("payload", payload), zap.Error(err))
		taskTotal.WithLabelValues("malformed", "dropped").Inc()
		return
	}
	start := time.Now()
	err := h.Handle(ctx, t)
	taskLatency.WithLabelValues(t.Name).Observe(time.Since(start).Seconds())
	if err == nil {
		taskTotal.WithLabelValues(t.Name, "ok").Inc()
		return
	}
	if errors.Is(err, tasks.ErrUnknownTask) {
		q.log.Error("dropping task", zap.String("task", t.Name), zap.Error(err))
		taskTotal.WithLabelValues(t.Name, "dropped").Inc()
		return
	}
	if t.Attempt+1 >= q.maxRetries {
		q.log.Error("task exhausted retries",
			zap.String("task", t.Name), zap.String("site", t.SiteID),
			zap.Int("attempt", t.Attempt), zap.Error(err))
		taskTotal.WithLabelValues(t.Name, "dropped").Inc()
		return
	}
	t.Attempt++
	taskTotal.WithLabelValues(t.Name, "retried").Inc()
	q.log.Warn("task failed, requeueing",
		zap.String("task", t.Name), zap.String("site", t.SiteID),
		zap.Int("attempt", t.Attempt), zap.Error(err))
	if e := q.Schedule(ctx, t); e != nil {
		q.log.Error("requeue failed", zap.String("task", t.Name), zap.Error(e))
	}
}
