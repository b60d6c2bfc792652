// Package sweeper periodically scans for overdue tasks and records them
// in the activity log.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/fentz26/taskbeat/internal/activity"
	"github.com/fentz26/taskbeat/internal/filter"
	"github.com/fentz26/taskbeat/internal/logger"
	"github.com/fentz26/taskbeat/internal/models"
	"github.com/fentz26/taskbeat/internal/store"
	"go.uber.org/zap"
)

// DefaultInterval is how often the sweeper scans for overdue tasks.
const DefaultInterval = time.Minute

// Sweeper watches for tasks that slip past their due date.
type Sweeper struct {
	store    *store.Store
	activity *activity.Logger
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger

	// Tasks already flagged this run, so each is recorded once
	mu       sync.Mutex
	notified map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a sweeper. A non-positive interval falls back to
// DefaultInterval.
func New(s *store.Store, act *activity.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		store:    s,
		activity: act,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.Named("sweeper"),
		notified: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the sweep loop.
func (sw *Sweeper) Start() {
	sw.wg.Add(1)
	go sw.loop()
	sw.log.Info("sweeper started", zap.Duration("interval", sw.interval))
}

// Stop gracefully stops the sweeper.
func (sw *Sweeper) Stop() {
	sw.cancel()
	sw.wg.Wait()
	sw.log.Info("sweeper stopped")
}

func (sw *Sweeper) loop() {
	defer sw.wg.Done()

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sw.ctx.Done():
			return
		case <-ticker.C:
			sw.sweep()
		}
	}
}

// sweep flags every overdue non-archived task that has not been flagged
// yet.
func (sw *Sweeper) sweep() {
	tasks, err := sw.store.ListTasks(store.ListFilter{})
	if err != nil {
		sw.log.Error("listing tasks", zap.Error(err))
		return
	}

	now := sw.now()
	// Cancelled tasks stay overdue in statistics but are nothing to act
	// on, so the sweeper leaves them alone.
	late := filter.Apply(tasks, filter.Overdue(now), func(t models.Task) bool {
		return t.Status != models.TaskStatusCancelled
	})

	overdue := make(map[string]struct{}, len(late))
	for _, t := range late {
		overdue[t.ID] = struct{}{}

		sw.mu.Lock()
		_, seen := sw.notified[t.ID]
		if !seen {
			sw.notified[t.ID] = struct{}{}
		}
		sw.mu.Unlock()
		if seen {
			continue
		}

		sw.activity.Record(t.ID, "task.overdue", map[string]interface{}{
			"due": t.DueDate.Format(time.RFC3339),
		})
		sw.log.Info("task overdue",
			zap.String("task_id", t.ID),
			zap.String("title", t.Title),
			zap.Time("due", *t.DueDate))
	}

	// Forget tasks that were completed, rescheduled, or deleted so a
	// future slip is flagged again.
	sw.mu.Lock()
	for id := range sw.notified {
		if _, ok := overdue[id]; !ok {
			delete(sw.notified, id)
		}
	}
	sw.mu.Unlock()
}
