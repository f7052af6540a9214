package task

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Job exclusively owns its tasks and runs them concurrently, sharing
// one Refresh policy.
type Job struct {
	Name    string
	Tasks   []*Task
	Refresh Refresh
	Log     *zap.Logger
}

// Run starts every task's loop concurrently and blocks until ctx is
// cancelled or every task has exited. A fatal task failure (auth or
// config) is logged and that task exits, but its siblings keep running.
func (j *Job) Run(ctx context.Context) {
	log := j.Log.With(zap.String("job", j.Name))
	log.Info("job started", zap.Int("tasks", len(j.Tasks)))

	var wg sync.WaitGroup
	for _, t := range j.Tasks {
		wg.Add(1)
		go func(t *Task) {
			defer wg.Done()
			if err := t.Run(ctx, j.Refresh); err != nil {
				log.Error("task exited with error", zap.String("task", t.Name), zap.Error(err))
			}
		}(t)
	}
	wg.Wait()

	log.Info("job stopped")
}
