package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var (
	ErrJobRunning = errors.New("job is already running")
	ErrJobUnknown = errors.New("job not registered")
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Trigger(name string) error
	Start(ctx context.Context)
	Stop()
}

type jobEntry struct {
	job     Job
	spec    string
	id      cron.EntryID
	running atomic.Bool
}

// CronScheduler runs jobs on cron specs. A job never overlaps itself: a tick
// or trigger that arrives while the job is running is skipped.
type CronScheduler struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]*jobEntry
	ctx  context.Context
	wg   sync.WaitGroup
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		jobs: make(map[string]*jobEntry),
		ctx:  context.Background(),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.jobs[name]; ok {
		return fmt.Errorf("job %s already registered", name)
	}
	entry := &jobEntry{job: job, spec: spec}
	id, err := c.cron.AddFunc(spec, func() { c.execute(entry, "cron") })
	if err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	entry.id = id
	c.jobs[name] = entry
	logger.Info("job scheduled")
	return nil
}

// Trigger starts the named job in the background outside its cron schedule.
func (c *CronScheduler) Trigger(name string) error {
	c.mu.Lock()
	entry, ok := c.jobs[name]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrJobUnknown)
	}
	if entry.running.Load() {
		return fmt.Errorf("%s: %w", name, ErrJobRunning)
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.execute(entry, "trigger")
	}()
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
	c.cron.Start()
}

// Stop waits for running cron and triggered jobs to return.
func (c *CronScheduler) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	c.wg.Wait()
}

func (c *CronScheduler) execute(entry *jobEntry, cause string) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	logger := logutil.GetLogger(ctx).With(
		zap.String("job", entry.job.Name()),
		zap.String("spec", entry.spec),
		zap.String("cause", cause),
	)
	if !entry.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return
	}
	defer entry.running.Store(false)

	start := time.Now()
	logger.Info("job started")
	err := entry.job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
		return
	}
	logger.Info("job finished", zap.Duration("duration", elapsed))
}
