package services

import (
	"context"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

var cronLogger = cron.PrintfLogger(log.StandardLogger())

// scheduledTask runs a task on a cron schedule, one run at a time. Stopping it
// cancels the context of a run in progress and waits for the run to return.
type scheduledTask struct {
	cron   *cron.Cron
	cancel context.CancelFunc
}

func startScheduledTask(name, schedule string, task func(ctx context.Context)) (*scheduledTask, error) {
	ctx, cancel := context.WithCancel(context.Background())

	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	if _, err := c.AddFunc(schedule, func() { task(ctx) }); err != nil {
		cancel()
		return nil, errors.Wrapf(err, "invalid %s schedule", name)
	}

	c.Start()
	log.Infof("%s started, schedule: %v", name, schedule)
	return &scheduledTask{cron: c, cancel: cancel}, nil
}

func (t *scheduledTask) Stop() {
	t.cancel()
	<-t.cron.Stop().Done()
}
