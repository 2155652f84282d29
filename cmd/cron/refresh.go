package main

import (
	"context"
	"log"
	"time"

	"layeredge/internal/datastore"
	"layeredge/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

const defaultRefreshSchedule = "*/15 * * * *"

type RefreshJob struct {
	db             *bun.DB
	serviceMonitor *services.ServiceMonitor
}

func NewRefreshJob(container *do.Injector) (*RefreshJob, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	serviceMonitor, err := do.Invoke[*services.ServiceMonitor](container)
	if err != nil {
		return nil, err
	}

	return &RefreshJob{db: db, serviceMonitor: serviceMonitor}, nil
}

func (j *RefreshJob) Start(cronRunner *cron.Cron) {
	schedule := defaultRefreshSchedule
	timeline, err := datastore.GetConfigByKey(context.Background(), j.db, "CRONJOB_TIME_REFRESH")
	if err == nil && timeline != nil && timeline.Value != "" {
		schedule = timeline.Value
	}

	_, err = cronRunner.AddFunc(schedule, j.runScheduledTask)
	log.Println("Refresh Cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", schedule, err)
}

func (j *RefreshJob) runScheduledTask() {
	ctx := context.Background()
	log.Println("Start engagement refresh cycle ...")

	summary, err := j.serviceMonitor.RefreshCycle(ctx)
	if err != nil {
		log.Println(err)
		return
	}

	log.Printf("Refresh cycle done: selected=%d refreshed=%d unchanged=%d failed=%d rate_limited=%d not_found=%d\n",
		summary.Selected, summary.Refreshed, summary.Unchanged, summary.Failed, summary.RateLimited, summary.NotFound)
}
