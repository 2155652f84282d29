package main

import (
	"context"
	"log"
	"time"

	"layeredge/internal/datastore"
	"layeredge/internal/datastore/redis_store"
	"layeredge/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

const defaultLeaderboardSchedule = "@every 10m"

type LeaderboardJob struct {
	db                 *bun.DB
	redisDB            redis.UniversalClient
	serviceLeaderboard *services.ServiceLeaderboard
}

func NewLeaderboardJob(container *do.Injector) (*LeaderboardJob, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](container)
	if err != nil {
		return nil, err
	}

	return &LeaderboardJob{db: db, redisDB: redisDB, serviceLeaderboard: serviceLeaderboard}, nil
}

func (j *LeaderboardJob) Start(cronRunner *cron.Cron) {
	schedule := defaultLeaderboardSchedule
	timeline, err := datastore.GetConfigByKey(context.Background(), j.db, "CRONJOB_TIME_LEADERBOARD")
	if err == nil && timeline != nil && timeline.Value != "" {
		schedule = timeline.Value
	}

	_, err = cronRunner.AddFunc(schedule, j.runScheduledTask)
	log.Println("Leaderboard Cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", schedule, err)
	j.runScheduledTask()
}

func (j *LeaderboardJob) runScheduledTask() {
	ctx := context.Background()
	log.Println("Start rebuilding leaderboard ...")

	count, err := j.serviceLeaderboard.RebuildLeaderboard(ctx)
	if err != nil {
		log.Println(err)
		return
	}

	top, err := redis_store.GetLeaderboard(ctx, j.redisDB, services.LEADERBOARD_OVERALL, 1)
	if err != nil || len(top) == 0 {
		log.Println("Leaderboard rebuilt, users:", count)
		return
	}

	log.Println("Leaderboard rebuilt, users:", count, "top user:", top[0].UserId, "score:", top[0].Score)
}
