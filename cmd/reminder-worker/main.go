package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/careloop/appointment-reminders/internal/config"
	"github.com/careloop/appointment-reminders/internal/db"
	"github.com/careloop/appointment-reminders/internal/logging"
	redisclient "github.com/careloop/appointment-reminders/internal/redis"
	"github.com/careloop/appointment-reminders/internal/reminder"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load error")
	}

	log := logging.New(cfg.Env, cfg.LogLevel)
	log.WithFields(logrus.Fields{
		"env":        cfg.Env,
		"cron":       cfg.WorkerCron,
		"lead_times": cfg.LeadTimes,
	}).Info("reminder-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.WithError(err).Fatal("postgres connection error")
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.WithError(err).Fatal("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Warn("error closing redis")
		}
	}()
	log.Info("connected to Redis")

	store := reminder.NewPgStore(pgPool)
	mailer := reminder.NewHTTPMailer(cfg.EmailDispatchURL, cfg.EmailDispatchToken)
	leaser := redisclient.NewRedisRunLeaser(rdb, cfg.LeaseTTL)
	schedule := reminder.Schedule{LeadTimes: cfg.LeadTimes, ToleranceMin: cfg.ToleranceMin}
	sched := reminder.NewScheduler(store, mailer, schedule, log)

	c := cron.New()
	if _, err := c.AddFunc(cfg.WorkerCron, func() {
		runOnce(rootCtx, log, cfg, leaser, sched)
	}); err != nil {
		log.WithError(err).Fatal("invalid WORKER_CRON spec")
	}

	// One sweep at startup, then on the cron cadence.
	runOnce(rootCtx, log, cfg, leaser, sched)
	c.Start()

	<-rootCtx.Done()
	log.Info("shutdown signal received, stopping reminder worker")
	<-c.Stop().Done()
}

func runOnce(ctx context.Context, log *logrus.Logger, cfg config.Config, leaser redisclient.Leaser, sched *reminder.Scheduler) {
	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	slice := redisclient.RunSlice(time.Now())
	start := time.Now()

	err := leaser.WithRunLease(runCtx, slice, func(leaseCtx context.Context) error {
		res, err := sched.Run(leaseCtx)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"evaluated": res.Evaluated,
			"sent":      res.Sent,
			"failures":  len(res.Failures),
			"duration":  time.Since(start).String(),
		}).Info("reminder sweep complete")

		if time.Since(start) > time.Minute {
			// Tier windows are only ±1 minute wide; a sweep slower than
			// the cadence can miss them entirely.
			log.Warn("sweep outlived its minute slice, tier windows may have been missed")
		}
		return nil
	})
	switch {
	case errors.Is(err, redisclient.ErrLeaseHeld):
		log.WithField("slice", slice).Info("run lease held elsewhere, skipping sweep")
	case err != nil:
		log.WithError(err).Error("reminder sweep failed")
	}
}
