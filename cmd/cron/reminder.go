package main

import (
	"context"
	"errors"
	"time"

	"dice/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
)

const reminderRunTimeout = 10 * time.Minute

type ReminderJob struct {
	reminder *services.ServiceReminder
	config   *services.ServiceConfig
}

func NewReminderJob(injector *do.Injector) (*ReminderJob, error) {
	reminder, err := do.Invoke[*services.ServiceReminder](injector)
	if err != nil {
		return nil, err
	}

	config, err := do.Invoke[*services.ServiceConfig](injector)
	if err != nil {
		return nil, err
	}

	return &ReminderJob{reminder, config}, nil
}

func (j *ReminderJob) Start(ctx context.Context, cronRunner *cron.Cron) error {
	schedule, err := j.config.GetStringConfig(ctx, services.CONFIG_CRONJOB_TIME_REMIND, services.DEFAULT_REMINDER_SCHEDULE)
	if err != nil {
		return err
	}

	if _, err := cronRunner.AddFunc(schedule, j.run); err != nil {
		return err
	}

	log.Info().Str("cron", schedule).Msg("Reminder cronjob scheduled")
	return nil
}

func (j *ReminderJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), reminderRunTimeout)
	defer cancel()

	sent, err := j.reminder.Run(ctx, time.Now().UTC())
	if errors.Is(err, services.ErrReminderLock) {
		log.Debug().Msg("reminder sweep already running elsewhere")
		return
	}
	if err != nil {
		log.Error().Err(err).Int("sent", sent).Msg("reminder sweep failed")
	}
}
