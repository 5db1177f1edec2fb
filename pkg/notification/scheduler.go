package notification

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/dayplan-app/dayplan/internal/utils"
)

// Scheduler delivers due reminders. It ticks once a minute, which matches the
// minute granularity reminders are configured with.
type Scheduler struct {
	repo  Repo
	clock utils.Clock
	cron  *cron.Cron
}

func NewScheduler(repo Repo, clock utils.Clock) *Scheduler {
	return &Scheduler{repo: repo, clock: clock, cron: cron.New()}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("@every 1m", func() {
		if err := s.DeliverDue(context.Background()); err != nil {
			log.Errorf("reminder delivery run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Info("Reminder scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// DeliverDue marks every due reminder as sent, making it visible in the
// owner's notification list. Delivery is idempotent: an already-sent reminder
// is never picked up again.
func (s *Scheduler) DeliverDue(ctx context.Context) error {
	now := s.clock.Now()

	due, err := s.repo.FindDueReminders(ctx, now)
	if err != nil {
		return err
	}
	for _, n := range due {
		if err := s.repo.MarkSent(ctx, n.Id, now); err != nil {
			return err
		}
		log.Debugf("delivered reminder %s to user %s", n.Id, n.UserId)
	}
	return nil
}
