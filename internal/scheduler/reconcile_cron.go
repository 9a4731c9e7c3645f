package scheduler

import (
	"context"
	"time"

	"github.com/Dias221467/social_network/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const sweepTimeout = 5 * time.Minute

// StartReconcileCron schedules the friend edge sweep. An empty schedule disables it.
// The caller stops the returned cron on shutdown.
func StartReconcileCron(schedule string, reconciler *jobs.FriendReconciler) (*cron.Cron, error) {
	c := cron.New()
	if schedule == "" {
		logrus.Warn("Friend edge reconciliation disabled")
		return c, nil
	}

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		if _, err := reconciler.Run(ctx); err != nil {
			logrus.WithError(err).Error("Friend edge reconciliation failed")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logrus.WithField("schedule", schedule).Info("Friend edge reconciliation scheduled")
	return c, nil
}
