package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/internal/config"
	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/internal/repository"
	"github.com/segyhp/property-engine/internal/service"
	"github.com/segyhp/property-engine/pkg/logger"
)

const sweepTimeout = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log, closer := logger.New(cfg.Logging)
	defer closer.Close()
	log.Info("starting property scheduler")

	stores, err := repository.Open(context.Background(), cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer stores.Close()

	reviewService := service.NewReviewService(stores.Reviews, stores.Bookings, log)

	cronLogger := cron.PrintfLogger(log)
	c := cron.New(
		cron.WithParser(config.CronParser()),
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if err := setupCronJobs(c, cfg, newReviewSweep(reviewService, cfg.Location(), log)); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	// Start the scheduler
	c.Start()
	log.WithField("jobs", len(c.Entries())).Info("scheduler started")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down scheduler")
	<-c.Stop().Done()
	log.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, sweep cron.Job) error {
	if _, err := c.AddJob(cfg.Scheduler.ReviewSweepCron, sweep); err != nil {
		return fmt.Errorf("review invitation sweep %q: %w", cfg.Scheduler.ReviewSweepCron, err)
	}
	return nil
}

type pendingReviewLister interface {
	PendingReviewInvitations(ctx context.Context, from, to domain.Date) ([]*domain.Booking, error)
}

// reviewSweep finds stays that ended the previous calendar day and have no
// review yet. Delivering the invitation belongs to the notification
// service, which consumes these log entries.
type reviewSweep struct {
	reviews  pendingReviewLister
	location *time.Location
	logger   *logrus.Logger
	now      func() time.Time
}

func newReviewSweep(reviews pendingReviewLister, location *time.Location, logger *logrus.Logger) *reviewSweep {
	return &reviewSweep{
		reviews:  reviews,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *reviewSweep) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.sweep(ctx); err != nil {
		s.logger.WithError(err).Error("review invitation sweep failed")
	}
}

func (s *reviewSweep) sweep(ctx context.Context) (int, error) {
	yesterday := domain.DateOf(s.now().In(s.location)).AddDays(-1)

	pending, err := s.reviews.PendingReviewInvitations(ctx, yesterday, yesterday)
	if err != nil {
		return 0, err
	}

	for _, booking := range pending {
		s.logger.WithFields(logrus.Fields{
			"booking_id":  booking.ID,
			"property_id": booking.PropertyID,
			"user_id":     booking.UserID,
			"end_date":    booking.EndDate.String(),
		}).Info("review invitation due")
	}

	s.logger.WithFields(logrus.Fields{
		"date":        yesterday.String(),
		"invitations": len(pending),
	}).Info("review invitation sweep finished")

	return len(pending), nil
}
