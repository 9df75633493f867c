// Package scheduler runs the periodic reorder digest.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"lab-inventory/internal/logger"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const digestTimeout = time.Minute

type SupplyLister interface {
	ListSupplies(ctx context.Context, f store.SupplyFilter) ([]models.Supply, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	supplies SupplyLister
	logger   *zap.Logger
}

// New validates schedule in the given timezone. An empty schedule yields a scheduler
// whose Start is a no-op.
func New(schedule, timezone string, supplies SupplyLister, log *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("parse reorder digest schedule %q: %w", schedule, err)
		}
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		supplies: supplies,
		logger:   logger.Named(log, "scheduler"),
	}, nil
}

// Start registers the digest job and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("reorder digest disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.runDigest); err != nil {
		return fmt.Errorf("schedule reorder digest: %w", err)
	}
	s.logger.Info("starting scheduler", zap.String("reorder_digest", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()
	if _, err := s.ReorderDigest(ctx); err != nil {
		s.logger.Error("reorder digest failed", zap.Error(err))
	}
}

// ReorderDigest logs every supply at or below its reorder point and returns them.
func (s *Scheduler) ReorderDigest(ctx context.Context) ([]models.Supply, error) {
	supplies, err := s.supplies.ListSupplies(ctx, store.SupplyFilter{NeedsReorder: true})
	if err != nil {
		return nil, err
	}
	out := 0
	for _, sp := range supplies {
		if sp.OutOfStock() {
			out++
		}
		supplier := ""
		if sp.Supplier != nil {
			supplier = sp.Supplier.Name
		}
		s.logger.Warn("supply needs reorder",
			zap.Uint("supply_id", sp.ID),
			zap.String("name", sp.Name),
			zap.Int("quantity_on_hand", sp.QuantityOnHand),
			zap.Int("reorder_point", sp.ReorderPoint),
			zap.String("supplier", supplier),
		)
	}
	s.logger.Info("reorder digest complete",
		zap.Int("needs_reorder", len(supplies)),
		zap.Int("out_of_stock", out),
	)
	return supplies, nil
}
