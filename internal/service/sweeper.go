package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sweeper's view of the invoice lifecycle: the very same Expire the lazy
// inline checks call, so the two paths cannot disagree.
type invoiceExpirer interface {
	Expire(ctx context.Context, invoiceID uint) error
	ExpireIntent(ctx context.Context, intentID uint) error
}

type dueInvoiceSource interface {
	FindDueIDs(ctx context.Context, now time.Time) ([]uint, error)
}

type stalePendingSource interface {
	FindStalePendingIDs(ctx context.Context, cutoff time.Time) ([]uint, error)
}

type departedSeatCompleter interface {
	CompleteDeparted(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically force-expires overdue invoices and stale pending
// intents, and marks departed seat bookings completed. Each item is handled
// independently; a failure is logged and retried on the next tick.
type Sweeper struct {
	invoices dueInvoiceSource
	intents  stalePendingSource
	seats    departedSeatCompleter
	expirer  invoiceExpirer
	interval time.Duration
	log      *zap.SugaredLogger
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(
	invoices dueInvoiceSource,
	intents stalePendingSource,
	seats departedSeatCompleter,
	expirer invoiceExpirer,
	interval time.Duration,
	log *zap.SugaredLogger,
) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		invoices: invoices,
		intents:  intents,
		seats:    seats,
		expirer:  expirer,
		interval: interval,
		log:      log,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; the loop ends when
// ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.log.Infow("expiry sweeper started", "interval", s.interval)
		for {
			select {
			case <-ctx.Done():
				s.log.Info("expiry sweeper stopped: context cancelled")
				return
			case <-s.stop:
				s.log.Info("expiry sweeper stopped")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop signals the loop and waits for the in-flight tick to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := s.now()

	dueIDs, err := s.invoices.FindDueIDs(ctx, now)
	if err != nil {
		s.log.Errorw("sweep: list due invoices", "error", err)
	} else {
		for _, id := range dueIDs {
			if err := s.expirer.Expire(ctx, id); err != nil {
				s.log.Errorw("sweep: expire invoice", "invoice_id", id, "error", err)
			}
		}
	}

	staleIDs, err := s.intents.FindStalePendingIDs(ctx, now.Add(-30*time.Minute))
	if err != nil {
		s.log.Errorw("sweep: list stale intents", "error", err)
	} else {
		for _, id := range staleIDs {
			if err := s.expirer.ExpireIntent(ctx, id); err != nil {
				s.log.Errorw("sweep: expire intent", "intent_id", id, "error", err)
			}
		}
	}

	if n, err := s.seats.CompleteDeparted(ctx, now); err != nil {
		s.log.Errorw("sweep: complete departed seats", "error", err)
	} else if n > 0 {
		s.log.Infow("sweep: completed departed seat bookings", "count", n)
	}
}
