package worker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/arkvest/arkvest/internal/gate"
	"github.com/arkvest/arkvest/internal/repository"
)

// accrualBatchLimit caps how many investments one tick will touch.
const accrualBatchLimit = 500

// AccrualWorker advances the value of every active investment on a fixed
// interval, interpolating linearly from the principal to the plan's target
// value over the investment's duration. At maturity the value is capped at
// the target and the investment flips to completed, which is what unlocks
// ROI extraction.
type AccrualWorker struct {
	db       repository.Database
	interval time.Duration
	logger   *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewAccrualWorker(db repository.Database, interval time.Duration, logger *slog.Logger) *AccrualWorker {
	return &AccrualWorker{
		db:       db,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (w *AccrualWorker) Start() {
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.stopCh:
				w.logger.Info("accrual worker stopped")
				return
			case <-ticker.C:
				w.processBatch()
			}
		}
	}()
}

func (w *AccrualWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

// processBatch scans active investments once. Per-row failures are logged
// and skipped so one bad record cannot stall everyone else's interest.
func (w *AccrualWorker) processBatch() {
	investments, err := w.db.Investment().GetActive(accrualBatchLimit)
	if err != nil {
		w.logger.Error("accrual scan failed", "error", err)
		return
	}

	now := time.Now()

	for i := range investments {
		if err := w.accrue(&investments[i], now); err != nil {
			w.logger.Error("accrual failed", "investment_id", investments[i].ID, "error", err)
		}
	}
}

func (w *AccrualWorker) accrue(investment *repository.Investment, now time.Time) error {
	plan, found, err := w.db.Plan().GetOne(investment.PlanID)
	if err != nil {
		return err
	}
	if !found {
		w.logger.Warn("investment references missing plan", "investment_id", investment.ID, "plan_id", investment.PlanID)
		return nil
	}

	target := targetValue(investment.Amount, plan.PercentReturn)

	if !now.Before(investment.MaturesAt) {
		remainder := gate.Round(target - investment.CurrentValue)

		if err := w.db.Investment().Complete(investment.ID, target); err != nil {
			return err
		}

		if remainder > 0 {
			_, err = w.db.Investment().AppendTransaction(&repository.InvestmentTransaction{
				InvestmentID: investment.ID,
				TxType:       repository.InvestmentTxInterest,
				Amount:       remainder,
			}, nil)
			if err != nil {
				return err
			}
		}

		w.logger.Info("investment matured", "investment_id", investment.ID, "final_value", target)
		return nil
	}

	expected := accruedValue(investment.Amount, plan.PercentReturn, investment.CreatedAt, investment.MaturesAt, now)

	delta := gate.Round(expected - investment.CurrentValue)
	if delta <= 0 {
		return nil
	}

	if err := w.db.Investment().UpdateValue(investment.ID, expected, nil); err != nil {
		return err
	}

	_, err = w.db.Investment().AppendTransaction(&repository.InvestmentTransaction{
		InvestmentID: investment.ID,
		TxType:       repository.InvestmentTxInterest,
		Amount:       delta,
	}, nil)
	return err
}

// targetValue is what an investment is worth at maturity.
func targetValue(principal, percentReturn float64) float64 {
	return gate.Round(principal * (1 + percentReturn/100))
}

// accruedValue interpolates the investment's worth at a point in time.
// Before the start it is the principal; at or past maturity it is the
// target; in between it grows linearly.
func accruedValue(principal, percentReturn float64, createdAt, maturesAt, now time.Time) float64 {
	target := targetValue(principal, percentReturn)

	if !now.After(createdAt) {
		return principal
	}
	if !now.Before(maturesAt) {
		return target
	}

	elapsed := now.Sub(createdAt).Seconds()
	total := maturesAt.Sub(createdAt).Seconds()

	return gate.Round(principal + (target-principal)*(elapsed/total))
}
