// Package jobs содержит периодические фоновые задачи сервиса.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/order-backend/pkg/jitter"
	"github.com/DRSN-tech/order-backend/pkg/logger"
)

const lowStockJitter = 0.1

// LowStockAlerter ставит в очередь уведомления о товарах с низким остатком.
type LowStockAlerter interface {
	AlertLowStock(ctx context.Context) (int, error)
}

// LowStockJob периодически проверяет остатки. Интервал размывается джиттером,
// чтобы несколько экземпляров сервиса не запускали проверку одновременно.
type LowStockJob struct {
	alerter  LowStockAlerter
	interval time.Duration
	logger   logger.Logger
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewLowStockJob(alerter LowStockAlerter, interval time.Duration, logger logger.Logger) *LowStockJob {
	return &LowStockJob{
		alerter:  alerter,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

func (j *LowStockJob) Start(ctx context.Context) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.run(ctx)
	}()
}

func (j *LowStockJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
	j.wg.Wait()
}

func (j *LowStockJob) run(ctx context.Context) {
	timer := time.NewTimer(jitter.Duration(j.interval, lowStockJitter))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stop:
			return
		case <-timer.C:
			j.tick(ctx)
			timer.Reset(jitter.Duration(j.interval, lowStockJitter))
		}
	}
}

func (j *LowStockJob) tick(ctx context.Context) {
	count, err := j.alerter.AlertLowStock(ctx)
	if err != nil {
		j.logger.Errorf(err, "low stock check failed")
		return
	}

	if count > 0 {
		j.logger.Infof("Low stock alerts queued: %d", count)
	}
}
