package service

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ResetScheduler periodically makes sure the yearly emergency reset ran.
type ResetScheduler struct {
	maintenance   *MaintenanceService
	checkInterval time.Duration
	now           func() time.Time
	onReset       func()
	logger        *logrus.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewResetScheduler(maintenance *MaintenanceService, checkInterval time.Duration, logger *logrus.Logger) *ResetScheduler {
	if checkInterval <= 0 {
		checkInterval = time.Hour
	}
	return &ResetScheduler{
		maintenance:   maintenance,
		checkInterval: checkInterval,
		now:           time.Now,
		logger:        newLogger(logger),
	}
}

// OnReset registers fn to run after a yearly reset took place. Call it
// before Start.
func (rs *ResetScheduler) OnReset(fn func()) {
	rs.onReset = fn
}

func (rs *ResetScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.checkInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker.C, rs.stop)

	rs.logger.WithField("interval", rs.checkInterval).Info("Reset scheduler started")
}

func (rs *ResetScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}

	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil

	rs.logger.Info("Reset scheduler stopped")
}

func (rs *ResetScheduler) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer rs.wg.Done()

	// check right away so a restart after January 1 catches up
	rs.check()

	for {
		select {
		case <-tick:
			rs.check()
		case <-stop:
			return
		}
	}
}

func (rs *ResetScheduler) check() {
	ran, err := rs.maintenance.EnsureYearlyReset(rs.now())
	if err != nil {
		rs.logger.WithError(err).Error("Yearly emergency reset failed")
		return
	}
	if ran {
		rs.logger.Info("Yearly emergency reset completed")
		if rs.onReset != nil {
			rs.onReset()
		}
	}
}
