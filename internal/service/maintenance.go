package service

import (
	"strconv"
	"time"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

type MaintenanceService struct {
	store            *repository.Store
	defaultEmergency int
	logger           *logrus.Logger
}

func NewMaintenanceService(store *repository.Store, defaultEmergency int, logger *logrus.Logger) *MaintenanceService {
	return &MaintenanceService{
		store:            store,
		defaultEmergency: defaultEmergency,
		logger:           newLogger(logger),
	}
}

// ResetEmergencyBalances sets every employee's emergency balance to the
// default. Running it twice leaves the same state.
func (s *MaintenanceService) ResetEmergencyBalances(actor string) (int64, error) {
	var count int64
	err := s.store.WithTx(func(tx *repository.Store) error {
		var err error
		count, err = s.reset(tx, actor)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *MaintenanceService) reset(tx *repository.Store, actor string) (int64, error) {
	count, err := tx.Employees.ResetBalance(models.BalanceEmergency, s.defaultEmergency)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.KindInternal, "reset emergency balances")
	}
	if err := writeAudit(tx, models.AuditUpdate, "employees", 0, actor,
		"emergency balance reset to %d for %d employee(s)", s.defaultEmergency, count); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"employees": count,
		"value":     s.defaultEmergency,
	}).Info("Emergency balances reset")
	return count, nil
}

// EnsureYearlyReset runs the emergency reset once per calendar year. The
// last reset year is stored; the very first call only records the current
// year. It reports whether a reset ran.
func (s *MaintenanceService) EnsureYearlyReset(now time.Time) (bool, error) {
	var ran bool
	err := s.store.WithTx(func(tx *repository.Store) error {
		value, ok, err := tx.Settings.Get(models.SettingEmergencyResetYear)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "read reset year")
		}

		year := now.Year()
		if ok {
			last, err := strconv.Atoi(value)
			if err != nil {
				s.logger.WithField("value", value).Warn("Stored reset year is not a number, resetting")
				last = 0
			}
			if last >= year {
				return nil
			}
			if _, err := s.reset(tx, systemActor); err != nil {
				return err
			}
			ran = true
		}

		return tx.Settings.Set(models.SettingEmergencyResetYear, strconv.Itoa(year))
	})
	if err != nil {
		return false, err
	}
	return ran, nil
}
