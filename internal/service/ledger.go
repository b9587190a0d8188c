package service

import (
	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

// Balance is the pair of leave counters of one employee.
type Balance struct {
	Annual    int `json:"annual"`
	Emergency int `json:"emergency"`
}

// LedgerService is the only writer of employee balance counters.
type LedgerService struct {
	store  *repository.Store
	logger *logrus.Logger
}

func NewLedgerService(store *repository.Store, logger *logrus.Logger) *LedgerService {
	return &LedgerService{store: store, logger: newLogger(logger)}
}

// Debit takes amount days from the counter inside tx. The decrement is
// conditional on the stored balance, so it cannot overdraw even if the
// caller's earlier read is stale.
func (s *LedgerService) Debit(tx *repository.Store, employeeID uint, kind models.BalanceKind, amount int) error {
	if amount < 1 {
		return apperror.Validation("debit amount must be positive")
	}

	ok, err := tx.Employees.DebitBalance(employeeID, kind, amount)
	if err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "debit balance")
	}
	if ok {
		s.logger.WithFields(logrus.Fields{
			"employee_id": employeeID,
			"balance":     kind,
			"amount":      amount,
		}).Info("Balance debited")
		return nil
	}

	employee, err := tx.Employees.GetByID(employeeID)
	if err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "load employee")
	}
	if employee == nil {
		return apperror.NotFound("employee")
	}
	return &apperror.InsufficientBalanceError{
		EmployeeID: employeeID,
		Balance:    string(kind),
		Available:  employee.Balance(kind),
		Requested:  amount,
	}
}

// Credit returns amount days to the counter inside tx. There is no upper
// bound.
func (s *LedgerService) Credit(tx *repository.Store, employeeID uint, kind models.BalanceKind, amount int) error {
	if amount < 1 {
		return apperror.Validation("credit amount must be positive")
	}

	ok, err := tx.Employees.CreditBalance(employeeID, kind, amount)
	if err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "credit balance")
	}
	if !ok {
		return apperror.NotFound("employee")
	}

	s.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"balance":     kind,
		"amount":      amount,
	}).Info("Balance credited")
	return nil
}

// Adjust applies an administrative correction of delta days.
func (s *LedgerService) Adjust(employeeID uint, kind models.BalanceKind, delta int, reason, actor string) (*Balance, error) {
	if kind != models.BalanceAnnual && kind != models.BalanceEmergency {
		return nil, apperror.Validation("unknown balance kind")
	}
	if delta == 0 {
		return nil, apperror.Validation("adjustment must not be zero")
	}

	err := s.store.WithTx(func(tx *repository.Store) error {
		var err error
		if delta > 0 {
			err = s.Credit(tx, employeeID, kind, delta)
		} else {
			err = s.Debit(tx, employeeID, kind, -delta)
		}
		if err != nil {
			return err
		}
		return writeAudit(tx, models.AuditUpdate, "employees", employeeID, actor,
			"%s adjusted by %+d: %s", kind, delta, reason)
	})
	if err != nil {
		return nil, err
	}

	return s.GetBalance(employeeID)
}

func (s *LedgerService) GetBalance(employeeID uint) (*Balance, error) {
	employee, err := s.store.Employees.GetByID(employeeID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "load employee")
	}
	if employee == nil {
		return nil, apperror.NotFound("employee")
	}

	return &Balance{
		Annual:    employee.VacationBalance,
		Emergency: employee.EmergencyVacationBalance,
	}, nil
}
