package service

import (
	"io"
	"testing"
	"time"

	"hr-leave-bot/internal/database"
	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	store       *repository.Store
	ledger      *LedgerService
	vacations   *VacationService
	absences    *AbsenceService
	employees   *EmployeeService
	departments *DepartmentService
	maintenance *MaintenanceService
	transfer    *TransferService
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store, err := repository.NewStore(db)
	require.NoError(t, err)

	logger := quietLogger()
	ledger := NewLedgerService(store, logger)
	employees := NewEmployeeService(store, 30, 12, logger)
	absences := NewAbsenceService(store, logger)
	absences.now = func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }

	return &testEnv{
		db:          db,
		store:       store,
		ledger:      ledger,
		vacations:   NewVacationService(store, ledger, repository.ConflictPolicy{CancelledBlocks: true}, logger),
		absences:    absences,
		employees:   employees,
		departments: NewDepartmentService(store, logger),
		maintenance: NewMaintenanceService(store, 12, logger),
		transfer:    NewTransferService(employees, absences, logger),
	}
}

func (env *testEnv) employee(t *testing.T, serial, department string) *models.Employee {
	t.Helper()

	e, err := env.employees.Create(EmployeeInput{
		SerialNumber: serial,
		NationalID:   "2900000000" + serial,
		Name:         "Employee " + serial,
		Department:   department,
	}, "hr")
	require.NoError(t, err)
	return e
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

// approve walks a request through both tracks.
func (env *testEnv) approve(t *testing.T, v *models.Vacation, department string) {
	t.Helper()

	_, err := env.vacations.SetDepartmentStatus(v.ID, department, "approved", "head")
	require.NoError(t, err)
	_, err = env.vacations.SetManagerStatus(v.ID, "approved", "manager")
	require.NoError(t, err)
}
