package repository

import (
	"gorm.io/gorm"
)

// Store groups the repositories over one connection or one transaction.
type Store struct {
	db *gorm.DB

	Employees   EmployeeRepository
	Departments DepartmentRepository
	Vacations   VacationRepository
	Absences    AbsenceRepository
	AuditLog    AuditLogRepository
	Settings    SettingRepository

	employees   *GormEmployeeRepository
	departments *GormDepartmentRepository
	vacations   *GormVacationRepository
	absences    *GormAbsenceRepository
}

// NewStore migrates every table and returns the repositories. Employees are
// migrated first so the cascading foreign keys of vacations and absences
// can reference them.
func NewStore(db *gorm.DB) (*Store, error) {
	employees, err := NewGormEmployeeRepository(db)
	if err != nil {
		return nil, err
	}
	departments, err := NewGormDepartmentRepository(db)
	if err != nil {
		return nil, err
	}
	vacations, err := NewGormVacationRepository(db)
	if err != nil {
		return nil, err
	}
	absences, err := NewGormAbsenceRepository(db)
	if err != nil {
		return nil, err
	}
	auditLog, err := NewGormAuditLogRepository(db)
	if err != nil {
		return nil, err
	}
	settings, err := NewGormSettingRepository(db)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:          db,
		Employees:   employees,
		Departments: departments,
		Vacations:   vacations,
		Absences:    absences,
		AuditLog:    auditLog,
		Settings:    settings,
		employees:   employees,
		departments: departments,
		vacations:   vacations,
		absences:    absences,
	}, nil
}

// WithTx runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithTx(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(s.bind(tx))
	})
}

func (s *Store) bind(tx *gorm.DB) *Store {
	employees := s.employees.withDB(tx)
	departments := s.departments.withDB(tx)
	vacations := s.vacations.withDB(tx)
	absences := s.absences.withDB(tx)

	return &Store{
		db:          tx,
		Employees:   employees,
		Departments: departments,
		Vacations:   vacations,
		Absences:    absences,
		AuditLog:    &GormAuditLogRepository{db: tx},
		Settings:    &GormSettingRepository{db: tx},
		employees:   employees,
		departments: departments,
		vacations:   vacations,
		absences:    absences,
	}
}
