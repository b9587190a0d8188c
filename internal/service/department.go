package service

import (
	"strings"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minHeadSecretLength = 4

type DepartmentService struct {
	store  *repository.Store
	logger *logrus.Logger
}

func NewDepartmentService(store *repository.Store, logger *logrus.Logger) *DepartmentService {
	return &DepartmentService{store: store, logger: newLogger(logger)}
}

// SeedDefaults creates the standard departments that are missing.
func (s *DepartmentService) SeedDefaults() error {
	for _, name := range models.DefaultDepartments {
		if _, err := s.store.Departments.EnsureExists(name); err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "seed departments")
		}
	}
	return nil
}

func (s *DepartmentService) Create(name, actor string) (*models.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("department name is required")
	}

	var department *models.Department
	err := s.store.WithTx(func(tx *repository.Store) error {
		created, err := tx.Departments.EnsureExists(name)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "create department")
		}
		if !created {
			return apperror.Newf(apperror.KindDuplicate, "department %q already exists", name)
		}
		department, err = tx.Departments.GetByName(name)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "load department")
		}
		return writeAudit(tx, models.AuditInsert, "departments", department.ID, actor, "department %s created", name)
	})
	if err != nil {
		return nil, err
	}
	return department, nil
}

func (s *DepartmentService) List() ([]*models.Department, error) {
	departments, err := s.store.Departments.List()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "list departments")
	}
	return departments, nil
}

// SetHead assigns the department head and stores a bcrypt hash of their
// secret.
func (s *DepartmentService) SetHead(name string, headID uint, secret, actor string) error {
	if len(secret) < minHeadSecretLength {
		return apperror.Newf(apperror.KindValidation, "secret must have at least %d characters", minHeadSecretLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "hash secret")
	}

	return s.store.WithTx(func(tx *repository.Store) error {
		department, err := tx.Departments.GetByName(name)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "load department")
		}
		if department == nil {
			return apperror.NotFound("department")
		}

		head, err := tx.Employees.GetByID(headID)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "load employee")
		}
		if head == nil {
			return apperror.NotFound("employee")
		}

		if err := tx.Departments.UpdateHead(name, &headID, string(hash)); err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "update department head")
		}
		return writeAudit(tx, models.AuditUpdate, "departments", department.ID, actor,
			"head of %s set to employee %d", name, headID)
	})
}

// AuthenticateHead finds the department whose head secret matches.
func (s *DepartmentService) AuthenticateHead(secret string) (*models.Department, error) {
	if secret == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "secret is required")
	}

	departments, err := s.store.Departments.List()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "list departments")
	}

	for _, d := range departments {
		if d.HeadPassword == "" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(d.HeadPassword), []byte(secret)) == nil {
			s.logger.WithField("department", d.Name).Info("Department head authenticated")
			return d, nil
		}
	}
	return nil, apperror.New(apperror.KindUnauthorized, "invalid department secret")
}
