package service

import (
	"time"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

// SubmitInput is a fully formed leave request. Either EndDate or Duration
// is used for user-entered types; fixed-length types ignore both.
type SubmitInput struct {
	EmployeeID uint
	Type       string
	Subtype    string
	Relation   string
	StartDate  time.Time
	EndDate    *time.Time
	Duration   int
	Notes      string
	CreatedBy  string
}

// Notifier is told about lifecycle events after they are committed.
type Notifier interface {
	VacationSubmitted(vacation *models.Vacation, employee *models.Employee)
	VacationDecided(vacation *models.Vacation)
}

type VacationService struct {
	store    *repository.Store
	ledger   *LedgerService
	policy   repository.ConflictPolicy
	notifier Notifier
	logger   *logrus.Logger
}

func NewVacationService(
	store *repository.Store,
	ledger *LedgerService,
	policy repository.ConflictPolicy,
	logger *logrus.Logger,
) *VacationService {
	return &VacationService{
		store:  store,
		ledger: ledger,
		policy: policy,
		logger: newLogger(logger),
	}
}

func (s *VacationService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Submit validates and stores a new request.
func (s *VacationService) Submit(in SubmitInput) (*models.Vacation, error) {
	if in.EmployeeID == 0 {
		return nil, apperror.Validation("employee is required")
	}

	var (
		vacation *models.Vacation
		employee *models.Employee
	)
	err := s.store.WithTx(func(tx *repository.Store) error {
		var err error
		employee, err = tx.Employees.GetByID(in.EmployeeID)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "load employee")
		}
		if employee == nil {
			return apperror.NotFound("employee")
		}

		vacation, err = buildVacation(in)
		if err != nil {
			return err
		}

		conflict, err := tx.Vacations.HasConflict(employee.ID, vacation.StartDate, vacation.EndDate, s.policy)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "check conflicts")
		}
		if conflict {
			return apperror.New(apperror.KindConflict, "the requested dates overlap an existing request")
		}

		if kind, ok := models.BalanceKindFor(vacation.Type); ok {
			if available := employee.Balance(kind); vacation.Duration > available {
				return &apperror.InsufficientBalanceError{
					EmployeeID: employee.ID,
					Balance:    string(kind),
					Available:  available,
					Requested:  vacation.Duration,
				}
			}
		}

		if err := tx.Vacations.Create(vacation); err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "save vacation request")
		}
		return writeAudit(tx, models.AuditInsert, "vacations", vacation.ID, in.CreatedBy,
			"%s request for %d day(s) from %s, status %s",
			vacation.Type.Code(), vacation.Duration, vacation.StartDate, vacation.Status.Code())
	})
	if err != nil {
		s.logger.WithError(err).WithField("employee_id", in.EmployeeID).Warn("Vacation request rejected")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"vacation_id": vacation.ID,
		"employee_id": employee.ID,
		"type":        vacation.Type.Code(),
		"duration":    vacation.Duration,
	}).Info("Vacation request submitted")

	if s.notifier != nil {
		s.notifier.VacationSubmitted(vacation, employee)
	}
	return vacation, nil
}

// buildVacation resolves type, dates and duration of a request.
func buildVacation(in SubmitInput) (*models.Vacation, error) {
	leaveType, ok := models.ParseLeaveType(in.Type)
	if !ok {
		return nil, apperror.Newf(apperror.KindValidation, "unknown leave type %q", in.Type)
	}
	if in.StartDate.IsZero() {
		return nil, apperror.Validation("start date is required")
	}

	subtype, relation, err := normalizeSubtype(leaveType, in.Subtype, in.Relation)
	if err != nil {
		return nil, err
	}

	start := models.DateOnly(in.StartDate)
	duration, fixed := models.DeriveDuration(leaveType, subtype, relation)
	switch {
	case fixed:
	case in.EndDate != nil:
		end := models.DateOnly(*in.EndDate)
		if end.Before(start) {
			return nil, apperror.Validation("end date must not be before start date")
		}
		duration = int(end.Sub(start).Hours()/24) + 1
		if in.Duration != 0 && in.Duration != duration {
			return nil, apperror.Newf(apperror.KindValidation,
				"duration %d does not match the %d day(s) between the dates", in.Duration, duration)
		}
	default:
		duration = in.Duration
	}
	if duration < 1 {
		return nil, apperror.Validation("duration must be at least one day")
	}

	vacation := &models.Vacation{
		EmployeeID:       in.EmployeeID,
		Type:             leaveType,
		Subtype:          subtype,
		Relation:         relation,
		StartDate:        models.NewDate(start),
		EndDate:          models.NewDate(start.AddDate(0, 0, duration-1)),
		Duration:         duration,
		Notes:            in.Notes,
		Status:           models.StatusPending,
		DepartmentStatus: models.StatusPending,
		CreatedBy:        in.CreatedBy,
	}

	if leaveType.AutoApproved() {
		vacation.Status = models.StatusApproved
		vacation.DepartmentStatus = models.StatusApproved
		vacation.ApprovedBy = systemActor
		vacation.Notes = appendNote(vacation.Notes, autoApprovalNote(leaveType, subtype))
	}
	return vacation, nil
}

func normalizeSubtype(t models.LeaveType, subtype, relation string) (string, string, error) {
	subtype = models.NormalizeSubtype(subtype)
	relation = models.NormalizeRelation(relation)

	switch t {
	case models.LeaveBereavement:
		switch subtype {
		case models.BereavementFirstDegree:
			if relation == "" {
				return "", "", apperror.Validation("relation is required for first-degree bereavement")
			}
		case models.BereavementSecondDegree:
			relation = models.RelationOtherRelative
		default:
			return "", "", apperror.Newf(apperror.KindValidation, "unknown bereavement degree %q", subtype)
		}
	case models.LeaveMaternity:
		switch subtype {
		case "":
			subtype = models.MaternitySingle
		case models.MaternitySingle, models.MaternityTwins:
		default:
			return "", "", apperror.Newf(apperror.KindValidation, "unknown maternity type %q", subtype)
		}
		relation = ""
	default:
		subtype, relation = "", ""
	}
	return subtype, relation, nil
}

func autoApprovalNote(t models.LeaveType, subtype string) string {
	if t == models.LeaveSick {
		return models.NoteSickAutoApproved
	}
	note := models.NoteMaternityAutoApproved
	if subtype == models.MaternityTwins {
		return note + "\nنوع الوضع: توأم"
	}
	return note + "\nنوع الوضع: عادي"
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}

func parseDecision(decision string) (models.Status, models.Action, error) {
	status, ok := models.ParseStatus(decision)
	switch {
	case ok && status == models.StatusApproved:
		return status, models.ActionApprove, nil
	case ok && status == models.StatusRejected:
		return status, models.ActionReject, nil
	}
	return "", "", apperror.Newf(apperror.KindValidation, "decision must be approved or rejected, got %q", decision)
}

// SetDepartmentStatus records the department head's decision. The head may
// only act on employees of their own department.
func (s *VacationService) SetDepartmentStatus(id uint, actorDepartment, decision, actor string) (*models.Vacation, error) {
	status, action, err := parseDecision(decision)
	if err != nil {
		return nil, err
	}
	if actorDepartment == "" {
		return nil, apperror.Validation("actor department is required")
	}

	var vacation *models.Vacation
	err = s.store.WithTx(func(tx *repository.Store) error {
		var err error
		vacation, err = s.load(tx, id)
		if err != nil {
			return err
		}

		employee, err := tx.Employees.GetByID(vacation.EmployeeID)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "load employee")
		}
		if employee == nil || employee.Department != actorDepartment {
			return apperror.New(apperror.KindForbidden, "request belongs to another department")
		}

		if !models.CanPerform(models.RoleDepartmentHead, action, vacation.DepartmentStatus, vacation.Status) {
			return apperror.InvalidTransition(
				"department decision is not possible while the department status is %s", vacation.DepartmentStatus.Code())
		}

		vacation.DepartmentStatus = status
		vacation.DeptApprover = actor
		if err := tx.Vacations.SaveStatus(vacation); err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "save vacation status")
		}
		return writeAudit(tx, models.AuditUpdate, "vacations", vacation.ID, actor,
			"dept_approval -> %s (%s)", status.Code(), actorDepartment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"vacation_id": id,
		"department":  actorDepartment,
		"decision":    status.Code(),
	}).Info("Department decision recorded")

	s.notifyDecided(vacation)
	return vacation, nil
}

// SetManagerStatus records the manager's decision once the department has
// approved. Approval of a balance-bearing request debits the balance in the
// same transaction.
func (s *VacationService) SetManagerStatus(id uint, decision, actor string) (*models.Vacation, error) {
	status, action, err := parseDecision(decision)
	if err != nil {
		return nil, err
	}

	var vacation *models.Vacation
	err = s.store.WithTx(func(tx *repository.Store) error {
		var err error
		vacation, err = s.load(tx, id)
		if err != nil {
			return err
		}

		if !models.CanPerform(models.RoleManager, action, vacation.DepartmentStatus, vacation.Status) {
			return apperror.InvalidTransition(
				"manager decision needs a pending request approved by the department (status %s, department %s)",
				vacation.Status.Code(), vacation.DepartmentStatus.Code())
		}
		return s.transitionManager(tx, vacation, status, actor)
	})
	if err != nil {
		s.logger.WithError(err).WithField("vacation_id", id).Warn("Manager decision failed")
		return nil, err
	}

	s.notifyDecided(vacation)
	return vacation, nil
}

// Cancel withdraws a manager-approved request on both tracks and returns
// the days of balance-bearing types.
func (s *VacationService) Cancel(id uint, actor string) (*models.Vacation, error) {
	var vacation *models.Vacation
	err := s.store.WithTx(func(tx *repository.Store) error {
		var err error
		vacation, err = s.load(tx, id)
		if err != nil {
			return err
		}

		if vacation.Status != models.StatusApproved {
			return apperror.InvalidTransition(
				"only approved requests can be cancelled, status is %s", vacation.Status.Code())
		}

		vacation.DepartmentStatus = models.StatusCancelled
		return s.transitionManager(tx, vacation, models.StatusCancelled, actor)
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecided(vacation)
	return vacation, nil
}

// transitionManager moves the manager track and applies the balance effect
// of entering or leaving the approved state. Every manager-track write goes
// through here.
func (s *VacationService) transitionManager(tx *repository.Store, vacation *models.Vacation, to models.Status, actor string) error {
	from := vacation.Status

	if kind, ok := models.BalanceKindFor(vacation.Type); ok {
		switch {
		case to == models.StatusApproved && from != models.StatusApproved:
			if err := s.ledger.Debit(tx, vacation.EmployeeID, kind, vacation.Duration); err != nil {
				return err
			}
		case from == models.StatusApproved && to != models.StatusApproved:
			if err := s.ledger.Credit(tx, vacation.EmployeeID, kind, vacation.Duration); err != nil {
				return err
			}
		}
	}

	vacation.Status = to
	if to == models.StatusApproved {
		vacation.ApprovedBy = actor
	}
	if err := tx.Vacations.SaveStatus(vacation); err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "save vacation status")
	}

	s.logger.WithFields(logrus.Fields{
		"vacation_id": vacation.ID,
		"from":        from.Code(),
		"to":          to.Code(),
		"actor":       actor,
	}).Info("Manager status changed")

	return writeAudit(tx, models.AuditUpdate, "vacations", vacation.ID, actor,
		"status %s -> %s", from.Code(), to.Code())
}

func (s *VacationService) load(tx *repository.Store, id uint) (*models.Vacation, error) {
	vacation, err := tx.Vacations.GetByID(id)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "load vacation request")
	}
	if vacation == nil {
		return nil, apperror.NotFound("vacation request")
	}
	return vacation, nil
}

func (s *VacationService) notifyDecided(vacation *models.Vacation) {
	if s.notifier != nil {
		s.notifier.VacationDecided(vacation)
	}
}

func (s *VacationService) Get(id uint) (*models.Vacation, error) {
	return s.load(s.store, id)
}

func (s *VacationService) ListByEmployee(employeeID uint) ([]*models.Vacation, error) {
	vacations, err := s.store.Vacations.ListByEmployee(employeeID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "list vacation requests")
	}
	return vacations, nil
}

func (s *VacationService) ListPendingForManager() ([]*models.Vacation, error) {
	vacations, err := s.store.Vacations.ListPendingForManager()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "list pending requests")
	}
	return vacations, nil
}

func (s *VacationService) ListPendingForDepartment(department string) ([]*models.Vacation, error) {
	vacations, err := s.store.Vacations.ListPendingForDepartment(department)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "list department requests")
	}
	return vacations, nil
}

func (s *VacationService) CountPending() (int64, error) {
	count, err := s.store.Vacations.CountPending()
	if err != nil {
		return 0, apperror.Wrap(err, apperror.KindInternal, "count pending requests")
	}
	return count, nil
}

// History returns the audit trail of a request, oldest first.
func (s *VacationService) History(id uint) ([]*models.AuditLog, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	entries, err := s.store.AuditLog.ListByRecord("vacations", id)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "load request history")
	}
	return entries, nil
}
