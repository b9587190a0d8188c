package service

import (
	"testing"
	"time"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nursing = "التمريض"

func TestSubmit_AnnualStaysPendingWithoutDebit(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "01", nursing)

	v, err := env.vacations.Submit(SubmitInput{
		EmployeeID: e.ID,
		Type:       "annual",
		StartDate:  date(2024, 3, 1),
		EndDate:    datePtr(2024, 3, 5),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, v.Duration)
	assert.Equal(t, models.StatusPending, v.Status)
	assert.Equal(t, models.StatusPending, v.DepartmentStatus)

	balance, err := env.ledger.GetBalance(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, balance.Annual)

	entries, err := env.store.AuditLog.ListByRecord("vacations", v.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSubmit_DurationGivesEndDate(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "02", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "emergency", StartDate: date(2024, 3, 30), Duration: 3})
	require.NoError(t, err)

	assert.Equal(t, date(2024, 4, 1), v.EndDate.Time)
}

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "03", nursing)

	cases := []struct {
		name string
		in   SubmitInput
		kind apperror.Kind
	}{
		{"missing employee", SubmitInput{Type: "annual", StartDate: date(2024, 3, 1), Duration: 1}, apperror.KindValidation},
		{"unknown employee", SubmitInput{EmployeeID: 999, Type: "annual", StartDate: date(2024, 3, 1), Duration: 1}, apperror.KindNotFound},
		{"unknown type", SubmitInput{EmployeeID: e.ID, Type: "sabbatical", StartDate: date(2024, 3, 1), Duration: 1}, apperror.KindValidation},
		{"end before start", SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 5), EndDate: datePtr(2024, 3, 1)}, apperror.KindValidation},
		{"zero duration", SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 5)}, apperror.KindValidation},
		{"duration mismatch", SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), EndDate: datePtr(2024, 3, 2), Duration: 5}, apperror.KindValidation},
		{"over balance", SubmitInput{EmployeeID: e.ID, Type: "emergency", StartDate: date(2024, 3, 1), Duration: 13}, apperror.KindInsufficientBalance},
		{"bad bereavement degree", SubmitInput{EmployeeID: e.ID, Type: "bereavement", Subtype: "third", StartDate: date(2024, 3, 1)}, apperror.KindValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.vacations.Submit(tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperror.KindOf(err))
		})
	}

	vacations, err := env.vacations.ListByEmployee(e.ID)
	require.NoError(t, err)
	assert.Empty(t, vacations)
}

func TestSubmit_OverlapIsConflict(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "04", nursing)

	_, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), EndDate: datePtr(2024, 3, 5)})
	require.NoError(t, err)

	_, err = env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "sick", StartDate: date(2024, 3, 5), Duration: 2})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// adjacent ranges do not overlap
	_, err = env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "sick", StartDate: date(2024, 3, 6), Duration: 2})
	assert.NoError(t, err)
}

func TestSubmit_LegacyRowsBlockInclusiveEnd(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "21", nursing)

	// rows migrated in place keep plain YYYY-MM-DD text
	require.NoError(t, env.db.Exec(
		`INSERT INTO vacations (employee_id, type, start_date, end_date, duration, status, dept_approval)
		VALUES (?, ?, '2024-03-01', '2024-03-05', 5, ?, ?)`,
		e.ID, models.LeaveAnnual, models.StatusApproved, models.StatusApproved).Error)

	_, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 5), Duration: 1})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 2, 28), EndDate: datePtr(2024, 3, 1)})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 6), Duration: 1})
	assert.NoError(t, err)
}

func TestSubmit_RejectedDatesAreFree(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "05", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), Duration: 2})
	require.NoError(t, err)
	_, err = env.vacations.SetDepartmentStatus(v.ID, nursing, "rejected", "head")
	require.NoError(t, err)

	_, err = env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), Duration: 2})
	assert.NoError(t, err)
}

// Cancelled requests keep blocking their dates under the default policy.
func TestSubmit_CancelledDatesFollowPolicy(t *testing.T) {
	for _, blocks := range []bool{true, false} {
		env := newTestEnv(t)
		env.vacations.policy = repository.ConflictPolicy{CancelledBlocks: blocks}
		e := env.employee(t, "06", nursing)

		v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), Duration: 2})
		require.NoError(t, err)
		env.approve(t, v, nursing)
		_, err = env.vacations.Cancel(v.ID, "manager")
		require.NoError(t, err)

		_, err = env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 2), Duration: 1})
		if blocks {
			assert.ErrorIs(t, err, apperror.ErrConflict)
		} else {
			assert.NoError(t, err)
		}
	}
}

func TestSubmit_SpouseBereavementIs130Days(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "07", nursing)

	v, err := env.vacations.Submit(SubmitInput{
		EmployeeID: e.ID,
		Type:       string(models.LeaveBereavement),
		Subtype:    models.BereavementFirstDegree,
		Relation:   models.RelationSpouse,
		StartDate:  date(2024, 1, 1),
		EndDate:    datePtr(2024, 1, 3),
	})
	require.NoError(t, err)

	assert.Equal(t, 130, v.Duration)
	assert.Equal(t, date(2024, 5, 9), v.EndDate.Time)
	assert.Equal(t, models.StatusPending, v.Status)
}

func TestSubmit_SecondDegreeBereavementSetsRelation(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "08", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "bereavement", Subtype: "second_degree", StartDate: date(2024, 1, 1)})
	require.NoError(t, err)

	assert.Equal(t, 3, v.Duration)
	assert.Equal(t, models.RelationOtherRelative, v.Relation)
}

func TestSubmit_TwinsMaternityIsAutoApproved(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "09", nursing)

	v, err := env.vacations.Submit(SubmitInput{
		EmployeeID: e.ID,
		Type:       "maternity",
		Subtype:    "twins",
		StartDate:  date(2024, 2, 1),
		Duration:   10,
		Notes:      "hospital letter",
	})
	require.NoError(t, err)

	assert.Equal(t, 112, v.Duration)
	assert.Equal(t, models.StatusApproved, v.Status)
	assert.Equal(t, models.StatusApproved, v.DepartmentStatus)
	assert.Contains(t, v.Notes, "hospital letter")
	assert.Contains(t, v.Notes, models.NoteMaternityAutoApproved)
	assert.Contains(t, v.Notes, "توأم")

	// not balance-bearing: balances untouched
	balance, err := env.ledger.GetBalance(e.ID)
	require.NoError(t, err)
	assert.Equal(t, &Balance{Annual: 30, Emergency: 12}, balance)
}

func TestSubmit_SickIsAutoApproved(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "10", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "sick", StartDate: date(2024, 2, 1), Duration: 4})
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, v.Status)
	assert.Equal(t, models.NoteSickAutoApproved, v.Notes)
}

func TestLifecycle_BalanceScenario(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "11", nursing)

	first, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), EndDate: datePtr(2024, 3, 5)})
	require.NoError(t, err)
	second, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 4, 1), EndDate: datePtr(2024, 4, 5)})
	require.NoError(t, err)

	assertAnnual := func(want int) {
		t.Helper()
		balance, err := env.ledger.GetBalance(e.ID)
		require.NoError(t, err)
		assert.Equal(t, want, balance.Annual)
	}
	assertAnnual(30)

	env.approve(t, first, nursing)
	assertAnnual(25)

	cancelled, err := env.vacations.Cancel(first.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, models.StatusCancelled, cancelled.DepartmentStatus)
	assertAnnual(30)

	env.approve(t, second, nursing)
	assertAnnual(25)

	entries, err := env.vacations.History(first.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4) // submit, department, manager, cancel
	assert.Equal(t, models.AuditInsert, entries[0].Action)
	assert.Equal(t, "manager", entries[3].User)

	_, err = env.vacations.History(9999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSetManagerStatus_InsufficientBalanceLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "12", nursing)

	big, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), Duration: 20})
	require.NoError(t, err)
	other, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 5, 1), Duration: 15})
	require.NoError(t, err)

	env.approve(t, big, nursing)

	_, err = env.vacations.SetDepartmentStatus(other.ID, nursing, "approved", "head")
	require.NoError(t, err)
	_, err = env.vacations.SetManagerStatus(other.ID, "approved", "manager")

	var balErr *apperror.InsufficientBalanceError
	require.ErrorAs(t, err, &balErr)
	assert.Equal(t, 10, balErr.Available)
	assert.Equal(t, 15, balErr.Requested)

	balance, err := env.ledger.GetBalance(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance.Annual)

	reloaded, err := env.vacations.Get(other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reloaded.Status)
}

func TestSetManagerStatus_RequiresDepartmentApproval(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "13", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), Duration: 1})
	require.NoError(t, err)

	_, err = env.vacations.SetManagerStatus(v.ID, "approved", "manager")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = env.vacations.SetManagerStatus(v.ID, "cancelled", "manager")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSetManagerStatus_RejectHasNoBalanceEffect(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "14", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "emergency", StartDate: date(2024, 3, 1), Duration: 2})
	require.NoError(t, err)
	_, err = env.vacations.SetDepartmentStatus(v.ID, nursing, "approved", "head")
	require.NoError(t, err)

	rejected, err := env.vacations.SetManagerStatus(v.ID, "rejected", "manager")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	balance, err := env.ledger.GetBalance(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, balance.Emergency)

	_, err = env.vacations.SetManagerStatus(v.ID, "approved", "manager")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestSetDepartmentStatus_Rules(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "15", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), Duration: 1})
	require.NoError(t, err)

	_, err = env.vacations.SetDepartmentStatus(v.ID, "الصيدلة", "approved", "other head")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := env.vacations.SetDepartmentStatus(v.ID, nursing, "approved", "head")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.DepartmentStatus)
	assert.Equal(t, "head", updated.DeptApprover)

	_, err = env.vacations.SetDepartmentStatus(v.ID, nursing, "rejected", "head")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = env.vacations.SetDepartmentStatus(404, nursing, "approved", "head")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCancel_OnlyApproved(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "16", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), Duration: 1})
	require.NoError(t, err)

	_, err = env.vacations.Cancel(v.ID, "manager")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	env.approve(t, v, nursing)
	_, err = env.vacations.Cancel(v.ID, "manager")
	require.NoError(t, err)

	_, err = env.vacations.Cancel(v.ID, "manager")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestCancel_SickHasNoBalanceEffect(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "17", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "sick", StartDate: date(2024, 3, 1), Duration: 3})
	require.NoError(t, err)

	_, err = env.vacations.Cancel(v.ID, "employee")
	require.NoError(t, err)

	balance, err := env.ledger.GetBalance(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, balance.Annual)
}

type recordingNotifier struct {
	submitted []uint
	decided   []uint
}

func (n *recordingNotifier) VacationSubmitted(v *models.Vacation, _ *models.Employee) {
	n.submitted = append(n.submitted, v.ID)
}

func (n *recordingNotifier) VacationDecided(v *models.Vacation) {
	n.decided = append(n.decided, v.ID)
}

func TestNotifier_CalledAfterCommit(t *testing.T) {
	env := newTestEnv(t)
	n := &recordingNotifier{}
	env.vacations.SetNotifier(n)
	e := env.employee(t, "18", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), Duration: 1})
	require.NoError(t, err)
	_, err = env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), Duration: 1})
	require.Error(t, err)

	env.approve(t, v, nursing)

	assert.Equal(t, []uint{v.ID}, n.submitted)
	assert.Equal(t, []uint{v.ID, v.ID}, n.decided)
}

func TestPendingQueries(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "19", nursing)

	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: date(2024, 3, 1), Duration: 1})
	require.NoError(t, err)

	forDept, err := env.vacations.ListPendingForDepartment(nursing)
	require.NoError(t, err)
	assert.Len(t, forDept, 1)

	forManager, err := env.vacations.ListPendingForManager()
	require.NoError(t, err)
	assert.Empty(t, forManager)

	_, err = env.vacations.SetDepartmentStatus(v.ID, nursing, "approved", "head")
	require.NoError(t, err)

	forManager, err = env.vacations.ListPendingForManager()
	require.NoError(t, err)
	assert.Len(t, forManager, 1)

	count, err := env.vacations.CountPending()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSubmit_DatesAreNormalised(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "20", nursing)

	start := time.Date(2024, 3, 1, 17, 30, 0, 0, time.UTC)
	v, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "annual", StartDate: start, Duration: 2})
	require.NoError(t, err)

	assert.Equal(t, date(2024, 3, 1), v.StartDate.Time)
	assert.Equal(t, date(2024, 3, 2), v.EndDate.Time)
}
