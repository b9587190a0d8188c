package service

import (
	"testing"
	"time"

	"hr-leave-bot/internal/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeCreate_DefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t)

	e, err := env.employees.Create(EmployeeInput{
		SerialNumber: " 500 ",
		NationalID:   "123456789012",
		Name:         "Salma",
		Department:   nursing,
		Bonus:        decimal.RequireFromString("150.50"),
		WorkDays:     "1:e,0:M",
		HiringDate:   &[]time.Time{time.Date(2020, 1, 15, 9, 0, 0, 0, time.UTC)}[0],
	}, "hr")
	require.NoError(t, err)

	assert.Equal(t, "500", e.SerialNumber)
	assert.Equal(t, 30, e.VacationBalance)
	assert.Equal(t, 12, e.EmergencyVacationBalance)
	assert.Equal(t, "0:M,1:E", e.WorkDays)
	assert.Equal(t, date(2020, 1, 15), *e.HiringDate)

	got, err := env.employees.Get(e.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("150.5").Equal(got.Bonus))

	bad := []EmployeeInput{
		{SerialNumber: "501", NationalID: "12345", Name: "Short ID"},
		{SerialNumber: "502", NationalID: "12345678901x", Name: "Letter ID"},
		{SerialNumber: "503", NationalID: "+12345678901", Name: "Signed ID"},
		{SerialNumber: "", NationalID: "123456789013", Name: "No serial"},
		{SerialNumber: "504", NationalID: "123456789014", Name: "Bad days", WorkDays: "9:M"},
	}
	for _, in := range bad {
		_, err := env.employees.Create(in, "hr")
		assert.ErrorIs(t, err, apperror.ErrValidation, in.Name)
	}
}

func TestEmployeeCreate_Duplicates(t *testing.T) {
	env := newTestEnv(t)
	env.employee(t, "01", nursing)

	_, err := env.employees.Create(EmployeeInput{SerialNumber: "01", NationalID: "111111111111", Name: "Same serial"}, "hr")
	assert.ErrorIs(t, err, apperror.ErrDuplicate)

	_, err = env.employees.Create(EmployeeInput{SerialNumber: "99", NationalID: "290000000001", Name: "Same national ID"}, "hr")
	assert.ErrorIs(t, err, apperror.ErrDuplicate)
}

func TestEmployeeUpdate_KeepsBalances(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "01", nursing)

	_, err := env.ledger.Adjust(e.ID, "vacation_balance", -10, "used", "hr")
	require.NoError(t, err)

	updated, err := env.employees.Update(e.ID, EmployeeInput{
		SerialNumber: "01",
		NationalID:   e.NationalID,
		Name:         "New Name",
		Department:   "الصيدلة",
		WorkDays:     "الندب",
	}, "hr")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	got, err := env.employees.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.VacationBalance)
	assert.Equal(t, "الصيدلة", got.Department)
	assert.Equal(t, "الندب", got.WorkDays)

	_, err = env.employees.Update(999, EmployeeInput{SerialNumber: "x", NationalID: "123456789012", Name: "x"}, "hr")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestEmployeeDelete_Cascades(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "01", nursing)

	_, err := env.vacations.Submit(SubmitInput{EmployeeID: e.ID, Type: "sick", StartDate: date(2024, 3, 1), Duration: 1})
	require.NoError(t, err)

	require.NoError(t, env.employees.Delete(e.ID, "hr"))

	vacations, err := env.vacations.ListByEmployee(e.ID)
	require.NoError(t, err)
	assert.Empty(t, vacations)

	assert.ErrorIs(t, env.employees.Delete(e.ID, "hr"), apperror.ErrNotFound)
}

func TestEmployeeAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	e := env.employee(t, "01", nursing)

	got, err := env.employees.Authenticate(e.NationalID, " 01 ")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = env.employees.Authenticate(e.NationalID, "02")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
