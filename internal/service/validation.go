package service

import (
	"errors"
	"fmt"
	"strings"

	"hr-leave-bot/internal/apperror"

	"github.com/go-playground/validator/v10"
)

// validationError flattens validator failures into one Validation error.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Wrap(err, apperror.KindValidation, "invalid input")
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return apperror.Validation(strings.Join(msgs, "; "))
}
