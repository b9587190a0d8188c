package service

import (
	"fmt"

	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

const systemActor = "system"

func writeAudit(tx *repository.Store, action, table string, recordID uint, actor, format string, args ...any) error {
	if actor == "" {
		actor = systemActor
	}
	return tx.AuditLog.Create(&models.AuditLog{
		Action:   action,
		Table:    table,
		RecordID: recordID,
		Changes:  fmt.Sprintf(format, args...),
		User:     actor,
	})
}

func newLogger(logger *logrus.Logger) *logrus.Logger {
	if logger != nil {
		return logger
	}
	return logrus.New()
}
