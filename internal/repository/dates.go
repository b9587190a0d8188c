package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// trimDayColumns rewrites day columns that hold a full timestamp to the
// YYYY-MM-DD text models.Date writes, so range and equality checks see one
// encoding. A row whose trimmed day would collide with a unique index is
// left untouched.
func trimDayColumns(db *gorm.DB, table string, columns ...string) error {
	for _, column := range columns {
		stmt := fmt.Sprintf("UPDATE OR IGNORE %s SET %s = substr(%s, 1, 10) WHERE length(%s) > 10",
			table, column, column, column)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("normalize %s.%s: %w", table, column, err)
		}
	}
	return nil
}
