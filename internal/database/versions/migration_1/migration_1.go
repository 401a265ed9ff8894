package migration_1

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// Records why a job failed and how many examples it was trained on.
type FineTuneJob struct {
	Error    sql.NullString
	Examples int
}

func Migration(db *gorm.DB) error {
	for _, column := range []string{"Error", "Examples"} {
		if !db.Migrator().HasColumn(&FineTuneJob{}, column) {
			if err := db.Migrator().AddColumn(&FineTuneJob{}, column); err != nil {
				return fmt.Errorf("error adding column %s to fine_tune_jobs: %w", column, err)
			}
		}
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	for _, column := range []string{"Error", "Examples"} {
		if err := db.Migrator().DropColumn(&FineTuneJob{}, column); err != nil {
			return fmt.Errorf("error dropping column %s from fine_tune_jobs: %w", column, err)
		}
	}
	return nil
}
