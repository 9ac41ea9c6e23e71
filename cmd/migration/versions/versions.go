package versions

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"gorm.io/gorm"
)

// Migrations is the ordered list of schema migrations. New migrations are
// appended, never reordered or edited once released.
var Migrations = []*gormigrate.Migration{
	{
		ID:      "202601_initial_schema",
		Migrate: Migration_initial_schema,
		Rollback: func(txn *gorm.DB) error {
			for _, model := range schema.AllModels() {
				if err := txn.Migrator().DropTable(model); err != nil {
					return err
				}
			}
			return nil
		},
	},
}
