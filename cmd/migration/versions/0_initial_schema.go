package versions

import (
	"log"

	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"gorm.io/gorm"
)

func Migration_initial_schema(txn *gorm.DB) error {
	log.Println("creating initial schema")

	if err := txn.Migrator().AutoMigrate(schema.AllModels()...); err != nil {
		return err
	}

	log.Println("initial schema creation complete")

	return nil
}
