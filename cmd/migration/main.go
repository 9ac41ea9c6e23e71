package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/joho/godotenv"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/cmd/migration/versions"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func postgresDsn(databaseUri string) string {
	parts, err := url.Parse(databaseUri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func main() {
	envFile := flag.String("env", "", "File to load env variables from.")
	databaseUri := flag.String("db_uri", "", "Database uri to run migrations against.")
	rollback := flag.Bool("rollback", false, "If specified rolls back the last applied migration instead of migrating.")

	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("error loading .env file '%v': %v", *envFile, err)
		}
	}

	if *databaseUri == "" {
		log.Fatal("must specify -db_uri")
	}

	db, err := gorm.Open(postgres.Open(postgresDsn(*databaseUri)), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, versions.Migrations)

	if *rollback {
		if err := m.RollbackLast(); err != nil {
			log.Fatalf("rollback failed: %v", err)
		}
		log.Println("rollback complete")
		return
	}

	if err := m.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("migrations complete")
}
