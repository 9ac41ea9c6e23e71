package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/auth"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeds a database with clubs and users from a yaml fixture, for local
// development and demos. Example fixture:
//
//	clubs:
//	  - name: Eastside Badminton
//	users:
//	  - username: alice
//	    email: alice@example.com
//	    password: test-password
//	    user_type: coach
//	    club: Eastside Badminton

type seedClub struct {
	Name string `yaml:"name"`
}

type seedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	UserType string `yaml:"user_type"`
	Club     string `yaml:"club"`
}

type seedFixture struct {
	Clubs []seedClub `yaml:"clubs"`
	Users []seedUser `yaml:"users"`
}

func postgresDsn(databaseUri string) string {
	parts, err := url.Parse(databaseUri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func loadFixture(path string) seedFixture {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("error reading fixture '%v': %v", path, err)
	}

	var fixture seedFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		log.Fatalf("error parsing fixture '%v': %v", path, err)
	}

	for _, user := range fixture.Users {
		if !schema.ValidUserType(user.UserType) {
			log.Fatalf("invalid user type '%v' for user '%v'", user.UserType, user.Username)
		}
	}

	return fixture
}

func seed(db *gorm.DB, fixture seedFixture) error {
	return db.Transaction(func(txn *gorm.DB) error {
		clubIds := map[string]uuid.UUID{}

		for _, club := range fixture.Clubs {
			row := schema.Club{Id: uuid.New(), Name: club.Name}
			result := txn.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if result.Error != nil {
				return fmt.Errorf("error creating club '%v': %w", club.Name, result.Error)
			}

			var existing schema.Club
			if err := txn.First(&existing, "name = ?", club.Name).Error; err != nil {
				return fmt.Errorf("error reading club '%v': %w", club.Name, err)
			}
			clubIds[club.Name] = existing.Id
		}

		for _, user := range fixture.Users {
			hashedPwd, err := bcrypt.GenerateFromPassword([]byte(user.Password), 10)
			if err != nil {
				return fmt.Errorf("error encrypting password for '%v': %w", user.Username, err)
			}

			row := schema.User{
				Id:       uuid.New(),
				Username: user.Username,
				Email:    user.Email,
				Password: hashedPwd,
				UserType: user.UserType,
			}
			if user.Club != "" {
				clubId, ok := clubIds[user.Club]
				if !ok {
					var existing schema.Club
					if err := txn.First(&existing, "name = ?", user.Club).Error; err != nil {
						return fmt.Errorf("unknown club '%v' for user '%v'", user.Club, user.Username)
					}
					clubId = existing.Id
				}
				row.ClubId = &clubId
			}

			result := txn.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if result.Error != nil {
				return fmt.Errorf("error creating user '%v': %w", user.Username, result.Error)
			}

			var existing schema.User
			if err := txn.First(&existing, "username = ?", user.Username).Error; err != nil {
				return fmt.Errorf("error reading user '%v': %w", user.Username, err)
			}
			if err := auth.EnsureProvisioned(txn, &existing); err != nil {
				return fmt.Errorf("error provisioning profiles for '%v': %w", user.Username, err)
			}
		}

		return nil
	})
}

func main() {
	databaseUri := flag.String("db_uri", "", "Database uri to seed.")
	fixturePath := flag.String("fixture", "seed.yaml", "Path to the yaml fixture to load.")

	flag.Parse()

	if *databaseUri == "" {
		log.Fatal("must specify -db_uri")
	}

	fixture := loadFixture(*fixturePath)

	db, err := gorm.Open(postgres.Open(postgresDsn(*databaseUri)), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	if err := db.AutoMigrate(schema.AllModels()...); err != nil {
		log.Fatalf("error migrating db schema: %v", err)
	}

	if err := seed(db, fixture); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	log.Printf("seeded %d clubs and %d users", len(fixture.Clubs), len(fixture.Users))
}
