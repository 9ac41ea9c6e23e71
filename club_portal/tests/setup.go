package tests

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/auth"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	portal services.ClubPortal
	api    chi.Router
	db     *gorm.DB
}

const (
	adminUsername = "admin123"
	adminEmail    = "admin123@mail.com"
	adminPassword = "admin_password123"
)

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(schema.AllModels()...)
	if err != nil {
		t.Fatal(err)
	}

	userAuth, err := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(new(bytes.Buffer)),
		auth.BasicProviderArgs{
			Secret:        []byte("290zcv02ai249"),
			AdminUsername: adminUsername,
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	portal := services.NewClubPortal(db, userAuth)

	return &testEnv{portal: portal, api: portal.Routes(), db: db}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) newUser(username string) (client, error) {
	c := t.newClient()
	login, err := c.signup(username, username+"@mail.com", username+"_password")
	if err != nil {
		return client{}, err
	}

	err = c.login(login)
	if err != nil {
		return client{}, err
	}

	return c, nil
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: adminEmail, Password: adminPassword})
	return c, err
}

// newUserOfType signs up a user and has an admin set the given role and club.
func (t *testEnv) newUserOfType(username, userType string, clubId string) (client, error) {
	c, err := t.newUser(username)
	if err != nil {
		return client{}, err
	}

	admin, err := t.adminClient()
	if err != nil {
		return client{}, err
	}

	if userType != schema.StudentUser {
		if err := admin.setUserType(c.userId, userType); err != nil {
			return client{}, err
		}
	}
	if clubId != "" {
		if err := admin.setUserClub(c.userId, clubId); err != nil {
			return client{}, err
		}
	}

	// Relogin so the client token reflects the final user state.
	err = c.login(loginInfo{Email: username + "@mail.com", Password: username + "_password"})
	if err != nil {
		return client{}, err
	}

	return c, nil
}

func (t *testEnv) newClub(name string) (string, error) {
	admin, err := t.adminClient()
	if err != nil {
		return "", err
	}
	return admin.createClub(name)
}

// setupClub creates a club with a student, a coach, and a facility user, the
// common fixture for access control tests.
type clubFixture struct {
	clubId   string
	student  client
	coach    client
	facility client
}

func (t *testEnv) setupClub(name string) (clubFixture, error) {
	clubId, err := t.newClub(name)
	if err != nil {
		return clubFixture{}, err
	}

	student, err := t.newUserOfType(name+"_student", schema.StudentUser, clubId)
	if err != nil {
		return clubFixture{}, fmt.Errorf("error creating student: %w", err)
	}

	coach, err := t.newUserOfType(name+"_coach", schema.CoachUser, clubId)
	if err != nil {
		return clubFixture{}, fmt.Errorf("error creating coach: %w", err)
	}

	facility, err := t.newUserOfType(name+"_facility", schema.FacilityUser, clubId)
	if err != nil {
		return clubFixture{}, fmt.Errorf("error creating facility user: %w", err)
	}

	return clubFixture{clubId: clubId, student: student, coach: coach, facility: facility}, nil
}
