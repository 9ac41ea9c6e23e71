package tests

import (
	"errors"
	"testing"
)

func TestClubCreation(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("user1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := user.createClub("northside"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non admin should not create clubs, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := admin.createClub(""); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("empty club name should be rejected, got %v", err)
	}

	clubId, err := admin.createClub("northside")
	if err != nil {
		t.Fatal(err)
	}

	clubs, err := user.listClubs()
	if err != nil {
		t.Fatal(err)
	}
	if len(clubs) != 1 || clubs[0].Id.String() != clubId || clubs[0].Name != "northside" {
		t.Fatalf("incorrect club list: %+v", clubs)
	}
}

func TestClubMembership(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("eastside")
	if err != nil {
		t.Fatal(err)
	}

	outsider, err := env.newUser("outsider")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := outsider.listClubUsers(fixture.clubId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non members should not list club users, got %v", err)
	}

	users, err := fixture.student.listClubUsers(fixture.clubId)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 club members, got %d", len(users))
	}
	for _, u := range users {
		if u.ClubId == nil || u.ClubId.String() != fixture.clubId {
			t.Fatalf("user %v is not in the club", u.Username)
		}
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.listClubUsers(fixture.clubId); err != nil {
		t.Fatal(err)
	}

	info, err := fixture.student.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.ClubName != "eastside" {
		t.Fatalf("expected club name in user info, got '%v'", info.ClubName)
	}
}

func TestClubScopedUserList(t *testing.T) {
	env := setupTestEnv(t)

	club1, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.setupClub("club2"); err != nil {
		t.Fatal(err)
	}

	users, err := club1.student.listUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 3 {
		t.Fatalf("club members should only see their club, got %d users", len(users))
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	all, err := admin.listUsers()
	if err != nil {
		t.Fatal(err)
	}
	// 6 club members plus the admin.
	if len(all) != 7 {
		t.Fatalf("admin should see all users, got %d", len(all))
	}
}
