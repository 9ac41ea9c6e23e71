package tests

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
)

func TestUserSignupAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("user1")
	if err != nil {
		t.Fatal(err)
	}

	info, err := user.userInfo()
	if err != nil {
		t.Fatal(err)
	}

	if info.Username != "user1" || info.Email != "user1@mail.com" {
		t.Fatalf("incorrect user info returned: %+v", info)
	}
	if info.UserType != schema.StudentUser {
		t.Fatalf("new users should be students, got '%v'", info.UserType)
	}
	if info.ClubId != nil {
		t.Fatal("new users should not be in a club")
	}

	c := env.newClient()
	if err := c.login(loginInfo{Email: "user1@mail.com", Password: "wrong_password"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("login with bad password should fail, got %v", err)
	}
}

func TestDuplicateSignup(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := env.newUser("user1"); err != nil {
		t.Fatal(err)
	}

	c := env.newClient()
	if _, err := c.signup("user1", "other@mail.com", "password123"); err == nil {
		t.Fatal("duplicate username signup should fail")
	}
	if _, err := c.signup("other", "user1@mail.com", "password123"); err == nil {
		t.Fatal("duplicate email signup should fail")
	}
}

func TestUserTypeChanges(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("user1")
	if err != nil {
		t.Fatal(err)
	}
	other, err := env.newUser("user2")
	if err != nil {
		t.Fatal(err)
	}

	if err := user.setUserType(other.userId, schema.CoachUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non admin should not change user types, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.setUserType(other.userId, "superuser"); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("invalid user type should be rejected, got %v", err)
	}

	if err := admin.setUserType(other.userId, schema.CoachUser); err != nil {
		t.Fatal(err)
	}

	if err := other.login(loginInfo{Email: "user2@mail.com", Password: "user2_password"}); err != nil {
		t.Fatal(err)
	}
	info, err := other.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.UserType != schema.CoachUser {
		t.Fatalf("expected user type coach, got '%v'", info.UserType)
	}
}

func TestCannotDemoteLastAdmin(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.setUserType(admin.userId, schema.StudentUser); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("demoting the last admin should fail, got %v", err)
	}

	user, err := env.newUser("user1")
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.setUserType(user.userId, schema.AdminUser); err != nil {
		t.Fatal(err)
	}

	// With a second admin the demotion is allowed.
	if err := admin.setUserType(admin.userId, schema.StudentUser); err != nil {
		t.Fatal(err)
	}
}

func TestProfileUpdates(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newUser("student1")
	if err != nil {
		t.Fatal(err)
	}

	err = student.updateProfile(map[string]interface{}{"skill_level": "intermediate", "goals": "improve backhand clears"})
	if err != nil {
		t.Fatal(err)
	}

	if err := student.updateProfile(map[string]interface{}{"bio": "not a coach"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("students should not have a coach profile, got %v", err)
	}

	profile, err := student.profile(student.userId)
	if err != nil {
		t.Fatal(err)
	}
	if profile.SkillLevel != "intermediate" || profile.Goals != "improve backhand clears" {
		t.Fatalf("incorrect profile returned: %+v", profile)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	coach, err := env.newUser("coach1")
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.setUserType(coach.userId, schema.CoachUser); err != nil {
		t.Fatal(err)
	}

	err = coach.updateProfile(map[string]interface{}{"bio": "former national player", "years_experience": 12})
	if err != nil {
		t.Fatal(err)
	}

	profile, err = student.profile(coach.userId)
	if err != nil {
		t.Fatal(err)
	}
	if profile.Bio != "former national player" || profile.YearsExperience != 12 {
		t.Fatalf("incorrect coach profile returned: %+v", profile)
	}
}

func TestProfileImages(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("imgclub")
	if err != nil {
		t.Fatal(err)
	}

	image := base64.StdEncoding.EncodeToString([]byte("fake png bytes"))

	if err := fixture.student.uploadProfileImage(image, "image/png"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("students cannot upload coach profile images, got %v", err)
	}
	if err := fixture.coach.uploadHeaderImage(image, "image/png"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("coaches cannot upload student header images, got %v", err)
	}

	if err := fixture.coach.uploadProfileImage(image, "text/html"); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("non image content type should be rejected, got %v", err)
	}
	if err := fixture.coach.uploadProfileImage("$$$not-base64$$$", "image/png"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("invalid base64 should be rejected, got %v", err)
	}

	if err := fixture.coach.uploadProfileImage(image, "image/png"); err != nil {
		t.Fatal(err)
	}
	if err := fixture.student.uploadHeaderImage(image, "image/jpeg"); err != nil {
		t.Fatal(err)
	}

	profile, err := fixture.student.profile(fixture.coach.userId)
	if err != nil {
		t.Fatal(err)
	}
	if profile.ProfileImage != "data:image/png;base64,"+image {
		t.Fatalf("incorrect profile image data url: %v", profile.ProfileImage)
	}
}

func TestCoachDiscovery(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.setupClub("club2"); err != nil {
		t.Fatal(err)
	}

	err = fixture.coach.updateProfile(map[string]interface{}{"bio": "club1 coach", "years_experience": 5})
	if err != nil {
		t.Fatal(err)
	}

	coaches, err := fixture.student.listCoaches()
	if err != nil {
		t.Fatal(err)
	}

	if len(coaches) != 1 {
		t.Fatalf("expected exactly the club's coach, got %d", len(coaches))
	}
	if coaches[0].Username != "club1_coach" || coaches[0].Bio != "club1 coach" || coaches[0].YearsExperience != 5 {
		t.Fatalf("incorrect coach info: %+v", coaches[0])
	}
}

func TestDeleteUser(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("user1")
	if err != nil {
		t.Fatal(err)
	}

	if err := user.deleteUser(user.userId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non admin should not delete users, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.deleteUser(user.userId); err != nil {
		t.Fatal(err)
	}

	if _, err := user.userInfo(); err == nil {
		t.Fatal("deleted user should not be able to access endpoints")
	}

	if err := admin.deleteUser(user.userId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleting a missing user should 404, got %v", err)
	}
}
