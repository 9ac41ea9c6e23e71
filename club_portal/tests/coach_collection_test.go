package tests

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
)

func TestCoachCollectionRoles(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := fixture.student.createCoachCollection("drills", schema.UrlVideoMedia); !errors.Is(err, ErrForbidden) {
		t.Fatalf("students should not create coach collections, got %v", err)
	}

	if _, err := fixture.coach.createCoachCollection("drills", "podcast"); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("invalid media type should be rejected, got %v", err)
	}

	if _, err := fixture.coach.createCoachCollection("drills", schema.UrlVideoMedia); err != nil {
		t.Fatal(err)
	}
	if _, err := fixture.facility.createCoachCollection("facility docs", schema.DocumentMedia); err != nil {
		t.Fatal(err)
	}
}

func TestSharingWithSpecificStudents(t *testing.T) {
	env := setupTestEnv(t)

	club1, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}
	club2, err := env.setupClub("club2")
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := club1.coach.createCoachCollection("defense drills", schema.UrlVideoMedia)
	if err != nil {
		t.Fatal(err)
	}

	// Unshared students have no access at all.
	if _, err := club1.student.coachCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unshared student should not read collection, got %v", err)
	}

	if err := club1.coach.shareWithStudents(collectionId, []string{club1.student.userId}); err != nil {
		t.Fatal(err)
	}

	if _, err := club1.student.coachCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}

	// Read access does not grant management.
	err = club1.student.updateCoachCollection(collectionId, map[string]interface{}{"name": "mine now"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("shared students should not manage the collection, got %v", err)
	}
	if _, err := club1.student.listShares(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("shared students should not list shares, got %v", err)
	}

	// Share target validation is all or nothing.
	missing := "00000000-0000-0000-0000-000000000001"
	for _, bad := range []string{missing, club1.coach.userId, club2.student.userId} {
		err := club1.coach.shareWithStudents(collectionId, []string{club2.student.userId, bad})
		if !errors.Is(err, ErrUnprocessable) {
			t.Fatalf("invalid share target %v should be rejected, got %v", bad, err)
		}
	}
	// The failed shares must not have granted anything, nor revoked anything.
	if _, err := club2.student.coachCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("failed share should grant nothing, got %v", err)
	}
	if _, err := club1.student.coachCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}

	// Sharing replaces the previous share set.
	student2, err := env.newUserOfType("club1_student2", schema.StudentUser, club1.clubId)
	if err != nil {
		t.Fatal(err)
	}
	if err := club1.coach.shareWithStudents(collectionId, []string{student2.userId}); err != nil {
		t.Fatal(err)
	}
	if _, err := club1.student.coachCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("replaced share set should revoke old access, got %v", err)
	}
	if _, err := student2.coachCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}

	shares, err := club1.coach.listShares(collectionId)
	if err != nil {
		t.Fatal(err)
	}
	if len(shares) != 1 || shares[0].UserId.String() != student2.userId {
		t.Fatalf("incorrect share list: %+v", shares)
	}

	// An empty target list is rejected instead of silently clearing the share
	// set. Revoking access goes through unshare.
	if err := club1.coach.shareWithStudents(collectionId, []string{}); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("empty share target list should be rejected, got %v", err)
	}
	if _, err := student2.coachCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}
}

func TestShareWithAllStudents(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}
	other, err := env.setupClub("club2")
	if err != nil {
		t.Fatal(err)
	}

	student2, err := env.newUserOfType("club1_student2", schema.StudentUser, fixture.clubId)
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := fixture.coach.createCoachCollection("club resources", schema.DocumentMedia)
	if err != nil {
		t.Fatal(err)
	}

	if err := fixture.coach.shareWithAllStudents(collectionId); err != nil {
		t.Fatal(err)
	}

	for i, student := range []client{fixture.student, student2} {
		if _, err := student.coachCollectionInfo(collectionId); err != nil {
			t.Fatalf("club student %d should have access: %v", i, err)
		}
	}

	// Students in other clubs and club coaches get nothing.
	if _, err := other.student.coachCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other club student should not have access, got %v", err)
	}

	// The grant is a snapshot: students joining the club later are not added.
	lateJoiner, err := env.newUserOfType("club1_latecomer", schema.StudentUser, fixture.clubId)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lateJoiner.coachCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("late joining student should not gain access, got %v", err)
	}

	info, err := fixture.student.coachCollectionInfo(collectionId)
	if err != nil {
		t.Fatal(err)
	}
	if info.SharingType != schema.ShareAllStudents {
		t.Fatalf("expected sharing type all_students, got '%v'", info.SharingType)
	}
}

func TestShareWithAllCoaches(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}

	coach2, err := env.newUserOfType("club1_coach2", schema.CoachUser, fixture.clubId)
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := fixture.coach.createCoachCollection("coaching methods", schema.DocumentMedia)
	if err != nil {
		t.Fatal(err)
	}

	if err := fixture.coach.shareWithAllCoaches(collectionId); err != nil {
		t.Fatal(err)
	}

	if _, err := coach2.coachCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}
	if _, err := fixture.student.coachCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("students should not gain access from all_coaches sharing, got %v", err)
	}

	// All coaches sharing is additive over existing shares.
	if err := fixture.coach.shareWithStudents(collectionId, []string{fixture.student.userId}); err != nil {
		t.Fatal(err)
	}
	if err := fixture.coach.shareWithAllCoaches(collectionId); err != nil {
		t.Fatal(err)
	}
	if _, err := fixture.student.coachCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}
	if _, err := coach2.coachCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}
}

func TestUnshare(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := fixture.coach.createCoachCollection("drills", schema.UrlVideoMedia)
	if err != nil {
		t.Fatal(err)
	}

	if err := fixture.coach.unshare(collectionId, fixture.student.userId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unsharing a missing share should 404, got %v", err)
	}

	if err := fixture.coach.shareWithStudents(collectionId, []string{fixture.student.userId}); err != nil {
		t.Fatal(err)
	}
	if err := fixture.coach.unshare(collectionId, fixture.student.userId); err != nil {
		t.Fatal(err)
	}
	if _, err := fixture.student.coachCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unshared student should lose access, got %v", err)
	}
}

func TestFacilityManagement(t *testing.T) {
	env := setupTestEnv(t)

	club1, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}
	club2, err := env.setupClub("club2")
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := club1.coach.createCoachCollection("drills", schema.UrlVideoMedia)
	if err != nil {
		t.Fatal(err)
	}

	// Facility users manage all coach content within their club.
	err = club1.facility.updateCoachCollection(collectionId, map[string]interface{}{"description": "updated by facility"})
	if err != nil {
		t.Fatal(err)
	}
	if err := club1.facility.shareWithStudents(collectionId, []string{club1.student.userId}); err != nil {
		t.Fatal(err)
	}

	// But not outside it.
	err = club2.facility.updateCoachCollection(collectionId, map[string]interface{}{"description": "nope"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("facility users should not manage other clubs' content, got %v", err)
	}
}

func TestCoachCollectionSoftDelete(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := fixture.coach.createCoachCollection("drills", schema.UrlVideoMedia)
	if err != nil {
		t.Fatal(err)
	}
	if err := fixture.coach.shareWithStudents(collectionId, []string{fixture.student.userId}); err != nil {
		t.Fatal(err)
	}

	if err := fixture.coach.deleteCoachCollection(collectionId); err != nil {
		t.Fatal(err)
	}

	// Deleted collections are gone for everyone, including the owner and admins.
	if _, err := fixture.coach.coachCollectionInfo(collectionId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("owner should get 404 for deleted collection, got %v", err)
	}
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.coachCollectionInfo(collectionId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("admin should get 404 for deleted collection, got %v", err)
	}
	if _, err := fixture.student.coachCollectionInfo(collectionId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("shared student should get 404 for deleted collection, got %v", err)
	}

	collections, err := fixture.coach.listCoachCollections()
	if err != nil {
		t.Fatal(err)
	}
	if len(collections) != 0 {
		t.Fatalf("deleted collections should not be listed: %+v", collections)
	}
}

func TestUrlVideoMediaLimit(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := fixture.coach.createCoachCollection("footwork videos", schema.UrlVideoMedia)
	if err != nil {
		t.Fatal(err)
	}

	mediaIds := make([]string, 0, schema.UrlVideoMediaLimit)
	for i := 0; i < schema.UrlVideoMediaLimit; i++ {
		mediaId, err := fixture.coach.addMedia(collectionId, fmt.Sprintf("video %d", i), fmt.Sprintf("https://example.com/v%d", i))
		if err != nil {
			t.Fatal(err)
		}
		mediaIds = append(mediaIds, mediaId)
	}

	if _, err := fixture.coach.addMedia(collectionId, "one too many", "https://example.com/extra"); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("video limit should be enforced, got %v", err)
	}

	// Soft deleted media does not count against the limit.
	if err := fixture.coach.deleteMedia(collectionId, mediaIds[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := fixture.coach.addMedia(collectionId, "replacement", "https://example.com/replacement"); err != nil {
		t.Fatal(err)
	}

	info, err := fixture.coach.coachCollectionInfo(collectionId)
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Media) != schema.UrlVideoMediaLimit {
		t.Fatalf("deleted media should be hidden, got %d items", len(info.Media))
	}

	// Document collections have no media cap.
	docsId, err := fixture.coach.createCoachCollection("reading list", schema.DocumentMedia)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < schema.UrlVideoMediaLimit+2; i++ {
		if _, err := fixture.coach.addMedia(docsId, fmt.Sprintf("doc %d", i), fmt.Sprintf("https://example.com/d%d", i)); err != nil {
			t.Fatal(err)
		}
	}
}
