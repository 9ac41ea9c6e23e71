package tests

import (
	"errors"
	"testing"

	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
)

func TestVideoCollectionAccess(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := fixture.coach.createVideoCollection("coach collection"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("coaches should not create video collections, got %v", err)
	}

	collectionId, err := fixture.student.createVideoCollection("smash practice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := fixture.student.videoCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}

	// Unassigned coaches and club mates have no access.
	if _, err := fixture.coach.videoCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unassigned coach should not access collection, got %v", err)
	}
	if _, err := fixture.facility.videoCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("facility users should not access video collections, got %v", err)
	}

	if err := fixture.student.assignCoach(collectionId, &fixture.coach.userId); err != nil {
		t.Fatal(err)
	}

	if _, err := fixture.coach.videoCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}

	collections, err := fixture.coach.listVideoCollections()
	if err != nil {
		t.Fatal(err)
	}
	if len(collections) != 1 || collections[0].Id.String() != collectionId {
		t.Fatalf("assigned collections should appear in the coach's list: %+v", collections)
	}

	// Unassigning revokes the coach's access.
	if err := fixture.student.assignCoach(collectionId, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := fixture.coach.videoCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unassigned coach should lose access, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.videoCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}
}

func TestAssignCoachValidation(t *testing.T) {
	env := setupTestEnv(t)

	club1, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}
	club2, err := env.setupClub("club2")
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := club1.student.createVideoCollection("footwork")
	if err != nil {
		t.Fatal(err)
	}

	missing := "00000000-0000-0000-0000-000000000001"
	if err := club1.student.assignCoach(collectionId, &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("assigning a missing coach should 404, got %v", err)
	}

	if err := club1.student.assignCoach(collectionId, &club1.facility.userId); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("assigning a non coach should be rejected, got %v", err)
	}

	if err := club1.student.assignCoach(collectionId, &club2.coach.userId); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("assigning a coach from another club should be rejected, got %v", err)
	}

	if err := club1.coach.assignCoach(collectionId, &club1.coach.userId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("only the owner assigns coaches, got %v", err)
	}

	if err := club1.student.assignCoach(collectionId, &club1.coach.userId); err != nil {
		t.Fatal(err)
	}

	// Admins in the owner's club can coach and are valid assignment targets.
	clubAdmin, err := env.newUserOfType("club1_admin", schema.AdminUser, club1.clubId)
	if err != nil {
		t.Fatal(err)
	}
	if err := club1.student.assignCoach(collectionId, &clubAdmin.userId); err != nil {
		t.Fatalf("assigning a club admin as coach should work, got %v", err)
	}

	info, err := club1.student.videoCollectionInfo(collectionId)
	if err != nil {
		t.Fatal(err)
	}
	if info.AssignedCoachId == nil || info.AssignedCoachId.String() != clubAdmin.userId {
		t.Fatalf("incorrect assigned coach: %+v", info)
	}
}

func TestCoachReassignment(t *testing.T) {
	env := setupTestEnv(t)

	club1, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}
	club2, err := env.setupClub("club2")
	if err != nil {
		t.Fatal(err)
	}

	coach2, err := env.newUserOfType("club1_coach2", schema.CoachUser, club1.clubId)
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := club1.student.createVideoCollection("net play")
	if err != nil {
		t.Fatal(err)
	}

	if err := club1.student.assignCoach(collectionId, &club1.coach.userId); err != nil {
		t.Fatal(err)
	}
	if _, err := club1.coach.videoCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}

	// Reassignment replaces the previous coach, who loses access immediately.
	if err := club1.student.assignCoach(collectionId, &coach2.userId); err != nil {
		t.Fatal(err)
	}
	if _, err := club1.coach.videoCollectionInfo(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("replaced coach should lose access, got %v", err)
	}
	if _, err := coach2.videoCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}

	// A rejected reassignment keeps the current assignment in place.
	if err := club1.student.assignCoach(collectionId, &club2.coach.userId); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("cross club reassignment should be rejected, got %v", err)
	}

	info, err := club1.student.videoCollectionInfo(collectionId)
	if err != nil {
		t.Fatal(err)
	}
	if info.AssignedCoachId == nil || info.AssignedCoachId.String() != coach2.userId {
		t.Fatalf("rejected reassignment should keep the current coach: %+v", info)
	}
	if _, err := coach2.videoCollectionInfo(collectionId); err != nil {
		t.Fatal(err)
	}
}

func TestVideoManagement(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := fixture.student.createVideoCollection("serves")
	if err != nil {
		t.Fatal(err)
	}
	if err := fixture.student.assignCoach(collectionId, &fixture.coach.userId); err != nil {
		t.Fatal(err)
	}

	if _, err := fixture.student.addVideo(collectionId, "high serve", "not-a-url"); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("invalid video url should be rejected, got %v", err)
	}
	if _, err := fixture.student.addVideo(collectionId, "", "https://example.com/v1"); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("empty video title should be rejected, got %v", err)
	}

	videoId, err := fixture.student.addVideo(collectionId, "high serve", "https://example.com/v1")
	if err != nil {
		t.Fatal(err)
	}

	// The assigned coach can view but not modify.
	if _, err := fixture.coach.addVideo(collectionId, "drill", "https://example.com/v2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("assigned coach should not add videos, got %v", err)
	}
	if err := fixture.coach.deleteVideo(collectionId, videoId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("assigned coach should not delete videos, got %v", err)
	}
	if err := fixture.coach.deleteVideoCollection(collectionId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("assigned coach should not delete the collection, got %v", err)
	}

	info, err := fixture.coach.videoCollectionInfo(collectionId)
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Videos) != 1 || info.Videos[0].Title != "high serve" {
		t.Fatalf("incorrect collection info: %+v", info)
	}

	if err := fixture.student.deleteVideo(collectionId, videoId); err != nil {
		t.Fatal(err)
	}
	if err := fixture.student.deleteVideo(collectionId, videoId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleting a missing video should 404, got %v", err)
	}

	if err := fixture.student.deleteVideoCollection(collectionId); err != nil {
		t.Fatal(err)
	}
	if _, err := fixture.student.videoCollectionInfo(collectionId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted collection should 404, got %v", err)
	}
}

func TestVideoCannotCrossCollections(t *testing.T) {
	env := setupTestEnv(t)

	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}

	collection1, err := fixture.student.createVideoCollection("one")
	if err != nil {
		t.Fatal(err)
	}
	collection2, err := fixture.student.createVideoCollection("two")
	if err != nil {
		t.Fatal(err)
	}

	videoId, err := fixture.student.addVideo(collection1, "clip", "https://example.com/v1")
	if err != nil {
		t.Fatal(err)
	}

	if err := fixture.student.deleteVideo(collection2, videoId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("video ids should not work across collections, got %v", err)
	}
}
