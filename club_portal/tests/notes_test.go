package tests

import (
	"errors"
	"strings"
	"testing"
)

type notesFixture struct {
	clubFixture
	collectionId string
	videoId      string
}

func setupNotesFixture(t *testing.T, env *testEnv) notesFixture {
	fixture, err := env.setupClub("club1")
	if err != nil {
		t.Fatal(err)
	}

	collectionId, err := fixture.student.createVideoCollection("drop shots")
	if err != nil {
		t.Fatal(err)
	}
	if err := fixture.student.assignCoach(collectionId, &fixture.coach.userId); err != nil {
		t.Fatal(err)
	}

	videoId, err := fixture.student.addVideo(collectionId, "session 1", "https://example.com/v1")
	if err != nil {
		t.Fatal(err)
	}

	return notesFixture{clubFixture: fixture, collectionId: collectionId, videoId: videoId}
}

func TestCoachingNotes(t *testing.T) {
	env := setupTestEnv(t)
	fixture := setupNotesFixture(t, env)

	// Students can see notes but never write them.
	if _, err := fixture.student.createNote(fixture.collectionId, fixture.videoId, "my own note"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("students should not create notes, got %v", err)
	}

	noteId, err := fixture.coach.createNote(fixture.collectionId, fixture.videoId, "racket prep is late")
	if err != nil {
		t.Fatal(err)
	}

	notes, err := fixture.student.listNotes(fixture.collectionId, fixture.videoId)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Content != "racket prep is late" {
		t.Fatalf("incorrect notes returned: %+v", notes)
	}
	if notes[0].AuthorUsername != "club1_coach" {
		t.Fatalf("note author missing: %+v", notes[0])
	}

	if err := fixture.coach.updateNote(fixture.collectionId, noteId, "racket prep is improving"); err != nil {
		t.Fatal(err)
	}

	// The student has access to the video but is not the author.
	if err := fixture.student.updateNote(fixture.collectionId, noteId, "hijacked"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non authors should not update notes, got %v", err)
	}
	if err := fixture.student.deleteNote(fixture.collectionId, noteId); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non authors should not delete notes, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.deleteNote(fixture.collectionId, noteId); err != nil {
		t.Fatal(err)
	}

	notes, err = fixture.coach.listNotes(fixture.collectionId, fixture.videoId)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 0 {
		t.Fatalf("note should be deleted, got %+v", notes)
	}
}

func TestNoteContentValidation(t *testing.T) {
	env := setupTestEnv(t)
	fixture := setupNotesFixture(t, env)

	if _, err := fixture.coach.createNote(fixture.collectionId, fixture.videoId, ""); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("empty note should be rejected, got %v", err)
	}
	if _, err := fixture.coach.createNote(fixture.collectionId, fixture.videoId, "   \n\t "); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("whitespace only note should be rejected, got %v", err)
	}

	atLimit := strings.Repeat("a", 2000)
	if _, err := fixture.coach.createNote(fixture.collectionId, fixture.videoId, atLimit); err != nil {
		t.Fatal(err)
	}

	overLimit := strings.Repeat("a", 2001)
	if _, err := fixture.coach.createNote(fixture.collectionId, fixture.videoId, overLimit); !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("over length note should be rejected, got %v", err)
	}

	// Length is counted in characters, not bytes.
	multibyte := strings.Repeat("å", 2000)
	noteId, err := fixture.coach.createNote(fixture.collectionId, fixture.videoId, multibyte)
	if err != nil {
		t.Fatal(err)
	}

	// Content is stored trimmed.
	if err := fixture.coach.updateNote(fixture.collectionId, noteId, "  trimmed  "); err != nil {
		t.Fatal(err)
	}
	notes, err := fixture.coach.listNotes(fixture.collectionId, fixture.videoId)
	if err != nil {
		t.Fatal(err)
	}
	for _, note := range notes {
		if note.Id.String() == noteId && note.Content != "trimmed" {
			t.Fatalf("note content should be trimmed, got '%v'", note.Content)
		}
	}
}

func TestNotesScopedToCollection(t *testing.T) {
	env := setupTestEnv(t)
	fixture := setupNotesFixture(t, env)

	noteId, err := fixture.coach.createNote(fixture.collectionId, fixture.videoId, "keep the shuttle low")
	if err != nil {
		t.Fatal(err)
	}

	otherCollection, err := fixture.student.createVideoCollection("other")
	if err != nil {
		t.Fatal(err)
	}

	if err := fixture.student.assignCoach(otherCollection, &fixture.coach.userId); err != nil {
		t.Fatal(err)
	}

	if err := fixture.coach.updateNote(otherCollection, noteId, "edited"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("note ids should not work across collections, got %v", err)
	}
}
