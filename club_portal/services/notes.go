package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/auth"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/utils"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/utils/logging"
	"gorm.io/gorm"
)

type createNoteRequest struct {
	Content string `json:"content"`
}

type createNoteResponse struct {
	NoteId uuid.UUID `json:"note_id"`
}

// CreateNote attaches a coaching note to a video. Only coaches and admins
// write notes; the collection access middleware has already checked that the
// caller can see the video.
func (s *VideoCollectionService) CreateNote(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	videoId, err := utils.URLParamUUID(r, "video_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !user.CanCoach() {
		http.Error(w, fmt.Sprintf("user %v cannot write coaching notes", user.Id), http.StatusForbidden)
		return
	}

	var params createNoteRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	content, err := validateNoteContent(params.Content)
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating note: %v", err), GetResponseCode(err))
		return
	}

	note := schema.MediaCoachNote{
		Id:        uuid.New(),
		VideoId:   videoId,
		AuthorId:  user.Id,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		video, err := schema.GetVideo(videoId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrVideoNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}
		if video.CollectionId != collectionId {
			return CodedError(schema.ErrVideoNotFound, http.StatusNotFound)
		}

		result := txn.Create(&note)
		if result.Error != nil {
			slog.Error("sql error creating note", "video_id", videoId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating note: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("created coaching note", "note_id", note.Id, "video_id", videoId, "author_id", user.Id, "code", logging.NOTE_WRITE)

	utils.WriteJsonResponse(w, createNoteResponse{NoteId: note.Id})
}

type NoteInfo struct {
	Id             uuid.UUID `json:"id"`
	VideoId        uuid.UUID `json:"video_id"`
	AuthorId       uuid.UUID `json:"author_id"`
	AuthorUsername string    `json:"author_username,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func convertToNoteInfo(note *schema.MediaCoachNote) NoteInfo {
	info := NoteInfo{
		Id:        note.Id,
		VideoId:   note.VideoId,
		AuthorId:  note.AuthorId,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
	if note.Author != nil {
		info.AuthorUsername = note.Author.Username
	}
	return info
}

func (s *VideoCollectionService) ListNotes(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	videoId, err := utils.URLParamUUID(r, "video_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	video, err := schema.GetVideo(videoId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrVideoNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if video.CollectionId != collectionId {
		http.Error(w, schema.ErrVideoNotFound.Error(), http.StatusNotFound)
		return
	}

	var notes []schema.MediaCoachNote
	result := s.db.Preload("Author").Where("video_id = ?", videoId).Order("created_at asc").Find(&notes)
	if result.Error != nil {
		slog.Error("sql error listing notes", "video_id", videoId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing notes: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]NoteInfo, 0, len(notes))
	for _, note := range notes {
		infos = append(infos, convertToNoteInfo(&note))
	}

	utils.WriteJsonResponse(w, infos)
}

// getNoteInCollection loads a note and checks that it belongs to a video of
// the given collection, so note ids cannot be used across collection
// boundaries.
func getNoteInCollection(txn *gorm.DB, collectionId, noteId uuid.UUID) (schema.MediaCoachNote, error) {
	note, err := schema.GetNote(noteId, txn)
	if err != nil {
		if errors.Is(err, schema.ErrNoteNotFound) {
			return note, CodedError(err, http.StatusNotFound)
		}
		return note, CodedError(err, http.StatusInternalServerError)
	}

	video, err := schema.GetVideo(note.VideoId, txn)
	if err != nil {
		if errors.Is(err, schema.ErrVideoNotFound) {
			return note, CodedError(schema.ErrNoteNotFound, http.StatusNotFound)
		}
		return note, CodedError(err, http.StatusInternalServerError)
	}
	if video.CollectionId != collectionId {
		return note, CodedError(schema.ErrNoteNotFound, http.StatusNotFound)
	}

	return note, nil
}

type updateNoteRequest struct {
	Content string `json:"content"`
}

func (s *VideoCollectionService) UpdateNote(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	noteId, err := utils.URLParamUUID(r, "note_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params updateNoteRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	content, err := validateNoteContent(params.Content)
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating note: %v", err), GetResponseCode(err))
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		note, err := getNoteInCollection(txn, collectionId, noteId)
		if err != nil {
			return err
		}

		if note.AuthorId != user.Id && !user.IsAdmin() {
			return CodedError(fmt.Errorf("user %v is not the author of note %v", user.Id, noteId), http.StatusForbidden)
		}

		result := txn.Model(&schema.MediaCoachNote{Id: noteId}).
			Updates(map[string]interface{}{"content": content, "updated_at": time.Now().UTC()})
		if result.Error != nil {
			slog.Error("sql error updating note", "note_id", noteId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating note: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *VideoCollectionService) DeleteNote(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	noteId, err := utils.URLParamUUID(r, "note_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		note, err := getNoteInCollection(txn, collectionId, noteId)
		if err != nil {
			return err
		}

		if note.AuthorId != user.Id && !user.IsAdmin() {
			return CodedError(fmt.Errorf("user %v is not the author of note %v", user.Id, noteId), http.StatusForbidden)
		}

		if err := txn.Delete(&schema.MediaCoachNote{Id: noteId}).Error; err != nil {
			slog.Error("sql error deleting note", "note_id", noteId, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting note: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}
