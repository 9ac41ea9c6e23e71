package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"gorm.io/gorm"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

func checkUserExists(txn *gorm.DB, userId uuid.UUID) error {
	if _, err := schema.GetUser(userId, txn); err != nil {
		if errors.Is(err, schema.ErrUserNotFound) {
			return CodedError(err, http.StatusNotFound)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

func checkClubExists(txn *gorm.DB, clubId uuid.UUID) error {
	if _, err := schema.GetClub(clubId, txn); err != nil {
		if errors.Is(err, schema.ErrClubNotFound) {
			return CodedError(err, http.StatusNotFound)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

func getVideoCollection(txn *gorm.DB, collectionId uuid.UUID, loadVideos, loadOwner bool) (schema.VideoCollection, error) {
	collection, err := schema.GetVideoCollection(collectionId, txn, loadVideos, loadOwner)
	if err != nil {
		if errors.Is(err, schema.ErrVideoCollectionNotFound) {
			return collection, CodedError(err, http.StatusNotFound)
		}
		return collection, CodedError(err, http.StatusInternalServerError)
	}
	return collection, nil
}

func getCoachCollection(txn *gorm.DB, collectionId uuid.UUID, loadMedia, loadOwner bool) (schema.CoachMediaCollection, error) {
	collection, err := schema.GetCoachCollection(collectionId, txn, loadMedia, loadOwner)
	if err != nil {
		if errors.Is(err, schema.ErrCoachCollectionNotFound) {
			return collection, CodedError(err, http.StatusNotFound)
		}
		return collection, CodedError(err, http.StatusInternalServerError)
	}
	return collection, nil
}

// validateNoteContent applies the coaching note content rules: non-empty after
// trimming and at most schema.MaxNoteLength characters. Returns the trimmed
// content.
func validateNoteContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", CodedError(errors.New("note content must not be empty"), http.StatusUnprocessableEntity)
	}
	if utf8.RuneCountInString(trimmed) > schema.MaxNoteLength {
		return "", CodedError(fmt.Errorf("note content must be at most %d characters", schema.MaxNoteLength), http.StatusUnprocessableEntity)
	}
	return trimmed, nil
}

// decodeImageUpload decodes a base64 image payload and enforces the byte cap
// before anything is stored.
func decodeImageUpload(imageBase64, mimeType string, maxBytes int) ([]byte, error) {
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		return nil, CodedError(fmt.Errorf("invalid image content type '%v'", mimeType), http.StatusUnprocessableEntity)
	}

	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, CodedError(fmt.Errorf("invalid base64 image data: %v", err), http.StatusBadRequest)
	}
	if len(data) == 0 {
		return nil, CodedError(errors.New("image data must not be empty"), http.StatusUnprocessableEntity)
	}
	if len(data) > maxBytes {
		return nil, CodedError(fmt.Errorf("image exceeds maximum size of %d bytes", maxBytes), http.StatusUnprocessableEntity)
	}

	return data, nil
}
