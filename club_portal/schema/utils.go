package schema

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrClubNotFound            = errors.New("club not found")
	ErrVideoCollectionNotFound = errors.New("video collection not found")
	ErrVideoNotFound           = errors.New("video not found")
	ErrCoachCollectionNotFound = errors.New("coach media collection not found")
	ErrCoachMediaNotFound      = errors.New("coach media not found")
	ErrNoteNotFound            = errors.New("coaching note not found")
	ErrShareNotFound           = errors.New("collection share not found")
	ErrDbAccessFailed          = errors.New("db access failed")
)

func GetUser(userId uuid.UUID, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetUserByExternalId(externalId string, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "external_id = ?", externalId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user by external id", "external_id", externalId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetClub(clubId uuid.UUID, db *gorm.DB) (Club, error) {
	var club Club

	result := db.First(&club, "id = ?", clubId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return club, ErrClubNotFound
		}
		slog.Error("sql error in get club", "club_id", clubId, "error", result.Error)
		return club, ErrDbAccessFailed
	}

	return club, nil
}

func GetVideoCollection(collectionId uuid.UUID, db *gorm.DB, loadVideos, loadOwner bool) (VideoCollection, error) {
	var collection VideoCollection

	var result *gorm.DB = db
	if loadVideos {
		result = result.Preload("Videos")
	}
	if loadOwner {
		result = result.Preload("Owner")
	}
	result = result.First(&collection, "id = ?", collectionId)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return collection, ErrVideoCollectionNotFound
		}
		slog.Error("sql error in get video collection", "collection_id", collectionId, "error", result.Error)
		return collection, ErrDbAccessFailed
	}

	return collection, nil
}

func GetVideo(videoId uuid.UUID, db *gorm.DB) (Video, error) {
	var video Video

	result := db.First(&video, "id = ?", videoId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return video, ErrVideoNotFound
		}
		slog.Error("sql error in get video", "video_id", videoId, "error", result.Error)
		return video, ErrDbAccessFailed
	}

	return video, nil
}

// GetCoachCollection never returns a soft-deleted collection. Deleted
// collections are indistinguishable from absent ones, for every caller.
func GetCoachCollection(collectionId uuid.UUID, db *gorm.DB, loadMedia, loadOwner bool) (CoachMediaCollection, error) {
	var collection CoachMediaCollection

	var result *gorm.DB = db
	if loadMedia {
		result = result.Preload("Media", "is_deleted = ?", false)
	}
	if loadOwner {
		result = result.Preload("Owner")
	}
	result = result.First(&collection, "id = ? AND is_deleted = ?", collectionId, false)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return collection, ErrCoachCollectionNotFound
		}
		slog.Error("sql error in get coach collection", "collection_id", collectionId, "error", result.Error)
		return collection, ErrDbAccessFailed
	}

	return collection, nil
}

func GetCoachMedia(mediaId uuid.UUID, db *gorm.DB) (CoachMedia, error) {
	var media CoachMedia

	result := db.First(&media, "id = ? AND is_deleted = ?", mediaId, false)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return media, ErrCoachMediaNotFound
		}
		slog.Error("sql error in get coach media", "media_id", mediaId, "error", result.Error)
		return media, ErrDbAccessFailed
	}

	return media, nil
}

func GetShare(collectionId, userId uuid.UUID, db *gorm.DB) (CoachCollectionShare, error) {
	var share CoachCollectionShare

	result := db.First(&share, "collection_id = ? AND user_id = ?", collectionId, userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return share, ErrShareNotFound
		}
		slog.Error("sql error in get collection share", "collection_id", collectionId, "user_id", userId, "error", result.Error)
		return share, ErrDbAccessFailed
	}

	return share, nil
}

func GetNote(noteId uuid.UUID, db *gorm.DB) (MediaCoachNote, error) {
	var note MediaCoachNote

	result := db.First(&note, "id = ?", noteId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return note, ErrNoteNotFound
		}
		slog.Error("sql error in get coaching note", "note_id", noteId, "error", result.Error)
		return note, ErrDbAccessFailed
	}

	return note, nil
}
