package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/auth"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/utils"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/utils/logging"
	"gorm.io/gorm"
)

type VideoCollectionService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *VideoCollectionService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Post("/create", s.Create)
		r.Get("/list", s.List)

		r.Group(func(r chi.Router) {
			r.Use(auth.VideoCollectionAccessOnly(s.db))

			r.Get("/{collection_id}", s.Info)
			r.Delete("/{collection_id}", s.Delete)

			r.Post("/{collection_id}/videos", s.AddVideo)
			r.Delete("/{collection_id}/videos/{video_id}", s.DeleteVideo)

			r.Post("/{collection_id}/assign-coach", s.AssignCoach)

			r.Post("/{collection_id}/videos/{video_id}/notes", s.CreateNote)
			r.Get("/{collection_id}/videos/{video_id}/notes", s.ListNotes)
			r.Post("/{collection_id}/notes/{note_id}", s.UpdateNote)
			r.Delete("/{collection_id}/notes/{note_id}", s.DeleteNote)
		})
	})

	return r
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

type createCollectionResponse struct {
	CollectionId uuid.UUID `json:"collection_id"`
}

// Create makes a new video collection owned by the caller. Collections belong
// to students; admins may also create them for testing and support.
func (s *VideoCollectionService) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !user.IsStudent() && !user.IsAdmin() {
		http.Error(w, fmt.Sprintf("user %v cannot create a video collection", user.Id), http.StatusForbidden)
		return
	}

	var params createCollectionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "collection name must not be empty", http.StatusUnprocessableEntity)
		return
	}

	collection := schema.VideoCollection{
		Id:      uuid.New(),
		Name:    params.Name,
		OwnerId: user.Id,
	}

	result := s.db.Create(&collection)
	if result.Error != nil {
		slog.Error("sql error creating video collection", "owner_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error creating video collection: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, createCollectionResponse{CollectionId: collection.Id})
}

type VideoInfo struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Url   string    `json:"url"`
}

type VideoCollectionInfo struct {
	Id              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	OwnerId         uuid.UUID   `json:"owner_id"`
	OwnerUsername   string      `json:"owner_username,omitempty"`
	AssignedCoachId *uuid.UUID  `json:"assigned_coach_id"`
	Videos          []VideoInfo `json:"videos,omitempty"`
}

func convertToVideoCollectionInfo(collection *schema.VideoCollection) VideoCollectionInfo {
	info := VideoCollectionInfo{
		Id:              collection.Id,
		Name:            collection.Name,
		OwnerId:         collection.OwnerId,
		AssignedCoachId: collection.AssignedCoachId,
	}
	if collection.Owner != nil {
		info.OwnerUsername = collection.Owner.Username
	}
	for _, video := range collection.Videos {
		info.Videos = append(info.Videos, VideoInfo{Id: video.Id, Title: video.Title, Url: video.Url})
	}
	return info
}

// List returns the collections the caller owns plus those assigned to them for
// coaching. Admins see everything.
func (s *VideoCollectionService) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var collections []schema.VideoCollection
	query := s.db.Preload("Owner")
	if !user.IsAdmin() {
		query = query.Where("owner_id = ? OR assigned_coach_id = ?", user.Id, user.Id)
	}
	result := query.Find(&collections)
	if result.Error != nil {
		slog.Error("sql error listing video collections", "user_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing video collections: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]VideoCollectionInfo, 0, len(collections))
	for _, collection := range collections {
		infos = append(infos, convertToVideoCollectionInfo(&collection))
	}

	utils.WriteJsonResponse(w, infos)
}

func (s *VideoCollectionService) Info(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	collection, err := getVideoCollection(s.db, collectionId, true, true)
	if err != nil {
		http.Error(w, fmt.Sprintf("error getting video collection: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToVideoCollectionInfo(&collection))
}

func deleteVideoCollection(txn *gorm.DB, collectionId uuid.UUID) error {
	noteSubquery := txn.Model(&schema.Video{}).Select("id").Where("collection_id = ?", collectionId)
	if err := txn.Delete(&schema.MediaCoachNote{}, "video_id IN (?)", noteSubquery).Error; err != nil {
		slog.Error("sql error deleting collection notes", "collection_id", collectionId, "error", err)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	if err := txn.Delete(&schema.Video{}, "collection_id = ?", collectionId).Error; err != nil {
		slog.Error("sql error deleting collection videos", "collection_id", collectionId, "error", err)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	if err := txn.Delete(&schema.VideoCollection{Id: collectionId}).Error; err != nil {
		slog.Error("sql error deleting video collection", "collection_id", collectionId, "error", err)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	return nil
}

func (s *VideoCollectionService) Delete(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
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
		collection, err := getVideoCollection(txn, collectionId, false, false)
		if err != nil {
			return err
		}

		// Assigned coaches may view but never delete.
		if collection.OwnerId != user.Id && !user.IsAdmin() {
			return CodedError(fmt.Errorf("user %v cannot delete collection %v", user.Id, collectionId), http.StatusForbidden)
		}

		return deleteVideoCollection(txn, collectionId)
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting video collection: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type addVideoRequest struct {
	Title string `json:"title"`
	Url   string `json:"url"`
}

type addVideoResponse struct {
	VideoId uuid.UUID `json:"video_id"`
}

func validVideoUrl(rawUrl string) bool {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func (s *VideoCollectionService) AddVideo(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params addVideoRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Title == "" {
		http.Error(w, "video title must not be empty", http.StatusUnprocessableEntity)
		return
	}
	if !validVideoUrl(params.Url) {
		http.Error(w, fmt.Sprintf("invalid video url '%v'", params.Url), http.StatusUnprocessableEntity)
		return
	}

	video := schema.Video{
		Id:           uuid.New(),
		CollectionId: collectionId,
		Title:        params.Title,
		Url:          params.Url,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		collection, err := getVideoCollection(txn, collectionId, false, false)
		if err != nil {
			return err
		}

		if collection.OwnerId != user.Id && !user.IsAdmin() {
			return CodedError(fmt.Errorf("user %v cannot add videos to collection %v", user.Id, collectionId), http.StatusForbidden)
		}

		result := txn.Create(&video)
		if result.Error != nil {
			slog.Error("sql error adding video", "collection_id", collectionId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error adding video: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, addVideoResponse{VideoId: video.Id})
}

func (s *VideoCollectionService) DeleteVideo(w http.ResponseWriter, r *http.Request) {
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

	err = s.db.Transaction(func(txn *gorm.DB) error {
		collection, err := getVideoCollection(txn, collectionId, false, false)
		if err != nil {
			return err
		}

		if collection.OwnerId != user.Id && !user.IsAdmin() {
			return CodedError(fmt.Errorf("user %v cannot delete videos from collection %v", user.Id, collectionId), http.StatusForbidden)
		}

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

		if err := txn.Delete(&schema.MediaCoachNote{}, "video_id = ?", videoId).Error; err != nil {
			slog.Error("sql error deleting video notes", "video_id", videoId, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if err := txn.Delete(&schema.Video{Id: videoId}).Error; err != nil {
			slog.Error("sql error deleting video", "video_id", videoId, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting video: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type assignCoachRequest struct {
	CoachId *uuid.UUID `json:"coach_id"`
}

// AssignCoach sets the single coach assigned to a collection, replacing any
// previous assignment. A null coach id clears the assignment. The coach must
// exist, must be able to coach (coaches and admins can), and must be in the
// owner's club.
func (s *VideoCollectionService) AssignCoach(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params assignCoachRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		collection, err := getVideoCollection(txn, collectionId, false, true)
		if err != nil {
			return err
		}

		if collection.OwnerId != user.Id && !user.IsAdmin() {
			return CodedError(fmt.Errorf("user %v cannot assign a coach for collection %v", user.Id, collectionId), http.StatusForbidden)
		}

		if params.CoachId != nil {
			coach, err := schema.GetUser(*params.CoachId, txn)
			if err != nil {
				if errors.Is(err, schema.ErrUserNotFound) {
					return CodedError(fmt.Errorf("coach %v not found", *params.CoachId), http.StatusNotFound)
				}
				return CodedError(err, http.StatusInternalServerError)
			}
			if !coach.CanCoach() {
				return CodedError(fmt.Errorf("user %v is not a coach", coach.Id), http.StatusUnprocessableEntity)
			}
			if collection.Owner != nil && !schema.SameClub(collection.Owner, &coach) {
				return CodedError(fmt.Errorf("coach %v is not in the same club as the collection owner", coach.Id), http.StatusUnprocessableEntity)
			}
		}

		result := txn.Model(&schema.VideoCollection{Id: collectionId}).Update("assigned_coach_id", params.CoachId)
		if result.Error != nil {
			slog.Error("sql error assigning coach", "collection_id", collectionId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error assigning coach: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("updated coach assignment", "collection_id", collectionId, "coach_id", params.CoachId, "code", logging.COACH_ASSIGN)

	utils.WriteSuccess(w)
}
