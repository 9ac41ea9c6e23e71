package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/auth"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/utils"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/utils/logging"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CoachCollectionService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *CoachCollectionService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Post("/create", s.Create)
		r.Get("/list", s.List)

		r.Group(func(r chi.Router) {
			r.Use(auth.CoachCollectionPermissionOnly(s.db, auth.ReadPermission))

			r.Get("/{collection_id}", s.Info)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.CoachCollectionPermissionOnly(s.db, auth.ManagePermission))

			r.Post("/{collection_id}", s.Update)
			r.Delete("/{collection_id}", s.Delete)

			r.Post("/{collection_id}/media", s.AddMedia)
			r.Post("/{collection_id}/media/{media_id}", s.UpdateMedia)
			r.Delete("/{collection_id}/media/{media_id}", s.DeleteMedia)

			r.Get("/{collection_id}/shares", s.ListShares)
			r.Post("/{collection_id}/share/students", s.ShareWithStudents)
			r.Post("/{collection_id}/share/all-students", s.ShareWithAllStudents)
			r.Post("/{collection_id}/share/all-coaches", s.ShareWithAllCoaches)
			r.Delete("/{collection_id}/share/{user_id}", s.Unshare)
		})
	})

	return r
}

func validMediaType(mediaType string) bool {
	switch mediaType {
	case schema.UrlVideoMedia, schema.ImageMedia, schema.DocumentMedia:
		return true
	}
	return false
}

type createCoachCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MediaType   string `json:"media_type"`
}

func (s *CoachCollectionService) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !user.CanManageCoachContent() {
		http.Error(w, fmt.Sprintf("user %v cannot create a coach collection", user.Id), http.StatusForbidden)
		return
	}

	var params createCoachCollectionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "collection name must not be empty", http.StatusUnprocessableEntity)
		return
	}
	if !validMediaType(params.MediaType) {
		http.Error(w, fmt.Sprintf("invalid media type '%v'", params.MediaType), http.StatusUnprocessableEntity)
		return
	}

	collection := schema.CoachMediaCollection{
		Id:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		OwnerId:     user.Id,
		MediaType:   params.MediaType,
		SharingType: schema.ShareSpecificUsers,
	}

	result := s.db.Create(&collection)
	if result.Error != nil {
		slog.Error("sql error creating coach collection", "owner_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error creating coach collection: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	slog.Info("created coach collection", "collection_id", collection.Id, "owner_id", user.Id, "media_type", collection.MediaType, "code", logging.COLLECTION_CREATE)

	utils.WriteJsonResponse(w, createCollectionResponse{CollectionId: collection.Id})
}

type CoachMediaInfo struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Url   string    `json:"url"`
}

type CoachCollectionInfo struct {
	Id            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	OwnerId       uuid.UUID        `json:"owner_id"`
	OwnerUsername string           `json:"owner_username,omitempty"`
	MediaType     string           `json:"media_type"`
	SharingType   string           `json:"sharing_type"`
	Media         []CoachMediaInfo `json:"media,omitempty"`
}

func convertToCoachCollectionInfo(collection *schema.CoachMediaCollection) CoachCollectionInfo {
	info := CoachCollectionInfo{
		Id:          collection.Id,
		Name:        collection.Name,
		Description: collection.Description,
		OwnerId:     collection.OwnerId,
		MediaType:   collection.MediaType,
		SharingType: collection.SharingType,
	}
	if collection.Owner != nil {
		info.OwnerUsername = collection.Owner.Username
	}
	for _, media := range collection.Media {
		info.Media = append(info.Media, CoachMediaInfo{Id: media.Id, Title: media.Title, Url: media.Url})
	}
	return info
}

// List returns the non-deleted collections visible to the caller: everything
// for admins, club coach content for facility users, owned collections, and
// collections shared with the caller.
func (s *CoachCollectionService) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	query := s.db.Preload("Owner").Where("is_deleted = ?", false)
	switch {
	case user.IsAdmin():
		// No extra filter.
	case user.IsFacility() && user.ClubId != nil:
		ownerSubquery := s.db.Model(&schema.User{}).Select("id").Where("club_id = ?", *user.ClubId)
		query = query.Where("owner_id = ? OR owner_id IN (?)", user.Id, ownerSubquery)
	default:
		shareSubquery := s.db.Model(&schema.CoachCollectionShare{}).Select("collection_id").Where("user_id = ?", user.Id)
		query = query.Where("owner_id = ? OR id IN (?)", user.Id, shareSubquery)
	}

	var collections []schema.CoachMediaCollection
	result := query.Find(&collections)
	if result.Error != nil {
		slog.Error("sql error listing coach collections", "user_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing coach collections: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]CoachCollectionInfo, 0, len(collections))
	for _, collection := range collections {
		infos = append(infos, convertToCoachCollectionInfo(&collection))
	}

	utils.WriteJsonResponse(w, infos)
}

func (s *CoachCollectionService) Info(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	collection, err := getCoachCollection(s.db, collectionId, true, true)
	if err != nil {
		http.Error(w, fmt.Sprintf("error getting coach collection: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToCoachCollectionInfo(&collection))
}

type updateCoachCollectionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *CoachCollectionService) Update(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params updateCoachCollectionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	updates := map[string]interface{}{}
	if params.Name != nil {
		if *params.Name == "" {
			http.Error(w, "collection name must not be empty", http.StatusUnprocessableEntity)
			return
		}
		updates["name"] = *params.Name
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if len(updates) == 0 {
		utils.WriteSuccess(w)
		return
	}

	result := s.db.Model(&schema.CoachMediaCollection{Id: collectionId}).Updates(updates)
	if result.Error != nil {
		slog.Error("sql error updating coach collection", "collection_id", collectionId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error updating coach collection: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteSuccess(w)
}

// softDeleteCoachCollection marks the collection deleted and purges its share
// rows so revoked access cannot linger behind the tombstone.
func softDeleteCoachCollection(txn *gorm.DB, collectionId uuid.UUID) error {
	now := time.Now().UTC()
	result := txn.Model(&schema.CoachMediaCollection{Id: collectionId}).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": &now})
	if result.Error != nil {
		slog.Error("sql error soft deleting coach collection", "collection_id", collectionId, "error", result.Error)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}

	if err := txn.Delete(&schema.CoachCollectionShare{}, "collection_id = ?", collectionId).Error; err != nil {
		slog.Error("sql error purging collection shares", "collection_id", collectionId, "error", err)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}

	return nil
}

func (s *CoachCollectionService) Delete(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		return softDeleteCoachCollection(txn, collectionId)
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting coach collection: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("deleted coach collection", "collection_id", collectionId, "code", logging.COLLECTION_DELETE)

	utils.WriteSuccess(w)
}

type addMediaRequest struct {
	Title string `json:"title"`
	Url   string `json:"url"`
}

type addMediaResponse struct {
	MediaId uuid.UUID `json:"media_id"`
}

func (s *CoachCollectionService) AddMedia(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params addMediaRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if !validVideoUrl(params.Url) {
		http.Error(w, fmt.Sprintf("invalid media url '%v'", params.Url), http.StatusUnprocessableEntity)
		return
	}

	media := schema.CoachMedia{
		Id:           uuid.New(),
		CollectionId: collectionId,
		Title:        params.Title,
		Url:          params.Url,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		collection, err := getCoachCollection(txn, collectionId, false, false)
		if err != nil {
			return err
		}

		if collection.MediaType == schema.UrlVideoMedia {
			var count int64
			result := txn.Model(&schema.CoachMedia{}).
				Where("collection_id = ? AND is_deleted = ?", collectionId, false).
				Count(&count)
			if result.Error != nil {
				slog.Error("sql error counting collection media", "collection_id", collectionId, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
			if count >= schema.UrlVideoMediaLimit {
				return CodedError(fmt.Errorf("collection %v already has the maximum of %d videos", collectionId, schema.UrlVideoMediaLimit), http.StatusUnprocessableEntity)
			}
		}

		result := txn.Create(&media)
		if result.Error != nil {
			slog.Error("sql error adding media", "collection_id", collectionId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error adding media: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, addMediaResponse{MediaId: media.Id})
}

// getMediaInCollection loads a non-deleted media item and checks it belongs to
// the collection the request was authorized for.
func getMediaInCollection(txn *gorm.DB, collectionId, mediaId uuid.UUID) (schema.CoachMedia, error) {
	media, err := schema.GetCoachMedia(mediaId, txn)
	if err != nil {
		if errors.Is(err, schema.ErrCoachMediaNotFound) {
			return media, CodedError(err, http.StatusNotFound)
		}
		return media, CodedError(err, http.StatusInternalServerError)
	}
	if media.CollectionId != collectionId {
		return media, CodedError(schema.ErrCoachMediaNotFound, http.StatusNotFound)
	}
	return media, nil
}

type updateMediaRequest struct {
	Title *string `json:"title"`
	Url   *string `json:"url"`
}

func (s *CoachCollectionService) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mediaId, err := utils.URLParamUUID(r, "media_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params updateMediaRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	updates := map[string]interface{}{}
	if params.Title != nil {
		updates["title"] = *params.Title
	}
	if params.Url != nil {
		if !validVideoUrl(*params.Url) {
			http.Error(w, fmt.Sprintf("invalid media url '%v'", *params.Url), http.StatusUnprocessableEntity)
			return
		}
		updates["url"] = *params.Url
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := getMediaInCollection(txn, collectionId, mediaId); err != nil {
			return err
		}

		if len(updates) == 0 {
			return nil
		}

		result := txn.Model(&schema.CoachMedia{Id: mediaId}).Updates(updates)
		if result.Error != nil {
			slog.Error("sql error updating media", "media_id", mediaId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating media: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *CoachCollectionService) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mediaId, err := utils.URLParamUUID(r, "media_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := getMediaInCollection(txn, collectionId, mediaId); err != nil {
			return err
		}

		now := time.Now().UTC()
		result := txn.Model(&schema.CoachMedia{Id: mediaId}).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": &now})
		if result.Error != nil {
			slog.Error("sql error soft deleting media", "media_id", mediaId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting media: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type ShareInfo struct {
	UserId   uuid.UUID `json:"user_id"`
	Username string    `json:"username,omitempty"`
	UserType string    `json:"user_type,omitempty"`
}

func (s *CoachCollectionService) ListShares(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var shares []schema.CoachCollectionShare
	result := s.db.Preload("User").Where("collection_id = ?", collectionId).Find(&shares)
	if result.Error != nil {
		slog.Error("sql error listing shares", "collection_id", collectionId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing shares: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]ShareInfo, 0, len(shares))
	for _, share := range shares {
		info := ShareInfo{UserId: share.UserId}
		if share.User != nil {
			info.Username = share.User.Username
			info.UserType = share.User.UserType
		}
		infos = append(infos, info)
	}

	utils.WriteJsonResponse(w, infos)
}

func insertShares(txn *gorm.DB, collectionId uuid.UUID, userIds []uuid.UUID) error {
	if len(userIds) == 0 {
		return nil
	}
	shares := make([]schema.CoachCollectionShare, 0, len(userIds))
	for _, userId := range userIds {
		shares = append(shares, schema.CoachCollectionShare{CollectionId: collectionId, UserId: userId})
	}
	result := txn.Clauses(clause.OnConflict{DoNothing: true}).Create(&shares)
	if result.Error != nil {
		slog.Error("sql error inserting shares", "collection_id", collectionId, "error", result.Error)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	return nil
}

func setSharingType(txn *gorm.DB, collectionId uuid.UUID, sharingType string) error {
	result := txn.Model(&schema.CoachMediaCollection{Id: collectionId}).Update("sharing_type", sharingType)
	if result.Error != nil {
		slog.Error("sql error updating sharing type", "collection_id", collectionId, "error", result.Error)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	return nil
}

type shareWithStudentsRequest struct {
	UserIds []uuid.UUID `json:"user_ids"`
}

// ShareWithStudents replaces the share set with the given students. Validation
// is all or nothing: every target must exist, be a student, and be in the
// owner's club, or no share changes at all. An empty target list is rejected;
// revoking access goes through Unshare.
func (s *CoachCollectionService) ShareWithStudents(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params shareWithStudentsRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if len(params.UserIds) == 0 {
		http.Error(w, "share target list must not be empty", http.StatusUnprocessableEntity)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		collection, err := getCoachCollection(txn, collectionId, false, true)
		if err != nil {
			return err
		}

		for _, userId := range params.UserIds {
			target, err := schema.GetUser(userId, txn)
			if err != nil {
				if errors.Is(err, schema.ErrUserNotFound) {
					return CodedError(fmt.Errorf("share target %v not found", userId), http.StatusUnprocessableEntity)
				}
				return CodedError(err, http.StatusInternalServerError)
			}
			if !target.IsStudent() {
				return CodedError(fmt.Errorf("share target %v is not a student", userId), http.StatusUnprocessableEntity)
			}
			if collection.Owner != nil && !schema.SameClub(collection.Owner, &target) {
				return CodedError(fmt.Errorf("share target %v is not in the owner's club", userId), http.StatusUnprocessableEntity)
			}
		}

		if err := txn.Delete(&schema.CoachCollectionShare{}, "collection_id = ?", collectionId).Error; err != nil {
			slog.Error("sql error clearing shares", "collection_id", collectionId, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		if err := insertShares(txn, collectionId, params.UserIds); err != nil {
			return err
		}

		return setSharingType(txn, collectionId, schema.ShareSpecificUsers)
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error sharing collection: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("shared coach collection", "collection_id", collectionId, "sharing_type", schema.ShareSpecificUsers, "targets", len(params.UserIds), "code", logging.COLLECTION_SHARE)

	utils.WriteSuccess(w)
}

// shareWithClubRole grants read access to every current club member with the
// given role. The grant is a snapshot: users joining the club later are not
// added retroactively. Existing share rows are kept.
func (s *CoachCollectionService) shareWithClubRole(w http.ResponseWriter, r *http.Request, role, sharingType string) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		collection, err := getCoachCollection(txn, collectionId, false, true)
		if err != nil {
			return err
		}

		if collection.Owner == nil || collection.Owner.ClubId == nil {
			return CodedError(errors.New("collection owner is not in a club"), http.StatusUnprocessableEntity)
		}

		var members []schema.User
		result := txn.Where("club_id = ? AND user_type = ?", *collection.Owner.ClubId, role).Find(&members)
		if result.Error != nil {
			slog.Error("sql error listing club members", "club_id", *collection.Owner.ClubId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		userIds := make([]uuid.UUID, 0, len(members))
		for _, member := range members {
			if member.Id == collection.OwnerId {
				continue
			}
			userIds = append(userIds, member.Id)
		}

		if err := insertShares(txn, collectionId, userIds); err != nil {
			return err
		}

		return setSharingType(txn, collectionId, sharingType)
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error sharing collection: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("shared coach collection", "collection_id", collectionId, "sharing_type", sharingType, "code", logging.COLLECTION_SHARE)

	utils.WriteSuccess(w)
}

func (s *CoachCollectionService) ShareWithAllStudents(w http.ResponseWriter, r *http.Request) {
	s.shareWithClubRole(w, r, schema.StudentUser, schema.ShareAllStudents)
}

func (s *CoachCollectionService) ShareWithAllCoaches(w http.ResponseWriter, r *http.Request) {
	s.shareWithClubRole(w, r, schema.CoachUser, schema.ShareAllCoaches)
}

func (s *CoachCollectionService) Unshare(w http.ResponseWriter, r *http.Request) {
	collectionId, err := utils.URLParamUUID(r, "collection_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetShare(collectionId, userId, txn); err != nil {
			if errors.Is(err, schema.ErrShareNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		result := txn.Delete(&schema.CoachCollectionShare{CollectionId: collectionId, UserId: userId})
		if result.Error != nil {
			slog.Error("sql error deleting share", "collection_id", collectionId, "user_id", userId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error unsharing collection: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}
