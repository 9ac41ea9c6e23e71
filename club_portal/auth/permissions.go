package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/utils"
	"gorm.io/gorm"
)

func AdminOnly(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if !user.IsAdmin() {
				http.Error(w, fmt.Sprintf("user %v is not an admin", user.Id), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

func isClubMember(clubId uuid.UUID, user *schema.User) bool {
	return user.ClubId != nil && *user.ClubId == clubId
}

// ClubMemberOnly restricts an endpoint with a {club_id} url parameter to
// members of that club, or admins.
func ClubMemberOnly(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			clubId, err := utils.URLParamUUID(r, "club_id")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if !user.IsAdmin() && !isClubMember(clubId, &user) {
				http.Error(w, "user must be a club member to access endpoint", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

type collectionPermission int // Private so that no other permissions can be defined

const (
	NoPermission     collectionPermission = 0
	ReadPermission   collectionPermission = 1
	ManagePermission collectionPermission = 2
)

func collectionPermissionToString(perm collectionPermission) string {
	switch perm {
	case NoPermission:
		return "None"
	case ReadPermission:
		return "Read"
	case ManagePermission:
		return "Manage"
	default:
		return "invalid permission"
	}
}

// GetCoachCollectionPermissions resolves the requester's permission on a coach
// media collection. Soft-deleted collections resolve to
// schema.ErrCoachCollectionNotFound for every requester, including the owner
// and admins. Managers are the owner, admins, and facility users in the
// owner's club; any user holding a share row may read.
func GetCoachCollectionPermissions(collectionId uuid.UUID, user schema.User, db *gorm.DB) (collectionPermission, error) {
	collection, err := schema.GetCoachCollection(collectionId, db, false, true)
	if err != nil {
		return NoPermission, err
	}

	if user.IsAdmin() {
		return ManagePermission, nil
	}

	if collection.OwnerId == user.Id {
		return ManagePermission, nil
	}

	if user.IsFacility() && collection.Owner != nil && schema.SameClub(&user, collection.Owner) {
		return ManagePermission, nil
	}

	_, err = schema.GetShare(collectionId, user.Id, db)
	if err != nil {
		if errors.Is(err, schema.ErrShareNotFound) {
			return NoPermission, nil
		}
		return NoPermission, err
	}

	return ReadPermission, nil
}

// CoachCollectionPermissionOnly guards endpoints with a {collection_id} url
// parameter behind the given minimum permission. Absent or deleted collections
// return 404 before any permission is evaluated.
func CoachCollectionPermissionOnly(db *gorm.DB, minPermission collectionPermission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			collectionId, err := utils.URLParamUUID(r, "collection_id")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			permission, err := GetCoachCollectionPermissions(collectionId, user, db)
			if err != nil {
				if errors.Is(err, schema.ErrCoachCollectionNotFound) {
					http.Error(w, err.Error(), http.StatusNotFound)
					return
				}
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if permission >= minPermission {
				next.ServeHTTP(w, r)
				return
			}

			required, actual := collectionPermissionToString(minPermission), collectionPermissionToString(permission)
			http.Error(w, fmt.Sprintf("user %v does not have required permission for collection %v (required=%v, actual=%v)", user.Id, collectionId, required, actual), http.StatusForbidden)
		}
		return http.HandlerFunc(hfn)
	}
}

// CanAccessVideoCollection is the narrow access rule for student video
// collections: the owner, the currently assigned coach, or an admin. No
// facility or club-mate exception.
func CanAccessVideoCollection(collection *schema.VideoCollection, user *schema.User) bool {
	if user.IsAdmin() {
		return true
	}
	if collection.OwnerId == user.Id {
		return true
	}
	return collection.AssignedCoachId != nil && *collection.AssignedCoachId == user.Id
}

// VideoCollectionAccessOnly guards endpoints with a {collection_id} url
// parameter to users that may access the video collection.
func VideoCollectionAccessOnly(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			collectionId, err := utils.URLParamUUID(r, "collection_id")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			collection, err := schema.GetVideoCollection(collectionId, db, false, false)
			if err != nil {
				if errors.Is(err, schema.ErrVideoCollectionNotFound) {
					http.Error(w, err.Error(), http.StatusNotFound)
					return
				}
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if !CanAccessVideoCollection(&collection, &user) {
				http.Error(w, fmt.Sprintf("user %v does not have access to collection %v", user.Id, collectionId), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
