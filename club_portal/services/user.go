package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/auth"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/utils"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if s.userAuth.AllowDirectSignup() {
			r.Post("/signup", s.Signup)
		}

		r.Get("/login", s.LoginWithEmail)
		r.Post("/login-with-token", s.LoginWithToken)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/info", s.Info)
		r.Get("/list", s.List)
		r.Get("/coaches", s.Coaches)
		r.Get("/{user_id}/profile", s.Profile)

		r.Post("/profile", s.UpdateProfile)
		r.Post("/profile/image", s.UploadProfileImage)
		r.Post("/profile/header", s.UploadHeaderImage)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Post("/create", s.CreateUser)
		r.Delete("/{user_id}", s.DeleteUser)
		r.Post("/{user_id}/type", s.SetUserType)
		r.Post("/{user_id}/club", s.SetUserClub)
	})

	return r
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	UserId uuid.UUID `json:"user_id"`
}

func (s *UserService) Signup(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if !s.userAuth.AllowDirectSignup() {
		http.Error(w, "direct signup is not supported for this identity provider", http.StatusBadRequest)
		return
	}

	userId, err := s.userAuth.CreateUser(params.Username, params.Email, params.Password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse):
			responseCode = http.StatusConflict
		case errors.Is(err, auth.ErrUsernameAlreadyInUse):
			responseCode = http.StatusConflict
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	utils.WriteJsonResponse(w, signupResponse{UserId: userId})
}

type loginResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
}

func (s *UserService) LoginWithEmail(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
		return
	}

	login, err := s.userAuth.LoginWithEmail(email, password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrUserNotFoundWithEmail):
			responseCode = http.StatusNotFound
		case errors.Is(err, auth.ErrInvalidCredentials):
			responseCode = http.StatusUnauthorized
		}
		http.Error(w, fmt.Sprintf("login failed: %v", err), responseCode)
		return
	}

	utils.WriteJsonResponse(w, loginResponse{UserId: login.UserId, AccessToken: login.AccessToken})
}

type loginWithTokenRequest struct {
	AccessToken string `json:"access_token"`
}

func (s *UserService) LoginWithToken(w http.ResponseWriter, r *http.Request) {
	var params loginWithTokenRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	login, err := s.userAuth.LoginWithToken(params.AccessToken)
	if err != nil {
		http.Error(w, fmt.Sprintf("login failed: %v", err), http.StatusUnauthorized)
		return
	}

	utils.WriteJsonResponse(w, loginResponse{UserId: login.UserId, AccessToken: login.AccessToken})
}

type UserInfo struct {
	Id       uuid.UUID  `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	UserType string     `json:"user_type"`
	ClubId   *uuid.UUID `json:"club_id"`
	ClubName string     `json:"club_name,omitempty"`
}

func convertToUserInfo(user *schema.User) UserInfo {
	info := UserInfo{
		Id:       user.Id,
		Username: user.Username,
		Email:    user.Email,
		UserType: user.UserType,
		ClubId:   user.ClubId,
	}
	if user.Club != nil {
		info.ClubName = user.Club.Name
	}
	return info
}

func (s *UserService) Info(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var userWithClub schema.User
	result := s.db.Preload("Club").First(&userWithClub, "id = ?", user.Id)
	if result.Error != nil {
		slog.Error("sql error loading user info", "user_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error getting user info: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertToUserInfo(&userWithClub))
}

func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var users []schema.User
	var result *gorm.DB
	if user.IsAdmin() {
		result = s.db.Preload("Club").Find(&users)
	} else if user.ClubId != nil {
		result = s.db.Preload("Club").Where("club_id = ?", *user.ClubId).Find(&users)
	} else {
		users = []schema.User{user}
	}

	if result != nil && result.Error != nil {
		slog.Error("sql error listing users", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing users: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, convertToUserInfo(&u))
	}
	utils.WriteJsonResponse(w, infos)
}

type CoachInfo struct {
	UserId          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	Bio             string    `json:"bio"`
	YearsExperience int       `json:"years_experience"`
	ProfileImage    string    `json:"profile_image,omitempty"`
}

// Coaches lists the coach profiles in the caller's club, for coach discovery.
func (s *UserService) Coaches(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if user.ClubId == nil {
		utils.WriteJsonResponse(w, []CoachInfo{})
		return
	}

	var coaches []schema.User
	result := s.db.Preload("CoachProfile").
		Where("club_id = ? AND user_type = ?", *user.ClubId, schema.CoachUser).
		Find(&coaches)
	if result.Error != nil {
		slog.Error("sql error listing coaches", "club_id", *user.ClubId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing coaches: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]CoachInfo, 0, len(coaches))
	for _, coach := range coaches {
		info := CoachInfo{UserId: coach.Id, Username: coach.Username}
		if coach.CoachProfile != nil {
			info.Bio = coach.CoachProfile.Bio
			info.YearsExperience = coach.CoachProfile.YearsExperience
			if len(coach.CoachProfile.ProfileImage) > 0 {
				info.ProfileImage = utils.DataUrl(coach.CoachProfile.ProfileImageType, coach.CoachProfile.ProfileImage)
			}
		}
		infos = append(infos, info)
	}

	utils.WriteJsonResponse(w, infos)
}

type ProfileResponse struct {
	UserInfo

	SkillLevel  string `json:"skill_level,omitempty"`
	Goals       string `json:"goals,omitempty"`
	HeaderImage string `json:"header_image,omitempty"`

	Bio             string `json:"bio,omitempty"`
	YearsExperience int    `json:"years_experience,omitempty"`
	ProfileImage    string `json:"profile_image,omitempty"`
}

func (s *UserService) Profile(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var user schema.User
	result := s.db.Preload("Club").Preload("StudentProfile").Preload("CoachProfile").First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			http.Error(w, schema.ErrUserNotFound.Error(), http.StatusNotFound)
			return
		}
		slog.Error("sql error loading profile", "user_id", userId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error getting profile: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	res := ProfileResponse{UserInfo: convertToUserInfo(&user)}
	if user.StudentProfile != nil {
		res.SkillLevel = user.StudentProfile.SkillLevel
		res.Goals = user.StudentProfile.Goals
		if len(user.StudentProfile.HeaderImage) > 0 {
			res.HeaderImage = utils.DataUrl(user.StudentProfile.HeaderImageType, user.StudentProfile.HeaderImage)
		}
	}
	if user.CoachProfile != nil {
		res.Bio = user.CoachProfile.Bio
		res.YearsExperience = user.CoachProfile.YearsExperience
		if len(user.CoachProfile.ProfileImage) > 0 {
			res.ProfileImage = utils.DataUrl(user.CoachProfile.ProfileImageType, user.CoachProfile.ProfileImage)
		}
	}

	utils.WriteJsonResponse(w, res)
}

type updateProfileRequest struct {
	SkillLevel *string `json:"skill_level"`
	Goals      *string `json:"goals"`

	Bio             *string `json:"bio"`
	YearsExperience *int    `json:"years_experience"`
}

func (s *UserService) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params updateProfileRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if params.SkillLevel != nil || params.Goals != nil {
			if !user.IsStudent() && !user.IsAdmin() {
				return CodedError(errors.New("only students can update a student profile"), http.StatusForbidden)
			}
			updates := map[string]interface{}{}
			if params.SkillLevel != nil {
				updates["skill_level"] = *params.SkillLevel
			}
			if params.Goals != nil {
				updates["goals"] = *params.Goals
			}
			result := txn.Model(&schema.StudentProfile{UserId: user.Id}).Updates(updates)
			if result.Error != nil {
				slog.Error("sql error updating student profile", "user_id", user.Id, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
		}

		if params.Bio != nil || params.YearsExperience != nil {
			if !user.CanCoach() {
				return CodedError(errors.New("only coaches can update a coach profile"), http.StatusForbidden)
			}
			updates := map[string]interface{}{}
			if params.Bio != nil {
				updates["bio"] = *params.Bio
			}
			if params.YearsExperience != nil {
				updates["years_experience"] = *params.YearsExperience
			}
			result := txn.Model(&schema.CoachProfile{UserId: user.Id}).Updates(updates)
			if result.Error != nil {
				slog.Error("sql error updating coach profile", "user_id", user.Id, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating profile: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type imageUploadRequest struct {
	Image       string `json:"image"`
	ContentType string `json:"content_type"`
}

func (s *UserService) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !user.CanCoach() {
		http.Error(w, "only coaches can upload a coach profile image", http.StatusForbidden)
		return
	}

	var params imageUploadRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	data, err := decodeImageUpload(params.Image, params.ContentType, schema.MaxProfileImageBytes)
	if err != nil {
		http.Error(w, fmt.Sprintf("error uploading profile image: %v", err), GetResponseCode(err))
		return
	}

	result := s.db.Model(&schema.CoachProfile{UserId: user.Id}).
		Updates(map[string]interface{}{"profile_image": data, "profile_image_type": params.ContentType})
	if result.Error != nil {
		slog.Error("sql error storing profile image", "user_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error uploading profile image: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteSuccess(w)
}

func (s *UserService) UploadHeaderImage(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !user.IsStudent() && !user.IsAdmin() {
		http.Error(w, "only students can upload a header image", http.StatusForbidden)
		return
	}

	var params imageUploadRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	data, err := decodeImageUpload(params.Image, params.ContentType, schema.MaxHeaderImageBytes)
	if err != nil {
		http.Error(w, fmt.Sprintf("error uploading header image: %v", err), GetResponseCode(err))
		return
	}

	result := s.db.Model(&schema.StudentProfile{UserId: user.Id}).
		Updates(map[string]interface{}{"header_image": data, "header_image_type": params.ContentType})
	if result.Error != nil {
		slog.Error("sql error storing header image", "user_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error uploading header image: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteSuccess(w)
}

func (s *UserService) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	userId, err := s.userAuth.CreateUser(params.Username, params.Email, params.Password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse):
			responseCode = http.StatusConflict
		case errors.Is(err, auth.ErrUsernameAlreadyInUse):
			responseCode = http.StatusConflict
		}
		http.Error(w, fmt.Sprintf("error creating user: %v", err), responseCode)
		return
	}

	utils.WriteJsonResponse(w, signupResponse{UserId: userId})
}

type setUserTypeRequest struct {
	UserType string `json:"user_type"`
}

func (s *UserService) SetUserType(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params setUserTypeRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if !schema.ValidUserType(params.UserType) {
		http.Error(w, fmt.Sprintf("invalid user type '%v'", params.UserType), http.StatusUnprocessableEntity)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		user, err := schema.GetUser(userId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrUserNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if user.IsAdmin() && params.UserType != schema.AdminUser {
			var count int64
			result := txn.Model(&schema.User{}).Where("user_type = ?", schema.AdminUser).Count(&count)
			if result.Error != nil {
				slog.Error("sql error counting existing admins", "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
			if count < 2 {
				return CodedError(fmt.Errorf("cannot change type of admin %v since there would be no admins left", userId), http.StatusUnprocessableEntity)
			}
		}

		user.UserType = params.UserType

		result := txn.Save(&user)
		if result.Error != nil {
			slog.Error("sql error updating user type", "user_id", userId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return auth.EnsureProvisioned(txn, &user)
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error setting user type: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type setUserClubRequest struct {
	ClubId *uuid.UUID `json:"club_id"`
}

// SetUserClub changes a user's club membership. Admin only: every other role
// is fixed to its own club.
func (s *UserService) SetUserClub(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params setUserClubRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkUserExists(txn, userId); err != nil {
			return err
		}

		if params.ClubId != nil {
			if err := checkClubExists(txn, *params.ClubId); err != nil {
				return err
			}
		}

		result := txn.Model(&schema.User{Id: userId}).Update("club_id", params.ClubId)
		if result.Error != nil {
			slog.Error("sql error updating user club", "user_id", userId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error setting user club: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *UserService) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := checkUserExists(s.db, userId); err != nil {
		http.Error(w, fmt.Sprintf("error deleting user %v: %v", userId, err), GetResponseCode(err))
		return
	}

	// The identity provider needs the user row to find the external identity,
	// so it runs before the row is removed.
	if err := s.userAuth.DeleteUser(userId); err != nil {
		http.Error(w, fmt.Sprintf("error deleting user %v: %v", userId, err), http.StatusInternalServerError)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		// Remove the user's content before the user row itself. Video
		// collections are personal and go away with their owner; coach
		// collections are soft-deleted like any other collection delete.
		var collections []schema.VideoCollection
		if err := txn.Find(&collections, "owner_id = ?", userId).Error; err != nil {
			slog.Error("sql error finding user video collections", "user_id", userId, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		for _, collection := range collections {
			if err := deleteVideoCollection(txn, collection.Id); err != nil {
				return err
			}
		}

		var coachCollections []schema.CoachMediaCollection
		if err := txn.Find(&coachCollections, "owner_id = ? AND is_deleted = ?", userId, false).Error; err != nil {
			slog.Error("sql error finding user coach collections", "user_id", userId, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		for _, collection := range coachCollections {
			if err := softDeleteCoachCollection(txn, collection.Id); err != nil {
				return err
			}
		}

		if err := txn.Delete(&schema.CoachCollectionShare{}, "user_id = ?", userId).Error; err != nil {
			slog.Error("sql error deleting user shares", "user_id", userId, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		if err := txn.Delete(&schema.StudentProfile{UserId: userId}).Error; err != nil {
			slog.Error("sql error deleting student profile", "user_id", userId, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if err := txn.Delete(&schema.CoachProfile{UserId: userId}).Error; err != nil {
			slog.Error("sql error deleting coach profile", "user_id", userId, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		if err := txn.Delete(&schema.User{Id: userId}).Error; err != nil {
			slog.Error("sql error deleting user", "user_id", userId, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting user %v: %v", userId, err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}
