package services

import (
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

type ClubService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *ClubService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/list", s.List)

		r.Group(func(r chi.Router) {
			r.Use(auth.ClubMemberOnly(s.db))
			r.Get("/{club_id}/users", s.Users)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.AdminOnly(s.db))
			r.Post("/create", s.Create)
		})
	})

	return r
}

type createClubRequest struct {
	Name string `json:"name"`
}

type createClubResponse struct {
	ClubId uuid.UUID `json:"club_id"`
}

func (s *ClubService) Create(w http.ResponseWriter, r *http.Request) {
	var params createClubRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "club name must not be empty", http.StatusUnprocessableEntity)
		return
	}

	club := schema.Club{Id: uuid.New(), Name: params.Name}

	result := s.db.Create(&club)
	if result.Error != nil {
		slog.Error("sql error creating club", "name", params.Name, "error", result.Error)
		http.Error(w, fmt.Sprintf("error creating club: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, createClubResponse{ClubId: club.Id})
}

type ClubInfo struct {
	Id   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (s *ClubService) List(w http.ResponseWriter, r *http.Request) {
	var clubs []schema.Club
	result := s.db.Find(&clubs)
	if result.Error != nil {
		slog.Error("sql error listing clubs", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing clubs: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]ClubInfo, 0, len(clubs))
	for _, club := range clubs {
		infos = append(infos, ClubInfo{Id: club.Id, Name: club.Name})
	}

	utils.WriteJsonResponse(w, infos)
}

func (s *ClubService) Users(w http.ResponseWriter, r *http.Request) {
	clubId, err := utils.URLParamUUID(r, "club_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := checkClubExists(s.db, clubId); err != nil {
		http.Error(w, fmt.Sprintf("error listing club users: %v", err), GetResponseCode(err))
		return
	}

	var users []schema.User
	result := s.db.Preload("Club").Where("club_id = ?", clubId).Find(&users)
	if result.Error != nil {
		slog.Error("sql error listing club users", "club_id", clubId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing club users: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, convertToUserInfo(&u))
	}

	utils.WriteJsonResponse(w, infos)
}
