package services

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/auth"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/utils"
	"gorm.io/gorm"
)

// ClubPortal bundles the backend services of the coaching platform behind one
// router.
type ClubPortal struct {
	user       UserService
	club       ClubService
	videos     VideoCollectionService
	coachMedia CoachCollectionService

	db *gorm.DB
}

func NewClubPortal(db *gorm.DB, userAuth auth.IdentityProvider) ClubPortal {
	return ClubPortal{
		user:       UserService{db: db, userAuth: userAuth},
		club:       ClubService{db: db, userAuth: userAuth},
		videos:     VideoCollectionService{db: db, userAuth: userAuth},
		coachMedia: CoachCollectionService{db: db, userAuth: userAuth},
		db:         db,
	}
}

func (p *ClubPortal) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))
	r.Use(requestMetrics)

	r.Mount("/user", p.user.Routes())
	r.Mount("/club", p.club.Routes())
	r.Mount("/video-collection", p.videos.Routes())
	r.Mount("/coach-collection", p.coachMedia.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	return r
}
