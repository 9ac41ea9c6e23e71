package schema

import (
	"time"

	"github.com/google/uuid"
)

// User types. Every user has exactly one.
const (
	StudentUser  = "student"
	CoachUser    = "coach"
	FacilityUser = "facility"
	AdminUser    = "admin"
)

// Media types for coach media collections.
const (
	UrlVideoMedia = "url_video"
	ImageMedia    = "image"
	DocumentMedia = "document"
)

// Sharing types for coach media collections. The persisted value is the last
// applied mode; the share rows are the source of truth for access.
const (
	ShareAllStudents   = "all_students"
	ShareAllCoaches    = "all_coaches"
	ShareSpecificUsers = "specific_users"
)

const (
	// Non-deleted media cap for url_video collections.
	UrlVideoMediaLimit = 3

	// Maximum coaching note length after trimming, in characters.
	MaxNoteLength = 2000

	// Upload caps for stored images.
	MaxProfileImageBytes = 3 * 1024 * 1024
	MaxHeaderImageBytes  = 5 * 1024 * 1024
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Subject id assigned by an external identity provider, if one is used.
	ExternalId *string `gorm:"uniqueIndex;size:100"`

	Username string `gorm:"unique;size:50;not null"`
	Email    string `gorm:"unique;size:254;not null"`
	Password []byte

	UserType string `gorm:"size:20;not null;default:'student'"`

	ClubId *uuid.UUID `gorm:"type:uuid"`
	Club   *Club      `gorm:"constraint:OnDelete:SET NULL"`

	StudentProfile *StudentProfile `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	CoachProfile   *CoachProfile   `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
}

func (u *User) IsAdmin() bool    { return u.UserType == AdminUser }
func (u *User) IsCoach() bool    { return u.UserType == CoachUser }
func (u *User) IsStudent() bool  { return u.UserType == StudentUser }
func (u *User) IsFacility() bool { return u.UserType == FacilityUser }

// CanCoach reports whether the user may act as a coach: be assigned to video
// collections and author coaching notes.
func (u *User) CanCoach() bool {
	return u.UserType == CoachUser || u.UserType == AdminUser
}

// CanManageCoachContent reports whether the user may own coach media collections.
func (u *User) CanManageCoachContent() bool {
	return u.UserType == CoachUser || u.UserType == FacilityUser || u.UserType == AdminUser
}

func ValidUserType(userType string) bool {
	switch userType {
	case StudentUser, CoachUser, FacilityUser, AdminUser:
		return true
	}
	return false
}

// SameClub reports whether two users belong to the same club. Two users with
// no club membership count as the same club.
func SameClub(a, b *User) bool {
	if a.ClubId == nil || b.ClubId == nil {
		return a.ClubId == nil && b.ClubId == nil
	}
	return *a.ClubId == *b.ClubId
}

type Club struct {
	Id   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"unique;size:50;not null"`

	CreatedAt time.Time
}

type StudentProfile struct {
	UserId uuid.UUID `gorm:"type:uuid;primaryKey"`

	SkillLevel string `gorm:"size:50"`
	Goals      string `gorm:"size:1000"`

	HeaderImage     []byte
	HeaderImageType string `gorm:"size:100"`
}

type CoachProfile struct {
	UserId uuid.UUID `gorm:"type:uuid;primaryKey"`

	Bio             string `gorm:"size:2000"`
	YearsExperience int    `gorm:"not null;default:0"`

	ProfileImage     []byte
	ProfileImageType string `gorm:"size:100"`
}

type VideoCollection struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name string `gorm:"size:100;not null"`

	OwnerId uuid.UUID `gorm:"type:uuid;not null"`
	Owner   *User     `gorm:"foreignKey:OwnerId"`

	// Single optional coach assignment. Must be in the owner's club at
	// assignment time; not re-validated if club membership changes later.
	AssignedCoachId *uuid.UUID `gorm:"type:uuid"`
	AssignedCoach   *User      `gorm:"foreignKey:AssignedCoachId;constraint:OnDelete:SET NULL"`

	Videos []Video `gorm:"foreignKey:CollectionId;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
}

type Video struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	CollectionId uuid.UUID        `gorm:"type:uuid;not null;index"`
	Collection   *VideoCollection `gorm:"foreignKey:CollectionId"`

	Title string `gorm:"size:200;not null"`
	Url   string `gorm:"size:500;not null"`

	Notes []MediaCoachNote `gorm:"foreignKey:VideoId;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
}

type CoachMediaCollection struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"size:1000"`

	OwnerId uuid.UUID `gorm:"type:uuid;not null"`
	Owner   *User     `gorm:"foreignKey:OwnerId"`

	MediaType   string `gorm:"size:20;not null"`
	SharingType string `gorm:"size:20;not null;default:'specific_users'"`

	IsDeleted bool `gorm:"not null;default:false"`
	DeletedAt *time.Time

	Media  []CoachMedia           `gorm:"foreignKey:CollectionId;constraint:OnDelete:CASCADE"`
	Shares []CoachCollectionShare `gorm:"foreignKey:CollectionId;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
}

type CoachMedia struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	CollectionId uuid.UUID             `gorm:"type:uuid;not null;index"`
	Collection   *CoachMediaCollection `gorm:"foreignKey:CollectionId"`

	Title string `gorm:"size:200"`
	Url   string `gorm:"size:500;not null"`

	IsDeleted bool `gorm:"not null;default:false"`
	DeletedAt *time.Time

	CreatedAt time.Time
}

// CoachCollectionShare grants a user read access to a coach media collection.
// The composite primary key enforces at most one share row per pair.
type CoachCollectionShare struct {
	CollectionId uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;primaryKey"`

	Collection *CoachMediaCollection `gorm:"foreignKey:CollectionId"`
	User       *User                 `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
}

type MediaCoachNote struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	VideoId uuid.UUID `gorm:"type:uuid;not null;index"`
	Video   *Video    `gorm:"foreignKey:VideoId"`

	AuthorId uuid.UUID `gorm:"type:uuid;not null"`
	Author   *User     `gorm:"foreignKey:AuthorId"`

	Content string `gorm:"size:2000;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllModels lists every table for migration, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&Club{}, &User{}, &StudentProfile{}, &CoachProfile{},
		&VideoCollection{}, &Video{}, &MediaCoachNote{},
		&CoachMediaCollection{}, &CoachMedia{}, &CoachCollectionShare{},
	}
}
