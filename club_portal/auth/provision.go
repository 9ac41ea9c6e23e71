package auth

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/utils/logging"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureProvisioned creates the sub-profile rows matching the user's type if
// they are missing. Students get a student profile, coaches a coach profile,
// admins both. Idempotent: inserts skip existing rows so that two concurrent
// first requests for the same user cannot fail each other.
func EnsureProvisioned(db *gorm.DB, user *schema.User) error {
	if user.IsStudent() || user.IsAdmin() {
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&schema.StudentProfile{UserId: user.Id})
		if result.Error != nil {
			slog.Error("sql error provisioning student profile", "user_id", user.Id, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
	}

	if user.IsCoach() || user.IsAdmin() {
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&schema.CoachProfile{UserId: user.Id})
		if result.Error != nil {
			slog.Error("sql error provisioning coach profile", "user_id", user.Id, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
	}

	return nil
}

// findOrCreateExternalUser maps an identity-provider subject to a user row,
// creating the row on first authenticated access. The insert skips conflicts
// and re-reads, so a race between two first requests resolves to one row.
func findOrCreateExternalUser(db *gorm.DB, externalId, username, email string) (schema.User, error) {
	user, err := schema.GetUserByExternalId(externalId, db)
	if err == nil {
		return user, nil
	}
	if err != schema.ErrUserNotFound {
		return schema.User{}, err
	}

	newUser := schema.User{
		Id:         uuid.New(),
		ExternalId: &externalId,
		Username:   username,
		Email:      email,
		UserType:   schema.StudentUser,
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&newUser)
	if result.Error != nil {
		slog.Error("sql error creating user for external identity", "external_id", externalId, "error", result.Error)
		return schema.User{}, schema.ErrDbAccessFailed
	}

	user, err = schema.GetUserByExternalId(externalId, db)
	if err != nil {
		return schema.User{}, err
	}

	if err := EnsureProvisioned(db, &user); err != nil {
		return schema.User{}, err
	}

	slog.Info("provisioned user for external identity", "user_id", user.Id, "code", logging.AUTH_PROVISION)

	return user, nil
}
