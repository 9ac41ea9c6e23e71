package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/schema"
	"gorm.io/gorm"
)

// KeycloakIdentityProvider delegates credential management to a Keycloak
// realm. The Keycloak subject id is stored on the user row as the external id,
// and the user plus sub-profiles are provisioned lazily on first access.
type KeycloakIdentityProvider struct {
	keycloak *gocloak.GoCloak
	db       *gorm.DB
	auditLog AuditLogger

	realm                        string
	adminUsername, adminPassword string
}

type KeycloakArgs struct {
	ServerUrl     string
	Realm         string
	AdminUsername string
	AdminPassword string
}

func NewKeycloakIdentityProvider(db *gorm.DB, auditLog AuditLogger, args KeycloakArgs) (IdentityProvider, error) {
	client := gocloak.NewClient(args.ServerUrl)

	// Verify the admin credentials up front so misconfiguration fails at
	// startup instead of on the first signup.
	if _, err := adminLogin(client, args.AdminUsername, args.AdminPassword); err != nil {
		return nil, fmt.Errorf("error verifying keycloak admin credentials: %w", err)
	}

	return &KeycloakIdentityProvider{
		keycloak:      client,
		db:            db,
		auditLog:      auditLog,
		realm:         args.Realm,
		adminUsername: args.AdminUsername,
		adminPassword: args.AdminPassword,
	}, nil
}

func isConflict(err error) bool {
	apiErr, ok := err.(*gocloak.APIError)
	// Keycloak returns 409 if the user already exists when creating it.
	return ok && apiErr.Code == http.StatusConflict
}

func adminLogin(client *gocloak.GoCloak, adminUsername, adminPassword string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// The "master" realm is the default admin realm in Keycloak.
	adminToken, err := client.LoginAdmin(ctx, adminUsername, adminPassword, "master")
	if err != nil {
		return "", fmt.Errorf("error during keycloak admin login: %w", err)
	}
	return adminToken.AccessToken, nil
}

func getToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing Authorization header")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", errors.New("invalid Authorization header, expected bearer token")
	}
	return token, nil
}

func (auth *KeycloakIdentityProvider) resolveUser(token string) (schema.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	userInfo, err := auth.keycloak.GetUserInfo(ctx, token, auth.realm)
	if err != nil {
		return schema.User{}, fmt.Errorf("unable to verify token with keycloak: %w", err)
	}

	if userInfo.Sub == nil || userInfo.Email == nil || userInfo.PreferredUsername == nil {
		return schema.User{}, errors.New("user info from keycloak is missing required fields")
	}

	return findOrCreateExternalUser(auth.db, *userInfo.Sub, *userInfo.PreferredUsername, *userInfo.Email)
}

func (auth *KeycloakIdentityProvider) middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := func(w http.ResponseWriter, r *http.Request) {
			token, err := getToken(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			user, err := auth.resolveUser(token)
			if err != nil {
				if errors.Is(err, schema.ErrDbAccessFailed) {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			reqCtx := context.WithValue(r.Context(), UserRequestContextKey, user)
			next.ServeHTTP(w, r.WithContext(reqCtx))
		}

		return http.HandlerFunc(handler)
	}
}

func (auth *KeycloakIdentityProvider) AuthMiddleware() chi.Middlewares {
	return chi.Middlewares{auth.middleware(), auth.auditLog.Middleware}
}

func (auth *KeycloakIdentityProvider) AllowDirectSignup() bool {
	return false
}

func (auth *KeycloakIdentityProvider) LoginWithEmail(email, password string) (LoginResult, error) {
	return LoginResult{}, fmt.Errorf("login with email is not supported for this identity provider")
}

func (auth *KeycloakIdentityProvider) LoginWithToken(accessToken string) (LoginResult, error) {
	user, err := auth.resolveUser(accessToken)
	if err != nil {
		slog.Error("failed to resolve user during keycloak login", "error", err)
		return LoginResult{}, fmt.Errorf("error logging in user: %w", err)
	}

	return LoginResult{UserId: user.Id, AccessToken: accessToken}, nil
}

func (auth *KeycloakIdentityProvider) CreateUser(username, email, password string) (uuid.UUID, error) {
	adminToken, err := adminLogin(auth.keycloak, auth.adminUsername, auth.adminPassword)
	if err != nil {
		return uuid.Nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	enabled := true
	passwordKey := "password"
	temporary := false

	externalId, err := auth.keycloak.CreateUser(ctx, adminToken, auth.realm, gocloak.User{
		Username:      &username,
		Email:         &email,
		Enabled:       &enabled,
		EmailVerified: &enabled,
		Credentials: &[]gocloak.CredentialRepresentation{{
			Type: &passwordKey, Value: &password, Temporary: &temporary,
		}},
	})
	if err != nil {
		if isConflict(err) {
			return uuid.Nil, ErrUsernameAlreadyInUse
		}
		return uuid.Nil, fmt.Errorf("error creating new user in keycloak: %w", err)
	}

	user, err := findOrCreateExternalUser(auth.db, externalId, username, email)
	if err != nil {
		return uuid.Nil, err
	}

	return user.Id, nil
}

func (auth *KeycloakIdentityProvider) DeleteUser(userId uuid.UUID) error {
	user, err := schema.GetUser(userId, auth.db)
	if err != nil {
		return err
	}
	if user.ExternalId == nil {
		return nil
	}

	adminToken, err := adminLogin(auth.keycloak, auth.adminUsername, auth.adminPassword)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = auth.keycloak.DeleteUser(ctx, adminToken, auth.realm, *user.ExternalId)
	if err != nil {
		slog.Error("failed to delete user with keycloak", "user_id", userId, "error", err)
		return fmt.Errorf("failed to delete user with keycloak: %w", err)
	}

	return nil
}

func tokenExpiry(claims *jwt.MapClaims) (time.Time, error) {
	if claims == nil {
		return time.Time{}, errors.New("no claims found in token")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("error getting token expiration: %w", err)
	}
	if exp == nil {
		return time.Time{}, errors.New("no token expiration found")
	}

	return exp.Time, nil
}

func (auth *KeycloakIdentityProvider) GetTokenExpiration(r *http.Request) (time.Time, error) {
	authToken, err := getToken(r)
	if err != nil {
		return time.Time{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, claims, err := auth.keycloak.DecodeAccessToken(ctx, authToken, auth.realm)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to verify token with keycloak: %w", err)
	}

	return tokenExpiry(claims)
}
