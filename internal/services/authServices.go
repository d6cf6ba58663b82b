package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog/log"

	"chikota/internal/config"
	"chikota/internal/metrics"
	"chikota/internal/models"
	"chikota/internal/repositories"
	"chikota/internal/utils"
)

type AuthService interface {
	// HandleLogin finds or creates the local user for a provider identity and issues a bearer token.
	HandleLogin(ctx context.Context, u goth.User) (*models.User, string, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{userRepo: userRepo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// InitializeGoth registers the configured OAuth providers and shares the session store with gothic.
func InitializeGoth(cfg config.AuthConfig, store sessions.Store) {
	gothic.Store = store

	callback := strings.TrimRight(cfg.CallbackURL, "/")
	var providers []goth.Provider
	if cfg.GoogleKey != "" {
		providers = append(providers, google.New(cfg.GoogleKey, cfg.GoogleSecret, callback+"/google/callback", "email", "profile"))
	}
	if cfg.FacebookKey != "" {
		providers = append(providers, facebook.New(cfg.FacebookKey, cfg.FacebookSecret, callback+"/facebook/callback", "email"))
	}
	goth.UseProviders(providers...)
	log.Info().Int("providers", len(providers)).Msg("Goth providers initialized")
}

func (a *authService) HandleLogin(ctx context.Context, u goth.User) (*models.User, string, error) {
	log.Info().Str("email", u.Email).Str("provider", u.Provider).Msg("Attempting to handle login for user")
	email := strings.TrimSpace(strings.ToLower(u.Email))
	if email == "" {
		metrics.LoginAttemptsTotal.WithLabelValues(u.Provider, "failed").Inc()
		log.Error().Str("provider", u.Provider).Msg("Missing email in Goth user data")
		return nil, "", invalid("missing email")
	}

	user, err := a.userRepo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		log.Info().Str("email", email).Msg("User not found, creating new user")
		user, err = a.createProviderUser(ctx, email, u)
		if err != nil {
			return nil, "", err
		}
	case err != nil:
		log.Error().Err(err).Str("email", email).Msg("Error finding user by email")
		return nil, "", errors.New("error finding user by email")
	default:
		log.Info().Str("email", email).Str("userID", user.ID).Msg("User found in database")
		if !user.EmailVerified {
			if err := a.userRepo.Update(ctx, user.ID, map[string]interface{}{"email_verified": true, "updated_at": now()}); err != nil {
				log.Warn().Err(err).Str("userID", user.ID).Msg("Failed to mark provider email as verified")
			} else {
				user.EmailVerified = true
			}
		}
	}

	token, err := utils.GenerateJWT(user.ID, a.jwtSecret, a.tokenTTL)
	if err != nil {
		log.Error().Err(err).Str("userID", user.ID).Msg("Error generating JWT for user")
		return nil, "", errors.New("error generating JWT")
	}

	metrics.LoginAttemptsTotal.WithLabelValues(u.Provider, "success").Inc()
	log.Info().Str("userID", user.ID).Msg("JWT generated successfully")
	return user, token, nil
}

func (a *authService) createProviderUser(ctx context.Context, email string, u goth.User) (*models.User, error) {
	name := u.Name
	if name == "" {
		name = u.NickName
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	ts := now()
	user := &models.User{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		EmailVerified: true,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if u.AvatarURL != "" {
		avatar := u.AvatarURL
		user.Image = &avatar
	}

	if err := a.userRepo.Create(ctx, user); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Error creating new user")
		return nil, errors.New("error creating user")
	}
	metrics.NewUsersTotal.Inc()
	log.Info().Str("email", email).Str("userID", user.ID).Msg("New user created successfully")
	return user, nil
}
