package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"chikota/internal/metrics"
	"chikota/internal/models"
	"chikota/internal/repositories"
	"chikota/internal/utils"
)

const bcryptCost = 8

// UserService defines the interface for user-related business logic.
type UserService interface {
	RegisterUser(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	// LoginUser checks the credentials and returns a signed bearer token.
	LoginUser(ctx context.Context, creds models.Login) (string, *models.User, error)
	GetUserProfile(ctx context.Context, userID string) (*models.User, error)
	GetTotalUsers(ctx context.Context) (int64, error)
	// TrackTotalUsers refreshes the total users gauge until ctx is done.
	TrackTotalUsers(ctx context.Context, interval time.Duration)
}

type userService struct {
	userRepo  repositories.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) UserService {
	return &userService{userRepo: userRepo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *userService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.userRepo.CountAll(ctx)
}

func (s *userService) TrackTotalUsers(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.refreshTotalUsers(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *userService) refreshTotalUsers(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := s.GetTotalUsers(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Error updating total users gauge")
		}
		return
	}
	metrics.TotalUsers.Set(float64(count))
}

func (s *userService) RegisterUser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	log.Debug().Str("email", req.Email).Msg("Attempting to register user")
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if strings.TrimSpace(req.Name) == "" || email == "" || req.Password == "" {
		log.Warn().Msg("Name, email, and password are required for registration")
		return nil, invalid("name, email, and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password during registration")
		return nil, errors.New("failed to hash password")
	}
	hash := string(hashedPassword)

	ts := now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: &hash,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			log.Warn().Str("email", email).Msg("Email already exists during user insertion")
			return nil, translate(err, "email")
		}
		return nil, err
	}

	metrics.NewUsersTotal.Inc()
	s.refreshTotalUsers(ctx)
	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered successfully")
	return user, nil
}

func (s *userService) LoginUser(ctx context.Context, creds models.Login) (string, *models.User, error) {
	log.Debug().Str("email", creds.Email).Msg("Attempting user login")
	email := strings.TrimSpace(strings.ToLower(creds.Email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("password", "failed").Inc()
			log.Warn().Str("email", email).Msg("Invalid credentials during login attempt")
			return "", nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Str("email", email).Msg("Error finding user for login")
		return "", nil, err
	}

	if user.PasswordHash == nil || bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(creds.Password)) != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("password", "failed").Inc()
		log.Warn().Str("email", email).Msg("Invalid credentials (password mismatch) during login attempt")
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Could not generate token for user")
		return "", nil, errors.New("could not generate token")
	}

	metrics.LoginAttemptsTotal.WithLabelValues("password", "success").Inc()
	log.Info().Str("user_id", user.ID).Msg("User logged in successfully")
	return token, user, nil
}

func (s *userService) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	log.Debug().Str("userID", userID).Msg("Attempting to retrieve user profile")
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("user_id", userID).Msg("User not found for GetMyProfile")
		} else {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user profile")
		}
		return nil, translate(err, "user")
	}
	return user, nil
}
