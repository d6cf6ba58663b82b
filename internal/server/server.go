package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"chikota/internal/config"
	"chikota/internal/database"
	"chikota/internal/middlewares"
	"chikota/internal/repositories"
	"chikota/internal/services"
	"chikota/internal/utils"
)

type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	db         database.Service
	store      sessions.Store
	limiter    middlewares.Limiter
	memLimiter *middlewares.MemoryLimiter

	userService     services.UserService
	authService     services.AuthService
	bookmarkService services.BookmarkService
	tagService      services.TagService
	categoryService services.CategoryService
	reminderService services.ReminderService
	summaryService  services.SummaryService
}

// Deps are the outside collaborators the server talks to.
// A nil Redis client selects the in-memory rate limiter.
type Deps struct {
	DB         database.Service
	Redis      redis.Scripter
	Email      services.EmailService
	Summarizer services.Summarizer
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	db := deps.DB.DB()

	userRepo := repositories.NewUserRepository(db)
	bookmarkRepo := repositories.NewBookmarkRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)

	store := utils.NewSessionStore(cfg.Auth.SessionKey, cfg.Auth.SessionMaxAge, !cfg.Server.IsDevelopment())
	services.InitializeGoth(cfg.Auth, store)

	s := &Server{
		cfg:             cfg,
		db:              deps.DB,
		store:           store,
		userService:     services.NewUserService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenDuration),
		authService:     services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenDuration),
		bookmarkService: services.NewBookmarkService(db, bookmarkRepo, tagRepo, categoryRepo),
		tagService:      services.NewTagService(tagRepo),
		categoryService: services.NewCategoryService(db, categoryRepo, bookmarkRepo),
		reminderService: services.NewReminderService(deps.Email),
		summaryService:  services.NewSummaryService(bookmarkRepo, deps.Summarizer),
	}

	if deps.Redis != nil {
		s.limiter = middlewares.NewRedisLimiter(deps.Redis, cfg.RateLimit.Prefix, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		log.Info().Msg("Using Redis rate limiter")
	} else {
		s.memLimiter = middlewares.NewMemoryLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		s.limiter = s.memLimiter
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  cfg.Server.IdleTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// RunBackground starts periodic jobs that stop with ctx.
func (s *Server) RunBackground(ctx context.Context) {
	go s.userService.TrackTotalUsers(ctx, time.Minute)
	if s.memLimiter != nil {
		go s.memLimiter.Cleanup(ctx, time.Minute, 3*time.Minute)
	}
}

func (s *Server) Start() error {
	log.Info().Int("port", s.cfg.Server.Port).Str("env", s.cfg.Server.Env).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	log.Info().Msg("Server exiting")
	done <- true
}
