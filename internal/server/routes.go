package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chikota/internal/handlers"
	"chikota/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.Instrument)
	r.Use(middlewares.NewCorsMiddleware(s.cfg.Server.AllowedOrigins))

	ch := handlers.NewCommonHandler(s.db)
	r.HandleFunc("/health", ch.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	limit := func(next http.Handler) http.Handler { return next }
	if s.cfg.RateLimit.Enabled {
		limit = middlewares.RateLimit(s.limiter)
	}
	// Authenticated routes are limited per user, so the limiter runs after auth.
	authMiddleware := middlewares.NewAuthMiddleware(s.store, s.cfg.Auth.JWTSecret)
	auth := func(next http.Handler) http.Handler { return authMiddleware(limit(next)) }

	s.registerAuthRoutes(r, limit, auth)
	s.registerBookmarkRoutes(r, auth)
	s.registerTagRoutes(r, auth)
	s.registerCategoryRoutes(r, auth)
	s.registerReminderRoutes(r, auth)

	return r
}

type authWrapper func(http.Handler) http.Handler

func (s *Server) registerAuthRoutes(r *mux.Router, limit, auth authWrapper) {
	uh := handlers.NewUserHandler(s.userService, s.store)
	ah := handlers.NewAuthHandler(s.authService, s.store, s.cfg.Server.FrontendURL)

	r.Handle("/api/auth/register", limit(http.HandlerFunc(uh.Register))).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/login", limit(http.HandlerFunc(uh.Login))).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/logout", limit(http.HandlerFunc(uh.Logout))).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/{provider}", limit(http.HandlerFunc(ah.ProviderAuth))).Methods("GET", "OPTIONS")
	r.Handle("/api/auth/{provider}/callback", limit(http.HandlerFunc(ah.ProviderCallback))).Methods("GET", "OPTIONS")
	r.Handle("/api/me", auth(http.HandlerFunc(uh.GetMyProfile))).Methods("GET", "OPTIONS")
}

func (s *Server) registerBookmarkRoutes(r *mux.Router, auth authWrapper) {
	bh := handlers.NewBookmarksHandler(s.bookmarkService, s.summaryService)

	r.Handle("/api/bookmarks", auth(http.HandlerFunc(bh.GetBookmarks))).Methods("GET", "OPTIONS")
	r.Handle("/api/bookmarks", auth(http.HandlerFunc(bh.AddBookmark))).Methods("POST", "OPTIONS")
	r.Handle("/api/bookmarks", auth(http.HandlerFunc(bh.DeleteBookmarks))).Methods("DELETE", "OPTIONS")
	r.Handle("/api/bookmarks/{id}", auth(http.HandlerFunc(bh.GetBookmarkByID))).Methods("GET", "OPTIONS")
	r.Handle("/api/bookmarks/{id}", auth(http.HandlerFunc(bh.UpdateBookmark))).Methods("PUT", "OPTIONS")
	r.Handle("/api/bookmarks/{id}", auth(http.HandlerFunc(bh.DeleteBookmark))).Methods("DELETE", "OPTIONS")
	r.Handle("/api/bookmarks/{id}/summarize", auth(http.HandlerFunc(bh.SummarizeBookmark))).Methods("POST", "OPTIONS")
}

func (s *Server) registerTagRoutes(r *mux.Router, auth authWrapper) {
	th := handlers.NewTagHandler(s.tagService)
	r.Handle("/api/tags", auth(http.HandlerFunc(th.GetUserTags))).Methods("GET", "OPTIONS")
	r.Handle("/api/tags", auth(http.HandlerFunc(th.AddTag))).Methods("POST", "OPTIONS")
	r.Handle("/api/tags/{id}", auth(http.HandlerFunc(th.UpdateTag))).Methods("PUT", "OPTIONS")
	r.Handle("/api/tags/{id}", auth(http.HandlerFunc(th.DeleteTag))).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerCategoryRoutes(r *mux.Router, auth authWrapper) {
	ch := handlers.NewCategoryHandler(s.categoryService)
	r.Handle("/api/categories", auth(http.HandlerFunc(ch.GetCategories))).Methods("GET", "OPTIONS")
	r.Handle("/api/categories", auth(http.HandlerFunc(ch.AddCategory))).Methods("POST", "OPTIONS")
	r.Handle("/api/categories/{id}", auth(http.HandlerFunc(ch.UpdateCategory))).Methods("PUT", "OPTIONS")
	r.Handle("/api/categories/{id}", auth(http.HandlerFunc(ch.DeleteCategory))).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerReminderRoutes(r *mux.Router, auth authWrapper) {
	rh := handlers.NewReminderHandler(s.reminderService)
	r.Handle("/api/send-reminder", auth(http.HandlerFunc(rh.SendReminder))).Methods("POST", "OPTIONS")
}
