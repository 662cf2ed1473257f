package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"accessimaps/docs" //this is required to generate swagger docs
	"accessimaps/internal/auth"
	"accessimaps/internal/domain/storage"
	"accessimaps/internal/ratelimiter"
	"accessimaps/internal/uploads"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	uploads       uploads.Store
	geocoder      geocoder
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	frontendURL string
	auth        authConfig
	rateLimiter ratelimiter.Config
	uploads     uploadsConfig
	redis       redisConfig
	geocode     geocodeConfig
	corsOrigins []string
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}
type tokenConfig struct {
	refreshSecret   string
	secret          string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}
type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
	autoMigrate bool
}

type uploadsConfig struct {
	dir           string
	publicPath    string
	cloudinaryURL string
}

type redisConfig struct {
	addr     string
	password string
	db       int
}

type geocodeConfig struct {
	baseURL  string
	cacheTTL time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(app.RateLimiterMiddleware)

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.signupHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/logout", app.logoutHandler)
				r.Get("/me", app.meHandler)
			})
		})

		r.Get("/geocode", app.geocodeHandler)

		r.Route("/places", func(r chi.Router) {
			r.Get("/", app.listPlacesHandler)
			r.With(app.AuthTokenMiddleware).Post("/", app.createPlaceHandler)

			r.Route("/{placeID}", func(r chi.Router) {
				r.Get("/", app.getPlaceHandler)

				r.Get("/ratings", app.listPlaceRatingsHandler)
				r.With(app.AuthTokenMiddleware).Post("/ratings", app.upsertRatingHandler)
				r.With(app.AuthTokenMiddleware).Delete("/ratings", app.deleteOwnRatingHandler)

				r.Get("/comments", app.listPlaceCommentsHandler)
				r.With(app.AuthTokenMiddleware).Post("/comments", app.createCommentHandler)
			})
		})

		r.With(app.AuthTokenMiddleware).Post("/upload/image", app.uploadImageHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RequireAdmin)

			r.Get("/stats", app.adminStatsHandler)
			r.Get("/settings", app.adminSettingsHandler)

			r.Route("/places", func(r chi.Router) {
				r.Get("/", app.adminListPlacesHandler)
				r.Get("/{placeID}", app.adminGetPlaceHandler)
				r.Put("/{placeID}", app.adminUpdatePlaceHandler)
				r.Delete("/{placeID}", app.adminDeletePlaceHandler)
			})

			r.Get("/ratings", app.adminListRatingsHandler)
			r.Delete("/ratings/{ratingID}", app.adminDeleteRatingHandler)

			r.Get("/comments", app.adminListCommentsHandler)
			r.Get("/comments/{commentID}", app.adminGetCommentHandler)
			r.Delete("/comments/{commentID}", app.adminDeleteCommentHandler)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", app.adminListUsersHandler)
				r.Delete("/{userID}", app.adminDeleteUserHandler)
				r.Post("/{userID}/ban", app.adminBanUserHandler)
				r.Post("/{userID}/unban", app.adminUnbanUserHandler)
				r.Post("/{userID}/promote", app.adminPromoteUserHandler)
			})

			r.Route("/admins", func(r chi.Router) {
				r.Get("/", app.adminListAdminsHandler)
				r.Post("/", app.adminCreateAdminHandler)
				r.Delete("/{userID}", app.adminDeleteAdminHandler)
				r.Post("/{userID}/demote", app.adminDemoteAdminHandler)
				r.Put("/{userID}/password", app.adminChangePasswordHandler)
			})
		})
	})

	// uploaded images are served from disk unless they go to Cloudinary
	if local, ok := app.uploads.(*uploads.LocalStore); ok {
		prefix := app.config.uploads.publicPath
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(local.Dir()))))
	}

	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/api"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
