package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pribylovaa/bookshelf/internal/cache"
	"github.com/pribylovaa/bookshelf/internal/config"
	"github.com/pribylovaa/bookshelf/internal/http/cookie"
	"github.com/pribylovaa/bookshelf/internal/http/handlers"
	"github.com/pribylovaa/bookshelf/internal/http/middleware"
	"github.com/pribylovaa/bookshelf/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api/v1"; если пустой — роуты регистрируются на корне.
	Debug    bool

	Auth      config.AuthConfig
	CORS      config.CORSConfig
	RateLimit config.RateLimitConfig

	// Limiter ограничивает попытки входа/регистрации; nil — без ограничения.
	Limiter cache.Limiter
	// ClientIP — ключ лимитера; nil — RemoteAddr без учёта заголовков прокси.
	ClientIP func(*http.Request) string
	// Metrics — nil отключает сбор HTTP-метрик.
	Metrics *middleware.Metrics
	// RedirectURL — адрес приложения после входа через Google.
	RedirectURL string
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Debug(opts.Debug), // до Recover: стек паники попадает в debug
		middleware.RequestID(),       // до логирования
		middleware.Logging(opts.Logger),
		middleware.Recover(), // внутри Logging: лог паники с request_id, статус 500 в записи http
		middleware.SecureHeaders(),
	)
	if opts.Metrics != nil {
		root.Use(opts.Metrics.Middleware())
	}
	root.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{middleware.HeaderNewAccessToken, "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	cookies := cookie.NewManager(opts.Auth)
	h := handlers.New(svc, cookies, opts.RedirectURL)

	clientIP := opts.ClientIP
	if clientIP == nil {
		clientIP = middleware.ClientIP
	}

	authLimit := middleware.RateLimit(opts.Limiter, "auth", clientIP,
		opts.RateLimit.AuthLimit, opts.RateLimit.AuthWindow)
	guarded := middleware.Guarded(cookies, middleware.Authenticate(svc, cookies))

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, authLimit, guarded)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, authLimit, guarded)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, authLimit, guarded middleware.Middleware) {
	r.Get("/health", h.Health)

	// auth
	r.With(authLimit).Post("/auth/register", h.Register)
	r.With(authLimit).Post("/auth/login", h.Login)
	r.With(authLimit).Post("/auth/refresh", h.Refresh)
	r.Get("/auth/verify", h.Verify)
	r.Get("/auth/google", h.GoogleStart)
	r.Get("/auth/google/callback", h.GoogleCallback)

	// books (чтение публичное)
	r.Get("/book", h.ListBooks)
	r.Get("/book/{id}", h.GetBook)

	r.Group(func(r chi.Router) {
		r.Use(guarded)

		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)

		// users
		r.Post("/users/me/avatar/presign", h.AvatarPresign)
		r.Post("/users/me/avatar/confirm", h.AvatarConfirm)

		// books
		r.Post("/book", h.CreateBook)
		r.Put("/book/current", h.SetCurrentBook)
		r.Put("/book/{id}", h.UpdateBook)
		r.Put("/book/{id}/progress", h.UpdateProgress)
		r.Post("/book/{id}/partners", h.AddReadingPartner)
		r.Delete("/book/{id}", h.DeleteBook)

		// groups
		r.Post("/groups", h.CreateGroup)
		r.Get("/groups", h.MyGroups)
		r.Get("/groups/{id}", h.GetGroup)
		r.Post("/groups/{id}/join", h.JoinGroup)
		r.Post("/groups/{id}/leave", h.LeaveGroup)
		r.Delete("/groups/{id}", h.DeleteGroup)
	})
}
