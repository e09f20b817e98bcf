package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/gearguard/internal/config"
	"github.com/pribylovaa/gearguard/internal/http/handlers"
	"github.com/pribylovaa/gearguard/internal/http/middleware"
	"github.com/pribylovaa/gearguard/internal/metrics"
	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/service"
)

// Options - параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Timeout  time.Duration
	BasePath string // например, "/api/v1"; если пустой - роуты регистрируются на корне.
	Cookies  config.CookiePolicy
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования: id попадает в attrs
		middleware.Logging(opts.Logger, opts.Metrics),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	h := handlers.New(svc, opts.Cookies)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes - единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, v middleware.TokenValidator) {
	manager := middleware.RequireRole(models.RoleManager)

	// users: публичные
	r.With(middleware.OptionalAuthenticate(v)).Post("/users/register", h.RegisterUser)
	r.Post("/users/login", h.LoginUser)
	r.Post("/users/refreshToken", h.RefreshToken)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(v))

		// users
		r.Post("/users/logout", h.LogoutUser)
		r.Post("/users/changePassword", h.ChangePassword)
		r.Get("/users/current-user", h.CurrentUser)
		r.With(manager).Patch("/users/{id}/role", h.ChangeRole)
		r.With(manager).Put("/users/{id}/team", h.AssignTeam)

		// teams
		r.Get("/teams", h.ListTeams)
		r.With(manager).Post("/teams", h.CreateTeam)

		// departments
		r.Get("/departments", h.ListDepartments)
		r.With(manager).Post("/departments", h.CreateDepartment)

		// equipment
		r.Get("/equipment", h.ListEquipment)
		r.Get("/equipment/{id}", h.GetEquipment)
		r.With(manager).Post("/equipment", h.CreateEquipment)

		// requests
		r.Get("/requests", h.ListRequests)
		r.Post("/requests", h.CreateRequest)
		r.Get("/requests/{id}", h.GetRequest)
		r.Patch("/requests/{id}", h.UpdateRequest)
		r.With(manager).Post("/requests/{id}/cascade", h.ApplyScrapCascade)
	})
}
