package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clan-manager/internal/config"
	"clan-manager/internal/handler"
	"clan-manager/internal/metrics"
	"clan-manager/internal/middleware"
	"clan-manager/internal/model"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Clan         *handler.ClanHandler
	Task         *handler.TaskHandler
	Announcement *handler.AnnouncementHandler
	Health       *handler.HealthHandler
	Docs         *handler.DocsHandler
}

var (
	public        = middleware.Public()
	authenticated = middleware.Authenticated()
	adminOnly     = middleware.Roles(model.RoleSuperAdmin)
	leaders       = middleware.Roles(model.RoleSuperAdmin, model.RoleClanLeader)
	anyRole       = middleware.Roles(model.RoleSuperAdmin, model.RoleClanLeader, model.RoleClanMember)
	pendingTwoFA  = middleware.RoutePolicy{AllowTwoFactorPending: true}
)

// New builds the HTTP handler. m may be nil, in which case /metrics is not
// served.
func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM).
		WithAuthPrefix(cfg.APIPrefix + "/auth")

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Check)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	if h.Docs != nil {
		r.Get("/openapi.yaml", h.Docs.OpenAPI)
		r.Get("/swagger", h.Docs.SwaggerUI)
	}

	guard := authMiddleware.Guard

	r.Route(cfg.APIPrefix, func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(guard(public)).Post("/login", h.Auth.Login)
			auth.With(guard(pendingTwoFA)).Post("/verify-2fa", h.Auth.VerifyTwoFactor)
			auth.With(guard(authenticated)).Post("/enable-2fa", h.Auth.EnableTwoFactor)
			auth.With(guard(authenticated)).Post("/confirm-2fa", h.Auth.ConfirmTwoFactor)
			auth.With(guard(authenticated)).Post("/disable-2fa", h.Auth.DisableTwoFactor)
			auth.With(guard(authenticated)).Post("/change-password", h.Auth.ChangePassword)
			auth.With(guard(public)).Post("/request-password-reset", h.Auth.RequestPasswordReset)
			auth.With(guard(public)).Post("/reset-password", h.Auth.ResetPassword)
			auth.With(guard(public)).Post("/refresh", h.Auth.Refresh)
			auth.With(guard(adminOnly)).Post("/register-leader", h.Auth.RegisterLeader)
			auth.With(guard(authenticated)).Get("/me", h.Auth.Me)
			auth.With(guard(authenticated)).Get("/activity", h.Auth.Activity)
		})

		api.Route("/users", func(users chi.Router) {
			users.With(guard(leaders)).Post("/", h.User.Create)
			users.With(guard(adminOnly)).Get("/", h.User.List)
			users.With(guard(adminOnly)).Post("/reset-weekly-kills", h.User.ResetWeeklyKills)
			users.With(guard(leaders)).Get("/clan/{clanId}", h.User.ListByClan)
			users.With(guard(leaders)).Get("/{id}", h.User.Get)
			users.With(guard(leaders)).Patch("/{id}", h.User.Update)
			users.With(guard(leaders)).Delete("/{id}", h.User.Delete)
			users.With(guard(leaders)).Patch("/{id}/power", h.User.UpdatePower)
			users.With(guard(leaders)).Patch("/{id}/kills", h.User.UpdateKills)
		})

		api.Route("/clans", func(clans chi.Router) {
			clans.With(guard(adminOnly)).Post("/", h.Clan.Create)
			clans.With(guard(public)).Get("/", h.Clan.ListActive)
			clans.With(guard(adminOnly)).Get("/admin", h.Clan.ListAll)
			clans.With(guard(public)).Get("/main", h.Clan.Main)
			clans.With(guard(adminOnly)).Post("/reset-weekly-kills", h.Clan.ResetWeeklyKills)
			clans.With(guard(public)).Get("/{id}", h.Clan.Get)
			clans.With(guard(leaders)).Patch("/{id}", h.Clan.Update)
			clans.With(guard(adminOnly)).Delete("/{id}", h.Clan.Delete)
			clans.With(guard(public)).Post("/{id}/activate", h.Clan.Activate)
			clans.With(guard(adminOnly)).Post("/{id}/deactivate", h.Clan.Deactivate)
			clans.With(guard(leaders)).Post("/{id}/update-power", h.Clan.RecalculatePower)
			clans.With(guard(leaders)).Post("/{id}/update-kills", h.Clan.RecalculateKills)
			clans.With(guard(leaders)).Post("/{id}/members/{userId}", h.Clan.AddMember)
			clans.With(guard(leaders)).Delete("/{id}/members/{userId}", h.Clan.RemoveMember)
		})

		api.Route("/announcements", func(ann chi.Router) {
			ann.With(guard(leaders)).Post("/", h.Announcement.Create)
			ann.With(guard(public)).Get("/", h.Announcement.List)
			ann.With(guard(public)).Get("/pinned", h.Announcement.Pinned)
			ann.With(guard(public)).Get("/month/{year}/{month}", h.Announcement.ByMonth)
			ann.With(guard(public)).Get("/search", h.Announcement.Search)
			ann.With(guard(public)).Get("/{id}", h.Announcement.Get)
			ann.With(guard(public)).Post("/{id}/view", h.Announcement.View)
			ann.With(guard(leaders)).Patch("/{id}", h.Announcement.Update)
			ann.With(guard(leaders)).Delete("/{id}", h.Announcement.Delete)
		})

		api.Route("/tasks", func(tasks chi.Router) {
			tasks.With(guard(leaders)).Post("/", h.Task.Create)
			tasks.With(guard(anyRole)).Get("/", h.Task.List)
			tasks.With(guard(anyRole)).Get("/clan/{clanId}", h.Task.ListByClan)
			tasks.With(guard(leaders)).Get("/overdue", h.Task.Overdue)
			tasks.With(guard(leaders)).Get("/upcoming", h.Task.Upcoming)
			tasks.With(guard(anyRole)).Get("/{id}", h.Task.Get)
			tasks.With(guard(anyRole)).Patch("/{id}", h.Task.Update)
			tasks.With(guard(anyRole)).Patch("/{id}/progress", h.Task.UpdateProgress)
			tasks.With(guard(leaders)).Delete("/{id}", h.Task.Delete)
		})
	})

	return r
}
