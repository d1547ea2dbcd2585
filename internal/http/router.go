package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/charismabi/handson/internal/config"
	httpmiddleware "github.com/charismabi/handson/internal/http/middleware"
	"github.com/charismabi/handson/internal/metrics"
	"github.com/charismabi/handson/internal/provision"
)

// Deps reúne os serviços injetados no roteador.
type Deps struct {
	Provision ProvisionService
	Registers RegisterService
	Companies CompanyService
	Clipping  ClippingService
	Files     FileService
	Manager   ManagerService
	Accounts  AccountService
	Tokens    httpmiddleware.TokenParser
	// Checks são os pings do /ready, por nome de dependência.
	Checks map[string]func(context.Context) error
}

type Handler struct {
	provision ProvisionService
	registers RegisterService
	companies CompanyService
	clipping  ClippingService
	files     FileService
	manager   ManagerService
	accounts  AccountService
	checks    map[string]func(context.Context) error
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	h := &Handler{
		provision: deps.Provision,
		registers: deps.Registers,
		companies: deps.Companies,
		clipping:  deps.Clipping,
		files:     deps.Files,
		manager:   deps.Manager,
		accounts:  deps.Accounts,
		checks:    deps.Checks,
	}

	publicLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst)
	authLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst)

	readers := []string{cfg.Roles.SuperAdmin, cfg.Roles.Admin, cfg.Roles.Viewer}
	writers := []string{cfg.Roles.SuperAdmin, cfg.Roles.Admin}
	owners := []string{cfg.Roles.SuperAdmin}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.StripSlashes)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(publicLimiter.Limit(httpmiddleware.ByIP))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Method(http.MethodGet, "/metrics", metrics.Handler())

		public.Post("/auth/get-token", h.GetToken)
		public.Post("/auth/reset-password", h.ResetPassword)
		public.Post("/auth/reset-password-confirm", h.ResetPasswordConfirm)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(deps.Tokens))
		private.Use(authLimiter.Limit(httpmiddleware.BySubject))

		private.Group(func(a chi.Router) {
			a.Use(httpmiddleware.RequireRoles(writers...))
			a.Post("/auth/create-user", h.CreateUser)
			a.Put("/auth/update-users/{user_id}", h.UpdateUser)
			a.Delete("/auth/delete-users/{user_id}", h.DeleteUser)
			a.Post("/auth/create-role", h.CreateRole)
		})

		private.Route("/custom", func(c chi.Router) {
			c.Group(func(read chi.Router) {
				read.Use(httpmiddleware.RequireRoles(readers...))
				read.Get("/filter-by-date", h.FilterByDate)
				read.Get("/filter-trash-by-date", h.FilterTrashByDate)
				read.Get("/filter-by-company", h.FilterByCompany)
				read.Get("/trash-registers", h.TrashRegisters)
				read.Get("/get_records", h.GetRecords)
			})
			c.Group(func(write chi.Router) {
				write.Use(httpmiddleware.RequireRoles(writers...))
				write.Post("/create-table", h.CreateTable)
				write.Post("/create-schema", h.CreateSchema)
				write.Post("/create-column-text", h.CreateColumn(provision.TypeText))
				write.Post("/create-column-number", h.CreateColumn(provision.TypeInteger))
				write.Post("/create-column-float", h.CreateColumn(provision.TypeFloat))
				write.Post("/create-column-date", h.CreateColumn(provision.TypeDate))
				write.Post("/create-column-boolean", h.CreateColumn(provision.TypeBoolean))
				write.Post("/associate-company-with-project", h.AssociateCompany)
				write.Put("/rename-field", h.RenameField)
				write.Put("/update-type-field", h.UpdateTypeField)
				write.Put("/active-register", h.ActiveRegister)
				write.Delete("/delete_record", h.DeleteRecord)
			})
		})

		private.Route("/company", func(c chi.Router) {
			c.With(httpmiddleware.RequireRoles(readers...)).Get("/get-company", h.GetCompany)
			c.With(httpmiddleware.RequireRoles(readers...)).Get("/trash-company", h.TrashCompany)
			c.Group(func(write chi.Router) {
				write.Use(httpmiddleware.RequireRoles(writers...))
				write.Post("/insert-company", h.InsertCompany)
				write.Put("/active-company", h.ActiveCompany)
				write.Put("/update-company", h.UpdateCompany)
				write.Delete("/delete-company", h.DeleteCompany)
			})
		})

		private.Route("/clipping", func(c chi.Router) {
			c.With(httpmiddleware.RequireRoles(readers...)).Get("/get-active-company-clipping", h.ActiveClippingCompanies)
			c.With(httpmiddleware.RequireRoles(readers...)).Get("/get-deactive-company-clipping", h.InactiveClippingCompanies)
			c.With(httpmiddleware.RequireRoles(writers...)).Post("/transfer-active-company", h.TransferCompany)
		})

		private.Route("/file", func(f chi.Router) {
			f.With(httpmiddleware.RequireRoles(writers...)).Post("/upload_file/{table_name}", h.UploadClipping)
			f.With(httpmiddleware.RequireRoles(writers...)).Post("/upload-file-handson/{table_name}", h.UploadHandsOn)
			f.With(httpmiddleware.RequireRoles(readers...)).Get("/export", h.Export)
			f.With(httpmiddleware.RequireRoles(readers...)).Get("/get_data/{schema_name}/{table_name}", h.CombinedData)
		})

		private.Route("/manager", func(m chi.Router) {
			m.Use(httpmiddleware.RequireRoles(owners...))
			m.Delete("/delete-table", h.DeleteTable)
			m.Delete("/delete-schema", h.DeleteSchema)
			m.Delete("/delete-column", h.DeleteColumn)
		})

		private.Route("/developer", func(d chi.Router) {
			d.Use(httpmiddleware.RequireRoles(owners...))
			d.Post("/migrate-company-table", h.MigrateCompanyTable)
		})
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com os dois bancos e o Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "dependências indisponíveis", failed)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
