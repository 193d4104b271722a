package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/farmdesk/internal/auth"
	"github.com/gestaozabele/farmdesk/internal/config"
	"github.com/gestaozabele/farmdesk/internal/farmdata"
	httpmiddleware "github.com/gestaozabele/farmdesk/internal/http/middleware"
	"github.com/gestaozabele/farmdesk/internal/session"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	cfg           *config.Config
	facade        *farmdata.Facade
	redis         *redis.Client
	publicLimiter *httpmiddleware.RateLimiter
	loginLimiter  *httpmiddleware.RateLimiter
	userLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado. redisClient é opcional e só entra no /ready.
func NewRouter(cfg *config.Config, facade *farmdata.Facade, manager *auth.Manager, sessions session.Backend, redisClient *redis.Client) (http.Handler, error) {
	if facade == nil || manager == nil || sessions == nil {
		return nil, errors.New("router: facade, manager e sessões são obrigatórios")
	}

	h := &Handler{
		cfg:           cfg,
		facade:        facade,
		redis:         redisClient,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		loginLimiter:  httpmiddleware.NewRateLimiter(cfg.RateLimitLogin.RequestsPerSecond, cfg.RateLimitLogin.Burst),
		userLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitUser.RequestsPerSecond, cfg.RateLimitUser.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))
	r.Use(httpmiddleware.Session(manager, sessions))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Get("/db/status", h.DBStatus)

		public.Route("/auth", func(a chi.Router) {
			a.With(httpmiddleware.IPRateLimit(h.loginLimiter)).Post("/login", h.Login)
			a.With(httpmiddleware.IPRateLimit(h.loginLimiter)).Post("/signup", h.Signup)
			a.Post("/logout", h.Logout)
			a.Post("/refresh", h.Refresh)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.RequireAuth)
		private.Use(httpmiddleware.UserRateLimit(h.userLimiter))

		private.Get("/me", h.Me)
		private.Get("/db/tables", h.DBTables)

		viewer := httpmiddleware.RequireRole(auth.RoleViewer)
		editor := httpmiddleware.RequireRole(auth.RoleUser)

		private.Route("/farms", func(f chi.Router) {
			f.With(viewer).Get("/", h.ListFarms)
			f.With(editor).Post("/", h.CreateFarm)
			f.With(viewer).Get("/code/{code}", h.GetFarmByCode)

			f.Route("/{uuid}", func(farm chi.Router) {
				farm.With(viewer).Get("/", h.GetFarmData)
				farm.With(editor).Patch("/", h.UpdateFarm)
				farm.With(viewer).Get("/general", h.GetGeneralInfo)
				farm.With(viewer).Get("/technical", h.GetTechnicalDetails)
				farm.With(viewer).Get("/contracts", h.GetContractsAdmin)
				farm.With(viewer).Get("/performance", h.GetPerformanceData)
				farm.With(editor).Put("/satellites/{table}", h.UpsertSatellite)
				farm.With(viewer).Get("/referents", h.ListReferents)
				farm.With(viewer).Get("/referents/{role}", h.GetReferent)
				farm.With(editor).Put("/referents/{role}", h.SetReferent)
				farm.With(viewer).Get("/services", h.ListServiceCompanies)
				farm.With(viewer).Get("/services/{role}", h.GetServiceCompany)
				farm.With(editor).Put("/services/{role}", h.SetServiceCompany)
			})
		})

		private.Route("/persons", func(p chi.Router) {
			p.With(viewer).Get("/", h.ListPersons)
			p.With(editor).Post("/", h.CreatePerson)
		})

		private.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireRole(auth.RoleAdmin))

			admin.Route("/tables/{table}", func(t chi.Router) {
				t.Get("/", h.QueryTable)
				t.Post("/", h.InsertTable)
				t.Patch("/", h.UpdateTable)
				t.Delete("/", h.DeleteTable)
			})
		})
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida o backend de dados e, quando configurado, o Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.facade.Adapter().Ping(ctx)
	var redisErr error
	if h.redis != nil {
		redisErr = h.redis.Ping(ctx).Err()
	}

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// DBStatus informa tipo de backend, conectividade e latência.
func (h *Handler) DBStatus(w http.ResponseWriter, r *http.Request) {
	st := h.facade.Status(r.Context())
	if !st.Connected {
		WriteEnvelope(w, http.StatusServiceUnavailable, st, &ErrorBody{Code: "UNAVAILABLE", Message: "backend indisponível"})
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

// DBTables lista as tabelas com contagem de colunas e linhas.
func (h *Handler) DBTables(w http.ResponseWriter, r *http.Request) {
	stats, err := h.facade.TableStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "corpo vazio", nil)
			return false
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return false
	}
	return true
}
