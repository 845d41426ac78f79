package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"muckamuck/internal/core/auth"
	"muckamuck/internal/core/server"
	"muckamuck/internal/domain"
	"muckamuck/internal/tasks"
	httpez "muckamuck/internal/transport/http/ez"
	mdw "muckamuck/internal/transport/http/middleware"
)

// NewAdminEngine serves the operator surface: user/site administration,
// manually triggered rebuilds, and the Prometheus scrape endpoint.
func NewAdminEngine(l *zap.Logger, jwter *auth.JWTer, users domain.UserRepository, sites domain.SiteRepository, events *tasks.Events) *gin.Engine {
	r := server.NewRouter(l)
	r.Use(mdw.RequestID(), mdw.Metrics())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, "admin"))

	MountAllAdmin(admin)

	ezAdmin := httpez.New(admin)

	type pageQ struct {
		Offset int `form:"offset,default=0"`
		Limit  int `form:"limit,default=20"`
	}

	type userRow struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	type userListOut struct {
		Total int64     `json:"total"`
		Items []userRow `json:"items"`
	}
	httpez.RegisterAction(ezAdmin, httpez.Action[pageQ, userListOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *pageQ) (userListOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			us, total, err := users.List(in.Offset, in.Limit)
			if err != nil {
				return userListOut{}, httpez.Internal("list users failed", err)
			}
			out := userListOut{Total: total, Items: make([]userRow, 0, len(us))}
			for _, u := range us {
				out.Items = append(out.Items, userRow{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ezAdmin, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, httpez.BadRequest("missing id")
			}
			if err := users.SoftDelete(id); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, httpez.NotFound("user not found")
				}
				return nil, httpez.Internal("ban user failed", err)
			}
			return gin.H{"id": id}, nil
		},
	})

	type siteRow struct {
		ID     string `json:"id"`
		Domain string `json:"domain"`
		Owner  string `json:"ownerId"`
		Title  string `json:"title"`
	}
	type siteListOut struct {
		Total int64     `json:"total"`
		Items []siteRow `json:"items"`
	}
	httpez.RegisterAction(ezAdmin, httpez.Action[pageQ, siteListOut]{
		Method: http.MethodGet,
		Path:   "/sites",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *pageQ) (siteListOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			ss, total, err := sites.List(in.Offset, in.Limit)
			if err != nil {
				return siteListOut{}, httpez.Internal("list sites failed", err)
			}
			out := siteListOut{Total: total, Items: make([]siteRow, 0, len(ss))}
			for _, s := range ss {
				out.Items = append(out.Items, siteRow{ID: s.ID, Domain: s.Domain, Owner: s.OwnerID, Title: s.Title})
			}
			return out, nil
		},
	})

	// operator escape hatch: rebuild one site's artifacts from scratch
	httpez.RegisterAction(ezAdmin, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/sites/:id/full_render",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if _, err := sites.FindByID(id); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, httpez.NotFound("site not found")
				}
				return nil, httpez.Internal("db error", err)
			}
			if err := events.ThemeChanged(c, id); err != nil {
				return nil, httpez.Internal("schedule failed", err)
			}
			return gin.H{"id": id, "scheduled": "full_render"}, nil
		},
	})

	return r
}
