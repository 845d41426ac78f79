package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"muckamuck/internal/core/auth"
	"muckamuck/internal/core/cache"
	"muckamuck/internal/domain"
	"muckamuck/internal/tasks"
	mdw "muckamuck/internal/transport/http/middleware"
)

// Deps is everything the API handlers reach for. Handlers go through the
// repositories; render work is scheduled through Events, never executed
// in a request.
type Deps struct {
	Log    *zap.Logger
	JWTer  *auth.JWTer
	Users  domain.UserRepository
	Sites  domain.SiteRepository
	Posts  domain.PostRepository
	Events *tasks.Events
	Cache  *cache.Cache

	// BaseDomain is the suffix for generated site domains, e.g. a site
	// created with subdomain "my-blog" serves at my-blog.<BaseDomain>.
	BaseDomain string
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	api := r.Group("/api/v1")

	MountAllAPI(api)

	// authenticated group; everything below it can read userId
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWTer, ""))

	mountAuthActions(api, authed, d)
	mountSiteActions(api, authed, d)
	mountPostActions(authed, d)

	return r
}
