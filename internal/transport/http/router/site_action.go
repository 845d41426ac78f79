package router

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"muckamuck/internal/core/cache"
	"muckamuck/internal/domain"
	"muckamuck/internal/render"
	httpez "muckamuck/internal/transport/http/ez"
	"muckamuck/pkg/utils"
)

type siteOut struct {
	ID          string `json:"id"`
	Domain      string `json:"domain"`
	OwnerID     string `json:"ownerId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	CreatedAt   string `json:"createdAt"`
}

func toSiteOut(s *domain.Site) siteOut {
	return siteOut{
		ID: s.ID, Domain: s.Domain, OwnerID: s.OwnerID,
		Title: s.Title, Description: s.Description, Language: s.Language,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

// requireMember loads the site and checks the caller belongs to it.
func requireMember(d Deps, siteID, userID string) (*domain.Site, error) {
	site, err := d.Sites.FindByID(siteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httpez.NotFound("site not found")
		}
		return nil, httpez.Internal("db error", err)
	}
	if site.OwnerID == userID {
		return site, nil
	}
	ok, err := d.Sites.IsMember(siteID, userID)
	if err != nil {
		return nil, httpez.Internal("db error", err)
	}
	if !ok {
		return nil, httpez.Forbidden("not a member of this site")
	}
	return site, nil
}

func mountSiteActions(api, authed *gin.RouterGroup, d Deps) {
	ezPublic := httpez.New(api)
	ezAuth := httpez.New(authed)

	type createIn struct {
		Title       string `json:"title"       binding:"required,max=191"`
		Description string `json:"description" binding:"omitempty,max=512"`
		Language    string `json:"language"    binding:"omitempty,max=16"`
		Subdomain   string `json:"subdomain"   binding:"omitempty,max=63"`
	}
	httpez.RegisterAction(ezAuth, httpez.Action[createIn, siteOut]{
		Method: http.MethodPost,
		Path:   "/sites",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *createIn) (siteOut, error) {
			uid := c.GetString("userId")
			sub := in.Subdomain
			if sub == "" {
				sub = in.Title
			}
			sub = utils.Sluggify(sub)
			if sub == "" {
				return siteOut{}, httpez.BadRequest("cannot derive a subdomain")
			}
			lang := in.Language
			if lang == "" {
				lang = "en-us"
			}
			site := &domain.Site{
				ID:            utils.NewID(),
				Domain:        sub + "." + d.BaseDomain,
				OwnerID:       uid,
				Title:         in.Title,
				Description:   in.Description,
				Language:      lang,
				ThemeTemplate: render.DefaultTemplate,
				ThemeCSS:      render.DefaultCSS,
				ThemeJS:       render.DefaultJS,
			}
			if err := d.Sites.Create(site); err != nil {
				if errors.Is(err, domain.ErrDuplicate) {
					return siteOut{}, httpez.Conflict("domain already taken")
				}
				return siteOut{}, httpez.Internal("create site failed", err)
			}
			if err := d.Sites.AddMember(site.ID, uid); err != nil {
				return siteOut{}, httpez.Internal("add owner membership failed", err)
			}
			if err := d.Events.SiteCreated(c, site.ID); err != nil {
				return siteOut{}, httpez.Internal("schedule failed", err)
			}
			return toSiteOut(site), nil
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[struct{}, []siteOut]{
		Method: http.MethodGet,
		Path:   "/sites",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]siteOut, error) {
			sites, err := d.Sites.ListMemberSites(c.GetString("userId"))
			if err != nil {
				return nil, httpez.Internal("list sites failed", err)
			}
			out := make([]siteOut, 0, len(sites))
			for i := range sites {
				out = append(out, toSiteOut(&sites[i]))
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[struct{}, siteOut]{
		Method: http.MethodGet,
		Path:   "/sites/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (siteOut, error) {
			site, err := requireMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return siteOut{}, err
			}
			return toSiteOut(site), nil
		},
	})

	type infoIn struct {
		Title       string `json:"title"       binding:"required,max=191"`
		Description string `json:"description" binding:"omitempty,max=512"`
		Language    string `json:"language"    binding:"omitempty,max=16"`
	}
	httpez.RegisterAction(ezAuth, httpez.Action[infoIn, siteOut]{
		Method: http.MethodPut,
		Path:   "/sites/:id/info",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *infoIn) (siteOut, error) {
			site, err := requireMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return siteOut{}, err
			}
			site.Title = in.Title
			site.Description = in.Description
			if in.Language != "" {
				site.Language = in.Language
			}
			if err := d.Sites.Update(site); err != nil {
				return siteOut{}, httpez.Internal("update site failed", err)
			}
			if err := d.Events.SiteInfoChanged(c, site.ID); err != nil {
				return siteOut{}, httpez.Internal("schedule failed", err)
			}
			return toSiteOut(site), nil
		},
	})

	type themeIn struct {
		Template string `json:"template" binding:"required"`
		CSS      string `json:"css"`
		JS       string `json:"js"`
	}
	httpez.RegisterAction(ezAuth, httpez.Action[themeIn, gin.H]{
		Method: http.MethodPut,
		Path:   "/sites/:id/theme",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *themeIn) (gin.H, error) {
			site, err := requireMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return nil, err
			}
			// reject templates that cannot render before persisting them
			probe := render.NewHandlebars()
			if _, err := probe.Render(in.Template, map[string]any{}); err != nil {
				return nil, httpez.BadRequest("template does not compile: " + err.Error())
			}
			site.ThemeTemplate = in.Template
			site.ThemeCSS = in.CSS
			site.ThemeJS = in.JS
			if err := d.Sites.Update(site); err != nil {
				return nil, httpez.Internal("update site failed", err)
			}
			if err := d.Events.ThemeChanged(c, site.ID); err != nil {
				return nil, httpez.Internal("schedule failed", err)
			}
			return gin.H{"id": site.ID}, nil
		},
	})

	type domainIn struct {
		Domain string `json:"domain" binding:"required,max=191"`
	}
	httpez.RegisterAction(ezAuth, httpez.Action[domainIn, gin.H]{
		Method: http.MethodPut,
		Path:   "/sites/:id/domain",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *domainIn) (gin.H, error) {
			site, err := requireMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return nil, err
			}
			newDomain := utils.CleanDomain(in.Domain)
			if newDomain == "" {
				return nil, httpez.BadRequest("invalid domain")
			}
			if newDomain == site.Domain {
				return gin.H{"id": site.ID, "domain": newDomain}, nil
			}
			// early uniqueness check for UX; the unique index still backs
			// it up when two requests race
			if other, err := d.Sites.FindByDomain(newDomain); err == nil && other.ID != site.ID {
				return nil, httpez.Conflict("domain already taken")
			} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, httpez.Internal("db error", err)
			}
			if err := d.Events.DomainChanged(c, site.ID, newDomain); err != nil {
				return nil, httpez.Internal("schedule failed", err)
			}
			return gin.H{"id": site.ID, "domain": newDomain}, nil
		},
	})

	type memberIn struct {
		Email string `json:"email" binding:"required,email"`
	}
	httpez.RegisterAction(ezAuth, httpez.Action[memberIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/sites/:id/members",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *memberIn) (gin.H, error) {
			site, err := requireMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return nil, err
			}
			u, err := d.Users.FindByEmail(strings.ToLower(strings.TrimSpace(in.Email)))
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, httpez.NotFound("no user with that email")
				}
				return nil, httpez.Internal("db error", err)
			}
			if err := d.Sites.AddMember(site.ID, u.ID); err != nil && !errors.Is(err, domain.ErrDuplicate) {
				return nil, httpez.Internal("add member failed", err)
			}
			if err := d.Events.MemberAdded(c, site.ID, u.ID); err != nil {
				return nil, httpez.Internal("schedule failed", err)
			}
			return gin.H{"siteId": site.ID, "userId": u.ID}, nil
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[struct{}, []userOut]{
		Method: http.MethodGet,
		Path:   "/sites/:id/members",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]userOut, error) {
			site, err := requireMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return nil, err
			}
			members, err := d.Sites.ListMembers(site.ID)
			if err != nil {
				return nil, httpez.Internal("list members failed", err)
			}
			out := make([]userOut, 0, len(members))
			for i := range members {
				out = append(out, toUserOut(&members[i]))
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/sites/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			site, err := requireMember(d, c.Param("id"), c.GetString("userId"))
			if err != nil {
				return nil, err
			}
			if site.OwnerID != c.GetString("userId") {
				return nil, httpez.Forbidden("only the owner can delete a site")
			}
			// capture the domain before the row disappears; the teardown
			// task needs it to unbind the alias
			siteDomain := site.Domain
			if err := d.Posts.DeleteBySite(site.ID); err != nil {
				return nil, httpez.Internal("delete posts failed", err)
			}
			if err := d.Sites.Delete(site.ID); err != nil {
				return nil, httpez.Internal("delete site failed", err)
			}
			if err := d.Events.SiteDeleted(c, site.ID, siteDomain); err != nil {
				return nil, httpez.Internal("schedule failed", err)
			}
			return gin.H{"id": site.ID}, nil
		},
	})

	// Public domain-to-site resolution for the serving edge. Cached hard
	// because it sits on every cold request path.
	type resolveQ struct {
		Domain string `form:"domain" binding:"required"`
	}
	httpez.RegisterAction(ezPublic, httpez.Action[resolveQ, siteOut]{
		Method: http.MethodGet,
		Path:   "/resolve",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *resolveQ) (siteOut, error) {
			name := utils.CleanDomain(in.Domain)
			if name == "" {
				return siteOut{}, httpez.BadRequest("invalid domain")
			}
			site, err := cache.GetOrLoadJSON(d.Cache, c, "resolve:"+name, 30*time.Second,
				func(ctx context.Context) (*domain.Site, error) {
					return d.Sites.FindByDomain(name)
				})
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return siteOut{}, httpez.NotFound("unknown domain")
				}
				return siteOut{}, httpez.Internal("resolve failed", err)
			}
			return toSiteOut(site), nil
		},
	})
}
