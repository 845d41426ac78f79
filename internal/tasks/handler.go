package tasks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"muckamuck/internal/domain"
	"muckamuck/internal/render"
)

// ErrUnknownTask is returned for task names the handler has no branch
// for. The queue treats it as permanent and does not retry.
var ErrUnknownTask = errors.New("unknown task")

// Handler executes tasks against the renderer and chains follow-up work.
// The scheduler is injected after construction because the queue that
// implements it also needs the handler to run.
type Handler struct {
	renderer *render.Renderer
	sites    domain.SiteRepository
	posts    domain.PostRepository
	sched    Scheduler
	log      *zap.Logger
}

func NewHandler(r *render.Renderer, sites domain.SiteRepository, posts domain.PostRepository, log *zap.Logger) *Handler {
	return &Handler{renderer: r, sites: sites, posts: posts, log: log}
}

func (h *Handler) SetScheduler(s Scheduler) { h.sched = s }

// Handle runs one task to completion. Errors bubble up to the queue,
// which decides whether to redeliver.
func (h *Handler) Handle(ctx context.Context, t Task) error {
	switch t.Name {
	case InitializeSite:
		return h.initializeSite(ctx, t)
	case WriteThemeFiles:
		if err := h.renderer.WriteThemeAssets(t.SiteID); err != nil {
			return err
		}
		return h.renderer.WriteSiteJSON(t.SiteID)
	case UpdateSite:
		return h.updateSite(t.SiteID)
	case UpdateSiteTag:
		if t.Tag == "" {
			return h.renderer.GenerateAllTagPages(t.SiteID)
		}
		return h.renderer.GenerateTagPages(t.SiteID, t.Tag)
	case RenderPost:
		return h.renderer.GeneratePost(t.PostID)
	case RemovePost:
		return h.renderer.RemovePost(t.SiteID, t.Slug)
	case UpdateUserPages:
		if t.UserID == "" {
			return h.renderer.GenerateAllUserPages(t.SiteID)
		}
		return h.renderer.GenerateUserPages(t.SiteID, t.UserID)
	case ChangeDomain:
		return h.changeDomain(ctx, t)
	case TeardownSite:
		return h.renderer.TeardownSiteTree(t.SiteID, t.Domain)
	case FullRender:
		return h.fullRender(t.SiteID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTask, t.Name)
	}
}

func (h *Handler) initializeSite(ctx context.Context, t Task) error {
	if err := h.renderer.InitSiteTree(t.SiteID); err != nil {
		return err
	}
	if err := h.renderer.BindDomainAlias(t.SiteID); err != nil {
		return err
	}
	if err := h.sched.Schedule(ctx, Task{Name: WriteThemeFiles, SiteID: t.SiteID}); err != nil {
		return err
	}
	return h.sched.Schedule(ctx, Task{Name: UpdateSite, SiteID: t.SiteID})
}

// updateSite refreshes everything that lists posts sitewide: the front
// page, both page sets over the full post list, and the feeds.
func (h *Handler) updateSite(siteID string) error {
	if err := h.renderer.GenerateIndex(siteID); err != nil {
		return err
	}
	if err := h.renderer.GeneratePagination(siteID); err != nil {
		return err
	}
	if err := h.renderer.GenerateArchive(siteID); err != nil {
		return err
	}
	return h.renderer.GenerateFeeds(siteID)
}

// changeDomain is where the domain actually moves: alias off the old
// name, persist the new one, alias back on, then refresh the artifacts
// that embed absolute URLs. Concurrent changes are last-writer-wins.
func (h *Handler) changeDomain(ctx context.Context, t Task) error {
	site, err := h.sites.FindByID(t.SiteID)
	if err != nil {
		return err
	}
	if site.Domain != t.Domain {
		h.renderer.UnbindDomainAlias(site.Domain)
		if err := h.sites.UpdateDomain(t.SiteID, t.Domain); err != nil {
			return err
		}
	}
	if err := h.renderer.BindDomainAlias(t.SiteID); err != nil {
		return err
	}
	return h.sched.Schedule(ctx, Task{Name: UpdateSite, SiteID: t.SiteID})
}

// fullRender rebuilds a site end to end. It is the recovery hammer for
// lost or corrupt trees and the follow-up to template changes, which
// invalidate every rendered page at once.
func (h *Handler) fullRender(siteID string) error {
	if err := h.renderer.InitSiteTree(siteID); err != nil {
		return err
	}
	if err := h.renderer.BindDomainAlias(siteID); err != nil {
		return err
	}
	if err := h.renderer.WriteThemeAssets(siteID); err != nil {
		return err
	}
	if err := h.renderer.WriteSiteJSON(siteID); err != nil {
		return err
	}
	all, err := h.posts.ListBySite(siteID, domain.PostFilter{IncludeDrafts: true}, 0, 0)
	if err != nil {
		return err
	}
	for i := range all {
		if err := h.renderer.GeneratePost(all[i].ID); err != nil {
			return err
		}
	}
	if err := h.updateSite(siteID); err != nil {
		return err
	}
	if err := h.renderer.GenerateAllTagPages(siteID); err != nil {
		return err
	}
	return h.renderer.GenerateAllUserPages(siteID)
}
