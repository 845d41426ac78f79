package tasks

import (
	"context"

	"muckamuck/internal/domain"
)

// Events translates content mutations into the minimal set of tasks that
// bring artifacts back in sync. Transport handlers call these after the
// database write commits; the render work itself happens on workers.
type Events struct {
	sched Scheduler
}

func NewEvents(s Scheduler) *Events { return &Events{sched: s} }

func (e *Events) SiteCreated(ctx context.Context, siteID string) error {
	return e.sched.Schedule(ctx, Task{Name: InitializeSite, SiteID: siteID})
}

// SiteInfoChanged covers title, description and language edits, which
// appear on every rendered page and in the feeds.
func (e *Events) SiteInfoChanged(ctx context.Context, siteID string) error {
	if err := e.sched.Schedule(ctx, Task{Name: WriteThemeFiles, SiteID: siteID}); err != nil {
		return err
	}
	return e.sched.Schedule(ctx, Task{Name: UpdateSite, SiteID: siteID})
}

// ThemeChanged invalidates every page at once, so it triggers a full
// rebuild rather than trying to enumerate what the template touches.
func (e *Events) ThemeChanged(ctx context.Context, siteID string) error {
	return e.sched.Schedule(ctx, Task{Name: FullRender, SiteID: siteID})
}

func (e *Events) DomainChanged(ctx context.Context, siteID, newDomain string) error {
	return e.sched.Schedule(ctx, Task{Name: ChangeDomain, SiteID: siteID, Domain: newDomain})
}

func (e *Events) MemberAdded(ctx context.Context, siteID, userID string) error {
	return e.sched.Schedule(ctx, Task{Name: UpdateUserPages, SiteID: siteID, UserID: userID})
}

// ProfileChanged refreshes one site's author pages after a profile edit;
// callers loop over every site the user belongs to.
func (e *Events) ProfileChanged(ctx context.Context, siteID, userID string) error {
	return e.sched.Schedule(ctx, Task{Name: UpdateUserPages, SiteID: siteID, UserID: userID})
}

// PostSaved handles both creates and edits. prevTags is the tag list
// before the edit (empty on create): page sets for tags the post left
// must rebuild too, or they keep listing it.
func (e *Events) PostSaved(ctx context.Context, p *domain.Post, prevTags []string) error {
	if err := e.sched.Schedule(ctx, Task{Name: RenderPost, SiteID: p.SiteID, PostID: p.ID}); err != nil {
		return err
	}
	if err := e.sched.Schedule(ctx, Task{Name: UpdateSite, SiteID: p.SiteID}); err != nil {
		return err
	}
	if err := e.sched.Schedule(ctx, Task{Name: UpdateUserPages, SiteID: p.SiteID, UserID: p.AuthorID}); err != nil {
		return err
	}
	for _, tag := range tagUnion(p.TagList(), prevTags) {
		if err := e.sched.Schedule(ctx, Task{Name: UpdateSiteTag, SiteID: p.SiteID, Tag: tag}); err != nil {
			return err
		}
	}
	return nil
}

// PostDeleted takes the coordinates of the already-deleted row.
func (e *Events) PostDeleted(ctx context.Context, siteID, slug, authorID string, tags []string) error {
	if err := e.sched.Schedule(ctx, Task{Name: RemovePost, SiteID: siteID, Slug: slug}); err != nil {
		return err
	}
	if err := e.sched.Schedule(ctx, Task{Name: UpdateSite, SiteID: siteID}); err != nil {
		return err
	}
	if err := e.sched.Schedule(ctx, Task{Name: UpdateUserPages, SiteID: siteID, UserID: authorID}); err != nil {
		return err
	}
	// An empty tag rebuilds the whole tag tree, which is what removes the
	// page set for a tag this was the last post of.
	return e.sched.Schedule(ctx, Task{Name: UpdateSiteTag, SiteID: siteID})
}

// SiteDeleted runs after the site row and its posts are gone; the task
// carries the domain because nothing can look it up anymore.
func (e *Events) SiteDeleted(ctx context.Context, siteID, domain string) error {
	return e.sched.Schedule(ctx, Task{Name: TeardownSite, SiteID: siteID, Domain: domain})
}

func tagUnion(a, b []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(a)+len(b))
	for _, t := range append(append([]string{}, a...), b...) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
