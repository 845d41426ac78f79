package render

import (
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"muckamuck/internal/domain"
)

// Config carries the knobs the pipeline used to read from ambient globals.
type Config struct {
	PageSize      int // posts per pagination/archive/tag/user page
	FeedItemLimit int // newest posts included in rss.xml
}

func (c *Config) setDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	if c.FeedItemLimit <= 0 {
		c.FeedItemLimit = 20
	}
}

// Renderer produces every artifact a site serves. All operations are
// idempotent full overwrites: running one twice against unchanged content
// converges on byte-identical files, which is what makes unordered
// at-least-once task delivery safe without locks.
type Renderer struct {
	cfg    Config
	layout Layout
	fs     *FS
	sites  domain.SiteRepository
	posts  domain.PostRepository
	users  domain.UserRepository
	tpl    TemplateRenderer
	log    *zap.Logger

	// Now feeds rss lastBuildDate; swapped out in tests.
	Now func() time.Time
}

func NewRenderer(
	cfg Config,
	layout Layout,
	sites domain.SiteRepository,
	posts domain.PostRepository,
	users domain.UserRepository,
	tpl TemplateRenderer,
	log *zap.Logger,
) *Renderer {
	cfg.setDefaults()
	return &Renderer{
		cfg:    cfg,
		layout: layout,
		fs:     NewFS(log),
		sites:  sites,
		posts:  posts,
		users:  users,
		tpl:    tpl,
		log:    log,
		Now:    time.Now,
	}
}

func (r *Renderer) Layout() Layout { return r.layout }

// ---- site tree lifecycle ----

// InitSiteTree creates the id-addressed root and every required subdir.
// Pre-existing directories are fine.
func (r *Renderer) InitSiteTree(siteID string) error {
	if err := r.fs.EnsureDir(r.layout.SiteDir(siteID)); err != nil {
		return err
	}
	for _, dir := range r.layout.SiteSubdirs(siteID) {
		if err := r.fs.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// BindDomainAlias links the site's current domain to its id root.
// Races are swallowed (see FS.BindAlias).
func (r *Renderer) BindDomainAlias(siteID string) error {
	site, err := r.sites.FindByID(siteID)
	if err != nil {
		return err
	}
	r.fs.BindAlias(r.layout.SiteDir(siteID), r.layout.DomainAlias(site.Domain))
	return nil
}

// UnbindDomainAlias removes the alias for a domain name. Takes the name
// rather than a site id because on domain changes and teardown the site
// row no longer carries (or no longer exists under) the old domain.
func (r *Renderer) UnbindDomainAlias(domain string) {
	r.fs.UnbindAlias(r.layout.DomainAlias(domain))
}

// TeardownSiteTree removes the alias and the whole id-addressed tree.
func (r *Renderer) TeardownSiteTree(siteID, domain string) error {
	r.fs.UnbindAlias(r.layout.DomainAlias(domain))
	return r.fs.RemoveAll(r.layout.SiteDir(siteID))
}

// ---- theme assets ----

func (r *Renderer) WriteThemeAssets(siteID string) error {
	site, err := r.sites.FindByID(siteID)
	if err != nil {
		return err
	}
	if err := r.fs.WriteFile(r.layout.CSSPath(siteID), []byte(site.ThemeCSS)); err != nil {
		return err
	}
	if err := r.fs.WriteFile(r.layout.JSPath(siteID), []byte(site.ThemeJS)); err != nil {
		return err
	}
	return r.fs.WriteFile(r.layout.TemplatePath(siteID), []byte(site.ThemeTemplate))
}

// WriteSiteJSON publishes the site's public metadata as json/site.json.
func (r *Renderer) WriteSiteJSON(siteID string) error {
	site, err := r.sites.FindByID(siteID)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(siteContext(site), "", "    ")
	if err != nil {
		return err
	}
	return r.fs.WriteFile(r.layout.SiteJSONPath(siteID), append(b, '\n'))
}

// ---- single post ----

// GeneratePost renders one post artifact. A draft post produces no
// artifact; any previously published file for its slug is removed.
func (r *Renderer) GeneratePost(postID string) error {
	post, err := r.posts.FindByID(postID)
	if err != nil {
		return err
	}
	site, err := r.sites.FindByID(post.SiteID)
	if err != nil {
		return err
	}
	if post.Draft {
		return r.fs.DeleteFile(r.layout.PostPath(site.ID, post.Slug))
	}
	author := r.lookupAuthor(post.AuthorID)
	out, err := r.tpl.Render(site.ThemeTemplate, map[string]any{
		"site": siteContext(site),
		"post": postContext(post, author),
	})
	if err != nil {
		return err
	}
	return r.fs.WriteFile(r.layout.PostPath(site.ID, post.Slug), []byte(out))
}

// RemovePost deletes a post artifact by slug. The post row is usually
// already gone, so this takes the coordinates directly.
func (r *Renderer) RemovePost(siteID, slug string) error {
	return r.fs.DeleteFile(r.layout.PostPath(siteID, slug))
}

// ---- index ----

func (r *Renderer) GenerateIndex(siteID string) error {
	site, err := r.sites.FindByID(siteID)
	if err != nil {
		return err
	}
	published, err := r.posts.ListBySite(siteID, domain.PostFilter{}, 0, 0)
	if err != nil {
		return err
	}
	page := Page{Number: 1}
	if pages := Paginate(published, r.cfg.PageSize); len(pages) > 0 {
		page = pages[0]
	}
	out, err := r.renderPage(site, page, "")
	if err != nil {
		return err
	}
	return r.fs.WriteFile(r.layout.IndexPath(siteID), []byte(out))
}

// ---- page sets (paginate / archive / tag / user) ----

// GeneratePagination rebuilds the paginate directory from scratch.
func (r *Renderer) GeneratePagination(siteID string) error {
	return r.writePageSet(siteID, r.layout.PaginateDir(siteID), "", domain.PostFilter{})
}

// GenerateArchive rebuilds the archive directory from scratch.
func (r *Renderer) GenerateArchive(siteID string) error {
	return r.writePageSet(siteID, r.layout.ArchiveDir(siteID), "Archive", domain.PostFilter{})
}

// GenerateTagPages rebuilds the page set for one tag.
func (r *Renderer) GenerateTagPages(siteID, tag string) error {
	title := "Posts Tagged With " + tag
	return r.writePageSet(siteID, r.layout.TagDir(siteID, tag), title, domain.PostFilter{Tag: tag})
}

// GenerateAllTagPages clears the whole tag tree and rebuilds a page set
// for every tag currently in use, so tags that disappeared leave nothing
// behind.
func (r *Renderer) GenerateAllTagPages(siteID string) error {
	if err := r.fs.RemoveAll(r.layout.TagsDir(siteID)); err != nil {
		return err
	}
	if err := r.fs.EnsureDir(r.layout.TagsDir(siteID)); err != nil {
		return err
	}
	tags, err := r.posts.DistinctTags(siteID)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if err := r.GenerateTagPages(siteID, tag); err != nil {
			return err
		}
	}
	return nil
}

// GenerateUserPages rebuilds the per-author page set for one member.
func (r *Renderer) GenerateUserPages(siteID, userID string) error {
	title := "Posts"
	if author := r.lookupAuthor(userID); author != nil {
		title = "Posts By " + author.Name
	}
	return r.writePageSet(siteID, r.layout.UserDir(siteID, userID), title, domain.PostFilter{AuthorID: userID})
}

func (r *Renderer) GenerateAllUserPages(siteID string) error {
	members, err := r.sites.ListMembers(siteID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if err := r.GenerateUserPages(siteID, m.ID); err != nil {
			return err
		}
	}
	return nil
}

// writePageSet is the delete-then-rebuild primitive behind every
// multi-page artifact set: clear the output directory, paginate the
// filtered post list, write {n}.html per page plus the index.html alias
// for page 1. Shrinking post counts can never orphan stale pages.
func (r *Renderer) writePageSet(siteID, dir, title string, f domain.PostFilter) error {
	site, err := r.sites.FindByID(siteID)
	if err != nil {
		return err
	}
	published, err := r.posts.ListBySite(siteID, f, 0, 0)
	if err != nil {
		return err
	}
	if err := r.fs.RemoveAll(dir); err != nil {
		return err
	}
	if err := r.fs.EnsureDir(dir); err != nil {
		return err
	}
	for _, page := range Paginate(published, r.cfg.PageSize) {
		out, err := r.renderPage(site, page, title)
		if err != nil {
			return err
		}
		name := dir + "/" + strconv.Itoa(page.Number) + ".html"
		if err := r.fs.WriteFile(name, []byte(out)); err != nil {
			return err
		}
		if page.Number == 1 {
			if err := r.fs.WriteFile(dir+"/index.html", []byte(out)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ---- feeds ----

func (r *Renderer) GenerateRSS(siteID string) error {
	site, err := r.sites.FindByID(siteID)
	if err != nil {
		return err
	}
	newest, err := r.posts.ListBySite(siteID, domain.PostFilter{}, 0, r.cfg.FeedItemLimit)
	if err != nil {
		return err
	}
	b, err := BuildRSS(site, newest, r.Now())
	if err != nil {
		return err
	}
	return r.fs.WriteFile(r.layout.RSSPath(siteID), b)
}

func (r *Renderer) GenerateSitemap(siteID string) error {
	site, err := r.sites.FindByID(siteID)
	if err != nil {
		return err
	}
	published, err := r.posts.ListBySite(siteID, domain.PostFilter{}, 0, 0)
	if err != nil {
		return err
	}
	b, err := BuildSitemap(site, published)
	if err != nil {
		return err
	}
	return r.fs.WriteFile(r.layout.SitemapPath(siteID), b)
}

func (r *Renderer) GenerateRobots(siteID string) error {
	site, err := r.sites.FindByID(siteID)
	if err != nil {
		return err
	}
	return r.fs.WriteFile(r.layout.RobotsPath(siteID), BuildRobots(site))
}

// GenerateFeeds rebuilds rss/sitemap/robots. The three are independent of
// each other, so they run in parallel.
func (r *Renderer) GenerateFeeds(siteID string) error {
	var g errgroup.Group
	g.Go(func() error { return r.GenerateRSS(siteID) })
	g.Go(func() error { return r.GenerateSitemap(siteID) })
	g.Go(func() error { return r.GenerateRobots(siteID) })
	return g.Wait()
}

// ---- helpers ----

func (r *Renderer) renderPage(site *domain.Site, page Page, title string) (string, error) {
	authors := map[string]*domain.User{}
	for i := range page.Posts {
		id := page.Posts[i].AuthorID
		if _, ok := authors[id]; !ok {
			authors[id] = r.lookupAuthor(id)
		}
	}
	return r.tpl.Render(site.ThemeTemplate, pageContext(site, page, title, authors))
}

// lookupAuthor tolerates missing users: a deleted author degrades the
// byline, it does not fail the artifact.
func (r *Renderer) lookupAuthor(userID string) *domain.User {
	u, err := r.users.FindByID(userID)
	if err != nil {
		r.log.Debug("author lookup failed", zap.String("user", userID), zap.Error(err))
		return nil
	}
	return u
}
