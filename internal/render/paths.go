// Package render is the site artifact build pipeline: it maps entity state
// (sites, posts, members) onto a directory of fully recomputed, servable
// files. Artifacts are never patched in place; every write replaces a
// complete file and every multi-page set is deleted and rebuilt.
package render

import "path/filepath"

// Layout resolves (site id, artifact kind, key) to filesystem locations.
// Two trees hang off Root: an id-addressed tree that never moves when a
// site's domain changes, and a domain-addressed alias tree of symlinks
// used to route public requests by hostname.
//
//	{root}/site/id/{siteID}/...        content
//	{root}/site/domain/{domain}        symlink -> ../id/{siteID}
//
// All methods are pure and never fail.
type Layout struct {
	Root string
}

func (l Layout) SitesDir() string   { return filepath.Join(l.Root, "site") }
func (l Layout) ByIDDir() string    { return filepath.Join(l.Root, "site", "id") }
func (l Layout) ByDomainDir() string { return filepath.Join(l.Root, "site", "domain") }

func (l Layout) SiteDir(siteID string) string {
	return filepath.Join(l.ByIDDir(), siteID)
}

func (l Layout) DomainAlias(domain string) string {
	return filepath.Join(l.ByDomainDir(), domain)
}

func (l Layout) PostDir(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "post")
}

func (l Layout) PostPath(siteID, slug string) string {
	return filepath.Join(l.PostDir(siteID), slug+".html")
}

func (l Layout) TagsDir(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "tag")
}

func (l Layout) TagDir(siteID, tag string) string {
	return filepath.Join(l.TagsDir(siteID), tag)
}

func (l Layout) PaginateDir(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "paginate")
}

func (l Layout) ArchiveDir(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "archive")
}

func (l Layout) UsersDir(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "user")
}

func (l Layout) UserDir(siteID, userID string) string {
	return filepath.Join(l.UsersDir(siteID), userID)
}

func (l Layout) ImageDir(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "img")
}

func (l Layout) PodcastDir(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "podcast")
}

func (l Layout) JSONDir(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "json")
}

func (l Layout) SiteJSONPath(siteID string) string {
	return filepath.Join(l.JSONDir(siteID), "site.json")
}

func (l Layout) IndexPath(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "index.html")
}

func (l Layout) RSSPath(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "rss.xml")
}

func (l Layout) SitemapPath(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "sitemap.xml")
}

func (l Layout) RobotsPath(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "robots.txt")
}

func (l Layout) CSSPath(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "main.css")
}

func (l Layout) JSPath(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "main.js")
}

func (l Layout) TemplatePath(siteID string) string {
	return filepath.Join(l.SiteDir(siteID), "template.hbs")
}

// SiteSubdirs lists the directories created when a site tree is
// initialized. Creation is idempotent.
func (l Layout) SiteSubdirs(siteID string) []string {
	return []string{
		l.PostDir(siteID),
		l.TagsDir(siteID),
		l.PaginateDir(siteID),
		l.ArchiveDir(siteID),
		l.UsersDir(siteID),
		l.ImageDir(siteID),
		l.PodcastDir(siteID),
		l.JSONDir(siteID),
	}
}
