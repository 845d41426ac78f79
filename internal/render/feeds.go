package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"muckamuck/internal/domain"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func postURL(site *domain.Site, slug string) string {
	return "http://" + site.Domain + "/post/" + slug + ".html"
}

// BuildRSS renders the RSS 2.0 feed for the newest posts. Publish dates
// use the RFC 2822 form feed readers expect; lastBuildDate is the passed
// generation instant, never persisted.
func BuildRSS(site *domain.Site, posts []domain.Post, now time.Time) ([]byte, error) {
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		u := postURL(site, p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        u,
			Description: p.Description,
			PubDate:     p.PublishedAt.Format(time.RFC1123Z),
			GUID:        u,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:         site.Title,
			Link:          "http://" + site.Domain,
			Description:   site.Description,
			Language:      site.Language,
			LastBuildDate: now.Format(time.RFC1123Z),
			Items:         items,
		},
	}
	return encodeXML(feed)
}

// BuildSitemap emits one <url> per non-draft post, lastmod as YYYY-MM-DD.
func BuildSitemap(site *domain.Site, posts []domain.Post) ([]byte, error) {
	urls := make([]sitemapURL, 0, len(posts))
	for _, p := range posts {
		if p.Draft {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:     postURL(site, p.Slug),
			LastMod: p.PublishedAt.Format("2006-01-02"),
		})
	}
	return encodeXML(sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}

// BuildRobots allows all crawling and points crawlers at the sitemap.
func BuildRobots(site *domain.Site) []byte {
	var b bytes.Buffer
	b.WriteString("# www.robotstxt.org/\n")
	fmt.Fprintf(&b, "Sitemap: http://%s/sitemap.xml\n", site.Domain)
	b.WriteString("# Allow crawling of all content\n")
	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow:\n")
	return b.Bytes()
}

func encodeXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
