package domain

import (
	"strings"
	"time"
)

// Post belongs to exactly one site and one author. Slug is unique within
// the site. Tags are stored comma-wrapped (",a,b,") so a single LIKE/instr
// containment match finds ",tag," without false prefixes.
type Post struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	SiteID      string `gorm:"size:36;index;uniqueIndex:idx_site_slug" json:"siteId"`
	Slug        string `gorm:"size:160;uniqueIndex:idx_site_slug" json:"slug"`
	AuthorID    string `gorm:"size:36;index" json:"authorId"`
	Title       string `gorm:"size:191" json:"title"`
	Body        string `gorm:"type:text" json:"body"`
	Description string `gorm:"size:512" json:"description"`
	Tags        string `gorm:"size:512" json:"-"`

	PublishedAt time.Time `gorm:"index" json:"publishedAt"`
	Draft       bool      `json:"draft"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) TagList() []string {
	trimmed := strings.Trim(p.Tags, ",")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ",")
}

func (p *Post) SetTags(tags []string) {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		p.Tags = ""
		return
	}
	p.Tags = "," + strings.Join(clean, ",") + ","
}

// PostFilter narrows site post listings. Zero value = published posts only.
type PostFilter struct {
	Tag           string
	AuthorID      string
	IncludeDrafts bool
}

type PostRepository interface {
	Create(p *Post) error
	FindByID(id string) (*Post, error)
	FindBySlug(siteID, slug string) (*Post, error)
	// ListBySite returns posts ordered by publish timestamp descending.
	// limit <= 0 means no limit.
	ListBySite(siteID string, f PostFilter, offset, limit int) ([]Post, error)
	CountBySite(siteID string, f PostFilter) (int64, error)
	DistinctTags(siteID string) ([]string, error)
	// CountByTitle feeds the slug-collision disambiguator.
	CountByTitle(siteID, title string) (int64, error)
	Update(p *Post) error
	Delete(id string) error
	DeleteBySite(siteID string) error
}
