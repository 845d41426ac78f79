package domain

import "time"

// Site is one tenant's blog. Domain is globally unique and is the only key
// by which public requests resolve to a site's artifact tree.
type Site struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Domain      string `gorm:"uniqueIndex;size:191" json:"domain"`
	OwnerID     string `gorm:"size:36;index" json:"ownerId"`
	Title       string `gorm:"size:191" json:"title"`
	Description string `gorm:"size:512" json:"description"`
	Language    string `gorm:"size:16;default:en-us" json:"language"`

	// Theme: one handlebars template renders every templated artifact,
	// main.css/main.js are copied out verbatim.
	ThemeTemplate string `gorm:"type:text" json:"themeTemplate"`
	ThemeCSS      string `gorm:"type:text" json:"themeCss"`
	ThemeJS       string `gorm:"type:text" json:"themeJs"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Site) TableName() string { return "sites" }

// Membership links a user to a site. The owner always has a membership row.
type Membership struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	SiteID string `gorm:"size:36;uniqueIndex:idx_site_user" json:"siteId"`
	UserID string `gorm:"size:36;uniqueIndex:idx_site_user" json:"userId"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Membership) TableName() string { return "memberships" }

type SiteRepository interface {
	Create(s *Site) error
	FindByID(id string) (*Site, error)
	FindByDomain(domain string) (*Site, error)
	List(offset, limit int) ([]Site, int64, error)
	Update(s *Site) error
	// UpdateDomain persists only the domain column; used by the
	// change-domain task between alias unbind and rebind.
	UpdateDomain(id, newDomain string) error
	Delete(id string) error

	AddMember(siteID, userID string) error
	IsMember(siteID, userID string) (bool, error)
	ListMembers(siteID string) ([]User, error)
	ListMemberSites(userID string) ([]Site, error)
}
