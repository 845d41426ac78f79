package render

import (
	"time"

	"muckamuck/internal/domain"
)

// Context builders produce the mappings handed to theme templates. Shapes
// are part of the theme contract: site, post (with nested author), and the
// page-set fields current_page / total_pages / title.

func siteContext(s *domain.Site) map[string]any {
	return map[string]any{
		"uuid":         s.ID,
		"domain":       s.Domain,
		"title":        s.Title,
		"description":  s.Description,
		"language":     s.Language,
		"created_date": s.CreatedAt.Format(time.RFC3339),
	}
}

func authorContext(u *domain.User) map[string]any {
	if u == nil {
		return map[string]any{}
	}
	return map[string]any{
		"uuid":  u.ID,
		"name":  u.Name,
		"email": u.PublicEmail,
		"bio":   u.Bio,
	}
}

func postContext(p *domain.Post, author *domain.User) map[string]any {
	return map[string]any{
		"uuid":         p.ID,
		"title":        p.Title,
		"slug":         p.Slug,
		"body":         p.Body,
		"description":  p.Description,
		"tags":         p.TagList(),
		"draft":        p.Draft,
		"publish_date": p.PublishedAt.Format(time.RFC3339),
		"author":       authorContext(author),
	}
}

func pageContext(site *domain.Site, page Page, title string, authors map[string]*domain.User) map[string]any {
	posts := make([]map[string]any, 0, len(page.Posts))
	for i := range page.Posts {
		p := &page.Posts[i]
		posts = append(posts, postContext(p, authors[p.AuthorID]))
	}
	return map[string]any{
		"site":         siteContext(site),
		"posts":        posts,
		"title":        title,
		"current_page": page.Number,
		"total_pages":  page.TotalPages,
		"has_prev":     page.HasPrev,
		"has_next":     page.HasNext,
	}
}
