package render

import "muckamuck/internal/domain"

// Page is one slice of an ordered post collection. Numbers are 1-based.
type Page struct {
	Posts      []domain.Post
	Number     int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Paginate splits posts into fixed-size pages. Zero posts yields zero
// pages; callers are responsible for clearing stale artifacts first.
func Paginate(posts []domain.Post, pageSize int) []Page {
	if pageSize <= 0 || len(posts) == 0 {
		return nil
	}
	total := (len(posts) + pageSize - 1) / pageSize
	pages := make([]Page, 0, total)
	for i := 0; i < total; i++ {
		lo := i * pageSize
		hi := lo + pageSize
		if hi > len(posts) {
			hi = len(posts)
		}
		pages = append(pages, Page{
			Posts:      posts[lo:hi],
			Number:     i + 1,
			TotalPages: total,
			HasPrev:    i > 0,
			HasNext:    i+1 < total,
		})
	}
	return pages
}
