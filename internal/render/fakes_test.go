package render

import (
	"sort"
	"strings"
	"sync"

	"muckamuck/internal/domain"
)

// In-memory repositories backing renderer tests. Behavior mirrors the
// gorm implementations: publish-desc ordering, comma-wrapped tag
// containment, sentinel errors.

type memStore struct {
	mu      sync.Mutex
	sites   map[string]*domain.Site
	posts   map[string]*domain.Post
	users   map[string]*domain.User
	members map[string][]string // siteID -> userIDs in insertion order
}

func newMemStore() *memStore {
	return &memStore{
		sites:   map[string]*domain.Site{},
		posts:   map[string]*domain.Post{},
		users:   map[string]*domain.User{},
		members: map[string][]string{},
	}
}

func (m *memStore) addSite(s domain.Site) *domain.Site    { m.sites[s.ID] = &s; return &s }
func (m *memStore) addUser(u domain.User) *domain.User    { m.users[u.ID] = &u; return &u }
func (m *memStore) addPost(p domain.Post) *domain.Post    { m.posts[p.ID] = &p; return &p }
func (m *memStore) addMember(siteID, userID string)       { m.members[siteID] = append(m.members[siteID], userID) }

type memSiteRepo struct{ s *memStore }

func (r memSiteRepo) Create(s *domain.Site) error {
	for _, other := range r.s.sites {
		if other.Domain == s.Domain {
			return domain.ErrDuplicate
		}
	}
	cp := *s
	r.s.sites[s.ID] = &cp
	return nil
}

func (r memSiteRepo) FindByID(id string) (*domain.Site, error) {
	s, ok := r.s.sites[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r memSiteRepo) FindByDomain(d string) (*domain.Site, error) {
	for _, s := range r.s.sites {
		if s.Domain == d {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memSiteRepo) List(offset, limit int) ([]domain.Site, int64, error) {
	var out []domain.Site
	for _, s := range r.s.sites {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r memSiteRepo) Update(s *domain.Site) error {
	cp := *s
	r.s.sites[s.ID] = &cp
	return nil
}

func (r memSiteRepo) UpdateDomain(id, newDomain string) error {
	s, ok := r.s.sites[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Domain = newDomain
	return nil
}

func (r memSiteRepo) Delete(id string) error {
	delete(r.s.sites, id)
	delete(r.s.members, id)
	return nil
}

func (r memSiteRepo) AddMember(siteID, userID string) error {
	for _, id := range r.s.members[siteID] {
		if id == userID {
			return domain.ErrDuplicate
		}
	}
	r.s.addMember(siteID, userID)
	return nil
}

func (r memSiteRepo) IsMember(siteID, userID string) (bool, error) {
	for _, id := range r.s.members[siteID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memSiteRepo) ListMembers(siteID string) ([]domain.User, error) {
	var out []domain.User
	for _, id := range r.s.members[siteID] {
		if u, ok := r.s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r memSiteRepo) ListMemberSites(userID string) ([]domain.Site, error) {
	var out []domain.Site
	for siteID, ids := range r.s.members {
		for _, id := range ids {
			if id == userID {
				if s, ok := r.s.sites[siteID]; ok {
					out = append(out, *s)
				}
			}
		}
	}
	return out, nil
}

type memPostRepo struct{ s *memStore }

func (r memPostRepo) Create(p *domain.Post) error {
	for _, other := range r.s.posts {
		if other.SiteID == p.SiteID && other.Slug == p.Slug {
			return domain.ErrDuplicate
		}
	}
	cp := *p
	r.s.posts[p.ID] = &cp
	return nil
}

func (r memPostRepo) FindByID(id string) (*domain.Post, error) {
	p, ok := r.s.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memPostRepo) FindBySlug(siteID, slug string) (*domain.Post, error) {
	for _, p := range r.s.posts {
		if p.SiteID == siteID && p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func matches(p *domain.Post, f domain.PostFilter) bool {
	if !f.IncludeDrafts && p.Draft {
		return false
	}
	if f.Tag != "" && !strings.Contains(p.Tags, ","+f.Tag+",") {
		return false
	}
	if f.AuthorID != "" && p.AuthorID != f.AuthorID {
		return false
	}
	return true
}

func (r memPostRepo) ListBySite(siteID string, f domain.PostFilter, offset, limit int) ([]domain.Post, error) {
	var out []domain.Post
	for _, p := range r.s.posts {
		if p.SiteID == siteID && matches(p, f) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].ID < out[j].ID
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memPostRepo) CountBySite(siteID string, f domain.PostFilter) (int64, error) {
	posts, _ := r.ListBySite(siteID, f, 0, 0)
	return int64(len(posts)), nil
}

func (r memPostRepo) DistinctTags(siteID string) ([]string, error) {
	seen := map[string]struct{}{}
	var tags []string
	posts, _ := r.ListBySite(siteID, domain.PostFilter{IncludeDrafts: true}, 0, 0)
	for i := range posts {
		for _, t := range posts[i].TagList() {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				tags = append(tags, t)
			}
		}
	}
	return tags, nil
}

func (r memPostRepo) CountByTitle(siteID, title string) (int64, error) {
	var n int64
	for _, p := range r.s.posts {
		if p.SiteID == siteID && p.Title == title {
			n++
		}
	}
	return n, nil
}

func (r memPostRepo) Update(p *domain.Post) error {
	cp := *p
	r.s.posts[p.ID] = &cp
	return nil
}

func (r memPostRepo) Delete(id string) error {
	if _, ok := r.s.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.posts, id)
	return nil
}

func (r memPostRepo) DeleteBySite(siteID string) error {
	for id, p := range r.s.posts {
		if p.SiteID == siteID {
			delete(r.s.posts, id)
		}
	}
	return nil
}

type memUserRepo struct{ s *memStore }

func (r memUserRepo) Create(u *domain.User) error {
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r memUserRepo) FindByID(id string) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUserRepo) FindByEmail(email string) (*domain.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memUserRepo) List(offset, limit int) ([]domain.User, int64, error) {
	var out []domain.User
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r memUserRepo) Update(u *domain.User) error {
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r memUserRepo) SoftDelete(id string) error {
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}
