package tasks

import (
	"sort"
	"strings"

	"muckamuck/internal/domain"
)

// Minimal in-memory repositories for handler tests. Only the behavior the
// render pipeline depends on is faithful: publish-desc ordering, tag
// containment, sentinel errors.

type fakeStore struct {
	sites   map[string]*domain.Site
	posts   map[string]*domain.Post
	users   map[string]*domain.User
	members map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sites:   map[string]*domain.Site{},
		posts:   map[string]*domain.Post{},
		users:   map[string]*domain.User{},
		members: map[string][]string{},
	}
}

type fakeSites struct{ s *fakeStore }

func (r fakeSites) Create(s *domain.Site) error { r.s.sites[s.ID] = s; return nil }

func (r fakeSites) FindByID(id string) (*domain.Site, error) {
	s, ok := r.s.sites[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r fakeSites) FindByDomain(d string) (*domain.Site, error) {
	for _, s := range r.s.sites {
		if s.Domain == d {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r fakeSites) List(offset, limit int) ([]domain.Site, int64, error) { return nil, 0, nil }

func (r fakeSites) Update(s *domain.Site) error {
	cp := *s
	r.s.sites[s.ID] = &cp
	return nil
}

func (r fakeSites) UpdateDomain(id, newDomain string) error {
	s, ok := r.s.sites[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Domain = newDomain
	return nil
}

func (r fakeSites) Delete(id string) error {
	delete(r.s.sites, id)
	delete(r.s.members, id)
	return nil
}

func (r fakeSites) AddMember(siteID, userID string) error {
	r.s.members[siteID] = append(r.s.members[siteID], userID)
	return nil
}

func (r fakeSites) IsMember(siteID, userID string) (bool, error) {
	for _, id := range r.s.members[siteID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeSites) ListMembers(siteID string) ([]domain.User, error) {
	var out []domain.User
	for _, id := range r.s.members[siteID] {
		if u, ok := r.s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r fakeSites) ListMemberSites(userID string) ([]domain.Site, error) { return nil, nil }

type fakePosts struct{ s *fakeStore }

func (r fakePosts) Create(p *domain.Post) error { r.s.posts[p.ID] = p; return nil }

func (r fakePosts) FindByID(id string) (*domain.Post, error) {
	p, ok := r.s.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakePosts) FindBySlug(siteID, slug string) (*domain.Post, error) {
	for _, p := range r.s.posts {
		if p.SiteID == siteID && p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r fakePosts) ListBySite(siteID string, f domain.PostFilter, offset, limit int) ([]domain.Post, error) {
	var out []domain.Post
	for _, p := range r.s.posts {
		if p.SiteID != siteID {
			continue
		}
		if !f.IncludeDrafts && p.Draft {
			continue
		}
		if f.Tag != "" && !strings.Contains(p.Tags, ","+f.Tag+",") {
			continue
		}
		if f.AuthorID != "" && p.AuthorID != f.AuthorID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakePosts) CountBySite(siteID string, f domain.PostFilter) (int64, error) {
	posts, _ := r.ListBySite(siteID, f, 0, 0)
	return int64(len(posts)), nil
}

func (r fakePosts) DistinctTags(siteID string) ([]string, error) {
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

func (r fakePosts) CountByTitle(siteID, title string) (int64, error) { return 0, nil }

func (r fakePosts) Update(p *domain.Post) error {
	cp := *p
	r.s.posts[p.ID] = &cp
	return nil
}

func (r fakePosts) Delete(id string) error {
	delete(r.s.posts, id)
	return nil
}

func (r fakePosts) DeleteBySite(siteID string) error {
	for id, p := range r.s.posts {
		if p.SiteID == siteID {
			delete(r.s.posts, id)
		}
	}
	return nil
}

type fakeUsers struct{ s *fakeStore }

func (r fakeUsers) Create(u *domain.User) error { r.s.users[u.ID] = u; return nil }

func (r fakeUsers) FindByID(id string) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r fakeUsers) FindByEmail(email string) (*domain.User, error) { return nil, domain.ErrNotFound }

func (r fakeUsers) List(offset, limit int) ([]domain.User, int64, error) { return nil, 0, nil }

func (r fakeUsers) Update(u *domain.User) error { return nil }

func (r fakeUsers) SoftDelete(id string) error { return nil }
