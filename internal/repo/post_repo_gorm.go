package repo

import (
	"errors"

	"gorm.io/gorm"

	"muckamuck/internal/domain"
)

type PostRepo struct{ db *gorm.DB }

func NewPostRepo(db *gorm.DB) *PostRepo { return &PostRepo{db: db} }

func (r *PostRepo) Create(p *domain.Post) error {
	if err := r.db.Create(p).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *PostRepo) FindByID(id string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &p, err
}

func (r *PostRepo) FindBySlug(siteID, slug string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.First(&p, "site_id = ? AND slug = ?", siteID, slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &p, err
}

func (r *PostRepo) scope(siteID string, f domain.PostFilter) *gorm.DB {
	q := r.db.Model(&domain.Post{}).Where("site_id = ?", siteID)
	if !f.IncludeDrafts {
		q = q.Where("draft = ?", false)
	}
	if f.Tag != "" {
		// tags are stored comma-wrapped, so ",tag," cannot match a prefix
		q = q.Where("tags LIKE ?", "%,"+f.Tag+",%")
	}
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	return q
}

func (r *PostRepo) ListBySite(siteID string, f domain.PostFilter, offset, limit int) ([]domain.Post, error) {
	var posts []domain.Post
	q := r.scope(siteID, f).Order("published_at desc").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return posts, q.Find(&posts).Error
}

func (r *PostRepo) CountBySite(siteID string, f domain.PostFilter) (int64, error) {
	var n int64
	return n, r.scope(siteID, f).Count(&n).Error
}

func (r *PostRepo) DistinctTags(siteID string) ([]string, error) {
	var rows []string
	err := r.db.Model(&domain.Post{}).
		Where("site_id = ? AND tags <> ''", siteID).
		Pluck("tags", &rows).Error
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var tags []string
	for _, raw := range rows {
		p := domain.Post{Tags: raw}
		for _, t := range p.TagList() {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				tags = append(tags, t)
			}
		}
	}
	return tags, nil
}

func (r *PostRepo) CountByTitle(siteID, title string) (int64, error) {
	var n int64
	err := r.db.Model(&domain.Post{}).
		Where("site_id = ? AND title = ?", siteID, title).Count(&n).Error
	return n, err
}

func (r *PostRepo) Update(p *domain.Post) error { return r.db.Save(p).Error }

func (r *PostRepo) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&domain.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostRepo) DeleteBySite(siteID string) error {
	return r.db.Where("site_id = ?", siteID).Delete(&domain.Post{}).Error
}
