package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"muckamuck/internal/domain"
	"muckamuck/pkg/utils"
)

type SiteRepo struct{ db *gorm.DB }

func NewSiteRepo(db *gorm.DB) *SiteRepo { return &SiteRepo{db: db} }

func (r *SiteRepo) Create(s *domain.Site) error {
	if err := r.db.Create(s).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *SiteRepo) FindByID(id string) (*domain.Site, error) {
	var s domain.Site
	err := r.db.First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &s, err
}

func (r *SiteRepo) FindByDomain(dom string) (*domain.Site, error) {
	var s domain.Site
	err := r.db.First(&s, "domain = ?", dom).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &s, err
}

func (r *SiteRepo) List(offset, limit int) ([]domain.Site, int64, error) {
	var sites []domain.Site
	tx := r.db.Model(&domain.Site{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Find(&sites).Error; err != nil {
		return nil, 0, err
	}
	return sites, total, nil
}

func (r *SiteRepo) Update(s *domain.Site) error { return r.db.Save(s).Error }

func (r *SiteRepo) UpdateDomain(id, newDomain string) error {
	res := r.db.Model(&domain.Site{}).Where("id = ?", id).Update("domain", newDomain)
	if res.Error != nil {
		if isDupKey(res.Error) {
			return domain.ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the site row and its memberships. Post rows are removed
// separately via PostRepository.DeleteBySite before teardown is scheduled.
func (r *SiteRepo) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("site_id = ?", id).Delete(&domain.Membership{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Site{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *SiteRepo) AddMember(siteID, userID string) error {
	m := domain.Membership{ID: utils.NewID(), SiteID: siteID, UserID: userID}
	if err := r.db.Create(&m).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *SiteRepo) IsMember(siteID, userID string) (bool, error) {
	var n int64
	err := r.db.Model(&domain.Membership{}).
		Where("site_id = ? AND user_id = ?", siteID, userID).Count(&n).Error
	return n > 0, err
}

func (r *SiteRepo) ListMembers(siteID string) ([]domain.User, error) {
	var users []domain.User
	err := r.db.
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.site_id = ?", siteID).
		Find(&users).Error
	return users, err
}

func (r *SiteRepo) ListMemberSites(userID string) ([]domain.Site, error) {
	var sites []domain.Site
	err := r.db.
		Joins("JOIN memberships ON memberships.site_id = sites.id").
		Where("memberships.user_id = ?", userID).
		Order("sites.created_at desc").
		Find(&sites).Error
	return sites, err
}

// isDupKey avoids depending on gorm.ErrDuplicatedKey, which differs across
// driver versions.
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
