package domain

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Email        string `gorm:"uniqueIndex;size:191" json:"email"`
	PasswordHash string `gorm:"size:191" json:"-"`
	Name         string `gorm:"size:64" json:"name"`
	PublicEmail  string `gorm:"size:191" json:"publicEmail"`
	Bio          string `gorm:"size:512" json:"bio"`
	Twitter      string `gorm:"size:64" json:"twitter"`
	CustomerID   string `gorm:"size:64" json:"-"` // billing reference
	Role         string `gorm:"size:16;default:user" json:"role"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

type UserRepository interface {
	Create(u *User) error
	FindByID(id string) (*User, error)
	FindByEmail(email string) (*User, error)
	List(offset, limit int) ([]User, int64, error)
	Update(u *User) error
	SoftDelete(id string) error
}
