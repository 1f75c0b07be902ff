// Package model declares the persistent entities. Tables use singular names
// and carry full audit columns; deletion is always soft.
package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/milan604/ops-admin/internal/authority"
)

// Audited is the shared column set: identity, timestamps, soft delete and
// the id of the operator who performed each mutation.
type Audited struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedBy *uint          `json:"-"`
	UpdatedBy *uint          `json:"-"`
	DeletedBy *uint          `json:"-"`
}

// User is an admin account.
type User struct {
	Audited
	Name     string `gorm:"size:32;not null" json:"name"`
	Mobile   string `gorm:"size:16;not null" json:"mobile"`
	Email    string `gorm:"size:128;not null" json:"email"`
	Password string `gorm:"size:128;not null" json:"-"`

	Authorities []Authority `gorm:"foreignKey:UserID" json:"authorities,omitempty"`
}

func (User) TableName() string { return "user" }

// Authority is one function grant held by a user. At most one active row per
// (user, function key).
type Authority struct {
	Audited
	UserID      uint           `gorm:"not null;index" json:"userId"`
	FunctionKey string         `gorm:"size:32;not null" json:"functionKey"`
	Authority   authority.Mask `gorm:"not null" json:"authority"`
}

func (Authority) TableName() string { return "authority" }

// Grant converts the row into the in-memory grant the verifier consumes.
func (a Authority) Grant() authority.Grant {
	return authority.Grant{FunctionKey: a.FunctionKey, Authority: a.Authority}
}

// AuthToken is a user's active session. One row per sign-in; refresh rewrites
// Token in place and leaves RefreshToken untouched.
type AuthToken struct {
	Audited
	UserID       uint   `gorm:"not null;index" json:"userId"`
	Token        string `gorm:"size:512;not null;uniqueIndex" json:"token"`
	RefreshToken string `gorm:"size:64;not null" json:"refreshToken"`
}

func (AuthToken) TableName() string { return "auth_token" }

// Grants maps authority rows to verifier grants.
func Grants(rows []Authority) []authority.Grant {
	out := make([]authority.Grant, len(rows))
	for i, r := range rows {
		out[i] = r.Grant()
	}
	return out
}
