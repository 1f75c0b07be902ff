// Package store is the persistence layer over gorm. Services depend on the
// Repos interfaces; the gorm implementation and the test fakes both satisfy
// them.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/milan604/ops-admin/internal/model"
)

// ErrNotFound is returned when a lookup matches no live row.
var ErrNotFound = errors.New("store: not found")

// ListFilter narrows the user listing. Empty fields are ignored; non-empty
// ones match as case-insensitive substrings.
type ListFilter struct {
	Name   string
	Mobile string
	Email  string
}

// Page controls listing pagination and ordering.
type Page struct {
	Page    int
	Limit   int
	OrderBy string
	Order   string
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.Limit
}

// UserRepo is the contract for account rows and their authority grants.
type UserRepo interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByAccount(ctx context.Context, account string) (*model.User, error)
	List(ctx context.Context, f ListFilter, p Page) ([]model.User, int64, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	ExistsMobile(ctx context.Context, mobile string, excludeID uint) (bool, error)
	ExistsEmail(ctx context.Context, email string, excludeID uint) (bool, error)
	ReplaceAuthorities(ctx context.Context, userID uint, rows []model.Authority, updatedBy uint) error
	SoftDelete(ctx context.Context, id uint, deletedBy uint) error
}

// SessionRepo is the contract for auth token rows.
type SessionRepo interface {
	FindByToken(ctx context.Context, token string) (*model.AuthToken, error)
	Create(ctx context.Context, t *model.AuthToken) error
	UpdateToken(ctx context.Context, oldToken, newToken string) error
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID uint) error
}

// Repos bundles the repositories handed to services. All members share one
// gorm session, so a Repos obtained inside WithTx is transactional end to end.
type Repos struct {
	Users    UserRepo
	Sessions SessionRepo
}

// Store owns the gorm handle and builds Repos bound to it.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Repos returns repositories bound to the base connection.
func (s *Store) Repos() Repos {
	return Repos{
		Users:    &userRepo{db: s.db},
		Sessions: &sessionRepo{db: s.db},
	}
}

// WithTx runs fn with Repos bound to a single transaction. A non-nil error
// from fn rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(r Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos{
			Users:    &userRepo{db: tx},
			Sessions: &sessionRepo{db: tx},
		})
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
