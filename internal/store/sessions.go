package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/milan604/ops-admin/internal/model"
	"github.com/milan604/ops-admin/pkg/errors"
)

type sessionRepo struct {
	db *gorm.DB
}

func (r *sessionRepo) FindByToken(ctx context.Context, token string) (*model.AuthToken, error) {
	var t model.AuthToken
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *sessionRepo) Create(ctx context.Context, t *model.AuthToken) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return errors.Wrap(err, "create session")
	}
	return nil
}

// UpdateToken rewrites the token column of the row currently holding
// oldToken. The refresh token column is untouched on purpose.
func (r *sessionRepo) UpdateToken(ctx context.Context, oldToken, newToken string) error {
	res := r.db.WithContext(ctx).
		Model(&model.AuthToken{}).
		Where("token = ?", oldToken).
		Update("token", newToken)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update session token")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the session row. Deleting an absent token is not an error.
func (r *sessionRepo) Delete(ctx context.Context, token string) error {
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.AuthToken{}).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

// DeleteByUser removes every session of the user.
func (r *sessionRepo) DeleteByUser(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.AuthToken{}).Error
	if err != nil {
		return errors.Wrap(err, "delete user sessions")
	}
	return nil
}
