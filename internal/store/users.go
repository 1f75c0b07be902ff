package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/milan604/ops-admin/internal/model"
	"github.com/milan604/ops-admin/pkg/errors"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Preload("Authorities").
		First(&u, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) FindByAccount(ctx context.Context, account string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Preload("Authorities").
		Where("mobile = ? OR email = ?", account, account).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// listOrderColumns is the whitelist for ORDER BY; anything else falls back to id.
var listOrderColumns = map[string]bool{
	"id":         true,
	"name":       true,
	"mobile":     true,
	"email":      true,
	"created_at": true,
	"updated_at": true,
}

func (r *userRepo) List(ctx context.Context, f ListFilter, p Page) ([]model.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if f.Name != "" {
		q = q.Where("name ILIKE ?", "%"+f.Name+"%")
	}
	if f.Mobile != "" {
		q = q.Where("mobile ILIKE ?", "%"+f.Mobile+"%")
	}
	if f.Email != "" {
		q = q.Where("email ILIKE ?", "%"+f.Email+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count users")
	}

	orderBy := p.OrderBy
	if !listOrderColumns[orderBy] {
		orderBy = "id"
	}
	order := "ASC"
	if strings.EqualFold(p.Order, "desc") {
		order = "DESC"
	}

	var users []model.User
	err := q.Preload("Authorities").
		Order(orderBy + " " + order).
		Offset(p.Offset()).
		Limit(p.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list users")
	}
	return users, total, nil
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return errors.Wrap(err, "create user")
	}
	return nil
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	err := r.db.WithContext(ctx).
		Model(u).
		Omit("Authorities").
		Updates(map[string]interface{}{
			"name":       u.Name,
			"mobile":     u.Mobile,
			"email":      u.Email,
			"updated_by": u.UpdatedBy,
		}).Error
	if err != nil {
		return errors.Wrap(err, "update user")
	}
	return nil
}

func (r *userRepo) ExistsMobile(ctx context.Context, mobile string, excludeID uint) (bool, error) {
	return r.exists(ctx, "mobile", mobile, excludeID)
}

func (r *userRepo) ExistsEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *userRepo) exists(ctx context.Context, column, value string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.User{}).Where(column+" = ?", value)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "check "+column+" uniqueness")
	}
	return count > 0, nil
}

// ReplaceAuthorities drops every live grant of the user and recreates the
// given set. Callers run it inside WithTx together with the user update.
func (r *userRepo) ReplaceAuthorities(ctx context.Context, userID uint, rows []model.Authority, updatedBy uint) error {
	db := r.db.WithContext(ctx)
	err := db.Model(&model.Authority{}).
		Where("user_id = ?", userID).
		Update("deleted_by", updatedBy).Error
	if err != nil {
		return errors.Wrap(err, "mark old authorities")
	}
	if err := db.Where("user_id = ?", userID).Delete(&model.Authority{}).Error; err != nil {
		return errors.Wrap(err, "delete old authorities")
	}
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].UserID = userID
	}
	if err := db.Create(&rows).Error; err != nil {
		return errors.Wrap(err, "create authorities")
	}
	return nil
}

// SoftDelete stamps deleted_by on the user and its grants, then soft-deletes
// both. Callers run it inside WithTx together with the session purge.
func (r *userRepo) SoftDelete(ctx context.Context, id uint, deletedBy uint) error {
	db := r.db.WithContext(ctx)
	now := time.Now()

	err := db.Model(&model.Authority{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{"deleted_by": deletedBy, "deleted_at": now}).Error
	if err != nil {
		return errors.Wrap(err, "delete authorities")
	}

	res := db.Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"deleted_by": deletedBy, "deleted_at": now})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
