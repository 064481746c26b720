package repository

import (
	"authsvc/internal/domain/model"
	domainrepo "authsvc/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return domainrepo.ErrDuplicateUser
		}
		return oops.In("users").With("user_name", user.UserName).Wrapf(err, "create user")
	}
	return nil
}

// user_nameでユーザーを1件取得（大文字小文字を区別）
func (r *userGormRepository) FindByUserName(ctx context.Context, userName string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("user_name = ?", userName).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, oops.In("users").Wrapf(err, "find user by name")
	}

	return &u, nil
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, oops.In("users").With("user_id", id).Wrapf(err, "find user by id")
	}

	return &u, nil
}

// 同じfingerprintでsince以降に登録したユーザー数
func (r *userGormRepository) CountByFingerprintSince(ctx context.Context, fingerprint string, since time.Time) (int64, error) {
	var n int64

	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("fingerprint = ? AND registration_date >= ?", fingerprint, since).
		Count(&n).Error
	if err != nil {
		return 0, oops.In("users").Wrapf(err, "count registrations")
	}

	return n, nil
}

// 23505（unique_violation）かどうか
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
