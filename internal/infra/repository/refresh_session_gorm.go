package repository

import (
	"context"
	"errors"
	"time"

	"authsvc/internal/domain/model"
	repo "authsvc/internal/repository"

	"github.com/samber/oops"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type refreshSessionGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewRefreshSessionGormRepository(db *gorm.DB) repo.RefreshSessionRepository {
	return &refreshSessionGormRepository{db: db}
}

// sessionを保存。token_hashはここで埋める
func (r *refreshSessionGormRepository) Create(ctx context.Context, session *model.RefreshSession, token string) error {
	session.TokenHash = repo.HashToken(token)

	//タイムアウトやキャンセルをDB処理に伝える
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error; err != nil {
		return oops.In("refresh_sessions").With("session_id", session.ID).Wrapf(err, "create session")
	}
	return nil
}

// tokenで1件検索します。Userも読み込む。
func (r *refreshSessionGormRepository) FindByToken(ctx context.Context, token string) (*model.RefreshSession, error) {
	var session model.RefreshSession

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("token_hash = ?", repo.HashToken(token)).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrRefreshSessionNotFound
		}
		return nil, oops.In("refresh_sessions").Wrapf(err, "find session")
	}

	return &session, nil
}

// tokenのsessionを削除。
func (r *refreshSessionGormRepository) DeleteByToken(ctx context.Context, token string) error {
	return deleteByTokenHash(r.db.WithContext(ctx), repo.HashToken(token))
}

// 旧sessionの削除と新sessionの追加を1つのTxで行う。
// 同じ旧tokenで同時に来た場合、後から来た方のDELETEは0件になり負ける。
func (r *refreshSessionGormRepository) Replace(ctx context.Context, oldToken string, next *model.RefreshSession, nextToken string) error {
	next.TokenHash = repo.HashToken(nextToken)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteByTokenHash(tx, repo.HashToken(oldToken)); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(next).Error; err != nil {
			return oops.In("refresh_sessions").With("session_id", next.ID).Wrapf(err, "insert rotated session")
		}
		return nil
	})
}

// 期限切れを全削除
func (r *refreshSessionGormRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.RefreshSession{})
	if res.Error != nil {
		return 0, oops.In("refresh_sessions").Wrapf(res.Error, "delete expired sessions")
	}
	return res.RowsAffected, nil
}

func deleteByTokenHash(db *gorm.DB, tokenHash string) error {
	result := db.Where("token_hash = ?", tokenHash).Delete(&model.RefreshSession{})

	if result.Error != nil {
		return oops.In("refresh_sessions").Wrapf(result.Error, "delete session")
	}
	// 0件なら「すでに使用済み/存在しない」
	if result.RowsAffected == 0 {
		return repo.ErrRefreshSessionNotFound
	}

	return nil
}
