package repository

import (
	"authsvc/internal/domain/model"
	"context"
	"errors"
	"time"
)

var ErrRefreshSessionNotFound = errors.New("refresh session not found")

// refresh sessionの保存・取得・削除。
// tokenは平文で受け取り、保存・検索は実装側でハッシュに変換する。
type RefreshSessionRepository interface {
	//sessionを保存。tokenはsessionのrefresh token平文
	Create(ctx context.Context, session *model.RefreshSession, token string) error

	//tokenで検索。Userも一緒に読み込む。無ければErrRefreshSessionNotFound
	FindByToken(ctx context.Context, token string) (*model.RefreshSession, error)

	//tokenのsessionを削除。無ければErrRefreshSessionNotFound
	DeleteByToken(ctx context.Context, token string) error

	//旧tokenのsessionを消して新sessionを入れる（原子的）。
	//旧tokenが既に無ければ何も入れずにErrRefreshSessionNotFound
	Replace(ctx context.Context, oldToken string, next *model.RefreshSession, nextToken string) error

	//期限切れを全削除して件数を返す
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
