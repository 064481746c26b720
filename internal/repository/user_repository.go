package repository

import (
	"authsvc/internal/domain/model"
	"context"
	"errors"
	"time"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// user_nameの一意制約違反
var ErrDuplicateUser = errors.New("duplicate user")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（重複はErrDuplicateUser）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	//ユーザー名から1件取得する（完全一致）。
	FindByUserName(ctx context.Context, userName string) (*model.User, error)
	//同じfingerprintでsince以降に登録されたユーザー数
	CountByFingerprintSince(ctx context.Context, fingerprint string, since time.Time) (int64, error)
}
