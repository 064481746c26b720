// memstoreはrepositoryのインメモリ実装（STORE_DRIVER=memory とテスト用）。
// 全操作を1つのmutexで直列化するので、Replaceはpostgres実装と同じく原子的。
package memstore

import (
	"context"
	"maps"
	"sync"
	"time"

	"authsvc/internal/domain/model"
	repo "authsvc/internal/repository"

	"github.com/samber/oops"
)

type Store struct {
	mu sync.Mutex

	users    map[string]model.User           // id -> user
	sessions map[string]model.RefreshSession // token hash -> session
	audit    []model.AuditLog
}

func New() *Store {
	return &Store{
		users:    make(map[string]model.User),
		sessions: make(map[string]model.RefreshSession),
	}
}

// ポートごとの窓口
func (s *Store) Users() repo.UserRepository              { return userRepo{s} }
func (s *Store) Sessions() repo.RefreshSessionRepository { return sessionRepo{s} }
func (s *Store) AuditLogs() repo.AuditLogRepository      { return auditRepo{s} }

// ロックを持ったままfnを実行。エラーならfn内の変更を全部戻す
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := maps.Clone(s.users)
	sessions := maps.Clone(s.sessions)

	if err := fn(txRepos{s}); err != nil {
		s.users = users
		s.sessions = sessions
		return err
	}
	return nil
}

// 件数（テスト・確認用）
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// 監査ログのコピー
func (s *Store) AuditEntries() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditLog, len(s.audit))
	copy(out, s.audit)
	return out
}

// ここから下はロック取得済みで呼ぶ

func (s *Store) createUser(user *model.User) error {
	for _, u := range s.users {
		if u.UserName == user.UserName {
			return repo.ErrDuplicateUser
		}
	}
	if _, ok := s.users[user.ID]; ok {
		return oops.In("memstore").With("user_id", user.ID).Errorf("duplicate user id")
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) findUserByName(name string) (*model.User, error) {
	for _, u := range s.users {
		if u.UserName == name {
			return &u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (s *Store) findUserByID(id string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) countByFingerprintSince(fingerprint string, since time.Time) int64 {
	var n int64
	for _, u := range s.users {
		if u.Fingerprint == fingerprint && !u.RegistrationDate.Before(since) {
			n++
		}
	}
	return n
}

func (s *Store) createSession(session *model.RefreshSession, token string) error {
	if _, ok := s.users[session.UserID]; !ok {
		return oops.In("memstore").With("user_id", session.UserID).Errorf("session owner does not exist")
	}
	hash := repo.HashToken(token)
	if _, ok := s.sessions[hash]; ok {
		return oops.In("memstore").Errorf("duplicate refresh token")
	}
	session.TokenHash = hash
	stored := *session
	stored.User = nil
	s.sessions[hash] = stored
	return nil
}

func (s *Store) findSession(token string) (*model.RefreshSession, error) {
	stored, ok := s.sessions[repo.HashToken(token)]
	if !ok {
		return nil, repo.ErrRefreshSessionNotFound
	}
	user, err := s.findUserByID(stored.UserID)
	if err != nil {
		return nil, err
	}
	stored.User = user
	return &stored, nil
}

func (s *Store) deleteSession(token string) error {
	hash := repo.HashToken(token)
	if _, ok := s.sessions[hash]; !ok {
		return repo.ErrRefreshSessionNotFound
	}
	delete(s.sessions, hash)
	return nil
}

func (s *Store) replaceSession(oldToken string, next *model.RefreshSession, nextToken string) error {
	oldHash := repo.HashToken(oldToken)
	old, ok := s.sessions[oldHash]
	if !ok {
		return repo.ErrRefreshSessionNotFound
	}
	delete(s.sessions, oldHash)
	if err := s.createSession(next, nextToken); err != nil {
		s.sessions[oldHash] = old
		return err
	}
	return nil
}

func (s *Store) deleteExpired(now time.Time) int64 {
	var n int64
	for hash, sess := range s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.sessions, hash)
			n++
		}
	}
	return n
}
