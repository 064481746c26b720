package memstore

import (
	"context"
	"time"

	"authsvc/internal/domain/model"
	repo "authsvc/internal/repository"
)

// ロックを取ってから内部処理を呼ぶ
type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.createUser(user)
}

func (r userRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.findUserByID(id)
}

func (r userRepo) FindByUserName(_ context.Context, name string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.findUserByName(name)
}

func (r userRepo) CountByFingerprintSince(_ context.Context, fingerprint string, since time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.countByFingerprintSince(fingerprint, since), nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, session *model.RefreshSession, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.createSession(session, token)
}

func (r sessionRepo) FindByToken(_ context.Context, token string) (*model.RefreshSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.findSession(token)
}

func (r sessionRepo) DeleteByToken(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.deleteSession(token)
}

func (r sessionRepo) Replace(_ context.Context, oldToken string, next *model.RefreshSession, nextToken string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.replaceSession(oldToken, next, nextToken)
}

func (r sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.deleteExpired(now), nil
}

type auditRepo struct{ s *Store }

func (r auditRepo) Create(_ context.Context, log model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	log.ID = int64(len(r.s.audit) + 1)
	r.s.audit = append(r.s.audit, log)
	return nil
}

// Tx内（ロック取得済み）で使う窓口
type txRepos struct{ s *Store }

func (t txRepos) Users() repo.UserRepository              { return txUserRepo{t.s} }
func (t txRepos) Sessions() repo.RefreshSessionRepository { return txSessionRepo{t.s} }

type txUserRepo struct{ s *Store }

func (r txUserRepo) Create(_ context.Context, user *model.User) error {
	return r.s.createUser(user)
}

func (r txUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.s.findUserByID(id)
}

func (r txUserRepo) FindByUserName(_ context.Context, name string) (*model.User, error) {
	return r.s.findUserByName(name)
}

func (r txUserRepo) CountByFingerprintSince(_ context.Context, fingerprint string, since time.Time) (int64, error) {
	return r.s.countByFingerprintSince(fingerprint, since), nil
}

type txSessionRepo struct{ s *Store }

func (r txSessionRepo) Create(_ context.Context, session *model.RefreshSession, token string) error {
	return r.s.createSession(session, token)
}

func (r txSessionRepo) FindByToken(_ context.Context, token string) (*model.RefreshSession, error) {
	return r.s.findSession(token)
}

func (r txSessionRepo) DeleteByToken(_ context.Context, token string) error {
	return r.s.deleteSession(token)
}

func (r txSessionRepo) Replace(_ context.Context, oldToken string, next *model.RefreshSession, nextToken string) error {
	return r.s.replaceSession(oldToken, next, nextToken)
}

func (r txSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return r.s.deleteExpired(now), nil
}
