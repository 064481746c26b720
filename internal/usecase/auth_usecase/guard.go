package auth

import (
	"context"
	"fmt"
	"time"

	"authsvc/internal/domain/model"
)

const (
	// 識別結果の有効時間（これ以上古いものは拒否）
	MaxIdentificationAge = 2 * time.Minute
	// login に必要な信頼度
	MinLoginConfidence = 0.9
	// 同一fingerprintでの登録数を数える期間
	RegistrationWindow = 7 * 24 * time.Hour
	// 期間内の登録数の上限（これ以上は拒否）
	MaxRegistrationsPerWindow = 5
)

// どの入口からの判定か
type Purpose int

const (
	PurposeRegister Purpose = iota + 1
	PurposeLogin
)

func (p Purpose) String() string {
	switch p {
	case PurposeRegister:
		return "register"
	case PurposeLogin:
		return "login"
	default:
		return "unknown"
	}
}

// Guardの入力
type GuardInput struct {
	Purpose          Purpose
	ClaimedVisitorID string
	Identification   model.Identification
}

// Guardは登録・ログインの不正対策判定。
// 上から順にチェックし、最初に失敗した理由を返す。nilなら許可。
type Guard struct {
	counter RegistrationCounter
	clock   Clock
}

// DI
func NewGuard(counter RegistrationCounter, clock Clock) *Guard {
	return &Guard{counter: counter, clock: clock}
}

func (g *Guard) Evaluate(ctx context.Context, in GuardInput) error {
	now := g.clock.Now()

	if err := CheckForgery(in.ClaimedVisitorID, in.Identification); err != nil {
		return err
	}
	if err := CheckFreshness(in.Identification, now); err != nil {
		return err
	}
	if in.Purpose == PurposeLogin {
		if err := CheckConfidence(in.Identification); err != nil {
			return err
		}
	}

	//登録数の上限はloginでも見る（元の挙動のまま）
	count, err := g.counter.CountByFingerprintSince(ctx, in.ClaimedVisitorID, now.Add(-RegistrationWindow))
	if err != nil {
		return fmt.Errorf("count registrations: %w", err)
	}
	return CheckRegistrationThrottle(count)
}

// クライアントのvisitor idと識別サービスのvisitor idが一致するか
func CheckForgery(claimedVisitorID string, ident model.Identification) error {
	if claimedVisitorID == "" || claimedVisitorID != ident.VisitorID {
		return ErrForgedIdentity
	}
	return nil
}

// 識別から2分経っていたら拒否（ちょうど2分も拒否）
func CheckFreshness(ident model.Identification, now time.Time) error {
	if now.Sub(ident.IdentifiedAt) >= MaxIdentificationAge {
		return ErrStaleIdentification
	}
	return nil
}

// 0.9 ちょうどは許可
func CheckConfidence(ident model.Identification) error {
	if ident.Confidence < MinLoginConfidence {
		return ErrLowConfidence
	}
	return nil
}

// 期間内の既存登録数が上限以上なら拒否
func CheckRegistrationThrottle(existing int64) error {
	if existing >= MaxRegistrationsPerWindow {
		return ErrTooManyRegistrations
	}
	return nil
}
